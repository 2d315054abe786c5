// Package fixtures populates the on-disk data directory with a
// deterministic-shaped tree of synthetic test-pipeline artifacts. The
// shape (directory and file names) is fixed so the dashboard and the
// tests can rely on it; the contents are randomized per run.
package fixtures

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/logging"
)

// jobIDs are the fixed pipeline job identifiers the tree always
// contains.
var jobIDs = []string{"job_12345", "job_12346", "job_12347", "job_12348", "job_12349"}

var suiteNames = []string{
	"auth", "billing", "catalog", "checkout", "inventory",
	"notifications", "payments", "search", "shipping", "users",
}

var testVerdicts = []string{"PASS", "PASS", "PASS", "PASS", "FAIL", "SKIP"}

// Generate (re)populates baseDir with the fixture tree. It is
// idempotent: existing files are overwritten and nothing outside the
// generated shape is touched.
func Generate(baseDir string) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, jobID := range jobIDs {
		jobDir := filepath.Join(baseDir, "test_pipeline_results", jobID)
		if err := os.MkdirAll(filepath.Join(jobDir, "coverage"), 0o755); err != nil {
			return fmt.Errorf("create job dir %s: %w", jobID, err)
		}

		files := map[string]string{
			"integration_test.log":          logContent(rng, jobID, "integration"),
			"unit_test.log":                 logContent(rng, jobID, "unit"),
			"test_report.html":              htmlReport(rng, jobID),
			"results.json":                  resultsJSON(rng, jobID),
			"coverage/coverage_summary.txt": coverageSummary(rng),
		}
		for name, content := range files {
			path := filepath.Join(jobDir, filepath.FromSlash(name))
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return fmt.Errorf("write fixture %s: %w", name, err)
			}
		}
	}

	perfDir := filepath.Join(baseDir, "performance_reports")
	if err := os.MkdirAll(perfDir, 0o755); err != nil {
		return fmt.Errorf("create performance dir: %w", err)
	}
	for _, name := range []string{"latency_baseline.json", "throughput_run.log"} {
		content := perfContent(rng, name)
		if err := os.WriteFile(filepath.Join(perfDir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("write fixture %s: %w", name, err)
		}
	}

	logging.Info("fixture tree generated",
		zap.String("dir", baseDir), zap.Int("jobs", len(jobIDs)))
	return nil
}

func logContent(rng *rand.Rand, jobID, kind string) string {
	var b strings.Builder
	started := time.Now().Add(-time.Duration(rng.Intn(3600)) * time.Second)
	fmt.Fprintf(&b, "=== %s test run for %s ===\n", kind, jobID)
	lines := 20 + rng.Intn(60)
	for i := 0; i < lines; i++ {
		suite := suiteNames[rng.Intn(len(suiteNames))]
		verdict := testVerdicts[rng.Intn(len(testVerdicts))]
		ts := started.Add(time.Duration(i) * time.Second)
		fmt.Fprintf(&b, "%s %s_%s_test case_%02d ... %s (%dms)\n",
			ts.Format(time.RFC3339), suite, kind, rng.Intn(40), verdict, rng.Intn(900)+10)
	}
	fmt.Fprintf(&b, "=== run complete: %d cases ===\n", lines)
	return b.String()
}

func htmlReport(rng *rand.Rand, jobID string) string {
	total := 50 + rng.Intn(200)
	failed := rng.Intn(8)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Test Report %s</title></head>
<body>
<h1>Pipeline %s</h1>
<p>Total cases: %d</p>
<p>Failed: %d</p>
<p>Pass rate: %.1f%%</p>
</body>
</html>
`, jobID, jobID, total, failed, 100*float64(total-failed)/float64(total))
}

func resultsJSON(rng *rand.Rand, jobID string) string {
	total := 50 + rng.Intn(200)
	failed := rng.Intn(8)
	skipped := rng.Intn(12)
	return fmt.Sprintf(`{
  "jobId": %q,
  "total": %d,
  "passed": %d,
  "failed": %d,
  "skipped": %d,
  "durationSeconds": %d
}
`, jobID, total, total-failed-skipped, failed, skipped, 30+rng.Intn(600))
}

func coverageSummary(rng *rand.Rand) string {
	var b strings.Builder
	b.WriteString("package coverage summary\n")
	for _, suite := range suiteNames {
		fmt.Fprintf(&b, "%-16s %5.1f%%\n", suite, 40+rng.Float64()*60)
	}
	return b.String()
}

func perfContent(rng *rand.Rand, name string) string {
	if strings.HasSuffix(name, ".json") {
		return fmt.Sprintf(`{"p50_ms": %d, "p95_ms": %d, "p99_ms": %d}
`, 5+rng.Intn(20), 20+rng.Intn(80), 50+rng.Intn(400))
	}
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "window_%02d rps=%d errors=%d\n", i, 800+rng.Intn(600), rng.Intn(5))
	}
	return b.String()
}
