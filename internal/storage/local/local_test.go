package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/vfs"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	base := t.TempDir()

	dirs := []string{
		"test_pipeline_results/job_12345",
		"test_pipeline_results/job_12346",
		"empty_dir",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(base, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	files := map[string]string{
		"test_pipeline_results/job_12345/integration_test.log": "integration log body",
		"test_pipeline_results/job_12345/results.json":         `{"passed": 10}`,
		"test_pipeline_results/job_12346/unit_test.log":        "unit log body",
		"readme.txt": "top level file",
	}
	for name, content := range files {
		path := filepath.Join(base, filepath.FromSlash(name))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	a, err := New(base)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestListRoot(t *testing.T) {
	a := newTestAdapter(t)
	entries, err := a.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	byName := map[string]vfs.Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 root entries, got %d", len(entries))
	}

	dir, ok := byName["test_pipeline_results"]
	if !ok || !dir.IsFolder {
		t.Fatalf("test_pipeline_results missing or not a folder: %+v", dir)
	}
	if dir.MimeType != vfs.DirectoryMimeType {
		t.Errorf("folder mime = %q", dir.MimeType)
	}
	if dir.Path != "/test_pipeline_results" || dir.ParentPath != "/" {
		t.Errorf("folder path/parent = %q/%q", dir.Path, dir.ParentPath)
	}

	f, ok := byName["readme.txt"]
	if !ok || f.IsFolder {
		t.Fatalf("readme.txt missing or wrong kind: %+v", f)
	}
	if f.Content != "top level file" {
		t.Errorf("listing did not load content inline: %q", f.Content)
	}
	if f.Size != int64(len("top level file")) {
		t.Errorf("size = %d", f.Size)
	}
}

func TestListJobDir(t *testing.T) {
	a := newTestAdapter(t)
	entries, err := a.List(context.Background(), "test_pipeline_results/job_12345")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, e := range entries {
		if e.Name == "integration_test.log" {
			found = true
			if e.ParentPath != "/test_pipeline_results/job_12345" {
				t.Errorf("parentPath = %q", e.ParentPath)
			}
		}
	}
	if !found {
		t.Fatal("integration_test.log not in job listing")
	}
}

func TestListMissingDir(t *testing.T) {
	a := newTestAdapter(t)
	_, err := a.List(context.Background(), "/no/such/dir")
	if !errors.Is(err, vfs.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRead(t *testing.T) {
	a := newTestAdapter(t)
	content, err := a.Read(context.Background(), "/readme.txt")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if content != "top level file" {
		t.Errorf("content = %q", content)
	}
}

func TestReadMissing(t *testing.T) {
	a := newTestAdapter(t)
	_, err := a.Read(context.Background(), "/ghost.log")
	if !errors.Is(err, vfs.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReadDirectory(t *testing.T) {
	a := newTestAdapter(t)
	_, err := a.Read(context.Background(), "/empty_dir")
	if !errors.Is(err, vfs.ErrNotAFile) {
		t.Fatalf("err = %v, want ErrNotAFile", err)
	}
}

func TestInfo(t *testing.T) {
	a := newTestAdapter(t)
	info, err := a.Info(context.Background(), "test_pipeline_results/job_12345/results.json")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info == nil {
		t.Fatal("expected entry")
	}
	if info.IsFolder {
		t.Error("results.json reported as folder")
	}
	if info.Size != int64(len(`{"passed": 10}`)) {
		t.Errorf("size = %d", info.Size)
	}
	if info.MimeType[:16] != "application/json" {
		t.Errorf("mime = %q", info.MimeType)
	}
}

func TestInfoAbsentIsNilNotError(t *testing.T) {
	a := newTestAdapter(t)
	info, err := a.Info(context.Background(), "/nope")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil, got %+v", info)
	}
}

func TestInfoRoot(t *testing.T) {
	a := newTestAdapter(t)
	info, err := a.Info(context.Background(), "/")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info == nil || !info.IsFolder {
		t.Fatalf("root should be a folder entry, got %+v", info)
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	a := newTestAdapter(t)
	results, err := a.Search(context.Background(), "INTEGRATION", 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "integration_test.log" {
		t.Fatalf("results = %+v", results)
	}
}

func TestSearchRecursesIntoDirectories(t *testing.T) {
	a := newTestAdapter(t)
	results, err := a.Search(context.Background(), "job_", 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both job dirs, got %+v", results)
	}
}

func TestSearchStopsAtLimit(t *testing.T) {
	a := newTestAdapter(t)
	// "test" matches the top dir, both logs and test_report-free names;
	// cap below the match count.
	results, err := a.Search(context.Background(), "t", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("limit not enforced: %d results", len(results))
	}
}

func TestStats(t *testing.T) {
	a := newTestAdapter(t)
	stats, err := a.Stats(context.Background(), "/test_pipeline_results/job_12345")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	wantSize := int64(len("integration log body") + len(`{"passed": 10}`))
	if stats.TotalFiles != 2 || stats.TotalDirectories != 0 || stats.TotalSize != wantSize {
		t.Fatalf("stats = %+v, want 2 files, 0 dirs, %d bytes", stats, wantSize)
	}
}

func TestStatsMixed(t *testing.T) {
	a := newTestAdapter(t)
	stats, err := a.Stats(context.Background(), "/")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalFiles != 1 || stats.TotalDirectories != 2 {
		t.Fatalf("stats = %+v, want 1 file and 2 dirs", stats)
	}
	if stats.TotalSize != int64(len("top level file")) {
		t.Errorf("directories must not contribute to size: %d", stats.TotalSize)
	}
}

func TestNewCreatesMissingBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "not_yet")
	if _, err := New(base); err != nil {
		t.Fatalf("New: %v", err)
	}
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		t.Fatal("base dir was not created")
	}
}
