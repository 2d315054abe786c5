package vfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

// fakeAdapter is an in-memory backend for orchestrator tests. When
// down is set every call fails with ErrStoreUnavailable, mimicking the
// store adapter's failure classification.
type fakeAdapter struct {
	down    bool
	entries map[string]*Entry   // by path
	listing map[string][]Entry  // by parent path
	results map[string][]Entry  // search query -> results
	calls   []string
}

func (f *fakeAdapter) fail(op string) error {
	f.calls = append(f.calls, op)
	if f.down {
		return fmt.Errorf("%w: %s", ErrStoreUnavailable, op)
	}
	return nil
}

func (f *fakeAdapter) List(_ context.Context, path string) ([]Entry, error) {
	if err := f.fail("list"); err != nil {
		return nil, err
	}
	return f.listing[path], nil
}

func (f *fakeAdapter) Read(_ context.Context, path string) (string, error) {
	if err := f.fail("read"); err != nil {
		return "", err
	}
	e, ok := f.entries[path]
	if !ok {
		return "", ErrNotFound
	}
	if e.IsFolder {
		return "", ErrNotAFile
	}
	return e.Content, nil
}

func (f *fakeAdapter) Info(_ context.Context, path string) (*Entry, error) {
	if err := f.fail("info"); err != nil {
		return nil, err
	}
	return f.entries[path], nil
}

func (f *fakeAdapter) Search(_ context.Context, query string, limit int) ([]Entry, error) {
	if err := f.fail("search"); err != nil {
		return nil, err
	}
	res := f.results[query]
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (f *fakeAdapter) Stats(_ context.Context, path string) (Stats, error) {
	if err := f.fail("stats"); err != nil {
		return Stats{}, err
	}
	var stats Stats
	for _, e := range f.listing[path] {
		if e.IsFolder {
			stats.TotalDirectories++
		} else {
			stats.TotalFiles++
			stats.TotalSize += e.Size
		}
	}
	return stats, nil
}

func file(path, content string) Entry {
	return Entry{
		Name:       BaseName(path),
		Path:       path,
		Size:       int64(len(content)),
		Content:    content,
		ParentPath: Parent(path),
	}
}

func folder(path string) Entry {
	return Entry{
		Name:       BaseName(path),
		Path:       path,
		IsFolder:   true,
		MimeType:   DirectoryMimeType,
		ParentPath: Parent(path),
	}
}

func newFake() *fakeAdapter {
	return &fakeAdapter{
		entries: map[string]*Entry{},
		listing: map[string][]Entry{},
		results: map[string][]Entry{},
	}
}

func (f *fakeAdapter) add(e Entry) {
	copied := e
	f.entries[e.Path] = &copied
	f.listing[e.ParentPath] = append(f.listing[e.ParentPath], e)
}

func TestListPrefersStore(t *testing.T) {
	primary := newFake()
	primary.add(folder("/reports"))
	fallback := newFake()
	fallback.add(folder("/disk_only"))

	s := New(primary, fallback, nil)
	entries, err := s.GetDirectoryContents(context.Background(), "/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "reports" {
		t.Fatalf("expected store listing, got %+v", entries)
	}
	if len(fallback.calls) != 0 {
		t.Errorf("fallback should not have been consulted: %v", fallback.calls)
	}
}

func TestListFallsBackWhenStoreDown(t *testing.T) {
	primary := newFake()
	primary.down = true
	fallback := newFake()
	fallback.add(file("/run.log", "ok"))

	s := New(primary, fallback, nil)
	entries, err := s.GetDirectoryContents(context.Background(), "/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "run.log" {
		t.Fatalf("expected filesystem listing, got %+v", entries)
	}
}

func TestListFallsBackWhenStoreEmpty(t *testing.T) {
	primary := newFake() // reachable, nothing mirrored
	fallback := newFake()
	fallback.add(file("/run.log", "ok"))

	s := New(primary, fallback, nil)
	entries, err := s.GetDirectoryContents(context.Background(), "/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("empty store listing should fall back, got %+v", entries)
	}
}

func TestListNonexistentIsEmpty(t *testing.T) {
	s := New(nil, newFake(), nil)
	entries, err := s.GetDirectoryContents(context.Background(), "/missing")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty listing, got %+v", entries)
	}
}

func TestListSortsFoldersFirst(t *testing.T) {
	fallback := newFake()
	fallback.add(file("/b.log", "x"))
	fallback.add(folder("/z_dir"))
	fallback.add(file("/a.log", "y"))
	fallback.add(folder("/a_dir"))

	s := New(nil, fallback, nil)
	entries, err := s.GetDirectoryContents(context.Background(), "/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.Name
	}
	want := []string{"a_dir", "z_dir", "a.log", "b.log"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestReadFromStore(t *testing.T) {
	primary := newFake()
	primary.add(file("/run.log", "store content"))
	fallback := newFake()
	fallback.add(file("/run.log", "disk content"))

	s := New(primary, fallback, nil)
	content, err := s.GetFileContent(context.Background(), "/run.log")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if content != "store content" {
		t.Errorf("content = %q, want store copy", content)
	}
}

func TestReadFolderIsNotAFile(t *testing.T) {
	primary := newFake()
	primary.add(folder("/reports"))

	s := New(primary, newFake(), nil)
	_, err := s.GetFileContent(context.Background(), "/reports")
	if !errors.Is(err, ErrNotAFile) {
		t.Fatalf("err = %v, want ErrNotAFile", err)
	}
}

func TestReadMissingEverywhere(t *testing.T) {
	s := New(newFake(), newFake(), nil)
	_, err := s.GetFileContent(context.Background(), "/nope.log")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReadFallsBackWhenStoreDown(t *testing.T) {
	primary := newFake()
	primary.down = true
	fallback := newFake()
	fallback.add(file("/run.log", "disk content"))

	s := New(primary, fallback, nil)
	content, err := s.GetFileContent(context.Background(), "/run.log")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if content != "disk content" {
		t.Errorf("content = %q, want disk copy", content)
	}
}

func TestReadStoreMissFallsBackToDisk(t *testing.T) {
	primary := newFake() // reachable, path never mirrored
	fallback := newFake()
	fallback.add(file("/run.log", "disk content"))

	s := New(primary, fallback, nil)
	content, err := s.GetFileContent(context.Background(), "/run.log")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if content != "disk content" {
		t.Errorf("content = %q, want disk copy", content)
	}
	for _, op := range primary.calls {
		if op == "read" {
			t.Error("store read attempted for an unmirrored path")
		}
	}
}

func TestInfoNilWhenAbsentFromBoth(t *testing.T) {
	s := New(newFake(), newFake(), nil)
	info, err := s.GetFileInfo(context.Background(), "/ghost")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil info, got %+v", info)
	}
}

func TestInfoFallsBackToFilesystem(t *testing.T) {
	fallback := newFake()
	fallback.add(file("/run.log", "x"))

	s := New(newFake(), fallback, nil)
	info, err := s.GetFileInfo(context.Background(), "/run.log")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info == nil || info.Name != "run.log" {
		t.Fatalf("expected filesystem info, got %+v", info)
	}
}

func TestSearchStoreRankingWins(t *testing.T) {
	primary := newFake()
	primary.results["log"] = []Entry{file("/b.log", ""), file("/a.log", "")}
	fallback := newFake()
	fallback.results["log"] = []Entry{file("/a.log", "")}

	s := New(primary, fallback, nil)
	results, err := s.SearchFiles(context.Background(), "log", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 || results[0].Path != "/b.log" {
		t.Fatalf("store ranking not preserved: %+v", results)
	}
}

func TestSearchEmptyStoreFallsBack(t *testing.T) {
	fallback := newFake()
	fallback.results["log"] = []Entry{file("/a.log", "")}

	s := New(newFake(), fallback, nil)
	results, err := s.SearchFiles(context.Background(), "log", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected filesystem results, got %+v", results)
	}
}

func TestSearchHonorsLimit(t *testing.T) {
	primary := newFake()
	for i := 0; i < 20; i++ {
		primary.results["log"] = append(primary.results["log"],
			file(fmt.Sprintf("/f%02d.log", i), ""))
	}

	s := New(primary, newFake(), nil)
	results, err := s.SearchFiles(context.Background(), "log", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) > 5 {
		t.Fatalf("limit not honored: %d results", len(results))
	}
}

func TestStatsFallsBackWhenStoreDown(t *testing.T) {
	primary := newFake()
	primary.down = true
	fallback := newFake()
	fallback.add(file("/a.log", "abc"))
	fallback.add(file("/b.log", "de"))
	fallback.add(folder("/sub"))

	s := New(primary, fallback, nil)
	stats, err := s.GetFileStats(context.Background(), "/")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalFiles != 2 || stats.TotalDirectories != 1 || stats.TotalSize != 5 {
		t.Fatalf("stats = %+v", stats)
	}
}

// fixedArchiver lets download tests observe archive delegation
// without building a real zip.
type fixedArchiver struct {
	built string
}

func (a *fixedArchiver) Build(_ context.Context, root string, _ TreeSource) io.ReadCloser {
	a.built = root
	return io.NopCloser(strings.NewReader("zipbytes"))
}

func TestDownloadFileStreamsContent(t *testing.T) {
	fallback := newFake()
	fallback.add(file("/run.log", "payload"))

	s := New(nil, fallback, &fixedArchiver{})
	entry, stream, err := s.GetDownloadStream(context.Background(), "/run.log")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer stream.Close()
	if entry.IsFolder {
		t.Fatal("expected a file entry")
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("stream = %q, want %q", data, "payload")
	}
}

func TestDownloadFolderDelegatesToArchiver(t *testing.T) {
	fallback := newFake()
	fallback.add(folder("/reports"))
	arch := &fixedArchiver{}

	s := New(nil, fallback, arch)
	entry, stream, err := s.GetDownloadStream(context.Background(), "/reports")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	stream.Close()
	if !entry.IsFolder {
		t.Fatal("expected a folder entry")
	}
	if arch.built != "/reports" {
		t.Errorf("archiver root = %q, want /reports", arch.built)
	}
}

func TestDownloadMissingIsNotFound(t *testing.T) {
	s := New(nil, newFake(), &fixedArchiver{})
	_, _, err := s.GetDownloadStream(context.Background(), "/ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
