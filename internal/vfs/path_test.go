package vfs

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"a", "/a"},
		{"/a", "/a"},
		{"a/b", "/a/b"},
		{"/a/b/", "/a/b"},
		{"//a///b//", "/a/b"},
		{"///", "/"},
		{"test_pipeline_results/job_12345", "/test_pipeline_results/job_12345"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"", "/", "a//b/", "/x/y/z", "//deep///nesting//here/"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestParent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/", ""},
		{"/a", "/"},
		{"/a/b", "/a"},
		{"a/b/c", "/a/b"},
		{"/a/b/", "/a"},
	}
	for _, c := range cases {
		if got := Parent(c.in); got != c.want {
			t.Errorf("Parent(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBaseName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/", "/"},
		{"/a", "a"},
		{"/a/b.log", "b.log"},
		{"a/b/", "b"},
	}
	for _, c := range cases {
		if got := BaseName(c.in); got != c.want {
			t.Errorf("BaseName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHasTraversal(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"/", false},
		{"/a/b", false},
		{"a/..b/c", false},
		{"/a/b../c", false},
		{"..", true},
		{"../secret.txt", true},
		{"/../secret.txt", true},
		{"a/../../b", true},
		{"a/b/..", true},
		{"//..//x", true},
	}
	for _, c := range cases {
		if got := HasTraversal(c.in); got != c.want {
			t.Errorf("HasTraversal(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestMimeTypeFor(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"run.log", "text/plain; charset=utf-8"},
		{"summary.txt", "text/plain; charset=utf-8"},
		{"blob.bin", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}
	for _, c := range cases {
		if got := MimeTypeFor(c.name); got != c.want {
			t.Errorf("MimeTypeFor(%q) = %q, want %q", c.name, got, c.want)
		}
	}
	// Platform mime tables vary in parameters; just check the base type.
	if got := MimeTypeFor("report.html"); got[:9] != "text/html" {
		t.Errorf("MimeTypeFor(report.html) = %q, want text/html*", got)
	}
	if got := MimeTypeFor("results.json"); got[:16] != "application/json" {
		t.Errorf("MimeTypeFor(results.json) = %q, want application/json*", got)
	}
}
