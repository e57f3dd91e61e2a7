package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLintAcceptsMarkedQueries(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "q.go", "package q\n\nconst QOne = `--sql 11111111-2222-4333-8444-555555555555\nselect 1;\n`\n\nconst Label = \"not a query\"\n")

	vs, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(vs) != 0 {
		t.Fatalf("violations = %v", vs)
	}
}

func TestLintReportsMissingMarker(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "q.go", "package q\n\nconst QBad = `select id from video_jobs;`\n")

	vs, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(vs) != 1 || vs[0].name != "QBad" || vs[0].line != 3 {
		t.Fatalf("violations = %v", vs)
	}
}

func TestLintReportsDuplicateMarkers(t *testing.T) {
	dir := t.TempDir()
	marker := "--sql 11111111-2222-4333-8444-555555555555"
	writeSource(t, dir, "a.go", "package q\n\nconst QA = `"+marker+"\nselect 1;\n`\n")
	writeSource(t, dir, "b.go", "package q\n\nconst QB = `"+marker+"\ndelete from kv;\n`\n")

	vs, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(vs) != 1 || !strings.Contains(vs[0].message, "already used by QA") {
		t.Fatalf("violations = %v", vs)
	}
}

func TestLintSkipsTestFiles(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "q_test.go", "package q\n\nconst fixture = `select 1`\n")

	vs, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(vs) != 0 {
		t.Fatalf("violations = %v", vs)
	}
}

func TestRepositoryQueriesAreMarked(t *testing.T) {
	vs, err := lint([]string{filepath.Join("..", "..", "sqlinline")})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	for _, v := range vs {
		t.Error(v)
	}
}
