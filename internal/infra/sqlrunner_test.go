package infra

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type recordingExecutor struct {
	queries []string
}

func (r *recordingExecutor) Exec(_ context.Context, query string, _ ...any) (pgconn.CommandTag, error) {
	r.queries = append(r.queries, query)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (r *recordingExecutor) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	r.queries = append(r.queries, query)
	return errorRow{err: pgx.ErrNoRows}
}

func (r *recordingExecutor) Query(_ context.Context, query string, _ ...any) (pgx.Rows, error) {
	r.queries = append(r.queries, query)
	return nil, errors.New("not implemented")
}

func TestSQLRunnerStripsMarker(t *testing.T) {
	exec := &recordingExecutor{}
	runner := NewSQLRunner(exec, zerolog.New(io.Discard))

	query := "--sql 0b6d8c1e-2f4a-4c55-9e7d-3a1b2c4d5e6f\nupdate video_jobs set status = 'FAILED';"
	if _, err := runner.Exec(context.Background(), query); err != nil {
		t.Fatalf("Exec returned error: %v", err)
	}
	if len(exec.queries) != 1 {
		t.Fatalf("expected 1 query, got %d", len(exec.queries))
	}
	if exec.queries[0] != "update video_jobs set status = 'FAILED';" {
		t.Fatalf("query = %q, marker was not stripped", exec.queries[0])
	}
}

func TestSQLRunnerRejectsUnmarkedQuery(t *testing.T) {
	exec := &recordingExecutor{}
	runner := NewSQLRunner(exec, zerolog.New(io.Discard))

	if _, err := runner.Exec(context.Background(), "delete from accounts"); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("Exec error = %v, want ErrMissingMarker", err)
	}
	var out string
	if err := runner.QueryRow(context.Background(), "select 1").Scan(&out); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("QueryRow error = %v, want ErrMissingMarker", err)
	}
	if len(exec.queries) != 0 {
		t.Fatalf("unmarked queries must not reach the database, got %d", len(exec.queries))
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(pgx.ErrNoRows) {
		t.Fatal("IsNoRows(pgx.ErrNoRows) = false")
	}
	if IsNoRows(errors.New("boom")) {
		t.Fatal("IsNoRows(boom) = true")
	}
}
