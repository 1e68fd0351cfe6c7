package observability

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveDB_NilPromRunsFn(t *testing.T) {
	var p *Prom
	called := false

	err := p.ObserveDB("op", func() error {
		called = true
		return nil
	})

	if err != nil || !called {
		t.Fatalf("expected fn to run without metrics, called=%v err=%v", called, err)
	}
}

func TestObserveDB_CountsErrorsButNotMissingRows(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("items.get", func() error { return pgx.ErrNoRows })
	_ = p.ObserveDB("items.get", func() error { return errors.New("connection refused") })

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("items.get", "connection")); got != 1 {
		t.Fatalf("expected 1 connection error, got %v", got)
	}

	if got := testutil.CollectAndCount(p.DbErrorsTotal); got != 1 {
		t.Fatalf("expected a single error series, got %d", got)
	}
}

func TestObserveDecision(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveDecision("delete", false)
	p.ObserveDecision("delete", false)
	p.ObserveDecision("update", true)

	if got := testutil.ToFloat64(p.AuthzDecisions.WithLabelValues("delete", "deny")); got != 2 {
		t.Fatalf("expected 2 delete denials, got %v", got)
	}
}

func TestLogger_AddsTraceIDsOnlyWithSpan(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	log.InfoContext(context.Background(), "hello", "k", "v")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}

	if _, ok := rec["trace_id"]; ok {
		t.Fatalf("did not expect trace_id without a span: %v", rec)
	}

	if rec["msg"] != "hello" || rec["k"] != "v" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"pg_unique", &pgconn.PgError{Code: "23505"}, "unique_violation"},
		{"pg_other", &pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"sqlite_unique", errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)"), "unique_violation"},
		{"sqlite_fk", errors.New("FOREIGN KEY constraint failed"), "foreign_key_violation"},
		{"sqlite_locked", errors.New("database is locked (5) (SQLITE_BUSY)"), "locked"},
		{"unknown", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		if got := classifyDBErr(tt.err); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestObserveDB_IgnoresSQLNoRows(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("users.find_by_username", func() error { return sql.ErrNoRows })

	if got := testutil.CollectAndCount(p.DbErrorsTotal); got != 0 {
		t.Fatalf("expected no error series, got %d", got)
	}
}

func TestSampler_ClampsRatio(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{2, "root:AlwaysOnSampler"},
		{1, "root:AlwaysOnSampler"},
		{0.25, "root:TraceIDRatioBased{0.25}"},
		{0, "root:AlwaysOffSampler"},
		{-1, "root:AlwaysOffSampler"},
	}

	for _, tt := range tests {
		desc := Sampler(tt.ratio).Description()
		if !strings.Contains(desc, tt.want) {
			t.Errorf("ratio %v: got %q, want it to contain %q", tt.ratio, desc, tt.want)
		}
	}
}
