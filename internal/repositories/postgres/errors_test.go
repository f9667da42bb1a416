package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bookshelf-ua/api/internal/repositories"
)

func TestWrapErrorClassification(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		notFound    bool
		conflict    bool
		unavailable bool
	}{
		{name: "no rows", err: pgx.ErrNoRows, notFound: true},
		{name: "unique", err: &pgconn.PgError{Code: uniqueViolation}, conflict: true},
		{name: "serialization", err: fmt.Errorf("commit: %w", &pgconn.PgError{Code: serializationFailure}), conflict: true},
		{name: "deadline", err: context.DeadlineExceeded, unavailable: true},
		{name: "other", err: errors.New("boom")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := wrapError("op", tc.err)
			var repoErr repositories.RepositoryError
			if !errors.As(err, &repoErr) {
				t.Fatalf("expected repository error, got %T", err)
			}
			if repoErr.IsNotFound() != tc.notFound || repoErr.IsConflict() != tc.conflict || repoErr.IsUnavailable() != tc.unavailable {
				t.Fatalf("unexpected classification for %v: notFound=%v conflict=%v unavailable=%v",
					tc.err, repoErr.IsNotFound(), repoErr.IsConflict(), repoErr.IsUnavailable())
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected wrapped error to match original")
			}
		})
	}
}

func TestWrapTypedErrorKeepsStockErrors(t *testing.T) {
	stockErr := repositories.NewStockError(repositories.StockErrorInsufficient, "b1", "", nil)
	err := wrapTypedError("orders.save", stockErr)
	var got *repositories.StockError
	if !errors.As(err, &got) {
		t.Fatalf("expected stock error, got %T", err)
	}
	if got.Op != "orders.save" || got.Code != repositories.StockErrorInsufficient {
		t.Fatalf("unexpected stock error: %+v", got)
	}
}

func TestZapTraceLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := zapTraceLogger{logger: zap.New(core)}

	l.Log(context.Background(), tracelog.LogLevelError, "query failed", map[string]any{"sql": "select 1"})
	l.Log(context.Background(), tracelog.LogLevelWarn, "slow", nil)
	l.Log(context.Background(), tracelog.LogLevelDebug, "query", nil)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Level != zap.ErrorLevel || entries[1].Level != zap.WarnLevel || entries[2].Level != zap.DebugLevel {
		t.Fatalf("unexpected levels: %v %v %v", entries[0].Level, entries[1].Level, entries[2].Level)
	}
	if entries[0].ContextMap()["sql"] != "select 1" {
		t.Fatalf("expected sql field, got %v", entries[0].ContextMap())
	}
}
