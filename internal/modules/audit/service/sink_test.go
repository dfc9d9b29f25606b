package service

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"signal_bot/internal/models"
	"signal_bot/pkg/db"
)

func record(id string) models.AuditRecord {
	qty := decimal.RequireFromString("0.001")
	price := decimal.RequireFromString("50000")
	return models.AuditRecord{
		ID:            id,
		RequestID:     "req-" + id,
		Timestamp:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Direction:     models.DirectionEnter,
		Symbol:        "BTCUSDT",
		Side:          models.SideBuy,
		Quantity:      &qty,
		Price:         &price,
		Outcome:       "success",
		ResultSummary: "order 123 FILLED",
		OrderID:       "123",
		OrderStatus:   "FILLED",
	}
}

func TestFileSinkAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.jsonl")
	s, err := NewFileSink(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Append(context.Background(), record("a")))
	require.NoError(t, s.Append(context.Background(), record("b")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var first map[string]interface{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	require.True(t, sc.Scan())
	require.NoError(t, sonic.Unmarshal(sc.Bytes(), &first))
	assert.Equal(t, "a", first["id"])
	assert.Equal(t, "BUY", first["side"])
	assert.Equal(t, "0.001", first["quantity"])
	assert.Equal(t, "50000", first["price"])
	assert.NotContains(t, first, "balance_after")

	require.True(t, sc.Scan())
	assert.False(t, sc.Scan())
}

func TestFileSinkConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	s, err := NewFileSink(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(context.Background(), record(fmt.Sprint(i))))
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	seen := map[string]bool{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var rec models.AuditRecord
		require.NoError(t, sonic.Unmarshal(sc.Bytes(), &rec))
		seen[rec.ID] = true
	}
	assert.Len(t, seen, n)
}

func TestFileSinkReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	s, err := NewFileSink(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), record("a")))
	require.NoError(t, s.Close())

	s, err = NewFileSink(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), record("b")))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		lines++
	}
	assert.Equal(t, 2, lines)
}

type sinkFunc func(ctx context.Context, rec models.AuditRecord) error

func (f sinkFunc) Append(ctx context.Context, rec models.AuditRecord) error { return f(ctx, rec) }

func TestMultiWritesEverySink(t *testing.T) {
	errA := errors.New("disk full")
	errB := errors.New("db down")
	var calls []string

	m := Multi{
		sinkFunc(func(context.Context, models.AuditRecord) error { calls = append(calls, "a"); return errA }),
		sinkFunc(func(context.Context, models.AuditRecord) error { calls = append(calls, "b"); return nil }),
		sinkFunc(func(context.Context, models.AuditRecord) error { calls = append(calls, "c"); return errB }),
	}

	err := m.Append(context.Background(), record("x"))
	assert.Equal(t, []string{"a", "b", "c"}, calls)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Len(t, multierr.Errors(err), 2)
}

// fakeDB — TxManager без базы: копит выполненные запросы.
type fakeDB struct {
	mu    sync.Mutex
	execs []fakeExec
	err   error
}

type fakeExec struct {
	sql  string
	args []any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	f.execs = append(f.execs, fakeExec{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(context.Context, string, ...interface{}) pgx.Row { return nil }

func (f *fakeDB) RunMaster(ctx context.Context, fn func(ctxTx context.Context, tx db.Transaction) error) error {
	return fn(ctx, f)
}

func (f *fakeDB) Conn() db.Transaction { return f }

func TestPgSinkEnsureSchema(t *testing.T) {
	fdb := &fakeDB{}
	require.NoError(t, NewPgSink(fdb).EnsureSchema(context.Background()))

	require.Len(t, fdb.execs, 2)
	assert.Contains(t, fdb.execs[0].sql, "CREATE TABLE IF NOT EXISTS order_audit")
	assert.Contains(t, fdb.execs[1].sql, "CREATE INDEX IF NOT EXISTS")
}

func TestPgSinkAppend(t *testing.T) {
	fdb := &fakeDB{}
	rec := record("3f0c8a4e-2b52-4a0f-9d0e-2a3b4c5d6e7f")

	require.NoError(t, NewPgSink(fdb).Append(context.Background(), rec))

	require.Len(t, fdb.execs, 1)
	args := fdb.execs[0].args
	require.Len(t, args, 13)
	assert.Equal(t, rec.ID, args[0])
	assert.Equal(t, "ENTER", args[3])
	assert.Equal(t, "BUY", args[5])
	assert.Equal(t, "0.001", args[6])
	assert.Equal(t, "50000", args[7])
	assert.Equal(t, "123", args[10])
	assert.Nil(t, args[12])
}

func TestPgSinkAppendEarlyFailureHasNulls(t *testing.T) {
	fdb := &fakeDB{}
	rec := models.AuditRecord{
		ID:            "id",
		RequestID:     "req",
		Timestamp:     time.Now(),
		Outcome:       "unsupported_content_type",
		ResultSummary: "content type must be application/json or text/plain",
	}

	require.NoError(t, NewPgSink(fdb).Append(context.Background(), rec))

	args := fdb.execs[0].args
	for _, i := range []int{3, 4, 5, 6, 7, 10, 11, 12} {
		assert.Nil(t, args[i], "arg %d", i)
	}
}

func TestPgSinkAppendError(t *testing.T) {
	fdb := &fakeDB{err: errors.New("connection refused")}

	err := NewPgSink(fdb).Append(context.Background(), record("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert order_audit")
}
