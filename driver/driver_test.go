package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPool struct {
	PostgresPool
	txs []*stubTx
}

func (p *stubPool) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	tx := new(stubTx)
	p.txs = append(p.txs, tx)
	return tx, nil
}

type stubTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (tx *stubTx) Commit(context.Context) error {
	tx.committed = true
	return nil
}

func (tx *stubTx) Rollback(context.Context) error {
	tx.rolledBack = true
	return nil
}

func TestConnectRedis(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), RedisOptions{Addr: srv.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := srv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestConnectRedis_Unreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	_, err := ConnectRedis(context.Background(), RedisOptions{Addr: addr})
	assert.Error(t, err)
}

func TestExecuteTransaction_Commits(t *testing.T) {
	pool := new(stubPool)
	tm := NewTransactionManager(pool, zap.NewNop())

	err := tm.ExecuteTransaction(context.Background(), func(pgx.Tx) error { return nil })

	require.NoError(t, err)
	require.Len(t, pool.txs, 1)
	assert.True(t, pool.txs[0].committed)
	assert.False(t, pool.txs[0].rolledBack)
}

func TestExecuteTransaction_RollsBackOnError(t *testing.T) {
	pool := new(stubPool)
	tm := NewTransactionManager(pool, zap.NewNop())
	boom := errors.New("boom")

	err := tm.ExecuteTransaction(context.Background(), func(pgx.Tx) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.False(t, pool.txs[0].committed)
	assert.True(t, pool.txs[0].rolledBack)
}

func TestExecuteTransaction_RollsBackOnPanic(t *testing.T) {
	pool := new(stubPool)
	tm := NewTransactionManager(pool, zap.NewNop())

	assert.Panics(t, func() {
		_ = tm.ExecuteTransaction(context.Background(), func(pgx.Tx) error { panic("boom") })
	})
	assert.True(t, pool.txs[0].rolledBack)
}

func TestExecuteSerializableTransaction_RetriesSerializationFailures(t *testing.T) {
	pool := new(stubPool)
	tm := NewTransactionManager(pool, zap.NewNop())

	calls := 0
	err := tm.ExecuteSerializableTransaction(context.Background(), func(pgx.Tx) error {
		calls++
		if calls == 1 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, pool.txs[0].rolledBack)
	assert.True(t, pool.txs[1].committed)
}

func TestExecuteSerializableTransaction_DoesNotRetryOtherErrors(t *testing.T) {
	pool := new(stubPool)
	tm := NewTransactionManager(pool, zap.NewNop())

	calls := 0
	err := tm.ExecuteSerializableTransaction(context.Background(), func(pgx.Tx) error {
		calls++
		return &pgconn.PgError{Code: "23505"}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
