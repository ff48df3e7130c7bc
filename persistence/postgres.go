package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"gofalre.io/storefront/driver"
)

var _ Storage = (*PostgresStorage)(nil)

const (
	createStorageTable = `CREATE TABLE IF NOT EXISTS cart_storage (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	selectStorageValue = `SELECT value FROM cart_storage WHERE key = $1`

	upsertStorageValue = `INSERT INTO cart_storage (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
)

// PostgresStorage keeps values in the cart_storage table, one row per key.
type PostgresStorage struct {
	conn               driver.PostgresPool
	transactionManager *driver.TransactionManager
	logger             *zap.Logger
}

func NewPostgresStorage(conn driver.PostgresPool, tm *driver.TransactionManager, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		conn:               conn,
		transactionManager: tm,
		logger:             logger,
	}
}

// Migrate creates the cart_storage table when it does not exist.
func (p *PostgresStorage) Migrate(ctx context.Context) error {
	err := p.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, createStorageTable)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create cart_storage table: %w", err)
	}
	return nil
}

func (p *PostgresStorage) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := p.conn.QueryRow(ctx, selectStorageValue, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		p.logger.Error("Failed to load cart from postgres", zap.String("key", key), zap.Error(err))
		return nil, false, fmt.Errorf("failed to select %q: %w", key, err)
	}
	return data, true, nil
}

// Save upserts the value. Concurrent writers to the same key can hit a
// serialization failure; the transaction manager retries those.
func (p *PostgresStorage) Save(ctx context.Context, key string, data []byte) error {
	err := p.transactionManager.ExecuteSerializableTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, upsertStorageValue, key, data)
		return err
	})
	if err != nil {
		p.logger.Error("Failed to save cart to postgres", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to upsert %q: %w", key, err)
	}
	return nil
}
