package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonbook-backend/metrics"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultTxAttempts = 5

// txRunner runs a store transaction and retries it when the commit lost
// against a concurrent one.
type txRunner struct {
	db          *gorm.DB
	log         *zap.Logger
	maxAttempts int
}

func (r txRunner) run(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	attempts := r.maxAttempts
	if attempts < 1 {
		attempts = defaultTxAttempts
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(fn)
		if err == nil || !isConflict(err) {
			return err
		}

		metrics.TxRetries.WithLabelValues(op).Inc()
		r.log.Debug("transaction conflict, retrying",
			zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
		}
	}

	r.log.Warn("transaction retries exhausted", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, ErrTransactionConflict)
}

// isConflict reports serialization failures and deadlocks, the two outcomes
// PostgreSQL expects the client to retry.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
