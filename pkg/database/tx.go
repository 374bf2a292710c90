package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/logger"
	"github.com/tair/field-service/pkg/metrics"
)

// ErrVersionConflict is returned by repositories when a compare-and-swap on a version column fails.
// It is retryable; RunWithRetry converts it to ConcurrentModification once retries are exhausted.
var ErrVersionConflict = errors.New("version conflict")

// DefaultMaxAttempts bounds how often a unit of work is retried after a version conflict
const DefaultMaxAttempts = 3

type txKey struct{}

// Transactor runs a unit of work atomically
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// GormTransactor implements Transactor with a database transaction carried in the context
type GormTransactor struct {
	db *gorm.DB
}

// NewGormTransactor creates a new transactor
func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

// WithinTransaction runs fn in a transaction, joining an outer one if present
func (t *GormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Conn returns the transaction bound to ctx, or db scoped to ctx
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// ForUpdate is Conn with a row lock when ctx carries a transaction
func ForUpdate(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db.WithContext(ctx)
}

// InTransaction reports whether ctx carries a transaction started by a Transactor
func InTransaction(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

// RunWithRetry executes fn inside a transaction, retrying on version conflicts
func RunWithRetry(ctx context.Context, tx Transactor, maxAttempts int, operation string, fn func(ctx context.Context) error) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = tx.WithinTransaction(ctx, fn)
		if !errors.Is(err, ErrVersionConflict) {
			return err
		}

		metrics.CASRetries.WithLabelValues(operation).Inc()
		logger.Warn(ctx).
			Str("operation", operation).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Msg("Version conflict, retrying")

		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("failed to %s: %w", operation, ctxErr)
		}
	}

	return apperr.Wrap(apperr.KindConcurrentModification, err,
		"%s gave up after %d attempts", operation, maxAttempts).
		With("operation", operation)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint violation
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsNotFound reports whether err is a GORM record-not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Retrier binds a Transactor to a retry bound
type Retrier struct {
	tx          Transactor
	maxAttempts int
}

// NewRetrier creates a retrier; maxAttempts <= 0 uses DefaultMaxAttempts
func NewRetrier(tx Transactor, maxAttempts int) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Retrier{tx: tx, maxAttempts: maxAttempts}
}

// Run executes fn in a transaction with retries
func (r *Retrier) Run(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	return RunWithRetry(ctx, r.tx, r.maxAttempts, operation, fn)
}

// Transactor returns the underlying transactor
func (r *Retrier) Transactor() Transactor {
	return r.tx
}
