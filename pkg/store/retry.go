package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryConfig bounds the backoff schedule for a retried operation.
type RetryConfig struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	Jitter            bool
}

// DefaultRetryConfig is a general-purpose backoff schedule for any
// retryable operation.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// DatabaseRetryConfig is tuned for Postgres contention errors: more
// attempts, a gentler multiplier, a longer cap.
func DatabaseRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		InitialDelay:      250 * time.Millisecond,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 1.5,
		Jitter:            true,
	}
}

var retryableErrorSubstrings = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"temporary failure",
	"too many connections",
	"deadlock detected",
	"lock timeout",
	"serialization failure",
	"could not serialize access",
	"connection lost",
	"server closed the connection",
	"broken pipe",
	"i/o timeout",
	"network is unreachable",
	"no route to host",
}

var nonRetryableErrorSubstrings = []string{
	"syntax error",
	"does not exist",
	"permission denied",
	"authentication failed",
	"invalid input",
	"constraint violation",
	"foreign key constraint",
}

// retryableError carries an explicit retryable verdict alongside a reason,
// for callers that already know better than the message-sniffing heuristic.
type retryableError struct {
	cause     error
	retryable bool
	reason    string
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("retryable=%v (%s): %v", e.retryable, e.reason, e.cause)
}

func (e *retryableError) Unwrap() error {
	return e.cause
}

// WrapRetryableError annotates err with an explicit retryable verdict.
// Returns nil if err is nil.
func WrapRetryableError(err error, retryable bool, reason string) error {
	if err == nil {
		return nil
	}
	return &retryableError{cause: err, retryable: retryable, reason: reason}
}

// IsRetryableError classifies err by message heuristics, standard library
// sentinels, and any explicit retryableError wrapper.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var re *retryableError
	if errors.As(err, &re) {
		return re.retryable
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range nonRetryableErrorSubstrings {
		if strings.Contains(msg, s) {
			return false
		}
	}
	for _, s := range retryableErrorSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}

	return errors.Is(err, errConnDone)
}

// errConnDone mirrors database/sql.ErrConnDone without importing it, since
// this store talks to Postgres through pgx rather than database/sql.
var errConnDone = errors.New("database/sql: connection is already closed")

// Retrier runs an operation with exponential backoff, classifying failures
// with IsRetryableError.
type Retrier struct {
	config RetryConfig
	logger *logrus.Logger
}

// NewRetrier builds a Retrier. A nil logger is replaced with a discard
// logger.
func NewRetrier(config RetryConfig, logger *logrus.Logger) *Retrier {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Retrier{config: config, logger: logger}
}

// Operation is a retryable unit of work; attempt is 1-indexed.
type Operation func(ctx context.Context, attempt int) (any, error)

// ExecuteWithType runs op, retrying retryable failures up to MaxAttempts
// times with exponential backoff, capped at MaxDelay.
func (r *Retrier) ExecuteWithType(ctx context.Context, op Operation) (any, error) {
	maxAttempts := r.config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := op(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryableError(err) {
			return nil, fmt.Errorf("non-retryable error: %w", err)
		}

		if attempt == maxAttempts {
			break
		}

		delay := r.delayFor(attempt)
		r.logger.WithFields(logrus.Fields{"attempt": attempt, "delay": delay}).Debug("retrying operation")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("operation failed after %d attempts: %w", maxAttempts, lastErr)
}

func (r *Retrier) delayFor(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffMultiplier, float64(attempt-1))
	if max := float64(r.config.MaxDelay); delay > max {
		delay = max
	}
	if r.config.Jitter {
		delay = delay * (0.5 + rand.Float64()*0.5)
	}
	return time.Duration(delay)
}

// DatabaseRetrier is a Retrier pre-configured with DatabaseRetryConfig and
// a named-operation logging wrapper.
type DatabaseRetrier struct {
	retrier *Retrier
}

// NewDatabaseRetrier builds a DatabaseRetrier.
func NewDatabaseRetrier(logger *logrus.Logger) *DatabaseRetrier {
	return &DatabaseRetrier{retrier: NewRetrier(DatabaseRetryConfig(), logger)}
}

// ExecuteDBOperation runs op under the database retry schedule, annotating
// the final error with the operation name.
func (d *DatabaseRetrier) ExecuteDBOperation(ctx context.Context, name string, op Operation) (any, error) {
	result, err := d.retrier.ExecuteWithType(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("db operation %q: %w", name, err)
	}
	return result, nil
}

// RetryIfNeeded is a simple wrapper for a zero-value operation, reusing the
// same backoff/classification logic as Retrier.
func RetryIfNeeded(ctx context.Context, config RetryConfig, logger *logrus.Logger, op func() error) error {
	retrier := NewRetrier(config, logger)
	_, err := retrier.ExecuteWithType(ctx, func(ctx context.Context, attempt int) (any, error) {
		return nil, op()
	})
	return err
}
