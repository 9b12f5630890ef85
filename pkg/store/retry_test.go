package store_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/devmemory/learning-engine/pkg/store"
)

var _ = Describe("Retry Mechanism", func() {
	var (
		logger *logrus.Logger
		ctx    context.Context
	)

	BeforeEach(func() {
		logger = logrus.New()
		logger.SetLevel(logrus.FatalLevel)
		ctx = context.Background()
	})

	Describe("RetryConfig", func() {
		Context("DefaultRetryConfig", func() {
			It("should provide sensible defaults", func() {
				cfg := store.DefaultRetryConfig()

				Expect(cfg.MaxAttempts).To(Equal(3))
				Expect(cfg.InitialDelay).To(Equal(100 * time.Millisecond))
				Expect(cfg.MaxDelay).To(Equal(5 * time.Second))
				Expect(cfg.BackoffMultiplier).To(Equal(2.0))
				Expect(cfg.Jitter).To(BeTrue())
			})
		})

		Context("DatabaseRetryConfig", func() {
			It("should provide database-optimized defaults", func() {
				cfg := store.DatabaseRetryConfig()

				Expect(cfg.MaxAttempts).To(Equal(5))
				Expect(cfg.InitialDelay).To(Equal(250 * time.Millisecond))
				Expect(cfg.MaxDelay).To(Equal(10 * time.Second))
				Expect(cfg.BackoffMultiplier).To(Equal(1.5))
				Expect(cfg.Jitter).To(BeTrue())
			})
		})
	})

	Describe("IsRetryableError", func() {
		Context("standard errors", func() {
			It("should treat a deadline exceeded as retryable", func() {
				Expect(store.IsRetryableError(context.DeadlineExceeded)).To(BeTrue())
			})

			It("should not retry context cancellation", func() {
				Expect(store.IsRetryableError(context.Canceled)).To(BeFalse())
			})

			It("should return false for nil error", func() {
				Expect(store.IsRetryableError(nil)).To(BeFalse())
			})
		})

		Context("error message patterns", func() {
			It("should identify retryable database error patterns", func() {
				messages := []string{
					"connection refused",
					"Connection Reset by peer",
					"TIMEOUT: connection timeout exceeded",
					"too many connections to database",
					"deadlock detected",
					"lock timeout exceeded",
					"serialization failure occurred",
					"could not serialize access due to concurrent update",
					"connection lost during query",
					"server closed the connection unexpectedly",
					"broken pipe error",
					"i/o timeout on network operation",
					"network is unreachable",
					"no route to host available",
				}

				for _, msg := range messages {
					Expect(store.IsRetryableError(errors.New(msg))).To(BeTrue(), "msg=%s", msg)
				}
			})

			It("should not retry non-retryable errors", func() {
				messages := []string{
					"syntax error in SQL",
					"table does not exist",
					"column 'unknown' does not exist",
					"permission denied",
					"authentication failed",
					"invalid input value",
					"constraint violation",
					"foreign key constraint fails",
				}

				for _, msg := range messages {
					Expect(store.IsRetryableError(errors.New(msg))).To(BeFalse(), "msg=%s", msg)
				}
			})
		})

		Context("explicit RetryableError wrapper", func() {
			It("should respect the explicit retryable flag", func() {
				base := errors.New("base error")

				Expect(store.IsRetryableError(store.WrapRetryableError(base, true, "test retry"))).To(BeTrue())
				Expect(store.IsRetryableError(store.WrapRetryableError(base, false, "test no retry"))).To(BeFalse())
			})

			It("should handle a nil error gracefully", func() {
				Expect(store.WrapRetryableError(nil, true, "test")).To(BeNil())
			})

			It("should wrap and unwrap correctly", func() {
				original := errors.New("original error")
				wrapped := store.WrapRetryableError(original, true, "test reason")

				Expect(wrapped.Error()).To(ContainSubstring("retryable=true"))
				Expect(wrapped.Error()).To(ContainSubstring("test reason"))
				Expect(errors.Unwrap(wrapped)).To(Equal(original))
				Expect(errors.Is(wrapped, original)).To(BeTrue())
			})

			It("should chain with other error wrappers", func() {
				base := errors.New("base error")
				wrappedOnce := fmt.Errorf("wrapped once: %w", base)
				retryableWrapped := store.WrapRetryableError(wrappedOnce, true, "retryable wrapper")

				Expect(errors.Is(retryableWrapped, base)).To(BeTrue())
				Expect(errors.Is(retryableWrapped, wrappedOnce)).To(BeTrue())
			})
		})
	})

	Describe("Retrier", func() {
		var retrier *store.Retrier

		BeforeEach(func() {
			retrier = store.NewRetrier(store.RetryConfig{
				MaxAttempts:       3,
				InitialDelay:      10 * time.Millisecond,
				MaxDelay:          100 * time.Millisecond,
				BackoffMultiplier: 2.0,
				Jitter:            false,
			}, logger)
		})

		It("should execute the operation once on success", func() {
			callCount := 0
			result, err := retrier.ExecuteWithType(ctx, func(ctx context.Context, attempt int) (any, error) {
				callCount++
				return "success", nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal("success"))
			Expect(callCount).To(Equal(1))
		})

		It("should retry retryable errors until success", func() {
			callCount := 0
			result, err := retrier.ExecuteWithType(ctx, func(ctx context.Context, attempt int) (any, error) {
				callCount++
				if attempt < 3 {
					return "", errors.New("connection refused")
				}
				return "success after retries", nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal("success after retries"))
			Expect(callCount).To(Equal(3))
		})

		It("should fail after max attempts with a retryable error", func() {
			callCount := 0
			result, err := retrier.ExecuteWithType(ctx, func(ctx context.Context, attempt int) (any, error) {
				callCount++
				return "", errors.New("connection timeout")
			})

			Expect(err).To(HaveOccurred())
			Expect(result).To(BeNil())
			Expect(callCount).To(Equal(3))
			Expect(err.Error()).To(ContainSubstring("operation failed after 3 attempts"))
		})

		It("should fail immediately on a non-retryable error", func() {
			callCount := 0
			result, err := retrier.ExecuteWithType(ctx, func(ctx context.Context, attempt int) (any, error) {
				callCount++
				return nil, errors.New("syntax error in SQL")
			})

			Expect(err).To(HaveOccurred())
			Expect(result).To(BeNil())
			Expect(callCount).To(Equal(1))
			Expect(err.Error()).To(ContainSubstring("non-retryable error"))
		})

		It("should stop retrying when the context is canceled", func() {
			callCount := 0
			cancelCtx, cancel := context.WithCancel(ctx)

			_, err := retrier.ExecuteWithType(cancelCtx, func(ctx context.Context, attempt int) (any, error) {
				callCount++
				if attempt == 2 {
					cancel()
				}
				return nil, errors.New("connection timeout")
			})

			Expect(err).To(HaveOccurred())
			Expect(callCount).To(BeNumerically(">=", 2))
		})
	})

	Describe("DatabaseRetrier", func() {
		It("should execute database operations with retry support", func() {
			dbRetrier := store.NewDatabaseRetrier(logger)
			callCount := 0

			result, err := dbRetrier.ExecuteDBOperation(ctx, "test_operation", func(ctx context.Context, attempt int) (any, error) {
				callCount++
				if attempt < 2 {
					return nil, errors.New("too many connections")
				}
				return "database success", nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal("database success"))
			Expect(callCount).To(Equal(2))
		})
	})

	Describe("RetryIfNeeded", func() {
		It("should retry a simple function until it succeeds", func() {
			callCount := 0
			op := func() error {
				callCount++
				if callCount < 3 {
					return errors.New("temporary failure")
				}
				return nil
			}

			err := store.RetryIfNeeded(ctx, store.RetryConfig{
				MaxAttempts:       5,
				InitialDelay:      time.Millisecond,
				MaxDelay:          10 * time.Millisecond,
				BackoffMultiplier: 2.0,
				Jitter:            false,
			}, logger, op)

			Expect(err).NotTo(HaveOccurred())
			Expect(callCount).To(Equal(3))
		})

		It("should fail when the operation never succeeds", func() {
			callCount := 0
			op := func() error {
				callCount++
				return errors.New("connection timeout")
			}

			err := store.RetryIfNeeded(ctx, store.RetryConfig{
				MaxAttempts:       2,
				InitialDelay:      time.Millisecond,
				MaxDelay:          5 * time.Millisecond,
				BackoffMultiplier: 2.0,
				Jitter:            false,
			}, logger, op)

			Expect(err).To(HaveOccurred())
			Expect(callCount).To(Equal(2))
		})
	})

	Describe("edge cases", func() {
		It("should handle a nil logger gracefully", func() {
			retrier := store.NewRetrier(store.DefaultRetryConfig(), nil)

			result, err := retrier.ExecuteWithType(ctx, func(ctx context.Context, attempt int) (any, error) {
				return "success", nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal("success"))
		})

		It("should cap delay growth under an extreme backoff multiplier", func() {
			retrier := store.NewRetrier(store.RetryConfig{
				MaxAttempts:       3,
				InitialDelay:      time.Millisecond,
				MaxDelay:          10 * time.Millisecond,
				BackoffMultiplier: 1000.0,
				Jitter:            false,
			}, logger)

			callCount := 0
			start := time.Now()
			_, err := retrier.ExecuteWithType(ctx, func(ctx context.Context, attempt int) (any, error) {
				callCount++
				return "", errors.New("connection timeout")
			})
			duration := time.Since(start)

			Expect(err).To(HaveOccurred())
			Expect(callCount).To(Equal(3))
			Expect(duration).To(BeNumerically("<", 100*time.Millisecond))
		})
	})
})
