package storage

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
)

// Transient SQLSTATE codes worth another attempt
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"

	// Class 08 covers connection-level failures
	classConnectionError = "08"
)

// retrier runs storage operations under a per-attempt timeout with bounded
// exponential-backoff retry for transient failures.
type retrier struct {
	timeout  time.Duration
	attempts int
	base     time.Duration
}

// do runs op up to r.attempts times. Each attempt gets its own deadline;
// non-transient errors propagate immediately.
func (r retrier) do(ctx context.Context, op func(ctx context.Context) error) error {
	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		err := op(attemptCtx)
		if err == nil {
			return nil
		}

		if !isTransient(err) {
			return backoff.Permanent(err)
		}

		return err
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = r.base

	return backoff.Retry(operation, backoff.WithMaxRetries(expo, uint64(r.attempts-1)))
}

// isTransient reports whether the error is on the retry allowlist:
// serialization failures, deadlocks, and connection-level failures
// (including an attempt that ran out of time).
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected {
			return true
		}
		if strings.HasPrefix(pgErr.Code, classConnectionError) {
			return true
		}
	}

	return false
}
