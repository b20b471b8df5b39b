// Package idempotency records the outcome of keyed operations so each key
// runs at most once. The contact module uses it to accept a verification
// credential exactly once, keyed by the credential ID.
package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
	ErrAlreadyFailed     = errors.New("operation already failed")
	ErrInvalidState      = errors.New("invalid state")
)

type State string

const (
	StateNone       State = "none"        // operation can proceed
	StateInProgress State = "in_progress" // operation already in progress
	StateCompleted  State = "completed"   // operation already completed
	StateFailed     State = "failed"      // previously operation failed
	StateError      State = "error"       // this operation error
)

func (s State) String() string {
	return string(s)
}

func parseState(s string) (State, error) {
	switch State(s) {
	case StateInProgress, StateCompleted, StateFailed:
		return State(s), nil
	default:
		return StateError, ErrInvalidState
	}
}

// Idempotency tracks keyed operations.
type Idempotency interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	MarkFailed(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

type Option func(*execOptions)

type execOptions struct {
	lockDuration  time.Duration
	stateTTL      time.Duration
	retryOnFailed bool
}

func WithLockDuration(lockDuration time.Duration) Option {
	return func(o *execOptions) {
		o.lockDuration = lockDuration
	}
}

func WithStateTTL(stateTTL time.Duration) Option {
	return func(o *execOptions) {
		o.stateTTL = stateTTL
	}
}

// WithRetryOnFailure releases the key when fn fails instead of recording a
// failed state, so the same key can be retried.
func WithRetryOnFailure() Option {
	return func(o *execOptions) {
		o.retryOnFailed = true
	}
}

// tracker is the storage half shared by Exec.
type tracker interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	MarkFailed(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

func exec(ctx context.Context, t tracker, key string, fn func(context.Context) error, opts ...Option) error {
	o := &execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, err := t.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	}

	if err := fn(ctx); err != nil {
		if o.retryOnFailed {
			return errors.Join(err, t.Release(ctx, key))
		}
		return errors.Join(err, t.MarkFailed(ctx, key, o.stateTTL))
	}

	// fn has taken effect, so its result stands even when the state is lost.
	if err := t.MarkCompleted(ctx, key, o.stateTTL); err != nil {
		slog.WarnContext(ctx, "failed to mark idempotency key completed", "key", key, "error", err)
	}

	return nil
}
