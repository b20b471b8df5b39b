package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// acquireLua sets KEYS[1] to in_progress when absent and returns "none";
// otherwise it returns the stored state. ARGV[1] = lock duration in ms.
var acquireLua = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current then
  return current
end
redis.call('SET', KEYS[1], 'in_progress', 'PX', ARGV[1])
return 'none'
`)

// StateTracker is a Redis backed Idempotency.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

// New returns a StateTracker storing keys under prefix (default "idempotency:").
func New(client redis.UniversalClient, prefix string) *StateTracker {
	if prefix == "" {
		prefix = "idempotency:"
	}
	return &StateTracker{client: client, prefix: prefix}
}

// Acquire tries to start an operation atomically.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	res, err := acquireLua.Run(ctx, s.client, []string{s.prefix + key}, lockDuration.Milliseconds()).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return StateError, ErrInvalidState
		}
		return StateError, err
	}

	if res == StateNone.String() {
		return StateNone, nil
	}
	return parseState(res)
}

func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, StateCompleted.String(), ttl).Err()
}

func (s *StateTracker) MarkFailed(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, StateFailed.String(), ttl).Err()
}

// Release forgets key so the operation may run again.
func (s *StateTracker) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Exec runs fn once per key.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	return exec(ctx, s, key, fn, opts...)
}
