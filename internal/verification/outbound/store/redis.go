package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/contactgate/internal/pkg/goerror"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/shandysiswandi/contactgate/internal/verification/entity"
)

type clocker interface {
	Now() time.Time
}

// Redis stores each record as JSON under otp:<email>. The key TTL follows the
// record expiry so Redis drops stale records without a sweep.
type Redis struct {
	spanner

	client redis.UniversalClient
	clock  clocker
}

func NewRedis(client redis.UniversalClient, clock clocker, ins instrument.Instrumentation) *Redis {
	return &Redis{
		spanner: spanner{ins: ins, name: "verification.outbound.store.redis"},
		client:  client,
		clock:   clock,
	}
}

func (r *Redis) Get(ctx context.Context, email string) (_ *entity.OTPRecord, err error) {
	ctx, span := r.startSpan(ctx, "Get")
	defer func() { r.endSpan(span, err) }()

	raw, err := r.client.Get(ctx, keyPrefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec entity.OTPRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode otp record: %w", err)
	}

	return &rec, nil
}

func (r *Redis) Put(ctx context.Context, rec entity.OTPRecord) (err error) {
	ctx, span := r.startSpan(ctx, "Put")
	defer func() { r.endSpan(span, err) }()

	ttl := rec.ExpiresAt.Sub(r.clock.Now()) + expiredGrace
	if ttl <= 0 {
		return r.client.Del(ctx, keyPrefix+rec.Email).Err()
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode otp record: %w", err)
	}

	return r.client.Set(ctx, keyPrefix+rec.Email, raw, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, email string) (err error) {
	ctx, span := r.startSpan(ctx, "Delete")
	defer func() { r.endSpan(span, err) }()

	return r.client.Del(ctx, keyPrefix+email).Err()
}

// SweepExpired is a no-op: key TTLs expire records, and readers re-check
// ExpiresAt.
func (r *Redis) SweepExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
