// Package store holds the OTP record backends. Every backend answers a miss
// with goerror.ErrNotFound and leaves expiry checks to the caller.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/contactgate/internal/pkg/goerror"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverDynamoDB = "dynamodb"
)

const keyPrefix = "otp:"

// expiredGrace keeps a record in TTL-based backends a little past its expiry
// so a late verification is answered as expired rather than missing.
const expiredGrace = time.Minute

type spanner struct {
	ins  instrument.Instrumentation
	name string
}

func (s spanner) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer(s.name).Start(ctx, name)
}

func (s spanner) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
