package usecase

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/contactgate/internal/pkg/clock"
	"github.com/shandysiswandi/contactgate/internal/pkg/config"
	"github.com/shandysiswandi/contactgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/contactgate/internal/pkg/hash"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/shandysiswandi/contactgate/internal/pkg/jwt"
	"github.com/shandysiswandi/contactgate/internal/pkg/mail"
	"github.com/shandysiswandi/contactgate/internal/pkg/otp"
	"github.com/shandysiswandi/contactgate/internal/pkg/validator"
	"github.com/shandysiswandi/contactgate/internal/verification/entity"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const lockStripes = 64

type repoStore interface {
	Get(ctx context.Context, email string) (*entity.OTPRecord, error)
	Put(ctx context.Context, rec entity.OTPRecord) error
	Delete(ctx context.Context, email string) error
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	store     repoStore
	repoMail  repoMail
	validator validator.Validator
	cfg       config.Config
	hmac      hash.Hash
	otp       otp.Generator
	clock     clock.Clocker
	jwt       jwt.JWT
	ins       instrument.Instrumentation
	goroutine *goroutine.Manager

	locks [lockStripes]sync.Mutex

	otpIssued   metric.Int64Counter
	otpVerified metric.Int64Counter
	otpRejected metric.Int64Counter
}

type Dependency struct {
	Store      repoStore
	RepoMail   repoMail
	Validator  validator.Validator
	Config     config.Config
	HMAC       hash.Hash
	OTP        otp.Generator
	Clock      clock.Clocker
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
	Goroutine  *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	uc := &Usecase{
		store:     dep.Store,
		repoMail:  dep.RepoMail,
		validator: dep.Validator,
		cfg:       dep.Config,
		hmac:      dep.HMAC,
		otp:       dep.OTP,
		clock:     dep.Clock,
		jwt:       dep.JWT,
		ins:       dep.Instrument,
		goroutine: dep.Goroutine,
	}

	meter := dep.Instrument.Meter("verification.usecase")
	uc.otpIssued = newCounter(meter, "verification.otp.issued", "Number of OTP codes issued")
	uc.otpVerified = newCounter(meter, "verification.otp.verified", "Number of OTP codes verified")
	uc.otpRejected = newCounter(meter, "verification.otp.rejected", "Number of rejected OTP requests by reason")

	return uc
}

func newCounter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Warn("failed to create counter", "name", name, "error", err)
		return nil
	}
	return c
}

func (s *Usecase) count(ctx context.Context, c metric.Int64Counter, opts ...metric.AddOption) {
	if c != nil {
		c.Add(ctx, 1, opts...)
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.usecase").Start(ctx, name)
}

func (s *Usecase) ttl() time.Duration {
	return s.cfg.GetSecond("modules.verification.otp.ttl")
}

func (s *Usecase) cooldown() time.Duration {
	return s.cfg.GetSecond("modules.verification.otp.cooldown")
}

func (s *Usecase) maxAttempts() int {
	return s.cfg.GetInt("modules.verification.otp.max_attempts")
}

// lock serializes issue and verify calls for one email on this instance.
// It is a no-op when modules.verification.serialize_per_email is false.
func (s *Usecase) lock(email string) func() {
	if !s.cfg.GetBool("modules.verification.serialize_per_email") {
		return func() {}
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()

	return mu.Unlock
}

// sweep drops expired records. Failures are only logged: every read
// re-checks expiry on its own.
func (s *Usecase) sweep(ctx context.Context, now time.Time) {
	n, err := s.store.SweepExpired(ctx, now)
	if err != nil {
		slog.WarnContext(ctx, "failed to sweep expired otp records", "error", err)
		return
	}
	if n > 0 {
		slog.DebugContext(ctx, "expired otp records swept", "count", n)
	}
}
