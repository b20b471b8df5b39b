package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/contactgate/internal/contact/entity"
	"github.com/shandysiswandi/contactgate/internal/pkg/clock"
	"github.com/shandysiswandi/contactgate/internal/pkg/config"
	"github.com/shandysiswandi/contactgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/shandysiswandi/contactgate/internal/pkg/mail"
	"github.com/shandysiswandi/contactgate/internal/pkg/uid"
	"github.com/shandysiswandi/contactgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateMessage(ctx context.Context, msg entity.Message) error
}

type repoMQ interface {
	PublishMessageSubmitted(ctx context.Context, msg MessageSubmittedEvent) error
}

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

// MessageSubmittedEvent is published after a message is stored.
type MessageSubmittedEvent struct {
	ID        int64
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}

type Usecase struct {
	repoDB      repoDB
	repoMQ      repoMQ
	repoMail    repoMail
	idempotency idempotency.Idempotency
	validator   validator.Validator
	cfg         config.Config
	uid         uid.NumberID
	clock       clock.Clocker
	ins         instrument.Instrumentation

	submitted metric.Int64Counter
}

type Dependency struct {
	RepoDB      repoDB
	RepoMQ      repoMQ
	RepoMail    repoMail
	Idempotency idempotency.Idempotency
	Validator   validator.Validator
	Config      config.Config
	UID         uid.NumberID
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	uc := &Usecase{
		repoDB:      dep.RepoDB,
		repoMQ:      dep.RepoMQ,
		repoMail:    dep.RepoMail,
		idempotency: dep.Idempotency,
		validator:   dep.Validator,
		cfg:         dep.Config,
		uid:         dep.UID,
		clock:       dep.Clock,
		ins:         dep.Instrument,
	}

	c, err := dep.Instrument.Meter("contact.usecase").Int64Counter("contact.message.submitted",
		metric.WithDescription("Number of accepted contact messages"))
	if err != nil {
		slog.Warn("failed to create counter", "name", "contact.message.submitted", "error", err)
	}
	uc.submitted = c

	return uc
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("contact.usecase").Start(ctx, name)
}
