package contact

import (
	"context"
	"errors"

	"github.com/shandysiswandi/contactgate/internal/contact/inbound"
	"github.com/shandysiswandi/contactgate/internal/contact/outbound/db"
	"github.com/shandysiswandi/contactgate/internal/contact/outbound/email"
	"github.com/shandysiswandi/contactgate/internal/contact/outbound/mq"
	"github.com/shandysiswandi/contactgate/internal/contact/usecase"
	"github.com/shandysiswandi/contactgate/internal/pkg/clock"
	"github.com/shandysiswandi/contactgate/internal/pkg/config"
	"github.com/shandysiswandi/contactgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/contactgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/shandysiswandi/contactgate/internal/pkg/jwt"
	"github.com/shandysiswandi/contactgate/internal/pkg/mail"
	"github.com/shandysiswandi/contactgate/internal/pkg/messaging"
	"github.com/shandysiswandi/contactgate/internal/pkg/router"
	"github.com/shandysiswandi/contactgate/internal/pkg/uid"
	"github.com/shandysiswandi/contactgate/internal/pkg/validator"
)

var ErrDBRequired = errors.New("contact: database connection is required")

type Dependency struct {
	// Ctx scopes the broker consumers. Consumers are not started when nil.
	Ctx    context.Context
	DBConn db.Conn

	Messaging   messaging.Messaging        `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
	JWT         jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}
	if dep.DBConn == nil {
		return ErrDBRequired
	}

	dbContact := db.NewDB(dep.DBConn, dep.Instrument)
	if dep.Config.GetBool("modules.contact.db.auto_migrate") {
		ctx := dep.Ctx
		if ctx == nil {
			ctx = context.Background()
		}
		if err := dbContact.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:      dbContact,
		RepoMQ:      mq.NewMessaging(dep.Messaging, dep.Instrument),
		RepoMail:    email.New(dep.Mail, dep.Instrument),
		Idempotency: dep.Idempotency,
		Validator:   dep.Validator,
		Config:      dep.Config,
		UID:         dep.UID,
		Clock:       dep.Clock,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, router.RequireCredential(dep.JWT))
	if dep.Ctx != nil {
		return inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
