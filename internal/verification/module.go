package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/contactgate/internal/pkg/clock"
	"github.com/shandysiswandi/contactgate/internal/pkg/config"
	"github.com/shandysiswandi/contactgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/contactgate/internal/pkg/hash"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/shandysiswandi/contactgate/internal/pkg/jwt"
	"github.com/shandysiswandi/contactgate/internal/pkg/mail"
	"github.com/shandysiswandi/contactgate/internal/pkg/otp"
	"github.com/shandysiswandi/contactgate/internal/pkg/router"
	"github.com/shandysiswandi/contactgate/internal/pkg/validator"
	"github.com/shandysiswandi/contactgate/internal/verification/entity"
	"github.com/shandysiswandi/contactgate/internal/verification/inbound"
	"github.com/shandysiswandi/contactgate/internal/verification/outbound/email"
	"github.com/shandysiswandi/contactgate/internal/verification/outbound/store"
	"github.com/shandysiswandi/contactgate/internal/verification/usecase"
)

var (
	ErrRedisRequired    = errors.New("verification: redis store selected but no redis connection")
	ErrDynamoDBRequired = errors.New("verification: dynamodb store selected but no dynamodb client")
	ErrUnknownStore     = errors.New("verification: unknown store driver")
)

type Dependency struct {
	// CacheConn backs the redis store driver. Optional.
	CacheConn redis.UniversalClient
	// DynamoDB backs the dynamodb store driver. Optional.
	DynamoDB store.DynamoAPI

	Router       *router.Router             `validate:"required"`
	IssueLimiter *router.RateLimiter        `validate:"required"`
	Goroutine    *goroutine.Manager         `validate:"required"`
	Mail         mail.Mail                  `validate:"required"`
	Config       config.Config              `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	HMAC         hash.Hash                  `validate:"required"`
	OTP          otp.Generator              `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Validator    validator.Validator        `validate:"required"`
	JWT          jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoStore, err := newStore(dep)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		Store:      repoStore,
		RepoMail:   email.New(dep.Mail, dep.Instrument),
		Validator:  dep.Validator,
		Config:     dep.Config,
		HMAC:       dep.HMAC,
		OTP:        dep.OTP,
		Clock:      dep.Clock,
		JWT:        dep.JWT,
		Instrument: dep.Instrument,
		Goroutine:  dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.IssueLimiter.Middleware())

	return nil
}

type otpStore interface {
	Get(ctx context.Context, email string) (*entity.OTPRecord, error)
	Put(ctx context.Context, rec entity.OTPRecord) error
	Delete(ctx context.Context, email string) error
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

func newStore(dep Dependency) (otpStore, error) {
	switch driver := dep.Config.GetString("modules.verification.store.driver"); driver {
	case store.DriverMemory, "":
		return store.NewMemory(dep.Instrument), nil

	case store.DriverRedis:
		if dep.CacheConn == nil {
			return nil, ErrRedisRequired
		}
		return store.NewRedis(dep.CacheConn, dep.Clock, dep.Instrument), nil

	case store.DriverDynamoDB:
		if dep.DynamoDB == nil {
			return nil, ErrDynamoDBRequired
		}
		table := dep.Config.GetString("modules.verification.store.dynamodb.table")
		return store.NewDynamoDB(dep.DynamoDB, table, dep.Instrument), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, driver)
	}
}
