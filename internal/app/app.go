package app

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/contactgate/internal/pkg/clock"
	"github.com/shandysiswandi/contactgate/internal/pkg/config"
	"github.com/shandysiswandi/contactgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/contactgate/internal/pkg/hash"
	"github.com/shandysiswandi/contactgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/shandysiswandi/contactgate/internal/pkg/jwt"
	"github.com/shandysiswandi/contactgate/internal/pkg/mail"
	"github.com/shandysiswandi/contactgate/internal/pkg/messaging"
	"github.com/shandysiswandi/contactgate/internal/pkg/otp"
	"github.com/shandysiswandi/contactgate/internal/pkg/router"
	"github.com/shandysiswandi/contactgate/internal/pkg/uid"
	"github.com/shandysiswandi/contactgate/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	otp       otp.Generator
	jwt       jwt.JWT

	// resources, optional ones stay nil when not configured
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	dynamoDB  *dynamodb.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging

	// server
	router       *router.Router
	issueLimiter *router.RateLimiter
	httpServer   *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initDynamoDB()
	app.initMail()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
