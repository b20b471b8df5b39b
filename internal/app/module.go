package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/contactgate/internal/contact"
	"github.com/shandysiswandi/contactgate/internal/verification"
)

func (a *App) initModules() {
	dep := verification.Dependency{
		Router:       a.router,
		IssueLimiter: a.issueLimiter,
		Goroutine:    a.goroutine,
		Mail:         a.mail,
		Config:       a.config,
		Instrument:   a.ins,
		HMAC:         a.hmac,
		OTP:          a.otp,
		Clock:        a.clock,
		Validator:    a.validator,
		JWT:          a.jwt,
	}
	// typed nil pointers must not reach the interface fields
	if a.cacheConn != nil {
		dep.CacheConn = a.cacheConn
	}
	if a.dynamoDB != nil {
		dep.DynamoDB = a.dynamoDB
	}

	if err := verification.New(dep); err != nil {
		slog.Error("failed to init module verification", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("modules.contact.enabled") {
		cdep := contact.Dependency{
			Ctx:         a.ctx,
			Messaging:   a.messaging,
			Idempotency: a.idemp,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Router:      a.router,
			Mail:        a.mail,
			JWT:         a.jwt,
		}
		if a.dbConn != nil {
			cdep.DBConn = a.dbConn
		}

		if err := contact.New(cdep); err != nil {
			slog.Error("failed to init module contact", "error", err)
			os.Exit(1)
		}
	}
}
