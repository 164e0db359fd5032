package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/safex/internal/audit"
	"github.com/shandysiswandi/safex/internal/mfa"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.mfa.enabled") {
		if err := mfa.New(mfa.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Store:       a.challenges,
			Goroutine:   a.goroutine,
			Router:      a.router,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			WhatsApp:    a.whatsapp,
			Config:      a.config,
			Instrument:  a.ins,
			HMAC:        a.hmac,
			OTP:         a.otp,
			Clock:       a.clock,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module mfa", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.audit.enabled") {
		if err := audit.New(audit.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module audit", "error", err)
			os.Exit(1)
		}
	}
}
