package mfa

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/safex/internal/mfa/inbound"
	"github.com/shandysiswandi/safex/internal/mfa/outbound/db"
	"github.com/shandysiswandi/safex/internal/mfa/outbound/delivery"
	"github.com/shandysiswandi/safex/internal/mfa/outbound/memory"
	"github.com/shandysiswandi/safex/internal/mfa/outbound/mq"
	"github.com/shandysiswandi/safex/internal/mfa/usecase"
	"github.com/shandysiswandi/safex/internal/pkg/clock"
	"github.com/shandysiswandi/safex/internal/pkg/config"
	"github.com/shandysiswandi/safex/internal/pkg/goroutine"
	"github.com/shandysiswandi/safex/internal/pkg/hash"
	"github.com/shandysiswandi/safex/internal/pkg/idempotency"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"github.com/shandysiswandi/safex/internal/pkg/messaging"
	"github.com/shandysiswandi/safex/internal/pkg/otp"
	"github.com/shandysiswandi/safex/internal/pkg/router"
	"github.com/shandysiswandi/safex/internal/pkg/validator"
	"github.com/shandysiswandi/safex/internal/pkg/whatsapp"
)

type Dependency struct {
	Ctx         context.Context            `validate:"required"`
	DBConn      *pgxpool.Pool              `validate:"required"`
	Store       *memory.Store              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	WhatsApp    whatsapp.Sender            `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	OTP         otp.Generator              `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

// New wires the local second-factor module and starts its sweeper on dep.Ctx.
func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoDelivery:  delivery.NewWhatsApp(dep.WhatsApp, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Store:         dep.Store,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		OTP:           dep.OTP,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	sweeper := inbound.NewSweeper(uc, dep.Clock, dep.Config.GetMinute("modules.mfa.sweep_interval_minutes"))
	sweeper.Start(dep.Ctx, dep.Goroutine)

	inbound.RegisterHTTPEndpoint(dep.Router, uc, sweeper)

	return nil
}
