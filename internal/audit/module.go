package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/safex/internal/audit/inbound"
	"github.com/shandysiswandi/safex/internal/audit/outbound/db"
	"github.com/shandysiswandi/safex/internal/audit/usecase"
	"github.com/shandysiswandi/safex/internal/pkg/clock"
	"github.com/shandysiswandi/safex/internal/pkg/config"
	"github.com/shandysiswandi/safex/internal/pkg/goroutine"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"github.com/shandysiswandi/safex/internal/pkg/messaging"
	"github.com/shandysiswandi/safex/internal/pkg/uid"
	"github.com/shandysiswandi/safex/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context
	DBConn     *pgxpool.Pool              `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		UUID:       dep.UUID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
