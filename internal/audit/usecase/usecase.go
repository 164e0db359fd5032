package usecase

import (
	"context"

	"github.com/shandysiswandi/safex/internal/audit/entity"
	"github.com/shandysiswandi/safex/internal/pkg/clock"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"github.com/shandysiswandi/safex/internal/pkg/uid"
	"github.com/shandysiswandi/safex/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateLog(ctx context.Context, l entity.Log) error
}

type Usecase struct {
	repoDB    repoDB
	uuid      uid.StringID
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	UUID       uid.StringID
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		uuid:      dep.UUID,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("audit.usecase").Start(ctx, name)
}
