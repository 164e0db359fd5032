package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/safex/internal/audit/entity"
	"github.com/shandysiswandi/safex/internal/pkg/goerror"
	"github.com/shandysiswandi/safex/internal/pkg/valueobject"
)

// sensitiveDetailKeys are stripped before a row is written.
var sensitiveDetailKeys = []string{"otp", "code", "dev_code", "devCode", "code_hash"}

type RecordEventInput struct {
	UserID     string `validate:"required,max=128"`
	Action     string `validate:"required,max=64"`
	Details    map[string]any
	OccurredAt time.Time
}

// RecordEvent persists one audit event. Invalid events are logged and
// dropped so the broker does not redeliver them.
func (s *Usecase) RecordEvent(ctx context.Context, in RecordEventInput) error {
	ctx, span := s.startSpan(ctx, "RecordEvent")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	createdAt := in.OccurredAt
	if createdAt.IsZero() {
		createdAt = s.clock.Now()
	}

	details := valueobject.JSONMap(lo.OmitByKeys(in.Details, sensitiveDetailKeys))

	if err := s.repoDB.CreateLog(ctx, entity.Log{
		ID:        s.uuid.Generate(),
		UserID:    in.UserID,
		Action:    in.Action,
		Details:   details,
		CreatedAt: createdAt.UTC(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create audit log", "user_id", in.UserID, "action", in.Action, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
