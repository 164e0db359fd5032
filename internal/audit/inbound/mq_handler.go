package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/safex/internal/audit/usecase"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"github.com/shandysiswandi/safex/internal/pkg/messaging"
	"github.com/shandysiswandi/safex/internal/pkg/uid"
	"github.com/shandysiswandi/safex/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	if cID := messaging.HeaderValue(headers, event.KeyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) PersistMFAAudit(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("audit.inbound.mq").Start(ctx, "PersistMFAAudit")
	defer span.End()

	body := msg.Body()

	var payload event.MFAAuditMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of mfa audit", "msg_body", string(body), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: mfa audit", "user_id", payload.UserID, "action", payload.Action)

	if err := h.uc.RecordEvent(ctx, usecase.RecordEventInput{
		UserID:     payload.UserID,
		Action:     payload.Action,
		Details:    payload.Details,
		OccurredAt: payload.OccurredAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to record mfa audit", "user_id", payload.UserID, "action", payload.Action, "error", err)
		return err
	}

	return nil
}
