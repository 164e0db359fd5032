package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/safex/internal/mfa/entity"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"github.com/shandysiswandi/safex/internal/pkg/messaging"
	"github.com/shandysiswandi/safex/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishAudit(ctx context.Context, ev entity.AuditEvent) error {
	ctx, span := m.ins.Tracer("mfa.outbound.mq").Start(ctx, "PublishAudit")
	defer span.End()

	body, err := json.Marshal(event.MFAAuditMessage{
		UserID:     ev.SubjectID,
		Action:     string(ev.Action),
		Details:    ev.Details,
		OccurredAt: ev.OccurredAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.MFAAuditDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: event.KeyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
