package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/safex/internal/audit/usecase"
	"github.com/shandysiswandi/safex/internal/pkg/config"
	"github.com/shandysiswandi/safex/internal/pkg/goroutine"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"github.com/shandysiswandi/safex/internal/pkg/messaging"
	"github.com/shandysiswandi/safex/internal/pkg/uid"
	"github.com/shandysiswandi/safex/internal/shared/event"
)

type uc interface {
	RecordEvent(ctx context.Context, in usecase.RecordEventInput) error
}

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.audit.consumer_names")

	var consumers = []struct {
		name    string
		topic   string
		group   string
		handler messaging.Handler
	}{
		{
			name:    event.MFAAuditConsumerPersist,
			topic:   event.MFAAuditDestination,
			group:   event.MFAAuditConsumerPersist,
			handler: mqHandler.PersistMFAAudit,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				return messenger.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithQueueGroup(consumer.group),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(cfg.GetInt("modules.audit.consumer_concurrency")),
				)
			})
		}
	}
}
