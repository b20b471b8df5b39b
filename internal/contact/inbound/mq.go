package inbound

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/contactgate/internal/pkg/config"
	"github.com/shandysiswandi/contactgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/shandysiswandi/contactgate/internal/pkg/messaging"
	"github.com/shandysiswandi/contactgate/internal/pkg/uid"
	"github.com/shandysiswandi/contactgate/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) error {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.contact.consumer_names")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		group   string // kafka consumer group, nats queue group
		handler messaging.Handler
	}{
		{
			name:    event.ContactMessageSubmittedConsumerOwnerNotification,
			topic:   event.ContactMessageSubmittedDestination,
			group:   event.ContactMessageSubmittedConsumerOwnerNotification,
			handler: mqHandler.MessageSubmittedOwnerNotification,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		if err := routine.Go(ctx, consumer.name, func(pCtx context.Context) error {
			slog.InfoContext(pCtx, "Running job for handling consumer", "consumer", consumer.name)
			err := messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.group),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(cfg.GetInt("modules.contact.consumer_concurrency")),
			)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}); err != nil {
			return err
		}
	}

	return nil
}
