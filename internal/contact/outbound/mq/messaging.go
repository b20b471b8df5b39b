package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/contactgate/internal/contact/usecase"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/shandysiswandi/contactgate/internal/pkg/messaging"
	"github.com/shandysiswandi/contactgate/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type publisher interface {
	Publish(ctx context.Context, topic string, msg messaging.OutgoingMessage) error
}

type Messaging struct {
	client publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishMessageSubmitted(ctx context.Context, msg usecase.MessageSubmittedEvent) error {
	ctx, span := m.ins.Tracer("contact.outbound.mq").Start(ctx, "PublishMessageSubmitted")
	defer span.End()

	body, err := json.Marshal(event.ContactMessageSubmittedMessage{
		ID:        msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Message:   msg.Message,
		CreatedAt: msg.CreatedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if err := m.client.Publish(ctx, event.ContactMessageSubmittedDestination, messaging.OutgoingMessage{
		Key:     []byte(strconv.FormatInt(msg.ID, 10)),
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: cID},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
