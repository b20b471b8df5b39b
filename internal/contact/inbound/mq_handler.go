package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/contactgate/internal/contact/usecase"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/shandysiswandi/contactgate/internal/pkg/messaging"
	"github.com/shandysiswandi/contactgate/internal/pkg/uid"
	"github.com/shandysiswandi/contactgate/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) MessageSubmittedOwnerNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("contact.inbound.mq").Start(ctx, "MessageSubmittedOwnerNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: contact message submitted", "topic", msg.Topic())

	var payload event.ContactMessageSubmittedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of contact message submitted", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.NotifyOwner(ctx, usecase.NotifyOwnerInput{
		ID:        payload.ID,
		Name:      payload.Name,
		Email:     payload.Email,
		Message:   payload.Message,
		CreatedAt: payload.CreatedAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to notify owner of contact message", "id", payload.ID, "error", err)
		return err
	}

	return nil
}
