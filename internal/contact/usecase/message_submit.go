package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/contactgate/internal/contact/entity"
	"github.com/shandysiswandi/contactgate/internal/pkg/goerror"
	"github.com/shandysiswandi/contactgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/contactgate/internal/pkg/jwt"
)

const credentialKeyPrefix = "contact:credential:"

type SubmitMessageInput struct {
	Name    string `validate:"required,max=100"`
	Email   string `validate:"required,mailbox"`
	Message string `validate:"required,max=5000"`
}

type SubmitMessageOutput struct {
	ID int64
}

// SubmitMessage stores a message from a verified address. The credential in
// ctx is accepted once; a second submission with the same credential fails
// with a conflict.
func (s *Usecase) SubmitMessage(ctx context.Context, in SubmitMessageInput) (*SubmitMessageOutput, error) {
	ctx, span := s.startSpan(ctx, "SubmitMessage")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput("Invalid contact message", err)
	}

	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.ID == "" {
		return nil, goerror.NewBusiness("Email verification required", goerror.CodeUnauthorized)
	}

	if clm.Email != in.Email {
		slog.WarnContext(ctx, "contact email differs from verified email", "email", in.Email, "verified_email", clm.Email)
		return nil, goerror.NewBusiness("Email does not match the verified address", goerror.CodeUnauthorized)
	}

	now := s.clock.Now()
	// the key must outlive the credential, otherwise it could be replayed
	keep := time.Minute
	if clm.ExpiresAt != nil {
		keep += clm.ExpiresAt.Sub(now)
	}

	var out SubmitMessageOutput
	err := s.idempotency.Exec(ctx, credentialKeyPrefix+clm.ID, func(ctx context.Context) error {
		msg := entity.Message{
			ID:           s.uid.Generate(),
			Name:         in.Name,
			Email:        in.Email,
			Body:         in.Message,
			CredentialID: clm.ID,
			CreatedAt:    now,
		}

		if err := s.repoDB.CreateMessage(ctx, msg); err != nil {
			return err
		}

		out.ID = msg.ID
		s.publish(ctx, msg)
		return nil
	},
		idempotency.WithLockDuration(30*time.Second),
		idempotency.WithStateTTL(keep),
		idempotency.WithRetryOnFailure(),
	)

	switch {
	case err == nil:
	case errors.Is(err, idempotency.ErrAlreadyCompleted),
		errors.Is(err, idempotency.ErrAlreadyInProgress),
		errors.Is(err, goerror.ErrConflict):
		slog.WarnContext(ctx, "verification credential reused", "credential_id", clm.ID, "email", in.Email)
		return nil, goerror.NewBusiness("This verification has already been used. Please verify your email again.", goerror.CodeConflict)
	default:
		slog.ErrorContext(ctx, "failed to submit contact message", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if s.submitted != nil {
		s.submitted.Add(ctx, 1)
	}
	slog.InfoContext(ctx, "contact message submitted", "id", out.ID, "email", in.Email)

	return &out, nil
}

// publish announces the stored message. The message is already persisted, so
// a broker failure is logged and not returned.
func (s *Usecase) publish(ctx context.Context, msg entity.Message) {
	if err := s.repoMQ.PublishMessageSubmitted(ctx, MessageSubmittedEvent{
		ID:        msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Message:   msg.Body,
		CreatedAt: msg.CreatedAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish contact message submitted", "id", msg.ID, "error", err)
	}
}
