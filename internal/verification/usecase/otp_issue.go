package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/contactgate/internal/pkg/clock"
	"github.com/shandysiswandi/contactgate/internal/pkg/goerror"
	"github.com/shandysiswandi/contactgate/internal/pkg/mail"
	"github.com/shandysiswandi/contactgate/internal/verification/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type IssueOTPInput struct {
	Email string `validate:"required,mailbox"`
}

type IssueOTPOutput struct {
	ExpiresIn int
}

func (s *Usecase) IssueOTP(ctx context.Context, in IssueOTPInput) (*IssueOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "IssueOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		s.reject(ctx, goerror.ReasonInvalidInput)
		return nil, goerror.NewInvalidInput("Invalid email address", err)
	}

	unlock := s.lock(in.Email)
	defer unlock()

	now := s.clock.Now()
	s.sweep(ctx, now)

	prev, err := s.store.Get(ctx, in.Email)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to store get otp record", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if prev != nil && !prev.Expired(now) {
		if left := prev.CooldownLeft(now, s.cooldown()); left > 0 {
			secs := clock.SecondsCeil(left)
			slog.WarnContext(ctx, "otp requested during cooldown", "email", in.Email, "cooldown_remaining", secs)
			s.reject(ctx, goerror.ReasonCooldownActive)
			return nil, goerror.NewBusiness("Please wait before requesting a new OTP", goerror.CodeTooManyRequest,
				goerror.WithReason(goerror.ReasonCooldownActive),
				goerror.WithDetail(goerror.DetailCooldownRemaining, secs),
			)
		}
	}

	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(in.Email, code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.ttl()
	rec := entity.OTPRecord{
		Email:     in.Email,
		CodeHash:  codeHash,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
		Attempts:  0,
	}

	if err := s.store.Put(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to store put otp record", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.deliver(ctx, in.Email, code); err != nil {
		slog.ErrorContext(ctx, "failed to dispatch otp email", "email", in.Email, "error", err)

		if err := s.store.Delete(ctx, in.Email); err != nil {
			slog.ErrorContext(ctx, "failed to store delete undelivered otp record", "email", in.Email, "error", err)
		}

		s.reject(ctx, goerror.ReasonDeliveryFailure)
		return nil, goerror.NewServerMsg(err, "Failed to send OTP", goerror.WithReason(goerror.ReasonDeliveryFailure))
	}

	s.count(ctx, s.otpIssued)
	slog.InfoContext(ctx, "otp issued", "email", in.Email, "expires_at", rec.ExpiresAt)

	return &IssueOTPOutput{ExpiresIn: int(ttl.Seconds())}, nil
}

// deliver renders the email and sends it. In async mode only the scheduling
// can fail; send errors after that are logged by the task.
func (s *Usecase) deliver(ctx context.Context, email, code string) error {
	htmlBody, textBody, err := renderOTPEmail(code, s.ttl())
	if err != nil {
		return err
	}

	msg := mail.Message{
		To:       []string{email},
		Subject:  otpEmailSubject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	if !s.cfg.GetBool("modules.verification.delivery.async") {
		return s.repoMail.Send(ctx, msg)
	}

	return s.goroutine.Go(context.WithoutCancel(ctx), "verification.deliver_otp", func(ctx context.Context) error {
		if err := s.repoMail.Send(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to send otp email", "email", email, "error", err)
		}
		return nil
	})
}

func (s *Usecase) reject(ctx context.Context, reason goerror.Reason) {
	s.count(ctx, s.otpRejected, metric.WithAttributes(attribute.String("reason", string(reason))))
}
