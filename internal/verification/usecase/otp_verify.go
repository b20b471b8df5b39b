package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/contactgate/internal/pkg/goerror"
)

type VerifyOTPInput struct {
	Email string `validate:"required"`
	OTP   string `validate:"required"`
}

type VerifyOTPOutput struct {
	VerificationToken string
	ExpiresAt         time.Time
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		s.reject(ctx, goerror.ReasonInvalidInput)
		return nil, goerror.NewInvalidInput("Email and OTP are required", err)
	}

	unlock := s.lock(in.Email)
	defer unlock()

	// The target record is read before the sweep so a stale code is reported
	// as expired instead of missing.
	now := s.clock.Now()
	rec, err := s.store.Get(ctx, in.Email)
	s.sweep(ctx, now)

	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp record not found", "email", in.Email)
		return nil, s.rejectOTP(ctx, "No OTP found for this email. Please request a new one.", goerror.ReasonOTPNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to store get otp record", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if rec.Expired(now) {
		if err := s.store.Delete(ctx, in.Email); err != nil {
			slog.ErrorContext(ctx, "failed to store delete expired otp record", "email", in.Email, "error", err)
			return nil, goerror.NewServer(err)
		}
		slog.WarnContext(ctx, "otp record expired", "email", in.Email, "expired_at", rec.ExpiresAt)
		return nil, s.rejectOTP(ctx, "OTP has expired. Please request a new one.", goerror.ReasonOTPExpired)
	}

	maxAttempts := s.maxAttempts()
	if rec.Attempts >= maxAttempts {
		if err := s.store.Delete(ctx, in.Email); err != nil {
			slog.ErrorContext(ctx, "failed to store delete exhausted otp record", "email", in.Email, "error", err)
			return nil, goerror.NewServer(err)
		}
		slog.WarnContext(ctx, "otp attempts exhausted", "email", in.Email, "attempts", rec.Attempts)
		return nil, s.rejectOTP(ctx, "Too many failed attempts. Please request a new OTP.", goerror.ReasonTooManyAttempts)
	}

	if !s.hmac.Verify(rec.CodeHash, in.Email, in.OTP) {
		rec.Attempts++
		if err := s.store.Put(ctx, *rec); err != nil {
			slog.ErrorContext(ctx, "failed to store put otp attempts", "email", in.Email, "error", err)
			return nil, goerror.NewServer(err)
		}

		left := rec.AttemptsRemaining(maxAttempts)
		slog.WarnContext(ctx, "otp mismatch", "email", in.Email, "attempts", rec.Attempts, "attempts_remaining", left)
		return nil, s.rejectOTP(ctx, mismatchMessage(left), goerror.ReasonOTPMismatch,
			goerror.WithDetail(goerror.DetailAttemptsRemaining, left))
	}

	if err := s.store.Delete(ctx, in.Email); err != nil {
		slog.ErrorContext(ctx, "failed to store delete consumed otp record", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	token, claims, err := s.jwt.Generate(in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification credential", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.count(ctx, s.otpVerified)
	slog.InfoContext(ctx, "email verified", "email", in.Email, "credential_id", claims.ID)

	return &VerifyOTPOutput{
		VerificationToken: token,
		ExpiresAt:         claims.ExpiresAt.Time,
	}, nil
}

func (s *Usecase) rejectOTP(ctx context.Context, msg string, reason goerror.Reason, opts ...goerror.Option) error {
	s.reject(ctx, reason)
	return goerror.NewBusiness(msg, goerror.CodeRejected, append([]goerror.Option{goerror.WithReason(reason)}, opts...)...)
}

func mismatchMessage(left int) string {
	if left == 1 {
		return "Invalid OTP. 1 attempt remaining."
	}
	return fmt.Sprintf("Invalid OTP. %d attempts remaining.", left)
}
