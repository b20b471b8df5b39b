package inbound

import (
	"context"

	"github.com/shandysiswandi/contactgate/internal/pkg/router"
	"github.com/shandysiswandi/contactgate/internal/verification/usecase"
)

type uc interface {
	IssueOTP(ctx context.Context, in usecase.IssueOTPInput) (*usecase.IssueOTPOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
}

// RegisterHTTPEndpoint mounts the OTP endpoints. issueMws wrap only the
// issuance routes (per-IP limiter).
func RegisterHTTPEndpoint(r *router.Router, uc uc, issueMws ...router.Middleware) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/contact/otp/issue", end.IssueOTP, issueMws...)
	r.POST("/api/v1/contact/otp/verify", end.VerifyOTP)

	// function-style aliases
	r.POST("/issue-otp", end.IssueOTP, issueMws...)
	r.POST("/verify-otp", end.VerifyOTP)
}
