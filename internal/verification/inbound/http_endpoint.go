package inbound

import (
	"github.com/shandysiswandi/contactgate/internal/pkg/router"
	"github.com/shandysiswandi/contactgate/internal/verification/usecase"
)

// HTTPEndpoint exposes the OTP issue and verify handlers.
type HTTPEndpoint struct {
	uc uc
}

// IssueOTP sends a one-time passcode to an email address.
// @Summary Issue OTP
// @Description Generates a 6 digit code, stores it for 5 minutes and emails it. Repeated requests for one email within 60 seconds are rejected.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body IssueOTPRequest true "Issue payload"
// @Success 200 {object} IssueOTPResponse "OTP sent"
// @Failure 400 {object} map[string]any "Invalid email address"
// @Failure 429 {object} map[string]any "Cooldown active, see cooldownRemaining"
// @Failure 500 {object} map[string]any "Failed to send OTP"
// @Router /api/v1/contact/otp/issue [post]
func (h *HTTPEndpoint) IssueOTP(r *router.Request) (any, error) {
	var req IssueOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.IssueOTP(r.Context(), usecase.IssueOTPInput{Email: req.Email})
	if err != nil {
		return nil, err
	}

	return IssueOTPResponse{
		Success:   true,
		Message:   "OTP sent successfully",
		ExpiresIn: resp.ExpiresIn,
	}, nil
}

// VerifyOTP checks a passcode and returns a verification credential.
// @Summary Verify OTP
// @Description Consumes the code on success. Three wrong codes invalidate it.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Verify payload"
// @Success 200 {object} VerifyOTPResponse "Email verified"
// @Failure 400 {object} map[string]any "Missing fields, not found, expired, too many attempts or mismatch"
// @Failure 500 {object} map[string]any "Internal server error"
// @Router /api/v1/contact/otp/verify [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Email: req.Email,
		OTP:   req.OTP,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{
		Success:           true,
		Message:           "Email verified successfully",
		VerificationToken: resp.VerificationToken,
	}, nil
}
