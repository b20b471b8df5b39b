package inbound

import (
	"strconv"

	"github.com/shandysiswandi/contactgate/internal/contact/usecase"
	"github.com/shandysiswandi/contactgate/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// SubmitMessage stores a contact message from a verified email address.
// @Summary Submit contact message
// @Description Requires the verification token from the verify endpoint. Each token is accepted once.
// @Tags Contact
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubmitMessageRequest true "Contact message"
// @Success 200 {object} SubmitMessageResponse "Message stored"
// @Failure 400 {object} map[string]any "Invalid contact message"
// @Failure 401 {object} map[string]any "Missing or invalid verification token"
// @Failure 409 {object} map[string]any "Verification token already used"
// @Failure 500 {object} map[string]any "Internal server error"
// @Router /api/v1/contact/messages [post]
func (h *HTTPEndpoint) SubmitMessage(r *router.Request) (any, error) {
	var req SubmitMessageRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SubmitMessage(r.Context(), usecase.SubmitMessageInput{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		return nil, err
	}

	// ids are encoded as strings, javascript numbers lose snowflake precision
	return SubmitMessageResponse{
		Success: true,
		Message: "Message sent successfully",
		ID:      strconv.FormatInt(resp.ID, 10),
	}, nil
}
