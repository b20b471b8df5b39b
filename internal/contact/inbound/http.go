package inbound

import (
	"context"

	"github.com/shandysiswandi/contactgate/internal/contact/usecase"
	"github.com/shandysiswandi/contactgate/internal/pkg/router"
)

type uc interface {
	SubmitMessage(ctx context.Context, in usecase.SubmitMessageInput) (*usecase.SubmitMessageOutput, error)
	NotifyOwner(ctx context.Context, in usecase.NotifyOwnerInput) error
}

// RegisterHTTPEndpoint mounts the contact form endpoint behind the
// credential middleware.
func RegisterHTTPEndpoint(r *router.Router, uc uc, credential router.Middleware) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/contact/messages", end.SubmitMessage, credential)
}
