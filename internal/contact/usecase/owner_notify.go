package usecase

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/shandysiswandi/contactgate/internal/pkg/mail"
)

var ownerEmailTemplate = template.Must(template.New("owner").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background-color: #f4f4f5; padding: 24px;">
  <div style="max-width: 560px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 24px;">
    <h2 style="margin-top: 0;">New contact message</h2>
    <p><strong>From:</strong> {{.Name}} &lt;{{.Email}}&gt;</p>
    <p><strong>Received:</strong> {{.CreatedAt}}</p>
    <p style="white-space: pre-wrap; border-left: 3px solid #d4d4d8; padding-left: 12px;">{{.Message}}</p>
    <p style="color: #71717a; font-size: 12px;">The sender verified this address with a one-time code. Reply to answer directly.</p>
  </div>
</body>
</html>`))

type NotifyOwnerInput struct {
	ID        int64
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}

// NotifyOwner emails a submitted message to the configured site owner.
func (s *Usecase) NotifyOwner(ctx context.Context, in NotifyOwnerInput) error {
	ctx, span := s.startSpan(ctx, "NotifyOwner")
	defer span.End()

	owner := s.cfg.GetString("modules.contact.owner_email")
	if owner == "" {
		slog.WarnContext(ctx, "owner email not configured, contact message not relayed", "id", in.ID)
		return nil
	}

	data := struct {
		NotifyOwnerInput
		CreatedAt string
	}{NotifyOwnerInput: in, CreatedAt: in.CreatedAt.UTC().Format(time.RFC1123)}

	var buf bytes.Buffer
	if err := ownerEmailTemplate.Execute(&buf, data); err != nil {
		slog.ErrorContext(ctx, "failed to render owner email", "id", in.ID, "error", err)
		return err
	}

	text := fmt.Sprintf("New contact message\n\nFrom: %s <%s>\nReceived: %s\n\n%s\n",
		in.Name, in.Email, data.CreatedAt, in.Message)

	if err := s.repoMail.Send(ctx, mail.Message{
		ReplyTo:  in.Email,
		To:       []string{owner},
		Subject:  fmt.Sprintf("Contact form: message from %s", in.Name),
		TextBody: text,
		HTMLBody: buf.String(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send owner email", "id", in.ID, "error", err)
		return err
	}

	slog.InfoContext(ctx, "contact message relayed to owner", "id", in.ID)
	return nil
}
