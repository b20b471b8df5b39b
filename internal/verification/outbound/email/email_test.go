package email

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/shandysiswandi/contactgate/internal/pkg/mail"
	"github.com/stretchr/testify/assert"
)

type stubMail struct {
	sent []mail.Message
	err  error
}

func (s *stubMail) Send(_ context.Context, msg mail.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *stubMail) Close() error { return nil }

func TestMail_Send(t *testing.T) {
	client := &stubMail{}
	m := New(client, instrument.NewNoop())

	err := m.Send(context.Background(), mail.Message{To: []string{"a@x.com"}, Subject: "s"})
	assert.NoError(t, err)
	assert.Len(t, client.sent, 1)

	client.err = errors.New("smtp down")
	err = m.Send(context.Background(), mail.Message{To: []string{"a@x.com"}})
	assert.EqualError(t, err, "smtp down")
}
