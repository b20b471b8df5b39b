package mail

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	return &buf
}

func TestLog_Send(t *testing.T) {
	msg := Message{
		To:       []string{"a@b.co"},
		Subject:  "Your Verification Code",
		TextBody: "Your code is 012345",
		HTMLBody: "<p>012345</p>",
	}

	t.Run("envelope only", func(t *testing.T) {
		buf := captureLog(t)

		require.NoError(t, NewLog("noreply@example.com", false).Send(context.Background(), msg))

		out := buf.String()
		assert.Contains(t, out, "noreply@example.com")
		assert.Contains(t, out, "Your Verification Code")
		assert.NotContains(t, out, "012345")
	})

	t.Run("body at debug", func(t *testing.T) {
		buf := captureLog(t)

		require.NoError(t, NewLog("noreply@example.com", true).Send(context.Background(), msg))

		out := buf.String()
		assert.Contains(t, out, "level=DEBUG")
		assert.Contains(t, out, "Your code is 012345")
		assert.NotContains(t, out, "<p>")
	})

	t.Run("no recipients", func(t *testing.T) {
		l := NewLog("", true)
		assert.ErrorIs(t, l.Send(context.Background(), Message{}), ErrNoRecipients)
		assert.NoError(t, l.Close())
	})
}
