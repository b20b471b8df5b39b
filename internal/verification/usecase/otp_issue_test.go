package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shandysiswandi/contactgate/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueOTP_Success(t *testing.T) {
	// Arrange
	f := newFixture(t, syncDelivery)
	f.codes.codes = []string{"004213"}
	ctx := context.Background()

	// Act
	out, err := f.uc.IssueOTP(ctx, IssueOTPInput{Email: "a@x.com"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 300, out.ExpiresIn)

	require.Len(t, f.mail.sent, 1)
	msg := f.mail.sent[0]
	assert.Equal(t, []string{"a@x.com"}, msg.To)
	assert.Equal(t, "Your Verification Code", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "004213")
	assert.Contains(t, msg.HTMLBody, "5 minutes")
	assert.Contains(t, msg.TextBody, "004213")

	rec, err := f.store.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotContains(t, rec.CodeHash, "004213")
	assert.Equal(t, 0, rec.Attempts)
	assert.Equal(t, f.clock.Now(), rec.IssuedAt)
	assert.Equal(t, f.clock.Now().Add(5*time.Minute), rec.ExpiresAt)
}

func TestIssueOTP_InvalidEmail(t *testing.T) {
	f := newFixture(t, syncDelivery)
	f.store.getErr = errors.New("store must not be touched")

	for _, email := range []string{"", "plain", "a@b", "a b@x.com", "@x.com"} {
		_, err := f.uc.IssueOTP(context.Background(), IssueOTPInput{Email: email})

		gerr := requireReason(t, err, goerror.ReasonInvalidInput, http.StatusBadRequest)
		assert.Equal(t, "Invalid email address", gerr.Msg(), email)
	}
	assert.Zero(t, f.mail.count())
}

func TestIssueOTP_Cooldown(t *testing.T) {
	// Arrange
	f := newFixture(t, syncDelivery)
	f.issue(t, "c@x.com")

	// Act
	_, err := f.uc.IssueOTP(context.Background(), IssueOTPInput{Email: "c@x.com"})

	// Assert
	gerr := requireReason(t, err, goerror.ReasonCooldownActive, http.StatusTooManyRequests)
	assert.Equal(t, "Please wait before requesting a new OTP", gerr.Msg())
	secs, ok := gerr.Detail(goerror.DetailCooldownRemaining)
	require.True(t, ok)
	assert.Equal(t, 60, secs)

	f.clock.Advance(20*time.Second + 500*time.Millisecond)
	_, err = f.uc.IssueOTP(context.Background(), IssueOTPInput{Email: "c@x.com"})
	gerr = requireReason(t, err, goerror.ReasonCooldownActive, http.StatusTooManyRequests)
	secs, _ = gerr.Detail(goerror.DetailCooldownRemaining)
	assert.Equal(t, 40, secs, "remaining seconds round up")

	assert.Equal(t, 1, f.mail.count())
}

func TestIssueOTP_AfterCooldownResetsAttempts(t *testing.T) {
	f := newFixture(t, syncDelivery)
	f.codes.codes = []string{"111111", "222222"}
	ctx := context.Background()

	f.issue(t, "a@x.com")
	_, err := f.verify("a@x.com", "999999")
	requireReason(t, err, goerror.ReasonOTPMismatch, http.StatusBadRequest)

	f.clock.Advance(60 * time.Second)
	f.issue(t, "a@x.com")

	rec, err := f.store.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Attempts)

	_, err = f.verify("a@x.com", "111111")
	requireReason(t, err, goerror.ReasonOTPMismatch, http.StatusBadRequest)

	_, err = f.verify("a@x.com", "222222")
	assert.NoError(t, err)
}

func TestIssueOTP_CooldownIsPerEmail(t *testing.T) {
	f := newFixture(t, syncDelivery)

	f.issue(t, "a@x.com")
	f.issue(t, "b@x.com")
	assert.Equal(t, 2, f.mail.count())
}

func TestIssueOTP_DeliveryFailureSync(t *testing.T) {
	f := newFixture(t, syncDelivery)
	f.mail.err = errors.New("smtp: 554 rejected")
	ctx := context.Background()

	_, err := f.uc.IssueOTP(ctx, IssueOTPInput{Email: "a@x.com"})

	gerr := requireReason(t, err, goerror.ReasonDeliveryFailure, http.StatusInternalServerError)
	assert.Equal(t, "Failed to send OTP", gerr.Msg())
	assert.NotContains(t, gerr.Msg(), "554")

	_, err = f.store.Get(ctx, "a@x.com")
	assert.ErrorIs(t, err, goerror.ErrNotFound, "undelivered record is removed")

	f.mail.err = nil
	f.issue(t, "a@x.com")
}

func TestIssueOTP_Async(t *testing.T) {
	f := newFixture(t, "")

	f.issue(t, "a@x.com")
	require.NoError(t, f.routine.Wait())
	assert.Equal(t, 1, f.mail.count())

	f.clock.Advance(time.Minute)
	_, err := f.uc.IssueOTP(context.Background(), IssueOTPInput{Email: "a@x.com"})
	requireReason(t, err, goerror.ReasonDeliveryFailure, http.StatusInternalServerError)

	_, err = f.store.Get(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestIssueOTP_AsyncSendErrorStillSucceeds(t *testing.T) {
	f := newFixture(t, "")
	f.mail.err = errors.New("smtp down")

	out, err := f.uc.IssueOTP(context.Background(), IssueOTPInput{Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, 300, out.ExpiresIn)
	assert.NoError(t, f.routine.Wait())
}

func TestIssueOTP_InternalErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{name: "store get", setup: func(f *fixture) { f.store.getErr = errors.New("boom") }},
		{name: "store put", setup: func(f *fixture) { f.store.putErr = errors.New("boom") }},
		{name: "generator", setup: func(f *fixture) { f.codes.err = errors.New("entropy") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, syncDelivery)
			tt.setup(f)

			_, err := f.uc.IssueOTP(context.Background(), IssueOTPInput{Email: "a@x.com"})

			gerr := requireReason(t, err, goerror.ReasonInternal, http.StatusInternalServerError)
			assert.Equal(t, "Internal server error", gerr.Msg())
			assert.Zero(t, f.mail.count())
		})
	}
}
