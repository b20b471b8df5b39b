package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/contactgate/internal/pkg/goerror"
	"github.com/shandysiswandi/contactgate/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyOTP_Success(t *testing.T) {
	// Arrange
	f := newFixture(t, syncDelivery)
	f.issue(t, "a@x.com")

	// Act
	out, err := f.verify("a@x.com", "123456")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(30*time.Minute), out.ExpiresAt)

	claims, err := f.jwt.Verify(out.VerificationToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, jwt.PurposeEmailVerified, claims.Purpose)

	_, err = f.verify("a@x.com", "123456")
	gerr := requireReason(t, err, goerror.ReasonOTPNotFound, http.StatusBadRequest)
	assert.Equal(t, "No OTP found for this email. Please request a new one.", gerr.Msg())
}

func TestVerifyOTP_LeadingZeros(t *testing.T) {
	f := newFixture(t, syncDelivery)
	f.codes.codes = []string{"004213"}
	f.issue(t, "z@x.com")

	_, err := f.verify("z@x.com", "4213")
	requireReason(t, err, goerror.ReasonOTPMismatch, http.StatusBadRequest)

	_, err = f.verify("z@x.com", "004213")
	assert.NoError(t, err)
}

func TestVerifyOTP_MissingFields(t *testing.T) {
	f := newFixture(t, syncDelivery)

	for _, in := range []VerifyOTPInput{{}, {Email: "a@x.com"}, {OTP: "123456"}} {
		_, err := f.uc.VerifyOTP(context.Background(), in)

		gerr := requireReason(t, err, goerror.ReasonInvalidInput, http.StatusBadRequest)
		assert.Equal(t, "Email and OTP are required", gerr.Msg())
	}
}

func TestVerifyOTP_Expired(t *testing.T) {
	f := newFixture(t, syncDelivery)
	f.issue(t, "a@x.com")

	f.clock.Advance(6 * time.Minute)
	_, err := f.verify("a@x.com", "123456")

	gerr := requireReason(t, err, goerror.ReasonOTPExpired, http.StatusBadRequest)
	assert.Equal(t, "OTP has expired. Please request a new one.", gerr.Msg())

	_, err = f.verify("a@x.com", "123456")
	requireReason(t, err, goerror.ReasonOTPNotFound, http.StatusBadRequest)
}

func TestVerifyOTP_ExactExpiryStillValid(t *testing.T) {
	f := newFixture(t, syncDelivery)
	f.issue(t, "a@x.com")

	f.clock.Advance(5 * time.Minute)
	_, err := f.verify("a@x.com", "123456")
	assert.NoError(t, err)
}

func TestVerifyOTP_SweepsOtherRecords(t *testing.T) {
	f := newFixture(t, syncDelivery)
	f.issue(t, "old@x.com")
	f.clock.Advance(4 * time.Minute)
	f.issue(t, "new@x.com")
	f.clock.Advance(2 * time.Minute)

	_, err := f.verify("new@x.com", "000000")
	requireReason(t, err, goerror.ReasonOTPMismatch, http.StatusBadRequest)

	_, err = f.store.Get(context.Background(), "old@x.com")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestVerifyOTP_TooManyAttempts(t *testing.T) {
	// Arrange
	f := newFixture(t, syncDelivery)
	f.issue(t, "b@x.com")

	wantMsgs := []string{
		"Invalid OTP. 2 attempts remaining.",
		"Invalid OTP. 1 attempt remaining.",
		"Invalid OTP. 0 attempts remaining.",
	}

	// Act & Assert
	for i, want := range wantMsgs {
		_, err := f.verify("b@x.com", "000000")
		gerr := requireReason(t, err, goerror.ReasonOTPMismatch, http.StatusBadRequest)
		assert.Equal(t, want, gerr.Msg())

		left, ok := gerr.Detail(goerror.DetailAttemptsRemaining)
		require.True(t, ok)
		assert.Equal(t, 2-i, left)
	}

	_, err := f.verify("b@x.com", "123456")
	gerr := requireReason(t, err, goerror.ReasonTooManyAttempts, http.StatusBadRequest)
	assert.Equal(t, "Too many failed attempts. Please request a new OTP.", gerr.Msg())

	_, err = f.verify("b@x.com", "123456")
	requireReason(t, err, goerror.ReasonOTPNotFound, http.StatusBadRequest)
}

func TestVerifyOTP_ConcurrentWrongCodesKeepCap(t *testing.T) {
	f := newFixture(t, syncDelivery)
	f.issue(t, "race@x.com")

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		mismatches int
	)
	for range 10 {
		wg.Go(func() {
			_, err := f.verify("race@x.com", "000000")
			if gerr, ok := goerror.As(err); ok && gerr.Reason() == goerror.ReasonOTPMismatch {
				mu.Lock()
				mismatches++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 3, mismatches)
}

func TestVerifyOTP_InternalErrors(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		setup func(f *fixture)
	}{
		{name: "store get", code: "123456", setup: func(f *fixture) { f.store.getErr = errors.New("boom") }},
		{name: "persist attempts", code: "000000", setup: func(f *fixture) { f.store.putErr = errors.New("boom") }},
		{name: "consume", code: "123456", setup: func(f *fixture) { f.store.deleteErr = errors.New("boom") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, syncDelivery)
			f.issue(t, "a@x.com")
			tt.setup(f)

			out, err := f.verify("a@x.com", tt.code)

			assert.Nil(t, out)
			requireReason(t, err, goerror.ReasonInternal, http.StatusInternalServerError)
		})
	}
}

func TestMismatchMessage(t *testing.T) {
	assert.Equal(t, "Invalid OTP. 1 attempt remaining.", mismatchMessage(1))
	assert.Equal(t, "Invalid OTP. 0 attempts remaining.", mismatchMessage(0))
	assert.Equal(t, "Invalid OTP. 5 attempts remaining.", mismatchMessage(5))
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "5 minutes", humanDuration(5*time.Minute))
	assert.Equal(t, "1 minute", humanDuration(time.Minute))
	assert.Equal(t, "90 seconds", humanDuration(90*time.Second))
}
