package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrClosed is returned by Flow methods after Close.
	ErrClosed = errors.New("client: flow closed")
	// ErrInvalidTransition is returned when an action is not allowed in the current state.
	ErrInvalidTransition = errors.New("client: action not allowed in current state")
)

// Kind classifies failures reported to the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindRateLimited
	KindNotFound
	KindExpired
	KindTooManyAttempts
	KindMismatch
	KindDeliveryFailure
	KindUnauthorized
	KindConflict
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindRateLimited:
		return "RateLimited"
	case KindNotFound:
		return "NotFound"
	case KindExpired:
		return "Expired"
	case KindTooManyAttempts:
		return "TooManyAttempts"
	case KindMismatch:
		return "Mismatch"
	case KindDeliveryFailure:
		return "DeliveryFailure"
	case KindUnauthorized:
		return "Unauthorized"
	case KindConflict:
		return "Conflict"
	case KindTransport:
		return "Transport"
	default:
		return "Internal"
	}
}

// Error is a failure returned by the server or the transport.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	// CooldownRemaining is set for KindRateLimited.
	CooldownRemaining int
	// AttemptsRemaining is set for KindMismatch.
	AttemptsRemaining int

	cause error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: %s", e.Kind)
	}
	return fmt.Sprintf("client: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// UserMessage is the text shown to the person filling in the form.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindInvalidInput:
		if e.Message != "" {
			return e.Message
		}
		return "Please check the email address and code."
	case KindRateLimited:
		if e.CooldownRemaining == 1 {
			return "Please wait 1 second before requesting a new code."
		}
		return fmt.Sprintf("Please wait %d seconds before requesting a new code.", e.CooldownRemaining)
	case KindNotFound:
		return "No code found for this email. Please request a new one."
	case KindExpired:
		return "Your code has expired. Please request a new one."
	case KindTooManyAttempts:
		return "Too many failed attempts. Please request a new code."
	case KindMismatch:
		if e.AttemptsRemaining == 1 {
			return "Invalid code. 1 attempt remaining."
		}
		return fmt.Sprintf("Invalid code. %d attempts remaining.", e.AttemptsRemaining)
	case KindDeliveryFailure:
		return "We could not send the code. Please try again."
	case KindUnauthorized:
		return "Your verification is no longer valid. Please verify your email again."
	case KindConflict:
		return "This verification was already used. Please verify your email again."
	case KindTransport:
		return "Network error. Please check your connection and try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func kindFromReason(reason string, status int) Kind {
	switch reason {
	case "INVALID_INPUT":
		return KindInvalidInput
	case "COOLDOWN_ACTIVE", "RATE_LIMITED":
		return KindRateLimited
	case "OTP_NOT_FOUND":
		return KindNotFound
	case "OTP_EXPIRED":
		return KindExpired
	case "OTP_TOO_MANY_ATTEMPTS":
		return KindTooManyAttempts
	case "OTP_MISMATCH":
		return KindMismatch
	case "DELIVERY_FAILURE":
		return KindDeliveryFailure
	case "INVALID_CREDENTIAL":
		return KindUnauthorized
	case "CREDENTIAL_USED":
		return KindConflict
	}

	switch status {
	case http.StatusBadRequest:
		return KindInvalidInput
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusConflict:
		return KindConflict
	default:
		return KindInternal
	}
}
