package goerror

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
)

var (
	// ErrNotFound indicates that the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates that the request could not be completed due to a conflict.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	// TypeServer represents server-side failures.
	TypeServer Type = iota
	// TypeBusiness represents business rule violations.
	TypeBusiness
	// TypeValidation represents input validation failures.
	TypeValidation
)

// String returns the string representation of the error type.
func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier used for mapping errors to HTTP status codes.
type Code int

const (
	// CodeInternal represents an internal or unspecified error.
	CodeInternal Code = iota
	// CodeInvalidFormat indicates invalid request format.
	CodeInvalidFormat
	// CodeInvalidInput indicates invalid request input.
	CodeInvalidInput
	// CodeRejected indicates a well-formed request that was refused by a
	// business gate (expired code, wrong code, exhausted attempts).
	CodeRejected
	// CodeNotFound indicates a missing resource.
	CodeNotFound
	// CodeConflict indicates a conflict (e.g., duplicate).
	CodeConflict
	// CodeTooManyRequest indicates rate limiting.
	CodeTooManyRequest
	// CodeUnauthorized indicates authentication failure.
	CodeUnauthorized
	// CodeTimeout indicates a timeout.
	CodeTimeout
)

// String returns the string representation of the error code.
func (c Code) String() string {
	switch c {
	case CodeInvalidFormat:
		return "ERROR_CODE_INVALID_FORMAT"
	case CodeInvalidInput:
		return "ERROR_CODE_INVALID_INPUT"
	case CodeRejected:
		return "ERROR_CODE_REJECTED"
	case CodeNotFound:
		return "ERROR_CODE_NOT_FOUND"
	case CodeConflict:
		return "ERROR_CODE_CONFLICT"
	case CodeTooManyRequest:
		return "ERROR_CODE_TOO_MANY_REQUESTS"
	case CodeUnauthorized:
		return "ERROR_CODE_UNAUTHORIZED"
	case CodeTimeout:
		return "ERROR_CODE_TIMEOUT"
	default:
		return "ERROR_CODE_INTERNAL"
	}
}

// Reason is the machine-readable failure kind exposed to API clients.
type Reason string

const (
	ReasonInvalidInput      Reason = "INVALID_INPUT"
	ReasonCooldownActive    Reason = "COOLDOWN_ACTIVE"
	ReasonOTPNotFound       Reason = "OTP_NOT_FOUND"
	ReasonOTPExpired        Reason = "OTP_EXPIRED"
	ReasonTooManyAttempts   Reason = "OTP_TOO_MANY_ATTEMPTS"
	ReasonOTPMismatch       Reason = "OTP_MISMATCH"
	ReasonDeliveryFailure   Reason = "DELIVERY_FAILURE"
	ReasonInvalidCredential Reason = "INVALID_CREDENTIAL"
	ReasonCredentialUsed    Reason = "CREDENTIAL_USED"
	ReasonRateLimited       Reason = "RATE_LIMITED"
	ReasonMaintenance       Reason = "MAINTENANCE"
	ReasonInternal          Reason = "INTERNAL"
)

// Numeric detail keys exposed next to the error message.
const (
	// DetailCooldownRemaining is the number of seconds to wait before retrying.
	DetailCooldownRemaining = "cooldownRemaining"
	// DetailAttemptsRemaining is the number of verification tries left.
	DetailAttemptsRemaining = "attemptsRemaining"
)

// Error is a structured error used across the application.
//
// It can wrap an underlying error while also carrying a user-facing message,
// a high-level type, a stable error code, a client-facing reason and numeric
// details such as remaining cooldown seconds.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	reason  Reason
	fields  map[string]string
	details map[string]int
}

// Option customizes an Error at construction time.
type Option func(*Error)

// WithReason overrides the reason derived from the error code.
func WithReason(r Reason) Option {
	return func(e *Error) { e.reason = r }
}

// WithDetail attaches a numeric detail (e.g. cooldownRemaining) to the error.
func WithDetail(key string, value int) Option {
	return func(e *Error) {
		if e.details == nil {
			e.details = make(map[string]int)
		}
		e.details[key] = value
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}

	if e.msg != "" {
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	case TypeServer:
		return "Internal error"
	default:
		return "Unknown error"
	}
}

// String returns a verbose representation of the error for debugging/logging.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Code: %s, Reason: %s, Message: %s, Underlying Error: %v",
		e.errType.String(),
		e.code.String(),
		e.Reason(),
		e.msg,
		e.err,
	)
}

// Msg returns the user-facing error message, if set.
func (e *Error) Msg() string {
	return e.msg
}

// Type returns the high-level error type.
func (e *Error) Type() Type {
	return e.errType
}

// Code returns the stable error code.
func (e *Error) Code() Code {
	return e.code
}

// Reason returns the client-facing failure kind.
func (e *Error) Reason() Reason {
	if e.reason != "" {
		return e.reason
	}

	switch e.code {
	case CodeInvalidFormat, CodeInvalidInput:
		return ReasonInvalidInput
	case CodeTooManyRequest:
		return ReasonRateLimited
	case CodeUnauthorized:
		return ReasonInvalidCredential
	case CodeConflict:
		return ReasonCredentialUsed
	default:
		return ReasonInternal
	}
}

// Fields returns validation errors (field to message map), if any.
func (e *Error) Fields() map[string]string {
	return e.fields
}

// Details returns a copy of the numeric details attached to the error.
func (e *Error) Details() map[string]int {
	if len(e.details) == 0 {
		return nil
	}
	return maps.Clone(e.details)
}

// Detail returns a single numeric detail.
func (e *Error) Detail(key string) (int, bool) {
	v, ok := e.details[key]
	return v, ok
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.err
}

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int {
	switch e.code {
	case CodeInvalidFormat, CodeInvalidInput, CodeRejected:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeTimeout:
		return http.StatusRequestTimeout
	case CodeTooManyRequest:
		return http.StatusTooManyRequests
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func newError(err error, msg string, et Type, code Code, opts ...Option) error {
	e := &Error{err: err, msg: msg, errType: et, code: code}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewServer creates a server-type error with the provided error.
func NewServer(err error, opts ...Option) error {
	return newError(err, "Internal server error", TypeServer, CodeInternal, opts...)
}

// NewServerMsg creates a server-type error that carries a specific message.
func NewServerMsg(err error, msg string, opts ...Option) error {
	return newError(err, msg, TypeServer, CodeInternal, opts...)
}

// NewBusiness creates a business-type error with the specified message and code.
func NewBusiness(msg string, code Code, opts ...Option) error {
	return newError(nil, msg, TypeBusiness, code, opts...)
}

// NewInvalidInput creates a validation error. When err is set the message is
// taken from msg (or a generic text) and err is kept as the cause; otherwise
// kv pairs become field messages.
func NewInvalidInput(msg string, err error, kv ...string) error {
	if msg == "" {
		msg = "Validation error"
	}

	e := &Error{err: err, msg: msg, errType: TypeValidation, code: CodeInvalidInput}
	if err != nil {
		var fe interface{ Fields() map[string]string }
		if errors.As(err, &fe) {
			e.fields = fe.Fields()
		}
		return e
	}

	if len(kv)%2 != 0 {
		return newError(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}

	for i := 0; i+1 < len(kv); i += 2 {
		if e.fields == nil {
			e.fields = make(map[string]string)
		}
		e.fields[kv[i]] = kv[i+1]
	}

	return e
}

// NewInvalidFormat creates a validation error for an invalid request body format.
func NewInvalidFormat(msgs ...string) error {
	if len(msgs) == 0 {
		return newError(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}
	return newError(nil, msgs[0], TypeValidation, CodeInvalidFormat)
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
