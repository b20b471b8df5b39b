package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string `json:"email" validate:"required,mailbox"`
	OTP   string `json:"otp" validate:"omitempty,otpcode"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		in        sample
		wantField string
	}{
		{name: "valid", in: sample{Email: "a@b.co", OTP: "012345"}},
		{name: "valid without otp", in: sample{Email: "first.last@sub.example.org"}},
		{name: "missing email", in: sample{}, wantField: "email"},
		{name: "no at sign", in: sample{Email: "plainaddress"}, wantField: "email"},
		{name: "no dot in domain", in: sample{Email: "a@localhost"}, wantField: "email"},
		{name: "whitespace", in: sample{Email: "a b@c.de"}, wantField: "email"},
		{name: "short otp", in: sample{Email: "a@b.co", OTP: "12345"}, wantField: "otp"},
		{name: "alpha otp", in: sample{Email: "a@b.co", OTP: "12a456"}, wantField: "otp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var verr V10ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields(), tt.wantField)
		})
	}
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Email":             "email",
		"OTP":               "otp",
		"VerificationToken": "verification_token",
		"CredentialID":      "credential_id",
		"HTTPCode":          "http_code",
		"Line2Address":      "line2_address",
		"":                  "",
	}

	for in, want := range tests {
		assert.Equal(t, want, snakeCase(in), in)
	}
}
