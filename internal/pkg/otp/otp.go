package otp

import (
	"crypto/rand"
	"io"
	"math"
	"math/big"

	"github.com/pquerna/otp"
)

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// Numeric generates fixed-length decimal codes.
type Numeric struct {
	digits otp.Digits
	max    *big.Int
	rand   io.Reader
}

// NewNumeric constructs a Numeric generator. Only 6 and 8 digit codes are
// supported; anything else falls back to 6.
func NewNumeric(digits otp.Digits) *Numeric {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	return &Numeric{
		digits: digits,
		max:    big.NewInt(int64(math.Pow10(digits.Length()))),
		rand:   rand.Reader,
	}
}

// Length returns the number of digits in generated codes.
func (n *Numeric) Length() int {
	return n.digits.Length()
}

// Generate returns a uniformly random code, zero padded to Length digits.
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(n.rand, n.max)
	if err != nil {
		return "", err
	}

	return n.digits.Format(int32(v.Int64())), nil
}
