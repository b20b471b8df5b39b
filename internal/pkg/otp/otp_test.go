package otp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pquerna/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestNumeric_Generate(t *testing.T) {
	g := NewNumeric(otp.DigitsSix)
	assert.Equal(t, 6, g.Length())

	seen := make(map[string]struct{})
	for range 200 {
		code, err := g.Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', code)
		}
		seen[code] = struct{}{}
	}

	assert.Greater(t, len(seen), 190)
}

func TestNumeric_ZeroPadded(t *testing.T) {
	g := NewNumeric(otp.DigitsSix)
	g.rand = bytes.NewReader(make([]byte, 64))

	code, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, "000000", code)
}

func TestNumeric_FallbackDigits(t *testing.T) {
	assert.Equal(t, 6, NewNumeric(otp.Digits(4)).Length())
	assert.Equal(t, 8, NewNumeric(otp.DigitsEight).Length())
}

func TestNumeric_RandFailure(t *testing.T) {
	g := NewNumeric(otp.DigitsSix)
	g.rand = failingReader{}

	_, err := g.Generate()
	assert.Error(t, err)
}
