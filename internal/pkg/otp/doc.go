// Package otp generates numeric one-time codes.
//
// Codes are drawn uniformly from crypto/rand over the full range for the
// configured length and rendered zero padded, so "000042" is as likely as
// "999999".
package otp
