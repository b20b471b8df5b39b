package entity

import "time"

// OTPRecord is the live passcode state for one email address.
type OTPRecord struct {
	Email string `json:"email"`
	// CodeHash is the keyed digest of (email, code). The plain code is never stored.
	CodeHash  string    `json:"code_hash"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

// Expired reports whether the record is past its expiry at now.
func (r *OTPRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// CooldownLeft is the remaining wait before a new code may be issued.
// It is zero or negative once the cooldown has passed.
func (r *OTPRecord) CooldownLeft(now time.Time, cooldown time.Duration) time.Duration {
	return cooldown - now.Sub(r.IssuedAt)
}

// AttemptsRemaining is how many wrong codes the record can still absorb.
func (r *OTPRecord) AttemptsRemaining(maxAttempts int) int {
	return max(maxAttempts-r.Attempts, 0)
}

// Credential is the proof handed out after a successful verification.
type Credential struct {
	Token     string
	ID        string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
