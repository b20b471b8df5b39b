package entity

import "time"

// Message is a contact form submission from a verified email address.
type Message struct {
	ID    int64
	Name  string
	Email string
	Body  string
	// CredentialID is the jti of the verification credential that unlocked
	// the submission.
	CredentialID string
	CreatedAt    time.Time
}
