// Package mail defines the contracts for sending email messages.
//
// Use cases build a provider agnostic Message and hand it to a Mail. The SMTP
// implementation is backed by gomail; the log implementation only writes the
// envelope to slog and is meant for local development.
package mail
