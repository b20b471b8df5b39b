// Package client drives the OTP verification handshake from the caller side:
// an HTTP client for the endpoints and a Flow state machine with countdowns.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// IssueResult is the server answer to a successful issuance.
type IssueResult struct {
	Message   string
	ExpiresIn int
}

// VerifyResult carries the verification credential.
type VerifyResult struct {
	Message           string
	VerificationToken string
}

// ContactMessage is the gated form payload.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// SubmitResult is returned after the message was accepted.
type SubmitResult struct {
	Message string
	ID      string
}

// Client calls the verification and contact endpoints.
type Client struct {
	baseURL     string
	http        *http.Client
	maxRetries  uint64
	backoffBase time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry sets how many times a request that never reached the server is
// retried, and the first backoff step.
func WithRetry(maxRetries uint64, base time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.backoffBase = base
	}
}

// New returns a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: 10 * time.Second},
		maxRetries:  3,
		backoffBase: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.backoffBase <= 0 {
		c.backoffBase = 200 * time.Millisecond
	}
	return c
}

// IssueOTP asks the server to email a code.
func (c *Client) IssueOTP(ctx context.Context, email string) (*IssueResult, error) {
	var out struct {
		Message   string `json:"message"`
		ExpiresIn int    `json:"expiresIn"`
	}
	if err := c.post(ctx, "/api/v1/contact/otp/issue", "", map[string]string{"email": email}, &out); err != nil {
		return nil, err
	}
	return &IssueResult{Message: out.Message, ExpiresIn: out.ExpiresIn}, nil
}

// VerifyOTP submits a code and returns the credential on success.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*VerifyResult, error) {
	var out struct {
		Message           string `json:"message"`
		VerificationToken string `json:"verificationToken"`
	}
	if err := c.post(ctx, "/api/v1/contact/otp/verify", "", map[string]string{"email": email, "otp": code}, &out); err != nil {
		return nil, err
	}
	return &VerifyResult{Message: out.Message, VerificationToken: out.VerificationToken}, nil
}

// SubmitMessage sends the contact form using a verification credential.
func (c *Client) SubmitMessage(ctx context.Context, credential string, msg ContactMessage) (*SubmitResult, error) {
	var out struct {
		Message string `json:"message"`
		ID      string `json:"id"`
	}
	if err := c.post(ctx, "/api/v1/contact/messages", credential, msg, &out); err != nil {
		return nil, err
	}
	return &SubmitResult{Message: out.Message, ID: out.ID}, nil
}

type errorPayload struct {
	Error             string `json:"error"`
	Reason            string `json:"reason"`
	CooldownRemaining int    `json:"cooldownRemaining"`
	AttemptsRemaining int    `json:"attemptsRemaining"`
}

func (c *Client) post(ctx context.Context, path, bearer string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &Error{Kind: KindInternal, cause: err}
	}

	b := retry.NewFibonacci(c.backoffBase)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithMaxRetries(c.maxRetries, b)

	var (
		status int
		raw    []byte
	)
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if notSent(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		raw, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return err
	})
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error(), cause: err}
	}

	if status >= http.StatusBadRequest {
		var p errorPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return &Error{Kind: kindFromReason("", status), Status: status, cause: err}
		}
		return &Error{
			Kind:              kindFromReason(p.Reason, status),
			Message:           p.Error,
			Status:            status,
			CooldownRemaining: p.CooldownRemaining,
			AttemptsRemaining: p.AttemptsRemaining,
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindInternal, Status: status, Message: "malformed response", cause: err}
	}
	return nil
}

// notSent reports whether err happened before the request reached the server.
// Only those are retried: issuing and verifying are not idempotent.
func notSent(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
