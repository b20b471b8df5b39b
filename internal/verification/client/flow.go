package client

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/contactgate/internal/pkg/clock"
)

// State is the position of the flow in the verification handshake.
type State int

const (
	StateIdle State = iota
	StateOtpSending
	StateOtpSent
	StateVerifying
	StateVerified
)

func (s State) String() string {
	switch s {
	case StateOtpSending:
		return "OtpSending"
	case StateOtpSent:
		return "OtpSent"
	case StateVerifying:
		return "Verifying"
	case StateVerified:
		return "Verified"
	default:
		return "Idle"
	}
}

const (
	defaultExpiry   = 300
	defaultCooldown = 60
)

// Service is the server side of the handshake. *Client implements it.
type Service interface {
	IssueOTP(ctx context.Context, email string) (*IssueResult, error)
	VerifyOTP(ctx context.Context, email, code string) (*VerifyResult, error)
}

// Snapshot is a consistent copy of the flow state.
type Snapshot struct {
	State      State
	Email      string
	Code       string
	Credential string
	// ExpiresIn and Cooldown are whole seconds left on each countdown.
	ExpiresIn int
	Cooldown  int
	Err       *Error
	Message   string
}

// CanSend reports whether Send is currently allowed.
func (s Snapshot) CanSend() bool {
	if s.Email == "" || s.Cooldown > 0 {
		return false
	}
	return s.State == StateIdle || s.State == StateOtpSent
}

// CanSubmit reports whether the gated form may be submitted.
func (s Snapshot) CanSubmit() bool {
	return s.State == StateVerified && s.Credential != ""
}

// Flow drives send, wait, verify and submit for a single form.
// It is safe for concurrent use.
type Flow struct {
	svc       Service
	newTicker clock.TickerFactory
	cooldown  int
	onChange  func(Snapshot)

	mu         sync.Mutex
	state      State
	email      string
	code       string
	credential string
	expiresIn  int
	cooldownIn int
	lastErr    *Error
	notice     string
	gen        uint64
	tickStop   chan struct{}
	closed     bool
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithTickerFactory replaces the real one second ticker.
func WithTickerFactory(f clock.TickerFactory) FlowOption {
	return func(fl *Flow) { fl.newTicker = f }
}

// WithCooldown sets the resend cooldown started after a successful send.
func WithCooldown(d time.Duration) FlowOption {
	return func(fl *Flow) { fl.cooldown = clock.SecondsCeil(d) }
}

// WithOnChange registers a callback invoked with every new snapshot.
// It runs outside the flow lock.
func WithOnChange(fn func(Snapshot)) FlowOption {
	return func(fl *Flow) { fl.onChange = fn }
}

// NewFlow returns an idle flow backed by svc.
func NewFlow(svc Service, opts ...FlowOption) *Flow {
	f := &Flow{
		svc:       svc,
		newTicker: clock.NewTicker,
		cooldown:  defaultCooldown,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Snapshot returns the current state.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Flow) snapshotLocked() Snapshot {
	s := Snapshot{
		State:      f.state,
		Email:      f.email,
		Code:       f.code,
		Credential: f.credential,
		ExpiresIn:  f.expiresIn,
		Cooldown:   f.cooldownIn,
		Err:        f.lastErr,
		Message:    f.notice,
	}
	if f.lastErr != nil {
		s.Message = f.lastErr.UserMessage()
	}
	return s
}

// unlockAndNotify releases the lock and publishes the snapshot taken under it.
func (f *Flow) unlockAndNotify() {
	s := f.snapshotLocked()
	f.mu.Unlock()
	if f.onChange != nil {
		f.onChange(s)
	}
}

// SetEmail changes the target address. Any change resets the flow to Idle,
// discarding the credential and stopping the countdowns.
func (f *Flow) SetEmail(email string) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if email == f.email {
		f.mu.Unlock()
		return nil
	}

	f.email = email
	f.resetLocked()
	f.unlockAndNotify()
	return nil
}

// SetCode stores the code typed by the user.
func (f *Flow) SetCode(code string) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	f.code = code
	f.unlockAndNotify()
	return nil
}

// Send requests a code for the current email.
func (f *Flow) Send(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if !f.snapshotLocked().CanSend() {
		f.mu.Unlock()
		return ErrInvalidTransition
	}

	prev := f.state
	email := f.email
	gen := f.gen
	f.state = StateOtpSending
	f.lastErr = nil
	f.notice = ""
	f.unlockAndNotify()

	res, err := f.svc.IssueOTP(ctx, email)

	f.mu.Lock()
	if f.closed || f.gen != gen {
		f.mu.Unlock()
		return err
	}

	if err != nil {
		f.state = prev
		if prev == StateOtpSent && f.expiresIn == 0 {
			f.state = StateIdle
			f.code = ""
		}
		f.lastErr = toError(err)
		if f.lastErr.Kind == KindRateLimited && f.lastErr.CooldownRemaining > 0 {
			f.cooldownIn = f.lastErr.CooldownRemaining
			f.startTickingLocked()
		}
		f.unlockAndNotify()
		return err
	}

	expires := res.ExpiresIn
	if expires <= 0 {
		expires = defaultExpiry
	}
	f.state = StateOtpSent
	f.code = ""
	f.expiresIn = expires
	f.cooldownIn = f.cooldown
	f.notice = res.Message
	f.startTickingLocked()
	f.unlockAndNotify()
	return nil
}

// Verify submits the entered code.
func (f *Flow) Verify(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.state != StateOtpSent || f.code == "" {
		f.mu.Unlock()
		return ErrInvalidTransition
	}

	email, code, gen := f.email, f.code, f.gen
	f.state = StateVerifying
	f.lastErr = nil
	f.notice = ""
	f.unlockAndNotify()

	res, err := f.svc.VerifyOTP(ctx, email, code)

	f.mu.Lock()
	if f.closed || f.gen != gen {
		f.mu.Unlock()
		return err
	}

	if err != nil {
		f.lastErr = toError(err)
		if f.expiresIn == 0 {
			f.state = StateIdle
			f.code = ""
		} else {
			f.state = StateOtpSent
		}
		f.unlockAndNotify()
		return err
	}

	f.state = StateVerified
	f.credential = res.VerificationToken
	f.notice = res.Message
	f.expiresIn = 0
	f.cooldownIn = 0
	f.stopTickingLocked()
	f.unlockAndNotify()
	return nil
}

// Submit hands the credential to fn. On success the flow returns to Idle.
func (f *Flow) Submit(ctx context.Context, fn func(ctx context.Context, email, credential string) error) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.state != StateVerified {
		f.mu.Unlock()
		return ErrInvalidTransition
	}
	email, cred, gen := f.email, f.credential, f.gen
	f.mu.Unlock()

	if err := fn(ctx, email, cred); err != nil {
		f.mu.Lock()
		if !f.closed && f.gen == gen {
			f.lastErr = toError(err)
			// a rejected credential cannot be reused
			if k := f.lastErr.Kind; k == KindUnauthorized || k == KindConflict {
				f.resetLocked()
				f.lastErr = toError(err)
			}
		}
		f.unlockAndNotify()
		return err
	}

	f.mu.Lock()
	if !f.closed && f.gen == gen {
		f.resetLocked()
	}
	f.unlockAndNotify()
	return nil
}

// Close stops the countdowns. The flow rejects every call afterwards.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.stopTickingLocked()
}

func (f *Flow) resetLocked() {
	f.gen++
	f.state = StateIdle
	f.code = ""
	f.credential = ""
	f.expiresIn = 0
	f.cooldownIn = 0
	f.lastErr = nil
	f.notice = ""
	f.stopTickingLocked()
}

func (f *Flow) startTickingLocked() {
	if f.tickStop != nil {
		return
	}
	stop := make(chan struct{})
	f.tickStop = stop
	go f.run(f.newTicker(time.Second), stop)
}

func (f *Flow) stopTickingLocked() {
	if f.tickStop == nil {
		return
	}
	close(f.tickStop)
	f.tickStop = nil
}

func (f *Flow) run(t clock.Ticker, stop chan struct{}) {
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			if !f.tick(stop) {
				return
			}
		}
	}
}

// tick advances both countdowns by one second. It reports whether the
// ticker should keep running.
func (f *Flow) tick(stop chan struct{}) bool {
	f.mu.Lock()
	if f.closed || f.tickStop != stop {
		f.mu.Unlock()
		return false
	}

	if f.cooldownIn > 0 {
		f.cooldownIn--
	}
	if f.expiresIn > 0 {
		f.expiresIn--
		if f.expiresIn == 0 && f.state == StateOtpSent {
			f.state = StateIdle
			f.code = ""
		}
	}

	running := f.cooldownIn > 0 || f.expiresIn > 0
	if !running {
		f.tickStop = nil
	}
	f.unlockAndNotify()
	return running
}

func toError(err error) *Error {
	if e, ok := AsError(err); ok {
		return e
	}
	return &Error{Kind: KindInternal, Message: err.Error(), cause: err}
}
