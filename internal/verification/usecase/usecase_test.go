package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/contactgate/internal/pkg/config"
	"github.com/shandysiswandi/contactgate/internal/pkg/goerror"
	"github.com/shandysiswandi/contactgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/contactgate/internal/pkg/hash"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/shandysiswandi/contactgate/internal/pkg/jwt"
	"github.com/shandysiswandi/contactgate/internal/pkg/mail"
	"github.com/shandysiswandi/contactgate/internal/pkg/validator"
	"github.com/shandysiswandi/contactgate/internal/verification/entity"
	"github.com/shandysiswandi/contactgate/internal/verification/outbound/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type seqCodes struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (g *seqCodes) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil {
		return "", g.err
	}
	if len(g.codes) == 0 {
		return "123456", nil
	}
	c := g.codes[0]
	g.codes = g.codes[1:]
	return c, nil
}

type fakeMail struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMail) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMail) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type seqID struct {
	mu sync.Mutex
	n  int
}

func (s *seqID) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

type brokenStore struct {
	*store.Memory
	getErr    error
	putErr    error
	deleteErr error
	sweepErr  error
}

func (b *brokenStore) Get(ctx context.Context, email string) (*entity.OTPRecord, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	return b.Memory.Get(ctx, email)
}

func (b *brokenStore) Put(ctx context.Context, rec entity.OTPRecord) error {
	if b.putErr != nil {
		return b.putErr
	}
	return b.Memory.Put(ctx, rec)
}

func (b *brokenStore) Delete(ctx context.Context, email string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	return b.Memory.Delete(ctx, email)
}

func (b *brokenStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	if b.sweepErr != nil {
		return 0, b.sweepErr
	}
	return b.Memory.SweepExpired(ctx, now)
}

type fixture struct {
	uc      *Usecase
	clock   *fakeClock
	codes   *seqCodes
	mail    *fakeMail
	store   *brokenStore
	jwt     *jwt.Symmetric
	routine *goroutine.Manager
}

func newFixture(t *testing.T, yaml string) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	hm, err := hash.NewHMACSHA256(testSecret)
	require.NoError(t, err)

	clk := &fakeClock{now: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)}
	ins := instrument.NewNoop()

	tokens, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(testSecret),
		Issuer:    "contactgate",
		Audiences: []string{"contact"},
		TTL:       30 * time.Minute,
		Clock:     clk,
		UUID:      &seqID{},
	})
	require.NoError(t, err)

	f := &fixture{
		clock:   clk,
		codes:   &seqCodes{},
		mail:    &fakeMail{},
		store:   &brokenStore{Memory: store.NewMemory(ins)},
		jwt:     tokens,
		routine: goroutine.NewManager(4),
	}

	f.uc = New(Dependency{
		Store:      f.store,
		RepoMail:   f.mail,
		Validator:  v,
		Config:     cfg,
		HMAC:       hm,
		OTP:        f.codes,
		Clock:      clk,
		JWT:        tokens,
		Instrument: ins,
		Goroutine:  f.routine,
	})

	return f
}

const syncDelivery = `
modules:
  verification:
    delivery:
      async: false
`

func requireReason(t *testing.T, err error, reason goerror.Reason, status int) *goerror.Error {
	t.Helper()

	gerr, ok := goerror.As(err)
	require.True(t, ok, "expected goerror, got %v", err)
	assert.Equal(t, reason, gerr.Reason())
	assert.Equal(t, status, gerr.StatusCode())
	return gerr
}

func (f *fixture) issue(t *testing.T, email string) {
	t.Helper()
	_, err := f.uc.IssueOTP(context.Background(), IssueOTPInput{Email: email})
	require.NoError(t, err)
}

func (f *fixture) verify(email, code string) (*VerifyOTPOutput, error) {
	return f.uc.VerifyOTP(context.Background(), VerifyOTPInput{Email: email, OTP: code})
}

func TestLock_Disabled(t *testing.T) {
	f := newFixture(t, `
modules:
  verification:
    serialize_per_email: false
`)

	unlock := f.uc.lock("a@x.com")
	again := f.uc.lock("a@x.com")
	unlock()
	again()
}

func TestSweep_ErrorIsNotFatal(t *testing.T) {
	f := newFixture(t, syncDelivery)
	f.store.sweepErr = errors.New("scan failed")

	f.issue(t, "a@x.com")
	out, err := f.verify("a@x.com", "123456")
	require.NoError(t, err)
	assert.NotEmpty(t, out.VerificationToken)
}
