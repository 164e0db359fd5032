package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/safex/internal/mfa/entity"
	"github.com/shandysiswandi/safex/internal/mfa/outbound/memory"
	"github.com/shandysiswandi/safex/internal/pkg/clock"
	"github.com/shandysiswandi/safex/internal/pkg/config"
	"github.com/shandysiswandi/safex/internal/pkg/goerror"
	"github.com/shandysiswandi/safex/internal/pkg/goroutine"
	"github.com/shandysiswandi/safex/internal/pkg/hash"
	"github.com/shandysiswandi/safex/internal/pkg/idempotency"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"github.com/shandysiswandi/safex/internal/pkg/jwt"
	"github.com/shandysiswandi/safex/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

const baseConfig = `
app:
  env: production
modules:
  mfa:
    enabled: true
    default_enabled: true
    session_duration: 24 hours
    otp:
      ttl_seconds: 180
      max_attempts: 3
      lock_minutes: 15
      verified_ttl_seconds: 120
    delivery:
      destination: "+6281234567"
      timeout_seconds: 2
`

type fakeDirectory struct {
	subjects map[string]entity.Subject
	err      error
}

func (f *fakeDirectory) GetSubject(_ context.Context, id string) (*entity.Subject, error) {
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.subjects[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &sub, nil
}

type fakeDelivery struct {
	mu   sync.Mutex
	err  error
	sent []entity.Delivery
	// during runs while the send is in flight.
	during func()
}

func (f *fakeDelivery) SendCode(_ context.Context, d entity.Delivery) error {
	if f.during != nil {
		f.during()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, d)
	return nil
}

func (f *fakeDelivery) last() entity.Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakePublisher struct {
	mu     sync.Mutex
	events []entity.AuditEvent
}

func (f *fakePublisher) PublishAudit(_ context.Context, ev entity.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) actions() []entity.AuditAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.AuditAction, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Action)
	}
	return out
}

type sequenceOTP struct {
	mu    sync.Mutex
	codes []string
	i     int
}

func (g *sequenceOTP) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.codes) == 0 {
		return "", errors.New("no codes")
	}
	c := g.codes[g.i%len(g.codes)]
	g.i++
	return c, nil
}

type harness struct {
	uc        *Usecase
	store     *memory.Store
	clock     *clock.Manual
	delivery  *fakeDelivery
	directory *fakeDirectory
	publisher *fakePublisher
	manager   *goroutine.Manager
	start     time.Time
}

func newHarness(t *testing.T, yaml string, codes ...string) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	if len(codes) == 0 {
		codes = []string{"482913"}
	}

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	h := &harness{
		store:    memory.NewStore(),
		clock:    clock.NewManual(start),
		delivery: &fakeDelivery{},
		directory: &fakeDirectory{subjects: map[string]entity.Subject{
			"user-1": {ID: "user-1", Email: "ana@safex.test", Name: "Ana"},
		}},
		publisher: &fakePublisher{},
		manager:   goroutine.NewManager(64),
		start:     start,
	}

	h.uc = New(Dependency{
		RepoDB:        h.directory,
		RepoDelivery:  h.delivery,
		RepoMessaging: h.publisher,
		Store:         h.store,
		Idempotency:   idempotency.NewDisabled(),
		Validator:     v,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256("test-secret"),
		OTP:           &sequenceOTP{codes: codes},
		Clock:         h.clock,
		Instrument:    instrument.NewNoop(),
		Goroutine:     h.manager,
	})

	return h
}

// at moves the clock to start+d.
func (h *harness) at(d time.Duration) {
	h.clock.Set(h.start.Add(d))
}

// drain waits for background audit publishing.
func (h *harness) drain(t *testing.T) {
	t.Helper()
	require.NoError(t, h.manager.Wait())
}

func authCtx(subject string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: libJWT.RegisteredClaims{Subject: subject},
		Email:            "token@safex.test",
	})
}

func gerrOf(t *testing.T, err error) *goerror.Error {
	t.Helper()
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	return gerr
}
