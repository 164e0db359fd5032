package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/safex/internal/mfa/entity"
	"github.com/shandysiswandi/safex/internal/pkg/clock"
	"github.com/shandysiswandi/safex/internal/pkg/config"
	"github.com/shandysiswandi/safex/internal/pkg/goerror"
	"github.com/shandysiswandi/safex/internal/pkg/goroutine"
	"github.com/shandysiswandi/safex/internal/pkg/hash"
	"github.com/shandysiswandi/safex/internal/pkg/idempotency"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"github.com/shandysiswandi/safex/internal/pkg/jwt"
	"github.com/shandysiswandi/safex/internal/pkg/otp"
	"github.com/shandysiswandi/safex/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const envDevelopment = "development"

type repoDB interface {
	GetSubject(ctx context.Context, id string) (*entity.Subject, error)
}

type repoDelivery interface {
	SendCode(ctx context.Context, d entity.Delivery) error
}

type repoMessaging interface {
	PublishAudit(ctx context.Context, ev entity.AuditEvent) error
}

type challengeStore interface {
	Get(subjectID string) (entity.Challenge, bool)
	Update(subjectID string, fn func(cur entity.Challenge, ok bool) (entity.Challenge, entity.StoreOp))
	DeleteIf(fn func(entity.Challenge) bool) int
	Len() int
}

type Usecase struct {
	repoDB        repoDB
	repoDelivery  repoDelivery
	repoMessaging repoMessaging
	store         challengeStore
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	otp           otp.Generator
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	issued        metric.Int64Counter
	verifications metric.Int64Counter
	swept         metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoDelivery  repoDelivery
	RepoMessaging repoMessaging
	Store         challengeStore
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	OTP           otp.Generator
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:        dep.RepoDB,
		repoDelivery:  dep.RepoDelivery,
		repoMessaging: dep.RepoMessaging,
		store:         dep.Store,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		otp:           dep.OTP,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}

	meter := s.ins.Meter("mfa.usecase")
	var err error
	if s.issued, err = meter.Int64Counter("mfa.otp.issued", metric.WithDescription("One-time codes issued")); err != nil {
		slog.Error("failed to create otp issued counter", "error", err)
	}
	if s.verifications, err = meter.Int64Counter("mfa.otp.verifications", metric.WithDescription("Verification attempts by result")); err != nil {
		slog.Error("failed to create otp verification counter", "error", err)
	}
	if s.swept, err = meter.Int64Counter("mfa.sweep.removed", metric.WithDescription("Challenges removed by the sweeper")); err != nil {
		slog.Error("failed to create sweep counter", "error", err)
	}

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("mfa.usecase").Start(ctx, name)
}

// policy is read per call so a config reload applies to the next request.
func (s *Usecase) policy() entity.Policy {
	return entity.Policy{
		CodeTTL:        s.cfg.GetSecond("modules.mfa.otp.ttl_seconds"),
		MaxAttempts:    s.cfg.GetInt("modules.mfa.otp.max_attempts"),
		LockDuration:   s.cfg.GetMinute("modules.mfa.otp.lock_minutes"),
		VerifiedTTL:    s.cfg.GetSecond("modules.mfa.otp.verified_ttl_seconds"),
		ResendInterval: s.cfg.GetSecond("modules.mfa.otp.resend_interval_seconds"),
	}.Normalize()
}

func (s *Usecase) isDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(s.cfg.GetString("app.env")), envDevelopment)
}

func (s *Usecase) deliveryTimeout() time.Duration {
	if d := s.cfg.GetSecond("modules.mfa.delivery.timeout_seconds"); d > 0 {
		return d
	}
	return 10 * time.Second
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.Subject == "" {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

// subject loads the directory profile of the authenticated caller.
func (s *Usecase) subject(ctx context.Context, clm *jwt.Claims) (*entity.Subject, error) {
	sub, err := s.repoDB.GetSubject(ctx, clm.Subject)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "subject not found in user directory", "user_id", clm.Subject)
			return nil, goerror.NewBusiness("User not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo get subject", "user_id", clm.Subject, "error", err)
		return nil, goerror.NewServer(err)
	}

	if sub.Email == "" {
		sub.Email = clm.Email
	}
	if sub.Name == "" {
		sub.Name = clm.Name
	}
	return sub, nil
}

// audit publishes ev in the background; failures are only logged.
func (s *Usecase) audit(ctx context.Context, subjectID string, action entity.AuditAction, details map[string]any) {
	ev := entity.AuditEvent{
		SubjectID:  subjectID,
		Action:     action,
		Details:    details,
		OccurredAt: s.clock.Now(),
	}

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishAudit(ctx, ev); err != nil {
			slog.WarnContext(ctx, "failed to publish mfa audit event", "user_id", subjectID, "action", string(action), "error", err)
		}
		return nil
	})
}

func (s *Usecase) countVerification(ctx context.Context, result string) {
	if s.verifications != nil {
		s.verifications.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}
