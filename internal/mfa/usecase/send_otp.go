package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/safex/internal/mfa/entity"
	"github.com/shandysiswandi/safex/internal/pkg/goerror"
	"github.com/shandysiswandi/safex/internal/pkg/idempotency"
)

type SendOTPInput struct {
	IdempotencyKey string `validate:"omitempty,max=128,printascii"`
}

type SendOTPOutput struct {
	// ExpiresIn is the code validity in whole minutes.
	ExpiresIn int
	// DevCode is only set when delivery failed in development mode.
	DevCode string
}

func (s *Usecase) SendOTP(ctx context.Context, in SendOTPInput) (*SendOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	destination := strings.TrimSpace(s.cfg.GetString("modules.mfa.delivery.destination"))
	if destination == "" {
		slog.ErrorContext(ctx, "two-factor delivery destination is not configured", "user_id", clm.Subject)
		return nil, goerror.NewServerCause(entity.ErrConfiguration, "Two-factor delivery is not configured")
	}

	sub, err := s.subject(ctx, clm)
	if err != nil {
		return nil, err
	}

	if in.IdempotencyKey == "" {
		return s.issue(ctx, sub, destination)
	}

	var out *SendOTPOutput
	err = s.idemp.Exec(ctx, "send-otp:"+sub.ID+":"+in.IdempotencyKey, func(ctx context.Context) error {
		var errIssue error
		out, errIssue = s.issue(ctx, sub, destination)
		if errors.Is(errIssue, entity.ErrBlocked) || errors.Is(errIssue, entity.ErrResendTooSoon) {
			return idempotency.Release(errIssue)
		}
		return errIssue
	}, idempotency.WithStateTTL(s.policy().CodeTTL))

	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return nil, goerror.NewBusiness("A code request with this key is already in progress", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		return nil, goerror.NewBusiness("A code was already sent for this request", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyFailed):
		return nil, goerror.NewBusiness("This request already failed, retry with a new Idempotency-Key", goerror.CodeConflict)
	}

	var gerr *goerror.Error
	if errors.As(err, &gerr) {
		return nil, err
	}

	slog.ErrorContext(ctx, "failed to track send otp idempotency", "user_id", sub.ID, "error", err)
	return nil, goerror.NewServer(err)
}

func (s *Usecase) issue(ctx context.Context, sub *entity.Subject, destination string) (*SendOTPOutput, error) {
	pol := s.policy()

	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "user_id", sub.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "user_id", sub.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()

	var (
		prev     entity.Challenge
		hadPrev  bool
		next     entity.Challenge
		refusal  error
		attempts int
	)
	s.store.Update(sub.ID, func(cur entity.Challenge, ok bool) (entity.Challenge, entity.StoreOp) {
		prev, hadPrev = cur, ok

		if ok {
			switch cur.State(now) {
			case entity.StateBlocked:
				minutes := entity.CeilMinutes(cur.BlockRemaining(now))
				refusal = goerror.NewBusinessCause(entity.ErrBlocked,
					fmt.Sprintf("Too many attempts. Try again in %d minutes", minutes),
					goerror.CodeTooManyRequest, "retryAfterMinutes", strconv.Itoa(minutes))
				return cur, entity.OpKeep

			case entity.StatePending:
				if wait := pol.ResendInterval - now.Sub(cur.IssuedAt); pol.ResendInterval > 0 && wait > 0 {
					seconds := entity.CeilSeconds(wait)
					refusal = goerror.NewBusinessCause(entity.ErrResendTooSoon,
						fmt.Sprintf("Please wait %d seconds before requesting a new code", seconds),
						goerror.CodeTooManyRequest, "retryAfterSeconds", strconv.Itoa(seconds))
					return cur, entity.OpKeep
				}
				attempts = cur.Attempts
			}
		}

		next = entity.Challenge{
			SubjectID:   sub.ID,
			CodeHash:    string(codeHash),
			IssuedAt:    now,
			ExpiresAt:   now.Add(pol.CodeTTL),
			Attempts:    attempts,
			MaxAttempts: pol.MaxAttempts,
		}
		return next, entity.OpPut
	})

	if refusal != nil {
		slog.WarnContext(ctx, "otp issuance refused", "user_id", sub.ID, "error", refusal)
		if errors.Is(refusal, entity.ErrBlocked) {
			s.audit(ctx, sub.ID, entity.AuditOTPBlocked, map[string]any{
				"blocked_until": prev.BlockedUntil,
			})
		}
		return nil, refusal
	}

	dctx, cancel := context.WithTimeout(ctx, s.deliveryTimeout())
	errSend := s.repoDelivery.SendCode(dctx, entity.Delivery{
		Destination: destination,
		Code:        code,
		Subject:     *sub,
		ValidFor:    pol.CodeTTL,
	})
	cancel()

	expiresIn := entity.CeilMinutes(pol.CodeTTL)

	if errSend == nil {
		if s.issued != nil {
			s.issued.Add(ctx, 1)
		}
		slog.InfoContext(ctx, "otp code sent", "user_id", sub.ID, "expires_at", next.ExpiresAt)
		s.audit(ctx, sub.ID, entity.AuditOTPSent, map[string]any{
			"expires_in_minutes": expiresIn,
			"carried_attempts":   attempts,
		})
		return &SendOTPOutput{ExpiresIn: expiresIn}, nil
	}

	if s.isDevelopment() {
		slog.WarnContext(ctx, "otp delivery failed, returning code in development mode", "user_id", sub.ID, "error", errSend)
		s.audit(ctx, sub.ID, entity.AuditOTPDevFallback, map[string]any{"reason": errSend.Error()})
		return &SendOTPOutput{ExpiresIn: expiresIn, DevCode: code}, nil
	}

	s.rollback(sub.ID, next, prev, hadPrev)
	s.audit(ctx, sub.ID, entity.AuditOTPSendFailed, map[string]any{"reason": errSend.Error()})

	if errors.Is(errSend, entity.ErrConfiguration) {
		slog.ErrorContext(ctx, "otp delivery gateway is not configured", "user_id", sub.ID, "error", errSend)
		return nil, goerror.NewServerCause(errSend, "Two-factor delivery is not configured")
	}

	slog.ErrorContext(ctx, "failed to deliver otp code", "user_id", sub.ID, "error", errSend)
	return nil, goerror.NewServerCause(fmt.Errorf("%w: %w", entity.ErrDelivery, errSend), "Failed to deliver verification code")
}

// rollback undoes an undelivered issuance unless another request replaced
// it meanwhile. Wrong guesses recorded against the undelivered code are
// kept: a pending predecessor is restored with the higher attempt count, and
// without one the undelivered entry stays in place to carry the count.
func (s *Usecase) rollback(subjectID string, issued, prev entity.Challenge, hadPrev bool) {
	now := s.clock.Now()
	s.store.Update(subjectID, func(cur entity.Challenge, ok bool) (entity.Challenge, entity.StoreOp) {
		if !ok || cur.CodeHash != issued.CodeHash || !cur.IssuedAt.Equal(issued.IssuedAt) {
			return cur, entity.OpKeep
		}
		if hadPrev && prev.State(now) == entity.StatePending {
			prev.Attempts = max(prev.Attempts, cur.Attempts)
			return prev, entity.OpPut
		}
		if cur.Attempts > issued.Attempts {
			return cur, entity.OpKeep
		}
		if hadPrev {
			return prev, entity.OpPut
		}
		return cur, entity.OpDelete
	})
}
