package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/safex/internal/mfa/entity"
	"github.com/shandysiswandi/safex/internal/pkg/goerror"
)

const defaultSessionDuration = "24 hours"

type VerifyOTPInput struct {
	OTP string `validate:"required,otp"`
}

type VerifyOTPOutput struct {
	SessionDuration string
}

type verifyOutcome int

const (
	outcomeNotFound verifyOutcome = iota
	outcomeExpired
	outcomeStillBlocked
	outcomeInvalid
	outcomeLocked
	outcomeVerified
)

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.OTP = strings.TrimSpace(in.OTP)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	pol := s.policy()
	now := s.clock.Now()

	var (
		outcome   verifyOutcome
		remaining int
		blockFor  time.Duration
	)
	s.store.Update(clm.Subject, func(cur entity.Challenge, ok bool) (entity.Challenge, entity.StoreOp) {
		if !ok {
			outcome = outcomeNotFound
			return cur, entity.OpKeep
		}

		switch cur.State(now) {
		case entity.StateVerified:
			outcome = outcomeNotFound
			return cur, entity.OpKeep
		case entity.StateBlocked:
			outcome, blockFor = outcomeStillBlocked, cur.BlockRemaining(now)
			return cur, entity.OpKeep
		case entity.StateStale:
			outcome = outcomeNotFound
			return cur, entity.OpDelete
		case entity.StateExpired:
			outcome = outcomeExpired
			return cur, entity.OpDelete
		}

		if s.hmac.Verify(cur.CodeHash, in.OTP) {
			outcome = outcomeVerified
			return entity.Challenge{
				SubjectID:         cur.SubjectID,
				MaxAttempts:       cur.MaxAttempts,
				Verified:          true,
				VerifiedExpiresAt: now.Add(pol.VerifiedTTL),
			}, entity.OpPut
		}

		maxAttempts := cur.MaxAttempts
		if maxAttempts <= 0 {
			maxAttempts = pol.MaxAttempts
		}

		if cur.Attempts+1 < maxAttempts {
			cur.Attempts++
			outcome, remaining = outcomeInvalid, maxAttempts-cur.Attempts
			return cur, entity.OpPut
		}

		cur.Attempts = maxAttempts
		cur.CodeHash = ""
		cur.BlockedUntil = now.Add(pol.LockDuration)
		outcome, blockFor = outcomeLocked, pol.LockDuration
		return cur, entity.OpPut
	})

	switch outcome {
	case outcomeVerified:
		s.countVerification(ctx, "verified")
		slog.InfoContext(ctx, "otp verified", "user_id", clm.Subject)
		s.audit(ctx, clm.Subject, entity.AuditOTPVerified, nil)

		duration := strings.TrimSpace(s.cfg.GetString("modules.mfa.session_duration"))
		if duration == "" {
			duration = defaultSessionDuration
		}
		return &VerifyOTPOutput{SessionDuration: duration}, nil

	case outcomeInvalid:
		s.countVerification(ctx, "invalid")
		slog.WarnContext(ctx, "otp verification failed", "user_id", clm.Subject, "attempts_remaining", remaining)
		s.audit(ctx, clm.Subject, entity.AuditOTPInvalid, map[string]any{"attempts_remaining": remaining})
		return nil, goerror.NewBusinessCause(entity.ErrInvalidCode,
			fmt.Sprintf("Invalid verification code. %d attempts remaining", remaining),
			goerror.CodeBadRequest, "attemptsRemaining", strconv.Itoa(remaining))

	case outcomeLocked, outcomeStillBlocked:
		s.countVerification(ctx, "locked")
		minutes := entity.CeilMinutes(blockFor)
		if outcome == outcomeLocked {
			slog.WarnContext(ctx, "otp attempts exhausted, subject locked", "user_id", clm.Subject, "lock_minutes", minutes)
			s.audit(ctx, clm.Subject, entity.AuditOTPLocked, map[string]any{"lock_minutes": minutes})
		}
		return nil, goerror.NewBusinessCause(entity.ErrLocked,
			fmt.Sprintf("Too many failed attempts. Try again in %d minutes", minutes),
			goerror.CodeTooManyRequest, "retryAfterMinutes", strconv.Itoa(minutes))

	case outcomeExpired:
		s.countVerification(ctx, "expired")
		slog.WarnContext(ctx, "otp code expired", "user_id", clm.Subject)
		s.audit(ctx, clm.Subject, entity.AuditOTPExpired, nil)
		return nil, goerror.NewBusinessCause(entity.ErrChallengeExpired,
			"Verification code has expired. Please request a new code", goerror.CodeBadRequest)

	default:
		s.countVerification(ctx, "not_found")
		return nil, goerror.NewBusinessCause(entity.ErrChallengeNotFound,
			"No verification code found. Please request a new code", goerror.CodeBadRequest)
	}
}
