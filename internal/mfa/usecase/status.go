package usecase

import (
	"context"

	"github.com/shandysiswandi/safex/internal/mfa/entity"
)

const mfaTypeLocal = "local"

type MFAStatusOutput struct {
	Required bool
	Enabled  bool
	Type     string
}

// MFAStatus reports whether the caller still has to pass the second factor.
// A live verification marker satisfies it until the marker expires.
func (s *Usecase) MFAStatus(ctx context.Context) (*MFAStatusOutput, error) {
	ctx, span := s.startSpan(ctx, "MFAStatus")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.subject(ctx, clm)
	if err != nil {
		return nil, err
	}

	enabled := s.cfg.GetBool("modules.mfa.enabled") && sub.Enabled(s.cfg.GetBool("modules.mfa.default_enabled"))

	verified := false
	if c, ok := s.store.Get(sub.ID); ok {
		verified = c.State(s.clock.Now()) == entity.StateVerified
	}

	return &MFAStatusOutput{
		Required: enabled && !verified,
		Enabled:  enabled,
		Type:     mfaTypeLocal,
	}, nil
}
