package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/safex/internal/mfa/entity"
	"go.opentelemetry.io/otel/attribute"
)

// SweepExpired drops every reclaimable challenge and returns how many were
// removed. Blocked entries stay until their block lapses.
func (s *Usecase) SweepExpired(ctx context.Context) int {
	ctx, span := s.startSpan(ctx, "SweepExpired")
	defer span.End()

	now := s.clock.Now()
	removed := s.store.DeleteIf(func(c entity.Challenge) bool {
		return c.Reclaimable(now)
	})

	span.SetAttributes(attribute.Int("mfa.sweep.removed", removed))
	if removed > 0 {
		if s.swept != nil {
			s.swept.Add(ctx, int64(removed))
		}
		slog.InfoContext(ctx, "expired challenges swept", "removed", removed, "remaining", s.store.Len())
	}

	return removed
}

// ActiveChallenges is the current size of the challenge table.
func (s *Usecase) ActiveChallenges() int {
	return s.store.Len()
}
