package inbound

import (
	"context"

	"github.com/shandysiswandi/safex/internal/mfa/usecase"
	"github.com/shandysiswandi/safex/internal/pkg/router"
)

type uc interface {
	MFAStatus(ctx context.Context) (*usecase.MFAStatusOutput, error)
	SendOTP(ctx context.Context, in usecase.SendOTPInput) (*usecase.SendOTPOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	ActiveChallenges() int
}

type sweepStatser interface {
	Stats() SweepStats
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, sweeper sweepStatser) {
	end := &HTTPEndpoint{uc: uc, sweeper: sweeper}

	r.POST("/api/auth/mfa-status", end.MFAStatus)
	r.POST("/api/auth/send-otp", end.SendOTP)
	r.POST("/api/auth/verify-otp", end.VerifyOTP)

	r.GET("/health", end.Health)
}
