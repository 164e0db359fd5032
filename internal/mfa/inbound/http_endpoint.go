package inbound

import (
	"github.com/shandysiswandi/safex/internal/mfa/usecase"
	"github.com/shandysiswandi/safex/internal/pkg/router"
)

// HeaderIdempotencyKey deduplicates repeated send-otp requests.
const HeaderIdempotencyKey = "Idempotency-Key"

// HTTPEndpoint exposes the local second-factor routes.
type HTTPEndpoint struct {
	uc      uc
	sweeper sweepStatser
}

// MFAStatus reports whether the caller must pass the second factor.
// @Summary Second-factor status
// @Tags MFA
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=MFAStatusResponse}
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 404 {object} router.errorResponse "User not found"
// @Router /api/auth/mfa-status [post]
func (h *HTTPEndpoint) MFAStatus(r *router.Request) (any, error) {
	resp, err := h.uc.MFAStatus(r.Context())
	if err != nil {
		return nil, err
	}

	return MFAStatusResponse{
		MFARequired: resp.Required,
		MFAEnabled:  resp.Enabled,
		Type:        resp.Type,
	}, nil
}

// SendOTP issues a one-time code and delivers it over WhatsApp.
// @Summary Send one-time code
// @Tags MFA
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Deduplicates retried requests"
// @Success 200 {object} router.successResponse{data=SendOTPResponse}
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 409 {object} router.errorResponse "Repeated Idempotency-Key"
// @Failure 429 {object} router.errorResponse "Blocked after too many attempts"
// @Failure 500 {object} router.errorResponse "Configuration or delivery error"
// @Router /api/auth/send-otp [post]
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	resp, err := h.uc.SendOTP(r.Context(), usecase.SendOTPInput{
		IdempotencyKey: r.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		return nil, err
	}

	return SendOTPResponse{
		ExpiresIn: resp.ExpiresIn,
		DevCode:   resp.DevCode,
	}, nil
}

// VerifyOTP checks a submitted one-time code.
// @Summary Verify one-time code
// @Tags MFA
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body VerifyOTPRequest true "Code payload"
// @Success 200 {object} router.successResponse{data=VerifyOTPResponse}
// @Failure 400 {object} router.errorResponse "No code, expired code or wrong code"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Locked after too many attempts"
// @Router /api/auth/verify-otp [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{OTP: req.OTP})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{SessionDuration: resp.SessionDuration}, nil
}

// Health reports the challenge table size and the last sweep.
func (h *HTTPEndpoint) Health(*router.Request) (any, error) {
	resp := HealthResponse{
		Status:           "ok",
		ActiveChallenges: h.uc.ActiveChallenges(),
	}

	if h.sweeper != nil {
		st := h.sweeper.Stats()
		if !st.LastRunAt.IsZero() {
			resp.LastSweepAt = &st.LastRunAt
		}
		resp.LastSweepRemoved = st.LastRemoved
		resp.SweepRuns = st.Runs
	}

	return resp, nil
}
