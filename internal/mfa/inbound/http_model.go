package inbound

import "time"

type MFAStatusResponse struct {
	MFARequired bool   `json:"mfaRequired"`
	MFAEnabled  bool   `json:"mfaEnabled"`
	Type        string `json:"type"`
}

type SendOTPResponse struct {
	ExpiresIn int    `json:"expiresIn"`
	DevCode   string `json:"devCode,omitempty"`
}

func (r SendOTPResponse) Message() string {
	if r.DevCode != "" {
		return "Delivery failed, development code returned"
	}
	return "Verification code sent"
}

type VerifyOTPRequest struct {
	OTP string `json:"otp"`
}

type VerifyOTPResponse struct {
	SessionDuration string `json:"sessionDuration"`
}

func (VerifyOTPResponse) Message() string {
	return "Verification successful"
}

type HealthResponse struct {
	Status           string     `json:"status"`
	ActiveChallenges int        `json:"activeChallenges"`
	LastSweepAt      *time.Time `json:"lastSweepAt,omitempty"`
	LastSweepRemoved int64      `json:"lastSweepRemoved"`
	SweepRuns        int64      `json:"sweepRuns"`
}

func (HealthResponse) Message() string {
	return "SafeX API is healthy"
}
