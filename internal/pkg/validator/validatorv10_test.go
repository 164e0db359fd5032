package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codeInput struct {
	OTP       string `validate:"required,otp"`
	SubjectID string `validate:"required"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, v.Validate(codeInput{OTP: "482913", SubjectID: "u1"}))
	})

	t.Run("MalformedCode", func(t *testing.T) {
		for _, code := range []string{"48291", "4829130", "48a913", " 482913"} {
			err := v.Validate(codeInput{OTP: code, SubjectID: "u1"})

			var verr V10ValidationError
			require.ErrorAs(t, err, &verr, code)
			assert.Equal(t, "OTP must be a 6-digit code", verr.Values()["otp"])
		}
	})

	t.Run("MissingFields", func(t *testing.T) {
		err := v.Validate(codeInput{})

		var verr V10ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Values(), "otp")
		assert.Contains(t, verr.Values(), "subject_id")
	})
}
