package validator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/samber/lo"
)

// ErrTranslatorNotFound is returned when the english translator cannot be loaded.
var ErrTranslatorNotFound = errors.New("translator not found")

var reOTPCode = regexp.MustCompile(`^[0-9]{6}$`)

// rule is a custom tag with its english message.
type rule struct {
	tag     string
	message string
	check   validator.Func
}

var rules = []rule{
	{
		tag:     "otp",
		message: "{0} must be a 6-digit code",
		check: func(fl validator.FieldLevel) bool {
			code, ok := fl.Field().Interface().(string)
			return ok && reOTPCode.MatchString(code)
		},
	},
}

// V10ValidationError maps snake_case field names to translated messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}
	b, _ := json.Marshal(map[string]string(vs))
	return string(b)
}

// Values returns the field error map.
func (vs V10ValidationError) Values() map[string]string { return vs }

// V10Validator implements Validator with go-playground/validator.
type V10Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewV10Validator builds a validator with english messages and the custom rules registered.
func NewV10Validator() (*V10Validator, error) {
	locale := en.New()
	trans, ok := ut.New(locale, locale).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}

	for _, r := range rules {
		if err := register(v, trans, r); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: v, trans: trans}, nil
}

func register(v *validator.Validate, trans ut.Translator, r rule) error {
	if err := v.RegisterValidation(r.tag, r.check); err != nil {
		return err
	}

	return v.RegisterTranslation(r.tag, trans,
		func(t ut.Translator) error { return t.Add(r.tag, r.message, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				slog.Warn("failed to translate validation error", "tag", fe.Tag(), "error", err)
				return fe.Error()
			}
			return msg
		},
	)
}

// Validate returns V10ValidationError when any field fails its rules.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	return V10ValidationError(lo.SliceToMap(fieldErrs, func(fe validator.FieldError) (string, string) {
		return lo.SnakeCase(fe.Field()), fe.Translate(v.trans)
	}))
}
