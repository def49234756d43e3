package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

type makeInput struct {
	Link     string `validate:"omitempty,max=80,linktoken"`
	Target   string `validate:"required,max=2048,http_url"`
	Password string `validate:"required,max=80"`
}

type changeLinkInput struct {
	Link     string `validate:"required,max=80"`
	Password string `validate:"max=80"`
	NewLink  string `validate:"omitempty,max=80,linktoken"`
}

type changeTargetInput struct {
	Link      string `validate:"required,max=80"`
	Password  string `validate:"max=80"`
	NewTarget string `validate:"required,max=2048,http_url"`
}

type credentialsInput struct {
	Link     string `validate:"required,max=80"`
	Password string `validate:"max=80"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("linktoken", func(fl validator.FieldLevel) bool {
		return IsToken(fl.Field().String())
	})
	return v
}

// IsToken reports whether s is a non-empty run of letters and digits.
func IsToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// NormalizeTarget prefixes targets without an http(s) scheme with http://.
func NormalizeTarget(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return ""
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return "http://" + target
	}
	return target
}

func invalidInput(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field())+" ("+fe.Tag()+")")
		}
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
