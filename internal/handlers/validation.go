package handlers

import (
	"fmt"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules used by the auth payloads.
// Calling it more than once is harmless.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
			return
		}
		err = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
			return hasPasswordClasses(fl.Field().String())
		})
	})
	return err
}

// IsStrongPassword applies the same rules as a `min=8,max=72,strongpassword` binding.
func IsStrongPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 72 && hasPasswordClasses(password)
}

// hasPasswordClasses requires an upper case letter, a lower case letter and a digit.
func hasPasswordClasses(s string) bool {
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
