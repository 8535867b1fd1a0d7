// utils/validation.go
package utils

import (
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

// NormalizePhone strips spaces, dashes and parentheses.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
}

// ValidatePhone accepts an optional + followed by 7 to 15 digits.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

func ValidBirthDate(day, month *int) bool {
	if month != nil && (*month < 1 || *month > 12) {
		return false
	}
	if day != nil && (*day < 1 || *day > 31) {
		return false
	}
	return true
}

var registerOnce sync.Once

// RegisterValidators adds the "phone" tag to gin's binding validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
				return ValidatePhone(fl.Field().String())
			})
		}
	})
}
