package dto

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// maxAccountIDLength bounds account IDs accepted from clients.
const maxAccountIDLength = 64

// RegisterValidations installs the custom binding tags used by the request DTOs.
// It must run before the first request is bound.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("account_id", validateAccountID)
}

// validateAccountID accepts short identifiers without whitespace or control characters.
func validateAccountID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if id == "" || len(id) > maxAccountIDLength {
		return false
	}
	return !strings.ContainsFunc(id, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
}
