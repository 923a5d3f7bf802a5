package handlers

import (
	"balwatch/internal/validation"

	"github.com/go-playground/validator/v10"
)

// EchoValidator adapts the shared validator to Echo's Validator
// interface so handlers can call c.Validate(req).
type EchoValidator struct {
	validate *validator.Validate
}

// NewEchoValidator wires the singleton validation rules into Echo.
func NewEchoValidator() *EchoValidator {
	return &EchoValidator{validate: validation.GetValidator().GetValidate()}
}

// Validate implements echo.Validator.
func (v *EchoValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
