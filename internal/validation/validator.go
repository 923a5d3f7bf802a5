package validation

import (
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Validator wraps the go-playground validator with custom rules and error formatting
type Validator struct {
	validate *validator.Validate
}

// GetValidate returns the underlying validator.Validate instance for use with Echo
func (v *Validator) GetValidate() *validator.Validate {
	return v.validate
}

// singleton instance of the validator
var instance *Validator

// GetValidator returns the singleton validator instance
func GetValidator() *Validator {
	if instance == nil {
		instance = NewValidator()
	}
	return instance
}

// NewValidator creates a new validator instance with custom rules and configuration
func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("access_url", validateAccessURL)
	_ = v.RegisterValidation("cron_expr", validateCronExpr)
	_ = v.RegisterValidation("account_id", validateAccountID)
	_ = v.RegisterValidation("currency_code", validateCurrencyCode)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Custom validation functions

// validateAccessURL checks that an access descriptor is an absolute
// http(s) URL with embedded basic-auth userinfo
func validateAccessURL(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if raw == "" {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" {
		return false
	}
	// Credentials are part of the descriptor; an access URL without
	// them cannot authenticate balance queries.
	return u.User != nil && u.User.Username() != ""
}

// validateCronExpr checks that a schedule parses as a standard 5-field
// cron expression
func validateCronExpr(fl validator.FieldLevel) bool {
	expr := strings.TrimSpace(fl.Field().String())
	if expr == "" {
		return false
	}
	_, err := cron.ParseStandard(expr)
	return err == nil
}

// validateAccountID checks that an account id is non-blank after trimming
func validateAccountID(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateCurrencyCode checks for a three-letter ISO 4217 code
func validateCurrencyCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	matched, _ := regexp.MatchString(`^[A-Z]{3}$`, code)
	return matched
}
