// Package validation builds the shared validator and the Indian-market
// field rules used by request DTOs.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"complianceai/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var (
	phoneRe    = regexp.MustCompile(`^[6-9]\d{9}$`)
	nameRe     = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	panRe      = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]{1}$`)
	gstinRe    = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[1-9A-Z]{1}Z[0-9A-Z]{1}$`)
	pincodeRe  = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	passwordCh = "@$!%*?&"
)

// CompanyTypes are the accepted legal forms of a company.
var CompanyTypes = []string{"Private Limited", "Public Limited", "LLP", "Partnership", "Sole Proprietorship"}

var messages = map[string]string{
	"indianphone":    "Invalid Indian phone number",
	"strongpassword": "Password must contain at least one lowercase letter, one uppercase letter, one number, and one special character",
	"personname":     "Name must contain only letters and spaces",
	"pan":            "Invalid PAN format",
	"gstin":          "Invalid GSTIN format",
	"pincode":        "Invalid pincode",
	"companytype":    "Invalid company type",
}

// New returns a validator with the custom tags registered. Field names in
// errors use the json tag.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	register := map[string]func(string) bool{
		"indianphone":    IsIndianPhone,
		"strongpassword": IsStrongPassword,
		"personname":     nameRe.MatchString,
		"pan":            panRe.MatchString,
		"gstin":          gstinRe.MatchString,
		"pincode":        pincodeRe.MatchString,
		"companytype":    IsCompanyType,
	}
	for tag, fn := range register {
		fn := fn
		// Registration only fails on an empty tag or nil func.
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		})
	}
	return v
}

// IsIndianPhone reports whether s is a 10-digit Indian mobile number.
func IsIndianPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// IsStrongPassword requires a lowercase letter, an uppercase letter, a digit
// and one of @$!%*?&.
func IsStrongPassword(s string) bool {
	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordCh, r):
			special = true
		}
	}
	return lower && upper && digit && special
}

func IsCompanyType(s string) bool {
	for _, t := range CompanyTypes {
		if s == t {
			return true
		}
	}
	return false
}

// Struct validates s and converts failures to a 400 apperr.Error listing
// every offending field.
func Struct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("Validation failed: " + err.Error())
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fieldPath(fe)+": "+message(fe))
	}
	return apperr.Validation("Validation failed: " + strings.Join(parts, ", "))
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	if m, ok := messages[fe.Tag()]; ok {
		return m
	}
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email"
	case "uuid", "uuid4":
		return "Invalid uuid"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "oneof":
		return "Must be one of: " + fe.Param()
	}
	return "Invalid value"
}
