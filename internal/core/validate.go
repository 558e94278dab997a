// AngelaMos | 2026
// validate.go

package core

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	MinPhoneDigits = 7
	MaxQuantityMT  = 1_000_000
)

// NewValidator returns a validator that reports json field names and knows
// the project's custom tags.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	//nolint:errcheck // tag names are static and valid
	_ = v.RegisterValidation("phone_digits", validatePhone)
	//nolint:errcheck // tag names are static and valid
	_ = v.RegisterValidation("positive_quantity", validateQuantity)
	//nolint:errcheck // tag names are static and valid
	_ = v.RegisterValidation("username", validateUsername)

	return v
}

func validatePhone(fl validator.FieldLevel) bool {
	phone := fl.Field().String()

	digits := 0
	for _, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == ' ', r == '+', r == '-', r == '(', r == ')', r == '.':
		default:
			return false
		}
	}

	return digits >= MinPhoneDigits
}

func validateUsername(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			r != '.' && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

func validateQuantity(fl validator.FieldLevel) bool {
	_, ok := ParseQuantity(fl.Field().String())
	return ok
}

// ParseQuantity parses a metric-ton quantity. Only finite values in
// (0, MaxQuantityMT] are accepted.
func ParseQuantity(raw string) (float64, bool) {
	q, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}

	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 || q > MaxQuantityMT {
		return 0, false
	}

	return q, true
}
