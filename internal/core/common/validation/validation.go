package validation

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	errors "github.com/frahmantamala/subscription-sales/internal"
)

// rule inspects a field value and returns a non-nil error when it fails.
type rule func(name string, value any) *errors.ValidationError

type FieldValidator struct {
	name  string
	value any
	rules []rule
}

// ValidationBuilder accumulates field rules and reports every failure at once.
type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{}
}

func (v *ValidationBuilder) Field(name string, value any) *FieldValidator {
	fv := &FieldValidator{name: name, value: value}
	v.fields = append(v.fields, fv)
	return fv
}

func (fv *FieldValidator) add(r rule) *FieldValidator {
	fv.rules = append(fv.rules, r)
	return fv
}

func failure(name string, code errors.ErrorCode, format string, args ...any) *errors.ValidationError {
	return &errors.ValidationError{
		Field:   name,
		Message: name + " " + fmt.Sprintf(format, args...),
		Code:    string(code),
	}
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case *string:
		return v == nil || strings.TrimSpace(*v) == ""
	case int:
		return v == 0
	case uuid.UUID:
		return v == uuid.Nil
	case *uuid.UUID:
		return v == nil || *v == uuid.Nil
	}
	return false
}

func (fv *FieldValidator) Required() *FieldValidator {
	return fv.add(func(name string, value any) *errors.ValidationError {
		if isBlank(value) {
			return failure(name, errors.ErrCodeValidationFailed, "is required")
		}
		return nil
	})
}

func (fv *FieldValidator) MinInt(min int, code errors.ErrorCode) *FieldValidator {
	return fv.add(func(name string, value any) *errors.ValidationError {
		if n, ok := value.(int); ok && n < min {
			return failure(name, code, "must be at least %d", min)
		}
		return nil
	})
}

func (fv *FieldValidator) MaxInt(max int, code errors.ErrorCode) *FieldValidator {
	return fv.add(func(name string, value any) *errors.ValidationError {
		if n, ok := value.(int); ok && n > max {
			return failure(name, code, "must not exceed %d", max)
		}
		return nil
	})
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	return fv.add(func(name string, value any) *errors.ValidationError {
		if s, ok := value.(string); ok && len(s) > max {
			return failure(name, errors.ErrCodeValidationFailed, "must not exceed %d characters", max)
		}
		return nil
	})
}

// Email accepts bare addresses only; display-name forms are rejected.
func (fv *FieldValidator) Email() *FieldValidator {
	return fv.add(func(name string, value any) *errors.ValidationError {
		s, ok := value.(string)
		if !ok || s == "" {
			return nil
		}
		if addr, err := mail.ParseAddress(s); err != nil || addr.Address != s {
			return failure(name, errors.ErrCodeInvalidEmail, "must be a valid email address")
		}
		return nil
	})
}

// Digits accepts strings made only of digits, between min and max characters long.
func (fv *FieldValidator) Digits(min, max int, code errors.ErrorCode) *FieldValidator {
	return fv.add(func(name string, value any) *errors.ValidationError {
		s, ok := value.(string)
		if !ok || s == "" {
			return nil
		}
		if len(s) < min || len(s) > max {
			return failure(name, code, "must have between %d and %d digits", min, max)
		}
		if strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			return failure(name, code, "must contain only digits")
		}
		return nil
	})
}

func (v *ValidationBuilder) Validate() *errors.AppError {
	var failures []errors.ValidationError
	for _, field := range v.fields {
		for _, check := range field.rules {
			if fe := check(field.name, field.value); fe != nil {
				failures = append(failures, *fe)
			}
		}
	}

	if len(failures) == 0 {
		return nil
	}
	return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
		WithDetails(errors.ValidationErrors{Errors: failures})
}

func ValidateQuantity(quantity int) *errors.AppError {
	v := NewValidator()
	v.Field("quantity", quantity).MinInt(1, errors.ErrCodeInvalidQuantity)
	return v.Validate()
}

func ValidateEmail(email string) *errors.AppError {
	v := NewValidator()
	v.Field("email", email).Required().Email().MaxLength(254)
	return v.Validate()
}
