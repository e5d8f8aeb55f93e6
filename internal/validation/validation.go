// Package validation checks form input before anything is written.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"padelmanager/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError describes one invalid field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is returned when one or more fields are invalid
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

// IsValidationError reports whether err carries field validation failures
func IsValidationError(err error) bool {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single ValidationError
	return errors.As(err, &single)
}

// Struct validates a tagged input struct
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{Field: label(fe.Field()), Message: message(fe)})
	}
	return out
}

// ValidateLesson validates lesson fields and that the lesson ends after it starts
func ValidateLesson(in models.LessonInput) error {
	if err := Struct(in); err != nil {
		return err
	}
	start, err := time.Parse(models.TimeLayout, in.StartTime)
	if err != nil {
		return ValidationErrors{{Field: "start time", Message: "must be a time like 09:30"}}
	}
	end, err := time.Parse(models.TimeLayout, in.EndTime)
	if err != nil {
		return ValidationErrors{{Field: "end time", Message: "must be a time like 09:30"}}
	}
	if !end.After(start) {
		return ValidationErrors{{Field: "end time", Message: "must be after the start time"}}
	}
	return nil
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if err := validate.Var(email, "email"); err != nil {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return ValidationError{Field: "password", Message: "password must be at most 72 bytes"}
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "gte":
		return "must be " + fe.Param() + " or more"
	case "eqfield":
		return "does not match"
	case "datetime":
		switch fe.Param() {
		case models.DateLayout:
			return "must be a date (YYYY-MM-DD)"
		case models.TimeLayout:
			return "must be a time (HH:MM)"
		}
		return "must match " + fe.Param()
	}
	return "is invalid"
}

// label turns a Go field name like LessonDate into "lesson date"
func label(field string) string {
	var b strings.Builder
	for i, r := range field {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte(' ')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
