// Package validate holds the small set of input checks shared by the domain
// services. Each check returns a *FieldError; callers gather them with
// Collect so a single response can list every problem.
package validate

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/multierr"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Message
}

// Error is a non-empty set of field errors.
type Error struct {
	err error
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(multierr.Errors(e.err)))
	for _, fe := range multierr.Errors(e.err) {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e *Error) Unwrap() []error {
	return multierr.Errors(e.err)
}

// Fields returns the individual field errors.
func (e *Error) Fields() []*FieldError {
	var out []*FieldError
	for _, err := range multierr.Errors(e.err) {
		var fe *FieldError
		if errors.As(err, &fe) {
			out = append(out, fe)
		}
	}
	return out
}

// Collect combines the non-nil checks into an *Error, or returns nil.
func Collect(checks ...error) error {
	combined := multierr.Combine(checks...)
	if combined == nil {
		return nil
	}
	return &Error{err: combined}
}

// IsValidation reports whether err came from this package.
func IsValidation(err error) bool {
	var ve *Error
	var fe *FieldError
	return errors.As(err, &ve) || errors.As(err, &fe)
}

// Required fails when value is blank.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Message: "is required"}
	}
	return nil
}

// Length checks the rune length of value is within [min, max].
func Length(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min {
		if min == 1 {
			return &FieldError{Field: field, Message: "is required"}
		}
		return &FieldError{Field: field, Message: fmt.Sprintf("must be at least %d characters", min)}
	}
	if n > max {
		return &FieldError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)}
	}
	return nil
}

// MaxLength allows empty values.
func MaxLength(field, value string, max int) error {
	return Length(field, value, 0, max)
}

// Range checks min <= value <= max.
func Range(field string, value, min, max int) error {
	if value < min || value > max {
		return &FieldError{Field: field, Message: fmt.Sprintf("must be between %d and %d", min, max)}
	}
	return nil
}

// Email checks value is a bare address no longer than 255 characters.
func Email(field, value string) error {
	if err := Length(field, value, 1, 255); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || addr.Name != "" {
		return &FieldError{Field: field, Message: "must be a valid email address"}
	}
	return nil
}

// OneOf checks value is one of allowed.
func OneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &FieldError{Field: field, Message: "must be one of " + strings.Join(allowed, ", ")}
}

var strict = bluemonday.StrictPolicy()

// Text trims value and strips any HTML markup. Entities produced by the
// sanitizer are decoded back so stored text stays plain.
func Text(value string) string {
	cleaned := strict.Sanitize(strings.TrimSpace(value))
	return htmlUnescaper.Replace(cleaned)
}

var htmlUnescaper = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&#34;", `"`,
	"&#39;", "'",
	"&quot;", `"`,
)
