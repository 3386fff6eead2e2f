// Package validators holds the field-level rules shared by request binding
// and the service layer.
package validators

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	ReservedUsername  = "me"
	MaxUsernameLength = 150
	MaxEmailLength    = 254
	MaxSlugLength     = 50
	MaxNameLength     = 256
	MinScore          = 1
	MaxScore          = 10
)

var (
	usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	slugRegex     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// fieldValidator checks single values with the same rules request binding uses.
var (
	fieldValidator     *validator.Validate
	fieldValidatorOnce sync.Once
)

func getFieldValidator() *validator.Validate {
	fieldValidatorOnce.Do(func() {
		fieldValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return fieldValidator
}

// ValidationError collects messages per field.
type ValidationError struct {
	Fields map[string][]string
}

// NewError returns a ValidationError with a single field message.
func NewError(field, message string) *ValidationError {
	return (&ValidationError{}).Add(field, message)
}

// Add appends a message for field and returns the receiver.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// Merge copies the messages of other into e. A nil other is ignored.
func (e *ValidationError) Merge(other *ValidationError) *ValidationError {
	if other == nil {
		return e
	}
	for field, msgs := range other.Fields {
		for _, m := range msgs {
			e.Add(field, m)
		}
	}
	return e
}

// Empty reports whether no message was recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns e as an error, or nil when it holds no messages.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.Fields[f], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// TitleYear fails when value is later than the current calendar year.
func TitleYear(value int) error {
	return titleYearAt(value, time.Now())
}

func titleYearAt(value int, now time.Time) error {
	if value > now.Year() {
		return NewError("year", fmt.Sprintf("Value %d is greater than the current year.", value))
	}
	return nil
}

// UsernameNotReserved fails when value is "me" in any letter case.
func UsernameNotReserved(value string) error {
	if strings.ToLower(value) == ReservedUsername {
		return NewError("username", `Username cannot be "me".`)
	}
	return nil
}

// Username checks the allowed characters, the length and the reserved name.
func Username(value string) error {
	if value == "" {
		return NewError("username", "This field is required.")
	}
	if utf8.RuneCountInString(value) > MaxUsernameLength {
		return NewError("username", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxUsernameLength))
	}
	if !usernameRegex.MatchString(value) {
		return NewError("username", "Enter a valid username. Letters, digits and @/./+/-/_ only.")
	}
	return UsernameNotReserved(value)
}

// Email checks the address format and length.
func Email(value string) error {
	if value == "" {
		return NewError("email", "This field is required.")
	}
	if len(value) > MaxEmailLength || getFieldValidator().Var(value, "email") != nil {
		return NewError("email", "Enter a valid email address.")
	}
	return nil
}

// Slug checks the identifier used for categories and genres.
func Slug(value string) error {
	if value == "" {
		return NewError("slug", "This field is required.")
	}
	if len(value) > MaxSlugLength {
		return NewError("slug", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxSlugLength))
	}
	if !slugRegex.MatchString(value) {
		return NewError("slug", "Enter a valid slug consisting of letters, numbers, underscores or hyphens.")
	}
	return nil
}

// Name checks a display name of a category, genre or title.
func Name(value string) error {
	if strings.TrimSpace(value) == "" {
		return NewError("name", "This field is required.")
	}
	if utf8.RuneCountInString(value) > MaxNameLength {
		return NewError("name", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxNameLength))
	}
	return nil
}

// Score accepts integers in [1, 10].
func Score(value int) error {
	if value < MinScore {
		return NewError("score", fmt.Sprintf("Ensure this value is greater than or equal to %d.", MinScore))
	}
	if value > MaxScore {
		return NewError("score", fmt.Sprintf("Ensure this value is less than or equal to %d.", MaxScore))
	}
	return nil
}

// Collect runs checks and merges every ValidationError they return.
// The first error of any other type is returned as is.
func Collect(checks ...error) error {
	out := &ValidationError{}
	for _, err := range checks {
		if err == nil {
			continue
		}
		ve, ok := err.(*ValidationError)
		if !ok {
			return err
		}
		out.Merge(ve)
	}
	return out.OrNil()
}
