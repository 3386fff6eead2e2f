package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterBindings installs the custom tags on gin's validator engine:
//
//	username      pattern, length and reserved name
//	not_reserved  reserved name only
//	slug          category/genre slug
//	title_year    not later than the current year
func RegisterBindings() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin binding engine is not go-playground/validator")
			return
		}
		err = Register(v)
	})
	return err
}

// Register adds the custom tags to v and makes field errors report JSON names.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	rules := map[string]validator.Func{
		"username": func(fl validator.FieldLevel) bool {
			return Username(fl.Field().String()) == nil
		},
		"not_reserved": func(fl validator.FieldLevel) bool {
			return UsernameNotReserved(fl.Field().String()) == nil
		},
		"slug": func(fl validator.FieldLevel) bool {
			return Slug(fl.Field().String()) == nil
		},
		"title_year": func(fl validator.FieldLevel) bool {
			return TitleYear(int(fl.Field().Int())) == nil
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validation: %w", tag, err)
		}
	}
	return nil
}

var tagMessages = map[string]string{
	"required":     "This field is required.",
	"email":        "Enter a valid email address.",
	"username":     "Enter a valid username. Letters, digits and @/./+/-/_ only; \"me\" is reserved.",
	"not_reserved": `Username cannot be "me".`,
	"slug":         "Enter a valid slug consisting of letters, numbers, underscores or hyphens.",
	"title_year":   "Year cannot be greater than the current year.",
}

var tagMessagesWithParam = map[string]string{
	"max":   "Ensure this value is at most %s.",
	"min":   "Ensure this value is at least %s.",
	"lte":   "Ensure this value is less than or equal to %s.",
	"gte":   "Ensure this value is greater than or equal to %s.",
	"oneof": "Must be one of: %s.",
}

// FromBinding converts validator.ValidationErrors produced by gin binding into
// a ValidationError keyed by JSON field name. Other errors (malformed JSON,
// wrong types) are reported under "non_field_errors".
func FromBinding(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewError("non_field_errors", err.Error())
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Add(jsonFieldName(fe), translate(fe))
	}
	return out
}

func jsonFieldName(fe validator.FieldError) string {
	if name := fe.Field(); name != "" {
		return name
	}
	return strings.ToLower(fe.StructField())
}

func translate(fe validator.FieldError) string {
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}
	if tmpl, ok := tagMessagesWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Param())
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}
