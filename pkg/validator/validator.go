package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"value,omitempty"`
}

func (e *ErrorResponse) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s failed on %s=%s", e.FailedField, e.Tag, e.Value)
	}
	return fmt.Sprintf("%s failed on %s", e.FailedField, e.Tag)
}

var usernamePattern = regexp.MustCompile(`^\w{3,32}$`)

var validate = validator.New()

func init() {
	// 3 to 32 word characters: letters, digits, underscore.
	validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	// Serial numbers start at 1.
	validate.RegisterValidation("serial", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() >= 1
	})
}

// IsUsername reports whether s satisfies the username rule.
func IsUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var out []*ErrorResponse
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []*ErrorResponse{{FailedField: "request", Tag: "invalid"}}
	}
	for _, fe := range verrs {
		out = append(out, &ErrorResponse{
			FailedField: fe.StructNamespace(),
			Tag:         fe.Tag(),
			Value:       fe.Param(),
		})
	}
	return out
}

// Join renders validation failures as one message.
func Join(errs []*ErrorResponse) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}
