package service

import (
	"strings"

	"biro-server/pkg/validator"
)

// validate runs struct tags and reports the first failing field.
func validate(req interface{}) error {
	errs := validator.ValidateStruct(req)
	if len(errs) == 0 {
		return nil
	}
	field := errs[0].FailedField
	if i := strings.LastIndex(field, "."); i >= 0 {
		field = field[i+1:]
	}
	return invalid(strings.ToLower(field), validator.Join(errs))
}
