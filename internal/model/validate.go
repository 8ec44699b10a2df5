package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so clients can match errors to their form fields
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// messages maps "StructField.tag" to the text surfaced to the operator.
type messages map[string]string

// check runs struct validation and turns the first failure into a
// ValidationError carrying a human readable message.
func check(v any, msgs messages) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	msg, ok := msgs[fe.StructField()+"."+fe.Tag()]
	if !ok {
		msg = fmt.Sprintf("%s is invalid.", fe.Field())
	}
	return Invalid(fe.Field(), msg)
}

// Check validates any struct carrying validator tags, using the generic
// "<field> is invalid." message for failures. Inputs outside this package
// (such as auth requests) pass their own messages.
func Check(v any, msgs map[string]string) error {
	return check(v, messages(msgs))
}
