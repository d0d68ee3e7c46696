package login

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Message keys in the "login" namespace used for inline field errors.
const (
	MsgEmailRequired    = "Please input your email"
	MsgEmailInvalid     = "Email is invalid"
	MsgPasswordRequired = "Please input your password!"
	MsgRejected         = "Invalid email or password"
)

// Form is the raw login form as posted by the browser.
type Form struct {
	Email    string `schema:"email" validate:"required,email"`
	Password string `schema:"password" validate:"required"`
}

// Credentials is a validated identifier/secret pair. It only exists for the
// duration of a submit call.
type Credentials struct {
	Email    string
	Password string
}

// FieldErrors maps a form field name to the message key describing its first
// failing rule.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, fe[f]))
	}
	return "invalid login form: " + strings.Join(parts, ", ")
}

var messages = map[string]map[string]string{
	"email": {
		"required": MsgEmailRequired,
		"email":    MsgEmailInvalid,
	},
	"password": {
		"required": MsgPasswordRequired,
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("schema"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseCredentials validates form and turns it into Credentials. When any rule
// fails, the returned FieldErrors is non-nil and Credentials is empty.
func ParseCredentials(form Form) (Credentials, FieldErrors) {
	form.Email = strings.TrimSpace(form.Email)

	err := validate.Struct(form)
	if err == nil {
		return Credentials{Email: form.Email, Password: form.Password}, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Only reachable with a programming error in the struct tags.
		panic(err)
	}

	fieldErrs := FieldErrors{}
	for _, ve := range verrs {
		if _, exists := fieldErrs[ve.Field()]; exists {
			continue
		}

		msg, ok := messages[ve.Field()][ve.Tag()]
		if !ok {
			msg = ve.Error()
		}
		fieldErrs[ve.Field()] = msg
	}

	return Credentials{}, fieldErrs
}
