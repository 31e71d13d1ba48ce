package validator

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// registration lists the constraints the usuarios service documents for POST /users/register.
type registration struct {
	Email          string `json:"email" validate:"required,email"`
	HashPassword   string `json:"hashPassword" validate:"required"`
	Username       string `json:"username" validate:"required"`
	NumberDocument string `json:"numberDocument" validate:"required,numeric"`
	TypeDocument   string `json:"typeDocument" validate:"omitempty,oneof=CC CE TI PP NIT"`
	PhoneNumber    string `json:"phoneNumber" validate:"omitempty,numeric"`
	BornDate       string `json:"bornDate" validate:"omitempty,datetime=2006-01-02"`
}

var userValidate = newUserValidate()

func newUserValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		return name
	})
	return v
}

// UserRegistration reports whether a registration payload is one the usuarios service ought to
// accept. Suites use it to decide which status codes to expect.
func UserRegistration(payload ldvalue.Value) Result {
	var f findings
	if payload.Type() != ldvalue.ObjectType {
		f.add("Registration payload must be an object")
		return f.result()
	}
	for _, field := range []string{"email", "hashPassword", "username", "numberDocument"} {
		if v, ok := payload.TryGetByKey(field); ok && !v.IsString() {
			f.add("Field '%s' must be a string", field)
		}
	}
	if len(f) != 0 {
		return f.result()
	}
	var r registration
	if err := json.Unmarshal([]byte(payload.JSONString()), &r); err != nil {
		f.add("Registration payload is malformed: %s", err)
		return f.result()
	}
	if err := userValidate.Struct(r); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				f.add("Field '%s' failed '%s' validation", fe.Field(), fe.Tag())
			}
		} else {
			f.add("%s", err)
		}
	}
	return f.result()
}
