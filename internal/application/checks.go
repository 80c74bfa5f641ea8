package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/oksasatya/storefront-auth/internal/domain/apperror"
	"github.com/oksasatya/storefront-auth/pkg/validation"
)

const (
	MaxNameLength    = 100
	MaxAddressLength = 500
	MaxAnswerLength  = 100
	// bcrypt refuses input past 72 bytes; both secrets are hashed with it.
	MaxPasswordBytes   = 72
	MaxAnswerBytes     = 72
	MinProfilePassword = 6
)

// field is one user-supplied string moving through the checks.
type field struct {
	key   string
	label string
	value *string
}

var labels = map[string]string{
	"name":        "Name",
	"email":       "Email",
	"password":    "Password",
	"phone":       "Phone no",
	"address":     "Address",
	"DOB":         "DOB",
	"answer":      "Answer",
	"newPassword": "New Password",
}

func f(key string, value *string) field {
	return field{key: key, label: labels[key], value: value}
}

func (fl field) get() string {
	if fl.value == nil {
		return ""
	}
	return *fl.value
}

// supplied reports whether an optional field carries a value.
func (fl field) supplied() bool { return fl.get() != "" }

func requirePresent(fields ...field) error {
	for _, fl := range fields {
		if !fl.supplied() {
			return apperror.ForField(apperror.KindMissingField, fl.key, fl.label+" is Required")
		}
	}
	return nil
}

func requireNotBlank(fields ...field) error {
	for _, fl := range fields {
		if !validation.IsNotWhitespaceOnly(fl.get()) {
			return apperror.ForField(apperror.KindWhitespaceOnly, fl.key, fl.label+" cannot be empty or whitespace")
		}
	}
	return nil
}

func requireEmail(email string) error {
	if res := validation.ValidateEmail(email); !res.OK {
		return apperror.ForField(apperror.KindMalformed, "email", res.Reason)
	}
	return nil
}

func requirePhone(phone string) error {
	if res := validation.ValidatePhone(phone); !res.OK {
		return apperror.ForField(apperror.KindMalformed, "phone", res.Reason)
	}
	return nil
}

func requireDOB(dob string, now time.Time) error {
	if res := validation.ValidateDOBAt(dob, now); !res.OK {
		return apperror.ForField(apperror.KindMalformed, "DOB", res.Reason)
	}
	return nil
}

// requireClean runs both hygiene detectors over every value. The failure
// never says which field or pattern matched.
func requireClean(values ...string) error {
	for _, v := range values {
		if !validation.IsClean(v) {
			return apperror.New(apperror.KindInvalidCharacters, apperror.MsgInvalidCharacters)
		}
	}
	return nil
}

func requireMaxChars(fl field, max int) error {
	if res := validation.ValidateLength(fl.get(), max); !res.OK {
		return apperror.ForField(apperror.KindOutOfBounds, fl.key, fl.label+" "+res.Reason)
	}
	return nil
}

func requirePasswordBytes(fl field) error {
	return requireMaxBytes(fl, fl.get(), MaxPasswordBytes)
}

// requireMaxBytes bounds the bytes of v, the form of fl that gets hashed.
func requireMaxBytes(fl field, v string, max int) error {
	if len(v) > max {
		return apperror.ForField(apperror.KindOutOfBounds, fl.key,
			fmt.Sprintf("%s must be at most %d bytes", fl.label, max))
	}
	return nil
}

func requireMinPassword(fl field) error {
	if len([]rune(strings.TrimSpace(fl.get()))) < MinProfilePassword {
		return apperror.ForField(apperror.KindOutOfBounds, fl.key,
			fmt.Sprintf("%s must be at least %d characters long", fl.label, MinProfilePassword))
	}
	return nil
}

// firstErr returns the first failing check, in order.
func firstErr(checks ...func() error) error {
	for _, c := range checks {
		if err := c(); err != nil {
			return err
		}
	}
	return nil
}
