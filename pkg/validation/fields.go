package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxEmailLength = 254
	MinPhoneDigits = 7
	MaxPhoneDigits = 15
	DateLayout     = "2006-01-02"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[0-9]{7,15}$`)
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Result is the outcome of a field check. Reason is empty when OK.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func pass() Result               { return Result{OK: true} }
func fail(reason string) Result { return Result{Reason: reason} }

func ValidateEmail(v string) Result {
	if v == "" {
		return fail("Email is required")
	}
	if len(v) > MaxEmailLength {
		return fail(fmt.Sprintf("Email must be at most %d characters", MaxEmailLength))
	}
	if !emailRe.MatchString(v) {
		return fail("Invalid email format")
	}
	return pass()
}

func IsValidEmail(v string) bool { return ValidateEmail(v).OK }

func ValidatePhone(v string) Result {
	if v == "" {
		return fail("Phone number is required")
	}
	if !phoneRe.MatchString(v) {
		return fail(fmt.Sprintf("Phone number must contain %d to %d digits only", MinPhoneDigits, MaxPhoneDigits))
	}
	return pass()
}

func IsValidPhone(v string) bool { return ValidatePhone(v).OK }

// ValidateDOB checks a YYYY-MM-DD date of birth against the current day.
func ValidateDOB(v string) Result {
	return ValidateDOBAt(v, time.Now())
}

// ValidateDOBAt checks v as of the calendar day of now. A date equal to that
// day is accepted; the next day is not.
func ValidateDOBAt(v string, now time.Time) Result {
	if v == "" {
		return fail("DOB is required")
	}
	if !dateRe.MatchString(v) {
		return fail("DOB must be in YYYY-MM-DD format")
	}
	d, err := time.Parse(DateLayout, v)
	if err != nil || d.Format(DateLayout) != v {
		return fail("DOB must be a valid calendar date")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.After(today) {
		return fail("DOB cannot be in the future")
	}
	return pass()
}

func IsValidDOB(v string) bool { return ValidateDOB(v).OK }

// ParseDOB parses a value that already passed ValidateDOB.
func ParseDOB(v string) (time.Time, error) {
	return time.Parse(DateLayout, v)
}

// ValidateLength bounds v to max characters (runes, not bytes).
func ValidateLength(v string, max int) Result {
	if utf8.RuneCountInString(v) > max {
		return fail(fmt.Sprintf("must be at most %d characters", max))
	}
	return pass()
}

func IsValidLength(v string, max int) bool { return ValidateLength(v, max).OK }

func IsNotWhitespaceOnly(v string) bool {
	return strings.TrimSpace(v) != ""
}

// CanonicalEmail is the uniqueness key for an account.
func CanonicalEmail(v string) string {
	return strings.TrimSpace(strings.ToLower(v))
}

// CanonicalAnswer is the comparable form of a security answer.
func CanonicalAnswer(v string) string {
	return strings.TrimSpace(strings.ToLower(v))
}
