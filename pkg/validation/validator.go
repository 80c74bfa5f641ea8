package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Custom tag names. They carry the same predicates the workflows apply, so a
// struct bound with these tags is judged exactly like a workflow field.
const (
	TagXSSFree   = "xssfree"
	TagSQLFree   = "sqlfree"
	TagNotBlank  = "notblank"
	TagShopEmail = "shopemail"
	TagShopPhone = "shopphone"
	TagDOB       = "dob"
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers the storefront field tags.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register installs tag names and custom validations on v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "" {
			tag = fld.Tag.Get("form")
		}
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(TagXSSFree, stringRule(func(s string) bool { return !ContainsXSS(s) }))
	_ = v.RegisterValidation(TagSQLFree, stringRule(func(s string) bool { return !ContainsInjectionPattern(s) }))
	_ = v.RegisterValidation(TagNotBlank, stringRule(IsNotWhitespaceOnly))
	_ = v.RegisterValidation(TagShopEmail, stringRule(IsValidEmail))
	_ = v.RegisterValidation(TagShopPhone, stringRule(IsValidPhone))
	_ = v.RegisterValidation(TagDOB, stringRule(IsValidDOB))
}

// stringRule adapts a string predicate; non-string fields always fail.
func stringRule(fn func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.String {
			return false
		}
		return fn(f.String())
	}
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		field := ute.Field
		if field == "" {
			field = "payload"
		}
		return map[string]string{field: "must be a " + ute.Type.String()}
	}
	if errors.As(err, &se) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()

	switch tag {
	case "required":
		return "is required"
	case "email", TagShopEmail:
		return "must be a valid email"
	case "e164", TagShopPhone:
		return "must be a valid phone number"
	case TagDOB:
		return "must be a past date in YYYY-MM-DD format"
	case TagNotBlank:
		return "cannot be whitespace only"
	case TagXSSFree, TagSQLFree:
		return "contains invalid characters"
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", param)
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters long"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "numeric":
		return "must be numeric"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", tag, param)
		}
		return fmt.Sprintf("validation failed for '%s'", tag)
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
