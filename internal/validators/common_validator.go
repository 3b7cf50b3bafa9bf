package validators

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	serviceTagRegex  = regexp.MustCompile(`^[a-z0-9]+(?:[_\-][a-z0-9]+)*$`)
	phoneNumberRegex = regexp.MustCompile(`^\+?[0-9][0-9\s\-()]{5,31}$`)
	htmlRegex        = regexp.MustCompile(`<[^>]*>`)
)

func init() {
	validate = validator.New()

	// Report field names using their JSON tags so causes match the payload.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	validate.RegisterValidation("service_tag", validateServiceTag)
	validate.RegisterValidation("phone_number", validatePhoneNumber)
	validate.RegisterValidation("past_date", validatePastDate)
}

var (
	ErrInvalidServiceTag  = errors.New("invalid service tag")
	ErrInvalidCoordinates = errors.New("latitude and longitude must be provided together")
)

// ValidationError is a single field cause.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Err returns nil for an empty list so callers can write `if err := x.Err(); err != nil`.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Field: "payload", Tag: "invalid", Message: err.Error()}}
	}

	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldPath(fe),
			Tag:     fe.Tag(),
			Value:   valueString(fe),
			Message: getErrorMessage(fe),
		})
	}

	return validationErrors
}

// fieldPath drops the struct name from the namespace, e.g.
// "ReportSubmission.required_services[1]" becomes "required_services[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func valueString(fe validator.FieldError) string {
	v := reflect.ValueOf(fe.Value())
	if !v.IsValid() {
		return ""
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Struct:
		return ""
	}
	return fmt.Sprintf("%v", v.Interface())
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return "Invalid email format"
	case "url":
		return "Invalid URL"
	case "min":
		if err.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", err.Field(), err.Param())
		}
		if isNumeric(err.Kind()) {
			return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
	case "max":
		if err.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", err.Field(), err.Param())
		}
		if isNumeric(err.Kind()) {
			return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), strings.ReplaceAll(err.Param(), " ", ", "))
	case "service_tag":
		return "Service tags are lowercase words joined by '_' or '-'"
	case "phone_number":
		return "Invalid phone number format"
	case "past_date":
		return "Date must not be in the future"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// validateServiceTag accepts tags in any case; they are lowercased before storage.
func validateServiceTag(fl validator.FieldLevel) bool {
	tag := strings.ToLower(strings.TrimSpace(fl.Field().String()))
	return len(tag) <= 64 && serviceTagRegex.MatchString(tag)
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if phone == "" {
		return true
	}
	return phoneNumberRegex.MatchString(phone)
}

// validatePastDate allows a minute of clock skew.
func validatePastDate(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	date, ok := field.Interface().(time.Time)
	if !ok {
		return false
	}
	return !date.After(time.Now().Add(time.Minute))
}

// coordinatePair reports a cause when exactly one of lat/lng is set.
func coordinatePair(lat, lng *float64) *ValidationError {
	if (lat == nil) == (lng == nil) {
		return nil
	}
	field := "latitude"
	if lat != nil {
		field = "longitude"
	}
	return &ValidationError{
		Field:   field,
		Tag:     "required_with",
		Message: ErrInvalidCoordinates.Error(),
	}
}

func SanitizeInput(input string) string {
	cleaned := htmlRegex.ReplaceAllString(input, "")
	return strings.TrimSpace(cleaned)
}
