// Package inputval provides form input validation using waffle/pantry/validate.
//
// Define an input struct with validate tags, populate it from form values,
// and call Validate to get user-friendly error messages.
//
// Example:
//
//	input := inputval.LoginInput{
//	    Username: r.FormValue("username"),
//	    Password: r.FormValue("password"),
//	}
//
//	if res := inputval.Validate(input); res.HasErrors() {
//	    renderWithError(w, r, res.First())
//	    return
//	}
package inputval

import (
	"net/mail"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/waffle/pantry/validate"
)

// DateLayout is the calendar date format the remote service accepts.
const DateLayout = "2006-01-02"

// Result holds validation results with user-friendly messages.
type Result struct {
	Errors []FieldError
}

// FieldError represents a validation error for a single field.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or empty string if no errors.
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// All returns all error messages joined with "; ".
func (r *Result) All() string {
	if len(r.Errors) == 0 {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

func (r *Result) add(field, label, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Label: label, Message: msg})
}

// LoginInput is the login form.
type LoginInput struct {
	Username string `json:"username" validate:"required,max=255" label:"Username"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// SignupInput is the registration form. There is no confirmation field;
// the remote service's password_repeat is filled from Password.
type SignupInput struct {
	Username string `json:"username" validate:"required,max=255" label:"Username"`
	Email    string `json:"email" validate:"required,email,max=254" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// DateRangeInput is a start/end pair for summary lookups.
type DateRangeInput struct {
	Start string `json:"start" validate:"required,isodate" label:"Start date"`
	End   string `json:"end" validate:"required,isodate" label:"End date"`
}

// customValidator is a singleton validator with custom rules registered.
var (
	customValidator *validate.Validator
	validatorOnce   sync.Once
)

// getValidator returns the singleton validator with custom rules.
func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		customValidator = validate.New(validate.WithStopOnFirstError())

		// httpurl: validates that string is a valid http/https URL
		customValidator.RegisterRuleFunc("httpurl", func(value any) bool {
			if s, ok := value.(string); ok {
				return IsValidHTTPURL(s)
			}
			return false
		}, "httpurl")

		// isodate: validates a YYYY-MM-DD calendar date
		customValidator.RegisterRuleFunc("isodate", func(value any) bool {
			if s, ok := value.(string); ok {
				return IsValidDate(s)
			}
			return false
		}, "isodate")
	})
	return customValidator
}

// Validate validates a struct and returns a Result with user-friendly errors.
// The struct should have `validate` tags for rules and optional `label` tags
// for user-friendly field names.
//
// Supported validation rules (from pantry/validate):
//   - required: field must not be empty
//   - email: field must be a valid email address
//   - oneof=a b c: field must be one of the specified values
//   - min=N: string length or numeric value must be >= N
//   - max=N: string length or numeric value must be <= N
//
// Custom validation rules (registered by this package):
//   - httpurl: field must be a valid http:// or https:// URL
//   - isodate: field must be a YYYY-MM-DD date
//
// DateRangeInput additionally requires End not to precede Start.
func Validate(s any) *Result {
	result := &Result{}

	v := getValidator()
	if err := v.Struct(s); err != nil {
		// Get field labels from struct tags
		labels := getFieldLabels(s)

		if errs, ok := err.(validate.Errors); ok {
			for _, e := range errs {
				label := labels[e.Field]
				if label == "" {
					label = e.Field
				}
				result.add(e.Field, label, formatMessage(label, e.Rule, e.Param))
			}
		}
	}

	if result.HasErrors() {
		return result
	}

	switch in := s.(type) {
	case DateRangeInput:
		checkDateRange(result, in)
	case *DateRangeInput:
		checkDateRange(result, *in)
	}
	return result
}

func checkDateRange(r *Result, in DateRangeInput) {
	start, _ := time.Parse(DateLayout, in.Start)
	end, _ := time.Parse(DateLayout, in.End)
	if end.Before(start) {
		r.add("end", "End date", "End date must not be before the start date.")
	}
}

// getFieldLabels extracts the "label" tag from struct fields.
func getFieldLabels(s any) map[string]string {
	labels := make(map[string]string)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return labels
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		// Get the field name (use json tag if available)
		fieldName := field.Name
		if jsonTag := field.Tag.Get("json"); jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" && parts[0] != "-" {
				fieldName = parts[0]
			}
		}

		if label := field.Tag.Get("label"); label != "" {
			labels[fieldName] = label
		}
	}

	return labels
}

// formatMessage creates a user-friendly message for a validation rule.
func formatMessage(label, rule, param string) string {
	switch rule {
	case "required":
		return label + " is required."
	case "email":
		return "A valid email address is required."
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "min":
		return label + " must be at least " + param + " characters."
	case "max":
		return label + " must be at most " + param + " characters."
	case "httpurl":
		return label + " must be a valid URL starting with http:// or https://."
	case "isodate":
		return label + " must be a date in YYYY-MM-DD format."
	default:
		return label + " is invalid."
	}
}

// IsValidEmail checks if the given string has a valid email format.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}

	// ParseAddress accepts "Name <email>" format, so verify the address
	// matches what we passed in (just the email part).
	return addr.Address == email
}

// IsValidHTTPURL checks if the given string is a valid http:// or https:// URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidDate checks for a YYYY-MM-DD date.
func IsValidDate(s string) bool {
	_, err := time.Parse(DateLayout, strings.TrimSpace(s))
	return err == nil
}
