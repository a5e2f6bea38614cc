// Package validation checks client form fields against their fixed rules.
package validation

import (
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"wellness-step-by-step/client-form/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// whole numbers given as floats, so "18.0" counts as 18
	_ = v.RegisterValidation("integer", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return f == math.Trunc(f)
	})
	return v
}

const ageNotNumber = "Only number allowed"

// check is one validator tag and the message shown when it fails.
type check struct {
	tag     string
	message string
	// numeric checks run against the parsed age instead of the text
	numeric bool
}

var rules = map[string][]check{
	models.FieldName: {
		{tag: "required", message: "Name is required"},
		{tag: "min=4", message: "Names should be of minimum 4 characters length"},
	},
	models.FieldPhone: {
		{tag: "required", message: "Phone is required"},
		{tag: "min=8", message: "Phone should be of minimum 8 characters length"},
	},
	models.FieldEmail: {
		{tag: "required", message: "Email is required"},
		{tag: "email", message: "Enter a valid email"},
	},
	models.FieldAge: {
		{tag: "required", message: "Age is required"},
		{tag: "gt=0", message: "Age must be a positive number", numeric: true},
		{tag: "gt=17", message: "You should have more than 18", numeric: true},
		{tag: "lt=90", message: "Are you sure you are more than 90?", numeric: true},
		{tag: "integer", message: "Age must be an integer", numeric: true},
	},
	models.FieldGender: {
		{tag: "max=1,oneof=F M X", message: "Only M,F or X allowed"},
	},
	models.FieldAddress: {
		{tag: "omitempty,min=10", message: "Address should be of minimum 10 characters length"},
	},
	models.FieldState: {
		{tag: "omitempty,min=5", message: "State should be of minimum 5 characters length"},
	},
	models.FieldCity: {
		{tag: "omitempty,min=5", message: "City should be of minimum 5 characters length"},
	},
	models.FieldZip: {
		{tag: "omitempty,min=4", message: "Zip Code should be of minimum 4 characters length"},
	},
}

// Validate returns field name -> message for every field that breaks a rule.
// An empty map means the values can be submitted.
func Validate(values models.Values) map[string]string {
	errs := make(map[string]string)
	for _, field := range models.Fields {
		value, _ := values.Get(field)
		if msg := Field(field, value); msg != "" {
			errs[field] = msg
		}
	}
	return errs
}

// Field validates a single field and returns the first failing rule's
// message, or "" when the value is acceptable. Unknown fields always pass.
func Field(field, value string) string {
	if field == models.FieldGender {
		value = NormalizeGender(value)
	}
	for _, c := range rules[field] {
		var subject any = value
		if c.numeric {
			n, err := models.ParseAge(value)
			if err != nil {
				return ageNotNumber
			}
			subject = n
		}
		if err := validate.Var(subject, c.tag); err != nil {
			return c.message
		}
	}
	return ""
}

// NormalizeGender uppercases the gender value the way it is stored.
func NormalizeGender(value string) string {
	return strings.ToUpper(value)
}
