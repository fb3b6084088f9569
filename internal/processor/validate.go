package processor

import (
	"strconv"
	"strings"
	"time"

	"CT-SIGN/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	time.RFC3339,
}

// Fields merges declared fields with the placeholders found in the template
// content. Undeclared placeholders are required text fields.
func Fields(placeholders []string, declared []domain.TemplateField) []domain.TemplateField {
	byName := make(map[string]domain.TemplateField, len(declared))
	for _, f := range declared {
		byName[f.Name] = f
	}

	fields := make([]domain.TemplateField, 0, len(placeholders))
	for _, name := range placeholders {
		f, ok := byName[name]
		if !ok {
			f = domain.TemplateField{Name: name, Type: domain.FieldText, Required: true}
		}
		if f.Type == "" {
			f.Type = domain.FieldText
		}
		fields = append(fields, f)
	}
	return fields
}

// Validate checks variables against every placeholder of a template and
// reports all failures at once.
func Validate(placeholders []string, declared []domain.TemplateField, variables map[string]string) error {
	var failures []domain.FieldError

	for _, field := range Fields(placeholders, declared) {
		value := strings.TrimSpace(variables[field.Name])
		if value == "" {
			if field.Required {
				failures = append(failures, domain.FieldError{Field: field.Name, Reason: "is required"})
			}
			continue
		}

		switch field.Type {
		case domain.FieldEmail:
			if err := validate.Var(value, "email"); err != nil {
				failures = append(failures, domain.FieldError{Field: field.Name, Reason: "must be a valid email"})
			}
		case domain.FieldNumber:
			if _, ok := ParseNumber(value); !ok {
				failures = append(failures, domain.FieldError{Field: field.Name, Reason: "must be a number"})
			}
		case domain.FieldDate:
			if _, ok := ParseDate(value); !ok {
				failures = append(failures, domain.FieldError{Field: field.Name, Reason: "must be a date"})
			}
		}
	}

	if len(failures) > 0 {
		return &domain.ValidationError{Fields: failures}
	}
	return nil
}

// ParseNumber accepts plain numbers as well as grouped amounts such as
// "45.000,50" or "R$ 45,000.50". The right-most separator is the decimal one.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return 0, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func ParseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
