package validate

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/incidentstack/incident-resolve/internal/models"
)

// Error identifies the first schema violation found in a payload.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// payload mirrors the inbound incident schema. Required fields are pointers
// so absence is distinguishable from the zero value.
type payload struct {
	IncidentID      *string  `json:"incident_id" validate:"required"`
	Priority        *int     `json:"priority" validate:"required,min=1,max=4"`
	Category        *string  `json:"category" validate:"required,oneof=Performance Availability Network Security"`
	Description     *string  `json:"description" validate:"required,min=10"`
	AffectedSystems []string `json:"affected_systems"`
	Timestamp       *string  `json:"timestamp" validate:"required"`
	Severity        *string  `json:"severity" validate:"omitempty,oneof=Critical High Medium Low"`
	Source          *string  `json:"source"`
}

// Validator checks raw incident payloads against the ingress schema.
// All-or-nothing: no partially valid incident is admitted downstream.
type Validator struct {
	validate *validator.Validate
}

// New constructs a Validator reporting violations by JSON field name.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate parses and checks a raw incident payload. On success it returns
// a typed Incident carrying the fields as submitted; enrichment (labels,
// defaults, receipt time) is the caller's concern.
func (v *Validator) Validate(raw []byte) (models.Incident, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		if typeErr, ok := err.(*json.UnmarshalTypeError); ok && typeErr.Field != "" {
			return models.Incident{}, &Error{
				Field:  typeErr.Field,
				Reason: fmt.Sprintf("must be of type %s", expectedType(typeErr)),
			}
		}
		return models.Incident{}, &Error{Field: "payload", Reason: "is not a valid JSON object"}
	}

	if err := v.validate.Struct(&p); err != nil {
		violations, ok := err.(validator.ValidationErrors)
		if !ok || len(violations) == 0 {
			return models.Incident{}, &Error{Field: "payload", Reason: err.Error()}
		}
		first := violations[0]
		return models.Incident{}, &Error{Field: first.Field(), Reason: describe(first)}
	}

	incident := models.Incident{
		IncidentID:      *p.IncidentID,
		Priority:        *p.Priority,
		Category:        *p.Category,
		Description:     *p.Description,
		AffectedSystems: p.AffectedSystems,
		Timestamp:       *p.Timestamp,
	}
	if p.Severity != nil {
		incident.Severity = *p.Severity
	}
	if p.Source != nil {
		incident.Source = *p.Source
	}
	return incident, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func expectedType(err *json.UnmarshalTypeError) string {
	switch err.Field {
	case "priority":
		return "integer"
	case "affected_systems":
		return "string array"
	default:
		if err.Type != nil && err.Type.Kind() == reflect.Ptr {
			return err.Type.Elem().Kind().String()
		}
		return err.Type.String()
	}
}
