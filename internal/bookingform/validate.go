package bookingform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var draftValidator = validator.New(validator.WithRequiredStructEnabled())

var fieldNames = map[string]string{
	"ProductID":    "productId",
	"FirstName":    "firstName",
	"LastName":     "lastName",
	"Email":        "email",
	"Phone":        "phone",
	"Participants": "numberOfPeople",
	"ResellerID":   "resellerId",
	"Notes":        "notes",
}

// ValidationError carries field-level messages keyed by the API field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
	}
	return "booking draft invalid: " + strings.Join(parts, "; ")
}

func validateDraft(d Draft, target *Target) map[string]string {
	fields := map[string]string{}

	if err := draftValidator.Struct(d); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				name := fieldNames[fe.StructField()]
				if name == "" {
					name = fe.Field()
				}
				fields[name] = messageFor(fe)
			}
		} else {
			fields["draft"] = err.Error()
		}
	}

	if target == nil || target.ProductID == "" {
		fields["productId"] = "is required"
	} else if d.Participants > target.RemainingCapacity {
		fields["numberOfPeople"] = fmt.Sprintf("must be at most %d", target.RemainingCapacity)
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "email":
		return "must be a valid email"
	case "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
