package services

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

// FieldError describes a single invalid field, named as it appears on the wire.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasField reports whether the named field is among the failures.
func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// itemRules holds the validated shape of an item, whether new or merged
// from a partial update.
type itemRules struct {
	ItemName     string           `json:"itemName" validate:"required,notblank,min=3,max=200"`
	Quantity     int              `json:"quantity" validate:"gte=0"`
	ReorderLevel int              `json:"reorderLevel" validate:"gte=0"`
	UnitPrice    *decimal.Decimal `json:"unitPrice" validate:"required,gte=0"`
	SupplierName string           `json:"supplierName" validate:"required,notblank"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", e.Field())
	case "min", "max":
		return fmt.Sprintf("%s must be between 3 and 200 characters", e.Field())
	case "gte":
		return fmt.Sprintf("%s must be non-negative", e.Field())
	default:
		return fmt.Sprintf("%s failed on the '%s' rule", e.Field(), e.Tag())
	}
}

func validateItem(v *validator.Validate, rules itemRules) error {
	err := v.Struct(rules)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("failed to validate item: %w", err)
	}
	verr := &ValidationError{}
	for _, e := range validationErrors {
		verr.Fields = append(verr.Fields, FieldError{Field: e.Field(), Message: fieldMessage(e)})
	}
	return verr
}
