package schema

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// Validator gates uploaded batches against a Spec.
type Validator struct {
	spec *Spec
}

// NewValidator creates a validator for spec.
func NewValidator(spec *Spec) *Validator {
	return &Validator{spec: spec}
}

// Spec returns the spec in use.
func (v *Validator) Spec() *Spec {
	return v.spec
}

// ValidateBatch checks a decoded batch. The batch must be a sequence of objects; each
// object must carry every required field and every declared field present must match
// its type union. Undeclared fields are ignored. Validation stops at the first violation.
func (v *Validator) ValidateBatch(batch interface{}) error {
	switch records := batch.(type) {
	case []interface{}:
		for i, rec := range records {
			obj, ok := rec.(map[string]interface{})
			if !ok {
				return &ValidationError{
					Schema:       v.spec.Name,
					Version:      v.spec.Version,
					Record:       i,
					Message:      "record must be an object",
					ExpectedType: "object",
					ActualType:   jsonTypeName(rec),
				}
			}
			if err := v.ValidateRecord(i, obj); err != nil {
				return err
			}
		}
		return nil

	case []map[string]interface{}:
		for i, obj := range records {
			if err := v.ValidateRecord(i, obj); err != nil {
				return err
			}
		}
		return nil

	default:
		return &ValidationError{
			Schema:       v.spec.Name,
			Version:      v.spec.Version,
			Record:       -1,
			Message:      "root element must be an array",
			ExpectedType: "array",
			ActualType:   jsonTypeName(batch),
		}
	}
}

// ValidateRecord checks a single record; index is only used for reporting.
func (v *Validator) ValidateRecord(index int, data map[string]interface{}) error {
	for _, f := range v.spec.Fields {
		if !f.Required {
			continue
		}
		if _, exists := data[f.Name]; !exists {
			return NewRequiredFieldError(v.spec, index, f.Name)
		}
	}

	for _, f := range v.spec.Fields {
		value, exists := data[f.Name]
		if !exists {
			continue
		}
		if err := v.validateField(index, f, value); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateField(index int, f *Field, value interface{}) error {
	kind, num, ok := classify(value)
	if !ok || !allowed(f, kind) {
		return NewTypeMismatchError(v.spec, index, f.Name, f.Expected(), jsonTypeName(value))
	}

	if f.Min != nil && (kind == KindInteger || kind == KindNumber) && num < *f.Min {
		return &ValidationError{
			Schema:  v.spec.Name,
			Version: v.spec.Version,
			Record:  index,
			Field:   f.Name,
			Message: fmt.Sprintf("value %v is less than minimum %v", num, *f.Min),
		}
	}
	return nil
}

// allowed applies union membership; an integer also satisfies "number".
func allowed(f *Field, k Kind) bool {
	if f.Allows(k) {
		return true
	}
	return k == KindInteger && f.Allows(KindNumber)
}

// classify maps a decoded JSON value to the narrowest Kind it satisfies.
func classify(value interface{}) (Kind, float64, bool) {
	switch val := value.(type) {
	case nil:
		return KindNull, 0, true
	case string:
		return KindString, 0, true
	case bool:
		return KindBoolean, 0, true
	case float64:
		if !math.IsInf(val, 0) && val == math.Trunc(val) {
			return KindInteger, val, true
		}
		return KindNumber, val, true
	case int:
		return KindInteger, float64(val), true
	case int64:
		return KindInteger, float64(val), true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return KindInteger, float64(i), true
		}
		if fl, err := val.Float64(); err == nil {
			return KindNumber, fl, true
		}
		return "", 0, false
	default:
		return "", 0, false
	}
}

// jsonTypeName returns a human-readable type name for JSON values.
func jsonTypeName(v interface{}) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case bool:
		return "boolean"
	case float64, int, int64, json.Number:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
