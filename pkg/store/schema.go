package store

import (
	"fmt"
	"regexp"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/document"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/util"
)

// FieldType names the primitive type a schema field accepts.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeDouble FieldType = "double"
	TypeBool   FieldType = "bool"
	TypeDate   FieldType = "date"
	TypeArray  FieldType = "array"
	TypeObject FieldType = "object"
)

// Field is a declarative constraint on one document field: type, bounds,
// enum membership and pattern for scalars, item schema for arrays, nested
// fields for objects.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required,omitempty"`
	Min      *float64  `json:"min,omitempty"`
	Max      *float64  `json:"max,omitempty"`
	Enum     []string  `json:"enum,omitempty"`
	Pattern  string    `json:"pattern,omitempty"`
	MinItems int       `json:"minItems,omitempty"`
	Items    *Field    `json:"items,omitempty"`
	Fields   []Field   `json:"fields,omitempty"`
}

// Schema is the constraint descriptor for one collection.
type Schema struct {
	Collection string  `json:"collection"`
	Fields     []Field `json:"fields"`
}

// ConstraintError reports a document that violates its collection schema.
type ConstraintError struct {
	Collection string
	Field      string
	Message    string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violation in collection %q, field %q: %s",
		e.Collection, e.Field, e.Message)
}

// Validate checks a document against the schema.
func (s *Schema) Validate(doc document.Document) error {
	for i := range s.Fields {
		f := &s.Fields[i]
		val, present := doc[f.Name]
		if !present || val == nil {
			if f.Required {
				return &ConstraintError{Collection: s.Collection, Field: f.Name,
					Message: "required field missing"}
			}
			continue
		}

		if err := s.validateValue(f, f.Name, val); err != nil {
			return err
		}
	}

	return nil
}

func (s *Schema) validateValue(f *Field, path string, val any) error {
	fail := func(msg string) error {
		return &ConstraintError{Collection: s.Collection, Field: path, Message: msg}
	}

	switch f.Type {
	case TypeString, TypeDate:
		str, err := document.AsString(val)
		if err != nil {
			return fail(fmt.Sprintf("expected a %s, got %s", f.Type, util.Stringify(val)))
		}
		if f.Pattern != "" {
			re, err := regexp.Compile(f.Pattern)
			if err != nil {
				return fail(fmt.Sprintf("invalid pattern %q", f.Pattern))
			}
			if !re.MatchString(str) {
				return fail(fmt.Sprintf("value %q does not match pattern %q", str, f.Pattern))
			}
		}
		if len(f.Enum) > 0 {
			found := false
			for _, e := range f.Enum {
				if e == str {
					found = true
					break
				}
			}
			if !found {
				return fail(fmt.Sprintf("value %q not in enum %v", str, f.Enum))
			}
		}

	case TypeInt:
		i, err := document.AsInt(val)
		if err != nil {
			return fail(fmt.Sprintf("expected an int, got %s", util.Stringify(val)))
		}
		if f.Min != nil && float64(i) < *f.Min {
			return fail(fmt.Sprintf("value %d below minimum %v", i, *f.Min))
		}
		if f.Max != nil && float64(i) > *f.Max {
			return fail(fmt.Sprintf("value %d above maximum %v", i, *f.Max))
		}

	case TypeDouble:
		x, err := document.AsFloat(val)
		if err != nil {
			return fail(fmt.Sprintf("expected a number, got %s", util.Stringify(val)))
		}
		if f.Min != nil && x < *f.Min {
			return fail(fmt.Sprintf("value %v below minimum %v", x, *f.Min))
		}
		if f.Max != nil && x > *f.Max {
			return fail(fmt.Sprintf("value %v above maximum %v", x, *f.Max))
		}

	case TypeBool:
		if _, err := document.AsBool(val); err != nil {
			return fail(fmt.Sprintf("expected a bool, got %s", util.Stringify(val)))
		}

	case TypeArray:
		list, err := document.AsList(val)
		if err != nil {
			return fail(fmt.Sprintf("expected an array, got %s", util.Stringify(val)))
		}
		if len(list) < f.MinItems {
			return fail(fmt.Sprintf("array has %d items, minimum is %d", len(list), f.MinItems))
		}
		if f.Items != nil {
			for i, elem := range list {
				if err := s.validateValue(f.Items, fmt.Sprintf("%s[%d]", path, i), elem); err != nil {
					return err
				}
			}
		}

	case TypeObject:
		obj, err := document.AsObject(val)
		if err != nil {
			return fail(fmt.Sprintf("expected an object, got %s", util.Stringify(val)))
		}
		for i := range f.Fields {
			sub := &f.Fields[i]
			subVal, present := obj[sub.Name]
			subPath := path + "." + sub.Name
			if !present || subVal == nil {
				if sub.Required {
					return &ConstraintError{Collection: s.Collection, Field: subPath,
						Message: "required field missing"}
				}
				continue
			}
			if err := s.validateValue(sub, subPath, subVal); err != nil {
				return err
			}
		}

	default:
		return fail(fmt.Sprintf("unknown field type %q", f.Type))
	}

	return nil
}

// FloatPtr is a convenience for schema literals.
func FloatPtr(f float64) *float64 { return &f }
