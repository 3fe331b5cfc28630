package document

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// IsList reports whether the argument is a slice or array.
func IsList(d any) bool {
	dv := reflect.ValueOf(d)
	return dv.Kind() == reflect.Slice || dv.Kind() == reflect.Array
}

// AsList converts an argument into a generic list.
func AsList(d any) ([]any, error) {
	if !IsList(d) {
		return nil, fmt.Errorf("argument is not a list: %v", d)
	}

	ret, ok := d.([]any)
	if !ok {
		dv := reflect.ValueOf(d)
		ret = make([]any, dv.Len())
		for i := 0; i < dv.Len(); i++ {
			ret[i] = dv.Index(i).Interface()
		}
	}

	return ret, nil
}

// AsBool converts an argument into a boolean.
func AsBool(d any) (bool, error) {
	if d == nil {
		return false, errors.New("argument is nil")
	}

	if reflect.ValueOf(d).Kind() == reflect.Bool {
		return reflect.ValueOf(d).Bool(), nil
	}
	return false, fmt.Errorf("argument is not a boolean: %v", d)
}

// AsString converts an argument into a string.
func AsString(d any) (string, error) {
	if d == nil {
		return "", errors.New("argument is nil")
	}

	switch reflect.ValueOf(d).Kind() { //nolint:exhaustive
	case reflect.String:
		return reflect.ValueOf(d).String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(reflect.ValueOf(d).Int(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(reflect.ValueOf(d).Float(), 'g', -1, 64), nil
	}

	return "", fmt.Errorf("argument is not a string: %v", d)
}

// AsStringList converts an argument into a list of strings.
func AsStringList(d any) ([]string, error) {
	vs, err := AsList(d)
	if err != nil {
		return nil, err
	}

	ret := make([]string, 0, len(vs))
	for _, v := range vs {
		arg, err := AsString(v)
		if err != nil {
			return nil, err
		}
		ret = append(ret, arg)
	}
	return ret, nil
}

// AsInt converts an argument into an int64.
func AsInt(d any) (int64, error) {
	if d == nil {
		return 0, errors.New("argument is nil")
	}

	switch reflect.ValueOf(d).Kind() { //nolint:exhaustive
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(d).Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(reflect.ValueOf(d).Uint()), nil
	}

	return 0, fmt.Errorf("argument is not an int: %v", d)
}

// AsFloat converts an argument into a float64. Integers widen.
func AsFloat(d any) (float64, error) {
	if d == nil {
		return 0.0, errors.New("argument is nil")
	}

	switch reflect.ValueOf(d).Kind() { //nolint:exhaustive
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(d).Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(reflect.ValueOf(d).Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(reflect.ValueOf(d).Uint()), nil
	}

	return 0.0, fmt.Errorf("argument is not a number: %v", d)
}

// IsNumeric reports whether the argument coerces to a number.
func IsNumeric(d any) bool {
	_, err := AsFloat(d)
	return err == nil
}

// AsIntOrFloat converts an argument into an int64 or a float64, preferring
// the integer representation, and reports which one it produced.
func AsIntOrFloat(d any) (int64, float64, reflect.Kind, error) {
	switch v := d.(type) {
	case int64:
		return v, 0.0, reflect.Int64, nil
	case float64:
		return 0, v, reflect.Float64, nil
	}

	if i, err := AsInt(d); err == nil {
		return i, 0.0, reflect.Int64, nil
	}
	if f, err := AsFloat(d); err == nil {
		return 0, f, reflect.Float64, nil
	}

	return 0, 0.0, reflect.Invalid, fmt.Errorf("argument is not an int or float: %v", d)
}

// AsObject converts an argument into a document.
func AsObject(d any) (Document, error) {
	if u, ok := d.(map[string]any); ok && u != nil {
		return u, nil
	}
	return nil, fmt.Errorf("argument is not an object: %v", d)
}

// AsObjectList converts an argument into a list of documents.
func AsObjectList(d any) ([]Document, error) {
	vs, err := AsList(d)
	if err != nil {
		return nil, err
	}

	ret := make([]Document, 0, len(vs))
	for _, v := range vs {
		arg, err := AsObject(v)
		if err != nil {
			return nil, err
		}
		ret = append(ret, arg)
	}
	return ret, nil
}
