package document

import (
	"errors"

	"github.com/ohler55/ojg/jp"
)

// GetJSONPath evaluates a JSONPath expression rooted at "$" on the given
// document and returns the first match, or nil if the path resolves to
// nothing. A nil result stands for the distinguished "absent" value: it is
// never an error to reference a field a row does not carry.
func GetJSONPath(query string, doc any) (any, error) {
	// handle root ref "$." that is not handled by ojg/jp
	if query == "$." {
		query = "$"
	}

	je, err := jp.ParseString(query)
	if err != nil {
		return nil, err
	}

	values := je.Get(doc)
	if len(values) == 0 {
		return nil, nil
	}

	return values[0], nil
}

// SetJSONPath sets a key (possibly a JSONPath expression) to a value in the
// given document, creating intermediate maps as needed.
func SetJSONPath(key string, value, target any) error {
	if len(key) == 0 {
		return errors.New("empty key")
	}

	// plain field name: set as is
	if d, ok := target.(Document); ok && key[0] != '$' {
		d[key] = value
		return nil
	}

	je, err := jp.ParseString(key)
	if err != nil {
		return err
	}

	return je.Set(target, value)
}
