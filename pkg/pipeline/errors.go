package pipeline

import (
	"errors"
	"fmt"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/util"
)

// ExpressionError wraps a failure inside expression evaluation, keeping the
// offending expression for context.
type ExpressionError struct {
	Expression string
	Err        error
}

func NewExpressionError(e *Expression, err error) error {
	return &ExpressionError{Expression: e.String(), Err: err}
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("failed to evaluate expression %s: %s", e.Expression, e.Err.Error())
}

func (e *ExpressionError) Unwrap() error { return e.Err }

// MissingFieldError reports a field reference that resolved to nothing in a
// context that requires a value, such as an @unwind path or a @sort key.
type MissingFieldError struct {
	Field string
}

func NewMissingFieldError(field string) error {
	return &MissingFieldError{Field: field}
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// TypeMismatchError reports a value whose runtime type is unusable for the
// operation at hand, for instance a string fed into an @avg accumulator.
// The grouping key identifies the partition when the error surfaces from an
// aggregation.
type TypeMismatchError struct {
	Field string
	Key   any
	Value any
}

func NewTypeMismatchError(field string, key, value any) error {
	return &TypeMismatchError{Field: field, Key: key, Value: value}
}

func (e *TypeMismatchError) Error() string {
	if e.Key != nil {
		return fmt.Sprintf("type mismatch on field %q in group %s: unexpected value %s",
			e.Field, util.Stringify(e.Key), util.Stringify(e.Value))
	}
	return fmt.Sprintf("type mismatch on field %q: unexpected value %s",
		e.Field, util.Stringify(e.Value))
}

// InvalidRangeError reports a structurally invalid stage parameter, such as
// a negative @limit. These are caught by Validate before execution starts.
type InvalidRangeError struct {
	Stage  string
	Reason string
}

func NewInvalidRangeError(stage, reason string) error {
	return &InvalidRangeError{Stage: stage, Reason: reason}
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid %s stage: %s", e.Stage, e.Reason)
}

// StageError attributes a runtime failure to the pipeline stage that raised
// it, by name and zero-based position.
type StageError struct {
	Stage string
	Index int
	Err   error
}

func NewStageError(stage string, index int, err error) error {
	// never double-wrap: keep the innermost stage attribution
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Index: index, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %s", e.Index, e.Stage, e.Err.Error())
}

func (e *StageError) Unwrap() error { return e.Err }

// InvalidArgumentsError reports malformed expression arguments.
type InvalidArgumentsError struct {
	Reason string
}

func NewInvalidArgumentsError(reason string) error {
	return &InvalidArgumentsError{Reason: reason}
}

func (e *InvalidArgumentsError) Error() string {
	return "invalid arguments: " + e.Reason
}

// UnmarshalError reports JSON or YAML input that does not parse into the
// expected pipeline construct.
type UnmarshalError struct {
	Kind    string
	Content string
}

func NewUnmarshalError(kind, content string) error {
	return &UnmarshalError{Kind: kind, Content: content}
}

func (e *UnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal %s from %q", e.Kind, e.Content)
}
