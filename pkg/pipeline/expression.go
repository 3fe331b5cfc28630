package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-logr/logr"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/document"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/util"
)

// EvalCtx is the context an expression is evaluated in: Object is the row
// the pipeline stage is working on ("$" references), Subject is the local
// element inside list commands like @filter and @map ("$$" references).
type EvalCtx struct {
	Object, Subject any
	Log             logr.Logger
}

// Expression is an operator, an argument, and potentially a literal value.
// Expressions unmarshal from plain JSON/YAML: scalars become typed literal
// expressions, strings starting with "$" become field references, and a
// single-key map whose key starts with "@" becomes an operator application.
type Expression struct {
	Op      string
	Arg     *Expression
	Literal any
}

// Evaluate computes the value of the expression on the given context.
func (e *Expression) Evaluate(ctx EvalCtx) (any, error) {
	if len(e.Op) == 0 {
		return nil, NewInvalidArgumentsError(fmt.Sprintf("empty operator in expression %q", e.String()))
	}

	switch e.Op {
	case "@null":
		return nil, nil

	case "@bool":
		lit, err := e.literalOrArg(ctx)
		if err != nil {
			return nil, err
		}

		v, err := document.AsBool(lit)
		if err != nil {
			return nil, NewExpressionError(e, err)
		}

		return v, nil

	case "@int":
		lit, err := e.literalOrArg(ctx)
		if err != nil {
			return nil, err
		}

		v, err := document.AsInt(lit)
		if err != nil {
			return nil, NewExpressionError(e, err)
		}

		return v, nil

	case "@float":
		lit, err := e.literalOrArg(ctx)
		if err != nil {
			return nil, err
		}

		v, err := document.AsFloat(lit)
		if err != nil {
			return nil, NewExpressionError(e, err)
		}

		return v, nil

	case "@string":
		lit, err := e.literalOrArg(ctx)
		if err != nil {
			return nil, err
		}

		str, err := document.AsString(lit)
		if err != nil {
			return nil, NewExpressionError(e, err)
		}

		ret, err := e.getJSONPath(ctx, str)
		if err != nil {
			return nil, err
		}

		return ret, nil

	case "@list":
		ret := []any{}
		if e.Arg != nil {
			v, err := e.Arg.Evaluate(ctx)
			if err != nil {
				return nil, err
			}

			vs, ok := v.([]any)
			if !ok {
				return nil, NewExpressionError(e, errors.New("argument must be a list"))
			}

			ret = vs
		} else {
			vs, ok := e.Literal.([]Expression)
			if !ok {
				return nil, NewExpressionError(e,
					errors.New("argument must be an expression list"))
			}

			for _, exp := range vs {
				res, err := exp.Evaluate(ctx)
				if err != nil {
					return nil, err
				}
				ret = append(ret, res)
			}
		}

		return ret, nil

	case "@dict":
		ret := document.Document{}
		if e.Arg != nil {
			v, err := e.Arg.Evaluate(ctx)
			if err != nil {
				return nil, err
			}

			vs, ok := v.(document.Document)
			if !ok {
				return nil, NewExpressionError(e, errors.New("argument must be a map"))
			}
			ret = vs
		} else {
			vm, ok := e.Literal.(map[string]Expression)
			if !ok {
				return nil, NewExpressionError(e,
					errors.New("argument must be a string->expression map"))
			}

			for k, exp := range vm {
				res, err := exp.Evaluate(ctx)
				if err != nil {
					return nil, err
				}
				if err := document.SetJSONPath(k, res, ret); err != nil {
					return nil, NewExpressionError(e,
						fmt.Errorf("could not dereference JSON \"set\" expression: %w", err))
				}
			}
		}

		return ret, nil
	}

	// list commands: must eval the arg themselves
	if e.Op[0] == '@' {
		switch e.Op {
		case "@filter", "@map":
			args, err := asExpList(e.Arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}

			if len(args) != 2 {
				return nil, NewExpressionError(e,
					errors.New("invalid arguments: expected 2 arguments"))
			}

			fun := args[0]

			rawArg, err := args[1].Evaluate(ctx)
			if err != nil {
				return nil, NewExpressionError(e, errors.New("failed to evaluate arguments"))
			}

			list, err := document.AsList(rawArg)
			if err != nil {
				return nil, NewExpressionError(e, errors.New("invalid arguments: expected a list"))
			}

			vs := []any{}
			for _, input := range list {
				res, err := fun.Evaluate(EvalCtx{Object: ctx.Object, Subject: input, Log: ctx.Log})
				if err != nil {
					return nil, err
				}

				if e.Op == "@map" {
					vs = append(vs, res)
					continue
				}

				b, err := document.AsBool(res)
				if err != nil {
					return nil, NewExpressionError(e,
						fmt.Errorf("expected conditional expression to "+
							"evaluate to boolean: %w", err))
				}
				if b {
					vs = append(vs, input)
				}
			}

			return vs, nil
		}
	}

	// operators: evaluate subexpression first
	if e.Arg == nil {
		return nil, NewExpressionError(e, errors.New("empty argument list"))
	}

	arg, err := e.Arg.Evaluate(ctx)
	if err != nil {
		return nil, err
	}

	if e.Op[0] == '@' {
		switch e.Op {
		// unary bool
		case "@isnil":
			return arg == nil, nil

		case "@exists":
			return arg != nil, nil

		case "@not":
			v, err := document.AsBool(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}
			return !v, nil

		// binary bool
		case "@eq", "@ne":
			args, err := document.AsList(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}
			if len(args) != 2 {
				return nil, NewExpressionError(e, errors.New("expected 2 arguments"))
			}

			v := equalValues(args[0], args[1])
			if e.Op == "@ne" {
				v = !v
			}
			return v, nil

		// list bool
		case "@and":
			args, err := asBoolList(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}

			v := true
			for i := range args {
				v = v && args[i]
			}
			return v, nil

		case "@or":
			args, err := asBoolList(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}

			v := false
			for i := range args {
				v = v || args[i]
			}
			return v, nil

		// ordering: numbers compare numerically, strings (including the
		// RFC 3339 timestamps documents carry) lexicographically
		case "@lt", "@lte", "@gt", "@gte":
			args, err := document.AsList(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}
			if len(args) != 2 {
				return nil, NewExpressionError(e, errors.New("expected 2 arguments"))
			}

			c, err := orderValues(args[0], args[1])
			if err != nil {
				return nil, NewExpressionError(e, err)
			}

			switch e.Op {
			case "@lt":
				return c < 0, nil
			case "@lte":
				return c <= 0, nil
			case "@gt":
				return c > 0, nil
			default:
				return c >= 0, nil
			}

		case "@in": // @in: [elem, list]
			args, err := document.AsList(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}
			if len(args) != 2 {
				return nil, NewExpressionError(e, errors.New("expected 2 arguments"))
			}

			list, err := document.AsList(args[1])
			if err != nil {
				return nil, NewExpressionError(e, err)
			}

			for i := range list {
				if equalValues(list[i], args[0]) {
					return true, nil
				}
			}
			return false, nil

		case "@contains": // @contains: [string, substring]
			args, err := document.AsStringList(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}
			if len(args) != 2 {
				return nil, NewExpressionError(e, errors.New("expected 2 arguments"))
			}
			return strings.Contains(args[0], args[1]), nil

		case "@regexp": // @regexp: [string, pattern]
			args, err := document.AsStringList(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}
			if len(args) != 2 {
				return nil, NewExpressionError(e, errors.New("expected 2 arguments"))
			}

			re, err := regexp.Compile(args[1])
			if err != nil {
				return nil, NewExpressionError(e, fmt.Errorf("invalid pattern: %w", err))
			}
			return re.MatchString(args[0]), nil

		// unary arithmetic
		case "@abs":
			f, err := document.AsFloat(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}
			return math.Abs(f), nil

		case "@ceil":
			f, err := document.AsFloat(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}
			return math.Ceil(f), nil

		case "@floor":
			f, err := document.AsFloat(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}
			return math.Floor(f), nil

		// list arithmetic
		case "@sum":
			args, err := document.AsList(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}

			return sumValues(args)

		// binary arithmetic
		case "@sub", "@mul", "@div":
			args, err := document.AsList(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}
			if len(args) != 2 {
				return nil, NewExpressionError(e, errors.New("expected 2 arguments"))
			}

			v, err := arith(e.Op, args[0], args[1])
			if err != nil {
				return nil, NewExpressionError(e, err)
			}
			return v, nil

		// list
		case "@len":
			args, err := document.AsList(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}
			return int64(len(args)), nil

		case "@first":
			args, err := document.AsList(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}
			if len(args) == 0 {
				return nil, NewExpressionError(e, errors.New("empty list"))
			}
			return args[0], nil

		case "@last":
			args, err := document.AsList(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}
			if len(args) == 0 {
				return nil, NewExpressionError(e, errors.New("empty list"))
			}
			return args[len(args)-1], nil

		// string
		case "@concat":
			args, err := document.AsStringList(arg)
			if err != nil {
				return nil, NewExpressionError(e, err)
			}
			return strings.Join(args, ""), nil

		default:
			return nil, NewExpressionError(e, errors.New("unknown op"))
		}
	}

	// literal map
	return document.Document{e.Op: arg}, nil
}

func (e *Expression) literalOrArg(ctx EvalCtx) (any, error) {
	if e.Arg == nil {
		return e.Literal, nil
	}
	// eval stacked expressions stored in e.Arg
	return e.Arg.Evaluate(ctx)
}

func (e *Expression) getJSONPath(ctx EvalCtx, key string) (any, error) {
	if len(key) == 0 || key[0] != '$' {
		return key, nil
	}

	// $... references the row, $$... the local subject (@map, @filter)
	subject := ctx.Object
	if len(key) >= 2 && key[1] == '$' && ctx.Subject != nil {
		key = key[1:]
		subject = ctx.Subject
	}

	ret, err := document.GetJSONPath(key, subject)
	if err != nil {
		return nil, NewExpressionError(e, err)
	}
	return ret, nil
}

// equalValues compares two values: numbers numerically (an int64 equals the
// same-valued float64), everything else by deep equality. A nil (absent)
// value equals only another nil.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if document.IsNumeric(a) && document.IsNumeric(b) {
		fa, _ := document.AsFloat(a)
		fb, _ := document.AsFloat(b)
		return fa == fb
	}

	return reflect.DeepEqual(a, b)
}

// orderValues returns -1/0/1 for a<b / a==b / a>b. Numbers order
// numerically, strings lexicographically; mixing the two is an error.
func orderValues(a, b any) (int, error) {
	if document.IsNumeric(a) && document.IsNumeric(b) {
		fa, _ := document.AsFloat(a)
		fb, _ := document.AsFloat(b)
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		default:
			return 0, nil
		}
	}

	sa, errA := document.AsString(a)
	sb, errB := document.AsString(b)
	if errA == nil && errB == nil {
		return strings.Compare(sa, sb), nil
	}

	return 0, fmt.Errorf("incomparable arguments: %s and %s",
		util.Stringify(a), util.Stringify(b))
}

// sumValues adds a numeric list, staying integral if every element is.
func sumValues(args []any) (any, error) {
	vi, vf := int64(0), 0.0
	integral := true

	for _, a := range args {
		i, f, kind, err := document.AsIntOrFloat(a)
		if err != nil {
			return nil, err
		}
		if kind == reflect.Int64 {
			vi += i
			vf += float64(i)
		} else {
			integral = false
			vf += f
		}
	}

	if integral {
		return vi, nil
	}
	return vf, nil
}

func arith(op string, a, b any) (any, error) {
	ia, fa, ka, err := document.AsIntOrFloat(a)
	if err != nil {
		return nil, err
	}
	ib, fb, kb, err := document.AsIntOrFloat(b)
	if err != nil {
		return nil, err
	}

	if ka == reflect.Int64 && kb == reflect.Int64 {
		switch op {
		case "@sub":
			return ia - ib, nil
		case "@mul":
			return ia * ib, nil
		default:
			if ib == 0 {
				return nil, errors.New("division by zero")
			}
			return ia / ib, nil
		}
	}

	if ka == reflect.Int64 {
		fa = float64(ia)
	}
	if kb == reflect.Int64 {
		fb = float64(ib)
	}

	switch op {
	case "@sub":
		return fa - fb, nil
	case "@mul":
		return fa * fb, nil
	default:
		if fb == 0.0 {
			return nil, errors.New("division by zero")
		}
		return fa / fb, nil
	}
}

func asBoolList(d any) ([]bool, error) {
	vs, err := document.AsList(d)
	if err != nil {
		return nil, err
	}

	ret := make([]bool, 0, len(vs))
	for _, v := range vs {
		b, err := document.AsBool(v)
		if err != nil {
			return nil, err
		}
		ret = append(ret, b)
	}
	return ret, nil
}

// asExpList returns the expression list stored in a @list expression, or
// wraps a single expression.
func asExpList(e *Expression) ([]Expression, error) {
	if e == nil {
		return nil, errors.New("empty argument")
	}

	if e.Op == "@list" {
		ret, ok := e.Literal.([]Expression)
		if !ok {
			return nil, fmt.Errorf("internal error: list expression should contain "+
				"a literal list: %s", e.String())
		}
		return ret, nil
	}

	return []Expression{*e}, nil
}

func (e *Expression) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*e = Expression{Op: "@null"}
		return nil
	}

	// try to unmarshal as a bool terminal expression
	bv := false
	if err := json.Unmarshal(b, &bv); err == nil {
		*e = Expression{Op: "@bool", Literal: bv}
		return nil
	}

	// try to unmarshal as an int terminal expression
	var iv int64 = 0
	if err := json.Unmarshal(b, &iv); err == nil {
		*e = Expression{Op: "@int", Literal: iv}
		return nil
	}

	// try to unmarshal as a float terminal expression
	fv := 0.0
	if err := json.Unmarshal(b, &fv); err == nil {
		*e = Expression{Op: "@float", Literal: fv}
		return nil
	}

	// try to unmarshal as a string terminal expression
	sv := ""
	if err := json.Unmarshal(b, &sv); err == nil && sv != "" {
		*e = Expression{Op: "@string", Literal: sv}
		return nil
	}

	// try to unmarshal as a literal list expression
	mv := []Expression{}
	if err := json.Unmarshal(b, &mv); err == nil {
		*e = Expression{Op: "@list", Literal: mv}
		return nil
	}

	// try to unmarshal as a map expression
	cv := map[string]Expression{}
	if err := json.Unmarshal(b, &cv); err == nil {
		// specialcase operators: an op has a single key that starts with @
		if len(cv) == 1 {
			op := ""
			for k := range cv {
				op = k
				break
			}
			if op[0] == '@' {
				exp := cv[op]
				*e = Expression{Op: op, Arg: &exp}
				return nil
			}
		}

		// literal map: store as exp with op @dict and map as Literal
		*e = Expression{Op: "@dict", Literal: cv}
		return nil
	}

	return NewUnmarshalError("expression", string(b))
}

func (e *Expression) MarshalJSON() ([]byte, error) {
	switch e.Op {
	case "@null":
		return []byte("null"), nil

	case "@bool", "@int", "@float", "@string":
		if e.Arg != nil {
			// keep the op for a correct round-trip
			return json.Marshal(map[string]*Expression{e.Op: e.Arg})
		}
		return json.Marshal(e.Literal)

	case "@list":
		if e.Arg != nil {
			return json.Marshal(e.Arg)
		}
		es, ok := e.Literal.([]Expression)
		if !ok {
			return nil, fmt.Errorf("invalid expression list: %#v", e)
		}
		return json.Marshal(es)

	case "@dict":
		if e.Arg != nil {
			return json.Marshal(e.Arg)
		}

		es, ok := e.Literal.(map[string]Expression)
		if !ok {
			return nil, fmt.Errorf("invalid expression map: %#v", e)
		}
		em := map[string]*Expression{}
		for k, v := range es {
			v := v
			em[k] = &v
		}
		return json.Marshal(em)

	default:
		if e.Op[0] != '@' {
			return nil, fmt.Errorf("expected an op starting with @, got %#v", e)
		}
		return json.Marshal(map[string]*Expression{e.Op: e.Arg})
	}
}

func (e *Expression) String() string {
	b, err := json.Marshal(e)
	if err != nil {
		return ""
	}
	return string(b)
}
