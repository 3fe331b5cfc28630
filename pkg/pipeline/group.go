package pipeline

import (
	"context"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/document"
)

// partition is one group: the key value the members share and the member
// documents in input order.
type partition struct {
	keyVal any
	docs   []document.Document
}

// evalGroup materializes the input, partitions it by the group key, and
// folds every partition into a single output document. Partitions are
// emitted in first-seen order so that results are deterministic for a
// stable input.
func evalGroup(ctx context.Context, g *GroupStage, in Stream, log EvalCtx) (Stream, error) {
	docs, err := Collect(ctx, in)
	if err != nil {
		return nil, err
	}

	index := map[string]*partition{}
	order := []string{}
	keyed := false

	for _, doc := range docs {
		var keyVal any
		if g.Key != nil {
			keyVal, err = g.Key.Evaluate(EvalCtx{Object: doc, Log: log.Log})
			if err != nil {
				return nil, err
			}
		}
		if keyVal != nil {
			keyed = true
		}

		id, err := document.KeyAny(keyVal)
		if err != nil {
			return nil, err
		}

		p, ok := index[id]
		if !ok {
			p = &partition{keyVal: keyVal}
			index[id] = p
			order = append(order, id)
		}
		p.docs = append(p.docs, doc)
	}

	// a key expression that yields no value on any row means the input
	// does not carry the field at all; the caller recovers this as an
	// empty result (an intentional null key is a different thing and
	// forms the usual single partition)
	if g.Key != nil && g.Key.Op != "@null" && len(docs) > 0 && !keyed {
		return nil, NewMissingFieldError(g.Key.String())
	}

	out := make([]document.Document, 0, len(order))
	for _, id := range order {
		p := index[id]

		res := document.Document{"_id": p.keyVal}
		for name, acc := range g.Fields {
			v, emit, err := foldPartition(acc, name, p, log)
			if err != nil {
				return nil, err
			}
			if emit {
				res[name] = v
			}
		}
		out = append(out, res)
	}

	return FromSlice(out), nil
}

// foldPartition runs one accumulator over a partition. The second return
// value is false when the accumulator saw no usable value and the output
// field must be omitted. A present but non-numeric value under a numeric
// accumulator is fatal.
func foldPartition(acc Accumulator, field string, p *partition, log EvalCtx) (any, bool, error) {
	values := []any{}
	if acc.Arg != nil {
		for _, doc := range p.docs {
			v, err := acc.Arg.Evaluate(EvalCtx{Object: doc, Log: log.Log})
			if err != nil {
				return nil, false, err
			}
			if v == nil {
				// documents missing the field contribute nothing
				continue
			}
			values = append(values, v)
		}
	}

	switch acc.Op {
	case AccCount:
		if acc.Arg == nil {
			return int64(len(p.docs)), true, nil
		}
		return int64(len(values)), true, nil

	case AccSum:
		for _, v := range values {
			if !document.IsNumeric(v) {
				return nil, false, NewTypeMismatchError(field, p.keyVal, v)
			}
		}
		if len(values) == 0 {
			return int64(0), true, nil
		}
		v, err := sumValues(values)
		return v, true, err

	case AccAvg:
		total := 0.0
		for _, v := range values {
			f, err := document.AsFloat(v)
			if err != nil {
				return nil, false, NewTypeMismatchError(field, p.keyVal, v)
			}
			total += f
		}
		if len(values) == 0 {
			return nil, false, nil
		}
		return total / float64(len(values)), true, nil

	case AccMin, AccMax:
		if len(values) == 0 {
			return nil, false, nil
		}
		best := values[0]
		for _, v := range values[1:] {
			c, err := orderValues(v, best)
			if err != nil {
				return nil, false, NewTypeMismatchError(field, p.keyVal, v)
			}
			if (acc.Op == AccMin && c < 0) || (acc.Op == AccMax && c > 0) {
				best = v
			}
		}
		return best, true, nil

	case AccFirst:
		if len(values) == 0 {
			return nil, false, nil
		}
		return values[0], true, nil

	case AccLast:
		if len(values) == 0 {
			return nil, false, nil
		}
		return values[len(values)-1], true, nil

	case AccPush:
		return values, true, nil

	case AccAddToSet:
		seen := map[string]bool{}
		set := []any{}
		for _, v := range values {
			id, err := document.KeyAny(v)
			if err != nil {
				return nil, false, err
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			set = append(set, v)
		}
		return set, true, nil

	default:
		return nil, false, NewInvalidRangeError("@group", "unknown accumulator "+acc.Op)
	}
}
