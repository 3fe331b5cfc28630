package pipeline

import (
	"context"
	"sort"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/document"
)

// evalSort materializes the input and sorts it stably by the given keys.
// Ties on the first key fall through to the next; rows still tied after
// the last key keep their input order.
func evalSort(ctx context.Context, keys []SortKey, in Stream, log EvalCtx) (Stream, error) {
	docs, err := Collect(ctx, in)
	if err != nil {
		return nil, err
	}

	// extract the key tuples up front so extraction errors surface
	// before sorting starts
	tuples := make([][]any, len(docs))
	for i, doc := range docs {
		tuple := make([]any, len(keys))
		for j, k := range keys {
			v, err := document.GetJSONPath(k.Field, doc)
			if err != nil {
				return nil, err
			}
			tuple[j] = v
		}
		tuples[i] = tuple
	}

	idx := make([]int, len(docs))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		for j, k := range keys {
			c := compareSortValues(tuples[idx[a]][j], tuples[idx[b]][j])
			if c == 0 {
				continue
			}
			if k.Descending() {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	out := make([]document.Document, len(docs))
	for i, j := range idx {
		out[i] = docs[j]
	}

	return FromSlice(out), nil
}

// compareSortValues is the total order used by sort keys: absent values
// first, then numbers, strings, booleans, and finally composites. Values
// of the same rank compare within the rank; composites fall back to their
// canonical serialization.
func compareSortValues(a, b any) int {
	ra, rb := sortRank(a), sortRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case 0: // both absent
		return 0
	case 1, 2: // numbers and strings
		c, err := orderValues(a, b)
		if err == nil {
			return c
		}
	case 3: // booleans: false < true
		ba, _ := document.AsBool(a)
		bb, _ := document.AsBool(b)
		switch {
		case !ba && bb:
			return -1
		case ba && !bb:
			return 1
		default:
			return 0
		}
	}

	ka, errA := document.KeyAny(a)
	kb, errB := document.KeyAny(b)
	if errA != nil || errB != nil {
		return 0
	}
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}

func sortRank(v any) int {
	switch {
	case v == nil:
		return 0
	case document.IsNumeric(v):
		return 1
	default:
		switch v.(type) {
		case string:
			return 2
		case bool:
			return 3
		default:
			return 4
		}
	}
}

// evalLimit passes through at most n documents and then closes the
// upstream, so lazy producers stop early.
func evalLimit(n int64, in Stream) Stream {
	seen := int64(0)
	next := func(ctx context.Context) (document.Document, bool, error) {
		if seen >= n {
			return nil, false, nil
		}
		doc, ok, err := in.Next(ctx)
		if err != nil || !ok {
			return nil, ok, err
		}
		seen++
		return doc, true, nil
	}
	return &funcStream{next: next, close: in.Close}
}
