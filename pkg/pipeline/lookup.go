package pipeline

import (
	"context"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/document"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/store"
)

// evalLookup joins the input stream against another collection. The
// foreign collection is scanned once into a hash index keyed on
// ForeignField; the input side then streams, each document gaining the
// list of matching foreign rows under As. Documents whose local field is
// absent or matches nothing get an empty list, so a dangling reference
// never fails a pipeline, it just joins to nothing.
func evalLookup(ctx context.Context, l *LookupStage, in Stream, st store.Store, log EvalCtx) (Stream, error) {
	rows, err := store.ReadAll(ctx, st, l.From)
	if err != nil {
		return nil, err
	}

	index := map[string][]document.Document{}
	for _, row := range rows {
		fv, err := document.GetJSONPath(l.ForeignField, row)
		if err != nil {
			return nil, err
		}
		if fv == nil {
			continue
		}
		id, err := document.KeyAny(fv)
		if err != nil {
			return nil, err
		}
		index[id] = append(index[id], row)
	}

	next := func(ctx context.Context) (document.Document, bool, error) {
		doc, ok, err := in.Next(ctx)
		if err != nil || !ok {
			return nil, ok, err
		}

		matches := []any{}
		lv, err := document.GetJSONPath(l.LocalField, doc)
		if err != nil {
			return nil, false, err
		}
		if lv != nil {
			id, err := document.KeyAny(lv)
			if err != nil {
				return nil, false, err
			}
			for _, m := range index[id] {
				matches = append(matches, document.DeepCopy(m))
			}
		}

		out := document.DeepCopy(doc)
		if err := document.SetJSONPath(l.As, matches, out); err != nil {
			return nil, false, err
		}

		log.Log.V(4).Info("lookup", "from", l.From, "as", l.As, "matches", len(matches))

		return out, true, nil
	}

	return &funcStream{next: next, close: in.Close}, nil
}
