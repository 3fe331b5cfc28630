package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/document"
	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/store"
)

// Pipeline is an aggregation: a source collection and an ordered list of
// stages applied to every document the collection holds.
type Pipeline struct {
	Collection string  `json:"collection"`
	Stages     []Stage `json:"stages"`
}

// Validate checks the pipeline structurally before any document is read.
// Errors are attributed to the offending stage.
func (p *Pipeline) Validate() error {
	if p.Collection == "" {
		return NewInvalidRangeError("pipeline", "empty source collection")
	}
	for i, s := range p.Stages {
		if err := s.Validate(); err != nil {
			return NewStageError(s.Name(), i, err)
		}
	}
	return nil
}

// Execute runs the pipeline against a store and returns the result set.
// Row-local stages stream; @group and @sort materialize their input. A
// group key that resolves on no input row yields an empty result rather
// than an error.
func (p *Pipeline) Execute(ctx context.Context, st store.Store, log logr.Logger) ([]document.Document, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	iter, err := st.Scan(ctx, p.Collection)
	if err != nil {
		return nil, err
	}

	var cur Stream = iter
	env := EvalCtx{Log: log}

	for i, s := range p.Stages {
		log.V(2).Info("applying stage", "index", i, "stage", s.String(),
			"blocking", s.Blocking())

		switch {
		case s.Match != nil:
			cur = evalMatch(s.Match, cur, env)

		case s.Unwind != "":
			cur = evalUnwind(s.Unwind, cur)

		case s.Lookup != nil:
			next, err := evalLookup(ctx, s.Lookup, cur, st, env)
			if err != nil {
				cur.Close(ctx) //nolint:errcheck
				return nil, NewStageError(s.Name(), i, err)
			}
			cur = next

		case s.Project != nil:
			cur = evalProject(s.Project, cur, env)

		case s.Group != nil:
			next, err := evalGroup(ctx, s.Group, cur, env)
			if err != nil {
				var mfe *MissingFieldError
				if errors.As(err, &mfe) {
					log.V(1).Info("group key missing from every input row, "+
						"returning empty result", "key", mfe.Field)
					return []document.Document{}, nil
				}
				return nil, NewStageError(s.Name(), i, err)
			}
			cur = next

		case s.Sort != nil:
			next, err := evalSort(ctx, s.Sort, cur, env)
			if err != nil {
				return nil, NewStageError(s.Name(), i, err)
			}
			cur = next

		case s.Limit != nil:
			cur = evalLimit(*s.Limit, cur)
		}

		cur = tagErrors(cur, s.Name(), i)
	}

	res, err := Collect(ctx, cur)
	if err != nil {
		return nil, err
	}

	log.V(1).Info("pipeline done", "collection", p.Collection,
		"stages", len(p.Stages), "results", len(res))

	return res, nil
}

// evalMatch filters the stream by a boolean expression.
func evalMatch(e *Expression, in Stream, env EvalCtx) Stream {
	next := func(ctx context.Context) (document.Document, bool, error) {
		for {
			doc, ok, err := in.Next(ctx)
			if err != nil || !ok {
				return nil, ok, err
			}

			res, err := e.Evaluate(EvalCtx{Object: doc, Log: env.Log})
			if err != nil {
				return nil, false, err
			}

			b, err := document.AsBool(res)
			if err != nil {
				return nil, false, fmt.Errorf("match condition must evaluate "+
					"to a boolean: %w", err)
			}

			if b {
				return doc, true, nil
			}
		}
	}
	return &funcStream{next: next, close: in.Close}
}

// evalProject replaces every document with the value of a map-valued
// expression.
func evalProject(e *Expression, in Stream, env EvalCtx) Stream {
	next := func(ctx context.Context) (document.Document, bool, error) {
		doc, ok, err := in.Next(ctx)
		if err != nil || !ok {
			return nil, ok, err
		}

		res, err := e.Evaluate(EvalCtx{Object: doc, Log: env.Log})
		if err != nil {
			return nil, false, err
		}

		out, err := document.AsObject(res)
		if err != nil {
			return nil, false, fmt.Errorf("projection must evaluate to an "+
				"object: %w", err)
		}

		return out, true, nil
	}
	return &funcStream{next: next, close: in.Close}
}

// evalUnwind flattens a list field: each input document becomes one output
// document per list element, with the field replaced by the element. A
// missing, empty or non-list field drops the document.
func evalUnwind(path string, in Stream) Stream {
	var pending []document.Document

	next := func(ctx context.Context) (document.Document, bool, error) {
		for {
			if len(pending) > 0 {
				doc := pending[0]
				pending = pending[1:]
				return doc, true, nil
			}

			doc, ok, err := in.Next(ctx)
			if err != nil || !ok {
				return nil, ok, err
			}

			v, err := document.GetJSONPath(path, doc)
			if err != nil {
				return nil, false, err
			}
			if v == nil || !document.IsList(v) {
				continue
			}

			list, err := document.AsList(v)
			if err != nil {
				return nil, false, err
			}

			for _, elem := range list {
				out := document.DeepCopy(doc)
				if err := document.SetJSONPath(path, elem, out); err != nil {
					return nil, false, err
				}
				pending = append(pending, out)
			}
		}
	}
	return &funcStream{next: next, close: in.Close}
}

// tagErrors decorates a stream so that errors surfacing during pulls are
// attributed to the stage that raised them.
func tagErrors(in Stream, stage string, index int) Stream {
	next := func(ctx context.Context) (document.Document, bool, error) {
		doc, ok, err := in.Next(ctx)
		if err != nil {
			return nil, false, NewStageError(stage, index, err)
		}
		return doc, ok, nil
	}
	return &funcStream{next: next, close: in.Close}
}
