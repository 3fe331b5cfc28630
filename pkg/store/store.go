// Package store provides read/write access to named document collections.
// The aggregation core consumes only the read side: Scan returns a lazy,
// forward-only cursor over a stable snapshot of one collection. Writes go
// through a declarative schema check so that the aggregation core can rely
// on the invariants the schemas state.
package store

import (
	"context"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/document"
)

// Iterator is a forward-only cursor over the documents of one collection
// snapshot. Next returns the next document and true, or false once the
// snapshot is exhausted.
type Iterator interface {
	Next(ctx context.Context) (document.Document, bool, error)
	Close(ctx context.Context) error
}

// Store is the collection accessor the pipeline executor runs against. Scan
// must return a cursor over a snapshot that is stable for the lifetime of
// the cursor: writes performed after Scan do not show up in it.
type Store interface {
	Scan(ctx context.Context, collection string) (Iterator, error)
}

// Writer is the write side of a store. Insert validates the document
// against the collection schema, if one is registered.
type Writer interface {
	Insert(ctx context.Context, collection string, doc document.Document) error
}

// sliceIterator iterates a materialized snapshot.
type sliceIterator struct {
	docs []document.Document
	pos  int
}

func (it *sliceIterator) Next(_ context.Context) (document.Document, bool, error) {
	if it.pos >= len(it.docs) {
		return nil, false, nil
	}
	doc := it.docs[it.pos]
	it.pos++
	return doc, true, nil
}

func (it *sliceIterator) Close(_ context.Context) error { return nil }

// NewSliceIterator wraps a document slice in an Iterator.
func NewSliceIterator(docs []document.Document) Iterator {
	return &sliceIterator{docs: docs}
}

// ReadAll scans a collection and drains the cursor into a slice.
func ReadAll(ctx context.Context, st Store, collection string) ([]document.Document, error) {
	it, err := st.Scan(ctx, collection)
	if err != nil {
		return nil, err
	}
	defer it.Close(ctx) //nolint:errcheck

	var docs []document.Document
	for {
		doc, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return docs, nil
		}
		docs = append(docs, doc)
	}
}
