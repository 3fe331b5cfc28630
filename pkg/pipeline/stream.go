package pipeline

import (
	"context"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/document"
)

// Stream is a pull-based sequence of documents flowing between pipeline
// stages. Row-local stages (match, project, unwind, limit) transform a
// stream lazily, one document at a time; blocking stages (group, sort)
// drain their input before producing output. Store iterators satisfy
// Stream so a collection scan can feed a pipeline directly.
type Stream interface {
	// Next returns the next document. The second return value is false
	// when the stream is exhausted.
	Next(ctx context.Context) (document.Document, bool, error)
	// Close releases the resources held by the stream.
	Close(ctx context.Context) error
}

type sliceStream struct {
	docs []document.Document
	pos  int
}

// FromSlice wraps a document slice into a Stream.
func FromSlice(docs []document.Document) Stream {
	return &sliceStream{docs: docs}
}

func (s *sliceStream) Next(_ context.Context) (document.Document, bool, error) {
	if s.pos >= len(s.docs) {
		return nil, false, nil
	}
	doc := s.docs[s.pos]
	s.pos++
	return doc, true, nil
}

func (s *sliceStream) Close(_ context.Context) error { return nil }

// funcStream adapts a pull function into a Stream, optionally closing an
// upstream source.
type funcStream struct {
	next  func(ctx context.Context) (document.Document, bool, error)
	close func(ctx context.Context) error
}

func (s *funcStream) Next(ctx context.Context) (document.Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	return s.next(ctx)
}

func (s *funcStream) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Collect drains a stream into a slice and closes it.
func Collect(ctx context.Context, s Stream) ([]document.Document, error) {
	defer s.Close(ctx) //nolint:errcheck

	docs := []document.Document{}
	for {
		doc, ok, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return docs, nil
		}
		docs = append(docs, doc)
	}
}
