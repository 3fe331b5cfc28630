package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sfundo-cfc/DBD381-CodeBrew/pkg/document"
)

// Memory is an in-process document store. Scan captures the collection's
// current backing slice, so a cursor keeps seeing the same snapshot even if
// writes arrive while a pipeline is running: Insert replaces the slice
// rather than mutating it in place.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]document.Document
	schemas     map[string]*Schema
}

var (
	_ Store  = &Memory{}
	_ Writer = &Memory{}
)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string][]document.Document),
		schemas:     make(map[string]*Schema),
	}
}

// WithSchemas registers constraint descriptors; subsequent Inserts into the
// named collections are validated against them.
func (m *Memory) WithSchemas(schemas ...Schema) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range schemas {
		s := schemas[i]
		m.schemas[s.Collection] = &s
	}
	return m
}

// Insert validates and adds a document to a collection. The document is
// normalized and deep-copied so that later caller mutations cannot leak
// into stored snapshots.
func (m *Memory) Insert(_ context.Context, collection string, doc document.Document) error {
	norm, err := document.AsObject(document.Normalize(doc))
	if err != nil {
		return fmt.Errorf("cannot insert into %q: %w", collection, err)
	}
	norm = document.DeepCopy(norm)

	m.mu.Lock()
	defer m.mu.Unlock()

	if schema, ok := m.schemas[collection]; ok {
		if err := schema.Validate(norm); err != nil {
			return err
		}
	}

	old := m.collections[collection]
	next := make([]document.Document, len(old), len(old)+1)
	copy(next, old)
	m.collections[collection] = append(next, norm)

	return nil
}

// Scan returns a cursor over the collection snapshot taken at call time.
// Scanning an unknown collection yields an empty cursor.
func (m *Memory) Scan(_ context.Context, collection string) (Iterator, error) {
	m.mu.RLock()
	docs := m.collections[collection]
	m.mu.RUnlock()

	return NewSliceIterator(docs), nil
}

// Len returns the number of documents in a collection.
func (m *Memory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}
