package ports

import (
	"context"
	"encoding/json"
)

// Document is the wire form of a presentation: one raw JSON value per top-level field.
// Merging two documents replaces fields present in the newer one and keeps the rest.
type Document map[string]json.RawMessage

// Merge returns a new document with the fields of patch written over d.
func (d Document) Merge(patch Document) Document {
	out := make(Document, len(d)+len(patch))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// DocumentStore is the durable remote document store.
type DocumentStore interface {
	// Get returns the document for id.
	// Returns domain.ErrNotFound if no document exists.
	Get(ctx context.Context, id string) (Document, error)

	// Merge writes the fields of doc over the stored document, creating it if needed.
	Merge(ctx context.Context, id string, doc Document) error

	// Watch streams the full document every time it changes remotely.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context, id string) (<-chan Document, error)
}

// SnapshotStore is the local key-value cache. Keys are fixed, namespaced strings.
type SnapshotStore interface {
	// Get returns the raw value for key.
	// Returns domain.ErrNotFound if the key is missing.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every stored key.
	Keys(ctx context.Context) ([]string, error)
}
