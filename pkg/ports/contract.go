package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore implementation
// adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	id := "contract-doc-" + time.Now().Format("20060102150405.000000")

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Merge and Get", func(t *testing.T) {
		err := store.Merge(ctx, id, Document{
			"id":      json.RawMessage(`"` + id + `"`),
			"outline": json.RawMessage(`["Intro","Plan"]`),
		})
		require.NoError(t, err)

		doc, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.JSONEq(t, `["Intro","Plan"]`, string(doc["outline"]))
	})

	t.Run("Merge Keeps Untouched Fields", func(t *testing.T) {
		err := store.Merge(ctx, id, Document{
			"clarifiedGoals": json.RawMessage(`"teach the basics"`),
		})
		require.NoError(t, err)

		doc, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.JSONEq(t, `["Intro","Plan"]`, string(doc["outline"]))
		assert.JSONEq(t, `"teach the basics"`, string(doc["clarifiedGoals"]))
	})

	t.Run("Watch Receives Updates", func(t *testing.T) {
		wctx, cancel := context.WithCancel(ctx)
		defer cancel()

		updates, err := store.Watch(wctx, id)
		require.NoError(t, err)

		require.NoError(t, store.Merge(ctx, id, Document{
			"outline": json.RawMessage(`["Only"]`),
		}))

		select {
		case doc := <-updates:
			assert.JSONEq(t, `["Only"]`, string(doc["outline"]))
			assert.JSONEq(t, `"teach the basics"`, string(doc["clarifiedGoals"]))
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for change notification")
		}
	})
}

// RunSnapshotStoreContract verifies a SnapshotStore implementation.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()

	t.Run("Get Missing", func(t *testing.T) {
		_, err := store.Get(ctx, "deckwright.missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Put Get Overwrite", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "deckwright.appState", []byte(`"clarifying"`)))
		require.NoError(t, store.Put(ctx, "deckwright.appState", []byte(`"editing"`)))

		val, err := store.Get(ctx, "deckwright.appState")
		require.NoError(t, err)
		assert.Equal(t, `"editing"`, string(val))
	})

	t.Run("Keys and Delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "deckwright.chatPanel", []byte(`true`)))

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, "deckwright.chatPanel")

		require.NoError(t, store.Delete(ctx, "deckwright.chatPanel"))
		require.NoError(t, store.Delete(ctx, "deckwright.chatPanel"), "deleting twice is not an error")

		_, err = store.Get(ctx, "deckwright.chatPanel")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
