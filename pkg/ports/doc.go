/*
Package ports defines the driven ports (interfaces) for the Deckwright lifecycle.

These interfaces decouple the controller and the persistence adapter from the
concrete backends, allowing the same lifecycle to run against Redis, the local
filesystem or in-memory fakes.

# Key Interfaces

  - DocumentStore: the durable remote store keyed by presentation id, with merge
    writes and change notifications.
  - SnapshotStore: the local key-value cache for instant paint and preferences.
*/
package ports
