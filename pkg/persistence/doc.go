// Package persistence reconciles a presentation between the durable remote
// document store and the local snapshot cache.
//
// Loads prefer the remote store and fall back to the local mirror when the
// remote is unreachable. Saves are fire-and-forget: the local mirror is
// written immediately and remote writes are queued per presentation, with
// superseded intermediate values dropped so writes never land out of order.
//
// Documents carry a schemaVersion field. Decode migrates older shapes once on
// the way in, so the rest of the module only ever sees the canonical form.
package persistence
