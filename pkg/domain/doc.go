/*
Package domain contains the core models of the Deckwright authoring lifecycle.

It defines the presentation aggregate, its slides, the lifecycle state tag,
the usage ledger entries and the agent-model bindings. This package is kept
pure and free of external dependencies like I/O or persistence, following
Hexagonal Architecture principles.

# Key Entities

  - Presentation: the aggregate root persisted as a single document.
  - Slide: one generated slide, owned by the controller during generation.
  - AppState: the single authoritative lifecycle tag of a session.
  - UsageEntry: an append-only billable event (prompt, completion, image call).
  - AgentModels: the closed mapping of agent roles to model identifiers.
*/
package domain
