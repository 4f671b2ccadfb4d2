/*
Package deckwright drives AI-assisted presentation authoring.

A user supplies raw intent, a remote orchestration service clarifies the goals
through a guided exchange, proposes an outline and then writes the slides one
at a time. deckwright owns the lifecycle of that process: the state machine,
the durable presentation document, resilient access to the service and the
accounting of generation cost.

# Architecture

The module follows a hexagonal layout. pkg/domain holds the Presentation
aggregate and its value types, pkg/ports the store contracts, and
pkg/adapters their Redis, file, memory and HTTP implementations. The
services built on top are:

  - pkg/controller: the lifecycle state machine and generation pipeline.
  - pkg/persistence: remote/local reconciliation and ordered saves.
  - pkg/orchestrator: typed client with base-URL fallback and retry.
  - pkg/usage: the append/reset-only usage ledger.
  - pkg/settings: agent-model bindings with a cookie-backed mirror.

# Usage

	app, err := deckwright.New(ctx, deckwright.WithConfig(cfg))
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close(ctx)

	if err := app.Open(ctx); err != nil {
		log.Fatal(err)
	}

	c := app.Controller
	_ = c.Submit(ctx, domain.InitialInput{Text: "A talk on Go concurrency"})
	res, _ := c.Clarify(ctx, "Audience: backend engineers")
	if res.Finished {
		_ = c.Approve(ctx, nil) // generates every slide, Cancel() stops early
	}

The same App serves the HTTP surface through app.Handler().
*/
package deckwright
