// Package controller implements the presentation lifecycle state machine.
//
// A Controller owns one session: the AppState tag and the Presentation
// aggregate. It sequences initial → clarifying → approving → generating →
// editing, persists the aggregate after every successful step and records
// usage for every remote call.
//
// Generation runs synchronously inside Approve. Cancel may be called from
// another goroutine; it is observed between slides only, so an in-flight
// call always completes and its slide is kept.
package controller
