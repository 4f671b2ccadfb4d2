/*
Package orchestrator is the typed client of the remote agent orchestration service.

Every outbound call walks an ordered list of candidate base URLs. The first
candidate whose HTTP exchange completes wins, whatever its status code, and
the remaining candidates are skipped. Only transport failures (no response at
all) are retried; a non-2xx response is authoritative and surfaces at once as
a *ServiceError.
*/
package orchestrator
