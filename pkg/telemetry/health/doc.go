// Package health serves liveness and readiness probes for the long-running
// schedule command.
//
//	GET /healthz   200 while the process runs
//	GET /readyz    200 when every registered check passes, 503 otherwise
//	GET /version   build information
//
// The schedule command registers checks for the provider circuit breaker,
// the messaging archive and the memory backend.
package health
