// Package server hosts the Fiber HTTP service and the shared upstream client.
// It bootstraps Fiber with recover + request-id middleware and mounts the
// single cache route onto an injected ProxyHandler, so tests can swap in fakes.
// Diagnostics live under the reserved /-/ prefix (see server/routes).
package server
