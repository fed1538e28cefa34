// Package cache defines the disk-backed cache slot: a single file holding the
// last successfully fetched upstream document. Writes go through a temp file +
// rename so readers never observe a partial document, and the file's modtime is
// the only freshness signal (no sidecar metadata). Freshness wraps the window
// predicate so the proxy layer can decide whether a refresh is needed.
package cache
