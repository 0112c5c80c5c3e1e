// Package middleware provides HTTP middleware for the indexer's API.
//
// It includes:
//   - Request logging with sanitized user-controlled fields
//   - Prometheus metrics (request counts, durations, in-flight gauge)
//   - Configurable filtering for health check endpoints
package middleware
