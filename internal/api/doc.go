// Package api implements the health and status HTTP server for meterlink.
//
// Routes:
//   - GET /healthcheck and GET /api/v1/health: liveness, version, uptime and
//     the state of optional downstream connections
//   - GET /api/v1/status: per-job collection state from status.Tracker
//
// When api.auth.api_key_hash is set the status route requires the matching
// key in the x-api-key header; the health routes stay open for probes.
//
// The middleware stack is request ID, logging, panic recovery and CORS.
// CORS allows every origin unless api.cors.allowed_origins is set, and
// the default allowed headers include x-api-key.
package api
