// Package auth guards the status API with a shared API key.
//
// Keys are never stored in clear: the configuration carries an Argon2id
// hash in PHC string format, produced by `meterlink hash-api-key`.
// Clients present the key in the x-api-key header, the same header the
// ingestion endpoint expects from meterlink.
package auth
