// Package services implements HTTP clients for the gist pipeline backend.
//
// [GistService] is the typed client: submission, status pulls, artifact
// fetches, and the project query used for cross-device resumption. It
// injects the configured bearer token into every call via an oauth2
// static token source and rate-limits outbound requests.
//
// [APIService] is a thin raw passthrough used by the debug `api`
// command to hit arbitrary backend paths.
//
// Wire-format structs with JSON tags live here and are converted to the
// clean types in the models package at the client boundary.
package services
