// Package models defines domain entities for the gist pipeline client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): clean structs representing backend data
//   - [JobStatus] : full status snapshot pulled from the backend
//   - [Idea] : one ranked idea extracted from a video
//   - [Timeline] : playback metadata with labeled segments
//   - [Artifacts] : derived results fetched once a job completes
//
// 2. Persistent records:
//   - [JobSnapshot] : the locally persisted mirror of an in-flight job,
//     keyed by project scope and validated on load
//
// Wire-format decoding lives in the services package; these types carry
// no JSON tags except where the persisted layout is itself JSON.
package models
