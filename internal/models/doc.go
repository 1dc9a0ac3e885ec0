// Package models defines the domain types shared by the authorization flow, the export pipeline and the HTTP layer.
//
//   - [PendingAuthorization] : a one-time state bound to its PKCE verifier
//   - [AccessCredential] : a bearer token and its expiry, owned by the client
//   - [TrackCandidate] : a {title, artist} pair produced by the list parser
//   - [ResolvedTrack] : a candidate and its catalog URI (empty when not found)
//   - [ExportResult] : the outcome of a successful export
package models
