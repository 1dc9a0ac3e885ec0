// Package auth implements the Spotify authorization-code flow with PKCE for a public client.
//
// # Pending Authorization Store
//
// A [Store] maps a one-time state value to its PKCE verifier. Entries are written when a redirect is
// issued and removed by [Store.Redeem], which is atomic and single-use: a second redeem of the same
// state fails with [shared.ErrStateNotFound]. Unredeemed entries expire after the configured TTL and are
// purged by [RunSweeper].
//
// [MemoryStore] keeps entries in process memory and is the default. [SQLiteStore] keeps them in the
// pending_authorizations table so redemption stays single-use across restarts.
//
// # Flow
//
// [Flow] drives one attempt through INITIATED, CALLBACK_RECEIVED and EXCHANGED, or FAILED:
//
//  1. [Flow.AuthorizationURL] stores a fresh state/verifier pair and returns the provider URL carrying
//     the S256 challenge and the fixed scope set
//  2. [Flow.CompleteCallback] redeems the state, requires a code and exchanges code + verifier for a
//     bearer token at the token endpoint
//
// The server never keeps the resulting [models.AccessCredential]; it is handed to the client.
package auth
