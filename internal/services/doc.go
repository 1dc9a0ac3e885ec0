// Package services implements clients for the HTTP APIs promptlist talks to.
//
// # Spotify
//
// [SpotifyService] implements [Catalog]. It is stateless: the caller passes the user's bearer token on every
// call and the service wraps it in an [oauth2.StaticTokenSource]. There is no refresh; an expired or revoked
// token surfaces as [shared.ErrAuth] so the caller can ask the user to log in again.
//
// # Gemini
//
// [GeminiGenerator] implements [Generator] with the google.golang.org/genai SDK. The user's idea is wrapped
// with [FormatInstruction] so the reply is a numbered "Title -- Artist" list.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAuth] : 401/403 from Spotify
//   - [shared.ErrAPIRequest] : transport failure or any other non-2xx status
//   - [shared.ErrTimeout] : the per-call deadline elapsed
//   - [shared.ErrGeneration] : Gemini failed or returned no text
package services
