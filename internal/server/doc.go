// Package server provides HTTP routing, middleware, and the handlers of the promptlist API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Routes
//
//   - GET /auth/spotify : redirect to the Spotify consent page (PKCE)
//   - GET /callback : validate state, exchange the code, redirect to the frontend with the token in the fragment
//   - POST /generate-playlist : prompt in, raw text and parsed tracks out
//   - POST /export-playlist : track list and token in, playlist URL out
//   - GET /health, GET /metrics
//
// # OAuth Callback Handler
//
// [OAuthHandler] completes the authorization code flow through an [Authorizer]. The state is single-use, so a
// replayed callback is rejected by the store rather than by the handler.
//
// Without a frontend URL the handler renders a static page and delivers the credential on its result channel;
// the CLI login uses this mode with a temporary server on the redirect URI.
//
// # Errors
//
// API errors are JSON objects {error, message} where error is a stable kind such as "auth_error"
// (the client should log in again) or "no_tracks_resolved".
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
