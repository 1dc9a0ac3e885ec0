// Package tasks exports generated track lists to Spotify with real-time progress reporting.
//
// # Pipeline
//
// [ExportEngine.Export] runs a fixed sequence of stages:
//
//  1. validate : name, tracks and a live credential are present (no network)
//  2. identify : GET /me resolves the owner of the credential
//  3. create : an empty playlist is created for that user
//  4. resolve : every candidate is searched; misses are kept and counted, never fatal
//  5. check : at least one candidate must have matched
//  6. attach : matched URIs are added in candidate order, 100 per request
//
// The first failing stage stops the run and yields one [*ExportError] carrying the stage and a
// [FailureKind]. Completed side effects are not rolled back.
//
// # Resolution
//
// [Resolver.ResolveAll] searches in parallel with an errgroup worker limit, paced by a rate limiter,
// and writes each result into its candidate's slot so the output order equals the input order.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
