package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authorization handshake errors
	ErrStateNotFound  = fmt.Errorf("authorization state not found")
	ErrInvalidState   = fmt.Errorf("invalid state parameter")
	ErrMissingCode    = fmt.Errorf("missing authorization code")
	ErrExchangeFailed = fmt.Errorf("token exchange failed")

	// Authentication errors
	ErrAuth             = fmt.Errorf("credential rejected")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrGeneration          = fmt.Errorf("playlist generation failed")
	ErrResolutionTransport = fmt.Errorf("track search failed")
	ErrPlaylistCreate      = fmt.Errorf("playlist creation failed")
	ErrNoTracksResolved    = fmt.Errorf("no tracks could be resolved")
	ErrAttach              = fmt.Errorf("adding tracks to playlist failed")

	// Input validation errors
	ErrInvalidRequest  = fmt.Errorf("invalid request")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
