package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptlist/internal/auth"
	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/shared"
)

// CallbackRecorder receives the outcome of every authorization callback.
type CallbackRecorder interface {
	RecordCallback(outcome string)
}

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Credential models.AccessCredential
	err        error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthOptions configures an [OAuthHandler].
type OAuthOptions struct {
	// FrontendURL receives the browser after a successful callback, with the token in the URL fragment.
	// When empty a static success page is rendered instead, for the local CLI login.
	FrontendURL string
	Recorder    CallbackRecorder
	Logger      *log.Logger
}

// OAuthHandler handles OAuth2 callback requests for the authorization code flow with PKCE.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	flow        Authorizer
	frontendURL string
	recorder    CallbackRecorder
	logger      *log.Logger
	resultChan  chan OAuthResult
	once        sync.Once
}

// NewOAuthHandler creates a new OAuth callback handler backed by flow.
func NewOAuthHandler(flow Authorizer, opts OAuthOptions) *OAuthHandler {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &OAuthHandler{
		flow:        flow,
		frontendURL: opts.FrontendURL,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
		resultChan:  make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the OAuth callback request.
//
// Validates state and code, exchanges the code for a token, and reports the first outcome through the result channel.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	cred, err := h.flow.CompleteCallback(r.Context(), auth.CallbackParams{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	})
	if err != nil {
		status, outcome, msg := classifyCallbackError(err)
		h.record(outcome)
		h.Send(OAuthResult{err: err})
		h.logger.Warn("authorization callback rejected", "outcome", outcome, "error", err)
		http.Error(w, msg, status)
		return
	}

	h.record("success")
	h.Send(OAuthResult{Credential: cred})

	if h.frontendURL != "" {
		http.Redirect(w, r, h.frontendURL+"#"+tokenFragment(cred, time.Now()), http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// classifyCallbackError maps a callback failure to a status, a metric outcome and a message for the browser.
func classifyCallbackError(err error) (int, string, string) {
	switch {
	case errors.Is(err, shared.ErrInvalidState):
		return http.StatusBadRequest, "invalid_state", "Invalid or expired state parameter. Please start the login again."
	case errors.Is(err, shared.ErrMissingCode):
		return http.StatusBadRequest, "missing_code", "Authorization failed: " + err.Error()
	case errors.Is(err, shared.ErrExchangeFailed):
		return http.StatusBadGateway, "exchange_failed", "Token exchange with Spotify failed. Please try again."
	default:
		return http.StatusInternalServerError, "error", "Authorization failed"
	}
}

// tokenFragment encodes the credential for the frontend; fragments never reach server logs.
func tokenFragment(cred models.AccessCredential, now time.Time) string {
	v := url.Values{}
	v.Set("access_token", cred.Token)
	v.Set("token_type", "Bearer")
	if !cred.ExpiresAt.IsZero() {
		v.Set("expires_in", strconv.Itoa(int(cred.ExpiresAt.Sub(now).Seconds())))
		v.Set("expires_at", strconv.FormatInt(cred.ExpiresAt.Unix(), 10))
	}
	return v.Encode()
}

func (h *OAuthHandler) record(outcome string) {
	if h.recorder != nil {
		h.recorder.RecordCallback(outcome)
	}
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

// AuthRedirectHandler starts an authorization by redirecting the browser to Spotify.
type AuthRedirectHandler struct {
	flow   Authorizer
	logger *log.Logger
}

// NewAuthRedirectHandler creates a handler for GET /auth/spotify.
func NewAuthRedirectHandler(flow Authorizer, logger *log.Logger) *AuthRedirectHandler {
	return &AuthRedirectHandler{flow: flow, logger: logger}
}

func (h *AuthRedirectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, authURL, err := h.flow.AuthorizationURL(r.Context())
	if err != nil {
		h.logger.Error("failed to start authorization", "error", err)
		writeError(w, http.StatusInternalServerError, "auth_error", "Failed to start authorization")
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

const successPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
