package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// DefaultTokenLifetime is assumed when the token response omits expires_in.
const DefaultTokenLifetime = 30 * time.Minute

// Scopes is the fixed set of capabilities requested from Spotify.
var Scopes = []string{
	"user-read-private",
	"user-library-read",
	"playlist-modify-public",
	"playlist-modify-private",
}

// SpotifyEndpoint is the Spotify accounts service. Client credentials are sent in the request body
// so that public clients can omit the secret.
var SpotifyEndpoint = oauth2.Endpoint{
	AuthURL:   spotifyAuthURL,
	TokenURL:  spotifyTokenURL,
	AuthStyle: oauth2.AuthStyleInParams,
}

// Transition names a step of one authorization attempt.
type Transition string

const (
	Initiated        Transition = "initiated"
	CallbackReceived Transition = "callback_received"
	Exchanged        Transition = "exchanged"
	Failed           Transition = "failed"
)

// FlowConfig configures a [Flow].
type FlowConfig struct {
	ClientID     string
	ClientSecret string // optional
	RedirectURL  string
	Endpoint     oauth2.Endpoint // defaults to [SpotifyEndpoint]
	StateTTL     time.Duration   // defaults to 10 minutes
	Timeout      time.Duration   // bounds the token exchange; defaults to 10 seconds
	HTTPClient   *http.Client
}

// CallbackParams are the query parameters of the provider's redirect back to us.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// Flow is the authorization flow controller.
type Flow struct {
	config     *oauth2.Config
	store      Store
	ttl        time.Duration
	timeout    time.Duration
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time
}

// NewFlow creates a [Flow] that records pending authorizations in store.
func NewFlow(cfg FlowConfig, store Store, logger *log.Logger) (*Flow, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("%w: missing redirect_uri", shared.ErrInvalidConfig)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: authorization store is required", shared.ErrInvalidConfig)
	}
	if cfg.Endpoint.AuthURL == "" || cfg.Endpoint.TokenURL == "" {
		cfg.Endpoint = SpotifyEndpoint
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 10 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	scopes := make([]string, len(Scopes))
	copy(scopes, Scopes)

	return &Flow{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     cfg.Endpoint,
		},
		store:      store,
		ttl:        cfg.StateTTL,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		logger:     shared.WithLogger(logger, "component", "auth"),
		now:        time.Now,
	}, nil
}

// AuthorizationURL stores a new pending authorization and returns its state and the provider URL.
func (f *Flow) AuthorizationURL(ctx context.Context) (state, authURL string, err error) {
	pending, err := NewPendingAuthorization(f.now(), f.ttl)
	if err != nil {
		return "", "", err
	}

	if err := f.store.Save(ctx, pending); err != nil {
		return "", "", fmt.Errorf("failed to store pending authorization: %w", err)
	}

	authURL = f.config.AuthCodeURL(pending.State,
		oauth2.S256ChallengeOption(pending.Verifier),
		oauth2.SetAuthURLParam("show_dialog", "true"),
	)

	f.logger.Debug("authorization", "transition", Initiated, "expires_at", pending.ExpiresAt)
	return pending.State, authURL, nil
}

// CompleteCallback validates the callback and exchanges the code for an access credential.
//
// The state is redeemed first, so an unknown state fails with [shared.ErrInvalidState] whatever the code.
// A redeemed state is spent even when the callback then fails.
func (f *Flow) CompleteCallback(ctx context.Context, params CallbackParams) (models.AccessCredential, error) {
	f.logger.Debug("authorization", "transition", CallbackReceived)

	pending, err := f.store.Redeem(ctx, params.State)
	if err != nil {
		if errors.Is(err, shared.ErrStateNotFound) {
			return f.fail(fmt.Errorf("%w: state was never issued, was already used, or expired", shared.ErrInvalidState))
		}
		return f.fail(fmt.Errorf("%w: %w", shared.ErrInvalidState, err))
	}

	if params.Code == "" {
		if params.Error != "" {
			return f.fail(fmt.Errorf("%w: provider returned %s %s", shared.ErrMissingCode, params.Error, params.ErrorDescription))
		}
		return f.fail(shared.ErrMissingCode)
	}

	exchangeCtx, cancel := context.WithTimeout(context.WithValue(ctx, oauth2.HTTPClient, f.httpClient), f.timeout)
	defer cancel()

	token, err := f.config.Exchange(exchangeCtx, params.Code, oauth2.VerifierOption(pending.Verifier))
	if err != nil {
		if errors.Is(exchangeCtx.Err(), context.DeadlineExceeded) {
			return f.fail(fmt.Errorf("%w: %w", shared.ErrExchangeFailed, shared.ErrTimeout))
		}
		return f.fail(fmt.Errorf("%w: %w", shared.ErrExchangeFailed, err))
	}

	cred := models.AccessCredential{Token: token.AccessToken, ExpiresAt: token.Expiry}
	if cred.ExpiresAt.IsZero() {
		cred.ExpiresAt = f.now().Add(DefaultTokenLifetime)
	}

	f.logger.Debug("authorization", "transition", Exchanged, "expires_at", cred.ExpiresAt)
	return cred, nil
}

func (f *Flow) fail(err error) (models.AccessCredential, error) {
	f.logger.Warn("authorization", "transition", Failed, "error", err)
	return models.AccessCredential{}, err
}
