package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/promptlist/internal/auth"
	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/server"
	"github.com/desertthunder/promptlist/internal/shared"
	"github.com/desertthunder/promptlist/internal/ui"
	"github.com/urfave/cli/v3"
)

const loginTimeout = 2 * time.Minute

// AuthLogin performs the PKCE authorization flow for Spotify from the terminal.
//
// Starts a local HTTP server on the configured redirect URI, opens the browser for user authorization and
// prints the resulting access token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	cred, err := r.doOAuth(ctx, cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(cred, true)
	}

	r.writePlainln("%s", ui.Styles.OK("✓ Authorization successful"))
	r.writePlain("Access token: %s\n", cred.Token)
	r.writePlain("Expires at:   %s\n\n", cred.ExpiresAt.Local().Format(time.RFC1123))
	r.writePlain("%s\n", ui.Styles.Help("Use it with: promptlist export --token <token> or SPOTIFY_ACCESS_TOKEN"))
	return nil
}

// doOAuth executes the authorization flow with a temporary local HTTP server.
func (r *Runner) doOAuth(ctx context.Context, noBrowser bool) (models.AccessCredential, error) {
	redirect, err := url.Parse(r.config.Credentials.Spotify.RedirectURI)
	if err != nil || redirect.Host == "" {
		return models.AccessCredential{}, fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, r.config.Credentials.Spotify.RedirectURI)
	}
	path := redirect.Path
	if path == "" {
		path = "/callback"
	}

	store := auth.NewMemoryStore()
	defer store.Close()

	flow, err := r.newFlow(store)
	if err != nil {
		return models.AccessCredential{}, err
	}

	_, authURL, err := flow.AuthorizationURL(ctx)
	if err != nil {
		return models.AccessCredential{}, err
	}

	oauthHandler := server.NewOAuthHandler(flow, server.OAuthOptions{Logger: r.logger})
	router := server.NewBasicRouter()
	router.Handle(http.MethodGet, path, oauthHandler)

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return models.AccessCredential{}, fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting OAuth callback server", "addr", redirect.Host, "path", path)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	if noBrowser {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for Spotify authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser automatically", "error", err)
			r.writePlainln("%s", ui.Styles.Warn("⚠ Could not open browser automatically."))
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(loginTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return models.AccessCredential{}, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return models.AccessCredential{}, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return models.AccessCredential{}, ctx.Err()
	}

	if result.Error() != nil {
		return models.AccessCredential{}, fmt.Errorf("authorization failed: %w", result.Error())
	}
	return result.Credential, nil
}
