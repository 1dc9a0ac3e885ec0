package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/promptlist/internal/auth"
	"github.com/desertthunder/promptlist/internal/metrics"
	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/shared"
	"github.com/desertthunder/promptlist/internal/tasks"
	th "github.com/desertthunder/promptlist/internal/testing"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2"
)

type fakeExporter struct {
	req    tasks.ExportRequest
	result *models.ExportResult
	err    error
}

func (f *fakeExporter) Export(_ context.Context, req tasks.ExportRequest, _ chan<- tasks.ProgressUpdate) (*models.ExportResult, error) {
	f.req = req
	return f.result, f.err
}

type fakeAuthorizer struct {
	cred models.AccessCredential
	err  error
}

func (f *fakeAuthorizer) AuthorizationURL(context.Context) (string, string, error) {
	return "state", "https://accounts.example.com/authorize?state=state", f.err
}

func (f *fakeAuthorizer) CompleteCallback(context.Context, auth.CallbackParams) (models.AccessCredential, error) {
	return f.cred, f.err
}

type testEnv struct {
	server   *Server
	exporter *fakeExporter
	gen      *th.FakeGenerator
	registry *prometheus.Registry
}

func newTestEnv(t *testing.T, flow Authorizer) *testEnv {
	t.Helper()
	env := &testEnv{
		exporter: &fakeExporter{},
		gen:      &th.FakeGenerator{Text: "1. Song A -- Artist A\n2. Song B -- Artist B"},
		registry: prometheus.NewRegistry(),
	}
	if flow == nil {
		flow = &fakeAuthorizer{}
	}
	env.server = New(Deps{
		Flow:      flow,
		Generator: env.gen,
		Exporter:  env.exporter,
		Metrics:   metrics.NewCollector(env.registry),
		Gatherer:  env.registry,
		Config:    shared.ServerConfig{Host: "127.0.0.1", Port: 0, FrontendURL: "http://localhost:3000"},
		Export:    shared.ExportConfig{Public: true},
		Logger:    shared.NewLogger(io.Discard),
	})
	return env
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp
}

func TestRoutes(t *testing.T) {
	t.Run("Health", func(t *testing.T) {
		w := newTestEnv(t, nil).do(http.MethodGet, "/health", "")
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
			t.Errorf("unexpected response %d %s", w.Code, w.Body)
		}
		if w.Header().Get(requestIDHeader) == "" {
			t.Error("expected a request id header")
		}
	})

	t.Run("Method not allowed", func(t *testing.T) {
		w := newTestEnv(t, nil).do(http.MethodGet, "/export-playlist", "")
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", w.Code)
		}
	})

	t.Run("CORS preflight", func(t *testing.T) {
		w := newTestEnv(t, nil).do(http.MethodOptions, "/export-playlist", "")
		if w.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", w.Code)
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("expected wildcard origin, got %q", w.Header().Get("Access-Control-Allow-Origin"))
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.do(http.MethodGet, "/health", "")

		w := env.do(http.MethodGet, "/metrics", "")
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "promptlist_http_requests_total") {
			t.Errorf("unexpected metrics response %d", w.Code)
		}
	})
}

func TestAuthRoutes(t *testing.T) {
	t.Run("Redirect to Spotify", func(t *testing.T) {
		w := newTestEnv(t, &fakeAuthorizer{}).do(http.MethodGet, "/auth/spotify", "")
		if w.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", w.Code)
		}
		if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "https://accounts.example.com/authorize") {
			t.Errorf("unexpected location %q", loc)
		}
	})

	t.Run("Redirect failure", func(t *testing.T) {
		w := newTestEnv(t, &fakeAuthorizer{err: errors.New("store down")}).do(http.MethodGet, "/auth/spotify", "")
		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", w.Code)
		}
	})

	t.Run("Callback errors", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want int
		}{
			{"Invalid state", fmt.Errorf("%w: forged", shared.ErrInvalidState), http.StatusBadRequest},
			{"Missing code", shared.ErrMissingCode, http.StatusBadRequest},
			{"Exchange failed", fmt.Errorf("%w: invalid_grant", shared.ErrExchangeFailed), http.StatusBadGateway},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := newTestEnv(t, &fakeAuthorizer{err: tt.err}).do(http.MethodGet, "/callback?code=x&state=y", "")
				if w.Code != tt.want {
					t.Errorf("expected %d, got %d", tt.want, w.Code)
				}
			})
		}
	})

	t.Run("Callback redirects with token fragment", func(t *testing.T) {
		expires := time.Now().Add(time.Hour)
		flow := &fakeAuthorizer{cred: models.AccessCredential{Token: "tok", ExpiresAt: expires}}

		w := newTestEnv(t, flow).do(http.MethodGet, "/callback?code=x&state=y", "")
		if w.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", w.Code)
		}

		loc, err := url.Parse(w.Header().Get("Location"))
		if err != nil {
			t.Fatalf("invalid location: %v", err)
		}
		if loc.Host != "localhost:3000" {
			t.Errorf("unexpected host %q", loc.Host)
		}
		if loc.RawQuery != "" {
			t.Error("token must not be sent in the query string")
		}

		frag, _ := url.ParseQuery(loc.Fragment)
		if frag.Get("access_token") != "tok" || frag.Get("token_type") != "Bearer" {
			t.Errorf("unexpected fragment %q", loc.Fragment)
		}
		if frag.Get("expires_at") != fmt.Sprint(expires.Unix()) {
			t.Errorf("unexpected expires_at %q", frag.Get("expires_at"))
		}
	})
}

// TestAuthorizationRoundTrip drives the real flow through both routes against a fake token endpoint.
func TestAuthorizationRoundTrip(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code_verifier") == "" {
			http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenSrv.Close()

	flow, err := auth.NewFlow(auth.FlowConfig{
		ClientID:    "client-id",
		RedirectURL: "http://127.0.0.1:3001/callback",
		Endpoint:    oauth2.Endpoint{AuthURL: "https://accounts.example.com/authorize", TokenURL: tokenSrv.URL, AuthStyle: oauth2.AuthStyleInParams},
	}, auth.NewMemoryStore(), shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("failed to create flow: %v", err)
	}

	env := newTestEnv(t, flow)

	w := env.do(http.MethodGet, "/auth/spotify", "")
	loc, _ := url.Parse(w.Header().Get("Location"))
	state := loc.Query().Get("state")
	if state == "" || loc.Query().Get("code_challenge_method") != "S256" {
		t.Fatalf("unexpected authorize url %s", loc)
	}

	w = env.do(http.MethodGet, "/callback?code=abc&state="+url.QueryEscape(state), "")
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", w.Code, w.Body)
	}

	w = env.do(http.MethodGet, "/callback?code=abc&state="+url.QueryEscape(state), "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("replayed callback should be rejected, got %d", w.Code)
	}
}

func TestOAuthHandlerResult(t *testing.T) {
	h := NewOAuthHandler(&fakeAuthorizer{cred: models.AccessCredential{Token: "tok"}}, OAuthOptions{Logger: shared.NewLogger(io.Discard)})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback?code=x&state=y", nil))

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Authorization Successful") {
		t.Errorf("expected success page, got %d", w.Code)
	}

	select {
	case res := <-h.Result():
		if res.Error() != nil || res.Credential.Token != "tok" {
			t.Errorf("unexpected result %+v", res)
		}
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}

	// A second callback must not block or panic on the closed channel.
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=x&state=y", nil))
}

func TestGenerateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		env := newTestEnv(t, nil)
		w := env.do(http.MethodPost, "/generate-playlist", `{"prompt":"two songs"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
		}

		var resp GenerateResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(resp.Tracks) != 2 || resp.Tracks[1].Title != "Song B" {
			t.Errorf("unexpected tracks %+v", resp.Tracks)
		}
		if env.gen.Prompts[0] != "two songs" {
			t.Errorf("unexpected prompt %q", env.gen.Prompts[0])
		}
	})

	t.Run("Missing prompt", func(t *testing.T) {
		w := newTestEnv(t, nil).do(http.MethodPost, "/generate-playlist", `{"prompt":"  "}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("Malformed body", func(t *testing.T) {
		w := newTestEnv(t, nil).do(http.MethodPost, "/generate-playlist", `{`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("Generator failure", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.gen.Err = shared.ErrGeneration

		w := env.do(http.MethodPost, "/generate-playlist", `{"prompt":"x"}`)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", w.Code)
		}
	})

	t.Run("Not configured", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewGenerateHandler(nil, shared.NewLogger(io.Discard)).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/generate-playlist", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", w.Code)
		}
	})
}

func TestExportHandler(t *testing.T) {
	body := `{"playlistName":"Mix","tracks":[{"name":"Song A","artist":"Artist A"}],"accessToken":"tok","expiresAt":4102444800}`

	t.Run("Success", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.exporter.result = &models.ExportResult{
			PlaylistID:  "pl-1",
			PlaylistURL: "https://open.spotify.com/playlist/pl-1",
			Added:       1,
			Unresolved:  []models.TrackCandidate{},
		}

		w := env.do(http.MethodPost, "/export-playlist", body)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
		}
		if !strings.Contains(w.Body.String(), `"playlistUrl":"https://open.spotify.com/playlist/pl-1"`) {
			t.Errorf("unexpected body %s", w.Body)
		}

		req := env.exporter.req
		if req.Name != "Mix" || !req.Public || req.Credential.Token != "tok" {
			t.Errorf("unexpected export request %+v", req)
		}
		if req.Credential.ExpiresAt.Unix() != 4102444800 {
			t.Errorf("unexpected expiry %v", req.Credential.ExpiresAt)
		}
		if req.Tracks[0] != (models.TrackCandidate{Title: "Song A", Artist: "Artist A"}) {
			t.Errorf("unexpected tracks %+v", req.Tracks)
		}
	})

	t.Run("Failure mapping", func(t *testing.T) {
		tests := []struct {
			kind tasks.FailureKind
			want int
		}{
			{tasks.KindInvalidRequest, http.StatusBadRequest},
			{tasks.KindNoTracksResolved, http.StatusBadRequest},
			{tasks.KindAuth, http.StatusInternalServerError},
			{tasks.KindPlaylistCreate, http.StatusInternalServerError},
			{tasks.KindAttach, http.StatusInternalServerError},
		}

		for _, tt := range tests {
			t.Run(string(tt.kind), func(t *testing.T) {
				env := newTestEnv(t, nil)
				env.exporter.err = &tasks.ExportError{Kind: tt.kind, Stage: tasks.StageCheck, Err: tt.kind.Sentinel()}

				w := env.do(http.MethodPost, "/export-playlist", body)
				if w.Code != tt.want {
					t.Errorf("expected %d, got %d", tt.want, w.Code)
				}
				if resp := decodeError(t, w); resp.Error != string(tt.kind) || resp.Message == "" {
					t.Errorf("unexpected error body %+v", resp)
				}
			})
		}
	})

	t.Run("Malformed body", func(t *testing.T) {
		w := newTestEnv(t, nil).do(http.MethodPost, "/export-playlist", `not json`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
		if resp := decodeError(t, w); resp.Error != "invalid_request" {
			t.Errorf("unexpected error kind %q", resp.Error)
		}
	})
}

func TestMiddleware(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("Recovery", func(t *testing.T) {
		h := RecoveryMiddleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", w.Code)
		}
	})

	t.Run("Logging keeps incoming request id", func(t *testing.T) {
		h := LoggingMiddleware(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, "abc")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Header().Get(requestIDHeader) != "abc" {
			t.Errorf("expected request id abc, got %q", w.Header().Get(requestIDHeader))
		}
	})

	t.Run("CORS allow list", func(t *testing.T) {
		h := CORSMiddleware([]string{"http://localhost:3000"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

		for origin, want := range map[string]string{
			"http://localhost:3000": "http://localhost:3000",
			"http://evil.example":   "",
		} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", origin)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != want {
				t.Errorf("origin %s: expected %q, got %q", origin, want, got)
			}
		}
	})
}
