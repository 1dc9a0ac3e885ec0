package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptlist/internal/formatter"
	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/services"
	"github.com/desertthunder/promptlist/internal/tasks"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Error: kind, Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GenerateRequest is the body of POST /generate-playlist.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse carries the raw generated text and the tracks parsed from it.
type GenerateResponse struct {
	Playlist string                  `json:"playlist"`
	Tracks   []models.TrackCandidate `json:"tracks"`
}

// GenerateHandler serves POST /generate-playlist.
type GenerateHandler struct {
	generator services.Generator
	logger    *log.Logger
}

// NewGenerateHandler creates a [GenerateHandler]. A nil generator answers 503.
func NewGenerateHandler(generator services.Generator, logger *log.Logger) *GenerateHandler {
	return &GenerateHandler{generator: generator, logger: logger}
}

func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		writeError(w, http.StatusServiceUnavailable, "generation_unavailable", "Playlist generation is not configured")
		return
	}

	var req GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Request body must be JSON with a prompt")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "Prompt is required")
		return
	}

	text, err := h.generator.Generate(r.Context(), req.Prompt)
	if err != nil {
		h.logger.Error("generation failed", "service", h.generator.Name(), "error", err)
		writeError(w, http.StatusInternalServerError, "generation_error", "Failed to generate playlist")
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{Playlist: text, Tracks: formatter.ParseTrackList(text)})
}

// ExportPayload is the body of POST /export-playlist.
//
// ExpiresAt is the credential expiry in unix seconds; zero means unknown.
type ExportPayload struct {
	PlaylistName string                  `json:"playlistName"`
	Description  string                  `json:"description,omitempty"`
	Tracks       []models.TrackCandidate `json:"tracks"`
	AccessToken  string                  `json:"accessToken"`
	ExpiresAt    int64                   `json:"expiresAt,omitempty"`
}

func (p ExportPayload) credential() models.AccessCredential {
	cred := models.AccessCredential{Token: p.AccessToken}
	if p.ExpiresAt > 0 {
		cred.ExpiresAt = time.Unix(p.ExpiresAt, 0)
	}
	return cred
}

// ExportHandler serves POST /export-playlist.
type ExportHandler struct {
	exporter tasks.Exporter
	public   bool
	logger   *log.Logger
}

// NewExportHandler creates an [ExportHandler]; public sets the visibility of created playlists.
func NewExportHandler(exporter tasks.Exporter, public bool, logger *log.Logger) *ExportHandler {
	return &ExportHandler{exporter: exporter, public: public, logger: logger}
}

func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var payload ExportPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, string(tasks.KindInvalidRequest), "Request body must be a JSON export request")
		return
	}

	result, err := h.exporter.Export(r.Context(), tasks.ExportRequest{
		Name:        payload.PlaylistName,
		Description: payload.Description,
		Public:      h.public,
		Tracks:      payload.Tracks,
		Credential:  payload.credential(),
	}, nil)
	if err != nil {
		status, kind := exportStatus(err)
		writeError(w, status, string(kind), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// exportStatus maps an export failure to its HTTP status and stable kind.
func exportStatus(err error) (int, tasks.FailureKind) {
	var xe *tasks.ExportError
	if !errors.As(err, &xe) {
		return http.StatusInternalServerError, tasks.KindUpstream
	}

	switch xe.Kind {
	case tasks.KindInvalidRequest, tasks.KindNoTracksResolved:
		return http.StatusBadRequest, xe.Kind
	default:
		return http.StatusInternalServerError, xe.Kind
	}
}
