package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/promptlist/internal/formatter"
	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/shared"
	"github.com/desertthunder/promptlist/internal/tasks"
	"github.com/desertthunder/promptlist/internal/ui"
	"github.com/urfave/cli/v3"
)

// Export creates a Spotify playlist from a track list file or a generated prompt.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	token := strings.TrimSpace(cmd.String("token"))
	if token == "" {
		return fmt.Errorf("%w: --token or SPOTIFY_ACCESS_TOKEN is required (run auth login)", shared.ErrMissingArgument)
	}

	tracks, err := r.exportTracks(ctx, cmd.String("file"), cmd.String("prompt"))
	if err != nil {
		return err
	}

	req := tasks.ExportRequest{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		Public:      r.config.Export.Public && !cmd.Bool("private"),
		Tracks:      tracks,
		Credential:  models.AccessCredential{Token: token},
	}

	var result *models.ExportResult
	if cmd.Bool("plain") || cmd.Bool("json") {
		result, err = r.exportPlain(ctx, req, !cmd.Bool("json"))
	} else {
		result, err = r.exportInteractive(ctx, req, !cmd.Bool("yes"))
	}

	if errors.Is(err, context.Canceled) {
		return r.writePlain("%s\n", ui.Styles.Warn("Export cancelled"))
	}
	if err != nil {
		if tasks.KindOf(err).Reauthorize() {
			r.writePlain("%s\n", ui.Styles.Warn("The access token was rejected. Run `promptlist auth login` and retry."))
		}
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	return nil
}

// exportTracks reads candidates from exactly one of file or prompt.
func (r *Runner) exportTracks(ctx context.Context, file, prompt string) ([]models.TrackCandidate, error) {
	switch {
	case file != "" && prompt != "":
		return nil, fmt.Errorf("%w: cannot specify both --file and --prompt", shared.ErrInvalidArgument)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read track list: %w", err)
		}
		tracks := formatter.ParseTrackList(string(data))
		if len(tracks) == 0 {
			return nil, fmt.Errorf("%w: %s contains no numbered tracks", shared.ErrInvalidArgument, file)
		}
		return tracks, nil
	case prompt != "":
		_, tracks, err := r.generateTracks(ctx, prompt)
		return tracks, err
	default:
		return nil, fmt.Errorf("%w: either --file or --prompt must be provided", shared.ErrMissingArgument)
	}
}

// exportPlain runs the export and prints one line per progress update.
func (r *Runner) exportPlain(ctx context.Context, req tasks.ExportRequest, verbose bool) (*models.ExportResult, error) {
	progress := make(chan tasks.ProgressUpdate, 100)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if verbose {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := r.newEngine(nil, r.logger).Export(ctx, req, progress)
	close(progress)
	wg.Wait()

	if verbose {
		r.writePlainln("%s", ui.RenderResult(result, err))
	}
	return result, err
}

// exportInteractive runs the export behind the bubbletea view. Logs are discarded while the view owns the
// terminal.
func (r *Runner) exportInteractive(ctx context.Context, req tasks.ExportRequest, review bool) (*models.ExportResult, error) {
	engine := r.newEngine(nil, shared.NewLogger(io.Discard))
	model := ui.NewModel(ctx, engine, req, review)

	if _, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(r.output)).Run(); err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	result, err := model.Result()
	if result == nil && err == nil {
		return nil, context.Canceled
	}
	return result, err
}
