package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/promptlist/internal/formatter"
	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// generation is the JSON shape printed by generate --json.
type generation struct {
	Prompt   string                  `json:"prompt"`
	Playlist string                  `json:"playlist"`
	Tracks   []models.TrackCandidate `json:"tracks"`
}

// Generate asks the text generator for a playlist and prints the parsed track list.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	prompt := strings.TrimSpace(cmd.StringArg("prompt"))
	if prompt == "" {
		return fmt.Errorf("%w: prompt is required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	text, tracks, err := r.generateTracks(ctx, prompt)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(generation{Prompt: prompt, Playlist: text, Tracks: tracks}, true)
	}

	listing := formatter.NewListing(cmd.String("name"), tracks)
	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteListing(listing, format, output)
		if err != nil {
			return err
		}
		r.logger.Info("track list written", "path", path, "tracks", len(tracks))
		return r.writePlain("✓ %d tracks written to %s\n", len(tracks), path)
	}

	data, err := formatter.Render(listing, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// generateTracks runs the generator and parses its reply. A reply without any numbered lines is an error.
func (r *Runner) generateTracks(ctx context.Context, prompt string) (string, []models.TrackCandidate, error) {
	generator, err := r.textGenerator(ctx)
	if err != nil {
		return "", nil, err
	}

	r.logger.Info("generating playlist", "generator", generator.Name())
	text, err := generator.Generate(ctx, prompt)
	if err != nil {
		return "", nil, err
	}

	tracks := formatter.ParseTrackList(text)
	if len(tracks) == 0 {
		return text, nil, fmt.Errorf("%w: reply contained no numbered tracks", shared.ErrGeneration)
	}
	r.logger.Debug("parsed track list", "tracks", len(tracks))
	return text, tracks, nil
}
