package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptlist/internal/auth"
	"github.com/desertthunder/promptlist/internal/services"
	"github.com/desertthunder/promptlist/internal/shared"
	"github.com/desertthunder/promptlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services left nil in [RunnerOpts] are built from the loaded configuration on first use.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	generator  services.Generator
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	Generator  services.Generator
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		generator:  opts.Generator,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, authCommand, generateCommand, exportCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Setup loads the configuration file, applies environment overrides and sets the log level.
//
// A missing file is only an error when --config was given explicitly.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.configPath = path
		r.logger.Debug("loaded config", "path", path)
	} else if cmd.IsSet("config") {
		return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	r.config.ApplyEnv()

	if err := shared.SetLogLevelString(r.logger, r.config.Log.Level); err != nil {
		return ctx, err
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

// spotifyCatalog returns the injected catalog or a [services.SpotifyService].
func (r *Runner) spotifyCatalog() services.Catalog {
	if r.catalog == nil {
		r.catalog = services.NewSpotifyService(services.SpotifyConfig{
			Timeout:    r.config.Server.Timeout(),
			HTTPClient: r.httpClient,
		}, r.logger)
	}
	return r.catalog
}

// textGenerator returns the injected generator or a [services.GeminiGenerator].
func (r *Runner) textGenerator(ctx context.Context) (services.Generator, error) {
	if r.generator != nil {
		return r.generator, nil
	}

	gemini := r.config.Credentials.Gemini
	if gemini.APIKey == "" {
		return nil, fmt.Errorf("%w: credentials.gemini.api_key or GEMINI_API_KEY is required", shared.ErrMissingCredentials)
	}

	g, err := services.NewGeminiGenerator(ctx, services.GeminiConfig{
		APIKey:     gemini.APIKey,
		Model:      gemini.Model,
		BaseURL:    gemini.BaseURL,
		Timeout:    r.config.Server.Timeout(),
		HTTPClient: r.httpClient,
	}, r.logger)
	if err != nil {
		return nil, err
	}
	r.generator = g
	return g, nil
}

// openStore creates the pending authorization store selected by auth.store.
func (r *Runner) openStore() (auth.Store, error) {
	switch r.config.Auth.Store {
	case shared.StoreSQLite:
		db, err := shared.OpenMigrated(r.config.Database)
		if err != nil {
			return nil, err
		}
		r.logger.Info("using sqlite authorization store", "path", r.config.Database.Path)
		return auth.NewSQLiteStore(db), nil
	case "", shared.StoreMemory:
		return auth.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown auth.store %q", shared.ErrInvalidConfig, r.config.Auth.Store)
	}
}

func (r *Runner) newFlow(store auth.Store) (*auth.Flow, error) {
	spotify := r.config.Credentials.Spotify
	return auth.NewFlow(auth.FlowConfig{
		ClientID:     spotify.ClientID,
		ClientSecret: spotify.ClientSecret,
		RedirectURL:  spotify.RedirectURI,
		StateTTL:     r.config.Auth.StateTTL(),
		Timeout:      r.config.Server.Timeout(),
		HTTPClient:   r.httpClient,
	}, store, r.logger)
}

func (r *Runner) newEngine(observer tasks.Observer, logger *log.Logger) *tasks.ExportEngine {
	catalog := r.spotifyCatalog()
	resolver := tasks.NewResolver(catalog, tasks.ResolverOpts{
		Workers:           r.config.Export.Workers,
		SearchesPerSecond: r.config.Export.SearchesPerSecond,
	}, observer, logger)
	return tasks.NewExportEngine(catalog, resolver, observer, logger)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
