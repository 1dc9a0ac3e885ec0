package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/tasks"
)

// ViewState enumerates the screens of the export workflow.
type ViewState int

const (
	ReviewView ViewState = iota
	ExportView
	ResultView
)

// Model is the bubbletea model for a single playlist export.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	exporter tasks.Exporter
	request  tasks.ExportRequest

	state        ViewState
	tracks       list.Model
	spinner      spinner.Model
	help         help.Model
	keys         keyMap
	progressChan chan tasks.ProgressUpdate
	lastUpdate   tasks.ProgressUpdate
	log          []string

	result *models.ExportResult
	err    error
}

// NewModel creates the export TUI. With review set the track list is shown for confirmation first.
func NewModel(ctx context.Context, exporter tasks.Exporter, req tasks.ExportRequest, review bool) *Model {
	ctx, cancel := context.WithCancel(ctx)

	tracks := list.New(candidateItems(req.Tracks), list.NewDefaultDelegate(), 80, 20)
	tracks.Title = req.Name
	tracks.SetShowHelp(false)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = NewStyle("#1DB954")

	state := ExportView
	if review {
		state = ReviewView
	}

	return &Model{
		ctx:      ctx,
		cancel:   cancel,
		exporter: exporter,
		request:  req,
		state:    state,
		tracks:   tracks,
		spinner:  s,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the export right away unless the track list needs review.
func (m *Model) Init() tea.Cmd {
	if m.state == ExportView {
		return m.startExport()
	}
	return nil
}

// Update handles messages and transitions between views.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.tracks.SetSize(msg.Width, msg.Height-4)
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		if m.state != ExportView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case Msg:
		return m.handleMsg(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		m.cancel()
		return m, tea.Quit
	}

	switch m.state {
	case ReviewView:
		switch {
		case key.Matches(msg, m.keys.yes):
			m.state = ExportView
			return m, m.startExport()
		case key.Matches(msg, m.keys.no):
			m.err = context.Canceled
			m.cancel()
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.tracks, cmd = m.tracks.Update(msg)
		return m, cmd
	case ResultView:
		if key.Matches(msg, m.keys.yes) || key.Matches(msg, m.keys.no) {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.lastUpdate = update
		if update.Phase == tasks.ResolveTracks || update.Phase == tasks.CheckResolved {
			m.log = append(m.log, update.Message)
		}
		return m, m.waitForProgress()
	case MsgExportComplete:
		outcome := msg.data.(exportOutcome)
		m.result, m.err = outcome.result, outcome.err
		m.state = ResultView
		return m, nil
	}
	return m, nil
}

// startExport runs the export in a command and streams progress until it completes.
func (m *Model) startExport() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 100)
	progress := m.progressChan

	run := func() tea.Msg {
		defer close(progress)
		result, err := m.exporter.Export(m.ctx, m.request, progress)
		return exportCompleteMsg(result, err)
	}
	return tea.Batch(m.spinner.Tick, run, m.waitForProgress())
}

func (m *Model) waitForProgress() tea.Cmd {
	progress := m.progressChan
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

// View renders the current screen.
func (m *Model) View() string {
	switch m.state {
	case ReviewView:
		return m.tracks.View() + "\n" + m.help.View(m.keys)
	case ExportView:
		return m.exportView()
	case ResultView:
		return m.resultView()
	}
	return ""
}

const maxLogLines = 8

func (m *Model) exportView() string {
	var b strings.Builder
	b.WriteString(Styles.Title("Exporting " + m.request.Name))
	b.WriteString("\n")

	lines := m.log
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	for _, line := range lines {
		b.WriteString("  " + line + "\n")
	}

	msg := m.lastUpdate.Message
	if msg == "" {
		msg = "Starting export..."
	}
	fmt.Fprintf(&b, "\n%s %s\n", m.spinner.View(), msg)
	b.WriteString(Styles.Help("q to cancel"))
	return b.String()
}

func (m *Model) resultView() string {
	return RenderResult(m.result, m.err) + "\n" + Styles.Help("press q to quit")
}

// Result returns the export outcome once the program has exited.
func (m *Model) Result() (*models.ExportResult, error) {
	return m.result, m.err
}

// RenderResult formats an export outcome for the terminal.
func RenderResult(result *models.ExportResult, err error) string {
	var b strings.Builder
	if err != nil {
		b.WriteString(Styles.Err("Export failed"))
		if kind := tasks.KindOf(err); kind != "" {
			fmt.Fprintf(&b, " (%s)", kind)
		}
		fmt.Fprintf(&b, "\n%s\n", err)
		return b.String()
	}
	if result == nil {
		return Styles.Warn("Export cancelled") + "\n"
	}

	b.WriteString(Styles.OK("Playlist created"))
	fmt.Fprintf(&b, "\n%s\n", result.PlaylistURL)
	fmt.Fprintf(&b, "Added: %d  Skipped: %d\n", result.Added, result.Skipped)
	if len(result.Unresolved) > 0 {
		b.WriteString(Styles.Warn("Not found:") + "\n")
		for _, c := range result.Unresolved {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
	}
	return b.String()
}
