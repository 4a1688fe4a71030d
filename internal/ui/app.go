// Package ui is the terminal control surface. It polls the player's
// read-only accessors for display and drives playback through the same
// command methods a programmatic caller would use.
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jpardeiro/jpod/internal/config"
	"github.com/jpardeiro/jpod/internal/player"
	"github.com/jpardeiro/jpod/pkg/events"
)

// Model is the main bubbletea model
type Model struct {
	player *player.Player

	keys       config.KeyMap
	seekStep   int
	volumeStep float64

	width    int
	progress ProgressBar
	events   <-chan events.Event

	titleStyle lipgloss.Style
	dimStyle   lipgloss.Style
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// playerEventMsg wraps a player event from the bus
type playerEventMsg events.Event

// NewModel creates a new application model
func NewModel(p *player.Player, cfg *config.Config, bus *events.Bus) Model {
	return Model{
		player:     p,
		keys:       cfg.KeyBindings,
		seekStep:   cfg.SeekStepSec,
		volumeStep: cfg.VolumeStep,
		width:      80,
		progress:   NewProgressBar(78),
		events:     bus.SubscribeAll(),
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.listenForEvents(),
	)
}

// tickCmd returns a command that ticks every 500ms
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// listenForEvents returns a command that waits for the next player event
func (m Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		if e, ok := <-m.events; ok {
			return playerEventMsg(e)
		}
		return nil
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		// View indents each line by two columns. The progress bar itself
		// reserves room for the time display.
		m.progress.Width = msg.Width - 2

	case TickMsg:
		return m, tickCmd()

	case playerEventMsg:
		return m, m.listenForEvents()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey dispatches a keypress to a player command. Commands that block
// on a fade run as tea commands so the UI stays responsive.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.player

	switch key := msg.String(); key {
	case "ctrl+c", m.keys.Quit:
		return m, tea.Quit

	case m.keys.PlayPause:
		return m, run(func() {
			if p.IsPlaying() {
				p.Pause()
			} else {
				p.Resume()
			}
		})

	case m.keys.Next:
		return m, run(func() { p.NextSong() })

	case m.keys.Previous:
		return m, run(func() { p.PrevSong() })

	case "right", m.keys.SeekForward:
		return m, run(func() { p.SeekRelative(m.seekStep) })

	case "left", m.keys.SeekBack:
		return m, run(func() { p.SeekRelative(-m.seekStep) })

	case m.keys.VolumeUp:
		p.AdjustVolume(m.volumeStep)

	case m.keys.VolumeDown:
		p.AdjustVolume(-m.volumeStep)

	case m.keys.Shuffle:
		return m, run(func() {
			if c := p.Playlist(); c != nil {
				c.Reshuffle()
				p.LoadCurrent()
				p.Resume()
			}
		})
	}

	return m, nil
}

// run wraps a player command in a fire-and-forget tea command.
func run(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

// View renders the player screen
func (m Model) View() string {
	p := m.player

	title := p.Title()
	if title == "" {
		title = "Unknown Title"
	}
	artist := p.Artist()
	if artist == "" {
		artist = "Unknown Artist"
	}

	elapsed, total := p.Progress()

	var position string
	if c := p.Playlist(); c != nil {
		position = fmt.Sprintf("song %d/%d", c.Index()+1, c.Len())
	}

	status := fmt.Sprintf("%s | vol %3.0f%% | %s",
		p.State(), p.Volume()*100, position)

	help := fmt.Sprintf(
		"space play/pause | %s/%s prev/next | ←/→ seek | %s/%s volume | %s shuffle | %s quit",
		m.keys.Previous, m.keys.Next,
		m.keys.VolumeUp, m.keys.VolumeDown,
		m.keys.Shuffle, m.keys.Quit,
	)

	return fmt.Sprintf("\n  %s\n\n  %s\n  %s\n\n  %s\n",
		m.titleStyle.Render(title+" - "+artist),
		m.progress.View(elapsed, total),
		m.dimStyle.Render(status),
		m.dimStyle.Render(help),
	)
}

// Run starts the control surface and blocks until the user quits.
func Run(p *player.Player, cfg *config.Config, bus *events.Bus) error {
	program := tea.NewProgram(NewModel(p, cfg, bus))
	_, err := program.Run()
	return err
}
