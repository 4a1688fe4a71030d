package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders playback progress with a time display
type ProgressBar struct {
	Width       int
	BarChar     string
	EmptyChar   string
	FilledStyle lipgloss.Style
	EmptyStyle  lipgloss.Style
}

// NewProgressBar creates a new progress bar
func NewProgressBar(width int) ProgressBar {
	return ProgressBar{
		Width:       width,
		BarChar:     "█",
		EmptyChar:   "░",
		FilledStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		EmptyStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// View renders the bar for elapsed/total whole seconds. With an unknown
// total the bar stays empty and only the elapsed time is meaningful.
func (p ProgressBar) View(elapsed, total int) string {
	var percent float64
	if total > 0 {
		percent = float64(elapsed) / float64(total)
	}
	if percent > 1 {
		percent = 1
	}

	barWidth := p.Width - 14 // Leave room for time display
	if barWidth < 10 {
		barWidth = 10
	}

	filled := int(float64(barWidth) * percent)
	empty := barWidth - filled

	var sb strings.Builder
	sb.WriteString(p.FilledStyle.Render(strings.Repeat(p.BarChar, filled)))
	sb.WriteString(p.EmptyStyle.Render(strings.Repeat(p.EmptyChar, empty)))
	sb.WriteString(" ")
	sb.WriteString(formatSeconds(elapsed))
	sb.WriteString("/")
	sb.WriteString(formatSeconds(total))

	return sb.String()
}

// formatSeconds formats whole seconds as MM:SS
func formatSeconds(s int) string {
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
