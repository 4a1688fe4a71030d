package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// barCells counts rendered bar cells, ignoring any styling escapes.
func barCells(p ProgressBar, out string) (filled, empty int) {
	return strings.Count(out, p.BarChar), strings.Count(out, p.EmptyChar)
}

func TestProgressBarReservesTimeDisplayOnce(t *testing.T) {
	p := NewProgressBar(50)

	filled, empty := barCells(p, p.View(30, 60))
	assert.Equal(t, 36, filled+empty, "bar must fill Width minus the time display")
	assert.Equal(t, 18, filled)
}

func TestProgressBarUnknownTotal(t *testing.T) {
	p := NewProgressBar(50)

	out := p.View(75, 0)
	filled, empty := barCells(p, out)
	assert.Zero(t, filled, "an unknown total renders an empty bar")
	assert.Equal(t, 36, empty)
	assert.Contains(t, out, "01:15/00:00")
}

func TestProgressBarClampsOverrun(t *testing.T) {
	p := NewProgressBar(50)

	filled, empty := barCells(p, p.View(90, 60))
	assert.Equal(t, 36, filled)
	assert.Zero(t, empty)
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "00:00", formatSeconds(0))
	assert.Equal(t, "00:59", formatSeconds(59))
	assert.Equal(t, "02:05", formatSeconds(125))
}
