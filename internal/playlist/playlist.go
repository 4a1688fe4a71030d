// Package playlist provides a shufflable cursor over the MP3 files in a
// directory.
package playlist

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	playerrors "github.com/jpardeiro/jpod/pkg/errors"
)

// Playlist walks an ordered set of MP3 paths through a shuffle order.
// Safe for concurrent use: the control surface and the streaming loop both
// move the cursor.
type Playlist struct {
	mu    sync.Mutex
	songs []string // sorted full paths
	order []int    // traversal order over songs
	index int      // position in order
}

// New scans dir (non-recursive) for .mp3 files and builds a playlist over
// them in sorted order. It fails with ErrNoSongs when none are found.
func New(dir string) (*Playlist, error) {
	songs, err := loadSongs(dir)
	if err != nil {
		return nil, err
	}
	if len(songs) == 0 {
		return nil, fmt.Errorf("%w in %s", playerrors.ErrNoSongs, dir)
	}

	order := make([]int, len(songs))
	for i := range order {
		order[i] = i
	}
	return &Playlist{songs: songs, order: order}, nil
}

// loadSongs collects the MP3 paths in dir, sorted by name.
func loadSongs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read music directory: %w", err)
	}

	var songs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			songs = append(songs, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(songs)
	return songs, nil
}

// Current returns the song at the cursor.
func (p *Playlist) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.songs[p.order[p.index]]
}

// Next advances the cursor and returns the new current song, wrapping from
// the last position back to the first.
func (p *Playlist) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.index = (p.index + 1) % len(p.order)
	return p.songs[p.order[p.index]]
}

// Prev steps the cursor back and returns the new current song, wrapping
// from the first position to the last.
func (p *Playlist) Prev() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.index == 0 {
		p.index = len(p.order)
	}
	p.index--
	return p.songs[p.order[p.index]]
}

// HasNext reports whether a song follows the cursor in traversal order.
func (p *Playlist) HasNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index+1 < len(p.order)
}

// HasPrev reports whether a song precedes the cursor in traversal order.
func (p *Playlist) HasPrev() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index > 0
}

// Reshuffle randomizes the traversal order (Fisher-Yates) and resets the
// cursor to the start of the new order.
func (p *Playlist) Reshuffle() {
	p.mu.Lock()
	defer p.mu.Unlock()

	rand.Shuffle(len(p.order), func(i, j int) {
		p.order[i], p.order[j] = p.order[j], p.order[i]
	})
	p.index = 0
}

// Len returns the number of songs.
func (p *Playlist) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.songs)
}

// Index returns the cursor position in traversal order.
func (p *Playlist) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}
