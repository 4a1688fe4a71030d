package player

import (
	"errors"
	"io"
	"sync"

	"github.com/jpardeiro/jpod/internal/audio"
)

// fakeSession serves a fixed number of chunks before reporting EOF.
type fakeSession struct {
	mu      sync.Mutex
	chunks  int
	rate    int
	samples int64
	title   string
	artist  string
	sample  byte
	seekErr error
	seeks   []int64
	closed  bool
}

func (s *fakeSession) Format() audio.Format {
	return audio.Format{SampleRate: s.rate, Channels: 2}
}

func (s *fakeSession) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chunks <= 0 {
		return 0, io.EOF
	}
	s.chunks--
	for i := range p {
		p[i] = s.sample
	}
	return len(p), nil
}

func (s *fakeSession) Seek(sample int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seekErr != nil {
		return s.seekErr
	}
	s.seeks = append(s.seeks, sample)
	return nil
}

func (s *fakeSession) Length() int64  { return s.samples }
func (s *fakeSession) Title() string  { return s.title }
func (s *fakeSession) Artist() string { return s.artist }

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSession) seekOffsets() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.seeks...)
}

// fakeDecoder maps paths to session factories; unknown paths fail to open.
// Every Open call is recorded, successful or not.
type fakeDecoder struct {
	mu       sync.Mutex
	sessions map[string]func() *fakeSession
	opens    []string
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{sessions: make(map[string]func() *fakeSession)}
}

func (d *fakeDecoder) add(path string, fn func() *fakeSession) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions[path] = fn
}

func (d *fakeDecoder) Open(path string) (audio.Session, error) {
	d.mu.Lock()
	d.opens = append(d.opens, path)
	fn, ok := d.sessions[path]
	d.mu.Unlock()

	if !ok {
		return nil, errors.New("cannot open stream")
	}
	return fn(), nil
}

func (d *fakeDecoder) openCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.opens)
}

// fakeSink records device operations. With autoDrain set, queued bytes are
// consumed as fast as they arrive so streaming never blocks.
type fakeSink struct {
	mu        sync.Mutex
	queued    int
	total     int
	paused    bool
	clears    int
	closed    bool
	autoDrain bool
}

func (s *fakeSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

func (s *fakeSink) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

func (s *fakeSink) Enqueue(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total += len(p)
	if !s.autoDrain {
		s.queued += len(p)
	}
}

func (s *fakeSink) QueuedBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queued
}

func (s *fakeSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queued = 0
	s.clears++
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSink) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

func (s *fakeSink) totalEnqueued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// fakeDevice hands out fakeSinks and keeps them for inspection.
type fakeDevice struct {
	mu        sync.Mutex
	sinks     []*fakeSink
	autoDrain bool
	openErr   error
}

func (d *fakeDevice) Open(f audio.Format) (audio.Sink, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.openErr != nil {
		return nil, d.openErr
	}
	s := &fakeSink{autoDrain: d.autoDrain}
	d.sinks = append(d.sinks, s)
	return s, nil
}

func (d *fakeDevice) lastSink() *fakeSink {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.sinks) == 0 {
		return nil
	}
	return d.sinks[len(d.sinks)-1]
}
