package audio

import (
	"io"
	"sync"

	"github.com/hajimehoshi/oto"
)

const (
	// defaultBufferSize is the hardware buffer handed to oto.
	defaultBufferSize = 8192

	// feedChunk is how many queued bytes each hardware write takes,
	// which bounds how long Pause lags behind a blocked write.
	feedChunk = 2048
)

// OtoDevice opens output sinks backed by an oto playback context. oto only
// supports one live context per process, so opening a sink for a new format
// tears down the previous context first.
type OtoDevice struct {
	mu         sync.Mutex
	ctx        *oto.Context
	bufferSize int
}

// NewOtoDevice creates a new output device
func NewOtoDevice() *OtoDevice {
	return &OtoDevice{bufferSize: defaultBufferSize}
}

// Open creates a sink for the given format. The sink starts paused.
func (d *OtoDevice) Open(f Format) (Sink, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx != nil {
		d.ctx.Close()
		d.ctx = nil
	}

	ctx, err := oto.NewContext(f.SampleRate, f.Channels, 2, d.bufferSize)
	if err != nil {
		return nil, err
	}
	d.ctx = ctx

	return NewQueueSink(ctx.NewPlayer()), nil
}

// Close releases the playback context.
func (d *OtoDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx == nil {
		return nil
	}
	err := d.ctx.Close()
	d.ctx = nil
	return err
}

// QueueSink adapts a blocking PCM writer into a queued sink. Enqueued bytes
// land in an internal queue that a feeder goroutine drains into the writer
// in small chunks, so the backlog can be queried and cleared at any time.
type QueueSink struct {
	mu     sync.Mutex
	cond   *sync.Cond
	w      io.WriteCloser
	buf    []byte
	paused bool
	closed bool
	done   chan struct{}
}

// NewQueueSink wraps w in a queue sink and starts its feeder. The sink
// starts paused; call Resume to begin feeding.
func NewQueueSink(w io.WriteCloser) *QueueSink {
	s := &QueueSink{
		w:      w,
		paused: true,
		done:   make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.feed()
	return s
}

// feed moves queued bytes into the writer while the sink is not paused.
func (s *QueueSink) feed() {
	defer close(s.done)

	for {
		s.mu.Lock()
		for !s.closed && (s.paused || len(s.buf) == 0) {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}

		n := feedChunk
		if n > len(s.buf) {
			n = len(s.buf)
		}
		chunk := make([]byte, n)
		copy(chunk, s.buf)
		s.buf = s.buf[n:]
		s.mu.Unlock()

		if _, err := s.w.Write(chunk); err != nil {
			return
		}
	}
}

// Pause stops feeding the writer. Already-written bytes keep playing.
func (s *QueueSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume restarts feeding the writer.
func (s *QueueSink) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	s.cond.Broadcast()
}

// Enqueue appends PCM bytes to the backlog.
func (s *QueueSink) Enqueue(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.buf = append(s.buf, p...)
	s.cond.Broadcast()
}

// QueuedBytes returns the backlog not yet handed to the writer.
func (s *QueueSink) QueuedBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// Clear drops the backlog without touching bytes already written.
func (s *QueueSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
}

// Close stops the feeder and closes the underlying writer.
func (s *QueueSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()

	<-s.done
	return s.w.Close()
}
