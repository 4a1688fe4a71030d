package audio

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureWriter records written bytes and close calls.
type captureWriter struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.data = append(w.data, p...)
	return len(p), nil
}

func (w *captureWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *captureWriter) written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.data)
}

func (w *captureWriter) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func TestQueueSinkStartsPaused(t *testing.T) {
	w := &captureWriter{}
	s := NewQueueSink(w)
	defer s.Close()

	s.Enqueue(make([]byte, 1024))
	assert.Equal(t, 1024, s.QueuedBytes())

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, w.written(), "a paused sink must not feed the writer")
}

func TestQueueSinkResumeDrains(t *testing.T) {
	w := &captureWriter{}
	s := NewQueueSink(w)
	defer s.Close()

	payload := make([]byte, 10*1024)
	for i := range payload {
		payload[i] = byte(i)
	}
	s.Enqueue(payload)
	s.Resume()

	require.Eventually(t, func() bool {
		return w.written() == len(payload) && s.QueuedBytes() == 0
	}, time.Second, time.Millisecond)

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Equal(t, payload, w.data, "bytes must play out in order")
}

func TestQueueSinkClearDropsBacklog(t *testing.T) {
	w := &captureWriter{}
	s := NewQueueSink(w)
	defer s.Close()

	s.Enqueue(make([]byte, 4096))
	s.Clear()
	assert.Zero(t, s.QueuedBytes())

	s.Resume()
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, w.written(), "cleared bytes must never reach the writer")
}

func TestQueueSinkPauseStopsFeeding(t *testing.T) {
	w := &captureWriter{}
	s := NewQueueSink(w)
	defer s.Close()

	s.Resume()
	s.Enqueue(make([]byte, 1024))
	require.Eventually(t, func() bool {
		return s.QueuedBytes() == 0
	}, time.Second, time.Millisecond)

	s.Pause()
	before := w.written()
	s.Enqueue(make([]byte, 1024))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, w.written())
	assert.Equal(t, 1024, s.QueuedBytes())
}

func TestQueueSinkCloseIsIdempotent(t *testing.T) {
	w := &captureWriter{}
	s := NewQueueSink(w)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, w.isClosed())

	// Enqueue after close is a harmless no-op.
	s.Enqueue(make([]byte, 16))
	assert.Zero(t, s.QueuedBytes())
}
