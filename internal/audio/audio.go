// Package audio wraps MP3 decoding and the output device behind small
// capability interfaces so the player core stays independent of the
// underlying libraries.
package audio

// Format describes decoded PCM audio: signed 16-bit little-endian samples.
type Format struct {
	SampleRate int
	Channels   int
}

// BytesPerSample returns the size of one sample frame across all channels.
func (f Format) BytesPerSample() int {
	return f.Channels * 2
}

// Decoder opens compressed audio files as decode sessions.
type Decoder interface {
	Open(path string) (Session, error)
}

// Session is an open decode stream for a single track.
//
// A Session is not safe for concurrent use. The player guarantees that
// reads, seeks and the session swap at load time never overlap.
type Session interface {
	// Format returns the PCM format of the decoded stream.
	Format() Format

	// Read decodes the next PCM chunk into p. It returns io.EOF when the
	// stream is exhausted.
	Read(p []byte) (int, error)

	// Seek repositions the stream to the given sample offset.
	Seek(sample int64) error

	// Length returns the total number of samples, or 0 when unknown.
	Length() int64

	// Title and Artist return embedded tag metadata, or "" when absent.
	Title() string
	Artist() string

	Close() error
}

// Device opens output sinks sized to a decoded format.
type Device interface {
	Open(f Format) (Sink, error)
}

// Sink is a queued PCM output device. Enqueued bytes play in order;
// QueuedBytes reports the backlog not yet handed to the hardware.
type Sink interface {
	Pause()
	Resume()
	Enqueue(p []byte)
	QueuedBytes() int
	Clear()
	Close() error
}
