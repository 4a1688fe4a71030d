package player

import (
	"context"
	"encoding/binary"
	"io"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/jpardeiro/jpod/pkg/events"
)

// run is the background streaming loop. It idles while playback is not
// active, streams the session while it is, and handles end-of-song by
// advancing the playlist or stopping. Every wait point re-checks the
// context so shutdown latency is bounded by one polling interval.
func (p *Player) run(ctx context.Context) {
	defer close(p.loopDone)

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.opts.IdlePoll):
		}

		if p.State() == StateShuttingDown {
			return
		}
		if p.State() != StatePlaying {
			continue
		}

		p.deviceMu.Lock()
		if p.sink != nil {
			p.sink.Resume()
		}
		p.deviceMu.Unlock()

		p.streamAudio(ctx)
		p.drainBacklog(ctx)

		// The waits above also unblock on cancellation; without this check
		// a cancelled loop would still advance to the next song.
		if ctx.Err() != nil {
			return
		}

		// Still Playing here means the decoder ran dry rather than a
		// command changing state mid-stream.
		if p.State() != StatePlaying {
			continue
		}

		p.closeSession()
		p.publish(events.Event{Type: events.EventTrackEnded})

		if p.Playlist() == nil {
			p.transition(StateStopped)
			p.publish(events.Event{Type: events.EventStateChange, Payload: StateStopped})
			continue
		}
		if err := p.NextSong(); err != nil {
			zlog.Warn().Err(err).Msg("could not advance to next song")
			p.publish(events.Event{Type: events.EventError, Payload: err})
			p.transition(StateStopped)
			p.publish(events.Event{Type: events.EventStateChange, Payload: StateStopped})
		}
	}
}

// streamAudio decodes and enqueues chunks while playback stays active and
// the decoder keeps succeeding. Any read failure that is not EOF is
// treated the same way: end of playable data.
func (p *Player) streamAudio(ctx context.Context) {
	buf := make([]byte, p.opts.ChunkSize)

	for p.State() == StatePlaying {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := p.readChunk(buf)
		if n > 0 {
			p.updateElapsed()
			if !p.waitForBacklogSpace(ctx) {
				return
			}
			applyGain(buf[:n], p.Volume())

			p.deviceMu.Lock()
			if p.sink != nil {
				p.sink.Enqueue(buf[:n])
			}
			p.deviceMu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// readChunk reads one decoded chunk, holding the session lock only for
// the duration of the read.
func (p *Player) readChunk(buf []byte) (int, error) {
	p.sessionMu.Lock()
	defer p.sessionMu.Unlock()

	if p.session == nil {
		return 0, io.EOF
	}
	return p.session.Read(buf)
}

// waitForBacklogSpace blocks until the device backlog is at or below the
// configured cap. This is the backpressure bound that keeps memory and
// control latency proportional to a handful of chunks, not to song length.
// It returns false when playback stops or the context is cancelled.
func (p *Player) waitForBacklogSpace(ctx context.Context) bool {
	limit := p.opts.ChunkSize * p.opts.BacklogChunks

	for p.State() == StatePlaying {
		p.deviceMu.Lock()
		ready := true
		if p.sink != nil {
			ready = p.sink.QueuedBytes() <= limit
		}
		p.deviceMu.Unlock()

		if ready {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(p.opts.BacklogPoll):
		}
	}
	return false
}

// drainBacklog waits for the device queue to play out after the decoder is
// exhausted, so the last chunks are heard before the session is closed.
func (p *Player) drainBacklog(ctx context.Context) {
	for p.State() == StatePlaying {
		p.deviceMu.Lock()
		remaining := 0
		if p.sink != nil {
			remaining = p.sink.QueuedBytes()
		}
		p.deviceMu.Unlock()

		if remaining <= 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.opts.DrainPoll):
		}
	}
}

// closeSession closes and clears the decode session, if any.
func (p *Player) closeSession() {
	p.sessionMu.Lock()
	sess := p.session
	p.session = nil
	p.sessionMu.Unlock()

	if sess != nil {
		sess.Close()
	}
}

// updateElapsed recomputes the elapsed-seconds counter from the time
// accumulated before this run-segment plus the segment's wall-clock age.
func (p *Player) updateElapsed() {
	p.clockMu.Lock()
	e := p.accumulated + time.Since(p.segmentStart)
	p.clockMu.Unlock()

	p.elapsedSec.Store(int64(e / time.Second))
}

// applyGain scales signed 16-bit little-endian samples in place. Volume
// never exceeds 1, so the multiply cannot overflow.
func applyGain(buf []byte, vol float64) {
	if vol >= 1 {
		return
	}
	for i := 0; i+1 < len(buf); i += 2 {
		s := int16(binary.LittleEndian.Uint16(buf[i:]))
		s = int16(float64(s) * vol)
		binary.LittleEndian.PutUint16(buf[i:], uint16(s))
	}
}
