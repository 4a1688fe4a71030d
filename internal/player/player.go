// Package player implements the playback core: the play/pause/stop state
// machine, the background decode-and-stream loop, elapsed-time accounting,
// and fade-based volume control.
package player

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/jpardeiro/jpod/internal/audio"
	playerrors "github.com/jpardeiro/jpod/pkg/errors"
	"github.com/jpardeiro/jpod/pkg/events"
)

const (
	defaultChunkSize     = 8192
	defaultBacklogChunks = 32
	defaultFadeDuration  = 300 * time.Millisecond
	defaultIdlePoll      = 5 * time.Millisecond
	defaultBacklogPoll   = 10 * time.Millisecond
	defaultDrainPoll     = 50 * time.Millisecond

	fadeSteps = 10
)

// Options configures a Player. Decoder and Device are required; the rest
// default to sensible values.
type Options struct {
	Decoder audio.Decoder
	Device  audio.Device
	Bus     *events.Bus // optional; events are dropped without one

	InitialVolume float64       // starting volume in [0, 1]; negative means full volume
	FadeDuration  time.Duration // length of the pause/resume fade
	ChunkSize     int           // bytes per decode read
	BacklogChunks int           // backlog cap, in chunks, before enqueue waits

	IdlePoll    time.Duration // streaming loop sleep while not playing
	BacklogPoll time.Duration // sleep while the backlog is over the cap
	DrainPoll   time.Duration // sleep while waiting for the backlog to empty
}

func (o *Options) applyDefaults() {
	// Zero is a valid starting volume; only a negative value means unset.
	if o.InitialVolume < 0 {
		o.InitialVolume = 1.0
	}
	if o.FadeDuration <= 0 {
		o.FadeDuration = defaultFadeDuration
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = defaultChunkSize
	}
	if o.BacklogChunks <= 0 {
		o.BacklogChunks = defaultBacklogChunks
	}
	if o.IdlePoll <= 0 {
		o.IdlePoll = defaultIdlePoll
	}
	if o.BacklogPoll <= 0 {
		o.BacklogPoll = defaultBacklogPoll
	}
	if o.DrainPoll <= 0 {
		o.DrainPoll = defaultDrainPoll
	}
}

// Player owns playback state and the background streaming loop. Command
// methods may be called from any goroutine; the read-only accessors are
// safe to poll concurrently with playback.
type Player struct {
	opts Options

	state      atomic.Int32
	volume     atomic.Uint64 // float64 bits
	lastVolume atomic.Uint64 // volume snapshot taken when pausing
	elapsedSec atomic.Int64
	totalSec   atomic.Int64

	// Current run-segment: playback time accumulated before the segment
	// plus the wall-clock instant the segment started.
	clockMu      sync.Mutex
	accumulated  time.Duration
	segmentStart time.Time

	// Decode session. Held only for the duration of a single read, seek
	// or swap, never across a wait.
	sessionMu sync.Mutex
	session   audio.Session

	// Output sink. Every device operation holds this lock; waits poll it
	// rather than holding it.
	deviceMu sync.Mutex
	sink     audio.Sink

	metaMu sync.RWMutex
	title  string
	artist string

	cursorMu sync.RWMutex
	cursor   Cursor

	// Serializes command handlers (load, pause, resume, seek, next, prev).
	ctrlMu sync.Mutex

	cancel    context.CancelFunc
	loopDone  chan struct{}
	closeOnce sync.Once
}

// New creates a player. Call Start to launch the streaming loop and Close
// to shut it down.
func New(opts Options) *Player {
	opts.applyDefaults()
	p := &Player{opts: opts}
	p.state.Store(int32(StateStopped))
	p.volume.Store(math.Float64bits(clampVolume(opts.InitialVolume)))
	p.lastVolume.Store(p.volume.Load())
	return p
}

// Start launches the background streaming loop. The context is the
// cancellation token for every wait point in the loop.
func (p *Player) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.loopDone = make(chan struct{})
	go p.run(ctx)
}

// Close stops playback and releases the session and the device. It is
// idempotent and safe to call from any goroutine. The streaming loop is
// joined before any resource is released.
func (p *Player) Close() {
	p.closeOnce.Do(func() {
		p.state.Store(int32(StateShuttingDown))
		if p.cancel != nil {
			p.cancel()
		}
		if p.loopDone != nil {
			<-p.loopDone
		}

		p.ctrlMu.Lock()
		defer p.ctrlMu.Unlock()

		p.sessionMu.Lock()
		sess := p.session
		p.session = nil
		p.sessionMu.Unlock()
		if sess != nil {
			sess.Close()
		}

		p.deviceMu.Lock()
		sink := p.sink
		p.sink = nil
		p.deviceMu.Unlock()
		if sink != nil {
			sink.Close()
		}
	})
}

// SetPlaylist attaches a cursor used for auto-advance and next/prev.
func (p *Player) SetPlaylist(c Cursor) {
	p.cursorMu.Lock()
	p.cursor = c
	p.cursorMu.Unlock()
}

// Playlist returns the attached cursor, or nil.
func (p *Player) Playlist() Cursor {
	p.cursorMu.RLock()
	defer p.cursorMu.RUnlock()
	return p.cursor
}

// LoadCurrent loads the cursor's current song. No-op without a cursor.
func (p *Player) LoadCurrent() error {
	p.ctrlMu.Lock()
	defer p.ctrlMu.Unlock()

	c := p.Playlist()
	if c == nil {
		return nil
	}
	return p.loadSong(c.Current())
}

// NextSong advances the cursor and plays the next song.
func (p *Player) NextSong() error {
	p.ctrlMu.Lock()
	defer p.ctrlMu.Unlock()

	c := p.Playlist()
	if c == nil {
		return nil
	}
	p.pause()
	if err := p.loadSong(c.Next()); err != nil {
		return err
	}
	p.resume()
	return nil
}

// PrevSong steps the cursor back and plays the previous song.
func (p *Player) PrevSong() error {
	p.ctrlMu.Lock()
	defer p.ctrlMu.Unlock()

	c := p.Playlist()
	if c == nil {
		return nil
	}
	p.pause()
	if err := p.loadSong(c.Prev()); err != nil {
		return err
	}
	p.resume()
	return nil
}

// LoadSong opens path for playback. Playback is forced to Stopped first so
// the streaming loop is never mid-decode while the session is swapped. The
// device is left paused; call Resume to start audio.
func (p *Player) LoadSong(path string) error {
	p.ctrlMu.Lock()
	defer p.ctrlMu.Unlock()
	return p.loadSong(path)
}

func (p *Player) loadSong(path string) error {
	if p.State() == StateShuttingDown {
		return playerrors.ErrShuttingDown
	}

	p.transition(StateStopped)

	p.deviceMu.Lock()
	if p.sink != nil {
		p.sink.Pause()
	}
	p.deviceMu.Unlock()

	// The session is closed before replacement.
	p.sessionMu.Lock()
	old := p.session
	p.session = nil
	p.sessionMu.Unlock()
	if old != nil {
		old.Close()
	}

	sess, err := p.opts.Decoder.Open(path)
	if err != nil {
		return playerrors.NewLoadError(path, err)
	}

	format := sess.Format()
	var total int64
	if samples := sess.Length(); samples > 0 && format.SampleRate > 0 {
		total = samples / int64(format.SampleRate)
	}

	p.deviceMu.Lock()
	oldSink := p.sink
	p.sink = nil
	p.deviceMu.Unlock()
	if oldSink != nil {
		oldSink.Close()
	}

	sink, err := p.opts.Device.Open(format)
	if err != nil {
		sess.Close()
		return playerrors.NewDeviceError("open", err)
	}
	sink.Pause()

	p.clockMu.Lock()
	p.accumulated = 0
	p.segmentStart = time.Now()
	p.clockMu.Unlock()
	p.elapsedSec.Store(0)
	p.totalSec.Store(total)

	p.metaMu.Lock()
	p.title = sess.Title()
	p.artist = sess.Artist()
	p.metaMu.Unlock()

	p.sessionMu.Lock()
	p.session = sess
	p.sessionMu.Unlock()

	p.deviceMu.Lock()
	p.sink = sink
	p.deviceMu.Unlock()

	p.publish(events.Event{Type: events.EventTrackLoaded, Payload: path})
	return nil
}

// Pause suspends playback: elapsed time is captured, the current volume is
// snapshotted, audio fades to mute, then the device is paused. It returns
// only once the fade has completed. No-op unless currently playing.
func (p *Player) Pause() {
	p.ctrlMu.Lock()
	defer p.ctrlMu.Unlock()
	p.pause()
}

func (p *Player) pause() {
	if p.State() != StatePlaying {
		return
	}

	p.clockMu.Lock()
	p.accumulated += time.Since(p.segmentStart)
	p.clockMu.Unlock()

	p.lastVolume.Store(p.volume.Load())
	p.fade(0)

	p.deviceMu.Lock()
	if p.sink != nil {
		p.sink.Pause()
	}
	p.deviceMu.Unlock()

	p.transition(StatePaused)
	p.publish(events.Event{Type: events.EventStateChange, Payload: StatePaused})
}

// Resume starts or restarts playback, fading volume back to its pre-pause
// level. It returns only once the fade has completed. No-op while shutting
// down, already playing, or without a loaded session.
func (p *Player) Resume() {
	p.ctrlMu.Lock()
	defer p.ctrlMu.Unlock()
	p.resume()
}

func (p *Player) resume() {
	if st := p.State(); st == StateShuttingDown || st == StatePlaying {
		return
	}

	p.sessionMu.Lock()
	loaded := p.session != nil
	p.sessionMu.Unlock()
	if !loaded {
		return
	}

	p.clockMu.Lock()
	p.segmentStart = time.Now()
	p.clockMu.Unlock()

	p.deviceMu.Lock()
	if p.sink != nil {
		p.sink.Resume()
	}
	p.deviceMu.Unlock()

	p.fade(math.Float64frombits(p.lastVolume.Load()))

	p.transition(StatePlaying)
	p.publish(events.Event{Type: events.EventStateChange, Payload: StatePlaying})
}

// SeekRelative seeks delta seconds forward or backward in the current
// song, clamped to the song bounds. Stale queued audio is dropped and
// playback always resumes after a successful seek, even from Paused.
// No-op while shutting down; without a loaded session it returns
// ErrNoSession and playback state is unchanged.
func (p *Player) SeekRelative(delta int) error {
	p.ctrlMu.Lock()
	defer p.ctrlMu.Unlock()

	if p.State() == StateShuttingDown {
		return nil
	}

	p.sessionMu.Lock()
	if p.session == nil {
		p.sessionMu.Unlock()
		return playerrors.ErrNoSession
	}

	target := p.elapsedSec.Load() + int64(delta)
	if target < 0 {
		target = 0
	}
	// A song with unknown length only clamps at zero.
	if total := p.totalSec.Load(); total > 0 && target > total {
		target = total
	}

	offset := target * int64(p.session.Format().SampleRate)
	err := p.session.Seek(offset)
	p.sessionMu.Unlock()

	if err != nil {
		zlog.Warn().Err(err).Int64("target_sec", target).Msg("seek rejected by decoder")
		return playerrors.NewSeekError(offset, err)
	}

	// Drop audio queued before the seek so it is never heard.
	p.deviceMu.Lock()
	if p.sink != nil {
		p.sink.Clear()
	}
	p.deviceMu.Unlock()

	p.clockMu.Lock()
	p.accumulated = time.Duration(target) * time.Second
	p.segmentStart = time.Now()
	p.clockMu.Unlock()
	p.elapsedSec.Store(target)

	p.resume()
	return nil
}

// IsPlaying reports whether the streaming loop is actively playing.
func (p *Player) IsPlaying() bool {
	return p.State() == StatePlaying
}

// State returns the current playback state.
func (p *Player) State() State {
	return State(p.state.Load())
}

// Progress returns elapsed and total playback time in whole seconds.
// Total is 0 when the song length is unknown.
func (p *Player) Progress() (elapsed, total int) {
	return int(p.elapsedSec.Load()), int(p.totalSec.Load())
}

// Title returns the loaded song's title, or "" when untagged.
func (p *Player) Title() string {
	p.metaMu.RLock()
	defer p.metaMu.RUnlock()
	return p.title
}

// Artist returns the loaded song's artist, or "" when untagged.
func (p *Player) Artist() string {
	p.metaMu.RLock()
	defer p.metaMu.RUnlock()
	return p.artist
}

// SetVolume sets the playback volume, clamped to [0, 1]. It takes effect
// on the next streamed chunk, not on audio already queued.
func (p *Player) SetVolume(v float64) {
	p.volume.Store(math.Float64bits(clampVolume(v)))
}

// AdjustVolume shifts the volume by delta, clamped to [0, 1].
func (p *Player) AdjustVolume(delta float64) {
	p.SetVolume(p.Volume() + delta)
}

// Volume returns the current playback volume.
func (p *Player) Volume() float64 {
	return math.Float64frombits(p.volume.Load())
}

// fade steps the volume linearly to target over the configured fade
// duration, sleeping between steps, and snaps exactly to target at the end
// to avoid floating-point drift. It blocks until the fade completes.
func (p *Player) fade(target float64) {
	interval := p.opts.FadeDuration / fadeSteps
	step := (target - p.Volume()) / fadeSteps
	for i := 0; i < fadeSteps; i++ {
		p.SetVolume(p.Volume() + step)
		time.Sleep(interval)
	}
	p.SetVolume(target)
}

// transition moves to state s unless already shutting down. ShuttingDown
// is terminal and only ever written by Close.
func (p *Player) transition(s State) {
	for {
		cur := p.state.Load()
		if cur == int32(StateShuttingDown) {
			return
		}
		if p.state.CompareAndSwap(cur, int32(s)) {
			return
		}
	}
}

func (p *Player) publish(e events.Event) {
	if p.opts.Bus != nil {
		p.opts.Bus.Publish(e)
	}
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
