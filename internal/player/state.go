package player

// State represents the playback state.
type State int32

const (
	// StateStopped means no playback is in progress. A session may or
	// may not be loaded.
	StateStopped State = iota
	// StatePaused means a session is loaded and playback is suspended.
	StatePaused
	// StatePlaying means the streaming loop is decoding and queuing audio.
	StatePlaying
	// StateShuttingDown is terminal: set once by Close, never reverted.
	StateShuttingDown
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	case StateShuttingDown:
		return "shutting down"
	default:
		return "unknown"
	}
}

// Cursor walks an ordered, shufflable set of track paths. Next and Prev
// wrap around at the ends of the traversal order.
type Cursor interface {
	Current() string
	Next() string
	Prev() string
	HasNext() bool
	HasPrev() bool
	Reshuffle()
	Len() int
	Index() int
}
