package session

import (
	"fmt"
	"time"

	"github.com/ayusman/cardsight/internal/hands"
	"github.com/ayusman/cardsight/internal/overlay"
	"github.com/ayusman/cardsight/internal/recognition"
)

// Mode selects whether detection runs on demand or on a timer.
type Mode int

const (
	// ModeSingle runs one round trip per explicit request.
	ModeSingle Mode = iota
	// ModeContinuous runs the detection loop while the source is active.
	ModeContinuous
)

func (m Mode) String() string {
	if m == ModeContinuous {
		return "continuous"
	}
	return "single"
}

// ParseMode parses "single" or "continuous".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "single":
		return ModeSingle, nil
	case "continuous":
		return ModeContinuous, nil
	}
	return ModeSingle, fmt.Errorf("unknown mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// State is the session's lifecycle state.
type State int

const (
	// StateIdle means no source is active.
	StateIdle State = iota
	// StateReady means the source is active and no loop is running.
	StateReady
	// StateDetecting means the detection loop is running.
	StateDetecting
	// StateError is entered on source or round-trip failure; only Restart leaves it.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateDetecting:
		return "detecting"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Status is the UI-facing status signal.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusActive     Status = "active"
	StatusDetecting  Status = "detecting"
	StatusError      Status = "error"
	StatusStopped    Status = "stopped"
)

// Action selects what a round trip feeds.
type Action int

const (
	// ActionDetect feeds metrics, overlay, totals and the result sink.
	ActionDetect Action = iota
	// ActionUpdateHands feeds the hand reconciler only.
	ActionUpdateHands
)

func (a Action) String() string {
	if a == ActionUpdateHands {
		return "update_hands"
	}
	return "detect"
}

// ParseAction parses "detect" or "update_hands". Empty means detect.
func ParseAction(s string) (Action, error) {
	switch s {
	case "", "detect":
		return ActionDetect, nil
	case "update_hands":
		return ActionUpdateHands, nil
	}
	return ActionDetect, fmt.Errorf("unknown action %q", s)
}

// Result is one applied detection round trip.
type Result struct {
	SessionID  string                  `json:"session_id"`
	Seq        uint64                  `json:"seq"`
	Detections []recognition.Detection `json:"detections"`
	Boxes      []overlay.Box           `json:"boxes"`
	Source     overlay.Size            `json:"source"`
	Display    overlay.Size            `json:"display"`
	At         time.Time               `json:"at"`
}

// HandUpdate carries the hands after a merge or a reset.
type HandUpdate struct {
	SessionID string           `json:"session_id"`
	Seq       uint64           `json:"seq,omitempty"`
	Players   []int            `json:"players,omitempty"`
	Reset     bool             `json:"reset"`
	Hands     []hands.Snapshot `json:"hands"`
}

// Metrics is the throughput view published after each detect round trip.
type Metrics struct {
	FPS             int `json:"fps"`
	FrameCount      int `json:"frame_count"`
	TotalDetections int `json:"total_detections"`
}

// RecentDetection is an entry of the recent results list.
type RecentDetection struct {
	recognition.Detection
	Seq        uint64    `json:"seq"`
	DetectedAt time.Time `json:"detected_at"`
}

// Snapshot is a consistent copy of the observable session state.
type Snapshot struct {
	ID              string            `json:"id"`
	Status          Status            `json:"status"`
	State           string            `json:"state"`
	Mode            Mode              `json:"mode"`
	Running         bool              `json:"running"`
	NumPlayers      int               `json:"num_players"`
	FPS             int               `json:"fps"`
	FrameCount      int               `json:"frame_count"`
	TotalDetections int               `json:"total_detections"`
	LastTickAt      time.Time         `json:"last_tick_at"`
	Display         overlay.Size      `json:"display"`
	Hands           []hands.Snapshot  `json:"hands"`
	Recent          []RecentDetection `json:"recent"`
	LastError       string            `json:"last_error,omitempty"`
}
