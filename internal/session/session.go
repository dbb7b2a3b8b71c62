// Package session implements the detection session: the state machine that drives
// sample -> recognize -> fan-out round trips and owns metrics, hands and overlay state.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/cardsight/internal/capture"
	"github.com/ayusman/cardsight/internal/cards"
	"github.com/ayusman/cardsight/internal/hands"
	"github.com/ayusman/cardsight/internal/metrics"
	"github.com/ayusman/cardsight/internal/overlay"
	"github.com/ayusman/cardsight/internal/recognition"
)

// Session defaults.
const (
	// DefaultInterval is the period of the detection loop.
	DefaultInterval = 500 * time.Millisecond
	// DefaultNumPlayers is the player count of a fresh session.
	DefaultNumPlayers = 3
	// DefaultMaxPlayers bounds SetNumPlayers.
	DefaultMaxPlayers = 10
	// RecentLimit is the number of individual detections kept for display.
	RecentLimit = 20
)

// ErrInvalidState is returned when an operation is not valid in the current state.
var ErrInvalidState = errors.New("invalid session state")

// Config holds configuration options for a session.
type Config struct {
	// ID identifies the session; a random UUID is used when empty.
	ID           string
	NumPlayers   int
	MaxPlayers   int
	Interval     time.Duration
	Mode         Mode
	StrictLabels bool
	Logger       logrus.FieldLogger
	Clock        func() time.Time
}

// Session owns one source, one recognizer and all derived state.
type Session struct {
	id         string
	interval   time.Duration
	source     capture.SourceSampler
	recognizer recognition.Recognizer
	sink       Sink
	hands      *hands.Reconciler
	tracker    *metrics.Tracker
	log        logrus.FieldLogger
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu              sync.Mutex
	state           State
	status          Status
	mode            Mode
	stopCh          chan struct{}
	seq             uint64
	lastTickAt      time.Time
	totalDetections int
	recent          []RecentDetection
	last            *Result
	display         overlay.Size
	lastErr         error

	inflight sync.WaitGroup
}

// New creates an idle session. A nil sink discards events.
func New(cfg Config, source capture.SourceSampler, recognizer recognition.Recognizer, sink Sink) (*Session, error) {
	if source == nil || recognizer == nil {
		return nil, errors.New("session requires a source and a recognizer")
	}

	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.NumPlayers == 0 {
		cfg.NumPlayers = DefaultNumPlayers
	}
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = DefaultMaxPlayers
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if sink == nil {
		sink = NopSink{}
	}

	opts := []hands.Option{hands.WithClock(cfg.Clock)}
	if cfg.StrictLabels {
		opts = append(opts, hands.WithLabelFilter(cards.Valid))
	}
	reconciler, err := hands.New(cfg.NumPlayers, cfg.MaxPlayers, opts...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		id:         cfg.ID,
		interval:   cfg.Interval,
		source:     source,
		recognizer: recognizer,
		sink:       sink,
		hands:      reconciler,
		tracker:    metrics.NewTracker(cfg.Clock()),
		log:        cfg.Logger.WithField("session_id", cfg.ID),
		now:        cfg.Clock,
		ctx:        ctx,
		cancel:     cancel,
		state:      StateIdle,
		status:     StatusNotStarted,
		mode:       cfg.Mode,
	}, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the UI status signal.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Mode returns the detection mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Hands returns a copy of every player's hand.
func (s *Session) Hands() []hands.Snapshot {
	return s.hands.Snapshot()
}

// Metrics returns the current throughput counters.
func (s *Session) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metricsLocked()
}

func (s *Session) metricsLocked() Metrics {
	return Metrics{
		FPS:             s.tracker.FPS(),
		FrameCount:      s.tracker.Frames(),
		TotalDetections: s.totalDetections,
	}
}

// Snapshot returns a consistent copy of the observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:              s.id,
		Status:          s.status,
		State:           s.state.String(),
		Mode:            s.mode,
		Running:         s.state == StateDetecting,
		NumPlayers:      s.hands.NumPlayers(),
		FPS:             s.tracker.FPS(),
		FrameCount:      s.tracker.Frames(),
		TotalDetections: s.totalDetections,
		LastTickAt:      s.lastTickAt,
		Display:         s.display,
		Hands:           s.hands.Snapshot(),
		Recent:          append([]RecentDetection(nil), s.recent...),
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

// AcquireSource opens the source: Idle -> Ready. In continuous mode the loop starts
// right away. On failure the session stays Idle and reports the error status.
func (s *Session) AcquireSource() error {
	s.mu.Lock()

	switch s.state {
	case StateReady, StateDetecting:
		s.mu.Unlock()
		return nil
	case StateError:
		s.mu.Unlock()
		return fmt.Errorf("%w: restart the session before acquiring the source", ErrInvalidState)
	}

	if err := s.source.Open(); err != nil {
		if !errors.Is(err, capture.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", capture.ErrSourceUnavailable, err)
		}
		s.lastErr = err
		changed := s.setStatusLocked(StatusError)
		s.mu.Unlock()

		s.log.WithError(err).Error("failed to acquire video source")
		s.sink.OnError(err)
		if changed {
			s.sink.OnStatusChange(StatusError)
		}
		return err
	}

	s.state = StateReady
	s.lastErr = nil
	s.setStatusLocked(StatusActive)
	if s.mode == ModeContinuous {
		s.startLoopLocked()
	}
	status := s.status
	s.mu.Unlock()

	s.log.Info("video source acquired")
	s.sink.OnStatusChange(status)
	return nil
}

// ReleaseSource stops the loop and closes the source: any state -> Idle. The frame
// counters start over. Round trips already in flight still complete.
func (s *Session) ReleaseSource() error {
	s.mu.Lock()
	s.stopLoopLocked()
	err := s.source.Close()
	s.state = StateIdle
	s.last = nil
	s.tracker.Reset(s.now())
	changed := s.setStatusLocked(StatusStopped)
	s.mu.Unlock()

	s.log.Info("video source released")
	if changed {
		s.sink.OnStatusChange(StatusStopped)
	}
	return err
}

// StartLoop starts periodic detection: Ready -> Detecting. A running loop is left alone.
func (s *Session) StartLoop() error {
	s.mu.Lock()

	switch s.state {
	case StateDetecting:
		s.mu.Unlock()
		return nil
	case StateReady:
	default:
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot start loop in %s", ErrInvalidState, state)
	}

	s.startLoopLocked()
	s.mu.Unlock()

	s.sink.OnStatusChange(StatusDetecting)
	return nil
}

// StopLoop cancels periodic scheduling: Detecting -> Ready. Calling it when no loop
// runs is a no-op.
func (s *Session) StopLoop() {
	s.mu.Lock()
	stopped := s.stopLoopLocked()
	status := s.status
	s.mu.Unlock()

	if stopped {
		s.sink.OnStatusChange(status)
	}
}

// SetMode switches between single and continuous detection. With an active source,
// continuous starts the loop and single stops it. In-flight round trips are not cancelled.
func (s *Session) SetMode(mode Mode) {
	s.mu.Lock()
	before := s.status
	s.mode = mode

	switch {
	case mode == ModeContinuous && s.state == StateReady:
		s.startLoopLocked()
	case mode == ModeSingle && s.state == StateDetecting:
		s.stopLoopLocked()
	}
	after := s.status
	s.mu.Unlock()

	s.log.WithField("mode", mode).Info("detection mode changed")
	if before != after {
		s.sink.OnStatusChange(after)
	}
}

// SetNumPlayers changes the player count and empties every hand.
func (s *Session) SetNumPlayers(n int) error {
	if err := s.hands.SetNumPlayers(n); err != nil {
		return err
	}

	s.log.WithField("num_players", n).Info("player count changed, hands reset")
	s.sink.OnHandUpdate(HandUpdate{SessionID: s.id, Reset: true, Hands: s.hands.Snapshot()})
	return nil
}

// ClearHands empties every hand without changing the player count.
func (s *Session) ClearHands() {
	s.hands.Reset()
	s.sink.OnHandUpdate(HandUpdate{SessionID: s.id, Reset: true, Hands: s.hands.Snapshot()})
}

// ClearResults empties the recent results list and resets totalDetections.
func (s *Session) ClearResults() {
	s.mu.Lock()
	s.totalDetections = 0
	s.recent = nil
	m := s.metricsLocked()
	s.mu.Unlock()

	s.sink.OnMetrics(m)
}

// Restart leaves the error state: Error -> Ready when the source is still open,
// otherwise -> Idle. It also clears an error status left by a failed acquisition.
func (s *Session) Restart() error {
	s.mu.Lock()

	if s.status != StatusError {
		s.mu.Unlock()
		return nil
	}

	s.stopLoopLocked()
	s.lastErr = nil
	if s.source.IsOpen() {
		s.state = StateReady
		s.setStatusLocked(StatusActive)
	} else {
		s.state = StateIdle
		s.setStatusLocked(StatusStopped)
	}
	status := s.status
	s.mu.Unlock()

	s.log.WithField("status", status).Info("session restarted")
	s.sink.OnStatusChange(status)
	return nil
}

// SetDisplay sets the size of the surface published boxes are mapped onto. A size
// that is not positive in both dimensions maps onto the source frame instead.
func (s *Session) SetDisplay(size overlay.Size) {
	if !size.Valid() {
		size = overlay.Size{}
	}

	s.mu.Lock()
	s.display = size
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"width": size.Width, "height": size.Height}).Debug("display size changed")
}

// Display returns the size set by SetDisplay, zero when boxes follow the source.
func (s *Session) Display() overlay.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display
}

// Overlay maps the latest detections onto a dst-sized surface. Nothing is cached.
func (s *Session) Overlay(dst overlay.Size) []overlay.Box {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return []overlay.Box{}
	}
	return overlay.MapAll(s.last.Detections, s.last.Source, dst)
}

// Close releases the source, cancels in-flight round trips and waits for them.
func (s *Session) Close() error {
	err := s.ReleaseSource()
	s.cancel()
	s.inflight.Wait()
	return err
}

// Wait blocks until every round trip launched by the loop has finished.
func (s *Session) Wait() {
	s.inflight.Wait()
}

// setStatusLocked records st and reports whether it differs from the previous status.
func (s *Session) setStatusLocked(st Status) bool {
	if s.status == st {
		return false
	}
	s.status = st
	return true
}
