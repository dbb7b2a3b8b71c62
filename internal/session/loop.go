package session

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/cardsight/internal/capture"
	"github.com/ayusman/cardsight/internal/overlay"
	"github.com/ayusman/cardsight/internal/recognition"
)

// RunOnce runs one sample -> recognize -> apply round trip and returns when it has
// been applied. Valid while the source is active, with or without a running loop.
func (s *Session) RunOnce(ctx context.Context, action Action) error {
	s.mu.Lock()
	if s.state != StateReady && s.state != StateDetecting {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot detect in %s", ErrInvalidState, state)
	}
	s.mu.Unlock()

	return s.roundTrip(ctx, action)
}

// startLoopLocked enters Detecting, launches the first round trip immediately and
// starts a ticker goroutine owning a fresh stop channel.
func (s *Session) startLoopLocked() {
	stopCh := make(chan struct{})
	s.stopCh = stopCh
	s.state = StateDetecting
	s.setStatusLocked(StatusDetecting)

	s.inflight.Add(1)
	go s.tick()
	go s.loop(stopCh)
	s.log.WithField("interval", s.interval).Info("detection loop started")
}

// stopLoopLocked closes the stop channel and returns to Ready. It reports whether
// a loop was running.
func (s *Session) stopLoopLocked() bool {
	if s.stopCh == nil {
		return false
	}
	close(s.stopCh)
	s.stopCh = nil

	if s.state == StateDetecting {
		s.state = StateReady
		s.setStatusLocked(StatusActive)
	}
	s.log.Info("detection loop stopped")
	return true
}

func (s *Session) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.launch(stopCh)
		}
	}
}

// launch starts a detect round trip in its own goroutine unless the loop owning
// stopCh has been stopped. Round trips do not wait for each other, so several may be
// in flight and results are applied in completion order.
func (s *Session) launch(stopCh chan struct{}) {
	s.mu.Lock()
	if s.stopCh != stopCh {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	go s.tick()
}

// tick runs one loop round trip. The caller has already added it to inflight.
func (s *Session) tick() {
	defer s.inflight.Done()
	if err := s.roundTrip(s.ctx, ActionDetect); err != nil {
		s.log.WithError(err).Debug("loop round trip failed")
	}
}

func (s *Session) roundTrip(ctx context.Context, action Action) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	now := s.now()
	s.lastTickAt = now
	numPlayers := s.hands.NumPlayers()
	s.mu.Unlock()

	log := s.log.WithFields(logrus.Fields{"seq": seq, "action": action})

	snap, err := s.source.Sample(ctx)
	if err != nil {
		return s.fail(ctx, log, action, fmt.Errorf("sample frame: %w", err))
	}
	if action == ActionDetect {
		s.tracker.Record(now)
	}

	resp, err := s.recognizer.Recognize(ctx, &recognition.Request{
		Image:      snap.DataURI,
		NumPlayers: numPlayers,
	})
	if err != nil {
		return s.fail(ctx, log, action, fmt.Errorf("recognize frame: %w", err))
	}

	switch action {
	case ActionUpdateHands:
		s.applyHands(log, seq, resp)
	default:
		s.applyDetections(log, seq, snap, resp)
	}
	return nil
}

// applyDetections replaces the overlay result, extends the recent list and totals
// and publishes the result. An empty detection list clears the overlay.
func (s *Session) applyDetections(log logrus.FieldLogger, seq uint64, snap *capture.Snapshot, resp *recognition.Response) {
	s.mu.Lock()
	at := s.now()
	src := overlay.Size{Width: float64(snap.Width), Height: float64(snap.Height)}
	display := s.display
	if !display.Valid() {
		display = src
	}

	result := Result{
		SessionID:  s.id,
		Seq:        seq,
		Detections: resp.Detections,
		Boxes:      overlay.MapAll(resp.Detections, src, display),
		Source:     src,
		Display:    display,
		At:         at,
	}
	if result.Detections == nil {
		result.Detections = []recognition.Detection{}
	}
	s.last = &result

	s.totalDetections += len(resp.Detections)
	if n := len(resp.Detections); n > 0 {
		fresh := make([]RecentDetection, 0, n+len(s.recent))
		for i := n - 1; i >= 0; i-- {
			fresh = append(fresh, RecentDetection{Detection: resp.Detections[i], Seq: seq, DetectedAt: at})
		}
		fresh = append(fresh, s.recent...)
		if len(fresh) > RecentLimit {
			fresh = fresh[:RecentLimit]
		}
		s.recent = fresh
	}
	m := s.metricsLocked()
	s.mu.Unlock()

	log.WithField("detections", len(result.Detections)).Debug("detections applied")
	s.sink.OnDetections(result)
	s.sink.OnMetrics(m)
}

// applyHands merges the hand groups into the reconciler. A response without groups
// leaves the hands untouched.
func (s *Session) applyHands(log logrus.FieldLogger, seq uint64, resp *recognition.Response) {
	if len(resp.Hands) == 0 {
		log.Debug("no hand groups in response")
		return
	}

	touched := s.hands.Merge(resp.Hands)
	log.WithField("players", touched).Debug("hands merged")
	s.sink.OnHandUpdate(HandUpdate{
		SessionID: s.id,
		Seq:       seq,
		Players:   touched,
		Hands:     s.hands.Snapshot(),
	})
}

// fail reports a failed round trip. A failing detect round trip stops the loop and
// moves the session to Error whenever the loop is running or the mode is continuous.
// Single-shot failures, failed hand updates and round trips whose caller gave up
// only report the error. Derived state is never modified.
func (s *Session) fail(ctx context.Context, log logrus.FieldLogger, action Action, err error) error {
	abandoned := ctx.Err() != nil

	s.mu.Lock()
	s.lastErr = err
	changed := false
	if action == ActionDetect && !abandoned && s.state != StateIdle && s.state != StateError &&
		(s.state == StateDetecting || s.mode == ModeContinuous) {
		s.stopLoopLocked()
		s.state = StateError
		changed = s.setStatusLocked(StatusError)
	}
	s.mu.Unlock()

	if abandoned {
		log.WithError(err).Warn("detection round trip abandoned")
	} else {
		log.WithError(err).Error("detection round trip failed")
	}
	s.sink.OnError(err)
	if changed {
		s.sink.OnStatusChange(StatusError)
	}
	return err
}
