package plugin

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/cardsight/internal/session"
)

// Sink dispatches session events to subscribed plugins. Runs are asynchronous;
// Close waits for the ones in flight.
type Sink struct {
	manager   *Manager
	executor  *Executor
	sessionID string
	log       logrus.FieldLogger

	mu       sync.Mutex
	complete map[int]bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSink creates a Sink for the session identified by sessionID.
func NewSink(m *Manager, e *Executor, sessionID string, log logrus.FieldLogger) *Sink {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Sink{
		manager:   m,
		executor:  e,
		sessionID: sessionID,
		log:       log.WithField("session_id", sessionID),
		complete:  make(map[int]bool),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Sink) OnDetections(r session.Result) {
	s.dispatch(EventDetections, r)
}

// OnHandUpdate fires hand_complete once for each hand that becomes complete.
// A reset forgets which hands already fired.
func (s *Sink) OnHandUpdate(u session.HandUpdate) {
	s.mu.Lock()
	if u.Reset {
		s.complete = make(map[int]bool)
	}
	var done []interface{}
	for _, h := range u.Hands {
		if h.Complete && !s.complete[h.PlayerID] {
			s.complete[h.PlayerID] = true
			done = append(done, h)
		} else if !h.Complete {
			delete(s.complete, h.PlayerID)
		}
	}
	s.mu.Unlock()

	for _, h := range done {
		s.dispatch(EventHandComplete, h)
	}
}

func (s *Sink) OnStatusChange(st session.Status) {
	s.dispatch(EventStatus, map[string]session.Status{"status": st})
}

func (s *Sink) OnMetrics(session.Metrics) {}

func (s *Sink) OnError(err error) {
	s.dispatch(EventError, map[string]string{"error": err.Error()})
}

func (s *Sink) dispatch(event string, data interface{}) {
	plugins := s.manager.Subscribers(event)
	if len(plugins) == 0 {
		return
	}
	if s.ctx.Err() != nil {
		return
	}

	body, err := json.Marshal(data)
	if err != nil {
		s.log.WithError(err).WithField("event", event).Warn("failed to encode plugin event")
		return
	}

	for _, p := range plugins {
		req := &Request{
			Event:     event,
			SessionID: s.sessionID,
			Config:    p.Manifest.Config,
			Data:      body,
		}
		s.wg.Add(1)
		go s.run(p, req)
	}
}

func (s *Sink) run(p *Plugin, req *Request) {
	defer s.wg.Done()

	log := s.log.WithFields(logrus.Fields{"plugin": p.Manifest.Name, "event": req.Event})
	resp, err := s.executor.Execute(s.ctx, p, req)
	if err != nil {
		log.WithError(err).Warn("plugin failed")
		return
	}
	if !resp.Success {
		log.WithField("error", resp.Error).Warn("plugin reported failure")
		return
	}
	log.Debug("plugin ran")
}

// Wait blocks until every dispatched run has finished.
func (s *Sink) Wait() {
	s.wg.Wait()
}

// Close cancels running plugins and waits for them.
func (s *Sink) Close() error {
	s.cancel()
	s.wg.Wait()
	return nil
}
