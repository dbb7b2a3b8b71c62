package app

import (
	"sync"

	"github.com/ayusman/cardsight/internal/session"
)

// sinkSet is a session.Sink whose targets are filled in once they can be built.
type sinkSet struct {
	mu    sync.RWMutex
	sinks session.MultiSink
}

func (s *sinkSet) set(sinks session.MultiSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = sinks
}

func (s *sinkSet) get() session.MultiSink {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sinks
}

func (s *sinkSet) OnDetections(r session.Result)     { s.get().OnDetections(r) }
func (s *sinkSet) OnHandUpdate(u session.HandUpdate) { s.get().OnHandUpdate(u) }
func (s *sinkSet) OnStatusChange(st session.Status)  { s.get().OnStatusChange(st) }
func (s *sinkSet) OnMetrics(m session.Metrics)       { s.get().OnMetrics(m) }
func (s *sinkSet) OnError(err error)                 { s.get().OnError(err) }
