package session

// Sink receives everything the session publishes. Calls are made outside the
// session lock, so a sink may call back into the session.
type Sink interface {
	OnDetections(Result)
	OnHandUpdate(HandUpdate)
	OnStatusChange(Status)
	OnMetrics(Metrics)
	OnError(error)
}

// NopSink ignores every event. Embed it to implement a subset of Sink.
type NopSink struct{}

func (NopSink) OnDetections(Result)     {}
func (NopSink) OnHandUpdate(HandUpdate) {}
func (NopSink) OnStatusChange(Status)   {}
func (NopSink) OnMetrics(Metrics)       {}
func (NopSink) OnError(error)           {}

// MultiSink fans every event out to each sink in order.
type MultiSink []Sink

func (m MultiSink) OnDetections(r Result) {
	for _, s := range m {
		s.OnDetections(r)
	}
}

func (m MultiSink) OnHandUpdate(u HandUpdate) {
	for _, s := range m {
		s.OnHandUpdate(u)
	}
}

func (m MultiSink) OnStatusChange(st Status) {
	for _, s := range m {
		s.OnStatusChange(st)
	}
}

func (m MultiSink) OnMetrics(mt Metrics) {
	for _, s := range m {
		s.OnMetrics(mt)
	}
}

func (m MultiSink) OnError(err error) {
	for _, s := range m {
		s.OnError(err)
	}
}
