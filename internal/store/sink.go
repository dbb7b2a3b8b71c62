package store

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/cardsight/internal/session"
)

// Sink records one session's results and hands as they are published.
// Write failures are logged; they never reach the session.
type Sink struct {
	session.NopSink

	store     *Store
	sessionID string
	log       logrus.FieldLogger
}

// NewSink creates the session row and returns a sink bound to it.
func NewSink(st *Store, sessionID string, numPlayers int, log logrus.FieldLogger) (*Sink, error) {
	if err := st.Sessions().Create(&Session{ID: sessionID, NumPlayers: numPlayers}); err != nil {
		return nil, err
	}

	return &Sink{
		store:     st,
		sessionID: sessionID,
		log:       log.WithFields(logrus.Fields{"session_id": sessionID, "component": "store"}),
	}, nil
}

// OnDetections stores every detection of the result.
func (k *Sink) OnDetections(r session.Result) {
	if err := k.store.Detections().AddBatch(k.sessionID, r.Seq, r.At, r.Detections); err != nil {
		k.log.WithError(err).WithField("seq", r.Seq).Warn("failed to store detections")
	}
}

// OnHandUpdate mirrors the reconciled hands. A reset clears the stored hands first.
func (k *Sink) OnHandUpdate(u session.HandUpdate) {
	if u.Reset {
		if err := k.store.Hands().Clear(k.sessionID); err != nil {
			k.log.WithError(err).Warn("failed to clear stored hands")
			return
		}
		if err := k.store.Sessions().SetNumPlayers(k.sessionID, len(u.Hands)); err != nil {
			k.log.WithError(err).Warn("failed to store player count")
		}
	}

	touched := make(map[int]bool, len(u.Players))
	for _, id := range u.Players {
		touched[id] = true
	}

	var cards []HandCard
	for _, h := range u.Hands {
		if !u.Reset && !touched[h.PlayerID] {
			continue
		}
		for _, c := range h.Cards {
			cards = append(cards, HandCard{
				SessionID:  k.sessionID,
				PlayerID:   h.PlayerID,
				Card:       c.Card,
				Confidence: c.Confidence,
				BBox:       c.BBox,
				UpdatedAt:  c.LastUpdated,
			})
		}
	}

	if err := k.store.Hands().Upsert(cards); err != nil {
		k.log.WithError(err).WithField("seq", u.Seq).Warn("failed to store hands")
	}
}

// OnMetrics stores the running detection total.
func (k *Sink) OnMetrics(m session.Metrics) {
	if err := k.store.Sessions().SetTotalDetections(k.sessionID, m.TotalDetections); err != nil {
		k.log.WithError(err).Warn("failed to store detection total")
	}
}

// End marks the session as finished.
func (k *Sink) End() error {
	return k.store.Sessions().End(k.sessionID, time.Now())
}
