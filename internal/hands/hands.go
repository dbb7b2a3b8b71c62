// Package hands keeps the per-player "current hand" view and merges new detections
// into it with a confidence ratchet.
package hands

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/cardsight/internal/recognition"
)

// CompleteSize is the number of distinct cards shown as a complete hand.
// It is a display heuristic only; merges never cap a hand.
const CompleteSize = 2

// ErrInvalidPlayerCount is returned for player counts outside 1..max.
var ErrInvalidPlayerCount = errors.New("invalid player count")

// cardEntry is the stored state for one (player, card) pair.
type cardEntry struct {
	confidence  float64
	bbox        recognition.BBox
	lastUpdated time.Time
}

type hand struct {
	cards       map[string]*cardEntry
	order       []string
	lastUpdated time.Time
}

func newHand() *hand {
	return &hand{cards: make(map[string]*cardEntry)}
}

// CardSnapshot is a read-only copy of one stored card.
type CardSnapshot struct {
	Card        string           `json:"card"`
	Confidence  float64          `json:"confidence"`
	BBox        recognition.BBox `json:"bbox"`
	LastUpdated time.Time        `json:"last_updated"`
}

// Snapshot is a read-only copy of a player's hand.
type Snapshot struct {
	PlayerID    int            `json:"player_id"`
	Cards       []CardSnapshot `json:"cards"`
	Complete    bool           `json:"complete"`
	Progress    string         `json:"progress"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Confidence returns the stored confidence for card and whether the hand holds it.
func (s Snapshot) Confidence(card string) (float64, bool) {
	for _, c := range s.Cards {
		if c.Card == card {
			return c.Confidence, true
		}
	}
	return 0, false
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithLabelFilter drops incoming cards whose label is rejected by accept.
// Without a filter labels are opaque equality keys.
func WithLabelFilter(accept func(label string) bool) Option {
	return func(r *Reconciler) { r.accept = accept }
}

// Reconciler owns the hands of players 1..numPlayers. It is safe for concurrent use;
// every merge is serialized under one lock.
type Reconciler struct {
	mu         sync.Mutex
	numPlayers int
	maxPlayers int
	hands      map[int]*hand
	now        func() time.Time
	accept     func(label string) bool
}

// New creates a reconciler with empty hands for numPlayers players.
func New(numPlayers, maxPlayers int, opts ...Option) (*Reconciler, error) {
	r := &Reconciler{
		maxPlayers: maxPlayers,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.SetNumPlayers(numPlayers); err != nil {
		return nil, err
	}
	return r, nil
}

// NumPlayers returns the current player count.
func (r *Reconciler) NumPlayers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.numPlayers
}

// SetNumPlayers changes the player count and empties every hand, even when n is unchanged.
func (r *Reconciler) SetNumPlayers(n int) error {
	if n < 1 || n > r.maxPlayers {
		return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidPlayerCount, n, r.maxPlayers)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.numPlayers = n
	r.resetLocked()
	return nil
}

// Reset empties every hand and keeps the player count.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

func (r *Reconciler) resetLocked() {
	r.hands = make(map[int]*hand, r.numPlayers)
	for i := 1; i <= r.numPlayers; i++ {
		r.hands[i] = newHand()
	}
}

// Merge applies the groups in order and returns the ids of the players whose hand
// was touched. Groups for players outside 1..numPlayers are ignored.
//
// A card is inserted when the hand does not hold its label and replaced only when the
// new confidence is strictly greater; ties keep the earlier detection. Every accepted
// group bumps the hand's lastUpdated, whether or not a card changed.
func (r *Reconciler) Merge(groups []recognition.HandGroup) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var touched []int
	for _, g := range groups {
		h, ok := r.hands[g.PlayerID]
		if !ok {
			continue
		}

		now := r.now()
		for _, c := range g.Cards {
			if r.accept != nil && !r.accept(c.Card) {
				continue
			}

			existing, ok := h.cards[c.Card]
			if !ok {
				h.cards[c.Card] = &cardEntry{confidence: c.Confidence, bbox: c.BBox, lastUpdated: now}
				h.order = append(h.order, c.Card)
				continue
			}
			if c.Confidence > existing.confidence {
				existing.confidence = c.Confidence
				existing.bbox = c.BBox
				existing.lastUpdated = now
			}
		}
		h.lastUpdated = now
		touched = append(touched, g.PlayerID)
	}

	return touched
}

// Snapshot returns copies of all hands ordered by player id.
func (r *Reconciler) Snapshot() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Snapshot, 0, r.numPlayers)
	for i := 1; i <= r.numPlayers; i++ {
		out = append(out, r.snapshotLocked(i))
	}
	return out
}

// Hand returns a copy of one player's hand.
func (r *Reconciler) Hand(playerID int) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.hands[playerID]; !ok {
		return Snapshot{}, false
	}
	return r.snapshotLocked(playerID), true
}

func (r *Reconciler) snapshotLocked(playerID int) Snapshot {
	h := r.hands[playerID]

	cards := make([]CardSnapshot, 0, len(h.order))
	for _, label := range h.order {
		e := h.cards[label]
		cards = append(cards, CardSnapshot{
			Card:        label,
			Confidence:  e.confidence,
			BBox:        e.bbox,
			LastUpdated: e.lastUpdated,
		})
	}

	return Snapshot{
		PlayerID:    playerID,
		Cards:       cards,
		Complete:    len(cards) == CompleteSize,
		Progress:    fmt.Sprintf("%d/%d", len(cards), CompleteSize),
		LastUpdated: h.lastUpdated,
	}
}
