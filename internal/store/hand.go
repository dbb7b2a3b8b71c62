package store

import (
	"database/sql"
	"time"

	"github.com/ayusman/cardsight/internal/recognition"
)

// HandCard is one stored card of a player's reconciled hand.
type HandCard struct {
	SessionID  string           `json:"session_id"`
	PlayerID   int              `json:"player_id"`
	Card       string           `json:"card"`
	Confidence float64          `json:"confidence"`
	BBox       recognition.BBox `json:"bbox"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// HandRepository provides access to stored hands.
type HandRepository struct {
	db *sql.DB
}

// Hands returns the hand repository for this store.
func (s *Store) Hands() *HandRepository {
	return &HandRepository{db: s.db}
}

// Upsert stores the cards, replacing rows with the same (session, player, card).
func (r *HandRepository) Upsert(cards []HandCard) error {
	if len(cards) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range cards {
		_, err := tx.Exec(
			`INSERT INTO hand_cards (session_id, player_id, card, confidence, x1, y1, x2, y2, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(session_id, player_id, card) DO UPDATE SET
				confidence = excluded.confidence,
				x1 = excluded.x1, y1 = excluded.y1, x2 = excluded.x2, y2 = excluded.y2,
				updated_at = excluded.updated_at`,
			c.SessionID, c.PlayerID, c.Card, c.Confidence,
			c.BBox[0], c.BBox[1], c.BBox[2], c.BBox[3], c.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListBySession returns the cards of a session ordered by player.
func (r *HandRepository) ListBySession(sessionID string) ([]HandCard, error) {
	rows, err := r.db.Query(
		`SELECT session_id, player_id, card, confidence, x1, y1, x2, y2, updated_at
		 FROM hand_cards WHERE session_id = ? ORDER BY player_id, updated_at, card`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []HandCard
	for rows.Next() {
		var c HandCard
		if err := rows.Scan(&c.SessionID, &c.PlayerID, &c.Card, &c.Confidence,
			&c.BBox[0], &c.BBox[1], &c.BBox[2], &c.BBox[3], &c.UpdatedAt); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// Clear removes every stored card of a session.
func (r *HandRepository) Clear(sessionID string) error {
	_, err := r.db.Exec(`DELETE FROM hand_cards WHERE session_id = ?`, sessionID)
	return err
}
