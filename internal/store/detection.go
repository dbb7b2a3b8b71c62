package store

import (
	"database/sql"
	"time"

	"github.com/ayusman/cardsight/internal/recognition"
)

// Detection is one stored card detection.
type Detection struct {
	ID         int64            `json:"id"`
	SessionID  string           `json:"session_id"`
	Seq        uint64           `json:"seq"`
	Card       string           `json:"card"`
	Confidence float64          `json:"confidence"`
	BBox       recognition.BBox `json:"bbox"`
	DetectedAt time.Time        `json:"detected_at"`
}

// DetectionRepository provides access to the detection history.
type DetectionRepository struct {
	db *sql.DB
}

// Detections returns the detection repository for this store.
func (s *Store) Detections() *DetectionRepository {
	return &DetectionRepository{db: s.db}
}

// AddBatch stores the detections of one round trip in a single transaction.
func (r *DetectionRepository) AddBatch(sessionID string, seq uint64, at time.Time, dets []recognition.Detection) error {
	if len(dets) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO detections (session_id, seq, card, confidence, x1, y1, x2, y2, detected_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range dets {
		if _, err := stmt.Exec(sessionID, int64(seq), d.Card, d.Confidence, d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3], at); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListBySession returns the newest detections of a session first.
// A non-positive limit returns all.
func (r *DetectionRepository) ListBySession(sessionID string, limit int) ([]*Detection, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, session_id, seq, card, confidence, x1, y1, x2, y2, detected_at
		 FROM detections WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dets []*Detection
	for rows.Next() {
		d := &Detection{}
		var seq int64
		if err := rows.Scan(&d.ID, &d.SessionID, &seq, &d.Card, &d.Confidence,
			&d.BBox[0], &d.BBox[1], &d.BBox[2], &d.BBox[3], &d.DetectedAt); err != nil {
			return nil, err
		}
		d.Seq = uint64(seq)
		dets = append(dets, d)
	}
	return dets, rows.Err()
}

// CountBySession returns the number of stored detections for a session.
func (r *DetectionRepository) CountBySession(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM detections WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

// DeleteBySession removes all detections of a session.
func (r *DetectionRepository) DeleteBySession(sessionID string) error {
	_, err := r.db.Exec(`DELETE FROM detections WHERE session_id = ?`, sessionID)
	return err
}
