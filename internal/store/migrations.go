package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per detection session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			num_players INTEGER NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			total_detections INTEGER NOT NULL DEFAULT 0
		)`,

		// Detections table - every applied detection, in arrival order
		`CREATE TABLE IF NOT EXISTS detections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			card TEXT NOT NULL,
			confidence REAL NOT NULL,
			x1 REAL NOT NULL,
			y1 REAL NOT NULL,
			x2 REAL NOT NULL,
			y2 REAL NOT NULL,
			detected_at DATETIME NOT NULL
		)`,

		// Hand cards table - the reconciled hand of each player
		`CREATE TABLE IF NOT EXISTS hand_cards (
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			player_id INTEGER NOT NULL,
			card TEXT NOT NULL,
			confidence REAL NOT NULL,
			x1 REAL NOT NULL,
			y1 REAL NOT NULL,
			x2 REAL NOT NULL,
			y2 REAL NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (session_id, player_id, card)
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_detections_session_id ON detections(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_hand_cards_session_id ON hand_cards(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
