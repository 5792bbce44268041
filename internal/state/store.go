// Package state persists the active show so the daemon can restore it after
// a restart instead of leaving the table dark.
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/moricard/tabletopd/internal/engine"
)

// Show is the persisted description of a running show.
type Show struct {
	SessionID string         `json:"session_id"`
	Preset    string         `json:"preset,omitempty"`
	Config    *engine.Config `json:"config"`
	StartedAt time.Time      `json:"started_at"`
}

// Store reads and writes the active show.
type Store struct {
	db *sql.DB
}

// NewStore creates a show store over an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save upserts the active show. There is at most one.
func (s *Store) Save(show *Show) error {
	payload, err := json.Marshal(show.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal show config: %w", err)
	}

	now := time.Now().UTC().Unix()

	_, err = s.db.Exec(`
		INSERT INTO show_state (id, session_id, preset, config, started_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			session_id = excluded.session_id,
			preset = excluded.preset,
			config = excluded.config,
			updated_at = excluded.updated_at
	`, show.SessionID, show.Preset, string(payload), show.StartedAt.UTC().Unix(), now)

	if err != nil {
		return fmt.Errorf("failed to save show: %w", err)
	}

	return nil
}

// Load returns the persisted show, or nil when none is stored.
func (s *Store) Load() (*Show, error) {
	var (
		sessionID string
		preset    sql.NullString
		payload   string
		startedAt int64
	)

	err := s.db.QueryRow(`
		SELECT session_id, preset, config, started_at FROM show_state WHERE id = 1
	`).Scan(&sessionID, &preset, &payload, &startedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load show: %w", err)
	}

	var cfg engine.Config
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal show config: %w", err)
	}

	return &Show{
		SessionID: sessionID,
		Preset:    preset.String,
		Config:    &cfg,
		StartedAt: time.Unix(startedAt, 0).UTC(),
	}, nil
}

// Clear removes the persisted show.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM show_state`); err != nil {
		return fmt.Errorf("failed to clear show state: %w", err)
	}
	return nil
}
