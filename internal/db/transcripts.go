package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TranscriptStore persists transcripts in the transcripts table,
// keyed by audio source identity. It satisfies the cache.Store
// contract so deployments with a database share one transcript cache
// across hosts.
type TranscriptStore struct {
	db *DB
}

// Transcripts returns a transcript store backed by this database
func (db *DB) Transcripts() *TranscriptStore {
	return &TranscriptStore{db: db}
}

// Get returns the stored transcript and whether it was present
func (s *TranscriptStore) Get(ctx context.Context, sourceID string) (string, bool, error) {
	var transcript string
	err := s.db.pool.QueryRow(ctx,
		`SELECT transcript FROM transcripts WHERE source_id = $1`,
		sourceID,
	).Scan(&transcript)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get transcript: %w", err)
	}
	return transcript, true, nil
}

// Put stores a transcript under sourceID, overwriting any previous value
func (s *TranscriptStore) Put(ctx context.Context, sourceID, transcript string) error {
	_, err := s.db.pool.Exec(ctx,
		`INSERT INTO transcripts (source_id, transcript)
		 VALUES ($1, $2)
		 ON CONFLICT (source_id) DO UPDATE SET transcript = $2, created_at = NOW()`,
		sourceID, transcript,
	)
	if err != nil {
		return fmt.Errorf("failed to put transcript: %w", err)
	}
	return nil
}
