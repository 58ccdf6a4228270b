package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/exam-grader/internal/types"
)

// CreateRun creates a new grading run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, examType types.ExamType, audioRef string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO grading_runs (exam_type, audio_ref, status)
		 VALUES ($1, $2, 'running')
		 RETURNING id`,
		string(examType), audioRef,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a grading run as finished with a terminal status
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE grading_runs SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a grading run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, exam_type, COALESCE(audio_ref, ''), status, created_at, completed_at
		 FROM grading_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.ExamType, &run.AudioRef, &run.Status, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	ExamType types.ExamType
	Status   string
	Limit    int
}

// ListRuns retrieves recent grading runs with optional filters
func (db *DB) ListRuns(ctx context.Context, filters RunFilters) ([]Run, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT id, exam_type, COALESCE(audio_ref, ''), status, created_at, completed_at
		FROM grading_runs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.ExamType != "" {
		query += fmt.Sprintf(" AND exam_type = $%d", argNum)
		args = append(args, string(filters.ExamType))
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.ExamType, &run.AudioRef, &run.Status, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// DeleteRun deletes a grading run and its evaluation (via cascade)
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM grading_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// SaveEvaluation stores the evaluation record for a run, overwriting
// any previous one
func (db *DB) SaveEvaluation(ctx context.Context, runID uuid.UUID, eval *types.ExamEvaluation) error {
	jsonBytes, err := json.Marshal(eval)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO evaluations (run_id, status, overall_score, content)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id) DO UPDATE SET status = $2, overall_score = $3, content = $4, created_at = NOW()`,
		runID, string(eval.Status), eval.OverallScore, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save evaluation: %w", err)
	}
	return nil
}

// GetEvaluation retrieves the evaluation record for a run, or nil if
// none has been stored
func (db *DB) GetEvaluation(ctx context.Context, runID uuid.UUID) (*types.ExamEvaluation, error) {
	var content []byte
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM evaluations WHERE run_id = $1`,
		runID,
	).Scan(&content)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}

	var eval types.ExamEvaluation
	if err := json.Unmarshal(content, &eval); err != nil {
		return nil, fmt.Errorf("failed to unmarshal evaluation: %w", err)
	}
	return &eval, nil
}
