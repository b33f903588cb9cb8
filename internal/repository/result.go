package repository

import (
	"context"
	"fmt"
	"time"

	"gridplay/internal/entity"
	"gridplay/internal/repository/storage/sqlite"
)

// Result is one archived finished game.
type Result struct {
	SessionID  string
	Difficulty entity.Difficulty
	Outcome    entity.Mark
	Moves      int
	FinishedAt time.Time
}

type ResultRepository interface {
	Save(ctx context.Context, result Result) error
	ListBySession(ctx context.Context, sessionID string) ([]Result, error)
}

type dbResult struct {
	storage *sqlite.Storage
}

func NewResultRepository(storage *sqlite.Storage) ResultRepository {
	return &dbResult{
		storage: storage,
	}
}

func (that *dbResult) Save(ctx context.Context, result Result) error {
	query := `INSERT INTO results (session_id, difficulty, outcome, moves, finished_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := that.storage.Connection.ExecContext(ctx, query,
		result.SessionID, string(result.Difficulty), string(result.Outcome), result.Moves, result.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

func (that *dbResult) ListBySession(ctx context.Context, sessionID string) ([]Result, error) {
	query := `SELECT session_id, difficulty, outcome, moves, finished_at
		FROM results WHERE session_id = ? ORDER BY finished_at`

	rows, err := that.storage.Connection.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			result     Result
			difficulty string
			outcome    string
		)

		if err = rows.Scan(&result.SessionID, &difficulty, &outcome, &result.Moves, &result.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}

		result.Difficulty = entity.Difficulty(difficulty)
		result.Outcome = entity.Mark(outcome)
		results = append(results, result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	return results, nil
}
