package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"gridplay/internal/session"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository stores the latest observable state of each session so
// transports can answer reads without touching the live session. Snapshots
// describe only the current game; finished games move to the result archive.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot session.Snapshot) error
	GetByID(ctx context.Context, id string) (session.Snapshot, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbSnapshot struct {
	client *redis.Client
}

func NewSnapshotRepository(client *redis.Client) SnapshotRepository {
	return &dbSnapshot{
		client: client,
	}
}

func (that *dbSnapshot) Save(ctx context.Context, snapshot session.Snapshot) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}

	snapshotKey := "session:" + snapshot.ID
	if err = that.client.Set(ctx, snapshotKey, snapshotJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot: %w", err)
	}

	return nil
}

func (that *dbSnapshot) GetByID(ctx context.Context, id string) (session.Snapshot, error) {
	snapshotKey := "session:" + id

	response, err := that.client.Get(ctx, snapshotKey).Result()

	if errors.Is(err, redis.Nil) {
		return session.Snapshot{}, ErrSnapshotNotFound
	}

	if err != nil {
		return session.Snapshot{}, fmt.Errorf("failed to get snapshot by ID: %w", err)
	}

	var snapshot session.Snapshot
	if err = json.Unmarshal([]byte(response), &snapshot); err != nil {
		return session.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return snapshot, nil
}

func (that *dbSnapshot) DeleteByID(ctx context.Context, id string) error {
	snapshotKey := "session:" + id

	if err := that.client.Del(ctx, snapshotKey).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot by ID: %w", err)
	}

	return nil
}
