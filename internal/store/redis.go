// Package store persists flow context snapshots and archives completed
// flow records. Redis backs the live snapshot round-trip; a blob bucket,
// when configured, receives a JSON record of each completed flow.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/montage-ui/guideflow/pkg/api"
)

// Snapshots is a Redis-backed store for serialized flow contexts
type Snapshots struct {
	client *redis.Client
	prefix string
}

var ErrSnapshotNotFound = errors.New("snapshot not found")

// NewSnapshots creates a snapshot store on the given Redis endpoint
func NewSnapshots(addr, password string, db int, prefix string) *Snapshots {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Snapshots{
		client: client,
		prefix: prefix,
	}
}

// NewSnapshotsWithClient creates a snapshot store over an existing client
func NewSnapshotsWithClient(client *redis.Client, prefix string) *Snapshots {
	return &Snapshots{
		client: client,
		prefix: prefix,
	}
}

// Save stores the snapshot under its flow id, replacing any prior snapshot
// for that flow
func (s *Snapshots) Save(ctx context.Context, fc *api.FlowContext) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.keyFor(fc.FlowID), data, 0).Err()
}

// Load retrieves the snapshot for the given flow id
func (s *Snapshots) Load(
	ctx context.Context, id api.FlowID,
) (*api.FlowContext, error) {
	data, err := s.client.Get(ctx, s.keyFor(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var fc api.FlowContext
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}

// Delete removes the snapshot for the given flow id. Deleting a missing
// snapshot is not an error.
func (s *Snapshots) Delete(ctx context.Context, id api.FlowID) error {
	return s.client.Del(ctx, s.keyFor(id)).Err()
}

// Close releases the underlying client
func (s *Snapshots) Close() error {
	return s.client.Close()
}

func (s *Snapshots) keyFor(id api.FlowID) string {
	return s.prefix + ":snapshot:" + string(id)
}
