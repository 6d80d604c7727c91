package repository

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// ReadMarkerRepository stores per-viewer conversation watermarks in Redis.
// Each viewer has a hash of ticket id -> last message sequence acknowledged.
// An absent field means the viewer has never opened the conversation.
type ReadMarkerRepository interface {
	SetWatermark(ctx context.Context, viewerID, ticketID string, seq int64) error
	GetWatermark(ctx context.Context, viewerID, ticketID string) (int64, error)
	GetWatermarks(ctx context.Context, viewerID string, ticketIDs []string) (map[string]int64, error)
}

type readMarkerRepository struct {
	client *redis.Client
}

// NewReadMarkerRepository instantiates the Redis-backed store.
func NewReadMarkerRepository(client *redis.Client) ReadMarkerRepository {
	return &readMarkerRepository{client: client}
}

func readMarkerKey(viewerID string) string {
	return "readmark:" + viewerID
}

func (r *readMarkerRepository) SetWatermark(ctx context.Context, viewerID, ticketID string, seq int64) error {
	return r.client.HSet(ctx, readMarkerKey(viewerID), ticketID, seq).Err()
}

func (r *readMarkerRepository) GetWatermark(ctx context.Context, viewerID, ticketID string) (int64, error) {
	val, err := r.client.HGet(ctx, readMarkerKey(viewerID), ticketID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (r *readMarkerRepository) GetWatermarks(ctx context.Context, viewerID string, ticketIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return result, nil
	}
	vals, err := r.client.HMGet(ctx, readMarkerKey(viewerID), ticketIDs...).Result()
	if err != nil {
		return nil, err
	}
	for i, val := range vals {
		if val == nil {
			result[ticketIDs[i]] = 0
			continue
		}
		str, ok := val.(string)
		if !ok {
			result[ticketIDs[i]] = 0
			continue
		}
		seq, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, err
		}
		result[ticketIDs[i]] = seq
	}
	return result, nil
}
