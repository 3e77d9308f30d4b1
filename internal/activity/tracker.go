// Package activity records when users were last seen. The Redis sorted set
// is the hot copy; users.last_active_at is refreshed from it by the
// activity_sync job.
package activity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// LastSeenKey is the sorted set of user id scored by unix seconds.
const LastSeenKey = "tracehub:activity:last_seen"

type zsetClient interface {
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZScore(ctx context.Context, key, member string) *redis.FloatCmd
	ZRangeByScoreWithScores(ctx context.Context, key string, opt *redis.ZRangeBy) *redis.ZSliceCmd
	ZRemRangeByScore(ctx context.Context, key, min, max string) *redis.IntCmd
}

// Tracker reads and writes last-seen times in Redis.
type Tracker struct {
	client zsetClient
	now    func() time.Time
}

// NewTracker creates a Tracker on client.
func NewTracker(client *redis.Client) *Tracker {
	return newTracker(client)
}

func newTracker(client zsetClient) *Tracker {
	return &Tracker{client: client, now: time.Now}
}

// NewClient opens the Redis client the tracker runs on.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Touch records that userID was seen now.
func (t *Tracker) Touch(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	z := redis.Z{Score: float64(t.now().Unix()), Member: userID}
	if err := t.client.ZAdd(ctx, LastSeenKey, z).Err(); err != nil {
		return fmt.Errorf("touch %s: %w", userID, err)
	}
	return nil
}

// LastSeen returns when userID was last seen; ok is false when unknown.
func (t *Tracker) LastSeen(ctx context.Context, userID string) (time.Time, bool, error) {
	score, err := t.client.ZScore(ctx, LastSeenKey, userID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("last seen %s: %w", userID, err)
	}
	return time.Unix(int64(score), 0).UTC(), true, nil
}

// SeenSince returns every user seen at or after since.
func (t *Tracker) SeenSince(ctx context.Context, since time.Time) (map[string]time.Time, error) {
	zs, err := t.client.ZRangeByScoreWithScores(ctx, LastSeenKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("users seen since %s: %w", since.Format(time.RFC3339), err)
	}
	out := make(map[string]time.Time, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			continue
		}
		out[id] = time.Unix(int64(z.Score), 0).UTC()
	}
	return out, nil
}

// Prune drops entries last seen before cutoff.
func (t *Tracker) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := t.client.ZRemRangeByScore(ctx, LastSeenKey, "-inf", "("+strconv.FormatInt(cutoff.Unix(), 10)).Result()
	if err != nil {
		return 0, fmt.Errorf("prune activity before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return n, nil
}
