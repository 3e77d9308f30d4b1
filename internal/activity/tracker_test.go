package activity

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakeZSet keeps one sorted set in memory.
type fakeZSet struct {
	scores  map[string]float64
	err     error
	lastMax string
}

func newFakeZSet() *fakeZSet { return &fakeZSet{scores: map[string]float64{}} }

func (f *fakeZSet) ZAdd(_ context.Context, _ string, members ...redis.Z) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	for _, m := range members {
		f.scores[m.Member.(string)] = m.Score
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeZSet) ZScore(_ context.Context, _ string, member string) *redis.FloatCmd {
	if f.err != nil {
		return redis.NewFloatResult(0, f.err)
	}
	s, ok := f.scores[member]
	if !ok {
		return redis.NewFloatResult(0, redis.Nil)
	}
	return redis.NewFloatResult(s, nil)
}

func (f *fakeZSet) ZRangeByScoreWithScores(_ context.Context, _ string, opt *redis.ZRangeBy) *redis.ZSliceCmd {
	lo, err := strconv.ParseFloat(opt.Min, 64)
	if err != nil {
		return redis.NewZSliceCmdResult(nil, err)
	}
	var out []redis.Z
	for m, s := range f.scores {
		if s >= lo {
			out = append(out, redis.Z{Member: m, Score: s})
		}
	}
	return redis.NewZSliceCmdResult(out, f.err)
}

func (f *fakeZSet) ZRemRangeByScore(_ context.Context, _ string, _, hi string) *redis.IntCmd {
	f.lastMax = hi
	return redis.NewIntResult(1, f.err)
}

var t0 = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func TestTracker_TouchAndLastSeen(t *testing.T) {
	z := newFakeZSet()
	tr := newTracker(z)
	tr.now = func() time.Time { return t0 }

	_, ok, err := tr.LastSeen(context.Background(), "user-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, tr.Touch(context.Background(), "user-1"))
	at, ok, err := tr.LastSeen(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, t0, at)

	// anonymous requests are not recorded
	require.NoError(t, tr.Touch(context.Background(), ""))
	require.Len(t, z.scores, 1)
}

func TestTracker_Errors(t *testing.T) {
	z := newFakeZSet()
	z.err = errors.New("connection refused")
	tr := newTracker(z)

	require.Error(t, tr.Touch(context.Background(), "user-1"))
	_, _, err := tr.LastSeen(context.Background(), "user-1")
	require.Error(t, err)
}

func TestTracker_SeenSince(t *testing.T) {
	z := newFakeZSet()
	z.scores["old"] = float64(t0.Add(-48 * time.Hour).Unix())
	z.scores["new"] = float64(t0.Add(-time.Hour).Unix())
	tr := newTracker(z)

	seen, err := tr.SeenSince(context.Background(), t0.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, map[string]time.Time{"new": t0.Add(-time.Hour)}, seen)
}

func TestTracker_PruneIsExclusive(t *testing.T) {
	z := newFakeZSet()
	tr := newTracker(z)

	_, err := tr.Prune(context.Background(), t0)
	require.NoError(t, err)
	require.Equal(t, "("+strconv.FormatInt(t0.Unix(), 10), z.lastMax)
}
