package services

import (
	"context"
	"testing"

	"erp-matcher/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "clientGamification:test-user"

// failingStore wraps the memory store and fails selectively
type failingStore struct {
	*MemorySnapshotStore
	failGet bool
	failSet bool
}

func (s *failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.failGet {
		return nil, false, ErrPersistenceUnavailable
	}
	return s.MemorySnapshotStore.Get(ctx, key)
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if s.failSet {
		return ErrPersistenceUnavailable
	}
	return s.MemorySnapshotStore.Set(ctx, key, value)
}

func newGamificationService() *GamificationService {
	return NewGamificationService(NewMemorySnapshotStore())
}

func TestInitialize_EmptyStore(t *testing.T) {
	svc := newGamificationService()
	stats := svc.Initialize(context.Background(), testKey)

	assert.EqualValues(t, 0, stats.TotalSwipes)
	assert.EqualValues(t, 0, stats.TotalLikes)
	assert.EqualValues(t, 0, stats.TotalMatches)
	assert.EqualValues(t, 0, stats.CurrentStreak)
	assert.Equal(t, 0, stats.TotalPoints)
	assert.Len(t, stats.Achievements, len(models.AchievementCatalog))
	for id, state := range stats.Achievements {
		assert.False(t, state.Unlocked, "achievement %s should start locked", id)
	}
}

func TestInitialize_MalformedSnapshot(t *testing.T) {
	store := NewMemorySnapshotStore()
	require.NoError(t, store.Set(context.Background(), testKey, []byte("{not json")))

	svc := NewGamificationService(store)
	stats := svc.Initialize(context.Background(), testKey)

	// Corrupt payload falls back to defaults, never crashes
	assert.EqualValues(t, 0, stats.TotalSwipes)
	assert.EqualValues(t, 0, stats.TotalMatches)
	for _, state := range stats.Achievements {
		assert.False(t, state.Unlocked)
	}
}

func TestInitialize_StoreGetFailure(t *testing.T) {
	store := &failingStore{MemorySnapshotStore: NewMemorySnapshotStore(), failGet: true}
	svc := NewGamificationService(store)

	stats := svc.Initialize(context.Background(), testKey)
	assert.EqualValues(t, 0, stats.TotalSwipes)
}

func TestRecordSwipe_Counters(t *testing.T) {
	svc := newGamificationService()
	ctx := context.Background()

	_, err := svc.RecordSwipe(ctx, testKey, true)
	require.NoError(t, err)
	stats, err := svc.RecordSwipe(ctx, testKey, false)
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.TotalSwipes)
	assert.EqualValues(t, 1, stats.TotalLikes)
	// Swipes never touch the streak
	assert.EqualValues(t, 0, stats.CurrentStreak)
}

func TestRecordSwipe_SetFailureSurfaced(t *testing.T) {
	store := &failingStore{MemorySnapshotStore: NewMemorySnapshotStore(), failSet: true}
	svc := NewGamificationService(store)

	_, err := svc.RecordSwipe(context.Background(), testKey, true)
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
}

func TestRecordMatch_Counters(t *testing.T) {
	svc := newGamificationService()
	ctx := context.Background()

	_, err := svc.RecordMatch(ctx, testKey)
	require.NoError(t, err)
	stats, err := svc.RecordMatch(ctx, testKey)
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.TotalMatches)
	assert.EqualValues(t, 2, stats.CurrentStreak)
}

func TestEvaluate_FirstSwipe(t *testing.T) {
	svc := newGamificationService()
	ctx := context.Background()

	stats, err := svc.RecordSwipe(ctx, testKey, true)
	require.NoError(t, err)

	unlocked, err := svc.Evaluate(ctx, testKey, stats)
	require.NoError(t, err)

	require.Len(t, unlocked, 1)
	assert.Equal(t, "first_swipe", unlocked[0].ID)
	assert.Equal(t, 10, stats.TotalPoints)
	assert.True(t, stats.Achievements["first_swipe"].Unlocked)
	assert.NotNil(t, stats.Achievements["first_swipe"].UnlockedAt)
}

func TestEvaluate_SwipeMaster(t *testing.T) {
	svc := newGamificationService()
	ctx := context.Background()

	var stats *models.GamificationStats
	var err error
	for i := 0; i < 10; i++ {
		stats, err = svc.RecordSwipe(ctx, testKey, i%2 == 0)
		require.NoError(t, err)
	}

	unlocked, err := svc.Evaluate(ctx, testKey, stats)
	require.NoError(t, err)

	ids := make([]string, len(unlocked))
	for i, a := range unlocked {
		ids[i] = a.ID
	}
	assert.Contains(t, ids, "first_swipe")
	assert.Contains(t, ids, "swipe_master")
	assert.True(t, stats.Achievements["heart_breaker"].Unlocked) // 5 likes out of 10 swipes
	assert.Equal(t, 10+50+30, stats.TotalPoints)
}

func TestEvaluate_Matchmaker(t *testing.T) {
	svc := newGamificationService()
	ctx := context.Background()

	stats, err := svc.RecordMatch(ctx, testKey)
	require.NoError(t, err)

	unlocked, err := svc.Evaluate(ctx, testKey, stats)
	require.NoError(t, err)

	require.Len(t, unlocked, 1)
	assert.Equal(t, "matchmaker", unlocked[0].ID)
	assert.Equal(t, 100, stats.TotalPoints)
}

func TestEvaluate_OnFire(t *testing.T) {
	svc := newGamificationService()
	ctx := context.Background()

	var stats *models.GamificationStats
	var err error
	for i := 0; i < 5; i++ {
		stats, err = svc.RecordMatch(ctx, testKey)
		require.NoError(t, err)
	}

	_, err = svc.Evaluate(ctx, testKey, stats)
	require.NoError(t, err)

	assert.True(t, stats.Achievements["matchmaker"].Unlocked)
	assert.True(t, stats.Achievements["on_fire"].Unlocked)
	assert.Equal(t, 100+75, stats.TotalPoints)
}

func TestEvaluate_IdempotentNoRelock(t *testing.T) {
	svc := newGamificationService()
	ctx := context.Background()

	stats, err := svc.RecordSwipe(ctx, testKey, true)
	require.NoError(t, err)

	first, err := svc.Evaluate(ctx, testKey, stats)
	require.NoError(t, err)
	require.Len(t, first, 1)
	unlockedAt := *stats.Achievements["first_swipe"].UnlockedAt

	// Second evaluation: no new unlocks, timestamp and points unchanged
	second, err := svc.Evaluate(ctx, testKey, stats)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, 10, stats.TotalPoints)
	assert.True(t, unlockedAt.Equal(*stats.Achievements["first_swipe"].UnlockedAt))
}

func TestEvaluate_TotalPointsMatchesUnlockedSet(t *testing.T) {
	svc := newGamificationService()
	ctx := context.Background()

	var stats *models.GamificationStats
	var err error
	for i := 0; i < 12; i++ {
		stats, err = svc.RecordSwipe(ctx, testKey, true)
		require.NoError(t, err)
	}
	stats, err = svc.RecordMatch(ctx, testKey)
	require.NoError(t, err)

	_, err = svc.Evaluate(ctx, testKey, stats)
	require.NoError(t, err)

	expected := 0
	for _, a := range models.AchievementCatalog {
		if stats.Achievements[a.ID].Unlocked {
			expected += a.Points
		}
	}
	assert.Equal(t, expected, stats.TotalPoints)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	store := NewMemorySnapshotStore()
	ctx := context.Background()

	svc := NewGamificationService(store)
	stats, err := svc.RecordSwipe(ctx, testKey, true)
	require.NoError(t, err)
	_, err = svc.Evaluate(ctx, testKey, stats)
	require.NoError(t, err)

	// A fresh engine over the same store sees the persisted snapshot
	reloaded := NewGamificationService(store).Initialize(ctx, testKey)
	assert.EqualValues(t, 1, reloaded.TotalSwipes)
	assert.EqualValues(t, 1, reloaded.TotalLikes)
	assert.Equal(t, 10, reloaded.TotalPoints)
	assert.True(t, reloaded.Achievements["first_swipe"].Unlocked)
}

func TestResetStreak(t *testing.T) {
	svc := newGamificationService()
	ctx := context.Background()

	_, err := svc.RecordMatch(ctx, testKey)
	require.NoError(t, err)
	stats, err := svc.ResetStreak(ctx, testKey)
	require.NoError(t, err)

	assert.EqualValues(t, 0, stats.CurrentStreak)
	assert.EqualValues(t, 1, stats.TotalMatches)
}

func TestGamificationKey(t *testing.T) {
	assert.Equal(t, "clientGamification:u1", models.GamificationKey("client", "u1"))
	assert.Equal(t, "partnerGamification:u2", models.GamificationKey("partner", "u2"))
}

func TestAchievementCatalog_Fixed(t *testing.T) {
	// Catalog compatibility: ids, thresholds and points are load-bearing
	expected := map[string]struct {
		counter   string
		threshold int64
		points    int
	}{
		"first_swipe":   {models.CounterTotalSwipes, 1, 10},
		"swipe_master":  {models.CounterTotalSwipes, 10, 50},
		"heart_breaker": {models.CounterTotalLikes, 5, 30},
		"matchmaker":    {models.CounterTotalMatches, 1, 100},
		"on_fire":       {models.CounterCurrentStreak, 5, 75},
	}
	require.Len(t, models.AchievementCatalog, len(expected))
	for _, a := range models.AchievementCatalog {
		want, ok := expected[a.ID]
		require.True(t, ok, "unexpected achievement %s", a.ID)
		assert.Equal(t, want.counter, a.Counter, a.ID)
		assert.Equal(t, want.threshold, a.Threshold, a.ID)
		assert.Equal(t, want.points, a.Points, a.ID)
	}
}

func TestMonotonicity_UnlockSurvivesMoreEvents(t *testing.T) {
	svc := newGamificationService()
	ctx := context.Background()

	stats, err := svc.RecordSwipe(ctx, testKey, false)
	require.NoError(t, err)
	_, err = svc.Evaluate(ctx, testKey, stats)
	require.NoError(t, err)
	require.True(t, stats.Achievements["first_swipe"].Unlocked)

	// Any further counter growth keeps the unlock
	for i := 0; i < 20; i++ {
		stats, err = svc.RecordSwipe(ctx, testKey, false)
		require.NoError(t, err)
		_, err = svc.Evaluate(ctx, testKey, stats)
		require.NoError(t, err)
		assert.True(t, stats.Achievements["first_swipe"].Unlocked)
	}
}
