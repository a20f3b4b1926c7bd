package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"erp-matcher/models"
)

// GamificationService derives per-actor stats and achievement unlocks from
// swipe/match events. It holds no state of its own; everything lives in the
// injected snapshot store, one JSON blob per actor key. Each key has a single
// logical owner; concurrent writers to the same key are not supported.
type GamificationService struct {
	Store SnapshotStore
}

func NewGamificationService(store SnapshotStore) *GamificationService {
	return &GamificationService{Store: store}
}

// Initialize loads the persisted snapshot for the actor key. Absent or
// malformed data falls back to the default catalog with zero counters, so
// a corrupt payload is logged, never fatal.
func (s *GamificationService) Initialize(ctx context.Context, key string) *models.GamificationStats {
	stats, err := s.load(ctx, key)
	if err != nil {
		log.Printf("⚠️ [GAMIFY] Falling back to defaults for %s: %v", key, err)
		return models.DefaultGamificationStats()
	}
	return stats
}

// load returns ErrMalformedSnapshot / ErrPersistenceUnavailable so callers
// can distinguish; Initialize swallows both into defaults.
func (s *GamificationService) load(ctx context.Context, key string) (*models.GamificationStats, error) {
	raw, ok, err := s.Store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return models.DefaultGamificationStats(), nil
	}

	var stats models.GamificationStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	// Snapshots written before a catalog addition miss the new entries
	if stats.Achievements == nil {
		stats.Achievements = make(map[string]models.AchievementState, len(models.AchievementCatalog))
	}
	for _, a := range models.AchievementCatalog {
		if _, ok := stats.Achievements[a.ID]; !ok {
			stats.Achievements[a.ID] = models.AchievementState{}
		}
	}
	return &stats, nil
}

// persist writes the full snapshot. Write failures surface to the caller, since
// a silently dropped write loses points.
func (s *GamificationService) persist(ctx context.Context, key string, stats *models.GamificationStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", key, err)
	}
	if err := s.Store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to persist snapshot for %s: %w", key, err)
	}
	return nil
}

// RecordSwipe counts a swipe (and a like when liked). Pure counter
// increment. Achievement evaluation is a separate, explicit call.
func (s *GamificationService) RecordSwipe(ctx context.Context, key string, liked bool) (*models.GamificationStats, error) {
	stats := s.Initialize(ctx, key)
	stats.TotalSwipes++
	if liked {
		stats.TotalLikes++
	}
	if err := s.persist(ctx, key, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// RecordMatch counts a successful match and extends the streak
func (s *GamificationService) RecordMatch(ctx context.Context, key string) (*models.GamificationStats, error) {
	stats := s.Initialize(ctx, key)
	stats.TotalMatches++
	stats.CurrentStreak++
	if err := s.persist(ctx, key, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// ResetStreak zeroes the streak counter. Nothing calls this from the swipe
// path today; it exists for an explicit product decision on streak breaks.
func (s *GamificationService) ResetStreak(ctx context.Context, key string) (*models.GamificationStats, error) {
	stats := s.Initialize(ctx, key)
	stats.CurrentStreak = 0
	if err := s.persist(ctx, key, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Evaluate re-checks every catalog predicate against the current counters.
// Predicates are monotonic thresholds, so an unlocked achievement stays
// unlocked and re-evaluation is an idempotent no-op for those. Returns the
// achievements that transitioned on this call, for transient UI display.
func (s *GamificationService) Evaluate(ctx context.Context, key string, stats *models.GamificationStats) ([]models.Achievement, error) {
	var newlyUnlocked []models.Achievement
	now := time.Now()

	for _, a := range models.AchievementCatalog {
		state := stats.Achievements[a.ID]
		if state.Unlocked {
			continue
		}
		if stats.Counter(a.Counter) >= a.Threshold {
			unlockedAt := now
			stats.Achievements[a.ID] = models.AchievementState{Unlocked: true, UnlockedAt: &unlockedAt}
			newlyUnlocked = append(newlyUnlocked, a)
			log.Printf("🏆 [GAMIFY] Achievement unlocked: %s (%s)", a.Name, key)
		}
	}

	total := 0
	for _, a := range models.AchievementCatalog {
		if stats.Achievements[a.ID].Unlocked {
			total += a.Points
		}
	}
	stats.TotalPoints = total

	if err := s.persist(ctx, key, stats); err != nil {
		return nil, err
	}
	return newlyUnlocked, nil
}
