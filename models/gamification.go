package models

import (
	"fmt"
	"time"
)

// Counter names achievement predicates can gate on
const (
	CounterTotalSwipes   = "total_swipes"
	CounterTotalLikes    = "total_likes"
	CounterTotalMatches  = "total_matches"
	CounterCurrentStreak = "current_streak"
)

// Achievement: static catalog entry. The predicate is a threshold on a single
// counter: plain data, evaluated by a generic interpreter, so the catalog
// stays serializable.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Points      int    `json:"points"`
	Counter     string `json:"counter"`
	Threshold   int64  `json:"threshold"`
}

// AchievementState: per-actor unlock status
type AchievementState struct {
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// AchievementCatalog is process-wide static configuration. IDs, thresholds
// and point values are load-bearing: persisted snapshots reference the IDs.
var AchievementCatalog = []Achievement{
	{
		ID:          "first_swipe",
		Name:        "First Swipe",
		Description: "Reviewed your first partner suggestion",
		Icon:        "👆",
		Points:      10,
		Counter:     CounterTotalSwipes,
		Threshold:   1,
	},
	{
		ID:          "swipe_master",
		Name:        "Swipe Master",
		Description: "Reviewed 10 partner suggestions",
		Icon:        "🔥",
		Points:      50,
		Counter:     CounterTotalSwipes,
		Threshold:   10,
	},
	{
		ID:          "heart_breaker",
		Name:        "Heart Breaker",
		Description: "Liked 5 partner suggestions",
		Icon:        "💙",
		Points:      30,
		Counter:     CounterTotalLikes,
		Threshold:   5,
	},
	{
		ID:          "matchmaker",
		Name:        "Matchmaker",
		Description: "Landed your first mutual match",
		Icon:        "🤝",
		Points:      100,
		Counter:     CounterTotalMatches,
		Threshold:   1,
	},
	{
		ID:          "on_fire",
		Name:        "On Fire",
		Description: "5 matches in a row",
		Icon:        "🚀",
		Points:      75,
		Counter:     CounterCurrentStreak,
		Threshold:   5,
	},
}

// GamificationStats is the full per-actor snapshot written to the key-value
// store on every mutation
type GamificationStats struct {
	TotalSwipes   int64 `json:"total_swipes"`
	TotalLikes    int64 `json:"total_likes"`
	TotalMatches  int64 `json:"total_matches"`
	CurrentStreak int64 `json:"current_streak"`
	TotalPoints   int   `json:"total_points"`

	Achievements map[string]AchievementState `json:"achievements"`
}

// Counter returns the named counter's current value
func (s *GamificationStats) Counter(name string) int64 {
	switch name {
	case CounterTotalSwipes:
		return s.TotalSwipes
	case CounterTotalLikes:
		return s.TotalLikes
	case CounterTotalMatches:
		return s.TotalMatches
	case CounterCurrentStreak:
		return s.CurrentStreak
	}
	return 0
}

// DefaultGamificationStats returns zeroed counters with the full catalog locked
func DefaultGamificationStats() *GamificationStats {
	stats := &GamificationStats{
		Achievements: make(map[string]AchievementState, len(AchievementCatalog)),
	}
	for _, a := range AchievementCatalog {
		stats.Achievements[a.ID] = AchievementState{}
	}
	return stats
}

// GamificationKey builds the actor-scoped storage key, e.g.
// "clientGamification:3f2a..." / "partnerGamification:91cc..."
func GamificationKey(role, userID string) string {
	return fmt.Sprintf("%sGamification:%s", role, userID)
}
