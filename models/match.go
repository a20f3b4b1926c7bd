package models

import (
	"encoding/json"
	"time"
)

// Match status values. Lifecycle:
// suggested → sent → accepted | rejected, accepted → converted.
// rejected and converted are terminal.
const (
	MatchStatusSuggested = "suggested"
	MatchStatusSent      = "sent"
	MatchStatusAccepted  = "accepted"
	MatchStatusRejected  = "rejected"
	MatchStatusConverted = "converted"
)

// Match is a scored pairing between one client brief and one partner
type Match struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	BriefID   string `gorm:"index;not null" json:"brief_id"`
	ClientID  string `gorm:"index;not null" json:"client_id"`
	PartnerID string `gorm:"index;not null" json:"partner_id"`

	// Composite score 0–100, produced at creation time
	Score          int    `json:"score"`
	ScoreBreakdown string `gorm:"type:jsonb" json:"score_breakdown"` // map[string]int, sub-score → contribution
	Reasons        string `gorm:"type:jsonb" json:"reasons"`         // []string, ordered justifications

	Status string `gorm:"type:varchar(16);default:'suggested';check:status IN ('suggested','sent','accepted','rejected','converted')" json:"status"`

	// Client-side signals. ClientLiked is tri-state: nil = no decision yet.
	// Neither field moves Status.
	ClientLiked *bool `json:"client_liked,omitempty"`
	ClientSaved bool  `gorm:"default:false" json:"client_saved"`

	// Partner-side response. PartnerAccepted is only meaningful once
	// PartnerResponded is true.
	PartnerResponded bool `gorm:"default:false" json:"partner_responded"`
	PartnerAccepted  bool `gorm:"default:false" json:"partner_accepted"`

	// Set once, on the first transition away from suggested/sent
	RespondedAt *time.Time `json:"responded_at,omitempty"`

	Timestamps
}

// Responded reports whether the match has left the suggested/sent states
func (m *Match) Responded() bool {
	return m.Status != MatchStatusSuggested && m.Status != MatchStatusSent
}

// BreakdownMap decodes the jsonb sub-score map
func (m *Match) BreakdownMap() map[string]int {
	if m.ScoreBreakdown == "" {
		return nil
	}
	var breakdown map[string]int
	if err := json.Unmarshal([]byte(m.ScoreBreakdown), &breakdown); err != nil {
		return nil
	}
	return breakdown
}

// ReasonList decodes the jsonb reasons array
func (m *Match) ReasonList() []string {
	return decodeStringList(m.Reasons)
}

// Actor values on lifecycle events
const (
	ActorClient    = "client"
	ActorPartner   = "partner"
	ActorScheduler = "scheduler"
)

// MatchEvent records a single successful status transition
type MatchEvent struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID    string    `gorm:"index;not null" json:"match_id"`
	FromStatus string    `gorm:"type:varchar(16);not null" json:"from_status"`
	ToStatus   string    `gorm:"type:varchar(16);not null" json:"to_status"`
	Actor      string    `gorm:"type:varchar(16);not null" json:"actor"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
