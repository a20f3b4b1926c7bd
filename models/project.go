package models

// Project is created when a client contracts an accepted match.
// Creating one converts the match (accepted → converted).
type Project struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID   string `gorm:"uniqueIndex;not null" json:"match_id"`
	BriefID   string `gorm:"index;not null" json:"brief_id"`
	ClientID  string `gorm:"index;not null" json:"client_id"`
	PartnerID string `gorm:"index;not null" json:"partner_id"`

	Name   string `gorm:"not null" json:"name"`
	Status string `gorm:"type:varchar(16);default:'active';check:status IN ('active','completed','cancelled')" json:"status"`

	Timestamps
}
