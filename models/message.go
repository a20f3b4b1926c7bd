package models

// Message belongs to the conversation attached to a match.
// Messaging opens once a match is accepted.
type Message struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID    string `gorm:"index;not null" json:"match_id"`
	SenderID   string `gorm:"index;not null" json:"sender_id"`
	SenderRole string `gorm:"type:varchar(16);not null" json:"sender_role"` // client / partner
	Body       string `gorm:"type:text;not null" json:"body"`
	Read       bool   `gorm:"default:false" json:"read"`

	Timestamps
}
