package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Brief status values
const (
	BriefStatusOpen    = "open"
	BriefStatusMatched = "matched"
	BriefStatusClosed  = "closed"
)

// Brief is a client's structured ERP project requirement, used as matching input
type Brief struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	ClientID string `gorm:"index;not null" json:"client_id"`

	Title    string `gorm:"not null" json:"title"`
	Modules  string `gorm:"type:jsonb" json:"modules"` // []string, e.g. ["finance","warehouse"]
	Industry string `gorm:"index" json:"industry"`
	Budget   int64  `json:"budget" gorm:"default:0"` // EUR, total implementation budget
	Region   string `json:"region"`

	// Company size bucket: micro / small / medium / large / enterprise
	CompanySize string `gorm:"type:varchar(16)" json:"company_size"`

	Status string `gorm:"type:varchar(16);default:'open';check:status IN ('open','matched','closed')" json:"status"`

	Timestamps
}

// ModuleList decodes the jsonb module array
func (b *Brief) ModuleList() []string {
	return decodeStringList(b.Modules)
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}

// EncodeStringList marshals a string slice for a jsonb column
func EncodeStringList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	raw, _ := json.Marshal(list)
	return string(raw)
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
