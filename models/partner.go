package models

// Partner is a vetted ERP implementation company listed in the directory
type Partner struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to profile service

	CompanyName string `gorm:"not null" json:"company_name"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	LogoURL     string `gorm:"type:text" json:"logo_url"`

	// Matching attributes
	Modules     string `gorm:"type:jsonb" json:"modules"`    // []string of ERP modules covered
	Industries  string `gorm:"type:jsonb" json:"industries"` // []string of industry experience
	Regions     string `gorm:"type:jsonb" json:"regions"`    // []string of served regions
	MinBudget   int64  `json:"min_budget" gorm:"default:0"`
	MaxBudget   int64  `json:"max_budget" gorm:"default:0"` // 0 = no upper bound
	CompanySize string `gorm:"type:varchar(16)" json:"company_size"`

	// Set by the vetting service sync, never by the partner itself
	Vetted bool    `gorm:"default:false;index" json:"vetted"`
	Rating float64 `gorm:"default:0" json:"rating"`

	Timestamps
}

func (p *Partner) ModuleList() []string   { return decodeStringList(p.Modules) }
func (p *Partner) IndustryList() []string { return decodeStringList(p.Industries) }
func (p *Partner) RegionList() []string   { return decodeStringList(p.Regions) }
