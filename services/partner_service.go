package services

import (
	"fmt"
	"log"
	"mime/multipart"
	"strings"

	"erp-matcher/models"
	"erp-matcher/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// PartnerService manages the partner directory
type PartnerService struct {
	DB *gorm.DB
}

func NewPartnerService(db *gorm.DB) *PartnerService {
	return &PartnerService{DB: db}
}

// UpsertProfile creates or updates the partner profile owned by the calling
// user. The vetted flag is never writable here; only the sync worker sets it.
func (s *PartnerService) UpsertProfile(externalUserID string, input *models.Partner) (*models.Partner, error) {
	var partner models.Partner
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&partner).Error
	if err == gorm.ErrRecordNotFound {
		partner = models.Partner{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
		}
	} else if err != nil {
		return nil, err
	}

	partner.CompanyName = input.CompanyName
	partner.Description = input.Description
	partner.Modules = input.Modules
	partner.Industries = input.Industries
	partner.Regions = input.Regions
	partner.MinBudget = input.MinBudget
	partner.MaxBudget = input.MaxBudget
	partner.CompanySize = input.CompanySize

	if partner.Slug == "" {
		partnerSlug, err := s.uniqueSlug(partner.CompanyName)
		if err != nil {
			return nil, err
		}
		partner.Slug = partnerSlug
	}

	if err := s.DB.Save(&partner).Error; err != nil {
		return nil, err
	}
	log.Printf("🏢 [PARTNER] Profile saved: %s (%s)", partner.CompanyName, partner.Slug)
	return &partner, nil
}

// uniqueSlug slugifies the company name, suffixing on collision
func (s *PartnerService) uniqueSlug(companyName string) (string, error) {
	base := slug.Make(companyName)
	if base == "" {
		base = "partner"
	}

	candidate := base
	for i := 2; ; i++ {
		var count int64
		if err := s.DB.Model(&models.Partner{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
		if i > 50 {
			return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
		}
	}
}

// GetByUser returns the partner profile owned by the user
func (s *PartnerService) GetByUser(externalUserID string) (*models.Partner, error) {
	var partner models.Partner
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&partner).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

// GetBySlug serves the public partner page
func (s *PartnerService) GetBySlug(partnerSlug string) (*models.Partner, error) {
	var partner models.Partner
	if err := s.DB.Where("slug = ?", partnerSlug).First(&partner).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

// Search lists vetted partners, optionally filtered by a name/industry query
func (s *PartnerService) Search(query string, limit int) ([]models.Partner, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	db := s.DB.Model(&models.Partner{}).Where("vetted = ?", true).Limit(limit)
	if query != "" {
		searchTerm := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		db = db.Where(
			"LOWER(company_name) LIKE ? OR LOWER(industries) LIKE ?",
			searchTerm, searchTerm,
		)
	}

	var partners []models.Partner
	if err := db.Order("rating DESC").Find(&partners).Error; err != nil {
		return nil, err
	}
	return partners, nil
}

// UploadLogo stores the logo in R2 (or the local uploads dir when R2 is not
// configured) and saves the URL on the profile
func (s *PartnerService) UploadLogo(externalUserID string, fileHeader *multipart.FileHeader) (*models.Partner, error) {
	partner, err := s.GetByUser(externalUserID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("logos/%s-%s", partner.Slug, fileHeader.Filename)

	var logoURL string
	if utils.R2Enabled() {
		logoURL, err = utils.UploadFileToR2(fileHeader, key)
		if err != nil {
			return nil, fmt.Errorf("logo upload failed: %w", err)
		}
	} else {
		destPath := utils.GetUploadPath(key)
		if err := utils.SaveFile(fileHeader, destPath); err != nil {
			return nil, fmt.Errorf("logo upload failed: %w", err)
		}
		logoURL = "/" + destPath
	}

	if err := s.DB.Model(partner).Update("logo_url", logoURL).Error; err != nil {
		return nil, err
	}
	partner.LogoURL = logoURL
	return partner, nil
}
