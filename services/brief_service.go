package services

import (
	"log"

	"erp-matcher/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BriefService manages client project briefs
type BriefService struct {
	DB *gorm.DB
}

func NewBriefService(db *gorm.DB) *BriefService {
	return &BriefService{DB: db}
}

func (s *BriefService) CreateBrief(clientID string, input *models.Brief) (*models.Brief, error) {
	brief := &models.Brief{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		Title:       input.Title,
		Modules:     input.Modules,
		Industry:    input.Industry,
		Budget:      input.Budget,
		Region:      input.Region,
		CompanySize: input.CompanySize,
		Status:      models.BriefStatusOpen,
	}
	if err := s.DB.Create(brief).Error; err != nil {
		return nil, err
	}
	log.Printf("📋 [BRIEF] Created brief %s for client %s", brief.ID, clientID)
	return brief, nil
}

func (s *BriefService) GetBrief(briefID string) (*models.Brief, error) {
	var brief models.Brief
	if err := s.DB.First(&brief, "id = ?", briefID).Error; err != nil {
		return nil, err
	}
	return &brief, nil
}

func (s *BriefService) ListForClient(clientID string) ([]models.Brief, error) {
	var briefs []models.Brief
	err := s.DB.Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&briefs).Error
	return briefs, err
}

func (s *BriefService) CloseBrief(briefID, clientID string) error {
	res := s.DB.Model(&models.Brief{}).
		Where("id = ? AND client_id = ?", briefID, clientID).
		Update("status", models.BriefStatusClosed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
