package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"erp-matcher/models"
	"erp-matcher/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartnerSyncClient pulls vetted partner profiles from the external vetting
// service and mirrors them into the local directory
type PartnerSyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

func NewPartnerSyncClient(db *gorm.DB) *PartnerSyncClient {
	baseURL := os.Getenv("VETTING_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("VETTING_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("MATCHER_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("MATCHER_SERVICE_TOKEN environment variable is required for partner sync")
	}

	return &PartnerSyncClient{
		BaseURL:    baseURL,
		Token:      token,
		DB:         db,
		HTTPClient: utils.HTTPClient,
	}
}

// vettedProfile is the wire shape the vetting service exposes
type vettedProfile struct {
	ExternalUserID string   `json:"external_user_id"`
	CompanyName    string   `json:"company_name"`
	Vetted         bool     `json:"vetted"`
	Rating         float64  `json:"rating"`
	Industries     []string `json:"industries"`
	Regions        []string `json:"regions"`
}

// GetChangedProfiles fetches profiles vetted or re-rated since the cursor
func (c *PartnerSyncClient) GetChangedProfiles(ctx context.Context, since time.Time) ([]vettedProfile, error) {
	since = since.UTC()

	u, err := url.Parse(fmt.Sprintf("%s/api/v1/public/partners", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("since", since.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call vetting service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("vetting service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Partners []vettedProfile `json:"partners"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode vetting service response: %w", err)
	}

	return response.Partners, nil
}

// ApplyProfiles mirrors one batch of vetting decisions into the local
// Partner rows, seeding a stub for profiles not registered locally yet
func (c *PartnerSyncClient) ApplyProfiles(profiles []vettedProfile) {
	for _, p := range profiles {
		if p.ExternalUserID == "" {
			continue
		}
		updates := map[string]interface{}{
			"vetted": p.Vetted,
			"rating": p.Rating,
		}
		if len(p.Industries) > 0 {
			updates["industries"] = models.EncodeStringList(p.Industries)
		}
		if len(p.Regions) > 0 {
			updates["regions"] = models.EncodeStringList(p.Regions)
		}

		res := c.DB.Model(&models.Partner{}).
			Where("external_user_id = ?", p.ExternalUserID).
			Updates(updates)
		if res.Error != nil {
			log.Printf("⚠️ [PARTNER_SYNC] Update failed for %s: %v", p.ExternalUserID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			// Profile exists upstream but not locally yet, seed a stub
			// the partner completes on first login
			stub := models.Partner{
				ID:             uuid.NewString(),
				ExternalUserID: p.ExternalUserID,
				CompanyName:    p.CompanyName,
				Slug:           fmt.Sprintf("pending-%s", p.ExternalUserID),
				Vetted:         p.Vetted,
				Rating:         p.Rating,
				Industries:     models.EncodeStringList(p.Industries),
				Regions:        models.EncodeStringList(p.Regions),
			}
			if err := c.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&stub).Error; err != nil {
				log.Printf("⚠️ [PARTNER_SYNC] Seed failed for %s: %v", p.ExternalUserID, err)
			}
		}
	}
}

// PollPartners mirrors vetting decisions into the local Partner rows on an
// interval, starting from a 30-day lookback
func PollPartners(ctx context.Context, client *PartnerSyncClient, pollInterval time.Duration) {
	log.Println("Starting partner vetting sync (DB-backed)...")

	since := time.Now().AddDate(0, 0, -30)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Partner vetting sync stopped")
			return
		case <-ticker.C:
			cycleStart := time.Now()
			profiles, err := client.GetChangedProfiles(ctx, since)
			if err != nil {
				log.Printf("⚠️ [PARTNER_SYNC] Fetch failed: %v", err)
				continue
			}

			client.ApplyProfiles(profiles)

			if len(profiles) > 0 {
				log.Printf("🔄 [PARTNER_SYNC] Applied %d vetting updates in %s", len(profiles), time.Since(cycleStart))
			}
			since = cycleStart
		}
	}
}
