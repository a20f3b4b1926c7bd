package workers

import (
	"fmt"
	"testing"

	"erp-matcher/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSyncTestClient(t *testing.T) *PartnerSyncClient {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Partner{}))
	return &PartnerSyncClient{DB: db}
}

func TestApplyProfiles_UpdatesExistingPartner(t *testing.T) {
	client := newSyncTestClient(t)
	existing := models.Partner{
		ID:             uuid.NewString(),
		ExternalUserID: "user-42",
		CompanyName:    "Acme Consulting",
		Slug:           "acme-consulting",
	}
	require.NoError(t, client.DB.Create(&existing).Error)

	client.ApplyProfiles([]vettedProfile{{
		ExternalUserID: "user-42",
		CompanyName:    "Acme Consulting",
		Vetted:         true,
		Rating:         4.5,
		Industries:     []string{"manufacturing"},
	}})

	var updated models.Partner
	require.NoError(t, client.DB.First(&updated, "external_user_id = ?", "user-42").Error)
	assert.Equal(t, existing.ID, updated.ID)
	assert.True(t, updated.Vetted)
	assert.Equal(t, 4.5, updated.Rating)
	assert.Equal(t, []string{"manufacturing"}, updated.IndustryList())

	var count int64
	require.NoError(t, client.DB.Model(&models.Partner{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestApplyProfiles_SeedsStubWithFreshID(t *testing.T) {
	client := newSyncTestClient(t)

	// External ids come from the profile service and need not be UUIDs
	client.ApplyProfiles([]vettedProfile{{
		ExternalUserID: "legacy-user-7",
		CompanyName:    "New Kid GmbH",
		Vetted:         true,
		Rating:         3.9,
	}})

	var stub models.Partner
	require.NoError(t, client.DB.First(&stub, "external_user_id = ?", "legacy-user-7").Error)
	assert.Equal(t, "pending-legacy-user-7", stub.Slug)
	assert.True(t, stub.Vetted)

	// The primary key is always a generated UUID, never the external id
	assert.NotEqual(t, stub.ExternalUserID, stub.ID)
	_, err := uuid.Parse(stub.ID)
	assert.NoError(t, err)
}

func TestApplyProfiles_SkipsBlankExternalID(t *testing.T) {
	client := newSyncTestClient(t)

	client.ApplyProfiles([]vettedProfile{{CompanyName: "Ghost Ltd", Vetted: true}})

	var count int64
	require.NoError(t, client.DB.Model(&models.Partner{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
