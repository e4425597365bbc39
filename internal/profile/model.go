package profile

import (
	"time"

	"github.com/lib/pq"
)

// Profile is the per-user record holding display identity, partner links and
// the user's own Notion integration credentials.
type Profile struct {
	UserID      string         `gorm:"primaryKey"`
	DisplayName string         `gorm:"type:text;not null;default:''"`
	Partners    pq.StringArray `gorm:"type:text[];not null;default:'{}'"`

	NotionAPIKey     string `gorm:"type:text;not null;default:''"`
	NotionDatabaseID string `gorm:"type:text;not null;default:''"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// IntegrationConfig is the resolved credential pair for one user's store.
type IntegrationConfig struct {
	APIKey     string
	DatabaseID string
}
