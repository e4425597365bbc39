package profile

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound means no profile row, or one with no integration config at all.
	ErrNotFound = errors.New("notion config not found")
	// ErrIncompleteConfig means a config exists but a credential field is empty.
	ErrIncompleteConfig = errors.New("notion config incomplete")
)

// Resolver reads and writes per-user profiles. Resolve is side-effect free
// and uncached: config may change between calls and must reflect current state.
type Resolver struct {
	DB *gorm.DB
}

func (r *Resolver) Resolve(ctx context.Context, userID string) (IntegrationConfig, error) {
	var p Profile
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return IntegrationConfig{}, ErrNotFound
		}
		return IntegrationConfig{}, err
	}
	if p.NotionAPIKey == "" && p.NotionDatabaseID == "" {
		return IntegrationConfig{}, ErrNotFound
	}
	if p.NotionAPIKey == "" || p.NotionDatabaseID == "" {
		return IntegrationConfig{}, ErrIncompleteConfig
	}
	return IntegrationConfig{APIKey: p.NotionAPIKey, DatabaseID: p.NotionDatabaseID}, nil
}

// Linked reports whether target is in the caller's partner list. A user is
// always linked to themselves.
func (r *Resolver) Linked(ctx context.Context, callerID, targetID string) (bool, error) {
	if callerID == targetID {
		return true, nil
	}
	var p Profile
	if err := r.DB.WithContext(ctx).Where("user_id = ?", callerID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, id := range p.Partners {
		if id == targetID {
			return true, nil
		}
	}
	return false, nil
}

func (r *Resolver) Get(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// SaveIntegration upserts the user's Notion credentials.
func (r *Resolver) SaveIntegration(ctx context.Context, userID, apiKey, databaseID string) error {
	p := Profile{
		UserID:           userID,
		NotionAPIKey:     apiKey,
		NotionDatabaseID: databaseID,
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"notion_api_key", "notion_database_id", "updated_at"}),
	}).Create(&p).Error
}
