package db

import (
	"pairdiary/internal/profile"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&profile.Profile{}); err != nil {
		return err
	}

	// Partner lookups filter on the text[] column.
	return gdb.Exec(`create index if not exists idx_profiles_partners on profiles using gin (partners);`).Error
}
