package database

import (
	"errors"
	"time"

	"github.com/globalreino/attendance/backend/internal/branches"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationSeedBranchDirectory = "2026-08-01_seed_branch_directory"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationSeedBranchDirectory, apply: seedBranchDirectory},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// seedBranchDirectory populates the ten fixed branches when the directory is
// empty. An already-populated directory is left untouched.
func seedBranchDirectory(db *gorm.DB) error {
	var count int64
	if err := db.Model(&branches.Branch{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	seed := branches.Seed()
	return db.Create(&seed).Error
}
