package branches

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("branches: database handle is required")
	// ErrEmptyDirectory indicates the branch directory has not been seeded.
	ErrEmptyDirectory = errors.New("branches: directory is empty")
)

// DirectoryConfig describes the dependencies for the branch directory.
type DirectoryConfig struct {
	Database *gorm.DB
}

// Directory serves the seeded branch list. Branches are read-only at
// runtime, so every lookup goes straight to the database.
type Directory struct {
	db *gorm.DB
}

// NewDirectory constructs the branch directory service.
func NewDirectory(cfg DirectoryConfig) (*Directory, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	return &Directory{db: cfg.Database}, nil
}

// List returns every branch ordered by identifier.
func (d *Directory) List() ([]Branch, error) {
	var all []Branch
	if err := d.db.Order("id asc").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("branches: list: %w", err)
	}
	return all, nil
}

// First returns the first seeded branch. It is the nominal home branch for
// the master user and the effective write target when a global session
// saves a meeting record.
func (d *Directory) First() (Branch, error) {
	var first Branch
	err := d.db.Order("id asc").First(&first).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Branch{}, ErrEmptyDirectory
	}
	if err != nil {
		return Branch{}, fmt.Errorf("branches: first: %w", err)
	}
	return first, nil
}

// Exists reports whether a branch with the given identifier is present.
func (d *Directory) Exists(branchID string) (bool, error) {
	var count int64
	if err := d.db.Model(&Branch{}).Where("id = ?", branchID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("branches: exists: %w", err)
	}
	return count > 0, nil
}
