package database

import (
	"path/filepath"
	"testing"

	"github.com/globalreino/attendance/backend/internal/branches"
	"github.com/globalreino/attendance/backend/internal/users"
)

func TestOpenSeedsBranchDirectoryOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.db")

	db, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	var count int64
	if err := db.Model(&branches.Branch{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 10 {
		t.Fatalf("expected ten seeded branches, got %d", count)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// Reopening must not duplicate the seed.
	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if err := reopened.Model(&branches.Branch{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 10 {
		t.Fatalf("expected seed migration to run once, got %d branches", count)
	}
}

func TestOpenStartsWithEmptyUserCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.db")

	db, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	var count int64
	if err := db.Model(&users.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("users must not be seeded, got %d", count)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("", nil); err == nil {
		t.Fatalf("expected error for empty database path")
	}
}
