package records

import (
	"errors"
	"testing"
	"time"

	"github.com/globalreino/attendance/backend/internal/branches"
	"github.com/globalreino/attendance/backend/internal/identity"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&branches.Branch{}, &MeetingRecord{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	seed := branches.Seed()
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("failed to seed branches: %v", err)
	}
	directory, err := branches.NewDirectory(branches.DirectoryConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	service, err := NewService(ServiceConfig{
		Database:   db,
		Directory:  directory,
		IDProvider: identity.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service
}

func capture(date, at string, people int) CaptureInput {
	return CaptureInput{Date: date, Time: at, TotalPeople: people, Decisions: 1, Visitors: 2, KidsVisitors: 1}
}

func TestAddDerivesTimestampFromDateAndTime(t *testing.T) {
	service := newTestService(t)

	record, err := service.Add(branches.BranchScope("cuiaba"), capture("2026-03-08", "19:30", 120))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if record.ID == "" {
		t.Fatalf("expected generated record id")
	}
	if record.BranchID != "cuiaba" {
		t.Fatalf("unexpected branch: %q", record.BranchID)
	}

	want := time.Date(2026, 3, 8, 19, 30, 0, 0, time.Local).UnixMilli()
	if record.Timestamp != want {
		t.Fatalf("expected timestamp %d, got %d", want, record.Timestamp)
	}
}

func TestAddMapsGlobalScopeToFirstSeededBranch(t *testing.T) {
	service := newTestService(t)

	record, err := service.Add(branches.GlobalScope(), capture("2026-03-08", "19:00", 80))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if record.BranchID != "bdg" {
		t.Fatalf("global capture must land on the first seeded branch, got %q", record.BranchID)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	service := newTestService(t)

	if _, err := service.Add(branches.BranchScope("bdg"), CaptureInput{Time: "19:00", TotalPeople: 1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing date, got %v", err)
	}
	if _, err := service.Add(branches.BranchScope("bdg"), CaptureInput{Date: "2026-03-08", Time: "19:00", TotalPeople: -1}); !errors.Is(err, ErrNegativeCount) {
		t.Fatalf("expected ErrNegativeCount, got %v", err)
	}
	if _, err := service.Add(branches.BranchScope("bdg"), CaptureInput{Date: "08/03/2026", Time: "19:00"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for malformed date, got %v", err)
	}
	if _, err := service.Add(branches.BranchScope("atlantis"), capture("2026-03-08", "19:00", 10)); !errors.Is(err, ErrUnknownBranch) {
		t.Fatalf("expected ErrUnknownBranch, got %v", err)
	}
}

func TestListScopedFiltersExactly(t *testing.T) {
	service := newTestService(t)

	if _, err := service.Add(branches.BranchScope("bdg"), capture("2026-03-01", "19:00", 50)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := service.Add(branches.BranchScope("cuiaba"), capture("2026-03-02", "19:00", 60)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := service.Add(branches.BranchScope("cuiaba"), capture("2026-03-03", "19:00", 70)); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	all, err := service.ListScoped(branches.GlobalScope())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("global scope must see every record, got %d", len(all))
	}

	scoped, err := service.ListScoped(branches.BranchScope("cuiaba"))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(scoped) != 2 {
		t.Fatalf("expected exactly the branch subset, got %d", len(scoped))
	}
	for _, r := range scoped {
		if r.BranchID != "cuiaba" {
			t.Fatalf("foreign record leaked into branch scope: %+v", r)
		}
	}

	empty, err := service.ListScoped(branches.BranchScope("boston"))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty subset for branch without records, got %d", len(empty))
	}
}
