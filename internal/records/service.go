package records

import (
	"errors"
	"fmt"
	"time"

	"github.com/globalreino/attendance/backend/internal/branches"
	"github.com/globalreino/attendance/backend/internal/identity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const timestampLayout = "2006-01-02 15:04"

var (
	errMissingDatabase   = errors.New("records: database handle is required")
	errMissingIDProvider = errors.New("records: id provider is required")
	errMissingDirectory  = errors.New("records: branch directory is required")

	// ErrInvalidInput indicates missing or malformed capture fields.
	ErrInvalidInput = errors.New("records: invalid input")
	// ErrNegativeCount indicates a numeric field below zero.
	ErrNegativeCount = errors.New("records: counts must be non-negative")
	// ErrUnknownBranch indicates a branch id outside the seeded directory.
	ErrUnknownBranch = errors.New("records: unknown branch")
)

// ServiceConfig describes the dependencies of the record service.
type ServiceConfig struct {
	Database   *gorm.DB
	Directory  *branches.Directory
	IDProvider identity.Provider
	Logger     *zap.Logger
}

// Service appends and lists meeting records. The collection is append-only;
// listing always re-derives visibility from the session scope.
type Service struct {
	db         *gorm.DB
	directory  *branches.Directory
	idProvider identity.Provider
	logger     *zap.Logger
}

// NewService constructs the record service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.Directory == nil {
		return nil, errMissingDirectory
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:         cfg.Database,
		directory:  cfg.Directory,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// CaptureInput carries one attendance entry from the capture form.
type CaptureInput struct {
	Date         string
	Time         string
	TotalPeople  int
	Decisions    int
	Visitors     int
	KidsVisitors int
}

// Add appends a new record for the session's scope. A global session is
// mapped to the first seeded branch as the effective write target, since a
// meeting record always belongs to one real branch. The timestamp is derived
// from date+time in local time, in milliseconds, and never mutated again.
func (s *Service) Add(scope branches.Scope, input CaptureInput) (MeetingRecord, error) {
	branchID := scope.BranchID()
	if scope.IsGlobal() {
		first, err := s.directory.First()
		if err != nil {
			return MeetingRecord{}, err
		}
		branchID = first.ID
	}
	exists, err := s.directory.Exists(branchID)
	if err != nil {
		return MeetingRecord{}, err
	}
	if !exists {
		return MeetingRecord{}, ErrUnknownBranch
	}

	if input.Date == "" || input.Time == "" {
		return MeetingRecord{}, ErrInvalidInput
	}
	if input.TotalPeople < 0 || input.Decisions < 0 || input.Visitors < 0 || input.KidsVisitors < 0 {
		return MeetingRecord{}, ErrNegativeCount
	}
	when, err := time.ParseInLocation(timestampLayout, input.Date+" "+input.Time, time.Local)
	if err != nil {
		return MeetingRecord{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	id, err := s.idProvider.NewID()
	if err != nil {
		return MeetingRecord{}, fmt.Errorf("records: new id: %w", err)
	}

	record := MeetingRecord{
		ID:           id,
		Date:         input.Date,
		Time:         input.Time,
		TotalPeople:  input.TotalPeople,
		Decisions:    input.Decisions,
		Visitors:     input.Visitors,
		KidsVisitors: input.KidsVisitors,
		BranchID:     branchID,
		Timestamp:    when.UnixMilli(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return MeetingRecord{}, fmt.Errorf("records: create: %w", err)
	}

	s.logger.Info("meeting record saved",
		zap.String("record_id", record.ID),
		zap.String("branch_id", record.BranchID),
		zap.Int("total_people", record.TotalPeople))
	return record, nil
}

// ListScoped returns the records visible to the given scope: every record
// for the global view, otherwise exactly the subset belonging to the branch.
func (s *Service) ListScoped(scope branches.Scope) ([]MeetingRecord, error) {
	query := s.db.Order("timestamp_ms asc")
	if !scope.IsGlobal() {
		query = query.Where("branch_id = ?", scope.BranchID())
	}
	var visible []MeetingRecord
	if err := query.Find(&visible).Error; err != nil {
		return nil, fmt.Errorf("records: list: %w", err)
	}
	return visible, nil
}
