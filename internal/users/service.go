package users

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/globalreino/attendance/backend/internal/branches"
	"github.com/globalreino/attendance/backend/internal/identity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("users: database handle is required")
	errMissingIDProvider = errors.New("users: id provider is required")
	errMissingDirectory  = errors.New("users: branch directory is required")

	// ErrAlreadyBootstrapped indicates the one-time master setup was already run.
	ErrAlreadyBootstrapped = errors.New("users: master account already exists")
	// ErrInvalidCredentials indicates no user matched the email/password pair.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrBranchForbidden indicates valid credentials but a branch selection the
	// user is not entitled to.
	ErrBranchForbidden = errors.New("users: no access to this unit")
	// ErrCodeMismatch indicates a verification attempt with the wrong code.
	ErrCodeMismatch = errors.New("users: incorrect verification code")
	// ErrSelfRemoval indicates an attempt to remove the caller's own account.
	ErrSelfRemoval = errors.New("users: cannot remove own account")
	// ErrNotConfirmed indicates a removal without the explicit confirmation flag.
	ErrNotConfirmed = errors.New("users: removal requires confirmation")
	// ErrUserNotFound indicates the target user does not exist.
	ErrUserNotFound = errors.New("users: user not found")
	// ErrInvalidInput indicates a create/reset request with missing fields.
	ErrInvalidInput = errors.New("users: invalid input")
	// ErrUnknownBranch indicates a branch id outside the seeded directory.
	ErrUnknownBranch = errors.New("users: unknown branch")
	// ErrEmailTaken indicates the email already belongs to another account.
	ErrEmailTaken = errors.New("users: email already registered")
)

// ServiceConfig describes the dependencies of the user service.
type ServiceConfig struct {
	Database     *gorm.DB
	Directory    *branches.Directory
	IDProvider   identity.Provider
	CodeProvider CodeProvider
	Clock        func() time.Time
	Logger       *zap.Logger
}

// Service owns the user collection: first-run bootstrap, authentication,
// one-time verification, and branch-scoped administration.
type Service struct {
	db         *gorm.DB
	directory  *branches.Directory
	idProvider identity.Provider
	codes      CodeProvider
	clock      func() time.Time
	logger     *zap.Logger
}

// NewService constructs the user service.
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
	codes := cfg.CodeProvider
	if codes == nil {
		codes = NewRandomCodeProvider()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:         cfg.Database,
		directory:  cfg.Directory,
		idProvider: cfg.IDProvider,
		codes:      codes,
		clock:      clock,
		logger:     logger,
	}, nil
}

// BootstrapRequired reports whether the user collection is still empty, in
// which case normal login is disabled and the one-time master setup must run.
func (s *Service) BootstrapRequired() (bool, error) {
	var count int64
	if err := s.db.Model(&User{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("users: count: %w", err)
	}
	return count == 0, nil
}

// BootstrapMaster creates the single master account. It is only available
// while the user collection is empty and is not re-enterable afterward. The
// master's stored branch is nominal; sessions override it with the global view.
func (s *Service) BootstrapMaster(name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return User{}, ErrInvalidInput
	}

	required, err := s.BootstrapRequired()
	if err != nil {
		return User{}, err
	}
	if !required {
		return User{}, ErrAlreadyBootstrapped
	}

	home, err := s.directory.First()
	if err != nil {
		return User{}, err
	}
	id, err := s.idProvider.NewID()
	if err != nil {
		return User{}, fmt.Errorf("users: new id: %w", err)
	}

	master := User{
		ID:        id,
		Email:     email,
		Name:      name,
		Password:  password,
		Role:      RoleAdmin,
		BranchID:  home.ID,
		Status:    StatusActive,
		IsMaster:  true,
		CreatedAt: s.clock(),
	}
	if err := s.db.Create(&master).Error; err != nil {
		return User{}, fmt.Errorf("users: create master: %w", err)
	}

	s.logger.Info("master account created", zap.String("user_id", master.ID))
	return master, nil
}

// LoginOutcome is the result of a successful credential check. Pending is
// set when the account still needs one-time verification; in that case no
// session scope is resolved.
type LoginOutcome struct {
	User        User
	Pending     bool
	ActiveScope branches.Scope
}

// Authenticate checks an email/password pair against the stored collection
// and authorizes the requested branch selection. Email comparison is
// case-insensitive; the password must match exactly. The branch
// authorization error is only ever surfaced after a credential match, so a
// wrong selector never leaks whether the credentials were valid.
func (s *Service) Authenticate(email, password string, selector branches.Scope) (LoginOutcome, error) {
	var user User
	err := s.db.Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LoginOutcome{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginOutcome{}, fmt.Errorf("users: lookup: %w", err)
	}
	if user.Password != password {
		return LoginOutcome{}, ErrInvalidCredentials
	}

	if !user.IsMaster {
		if selector.IsGlobal() || (selector.BranchID() != "" && selector.BranchID() != user.BranchID) {
			return LoginOutcome{}, ErrBranchForbidden
		}
	}

	if user.Status == StatusPending {
		return LoginOutcome{User: user, Pending: true}, nil
	}

	scope := selector
	if !scope.IsGlobal() && scope.BranchID() == "" {
		// Defensive default when no selector was supplied.
		scope = branches.BranchScope(user.BranchID)
	}
	return LoginOutcome{User: user, ActiveScope: scope}, nil
}

// Verify redeems a pending account's one-time code. On a character-exact
// match the account becomes ACTIVE and the code is cleared; the transition
// is one-way and the consumed code can never be redeemed again. On mismatch
// nothing is mutated.
func (s *Service) Verify(userID, code string) (User, error) {
	var user User
	err := s.db.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("users: lookup: %w", err)
	}
	if user.Status != StatusPending || user.VerificationCode == "" || code != user.VerificationCode {
		return User{}, ErrCodeMismatch
	}

	updates := map[string]interface{}{
		"status":            StatusActive,
		"verification_code": "",
	}
	if err := s.db.Model(&User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return User{}, fmt.Errorf("users: activate: %w", err)
	}

	user.Status = StatusActive
	user.VerificationCode = ""
	s.logger.Info("account verified", zap.String("user_id", userID))
	return user, nil
}

// CreateInput carries the fields for provisioning a new account.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Role     Role
	BranchID string
}

// Create provisions a PENDING account with a freshly generated six-digit
// verification code. A non-master caller is pinned to their own branch
// regardless of the requested one. The code is returned exactly once for
// manual distribution; it is never delivered automatically.
func (s *Service) Create(caller User, input CreateInput) (User, string, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return User{}, "", ErrInvalidInput
	}
	if input.Role != RoleAdmin && input.Role != RoleViewer {
		return User{}, "", ErrInvalidInput
	}

	branchID := input.BranchID
	if !caller.IsMaster {
		branchID = caller.BranchID
	}
	exists, err := s.directory.Exists(branchID)
	if err != nil {
		return User{}, "", err
	}
	if !exists {
		return User{}, "", ErrUnknownBranch
	}

	var count int64
	if err := s.db.Model(&User{}).Where("lower(email) = ?", strings.ToLower(input.Email)).Count(&count).Error; err != nil {
		return User{}, "", fmt.Errorf("users: email check: %w", err)
	}
	if count > 0 {
		return User{}, "", ErrEmailTaken
	}

	id, err := s.idProvider.NewID()
	if err != nil {
		return User{}, "", fmt.Errorf("users: new id: %w", err)
	}
	code := s.codes.NewCode()

	user := User{
		ID:               id,
		Email:            input.Email,
		Name:             input.Name,
		Password:         input.Password,
		Role:             input.Role,
		BranchID:         branchID,
		Status:           StatusPending,
		VerificationCode: code,
		CreatedAt:        s.clock(),
	}
	if err := s.db.Create(&user).Error; err != nil {
		return User{}, "", fmt.Errorf("users: create: %w", err)
	}

	s.logger.Info("user provisioned",
		zap.String("user_id", user.ID),
		zap.String("branch_id", user.BranchID),
		zap.String("role", string(user.Role)))
	return user, code, nil
}

// ListVisible returns the users the caller may administer: every account for
// a master session, otherwise only the accounts of the caller's own branch.
// A master who has switched to a single-branch view sees that branch only.
func (s *Service) ListVisible(caller User, scope branches.Scope) ([]User, error) {
	query := s.db.Order("created_at asc")
	if !caller.IsMaster {
		query = query.Where("branch_id = ?", caller.BranchID)
	} else if !scope.IsGlobal() {
		query = query.Where("branch_id = ?", scope.BranchID())
	}
	var visible []User
	if err := query.Find(&visible).Error; err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return visible, nil
}

// visibleTarget resolves a target the caller may administer. A target
// outside the caller's visibility (non-master callers see only their own
// branch) is reported as not found, so cross-branch probes learn nothing.
func (s *Service) visibleTarget(caller User, targetID string) (User, error) {
	target, err := s.Get(targetID)
	if err != nil {
		return User{}, err
	}
	if !caller.IsMaster && target.BranchID != caller.BranchID {
		return User{}, ErrUserNotFound
	}
	return target, nil
}

// Remove deletes the target account. Removing the caller's own account is
// refused, the caller must have confirmed explicitly, and the target must be
// within the caller's visibility. Nothing else is protected: a master can be
// removed by another admin with visibility.
func (s *Service) Remove(caller User, targetID string, confirmed bool) error {
	if targetID == caller.ID {
		return ErrSelfRemoval
	}
	if !confirmed {
		return ErrNotConfirmed
	}
	if _, err := s.visibleTarget(caller, targetID); err != nil {
		return err
	}
	result := s.db.Where("id = ?", targetID).Delete(&User{})
	if result.Error != nil {
		return fmt.Errorf("users: remove: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	s.logger.Info("user removed", zap.String("user_id", targetID))
	return nil
}

// ResetPassword overwrites the target's password. The old password is not
// re-verified; self-service reset is out of band and goes through an admin.
// The target must be within the caller's visibility.
func (s *Service) ResetPassword(caller User, targetID, newPassword string) error {
	if newPassword == "" {
		return ErrInvalidInput
	}
	if _, err := s.visibleTarget(caller, targetID); err != nil {
		return err
	}
	result := s.db.Model(&User{}).Where("id = ?", targetID).Update("password", newPassword)
	if result.Error != nil {
		return fmt.Errorf("users: reset password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	s.logger.Info("password reset", zap.String("user_id", targetID))
	return nil
}

// UpdateProfileImage stores the encoded profile image for the given user.
func (s *Service) UpdateProfileImage(userID, image string) error {
	result := s.db.Model(&User{}).Where("id = ?", userID).Update("profile_image", image)
	if result.Error != nil {
		return fmt.Errorf("users: profile image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Get returns a single user by id.
func (s *Service) Get(userID string) (User, error) {
	var user User
	err := s.db.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("users: lookup: %w", err)
	}
	return user, nil
}
