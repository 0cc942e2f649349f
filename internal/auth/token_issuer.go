package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/globalreino/attendance/backend/internal/branches"
	"github.com/golang-jwt/jwt/v5"
)

// Sessions are not persisted server side: a bearer token is the whole
// session, so a client restart means logging in again.
const (
	defaultSessionTTL = 12 * time.Hour
	defaultVerifyTTL  = 10 * time.Minute
)

// TokenPurpose distinguishes a full session from the short-lived token that
// only carries a pending account through code verification.
type TokenPurpose string

const (
	// PurposeSession authorizes the full API surface.
	PurposeSession TokenPurpose = "session"
	// PurposeVerify authorizes only the verification endpoint.
	PurposeVerify TokenPurpose = "verify"
)

var (
	errMissingSigningSecret = errors.New("signing secret must be provided")
	errMissingSubjectClaim  = errors.New("subject claim must be provided")
	// ErrWrongPurpose indicates a token presented outside its purpose.
	ErrWrongPurpose = errors.New("token purpose not accepted here")
)

// SessionClaims is the JWT payload for both token purposes. ActiveBranch
// holds the selector form of the session scope and is absent on verify
// tokens, which carry no resolved scope yet.
type SessionClaims struct {
	ActiveBranch string       `json:"active_branch,omitempty"`
	Purpose      TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenIssuerConfig configures the session token issuer.
type TokenIssuerConfig struct {
	SigningSecret []byte
	Issuer        string
	Audience      string
	SessionTTL    time.Duration
	VerifyTTL     time.Duration
	Clock         func() time.Time
}

// TokenIssuer issues and validates the HS256 JWTs that stand in for
// sessions.
type TokenIssuer struct {
	config TokenIssuerConfig
	clock  func() time.Time
}

// Session is the validated content of a presented token.
type Session struct {
	UserID      string
	ActiveScope branches.Scope
	Purpose     TokenPurpose
}

// NewTokenIssuer constructs a TokenIssuer with sane defaults.
func NewTokenIssuer(cfg TokenIssuerConfig) *TokenIssuer {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.VerifyTTL <= 0 {
		cfg.VerifyTTL = defaultVerifyTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	cfg.Clock = clock
	return &TokenIssuer{config: cfg, clock: clock}
}

// IssueSessionToken produces a signed session JWT for the user and active
// scope, returning the token and its lifetime in seconds.
func (i *TokenIssuer) IssueSessionToken(userID string, scope branches.Scope) (string, int64, error) {
	return i.issue(userID, scope.Selector(), PurposeSession, i.config.SessionTTL)
}

// IssueVerifyToken produces the short-lived token that references a pending
// account between login and code verification.
func (i *TokenIssuer) IssueVerifyToken(userID string) (string, int64, error) {
	return i.issue(userID, "", PurposeVerify, i.config.VerifyTTL)
}

func (i *TokenIssuer) issue(userID, activeBranch string, purpose TokenPurpose, ttl time.Duration) (string, int64, error) {
	if len(i.config.SigningSecret) == 0 {
		return "", 0, errMissingSigningSecret
	}
	if userID == "" {
		return "", 0, errMissingSubjectClaim
	}

	now := i.clock().UTC()
	expiresAt := now.Add(ttl).UTC()

	claims := SessionClaims{
		ActiveBranch: activeBranch,
		Purpose:      purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.config.Issuer,
			Audience:  []string{i.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.config.SigningSecret)
	if err != nil {
		return "", 0, err
	}

	return signed, int64(expiresAt.Sub(now).Seconds()), nil
}

// ValidateToken ensures the JWT is well formed, carries the expected
// purpose, and returns the session it encodes.
func (i *TokenIssuer) ValidateToken(tokenString string, purpose TokenPurpose) (Session, error) {
	if len(i.config.SigningSecret) == 0 {
		return Session{}, errMissingSigningSecret
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return i.config.SigningSecret, nil
		},
		jwt.WithAudience(i.config.Audience),
		jwt.WithIssuer(i.config.Issuer),
		jwt.WithTimeFunc(i.clock),
	)
	if err != nil {
		return Session{}, err
	}
	if claims.Subject == "" {
		return Session{}, errMissingSubjectClaim
	}
	if claims.Purpose != purpose {
		return Session{}, ErrWrongPurpose
	}

	session := Session{UserID: claims.Subject, Purpose: claims.Purpose}
	if claims.Purpose == PurposeSession {
		session.ActiveScope = branches.ParseSelector(claims.ActiveBranch)
	}
	return session, nil
}
