package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/globalreino/attendance/backend/internal/auth"
	"github.com/globalreino/attendance/backend/internal/branches"
	"github.com/globalreino/attendance/backend/internal/identity"
	"github.com/globalreino/attendance/backend/internal/records"
	"github.com/globalreino/attendance/backend/internal/users"
	"gorm.io/gorm"
)

const testVerificationCode = "654321"

type stubCodeProvider struct{}

func (stubCodeProvider) NewCode() string {
	return testVerificationCode
}

type testEnv struct {
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&branches.Branch{}, &users.User{}, &records.MeetingRecord{}); err != nil {
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
	idProvider := identity.NewUUIDProvider()
	userService, err := users.NewService(users.ServiceConfig{
		Database:     db,
		Directory:    directory,
		IDProvider:   idProvider,
		CodeProvider: stubCodeProvider{},
	})
	if err != nil {
		t.Fatalf("failed to create user service: %v", err)
	}
	recordService, err := records.NewService(records.ServiceConfig{
		Database:   db,
		Directory:  directory,
		IDProvider: idProvider,
	})
	if err != nil {
		t.Fatalf("failed to create record service: %v", err)
	}
	issuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte("test-secret"),
		Issuer:        "attendance-auth",
		Audience:      "attendance-api",
		SessionTTL:    time.Hour,
		VerifyTTL:     10 * time.Minute,
	})

	handler, err := NewHTTPHandler(Dependencies{
		TokenIssuer:   issuer,
		UserService:   userService,
		RecordService: recordService,
		Directory:     directory,
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}
	return &testEnv{handler: handler}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	e.handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeJSON(t *testing.T, recorder *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
}

// bootstrapMaster runs the first-run setup and returns the master session token.
func (e *testEnv) bootstrapMaster(t *testing.T) (string, userPayload) {
	t.Helper()
	recorder := e.do(t, http.MethodPost, "/auth/bootstrap", "", bootstrapRequestPayload{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "master-pass",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("bootstrap failed: %d %s", recorder.Code, recorder.Body.String())
	}
	var response sessionResponsePayload
	decodeJSON(t, recorder, &response)
	if response.AccessToken == "" {
		t.Fatalf("expected a session token from bootstrap")
	}
	return response.AccessToken, response.User
}

// provisionActiveUser creates and verifies an account, returning its session token.
func (e *testEnv) provisionActiveUser(t *testing.T, masterToken, name, email, password, role, branchID string) string {
	t.Helper()
	recorder := e.do(t, http.MethodPost, "/users", masterToken, createUserRequestPayload{
		Name: name, Email: email, Password: password, Role: role, BranchID: branchID,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create user failed: %d %s", recorder.Code, recorder.Body.String())
	}

	login := e.do(t, http.MethodPost, "/auth/login", "", loginRequestPayload{
		Email: email, Password: password, BranchID: branchID,
	})
	if login.Code != http.StatusOK {
		t.Fatalf("pending login failed: %d %s", login.Code, login.Body.String())
	}
	var pending pendingResponsePayload
	decodeJSON(t, login, &pending)
	if !pending.Pending {
		t.Fatalf("expected pending outcome, got %s", login.Body.String())
	}

	verify := e.do(t, http.MethodPost, "/auth/verify", pending.VerifyToken, verifyRequestPayload{Code: testVerificationCode})
	if verify.Code != http.StatusOK {
		t.Fatalf("verification failed: %d %s", verify.Code, verify.Body.String())
	}
	var session sessionResponsePayload
	decodeJSON(t, verify, &session)
	return session.AccessToken
}
