package handlers

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"lifelog/backend/internal/auth"
	"lifelog/backend/internal/database"
	"lifelog/backend/internal/testutil"
	"lifelog/backend/pkg/config"
	applog "lifelog/backend/pkg/log"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestMain sets up the shared handler test environment: quiet logs, cheap bcrypt and a JWT key.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	applog.Nop()

	config.Cfg.BcryptCost = bcrypt.MinCost
	if err := auth.InitializeJWT("handler_test_secret_key"); err != nil {
		log.Fatalf("Failed to initialize JWT for handler testing: %v", err)
	}
	if err := RegisterValidators(); err != nil {
		log.Fatalf("Failed to register validators: %v", err)
	}

	os.Exit(m.Run())
}

// useSQLite points the handlers at a fresh in-memory database for the duration of the test.
func useSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	swapDB(t, db)
	return db
}

// useMockDB points the handlers at sqlmock, for storage failure paths.
func useMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock := testutil.NewMockDB(t)
	swapDB(t, db)
	return mock
}

func swapDB(t *testing.T, db *gorm.DB) {
	original := database.GetDB()
	database.SetDB(db)
	t.Cleanup(func() { database.SetDB(original) })
}

// getRouterWithAuthenticatedContext returns an engine whose requests look authenticated as userID.
func getRouterWithAuthenticatedContext(userID uuid.UUID) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.ContextUserIDKey, userID)
		c.Next()
	})
	return r
}

func performRequest(r http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return out
}
