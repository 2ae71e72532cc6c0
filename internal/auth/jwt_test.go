package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"lifelog/backend/internal/database"
	"lifelog/backend/internal/models"
	"lifelog/backend/internal/services"
	"lifelog/backend/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := InitializeJWT("testsecretkeyforjwtauthentication"); err != nil {
		panic("Failed to initialize JWT for testing: " + err.Error())
	}
	os.Exit(m.Run())
}

func testSession(userID uuid.UUID, expiresAt time.Time) *models.Session {
	return &models.Session{ID: "session-" + userID.String(), UserID: userID, ExpiresAt: expiresAt}
}

func TestInitializeJWTRequiresSecret(t *testing.T) {
	original := jwtKey
	defer func() { jwtKey = original }()
	assert.Error(t, InitializeJWT(""))
}

func TestGenerateToken(t *testing.T) {
	user := &models.User{Base: models.Base{ID: uuid.New()}, Email: "test@example.com"}
	session := testSession(user.ID, time.Now().Add(time.Hour))

	tokenString, err := GenerateToken(user, session)
	require.NoError(t, err)
	assert.NotEmpty(t, tokenString)

	claims, err := ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, session.ID, claims.SessionID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, "lifelog", claims.Issuer)
	assert.WithinDuration(t, session.ExpiresAt, claims.ExpiresAt.Time, time.Second)
}

func TestValidateToken_InvalidSignature(t *testing.T) {
	user := &models.User{Base: models.Base{ID: uuid.New()}, Email: "test@example.com"}
	tokenString, err := GenerateToken(user, testSession(user.ID, time.Now().Add(time.Hour)))
	require.NoError(t, err)

	originalKey := jwtKey
	jwtKey = []byte("wrongsecretkey")
	defer func() { jwtKey = originalKey }()

	_, err = ValidateToken(tokenString)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid), "got %v", err)
}

func TestValidateToken_Expired(t *testing.T) {
	user := &models.User{Base: models.Base{ID: uuid.New()}, Email: "expired@example.com"}
	tokenString, err := GenerateToken(user, testSession(user.ID, time.Now().Add(-time.Hour)))
	require.NoError(t, err)

	_, err = ValidateToken(tokenString)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired), "got %v", err)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.NewSQLiteDB(t)
	original := database.DB
	database.SetDB(db)
	defer database.SetDB(original)

	user := testutil.CreateUser(t, db, "authmiddleware@example.com", "x")
	sessions := services.NewSessionService(db, nil, time.Hour)
	session, err := sessions.Create(context.Background(), user.ID, "127.0.0.1", "test")
	require.NoError(t, err)
	validToken, err := GenerateToken(user, session)
	require.NoError(t, err)

	router := gin.New()
	router.Use(AuthMiddleware())
	router.GET("/testauth", func(c *gin.Context) {
		userID, exists := c.Get(ContextUserIDKey)
		assert.True(t, exists)
		assert.Equal(t, user.ID, userID)
		c.Status(http.StatusOK)
	})

	do := func(header string) *httptest.ResponseRecorder {
		req, _ := http.NewRequest(http.MethodGet, "/testauth", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("no header", func(t *testing.T) {
		rr := do("")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Authorization header required")
	})

	t.Run("malformed header", func(t *testing.T) {
		rr := do("Bearer")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Authorization header format must be Bearer {token}")
	})

	t.Run("garbage token", func(t *testing.T) {
		rr := do("Bearer aninvalidtokenstring")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), `"error":"Unauthorized"`)
	})

	t.Run("valid token", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do("Bearer "+validToken).Code)
	})

	t.Run("revoked session", func(t *testing.T) {
		require.NoError(t, sessions.Revoke(context.Background(), session.ID))
		rr := do("Bearer " + validToken)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Session is no longer valid")
	})
}
