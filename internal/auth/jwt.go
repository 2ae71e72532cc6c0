package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lifelog/backend/internal/database"
	"lifelog/backend/internal/models"
	"lifelog/backend/internal/services"
	"lifelog/backend/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Gin context keys set by AuthMiddleware.
const (
	ContextUserIDKey    = "userID"
	ContextSessionIDKey = "sessionID"
	ContextEmailKey     = "userEmail"
)

const issuer = "lifelog"

var jwtKey []byte

// Claims is the bearer token payload. SessionID ties the token to a server-side session row.
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	SessionID string    `json:"sid"`
	Email     string    `json:"email"`
	jwt.RegisteredClaims
}

// InitializeJWT sets the signing secret.
func InitializeJWT(secret string) error {
	if secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY environment variable not set")
	}
	jwtKey = []byte(secret)
	return nil
}

// GenerateToken signs a token for user that expires with session.
func GenerateToken(user *models.User, session *models.Session) (string, error) {
	if len(jwtKey) == 0 {
		return "", fmt.Errorf("JWT secret key not initialized. Call InitializeJWT() first")
	}

	claims := &Claims{
		UserID:    user.ID,
		SessionID: session.ID,
		Email:     user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtKey)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken checks signature and expiry and returns the claims.
func ValidateToken(tokenString string) (*Claims, error) {
	if len(jwtKey) == 0 {
		return nil, fmt.Errorf("JWT secret key not initialized")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtKey, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("error parsing token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": message})
}

// AuthMiddleware requires a valid bearer token whose session still exists and has not expired.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header required")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			unauthorized(c, "Authorization header format must be Bearer {token}")
			return
		}

		claims, err := ValidateToken(parts[1])
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}

		sessions := services.NewSessionService(database.GetDB(), nil, config.Cfg.SessionLifespan)
		session, err := sessions.Validate(c.Request.Context(), claims.SessionID)
		switch {
		case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrSessionExpired):
			unauthorized(c, "Session is no longer valid")
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate session"})
			return
		}
		if session.UserID != claims.UserID {
			unauthorized(c, "Session is no longer valid")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextSessionIDKey, claims.SessionID)
		c.Set(ContextEmailKey, claims.Email)
		c.Next()
	}
}
