package handlers

import (
	"errors"
	"net/http"
	"time"

	"lifelog/backend/internal/auth"
	"lifelog/backend/internal/database"
	"lifelog/backend/internal/models"
	"lifelog/backend/internal/services"
	"lifelog/backend/pkg/config"
	"lifelog/backend/pkg/features"
	applog "lifelog/backend/pkg/log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SignUpPayload struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=8,max=72,strongpassword"`
	FirstName string `json:"firstName" binding:"max=100"`
	LastName  string `json:"lastName" binding:"max=100"`
}

type SignInPayload struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

func newAuthService() *services.AuthService {
	db := database.GetDB()
	return services.NewAuthService(
		services.NewUserService(db, nil),
		services.NewSessionService(db, nil, config.Cfg.SessionLifespan),
		config.Cfg.BcryptCost,
	)
}

func respondWithSession(c *gin.Context, status int, user *models.User, session *models.Session) {
	token, err := auth.GenerateToken(user, session)
	if err != nil {
		applog.L.Named("AuthHandler").Error("Failed to sign session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(status, AuthResponse{User: user, Token: token, ExpiresAt: session.ExpiresAt})
}

// SignUpHandler registers an account and signs it in.
func SignUpHandler(c *gin.Context) {
	if !features.IsEnabledByDefault(features.Signup) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Sign up is disabled"})
		return
	}

	var payload SignUpPayload
	if !bindJSON(c, &payload) {
		return
	}

	user, session, err := newAuthService().Register(c.Request.Context(), services.RegisterInput{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		respondError(c, err, "create account")
		return
	}
	respondWithSession(c, http.StatusCreated, user, session)
}

// SignInHandler exchanges credentials for a session token.
func SignInHandler(c *gin.Context) {
	var payload SignInPayload
	if !bindJSON(c, &payload) {
		return
	}

	user, session, err := newAuthService().SignIn(c.Request.Context(), payload.Email, payload.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		respondError(c, err, "sign in")
		return
	}
	respondWithSession(c, http.StatusOK, user, session)
}

// SignOutHandler ends the session the request was authenticated with.
func SignOutHandler(c *gin.Context) {
	sessionID := c.GetString(auth.ContextSessionIDKey)
	if sessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if err := newAuthService().SignOut(c.Request.Context(), sessionID); err != nil && !errors.Is(err, services.ErrNotFound) {
		respondError(c, err, "sign out")
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true, Message: "Signed out successfully"})
}
