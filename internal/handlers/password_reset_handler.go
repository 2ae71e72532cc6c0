package handlers

import (
	"net/http"

	"lifelog/backend/internal/database"
	"lifelog/backend/internal/notifications"
	"lifelog/backend/internal/services"
	"lifelog/backend/pkg/config"
	applog "lifelog/backend/pkg/log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ForgotPasswordPayload struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

type ResetPasswordPayload struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=72,strongpassword"`
}

// resetNotifier is swapped in tests to capture the raw token.
var resetNotifier = func() services.ResetNotifier {
	return notifications.DefaultPasswordResetMailer()
}

func newPasswordResetService() *services.PasswordResetService {
	return services.NewPasswordResetService(
		database.GetDB(),
		resetNotifier(),
		services.WithResetBcryptCost(config.Cfg.BcryptCost),
		services.WithResetTokenTTL(config.Cfg.PasswordResetTTL),
	)
}

// ForgotPasswordHandler starts a reset. The answer is the same whether or not the email is registered.
func ForgotPasswordHandler(c *gin.Context) {
	var payload ForgotPasswordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "A valid email address is required."})
		return
	}

	result, err := newPasswordResetService().RequestReset(c.Request.Context(), payload.Email)
	if err != nil {
		applog.L.Named("ForgotPasswordHandler").Error("Password reset request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to process password reset request."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": result.Success, "message": result.Message})
}

// VerifyResetTokenHandler lets the frontend check a link before showing the reset form.
func VerifyResetTokenHandler(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Token is required."})
		return
	}

	result, err := newPasswordResetService().VerifyToken(c.Request.Context(), token)
	if err != nil {
		applog.L.Named("VerifyResetTokenHandler").Error("Password reset token verification failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to verify reset token."})
		return
	}

	status := http.StatusOK
	if !result.Valid {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"success": result.Valid, "message": result.Message})
}

// ResetPasswordHandler consumes a token and sets the new password.
func ResetPasswordHandler(c *gin.Context) {
	var payload ResetPasswordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Token and a new password of at least 8 characters with upper case, lower case and a digit are required.",
		})
		return
	}

	result, err := newPasswordResetService().ResetPassword(c.Request.Context(), payload.Token, payload.NewPassword)
	if err != nil {
		applog.L.Named("ResetPasswordHandler").Error("Password reset failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to reset password."})
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"success": result.Success, "message": result.Message})
}
