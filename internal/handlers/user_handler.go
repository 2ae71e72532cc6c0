package handlers

import (
	"net/http"

	"lifelog/backend/internal/database"
	"lifelog/backend/internal/models"
	"lifelog/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UpdateProfilePayload struct {
	FirstName *string `json:"firstName" binding:"omitempty,max=100"`
	LastName  *string `json:"lastName" binding:"omitempty,max=100"`
}

// UserDashboardSummaryResponse is a handful of counters for the landing page.
type UserDashboardSummaryResponse struct {
	OpenTasksCount      int64 `json:"openTasksCount"`
	OverdueTasksCount   int64 `json:"overdueTasksCount"`
	ActiveLendingsCount int64 `json:"activeLendingsCount"`
	NotesCount          int64 `json:"notesCount"`
	VaultItemsCount     int64 `json:"vaultItemsCount"`
}

// GetMeHandler returns the authenticated user's profile.
func GetMeHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := services.NewUserService(database.GetDB(), nil).GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "load profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMeHandler changes the profile name fields.
func UpdateMeHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload UpdateProfilePayload
	if !bindJSON(c, &payload) {
		return
	}
	user, err := services.NewUserService(database.GetDB(), nil).UpdateProfile(c.Request.Context(), userID, payload.FirstName, payload.LastName)
	if err != nil {
		respondError(c, err, "update profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUserDashboardSummaryHandler counts what is waiting for the user across modules.
func GetUserDashboardSummaryHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	db := database.GetDB().WithContext(c.Request.Context())
	now := services.SystemClock()

	var summary UserDashboardSummaryResponse
	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{db.Model(&models.Task{}).Where("user_id = ? AND is_archived = ? AND status <> ?", userID, false, string(models.TaskStatusDone)), &summary.OpenTasksCount},
		{db.Model(&models.Task{}).Where("user_id = ? AND is_archived = ? AND status <> ? AND due_date < ?", userID, false, string(models.TaskStatusDone), now), &summary.OverdueTasksCount},
		{db.Model(&models.Lending{}).Where("user_id = ? AND status IN ?", userID, []string{string(models.LendingActive), string(models.LendingOverdue)}), &summary.ActiveLendingsCount},
		{db.Model(&models.Note{}).Where("user_id = ? AND is_archived = ?", userID, false), &summary.NotesCount},
		{db.Model(&models.VaultItem{}).Where("user_id = ? AND is_archived = ?", userID, false), &summary.VaultItemsCount},
	}
	for _, q := range counts {
		if err := q.query.Count(q.dest).Error; err != nil {
			respondError(c, err, "load dashboard summary")
			return
		}
	}
	c.JSON(http.StatusOK, summary)
}
