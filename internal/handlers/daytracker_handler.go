package handlers

import (
	"net/http"

	"lifelog/backend/internal/database"
	"lifelog/backend/internal/models"
	"lifelog/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func boardService() *services.BoardService     { return services.NewBoardService(database.GetDB(), nil) }
func taskService() *services.TaskService       { return services.NewTaskService(database.GetDB(), nil) }
func journalService() *services.JournalService { return services.NewJournalService(database.GetDB(), nil) }

// ---- Boards ----

func ListBoardsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	boards, err := boardService().List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list boards")
		return
	}
	c.JSON(http.StatusOK, boards)
}

func GetBoardHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	board, err := boardService().Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "get board")
		return
	}
	c.JSON(http.StatusOK, board)
}

func CreateBoardHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload services.BoardInput
	if !bindJSON(c, &payload) {
		return
	}
	board, err := boardService().Create(c.Request.Context(), userID, payload)
	if err != nil {
		respondError(c, err, "create board")
		return
	}
	c.JSON(http.StatusCreated, board)
}

func UpdateBoardHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.BoardUpdate
	if !bindJSON(c, &payload) {
		return
	}
	board, err := boardService().Update(c.Request.Context(), id, userID, payload)
	if err != nil {
		respondError(c, err, "update board")
		return
	}
	c.JSON(http.StatusOK, board)
}

func ArchiveBoardHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	board, err := boardService().Archive(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "archive board")
		return
	}
	c.JSON(http.StatusOK, board)
}

func DeleteBoardHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := boardService().Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "delete board")
		return
	}
	c.Status(http.StatusNoContent)
}

func ReorderBoardsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload reorderPayload
	if !bindJSON(c, &payload) {
		return
	}
	if err := boardService().Reorder(c.Request.Context(), userID, payload.Orders); err != nil {
		respondError(c, err, "reorder boards")
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true})
}

// ---- Tasks ----

type reorderTasksPayload struct {
	BoardID *uuid.UUID           `json:"boardId"`
	Orders  []services.SortOrder `json:"orders" binding:"required,dive"`
}

func ListTasksHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	boardID, ok := optionalUUIDQuery(c, "boardId")
	if !ok {
		return
	}
	status := models.TaskStatus(c.Query("status"))
	switch status {
	case "", models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusDone:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}
	tasks, err := taskService().List(c.Request.Context(), userID, services.TaskFilter{
		BoardID: boardID,
		Status:  status,
		Search:  c.Query("search"),
	})
	if err != nil {
		respondError(c, err, "list tasks")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func ListInboxTasksHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	tasks, err := taskService().Inbox(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list inbox tasks")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func ListOverdueTasksHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	tasks, err := taskService().Overdue(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list overdue tasks")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func GetTaskHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	task, err := taskService().Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "get task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func CreateTaskHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload services.TaskInput
	if !bindJSON(c, &payload) {
		return
	}
	task, err := taskService().Create(c.Request.Context(), userID, payload)
	if err != nil {
		respondError(c, err, "create task")
		return
	}
	c.JSON(http.StatusCreated, task)
}

func UpdateTaskHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.TaskUpdate
	if !bindJSON(c, &payload) {
		return
	}
	task, err := taskService().Update(c.Request.Context(), id, userID, payload)
	if err != nil {
		respondError(c, err, "update task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func CompleteTaskHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	task, err := taskService().Complete(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "complete task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func ArchiveTaskHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	task, err := taskService().Archive(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "archive task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func DeleteTaskHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := taskService().Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "delete task")
		return
	}
	c.Status(http.StatusNoContent)
}

func ReorderTasksHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload reorderTasksPayload
	if !bindJSON(c, &payload) {
		return
	}
	if err := taskService().Reorder(c.Request.Context(), userID, payload.BoardID, payload.Orders); err != nil {
		respondError(c, err, "reorder tasks")
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true})
}

// ---- Journals ----

func ListJournalsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	limit, offset := GetLimitOffsetParams(c)
	entries, err := journalService().List(c.Request.Context(), userID, c.Query("search"), limit, offset)
	if err != nil {
		respondError(c, err, "list journal entries")
		return
	}
	c.JSON(http.StatusOK, entries)
}

func GetJournalsByDateHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	date, err := parseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}
	entries, err := journalService().ByDate(c.Request.Context(), userID, date)
	if err != nil {
		respondError(c, err, "get journal entries by date")
		return
	}
	c.JSON(http.StatusOK, entries)
}

func GetJournalsRangeHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	start, err := parseDate(c.Query("startDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startDate is required as YYYY-MM-DD"})
		return
	}
	end, err := parseDate(c.Query("endDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endDate is required as YYYY-MM-DD"})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must not be before startDate"})
		return
	}
	entries, err := journalService().Range(c.Request.Context(), userID, start, end)
	if err != nil {
		respondError(c, err, "get journal entries in range")
		return
	}
	c.JSON(http.StatusOK, entries)
}

func GetRecentJournalsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	entries, err := journalService().Recent(c.Request.Context(), userID, intQuery(c, "days"))
	if err != nil {
		respondError(c, err, "get recent journal entries")
		return
	}
	c.JSON(http.StatusOK, entries)
}

func GetJournalsByMoodHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	entries, err := journalService().ByMood(c.Request.Context(), userID, c.Param("mood"))
	if err != nil {
		respondError(c, err, "get journal entries by mood")
		return
	}
	c.JSON(http.StatusOK, entries)
}

func GetJournalStatsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	stats, err := journalService().Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "get journal stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func GetJournalHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	entry, err := journalService().Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "get journal entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}

func CreateJournalHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload services.JournalInput
	if !bindJSON(c, &payload) {
		return
	}
	entry, err := journalService().Create(c.Request.Context(), userID, payload)
	if err != nil {
		respondError(c, err, "create journal entry")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func UpdateJournalHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.JournalUpdate
	if !bindJSON(c, &payload) {
		return
	}
	entry, err := journalService().Update(c.Request.Context(), id, userID, payload)
	if err != nil {
		respondError(c, err, "update journal entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}

func DeleteJournalHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := journalService().Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "delete journal entry")
		return
	}
	c.Status(http.StatusNoContent)
}
