package handlers

import (
	"net/http"

	"lifelog/backend/internal/database"
	"lifelog/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func notebookService() *services.NotebookService {
	return services.NewNotebookService(database.GetDB(), nil)
}

func noteService() *services.NoteService { return services.NewNoteService(database.GetDB(), nil) }
func tagService() *services.TagService   { return services.NewTagService(database.GetDB(), nil) }

// ---- Notebooks ----

type reorderNotebooksPayload struct {
	ParentID *uuid.UUID          `json:"parentId"`
	Orders   []services.SortOrder `json:"orders" binding:"required,dive"`
}

func ListNotebooksHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	notebooks, err := notebookService().List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list notebooks")
		return
	}
	c.JSON(http.StatusOK, notebooks)
}

func ListRootNotebooksHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	notebooks, err := notebookService().Root(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list root notebooks")
		return
	}
	c.JSON(http.StatusOK, notebooks)
}

func ListNotebookChildrenHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	notebooks, err := notebookService().Children(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err, "list child notebooks")
		return
	}
	c.JSON(http.StatusOK, notebooks)
}

func GetNotebookHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	notebook, err := notebookService().Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "get notebook")
		return
	}
	c.JSON(http.StatusOK, notebook)
}

func CreateNotebookHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload services.NotebookInput
	if !bindJSON(c, &payload) {
		return
	}
	notebook, err := notebookService().Create(c.Request.Context(), userID, payload)
	if err != nil {
		respondError(c, err, "create notebook")
		return
	}
	c.JSON(http.StatusCreated, notebook)
}

func UpdateNotebookHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.NotebookUpdate
	if !bindJSON(c, &payload) {
		return
	}
	notebook, err := notebookService().Update(c.Request.Context(), id, userID, payload)
	if err != nil {
		respondError(c, err, "update notebook")
		return
	}
	c.JSON(http.StatusOK, notebook)
}

func ArchiveNotebookHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	notebook, err := notebookService().Archive(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "archive notebook")
		return
	}
	c.JSON(http.StatusOK, notebook)
}

func DeleteNotebookHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := notebookService().Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "delete notebook")
		return
	}
	c.Status(http.StatusNoContent)
}

func ReorderNotebooksHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload reorderNotebooksPayload
	if !bindJSON(c, &payload) {
		return
	}
	if err := notebookService().Reorder(c.Request.Context(), userID, payload.ParentID, payload.Orders); err != nil {
		respondError(c, err, "reorder notebooks")
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true})
}

// ---- Notes ----

func ListNotesHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	notebookID, ok := optionalUUIDQuery(c, "notebookId")
	if !ok {
		return
	}
	tagID, ok := optionalUUIDQuery(c, "tagId")
	if !ok {
		return
	}
	notes, err := noteService().List(c.Request.Context(), userID, services.NoteFilter{
		NotebookID: notebookID,
		TagID:      tagID,
		Search:     c.Query("search"),
	})
	if err != nil {
		respondError(c, err, "list notes")
		return
	}
	c.JSON(http.StatusOK, notes)
}

func ListFavoriteNotesHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	notes, err := noteService().Favorites(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list favorite notes")
		return
	}
	c.JSON(http.StatusOK, notes)
}

func ListPinnedNotesHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	notes, err := noteService().Pinned(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list pinned notes")
		return
	}
	c.JSON(http.StatusOK, notes)
}

func ListNotesByTagHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	tagID, ok := parseUUIDParam(c, "tagId")
	if !ok {
		return
	}
	notes, err := noteService().ByTag(c.Request.Context(), userID, tagID)
	if err != nil {
		respondError(c, err, "list notes by tag")
		return
	}
	c.JSON(http.StatusOK, notes)
}

func GetNoteHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	note, err := noteService().Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "get note")
		return
	}
	c.JSON(http.StatusOK, note)
}

func CreateNoteHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload services.NoteInput
	if !bindJSON(c, &payload) {
		return
	}
	note, err := noteService().Create(c.Request.Context(), userID, payload)
	if err != nil {
		respondError(c, err, "create note")
		return
	}
	c.JSON(http.StatusCreated, note)
}

func UpdateNoteHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.NoteUpdate
	if !bindJSON(c, &payload) {
		return
	}
	note, err := noteService().Update(c.Request.Context(), id, userID, payload)
	if err != nil {
		respondError(c, err, "update note")
		return
	}
	c.JSON(http.StatusOK, note)
}

func ToggleNoteFavoriteHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	note, err := noteService().ToggleFavorite(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "toggle note favorite")
		return
	}
	c.JSON(http.StatusOK, note)
}

func ToggleNotePinHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	note, err := noteService().TogglePin(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "toggle note pin")
		return
	}
	c.JSON(http.StatusOK, note)
}

func ArchiveNoteHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	note, err := noteService().Archive(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "archive note")
		return
	}
	c.JSON(http.StatusOK, note)
}

func DeleteNoteHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := noteService().Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "delete note")
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- Tags ----

func ListTagsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	tags, err := tagService().List(c.Request.Context(), userID, c.Query("search"))
	if err != nil {
		respondError(c, err, "list tags")
		return
	}
	c.JSON(http.StatusOK, tags)
}

func ListPopularTagsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	tags, err := tagService().Popular(c.Request.Context(), userID, intQuery(c, "limit"))
	if err != nil {
		respondError(c, err, "list popular tags")
		return
	}
	c.JSON(http.StatusOK, tags)
}

func GetTagByNameHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	tag, err := tagService().GetByName(c.Request.Context(), userID, c.Param("name"))
	if err != nil {
		respondError(c, err, "get tag")
		return
	}
	c.JSON(http.StatusOK, tag)
}

func GetTagHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	tag, err := tagService().Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "get tag")
		return
	}
	c.JSON(http.StatusOK, tag)
}

func CreateTagHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload services.TagInput
	if !bindJSON(c, &payload) {
		return
	}
	tag, err := tagService().Create(c.Request.Context(), userID, payload)
	if err != nil {
		respondError(c, err, "create tag")
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func UpdateTagHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.TagUpdate
	if !bindJSON(c, &payload) {
		return
	}
	tag, err := tagService().Update(c.Request.Context(), id, userID, payload)
	if err != nil {
		respondError(c, err, "update tag")
		return
	}
	c.JSON(http.StatusOK, tag)
}

func DeleteTagHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := tagService().Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "delete tag")
		return
	}
	c.Status(http.StatusNoContent)
}
