package handlers

import (
	"net/http"

	"lifelog/backend/internal/database"
	"lifelog/backend/internal/filestorage"
	"lifelog/backend/internal/models"
	"lifelog/backend/internal/services"
	applog "lifelog/backend/pkg/log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func documentCategoryService() *services.DocumentCategoryService {
	return services.NewDocumentCategoryService(database.GetDB(), nil)
}

func documentService() *services.DocumentService {
	return services.NewDocumentService(database.GetDB(), nil)
}

// ---- Document categories ----

func ListDocumentCategoriesHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	categories, err := documentCategoryService().List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list document categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func ListRootDocumentCategoriesHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	categories, err := documentCategoryService().Root(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list root document categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func ListDocumentCategoryChildrenHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	categories, err := documentCategoryService().Children(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err, "list child document categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func GetDocumentCategoryHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	category, err := documentCategoryService().Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "get document category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func CreateDocumentCategoryHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload services.DocumentCategoryInput
	if !bindJSON(c, &payload) {
		return
	}
	category, err := documentCategoryService().Create(c.Request.Context(), userID, payload)
	if err != nil {
		respondError(c, err, "create document category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func UpdateDocumentCategoryHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.DocumentCategoryUpdate
	if !bindJSON(c, &payload) {
		return
	}
	category, err := documentCategoryService().Update(c.Request.Context(), id, userID, payload)
	if err != nil {
		respondError(c, err, "update document category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func ArchiveDocumentCategoryHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	category, err := documentCategoryService().Archive(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "archive document category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func DeleteDocumentCategoryHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := documentCategoryService().Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "delete document category")
		return
	}
	c.Status(http.StatusNoContent)
}

func ReorderDocumentCategoriesHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload reorderPayload
	if !bindJSON(c, &payload) {
		return
	}
	if err := documentCategoryService().Reorder(c.Request.Context(), userID, payload.Orders); err != nil {
		respondError(c, err, "reorder document categories")
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true})
}

// ---- Documents ----

func ListDocumentsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	categoryID, ok := optionalUUIDQuery(c, "categoryId")
	if !ok {
		return
	}
	docs, err := documentService().List(c.Request.Context(), userID, services.DocumentFilter{
		CategoryID:   categoryID,
		DocumentType: c.Query("type"),
		Search:       c.Query("search"),
	})
	if err != nil {
		respondError(c, err, "list documents")
		return
	}
	c.JSON(http.StatusOK, docs)
}

func ListFavoriteDocumentsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	docs, err := documentService().Favorites(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list favorite documents")
		return
	}
	c.JSON(http.StatusOK, docs)
}

func ListImportantDocumentsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	docs, err := documentService().Important(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list important documents")
		return
	}
	c.JSON(http.StatusOK, docs)
}

func ListExpiringDocumentsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	docs, err := documentService().Expiring(c.Request.Context(), userID, intQuery(c, "days"))
	if err != nil {
		respondError(c, err, "list expiring documents")
		return
	}
	c.JSON(http.StatusOK, docs)
}

func GetDocumentHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := documentService().Get(c.Request.Context(), id, userID, requestMeta(c))
	if err != nil {
		respondError(c, err, "get document")
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DownloadDocumentHandler records the download and returns the metadata, including storagePath.
// The file bytes are served by whatever backs storagePath.
// documentDownloadResponse is the document metadata plus a signed link when object storage is configured.
type documentDownloadResponse struct {
	*models.Document
	DownloadURL string `json:"downloadUrl,omitempty"`
}

func DownloadDocumentHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := documentService().Download(c.Request.Context(), id, userID, requestMeta(c))
	if err != nil {
		respondError(c, err, "download document")
		return
	}
	link, err := filestorage.SignedURL(c.Request.Context(), doc.StoragePath)
	if err != nil {
		applog.L.Named("DownloadDocumentHandler").Warn("Could not sign download link",
			zap.String("documentID", doc.ID.String()), zap.Error(err))
	}
	c.JSON(http.StatusOK, documentDownloadResponse{Document: doc, DownloadURL: link})
}

func GetDocumentAccessLogHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	entries, err := documentService().AccessLog(c.Request.Context(), id, userID, intQuery(c, "limit"))
	if err != nil {
		respondError(c, err, "get document access log")
		return
	}
	c.JSON(http.StatusOK, entries)
}

func CreateDocumentHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload services.DocumentInput
	if !bindJSON(c, &payload) {
		return
	}
	doc, err := documentService().Create(c.Request.Context(), userID, payload, requestMeta(c))
	if err != nil {
		respondError(c, err, "create document")
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func UpdateDocumentHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.DocumentUpdate
	if !bindJSON(c, &payload) {
		return
	}
	doc, err := documentService().Update(c.Request.Context(), id, userID, payload, requestMeta(c))
	if err != nil {
		respondError(c, err, "update document")
		return
	}
	c.JSON(http.StatusOK, doc)
}

func ToggleDocumentFavoriteHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := documentService().ToggleFavorite(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "toggle document favorite")
		return
	}
	c.JSON(http.StatusOK, doc)
}

func ToggleDocumentImportantHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := documentService().ToggleImportant(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "toggle document importance")
		return
	}
	c.JSON(http.StatusOK, doc)
}

func ArchiveDocumentHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := documentService().Archive(c.Request.Context(), id, userID, requestMeta(c))
	if err != nil {
		respondError(c, err, "archive document")
		return
	}
	c.JSON(http.StatusOK, doc)
}

func DeleteDocumentHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := documentService().Delete(c.Request.Context(), id, userID, requestMeta(c)); err != nil {
		respondError(c, err, "delete document")
		return
	}
	c.Status(http.StatusNoContent)
}
