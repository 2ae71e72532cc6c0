package handlers

import (
	"net/http"

	"lifelog/backend/internal/database"
	"lifelog/backend/internal/models"
	"lifelog/backend/internal/services"

	"github.com/gin-gonic/gin"
)

func vaultCategoryService() *services.VaultCategoryService {
	return services.NewVaultCategoryService(database.GetDB(), nil)
}

func vaultItemService() *services.VaultItemService {
	return services.NewVaultItemService(database.GetDB(), nil)
}

// ---- Vault categories ----

func ListVaultCategoriesHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	categories, err := vaultCategoryService().List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list vault categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func GetVaultCategoryHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	category, err := vaultCategoryService().Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "get vault category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func CreateVaultCategoryHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload services.VaultCategoryInput
	if !bindJSON(c, &payload) {
		return
	}
	category, err := vaultCategoryService().Create(c.Request.Context(), userID, payload)
	if err != nil {
		respondError(c, err, "create vault category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func UpdateVaultCategoryHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.VaultCategoryUpdate
	if !bindJSON(c, &payload) {
		return
	}
	category, err := vaultCategoryService().Update(c.Request.Context(), id, userID, payload)
	if err != nil {
		respondError(c, err, "update vault category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func ArchiveVaultCategoryHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	category, err := vaultCategoryService().Archive(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "archive vault category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func DeleteVaultCategoryHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := vaultCategoryService().Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "delete vault category")
		return
	}
	c.Status(http.StatusNoContent)
}

func ReorderVaultCategoriesHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload reorderPayload
	if !bindJSON(c, &payload) {
		return
	}
	if err := vaultCategoryService().Reorder(c.Request.Context(), userID, payload.Orders); err != nil {
		respondError(c, err, "reorder vault categories")
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true})
}

// ---- Vault items ----

var vaultItemTypes = map[models.VaultItemType]bool{
	"":                       true,
	models.VaultItemPassword: true,
	models.VaultItemNote:     true,
	models.VaultItemCard:     true,
	models.VaultItemIdentity: true,
	models.VaultItemOther:    true,
}

func ListVaultItemsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	categoryID, ok := optionalUUIDQuery(c, "categoryId")
	if !ok {
		return
	}
	itemType := models.VaultItemType(c.Query("type"))
	if !vaultItemTypes[itemType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type"})
		return
	}
	items, err := vaultItemService().List(c.Request.Context(), userID, services.VaultItemFilter{
		CategoryID: categoryID,
		Type:       itemType,
		Search:     c.Query("search"),
	})
	if err != nil {
		respondError(c, err, "list vault items")
		return
	}
	c.JSON(http.StatusOK, items)
}

func ListFavoriteVaultItemsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	items, err := vaultItemService().Favorites(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list favorite vault items")
		return
	}
	c.JSON(http.StatusOK, items)
}

func ListExpiringVaultItemsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	items, err := vaultItemService().Expiring(c.Request.Context(), userID, intQuery(c, "days"))
	if err != nil {
		respondError(c, err, "list expiring vault items")
		return
	}
	c.JSON(http.StatusOK, items)
}

func GetVaultItemHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	item, err := vaultItemService().Get(c.Request.Context(), id, userID, requestMeta(c))
	if err != nil {
		respondError(c, err, "get vault item")
		return
	}
	c.JSON(http.StatusOK, item)
}

func GetVaultItemAccessLogHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	entries, err := vaultItemService().AccessLog(c.Request.Context(), id, userID, intQuery(c, "limit"))
	if err != nil {
		respondError(c, err, "get vault access log")
		return
	}
	c.JSON(http.StatusOK, entries)
}

func CreateVaultItemHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload services.VaultItemInput
	if !bindJSON(c, &payload) {
		return
	}
	item, err := vaultItemService().Create(c.Request.Context(), userID, payload, requestMeta(c))
	if err != nil {
		respondError(c, err, "create vault item")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func UpdateVaultItemHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.VaultItemUpdate
	if !bindJSON(c, &payload) {
		return
	}
	item, err := vaultItemService().Update(c.Request.Context(), id, userID, payload, requestMeta(c))
	if err != nil {
		respondError(c, err, "update vault item")
		return
	}
	c.JSON(http.StatusOK, item)
}

func ToggleVaultItemFavoriteHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	item, err := vaultItemService().ToggleFavorite(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "toggle vault item favorite")
		return
	}
	c.JSON(http.StatusOK, item)
}

func ArchiveVaultItemHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	item, err := vaultItemService().Archive(c.Request.Context(), id, userID, requestMeta(c))
	if err != nil {
		respondError(c, err, "archive vault item")
		return
	}
	c.JSON(http.StatusOK, item)
}

func DeleteVaultItemHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := vaultItemService().Delete(c.Request.Context(), id, userID, requestMeta(c)); err != nil {
		respondError(c, err, "delete vault item")
		return
	}
	c.Status(http.StatusNoContent)
}
