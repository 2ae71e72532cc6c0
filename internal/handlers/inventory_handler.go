package handlers

import (
	"context"
	"net/http"
	"time"

	"lifelog/backend/internal/database"
	"lifelog/backend/internal/models"
	"lifelog/backend/internal/notifications"
	"lifelog/backend/internal/services"
	applog "lifelog/backend/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const reminderTimeout = 10 * time.Second

func locationService() *services.LocationService {
	return services.NewLocationService(database.GetDB(), nil)
}

func itemService() *services.ItemService { return services.NewItemService(database.GetDB(), nil) }

func lendingService() *services.LendingService {
	return services.NewLendingService(database.GetDB(), nil)
}

// ---- Locations ----

func ListLocationsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	locations, err := locationService().List(c.Request.Context(), userID, c.Query("type"))
	if err != nil {
		respondError(c, err, "list locations")
		return
	}
	c.JSON(http.StatusOK, locations)
}

func ListRootLocationsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	locations, err := locationService().Root(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list root locations")
		return
	}
	c.JSON(http.StatusOK, locations)
}

func ListLocationChildrenHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	locations, err := locationService().Children(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err, "list child locations")
		return
	}
	c.JSON(http.StatusOK, locations)
}

func GetLocationHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	location, err := locationService().Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "get location")
		return
	}
	c.JSON(http.StatusOK, location)
}

func CreateLocationHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload services.LocationInput
	if !bindJSON(c, &payload) {
		return
	}
	location, err := locationService().Create(c.Request.Context(), userID, payload)
	if err != nil {
		respondError(c, err, "create location")
		return
	}
	c.JSON(http.StatusCreated, location)
}

func UpdateLocationHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.LocationUpdate
	if !bindJSON(c, &payload) {
		return
	}
	location, err := locationService().Update(c.Request.Context(), id, userID, payload)
	if err != nil {
		respondError(c, err, "update location")
		return
	}
	c.JSON(http.StatusOK, location)
}

func ArchiveLocationHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	location, err := locationService().Archive(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "archive location")
		return
	}
	c.JSON(http.StatusOK, location)
}

func DeleteLocationHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := locationService().Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "delete location")
		return
	}
	c.Status(http.StatusNoContent)
}

func ReorderLocationsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload reorderPayload
	if !bindJSON(c, &payload) {
		return
	}
	if err := locationService().Reorder(c.Request.Context(), userID, payload.Orders); err != nil {
		respondError(c, err, "reorder locations")
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true})
}

// ---- Items ----

func ListItemsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	locationID, ok := optionalUUIDQuery(c, "locationId")
	if !ok {
		return
	}
	items, err := itemService().List(c.Request.Context(), userID, services.ItemFilter{
		LocationID: locationID,
		Category:   c.Query("category"),
		Search:     c.Query("search"),
	})
	if err != nil {
		respondError(c, err, "list items")
		return
	}
	c.JSON(http.StatusOK, items)
}

// listItems serves the flag and date based item listings.
func listItems(action string, fetch func(ctx context.Context, s *services.ItemService, userID uuid.UUID, c *gin.Context) ([]models.Item, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserID(c)
		if !ok {
			return
		}
		items, err := fetch(c.Request.Context(), itemService(), userID, c)
		if err != nil {
			respondError(c, err, action)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

var (
	ListFavoriteItemsHandler = listItems("list favorite items", func(ctx context.Context, s *services.ItemService, userID uuid.UUID, _ *gin.Context) ([]models.Item, error) {
		return s.Favorites(ctx, userID)
	})
	ListLostItemsHandler = listItems("list lost items", func(ctx context.Context, s *services.ItemService, userID uuid.UUID, _ *gin.Context) ([]models.Item, error) {
		return s.Lost(ctx, userID)
	})
	ListBrokenItemsHandler = listItems("list broken items", func(ctx context.Context, s *services.ItemService, userID uuid.UUID, _ *gin.Context) ([]models.Item, error) {
		return s.Broken(ctx, userID)
	})
	ListLentItemsHandler = listItems("list lent items", func(ctx context.Context, s *services.ItemService, userID uuid.UUID, _ *gin.Context) ([]models.Item, error) {
		return s.Lent(ctx, userID)
	})
	ListItemsNeedingMaintenanceHandler = listItems("list items needing maintenance", func(ctx context.Context, s *services.ItemService, userID uuid.UUID, _ *gin.Context) ([]models.Item, error) {
		return s.NeedingMaintenance(ctx, userID)
	})
	ListWarrantyExpiringItemsHandler = listItems("list items with expiring warranty", func(ctx context.Context, s *services.ItemService, userID uuid.UUID, c *gin.Context) ([]models.Item, error) {
		return s.WarrantyExpiring(ctx, userID, intQuery(c, "days"))
	})
)

func GetItemByBarcodeHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	item, err := itemService().ByBarcode(c.Request.Context(), userID, c.Param("barcode"))
	if err != nil {
		respondError(c, err, "get item by barcode")
		return
	}
	c.JSON(http.StatusOK, item)
}

func GetItemByCustomIDHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	item, err := itemService().ByCustomID(c.Request.Context(), userID, c.Param("customId"))
	if err != nil {
		respondError(c, err, "get item by custom id")
		return
	}
	c.JSON(http.StatusOK, item)
}

func GetItemHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	item, err := itemService().Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "get item")
		return
	}
	c.JSON(http.StatusOK, item)
}

func CreateItemHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload services.ItemInput
	if !bindJSON(c, &payload) {
		return
	}
	item, err := itemService().Create(c.Request.Context(), userID, payload)
	if err != nil {
		respondError(c, err, "create item")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func UpdateItemHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.ItemUpdate
	if !bindJSON(c, &payload) {
		return
	}
	item, err := itemService().Update(c.Request.Context(), id, userID, payload)
	if err != nil {
		respondError(c, err, "update item")
		return
	}
	c.JSON(http.StatusOK, item)
}

func MoveItemHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.MoveInput
	if !bindJSON(c, &payload) {
		return
	}
	item, err := itemService().Move(c.Request.Context(), id, userID, payload)
	if err != nil {
		respondError(c, err, "move item")
		return
	}
	c.JSON(http.StatusOK, item)
}

func GetItemLocationHistoryHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	history, err := itemService().LocationHistory(c.Request.Context(), id, userID, intQuery(c, "limit"))
	if err != nil {
		respondError(c, err, "get item location history")
		return
	}
	c.JSON(http.StatusOK, history)
}

func RecordItemMaintenanceHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.MaintenanceInput
	if !bindJSON(c, &payload) {
		return
	}
	entry, err := itemService().RecordMaintenance(c.Request.Context(), id, userID, payload)
	if err != nil {
		respondError(c, err, "record maintenance")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func GetItemMaintenanceHistoryHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	history, err := itemService().MaintenanceHistory(c.Request.Context(), id, userID, intQuery(c, "limit"))
	if err != nil {
		respondError(c, err, "get item maintenance history")
		return
	}
	c.JSON(http.StatusOK, history)
}

// mutateItem serves the toggle and archive routes, which all take only the id.
func mutateItem(action string, apply func(s *services.ItemService, ctx context.Context, id, userID uuid.UUID) (*models.Item, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserID(c)
		if !ok {
			return
		}
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		item, err := apply(itemService(), c.Request.Context(), id, userID)
		if err != nil {
			respondError(c, err, action)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

var (
	ToggleItemFavoriteHandler = mutateItem("toggle item favorite", (*services.ItemService).ToggleFavorite)
	ToggleItemLostHandler     = mutateItem("toggle item lost", (*services.ItemService).ToggleLost)
	ToggleItemBrokenHandler   = mutateItem("toggle item broken", (*services.ItemService).ToggleBroken)
	ArchiveItemHandler        = mutateItem("archive item", (*services.ItemService).Archive)
)

func DeleteItemHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := itemService().Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "delete item")
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- Lendings ----

var lendingStatuses = map[models.LendingStatus]bool{
	"":                     true,
	models.LendingActive:   true,
	models.LendingReturned: true,
	models.LendingOverdue:  true,
	models.LendingLost:     true,
}

func ListLendingsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := optionalUUIDQuery(c, "itemId")
	if !ok {
		return
	}
	status := models.LendingStatus(c.Query("status"))
	if !lendingStatuses[status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}
	lendings, err := lendingService().List(c.Request.Context(), userID, services.LendingFilter{
		Status: status,
		ItemID: itemID,
		Search: c.Query("search"),
	})
	if err != nil {
		respondError(c, err, "list lendings")
		return
	}
	c.JSON(http.StatusOK, lendings)
}

func ListActiveLendingsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	lendings, err := lendingService().Active(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list active lendings")
		return
	}
	c.JSON(http.StatusOK, lendings)
}

func ListOverdueLendingsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	lendings, err := lendingService().Overdue(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list overdue lendings")
		return
	}
	c.JSON(http.StatusOK, lendings)
}

func GetLendingStatsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	stats, err := lendingService().Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "get lending stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CheckOverdueLendingsHandler flags the user's active lendings that are past due and returns them.
func CheckOverdueLendingsHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	lendings, err := lendingService().CheckOverdue(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "check overdue lendings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(lendings), "lendings": lendings})
}

func GetLendingHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	lending, err := lendingService().Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "get lending")
		return
	}
	c.JSON(http.StatusOK, lending)
}

func CreateLendingHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var payload services.LendingInput
	if !bindJSON(c, &payload) {
		return
	}
	lending, err := lendingService().Create(c.Request.Context(), userID, payload)
	if err != nil {
		respondError(c, err, "create lending")
		return
	}
	c.JSON(http.StatusCreated, lending)
}

func UpdateLendingHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.LendingUpdate
	if !bindJSON(c, &payload) {
		return
	}
	lending, err := lendingService().Update(c.Request.Context(), id, userID, payload)
	if err != nil {
		respondError(c, err, "update lending")
		return
	}
	c.JSON(http.StatusOK, lending)
}

func ReturnLendingHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var payload services.ReturnInput
	// The body is optional for a plain return.
	if c.Request.ContentLength != 0 && !bindJSON(c, &payload) {
		return
	}
	lending, err := lendingService().Return(c.Request.Context(), id, userID, payload)
	if err != nil {
		respondError(c, err, "return lending")
		return
	}
	c.JSON(http.StatusOK, lending)
}

func MarkLendingOverdueHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	lending, err := lendingService().MarkOverdue(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "mark lending overdue")
		return
	}
	c.JSON(http.StatusOK, lending)
}

func MarkLendingLostHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	lending, err := lendingService().MarkLost(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "mark lending lost")
		return
	}
	c.JSON(http.StatusOK, lending)
}

// SendLendingReminderHandler stamps the reminder and emails the borrower when an address is on file.
// Delivery failures are logged; the reminder still counts as sent.
func SendLendingReminderHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	svc := lendingService()
	lending, err := svc.SendReminder(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "send lending reminder")
		return
	}

	log := applog.L.Named("SendLendingReminderHandler")
	itemName, err := svc.ItemName(c.Request.Context(), lending)
	if err != nil {
		log.Warn("Could not load lent item for reminder", zap.String("lendingID", lending.ID.String()), zap.Error(err))
		itemName = "the borrowed item"
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), reminderTimeout)
	defer cancel()
	if err := notifications.SendLendingReminder(ctx, lending, itemName); err != nil {
		log.Error("Failed to email lending reminder", zap.String("lendingID", lending.ID.String()), zap.Error(err))
	}
	c.JSON(http.StatusOK, lending)
}

func DeleteLendingHandler(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := lendingService().Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "delete lending")
		return
	}
	c.Status(http.StatusNoContent)
}
