package services

import (
	"context"
	"fmt"
	"time"

	"lifelog/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultHistoryLimit = 50

type ItemInput struct {
	LocationID          *uuid.UUID `json:"locationId"`
	Name                string     `json:"name" binding:"required,max=255"`
	Description         string     `json:"description"`
	Brand               string     `json:"brand" binding:"max=255"`
	Model               string     `json:"model" binding:"max=255"`
	SerialNumber        string     `json:"serialNumber" binding:"max=255"`
	Barcode             string     `json:"barcode" binding:"max=255"`
	CustomID            string     `json:"customId" binding:"max=255"`
	Category            string     `json:"category" binding:"max=100"`
	Notes               string     `json:"notes"`
	SearchKeywords      string     `json:"searchKeywords"`
	PurchaseDate        *time.Time `json:"purchaseDate"`
	PurchasePrice       *int64     `json:"purchasePrice" binding:"omitempty,min=0"`
	WarrantyExpiresAt   *time.Time `json:"warrantyExpiresAt"`
	NextMaintenanceDate *time.Time `json:"nextMaintenanceDate"`
	IsFavorite          bool       `json:"isFavorite"`
}

// ItemUpdate cannot change locationId; use Move so the history stays complete.
type ItemUpdate struct {
	Name                *string             `json:"name" binding:"omitempty,min=1,max=255"`
	Description         *string             `json:"description"`
	Brand               *string             `json:"brand" binding:"omitempty,max=255"`
	Model               *string             `json:"model" binding:"omitempty,max=255"`
	SerialNumber        *string             `json:"serialNumber" binding:"omitempty,max=255"`
	Barcode             *string             `json:"barcode" binding:"omitempty,max=255"`
	CustomID            *string             `json:"customId" binding:"omitempty,max=255"`
	Category            *string             `json:"category" binding:"omitempty,max=100"`
	Notes               *string             `json:"notes"`
	SearchKeywords      *string             `json:"searchKeywords"`
	PurchaseDate        Optional[time.Time] `json:"purchaseDate"`
	PurchasePrice       Optional[int64]     `json:"purchasePrice"`
	WarrantyExpiresAt   Optional[time.Time] `json:"warrantyExpiresAt"`
	NextMaintenanceDate Optional[time.Time] `json:"nextMaintenanceDate"`
	IsFavorite          *bool               `json:"isFavorite"`
}

type ItemFilter struct {
	LocationID *uuid.UUID
	Category   string
	Search     string
}

type MoveInput struct {
	LocationID *uuid.UUID `json:"locationId"`
	Reason     string     `json:"reason" binding:"max=100"`
	Notes      string     `json:"notes"`
}

type MaintenanceInput struct {
	MaintenanceType string     `json:"maintenanceType" binding:"required,max=100"`
	Description     string     `json:"description"`
	Cost            *int64     `json:"cost" binding:"omitempty,min=0"`
	PerformedBy     string     `json:"performedBy" binding:"max=255"`
	PerformedDate   *time.Time `json:"performedDate"`
	NextDueDate     *time.Time `json:"nextDueDate"`
}

type ItemService struct {
	db  *gorm.DB
	now Clock
}

func NewItemService(db *gorm.DB, clock Clock) *ItemService {
	if clock == nil {
		clock = SystemClock
	}
	return &ItemService{db: db, now: clock}
}

func (s *ItemService) active(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return s.db.WithContext(ctx).Where("user_id = ? AND is_archived = ?", userID, false)
}

func (s *ItemService) find(q *gorm.DB, order string) ([]models.Item, error) {
	var items []models.Item
	if err := q.Order(order).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (s *ItemService) List(ctx context.Context, userID uuid.UUID, f ItemFilter) ([]models.Item, error) {
	q := s.active(ctx, userID)
	if f.LocationID != nil {
		q = q.Where("location_id = ?", *f.LocationID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		cols := []string{"name", "description", "brand", "model", "serial_number", "barcode", "custom_id", "notes", "search_keywords"}
		q = q.Where(searchClause(cols...), repeatArg(likePattern(f.Search), len(cols))...)
	}
	return s.find(q, "updated_at DESC")
}

func (s *ItemService) flagged(ctx context.Context, userID uuid.UUID, column string) ([]models.Item, error) {
	return s.find(s.active(ctx, userID).Where(column+" = ?", true), "updated_at DESC")
}

func (s *ItemService) Favorites(ctx context.Context, userID uuid.UUID) ([]models.Item, error) {
	return s.flagged(ctx, userID, "is_favorite")
}

func (s *ItemService) Lost(ctx context.Context, userID uuid.UUID) ([]models.Item, error) {
	return s.flagged(ctx, userID, "is_lost")
}

func (s *ItemService) Broken(ctx context.Context, userID uuid.UUID) ([]models.Item, error) {
	return s.flagged(ctx, userID, "is_broken")
}

func (s *ItemService) Lent(ctx context.Context, userID uuid.UUID) ([]models.Item, error) {
	return s.flagged(ctx, userID, "is_lent")
}

func (s *ItemService) ByBarcode(ctx context.Context, userID uuid.UUID, barcode string) (*models.Item, error) {
	return s.findBy(ctx, userID, "barcode", barcode)
}

func (s *ItemService) ByCustomID(ctx context.Context, userID uuid.UUID, customID string) (*models.Item, error) {
	return s.findBy(ctx, userID, "custom_id", customID)
}

func (s *ItemService) findBy(ctx context.Context, userID uuid.UUID, column, value string) (*models.Item, error) {
	if value == "" {
		return nil, ErrNotFound
	}
	var item models.Item
	if err := s.db.WithContext(ctx).Where("user_id = ? AND "+column+" = ?", userID, value).First(&item).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

// NeedingMaintenance lists items whose next maintenance is due.
func (s *ItemService) NeedingMaintenance(ctx context.Context, userID uuid.UUID) ([]models.Item, error) {
	q := s.active(ctx, userID).Where("next_maintenance_date IS NOT NULL AND next_maintenance_date <= ?", s.now())
	return s.find(q, "next_maintenance_date ASC")
}

// WarrantyExpiring lists items whose warranty ends within days days.
func (s *ItemService) WarrantyExpiring(ctx context.Context, userID uuid.UUID, days int) ([]models.Item, error) {
	if days <= 0 {
		days = DefaultExpiringDays
	}
	now := s.now()
	q := s.active(ctx, userID).
		Where("warranty_expires_at IS NOT NULL AND warranty_expires_at >= ? AND warranty_expires_at <= ?", now, now.AddDate(0, 0, days))
	return s.find(q, "warranty_expires_at ASC")
}

// Get returns the item and stamps lastUsedAt.
func (s *ItemService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Item, error) {
	res := s.db.WithContext(ctx).Model(&models.Item{}).Where("id = ? AND user_id = ?", id, userID).
		UpdateColumn("last_used_at", s.now())
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return findOwned[models.Item](ctx, s.db, id, userID)
}

func (s *ItemService) Create(ctx context.Context, userID uuid.UUID, in ItemInput) (*models.Item, error) {
	if err := ownsRow[models.Location](ctx, s.db, in.LocationID, userID); err != nil {
		return nil, err
	}
	item := &models.Item{
		UserID:              userID,
		LocationID:          in.LocationID,
		Name:                in.Name,
		Description:         in.Description,
		Brand:               in.Brand,
		Model:               in.Model,
		SerialNumber:        in.SerialNumber,
		Barcode:             in.Barcode,
		CustomID:            in.CustomID,
		Category:            in.Category,
		Notes:               in.Notes,
		SearchKeywords:      in.SearchKeywords,
		PurchaseDate:        in.PurchaseDate,
		PurchasePrice:       in.PurchasePrice,
		WarrantyExpiresAt:   in.WarrantyExpiresAt,
		NextMaintenanceDate: in.NextMaintenanceDate,
		IsFavorite:          in.IsFavorite,
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

func (s *ItemService) Update(ctx context.Context, id, userID uuid.UUID, in ItemUpdate) (*models.Item, error) {
	updates := map[string]interface{}{}
	setIf(updates, "name", in.Name)
	setIf(updates, "description", in.Description)
	setIf(updates, "brand", in.Brand)
	setIf(updates, "model", in.Model)
	setIf(updates, "serial_number", in.SerialNumber)
	setIf(updates, "barcode", in.Barcode)
	setIf(updates, "custom_id", in.CustomID)
	setIf(updates, "category", in.Category)
	setIf(updates, "notes", in.Notes)
	setIf(updates, "search_keywords", in.SearchKeywords)
	setOptional(updates, "purchase_date", in.PurchaseDate)
	setOptional(updates, "purchase_price", in.PurchasePrice)
	setOptional(updates, "warranty_expires_at", in.WarrantyExpiresAt)
	setOptional(updates, "next_maintenance_date", in.NextMaintenanceDate)
	setIf(updates, "is_favorite", in.IsFavorite)
	return updateOwned[models.Item](ctx, s.db, id, userID, updates, s.now())
}

// Move relocates the item and records the move in item_location_history.
func (s *ItemService) Move(ctx context.Context, id, userID uuid.UUID, in MoveInput) (*models.Item, error) {
	if err := ownsRow[models.Location](ctx, s.db, in.LocationID, userID); err != nil {
		return nil, err
	}
	reason := in.Reason
	if reason == "" {
		reason = models.DefaultMoveReason
	}
	var item *models.Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findOwned[models.Item](ctx, tx, id, userID)
		if err != nil {
			return err
		}
		now := s.now()
		var to interface{}
		if in.LocationID != nil {
			to = *in.LocationID
		}
		if item, err = updateOwned[models.Item](ctx, tx, id, userID, map[string]interface{}{"location_id": to}, now); err != nil {
			return err
		}
		history := &models.ItemLocationHistory{
			UserID:         userID,
			ItemID:         id,
			FromLocationID: current.LocationID,
			ToLocationID:   in.LocationID,
			Reason:         reason,
			Notes:          in.Notes,
			MovedBy:        userID,
			MovedDate:      now,
		}
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("record item move: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemService) LocationHistory(ctx context.Context, id, userID uuid.UUID, limit int) ([]models.ItemLocationHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if err := ownsRow[models.Item](ctx, s.db, &id, userID); err != nil {
		return nil, err
	}
	var history []models.ItemLocationHistory
	err := s.db.WithContext(ctx).Where("item_id = ? AND user_id = ?", id, userID).
		Order("moved_date DESC").Limit(limit).Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("list item location history: %w", err)
	}
	return history, nil
}

// RecordMaintenance stores a maintenance entry and carries its nextDueDate onto the item.
func (s *ItemService) RecordMaintenance(ctx context.Context, id, userID uuid.UUID, in MaintenanceInput) (*models.ItemMaintenanceHistory, error) {
	entry := &models.ItemMaintenanceHistory{
		UserID:          userID,
		ItemID:          id,
		MaintenanceType: in.MaintenanceType,
		Description:     in.Description,
		Cost:            in.Cost,
		PerformedBy:     in.PerformedBy,
		NextDueDate:     in.NextDueDate,
	}
	now := s.now()
	if in.PerformedDate != nil {
		entry.PerformedDate = in.PerformedDate.UTC()
	} else {
		entry.PerformedDate = now
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := updateOwned[models.Item](ctx, tx, id, userID,
			map[string]interface{}{"next_maintenance_date": in.NextDueDate}, now); err != nil {
			return err
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("record maintenance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *ItemService) MaintenanceHistory(ctx context.Context, id, userID uuid.UUID, limit int) ([]models.ItemMaintenanceHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if err := ownsRow[models.Item](ctx, s.db, &id, userID); err != nil {
		return nil, err
	}
	var history []models.ItemMaintenanceHistory
	err := s.db.WithContext(ctx).Where("item_id = ? AND user_id = ?", id, userID).
		Order("performed_date DESC").Limit(limit).Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("list maintenance history: %w", err)
	}
	return history, nil
}

func (s *ItemService) ToggleFavorite(ctx context.Context, id, userID uuid.UUID) (*models.Item, error) {
	return toggleOwned[models.Item](ctx, s.db, id, userID, "is_favorite", s.now())
}

func (s *ItemService) ToggleLost(ctx context.Context, id, userID uuid.UUID) (*models.Item, error) {
	return toggleOwned[models.Item](ctx, s.db, id, userID, "is_lost", s.now())
}

func (s *ItemService) ToggleBroken(ctx context.Context, id, userID uuid.UUID) (*models.Item, error) {
	return toggleOwned[models.Item](ctx, s.db, id, userID, "is_broken", s.now())
}

func (s *ItemService) Archive(ctx context.Context, id, userID uuid.UUID) (*models.Item, error) {
	return updateOwned[models.Item](ctx, s.db, id, userID, map[string]interface{}{"is_archived": true}, s.now())
}

func (s *ItemService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return deleteOwned[models.Item](ctx, s.db, id, userID)
}
