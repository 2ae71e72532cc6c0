package services

import (
	"context"
	"fmt"

	"lifelog/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LocationInput struct {
	ParentID     *uuid.UUID `json:"parentId"`
	Name         string     `json:"name" binding:"required,max=255"`
	Description  string     `json:"description"`
	LocationType string     `json:"locationType" binding:"max=50"`
	SortOrder    int        `json:"sortOrder"`
}

type LocationUpdate struct {
	ParentID     Optional[uuid.UUID] `json:"parentId"`
	Name         *string             `json:"name" binding:"omitempty,min=1,max=255"`
	Description  *string             `json:"description"`
	LocationType *string             `json:"locationType" binding:"omitempty,max=50"`
	SortOrder    *int                `json:"sortOrder"`
	IsArchived   *bool               `json:"isArchived"`
}

type LocationService struct {
	db  *gorm.DB
	now Clock
}

func NewLocationService(db *gorm.DB, clock Clock) *LocationService {
	if clock == nil {
		clock = SystemClock
	}
	return &LocationService{db: db, now: clock}
}

func (s *LocationService) find(ctx context.Context, userID uuid.UUID, scope func(*gorm.DB) *gorm.DB) ([]models.Location, error) {
	q := s.db.WithContext(ctx).Where("user_id = ? AND is_archived = ?", userID, false)
	if scope != nil {
		q = scope(q)
	}
	var locations []models.Location
	if err := q.Order("sort_order ASC, name ASC").Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

// List returns active locations, optionally of one locationType.
func (s *LocationService) List(ctx context.Context, userID uuid.UUID, locationType string) ([]models.Location, error) {
	if locationType == "" {
		return s.find(ctx, userID, nil)
	}
	return s.find(ctx, userID, func(q *gorm.DB) *gorm.DB { return q.Where("location_type = ?", locationType) })
}

func (s *LocationService) Root(ctx context.Context, userID uuid.UUID) ([]models.Location, error) {
	return s.find(ctx, userID, func(q *gorm.DB) *gorm.DB { return q.Where("parent_id IS NULL") })
}

func (s *LocationService) Children(ctx context.Context, userID, parentID uuid.UUID) ([]models.Location, error) {
	return s.find(ctx, userID, func(q *gorm.DB) *gorm.DB { return q.Where("parent_id = ?", parentID) })
}

func (s *LocationService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Location, error) {
	return findOwned[models.Location](ctx, s.db, id, userID)
}

func (s *LocationService) Create(ctx context.Context, userID uuid.UUID, in LocationInput) (*models.Location, error) {
	if err := ownsRow[models.Location](ctx, s.db, in.ParentID, userID); err != nil {
		return nil, err
	}
	location := &models.Location{
		UserID:       userID,
		ParentID:     in.ParentID,
		Name:         in.Name,
		Description:  in.Description,
		LocationType: in.LocationType,
		SortOrder:    in.SortOrder,
	}
	if err := s.db.WithContext(ctx).Create(location).Error; err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	return location, nil
}

func (s *LocationService) Update(ctx context.Context, id, userID uuid.UUID, in LocationUpdate) (*models.Location, error) {
	if in.ParentID.Set {
		if in.ParentID.Value != nil && *in.ParentID.Value == id {
			return nil, fmt.Errorf("%w: a location cannot contain itself", ErrConflict)
		}
		if err := ownsRow[models.Location](ctx, s.db, in.ParentID.Value, userID); err != nil {
			return nil, err
		}
	}
	updates := map[string]interface{}{}
	setOptional(updates, "parent_id", in.ParentID)
	setIf(updates, "name", in.Name)
	setIf(updates, "description", in.Description)
	setIf(updates, "location_type", in.LocationType)
	setIf(updates, "sort_order", in.SortOrder)
	setIf(updates, "is_archived", in.IsArchived)
	return updateOwned[models.Location](ctx, s.db, id, userID, updates, s.now())
}

func (s *LocationService) Archive(ctx context.Context, id, userID uuid.UUID) (*models.Location, error) {
	return updateOwned[models.Location](ctx, s.db, id, userID, map[string]interface{}{"is_archived": true}, s.now())
}

// Delete removes the location; items and sub-locations in it lose their location.
func (s *LocationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	now := s.now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Item{}).Where("location_id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{"location_id": nil, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Location{}).Where("parent_id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{"parent_id": nil, "updated_at": now}).Error; err != nil {
			return err
		}
		return deleteOwned[models.Location](ctx, tx, id, userID)
	})
}

func (s *LocationService) Reorder(ctx context.Context, userID uuid.UUID, orders []SortOrder) error {
	return reorderOwned[models.Location](ctx, s.db, userID, orders, s.now())
}
