package services

import (
	"context"
	"fmt"
	"time"

	"lifelog/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultExpiringDays   = 30
	DefaultAccessLogLimit = 50
)

// RequestMeta carries caller details recorded in access logs.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type VaultCategoryInput struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
	Icon        string `json:"icon" binding:"max=50"`
	SortOrder   int    `json:"sortOrder"`
}

type VaultCategoryUpdate struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Color       *string `json:"color" binding:"omitempty,hexcolor"`
	Icon        *string `json:"icon" binding:"omitempty,max=50"`
	SortOrder   *int    `json:"sortOrder"`
	IsArchived  *bool   `json:"isArchived"`
}

type VaultCategoryService struct {
	db  *gorm.DB
	now Clock
}

func NewVaultCategoryService(db *gorm.DB, clock Clock) *VaultCategoryService {
	if clock == nil {
		clock = SystemClock
	}
	return &VaultCategoryService{db: db, now: clock}
}

func (s *VaultCategoryService) List(ctx context.Context, userID uuid.UUID) ([]models.VaultCategory, error) {
	var categories []models.VaultCategory
	err := s.db.WithContext(ctx).Where("user_id = ? AND is_archived = ?", userID, false).
		Order("sort_order ASC, name ASC").Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list vault categories: %w", err)
	}
	return categories, nil
}

func (s *VaultCategoryService) Get(ctx context.Context, id, userID uuid.UUID) (*models.VaultCategory, error) {
	return findOwned[models.VaultCategory](ctx, s.db, id, userID)
}

func (s *VaultCategoryService) Create(ctx context.Context, userID uuid.UUID, in VaultCategoryInput) (*models.VaultCategory, error) {
	category := &models.VaultCategory{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
		SortOrder:   in.SortOrder,
	}
	if category.Color == "" {
		category.Color = models.DefaultColor
	}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, fmt.Errorf("create vault category: %w", err)
	}
	return category, nil
}

func (s *VaultCategoryService) Update(ctx context.Context, id, userID uuid.UUID, in VaultCategoryUpdate) (*models.VaultCategory, error) {
	updates := map[string]interface{}{}
	setIf(updates, "name", in.Name)
	setIf(updates, "description", in.Description)
	setIf(updates, "color", in.Color)
	setIf(updates, "icon", in.Icon)
	setIf(updates, "sort_order", in.SortOrder)
	setIf(updates, "is_archived", in.IsArchived)
	return updateOwned[models.VaultCategory](ctx, s.db, id, userID, updates, s.now())
}

func (s *VaultCategoryService) Archive(ctx context.Context, id, userID uuid.UUID) (*models.VaultCategory, error) {
	return updateOwned[models.VaultCategory](ctx, s.db, id, userID, map[string]interface{}{"is_archived": true}, s.now())
}

// Delete removes the category; its items become uncategorised.
func (s *VaultCategoryService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.VaultItem{}).Where("category_id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{"category_id": nil, "updated_at": s.now()}).Error; err != nil {
			return err
		}
		return deleteOwned[models.VaultCategory](ctx, tx, id, userID)
	})
}

func (s *VaultCategoryService) Reorder(ctx context.Context, userID uuid.UUID, orders []SortOrder) error {
	return reorderOwned[models.VaultCategory](ctx, s.db, userID, orders, s.now())
}

type VaultItemInput struct {
	CategoryID      *uuid.UUID           `json:"categoryId"`
	Type            models.VaultItemType `json:"type" binding:"required,oneof=password note card identity other"`
	Name            string               `json:"name" binding:"required,max=255"`
	Website         string               `json:"website" binding:"max=500"`
	Username        string               `json:"username" binding:"max=255"`
	Email           string               `json:"email" binding:"omitempty,email,max=255"`
	Notes           string               `json:"notes"`
	EncryptedData   string               `json:"encryptedData"`
	EncryptionKeyID string               `json:"encryptionKeyId" binding:"max=255"`
	IsFavorite      bool                 `json:"isFavorite"`
	ExpiresAt       *time.Time           `json:"expiresAt"`
}

type VaultItemUpdate struct {
	CategoryID      Optional[uuid.UUID]   `json:"categoryId"`
	Type            *models.VaultItemType `json:"type" binding:"omitempty,oneof=password note card identity other"`
	Name            *string               `json:"name" binding:"omitempty,min=1,max=255"`
	Website         *string               `json:"website" binding:"omitempty,max=500"`
	Username        *string               `json:"username" binding:"omitempty,max=255"`
	Email           *string               `json:"email" binding:"omitempty,max=255"`
	Notes           *string               `json:"notes"`
	EncryptedData   *string               `json:"encryptedData"`
	EncryptionKeyID *string               `json:"encryptionKeyId" binding:"omitempty,max=255"`
	IsFavorite      *bool                 `json:"isFavorite"`
	ExpiresAt       Optional[time.Time]   `json:"expiresAt"`
}

type VaultItemFilter struct {
	CategoryID *uuid.UUID
	Type       models.VaultItemType
	Search     string
}

type VaultItemService struct {
	db  *gorm.DB
	now Clock
}

func NewVaultItemService(db *gorm.DB, clock Clock) *VaultItemService {
	if clock == nil {
		clock = SystemClock
	}
	return &VaultItemService{db: db, now: clock}
}

func (s *VaultItemService) active(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return s.db.WithContext(ctx).Where("user_id = ? AND is_archived = ?", userID, false)
}

func (s *VaultItemService) List(ctx context.Context, userID uuid.UUID, f VaultItemFilter) ([]models.VaultItem, error) {
	q := s.active(ctx, userID)
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", string(f.Type))
	}
	if f.Search != "" {
		q = q.Where(searchClause("name", "website", "username", "email"), repeatArg(likePattern(f.Search), 4)...)
	}
	var items []models.VaultItem
	if err := q.Order("name ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list vault items: %w", err)
	}
	return items, nil
}

func (s *VaultItemService) Favorites(ctx context.Context, userID uuid.UUID) ([]models.VaultItem, error) {
	var items []models.VaultItem
	if err := s.active(ctx, userID).Where("is_favorite = ?", true).Order("name ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list favourite vault items: %w", err)
	}
	return items, nil
}

// Expiring lists items whose expiresAt falls within the next days days.
func (s *VaultItemService) Expiring(ctx context.Context, userID uuid.UUID, days int) ([]models.VaultItem, error) {
	if days <= 0 {
		days = DefaultExpiringDays
	}
	now := s.now()
	var items []models.VaultItem
	err := s.active(ctx, userID).
		Where("expires_at IS NOT NULL AND expires_at >= ? AND expires_at <= ?", now, now.AddDate(0, 0, days)).
		Order("expires_at ASC").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list expiring vault items: %w", err)
	}
	return items, nil
}

// Get returns the item, bumping accessCount and logging a view.
func (s *VaultItemService) Get(ctx context.Context, id, userID uuid.UUID, meta RequestMeta) (*models.VaultItem, error) {
	var item *models.VaultItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		res := tx.Model(&models.VaultItem{}).Where("id = ? AND user_id = ?", id, userID).
			UpdateColumns(map[string]interface{}{
				"access_count":     gorm.Expr("access_count + 1"),
				"last_accessed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := s.logAccess(tx, userID, id, models.AccessView, meta); err != nil {
			return err
		}
		var err error
		item, err = findOwned[models.VaultItem](ctx, tx, id, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *VaultItemService) Create(ctx context.Context, userID uuid.UUID, in VaultItemInput, meta RequestMeta) (*models.VaultItem, error) {
	if err := ownsRow[models.VaultCategory](ctx, s.db, in.CategoryID, userID); err != nil {
		return nil, err
	}
	item := &models.VaultItem{
		UserID:          userID,
		CategoryID:      in.CategoryID,
		Type:            in.Type,
		Name:            in.Name,
		Website:         in.Website,
		Username:        in.Username,
		Email:           in.Email,
		Notes:           in.Notes,
		EncryptedData:   in.EncryptedData,
		EncryptionKeyID: in.EncryptionKeyID,
		IsFavorite:      in.IsFavorite,
		ExpiresAt:       in.ExpiresAt,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("create vault item: %w", err)
		}
		return s.logAccess(tx, userID, item.ID, models.AccessCreate, meta)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *VaultItemService) Update(ctx context.Context, id, userID uuid.UUID, in VaultItemUpdate, meta RequestMeta) (*models.VaultItem, error) {
	if in.CategoryID.Set {
		if err := ownsRow[models.VaultCategory](ctx, s.db, in.CategoryID.Value, userID); err != nil {
			return nil, err
		}
	}
	updates := map[string]interface{}{}
	setOptional(updates, "category_id", in.CategoryID)
	setIf(updates, "type", in.Type)
	setIf(updates, "name", in.Name)
	setIf(updates, "website", in.Website)
	setIf(updates, "username", in.Username)
	setIf(updates, "email", in.Email)
	setIf(updates, "notes", in.Notes)
	setIf(updates, "encrypted_data", in.EncryptedData)
	setIf(updates, "encryption_key_id", in.EncryptionKeyID)
	setIf(updates, "is_favorite", in.IsFavorite)
	setOptional(updates, "expires_at", in.ExpiresAt)
	return s.mutate(ctx, id, userID, updates, models.AccessEdit, meta)
}

func (s *VaultItemService) ToggleFavorite(ctx context.Context, id, userID uuid.UUID) (*models.VaultItem, error) {
	return toggleOwned[models.VaultItem](ctx, s.db, id, userID, "is_favorite", s.now())
}

func (s *VaultItemService) Archive(ctx context.Context, id, userID uuid.UUID, meta RequestMeta) (*models.VaultItem, error) {
	return s.mutate(ctx, id, userID, map[string]interface{}{"is_archived": true}, models.AccessArchive, meta)
}

// Delete removes the item. The delete is logged before the row goes so the log keeps the id.
func (s *VaultItemService) Delete(ctx context.Context, id, userID uuid.UUID, meta RequestMeta) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findOwned[models.VaultItem](ctx, tx, id, userID); err != nil {
			return err
		}
		if err := s.logAccess(tx, userID, id, models.AccessDelete, meta); err != nil {
			return err
		}
		return deleteOwned[models.VaultItem](ctx, tx, id, userID)
	})
}

func (s *VaultItemService) AccessLog(ctx context.Context, id, userID uuid.UUID, limit int) ([]models.VaultAccessLog, error) {
	if limit <= 0 {
		limit = DefaultAccessLogLimit
	}
	if err := ownsRow[models.VaultItem](ctx, s.db, &id, userID); err != nil {
		return nil, err
	}
	var logs []models.VaultAccessLog
	err := s.db.WithContext(ctx).Where("vault_item_id = ? AND user_id = ?", id, userID).
		Order("created_at DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list vault access log: %w", err)
	}
	return logs, nil
}

func (s *VaultItemService) mutate(ctx context.Context, id, userID uuid.UUID, updates map[string]interface{}, action models.AccessAction, meta RequestMeta) (*models.VaultItem, error) {
	var item *models.VaultItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if item, err = updateOwned[models.VaultItem](ctx, tx, id, userID, updates, s.now()); err != nil {
			return err
		}
		return s.logAccess(tx, userID, id, action, meta)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *VaultItemService) logAccess(tx *gorm.DB, userID, itemID uuid.UUID, action models.AccessAction, meta RequestMeta) error {
	entry := &models.VaultAccessLog{
		UserID:      userID,
		VaultItemID: itemID,
		Action:      action,
		Success:     true,
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
		CreatedAt:   s.now(),
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("write vault access log: %w", err)
	}
	return nil
}
