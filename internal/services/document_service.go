package services

import (
	"context"
	"fmt"
	"time"

	"lifelog/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentCategoryInput struct {
	ParentID    *uuid.UUID `json:"parentId"`
	Name        string     `json:"name" binding:"required,max=255"`
	Description string     `json:"description"`
	Color       string     `json:"color" binding:"omitempty,hexcolor"`
	SortOrder   int        `json:"sortOrder"`
}

type DocumentCategoryUpdate struct {
	ParentID    Optional[uuid.UUID] `json:"parentId"`
	Name        *string             `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string             `json:"description"`
	Color       *string             `json:"color" binding:"omitempty,hexcolor"`
	SortOrder   *int                `json:"sortOrder"`
	IsArchived  *bool               `json:"isArchived"`
}

type DocumentCategoryService struct {
	db  *gorm.DB
	now Clock
}

func NewDocumentCategoryService(db *gorm.DB, clock Clock) *DocumentCategoryService {
	if clock == nil {
		clock = SystemClock
	}
	return &DocumentCategoryService{db: db, now: clock}
}

func (s *DocumentCategoryService) find(ctx context.Context, userID uuid.UUID, scope func(*gorm.DB) *gorm.DB) ([]models.DocumentCategory, error) {
	q := s.db.WithContext(ctx).Where("user_id = ? AND is_archived = ?", userID, false)
	if scope != nil {
		q = scope(q)
	}
	var categories []models.DocumentCategory
	if err := q.Order("sort_order ASC, name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list document categories: %w", err)
	}
	return categories, nil
}

func (s *DocumentCategoryService) List(ctx context.Context, userID uuid.UUID) ([]models.DocumentCategory, error) {
	return s.find(ctx, userID, nil)
}

func (s *DocumentCategoryService) Root(ctx context.Context, userID uuid.UUID) ([]models.DocumentCategory, error) {
	return s.find(ctx, userID, func(q *gorm.DB) *gorm.DB { return q.Where("parent_id IS NULL") })
}

func (s *DocumentCategoryService) Children(ctx context.Context, userID, parentID uuid.UUID) ([]models.DocumentCategory, error) {
	return s.find(ctx, userID, func(q *gorm.DB) *gorm.DB { return q.Where("parent_id = ?", parentID) })
}

func (s *DocumentCategoryService) Get(ctx context.Context, id, userID uuid.UUID) (*models.DocumentCategory, error) {
	return findOwned[models.DocumentCategory](ctx, s.db, id, userID)
}

func (s *DocumentCategoryService) Create(ctx context.Context, userID uuid.UUID, in DocumentCategoryInput) (*models.DocumentCategory, error) {
	if err := ownsRow[models.DocumentCategory](ctx, s.db, in.ParentID, userID); err != nil {
		return nil, err
	}
	category := &models.DocumentCategory{
		UserID:      userID,
		ParentID:    in.ParentID,
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		SortOrder:   in.SortOrder,
	}
	if category.Color == "" {
		category.Color = models.DefaultColor
	}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, fmt.Errorf("create document category: %w", err)
	}
	return category, nil
}

func (s *DocumentCategoryService) Update(ctx context.Context, id, userID uuid.UUID, in DocumentCategoryUpdate) (*models.DocumentCategory, error) {
	if in.ParentID.Set {
		if in.ParentID.Value != nil && *in.ParentID.Value == id {
			return nil, fmt.Errorf("%w: a category cannot be its own parent", ErrConflict)
		}
		if err := ownsRow[models.DocumentCategory](ctx, s.db, in.ParentID.Value, userID); err != nil {
			return nil, err
		}
	}
	updates := map[string]interface{}{}
	setOptional(updates, "parent_id", in.ParentID)
	setIf(updates, "name", in.Name)
	setIf(updates, "description", in.Description)
	setIf(updates, "color", in.Color)
	setIf(updates, "sort_order", in.SortOrder)
	setIf(updates, "is_archived", in.IsArchived)
	return updateOwned[models.DocumentCategory](ctx, s.db, id, userID, updates, s.now())
}

func (s *DocumentCategoryService) Archive(ctx context.Context, id, userID uuid.UUID) (*models.DocumentCategory, error) {
	return updateOwned[models.DocumentCategory](ctx, s.db, id, userID, map[string]interface{}{"is_archived": true}, s.now())
}

func (s *DocumentCategoryService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	now := s.now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Document{}).Where("category_id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{"category_id": nil, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.DocumentCategory{}).Where("parent_id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{"parent_id": nil, "updated_at": now}).Error; err != nil {
			return err
		}
		return deleteOwned[models.DocumentCategory](ctx, tx, id, userID)
	})
}

func (s *DocumentCategoryService) Reorder(ctx context.Context, userID uuid.UUID, orders []SortOrder) error {
	return reorderOwned[models.DocumentCategory](ctx, s.db, userID, orders, s.now())
}

type DocumentInput struct {
	CategoryID     *uuid.UUID `json:"categoryId"`
	DocumentType   string     `json:"documentType" binding:"max=50"`
	Title          string     `json:"title" binding:"required,max=500"`
	Description    string     `json:"description"`
	FileName       string     `json:"fileName" binding:"max=500"`
	FileSize       int64      `json:"fileSize" binding:"min=0"`
	MimeType       string     `json:"mimeType" binding:"max=255"`
	StoragePath    string     `json:"storagePath" binding:"max=1000"`
	ExtractedText  string     `json:"extractedText"`
	IsFavorite     bool       `json:"isFavorite"`
	IsImportant    bool       `json:"isImportant"`
	ExpirationDate *time.Time `json:"expirationDate"`
}

type DocumentUpdate struct {
	CategoryID     Optional[uuid.UUID] `json:"categoryId"`
	DocumentType   *string             `json:"documentType" binding:"omitempty,max=50"`
	Title          *string             `json:"title" binding:"omitempty,min=1,max=500"`
	Description    *string             `json:"description"`
	FileName       *string             `json:"fileName" binding:"omitempty,max=500"`
	FileSize       *int64              `json:"fileSize" binding:"omitempty,min=0"`
	MimeType       *string             `json:"mimeType" binding:"omitempty,max=255"`
	StoragePath    *string             `json:"storagePath" binding:"omitempty,max=1000"`
	ExtractedText  *string             `json:"extractedText"`
	IsFavorite     *bool               `json:"isFavorite"`
	IsImportant    *bool               `json:"isImportant"`
	ExpirationDate Optional[time.Time] `json:"expirationDate"`
}

type DocumentFilter struct {
	CategoryID   *uuid.UUID
	DocumentType string
	Search       string
}

type DocumentService struct {
	db  *gorm.DB
	now Clock
}

func NewDocumentService(db *gorm.DB, clock Clock) *DocumentService {
	if clock == nil {
		clock = SystemClock
	}
	return &DocumentService{db: db, now: clock}
}

func (s *DocumentService) active(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return s.db.WithContext(ctx).Where("user_id = ? AND is_archived = ?", userID, false)
}

func (s *DocumentService) find(q *gorm.DB) ([]models.Document, error) {
	var docs []models.Document
	if err := q.Order("updated_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (s *DocumentService) List(ctx context.Context, userID uuid.UUID, f DocumentFilter) ([]models.Document, error) {
	q := s.active(ctx, userID)
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.DocumentType != "" {
		q = q.Where("document_type = ?", f.DocumentType)
	}
	if f.Search != "" {
		q = q.Where(searchClause("title", "description", "file_name", "extracted_text"), repeatArg(likePattern(f.Search), 4)...)
	}
	return s.find(q)
}

func (s *DocumentService) Favorites(ctx context.Context, userID uuid.UUID) ([]models.Document, error) {
	return s.find(s.active(ctx, userID).Where("is_favorite = ?", true))
}

func (s *DocumentService) Important(ctx context.Context, userID uuid.UUID) ([]models.Document, error) {
	return s.find(s.active(ctx, userID).Where("is_important = ?", true))
}

// Expiring lists documents whose expiration date falls within the next days days.
func (s *DocumentService) Expiring(ctx context.Context, userID uuid.UUID, days int) ([]models.Document, error) {
	if days <= 0 {
		days = DefaultExpiringDays
	}
	now := s.now()
	var docs []models.Document
	err := s.active(ctx, userID).
		Where("expiration_date IS NOT NULL AND expiration_date >= ? AND expiration_date <= ?", now, now.AddDate(0, 0, days)).
		Order("expiration_date ASC").Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list expiring documents: %w", err)
	}
	return docs, nil
}

// Get returns the document and logs a view.
func (s *DocumentService) Get(ctx context.Context, id, userID uuid.UUID, meta RequestMeta) (*models.Document, error) {
	return s.touch(ctx, id, userID, "view_count", models.AccessView, meta)
}

// Download logs a download and returns the metadata holding storagePath.
func (s *DocumentService) Download(ctx context.Context, id, userID uuid.UUID, meta RequestMeta) (*models.Document, error) {
	return s.touch(ctx, id, userID, "download_count", models.AccessDownload, meta)
}

func (s *DocumentService) touch(ctx context.Context, id, userID uuid.UUID, counter string, action models.AccessAction, meta RequestMeta) (*models.Document, error) {
	var doc *models.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Document{}).Where("id = ? AND user_id = ?", id, userID).
			UpdateColumns(map[string]interface{}{
				counter:            gorm.Expr(counter + " + 1"),
				"last_accessed_at": s.now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := s.logAccess(tx, userID, id, action, meta); err != nil {
			return err
		}
		var err error
		doc, err = findOwned[models.Document](ctx, tx, id, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) Create(ctx context.Context, userID uuid.UUID, in DocumentInput, meta RequestMeta) (*models.Document, error) {
	if err := ownsRow[models.DocumentCategory](ctx, s.db, in.CategoryID, userID); err != nil {
		return nil, err
	}
	doc := &models.Document{
		UserID:         userID,
		CategoryID:     in.CategoryID,
		DocumentType:   in.DocumentType,
		Title:          in.Title,
		Description:    in.Description,
		FileName:       in.FileName,
		FileSize:       in.FileSize,
		MimeType:       in.MimeType,
		StoragePath:    in.StoragePath,
		ExtractedText:  in.ExtractedText,
		IsFavorite:     in.IsFavorite,
		IsImportant:    in.IsImportant,
		Version:        1,
		ExpirationDate: in.ExpirationDate,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		return s.logAccess(tx, userID, doc.ID, models.AccessCreate, meta)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Update applies changes; replacing the file (path or name) bumps the version.
func (s *DocumentService) Update(ctx context.Context, id, userID uuid.UUID, in DocumentUpdate, meta RequestMeta) (*models.Document, error) {
	if in.CategoryID.Set {
		if err := ownsRow[models.DocumentCategory](ctx, s.db, in.CategoryID.Value, userID); err != nil {
			return nil, err
		}
	}
	var doc *models.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findOwned[models.Document](ctx, tx, id, userID)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{}
		setOptional(updates, "category_id", in.CategoryID)
		setIf(updates, "document_type", in.DocumentType)
		setIf(updates, "title", in.Title)
		setIf(updates, "description", in.Description)
		setIf(updates, "file_name", in.FileName)
		setIf(updates, "file_size", in.FileSize)
		setIf(updates, "mime_type", in.MimeType)
		setIf(updates, "storage_path", in.StoragePath)
		setIf(updates, "extracted_text", in.ExtractedText)
		setIf(updates, "is_favorite", in.IsFavorite)
		setIf(updates, "is_important", in.IsImportant)
		setOptional(updates, "expiration_date", in.ExpirationDate)
		if (in.StoragePath != nil && *in.StoragePath != current.StoragePath) ||
			(in.FileName != nil && *in.FileName != current.FileName) {
			updates["version"] = current.Version + 1
		}
		if doc, err = updateOwned[models.Document](ctx, tx, id, userID, updates, s.now()); err != nil {
			return err
		}
		return s.logAccess(tx, userID, id, models.AccessEdit, meta)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) ToggleFavorite(ctx context.Context, id, userID uuid.UUID) (*models.Document, error) {
	return toggleOwned[models.Document](ctx, s.db, id, userID, "is_favorite", s.now())
}

func (s *DocumentService) ToggleImportant(ctx context.Context, id, userID uuid.UUID) (*models.Document, error) {
	return toggleOwned[models.Document](ctx, s.db, id, userID, "is_important", s.now())
}

func (s *DocumentService) Archive(ctx context.Context, id, userID uuid.UUID, meta RequestMeta) (*models.Document, error) {
	var doc *models.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if doc, err = updateOwned[models.Document](ctx, tx, id, userID, map[string]interface{}{"is_archived": true}, s.now()); err != nil {
			return err
		}
		return s.logAccess(tx, userID, id, models.AccessArchive, meta)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) Delete(ctx context.Context, id, userID uuid.UUID, meta RequestMeta) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findOwned[models.Document](ctx, tx, id, userID); err != nil {
			return err
		}
		if err := s.logAccess(tx, userID, id, models.AccessDelete, meta); err != nil {
			return err
		}
		return deleteOwned[models.Document](ctx, tx, id, userID)
	})
}

func (s *DocumentService) AccessLog(ctx context.Context, id, userID uuid.UUID, limit int) ([]models.DocumentAccessLog, error) {
	if limit <= 0 {
		limit = DefaultAccessLogLimit
	}
	if err := ownsRow[models.Document](ctx, s.db, &id, userID); err != nil {
		return nil, err
	}
	var logs []models.DocumentAccessLog
	err := s.db.WithContext(ctx).Where("document_id = ? AND user_id = ?", id, userID).
		Order("created_at DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list document access log: %w", err)
	}
	return logs, nil
}

func (s *DocumentService) logAccess(tx *gorm.DB, userID, docID uuid.UUID, action models.AccessAction, meta RequestMeta) error {
	entry := &models.DocumentAccessLog{
		UserID:     userID,
		DocumentID: docID,
		Action:     action,
		Success:    true,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		CreatedAt:  s.now(),
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("write document access log: %w", err)
	}
	return nil
}
