package services

import (
	"context"
	"fmt"

	"lifelog/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotebookInput struct {
	ParentID  *uuid.UUID `json:"parentId"`
	Name      string     `json:"name" binding:"required,max=255"`
	SortOrder int        `json:"sortOrder"`
}

type NotebookUpdate struct {
	ParentID   Optional[uuid.UUID] `json:"parentId"`
	Name       *string             `json:"name" binding:"omitempty,min=1,max=255"`
	SortOrder  *int                `json:"sortOrder"`
	IsArchived *bool               `json:"isArchived"`
}

type NotebookService struct {
	db  *gorm.DB
	now Clock
}

func NewNotebookService(db *gorm.DB, clock Clock) *NotebookService {
	if clock == nil {
		clock = SystemClock
	}
	return &NotebookService{db: db, now: clock}
}

func (s *NotebookService) find(ctx context.Context, userID uuid.UUID, scope func(*gorm.DB) *gorm.DB) ([]models.Notebook, error) {
	q := s.db.WithContext(ctx).Where("user_id = ? AND is_archived = ?", userID, false)
	if scope != nil {
		q = scope(q)
	}
	var notebooks []models.Notebook
	if err := q.Order("sort_order ASC, name ASC").Find(&notebooks).Error; err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}
	return notebooks, nil
}

func (s *NotebookService) List(ctx context.Context, userID uuid.UUID) ([]models.Notebook, error) {
	return s.find(ctx, userID, nil)
}

// Root lists top-level notebooks.
func (s *NotebookService) Root(ctx context.Context, userID uuid.UUID) ([]models.Notebook, error) {
	return s.find(ctx, userID, func(q *gorm.DB) *gorm.DB { return q.Where("parent_id IS NULL") })
}

func (s *NotebookService) Children(ctx context.Context, userID, parentID uuid.UUID) ([]models.Notebook, error) {
	return s.find(ctx, userID, func(q *gorm.DB) *gorm.DB { return q.Where("parent_id = ?", parentID) })
}

func (s *NotebookService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Notebook, error) {
	return findOwned[models.Notebook](ctx, s.db, id, userID)
}

func (s *NotebookService) Create(ctx context.Context, userID uuid.UUID, in NotebookInput) (*models.Notebook, error) {
	if err := ownsRow[models.Notebook](ctx, s.db, in.ParentID, userID); err != nil {
		return nil, err
	}
	notebook := &models.Notebook{
		UserID:    userID,
		ParentID:  in.ParentID,
		Name:      in.Name,
		SortOrder: in.SortOrder,
	}
	if err := s.db.WithContext(ctx).Create(notebook).Error; err != nil {
		return nil, fmt.Errorf("create notebook: %w", err)
	}
	return notebook, nil
}

func (s *NotebookService) Update(ctx context.Context, id, userID uuid.UUID, in NotebookUpdate) (*models.Notebook, error) {
	if in.ParentID.Set {
		if in.ParentID.Value != nil && *in.ParentID.Value == id {
			return nil, fmt.Errorf("%w: a notebook cannot be its own parent", ErrConflict)
		}
		if err := ownsRow[models.Notebook](ctx, s.db, in.ParentID.Value, userID); err != nil {
			return nil, err
		}
	}
	updates := map[string]interface{}{}
	setOptional(updates, "parent_id", in.ParentID)
	setIf(updates, "name", in.Name)
	setIf(updates, "sort_order", in.SortOrder)
	setIf(updates, "is_archived", in.IsArchived)
	return updateOwned[models.Notebook](ctx, s.db, id, userID, updates, s.now())
}

func (s *NotebookService) Archive(ctx context.Context, id, userID uuid.UUID) (*models.Notebook, error) {
	return updateOwned[models.Notebook](ctx, s.db, id, userID, map[string]interface{}{"is_archived": true}, s.now())
}

// Delete removes the notebook; its notes and child notebooks are detached, not deleted.
func (s *NotebookService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	now := s.now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Note{}).Where("notebook_id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{"notebook_id": nil, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Notebook{}).Where("parent_id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{"parent_id": nil, "updated_at": now}).Error; err != nil {
			return err
		}
		return deleteOwned[models.Notebook](ctx, tx, id, userID)
	})
}

// Reorder applies sort orders; a non-nil parentID also re-parents the listed notebooks.
func (s *NotebookService) Reorder(ctx context.Context, userID uuid.UUID, parentID *uuid.UUID, orders []SortOrder) error {
	if parentID == nil {
		return reorderOwned[models.Notebook](ctx, s.db, userID, orders, s.now())
	}
	if err := ownsRow[models.Notebook](ctx, s.db, parentID, userID); err != nil {
		return err
	}
	now := s.now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range orders {
			if o.ID == *parentID {
				continue
			}
			err := tx.Model(&models.Notebook{}).Where("id = ? AND user_id = ?", o.ID, userID).
				Updates(map[string]interface{}{"sort_order": o.SortOrder, "parent_id": *parentID, "updated_at": now}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
