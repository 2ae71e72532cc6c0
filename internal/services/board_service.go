package services

import (
	"context"
	"fmt"

	"lifelog/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BoardInput struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
	SortOrder   int    `json:"sortOrder"`
}

type BoardUpdate struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Color       *string `json:"color" binding:"omitempty,hexcolor"`
	SortOrder   *int    `json:"sortOrder"`
	IsArchived  *bool   `json:"isArchived"`
}

type BoardService struct {
	db  *gorm.DB
	now Clock
}

func NewBoardService(db *gorm.DB, clock Clock) *BoardService {
	if clock == nil {
		clock = SystemClock
	}
	return &BoardService{db: db, now: clock}
}

// List returns the user's active boards in display order.
func (s *BoardService) List(ctx context.Context, userID uuid.UUID) ([]models.Board, error) {
	var boards []models.Board
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_archived = ?", userID, false).
		Order("sort_order ASC, created_at ASC").
		Find(&boards).Error
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return boards, nil
}

func (s *BoardService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Board, error) {
	return findOwned[models.Board](ctx, s.db, id, userID)
}

func (s *BoardService) Create(ctx context.Context, userID uuid.UUID, in BoardInput) (*models.Board, error) {
	board := &models.Board{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		SortOrder:   in.SortOrder,
	}
	if board.Color == "" {
		board.Color = models.DefaultColor
	}
	if err := s.db.WithContext(ctx).Create(board).Error; err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	return board, nil
}

func (s *BoardService) Update(ctx context.Context, id, userID uuid.UUID, in BoardUpdate) (*models.Board, error) {
	updates := map[string]interface{}{}
	setIf(updates, "name", in.Name)
	setIf(updates, "description", in.Description)
	setIf(updates, "color", in.Color)
	setIf(updates, "sort_order", in.SortOrder)
	setIf(updates, "is_archived", in.IsArchived)
	return updateOwned[models.Board](ctx, s.db, id, userID, updates, s.now())
}

func (s *BoardService) Archive(ctx context.Context, id, userID uuid.UUID) (*models.Board, error) {
	return updateOwned[models.Board](ctx, s.db, id, userID, map[string]interface{}{"is_archived": true}, s.now())
}

// Delete removes the board. Its tasks fall back to the inbox.
func (s *BoardService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).Where("board_id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{"board_id": nil, "updated_at": s.now()}).Error; err != nil {
			return err
		}
		return deleteOwned[models.Board](ctx, tx, id, userID)
	})
}

func (s *BoardService) Reorder(ctx context.Context, userID uuid.UUID, orders []SortOrder) error {
	return reorderOwned[models.Board](ctx, s.db, userID, orders, s.now())
}
