package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lifelog/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultPopularTags = 10

type TagInput struct {
	Name        string `json:"name" binding:"required,max=100"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
	Description string `json:"description"`
}

type TagUpdate struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Color       *string `json:"color" binding:"omitempty,hexcolor"`
	Description *string `json:"description"`
}

type TagService struct {
	db  *gorm.DB
	now Clock
}

func NewTagService(db *gorm.DB, clock Clock) *TagService {
	if clock == nil {
		clock = SystemClock
	}
	return &TagService{db: db, now: clock}
}

// WithTx returns a copy bound to tx.
func (s *TagService) WithTx(tx *gorm.DB) *TagService {
	return &TagService{db: tx, now: s.now}
}

// List returns the user's tags, most used first.
func (s *TagService) List(ctx context.Context, userID uuid.UUID, search string) ([]models.Tag, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if search != "" {
		q = q.Where(searchClause("name", "description"), repeatArg(likePattern(search), 2)...)
	}
	var tags []models.Tag
	if err := q.Order("usage_count DESC, name ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *TagService) Popular(ctx context.Context, userID uuid.UUID, limit int) ([]models.Tag, error) {
	if limit <= 0 {
		limit = DefaultPopularTags
	}
	var tags []models.Tag
	err := s.db.WithContext(ctx).Where("user_id = ? AND usage_count > 0", userID).
		Order("usage_count DESC, name ASC").Limit(limit).Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("list popular tags: %w", err)
	}
	return tags, nil
}

func (s *TagService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Tag, error) {
	return findOwned[models.Tag](ctx, s.db, id, userID)
}

func (s *TagService) GetByName(ctx context.Context, userID uuid.UUID, name string) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, name).First(&tag).Error; err != nil {
		return nil, notFound(err)
	}
	return &tag, nil
}

func (s *TagService) Create(ctx context.Context, userID uuid.UUID, in TagInput) (*models.Tag, error) {
	name := strings.TrimSpace(in.Name)
	if _, err := s.GetByName(ctx, userID, name); err == nil {
		return nil, fmt.Errorf("%w: tag %q already exists", ErrConflict, name)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	tag := &models.Tag{
		UserID:      userID,
		Name:        name,
		Color:       in.Color,
		Description: in.Description,
	}
	if tag.Color == "" {
		tag.Color = models.DefaultColor
	}
	if err := s.db.WithContext(ctx).Create(tag).Error; err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

func (s *TagService) Update(ctx context.Context, id, userID uuid.UUID, in TagUpdate) (*models.Tag, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		existing, err := s.GetByName(ctx, userID, name)
		if err == nil && existing.ID != id {
			return nil, fmt.Errorf("%w: tag %q already exists", ErrConflict, name)
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		updates["name"] = name
	}
	setIf(updates, "color", in.Color)
	setIf(updates, "description", in.Description)
	return updateOwned[models.Tag](ctx, s.db, id, userID, updates, s.now())
}

// Delete removes the tag and its note associations.
func (s *TagService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findOwned[models.Tag](ctx, tx, id, userID); err != nil {
			return err
		}
		if err := tx.Where("tag_id = ?", id).Delete(&models.NoteTag{}).Error; err != nil {
			return err
		}
		return deleteOwned[models.Tag](ctx, tx, id, userID)
	})
}

// FindOrCreate returns the user's tag called name, creating it with the default color.
func (s *TagService) FindOrCreate(ctx context.Context, userID uuid.UUID, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	tag, err := s.GetByName(ctx, userID, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	tag = &models.Tag{UserID: userID, Name: name, Color: models.DefaultColor}
	if err := s.db.WithContext(ctx).Create(tag).Error; err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

func (s *TagService) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.Tag{}).Where("id = ?", id).
		Updates(map[string]interface{}{"usage_count": gorm.Expr("usage_count + 1"), "updated_at": s.now()}).Error
}

// DecrementUsage lowers the usage count, never below zero.
func (s *TagService) DecrementUsage(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.Tag{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"usage_count": gorm.Expr("CASE WHEN usage_count > 0 THEN usage_count - 1 ELSE 0 END"),
			"updated_at":  s.now(),
		}).Error
}

// ForNote returns the tags attached to a note.
func (s *TagService) ForNote(ctx context.Context, noteID uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.WithContext(ctx).
		Joins("JOIN note_tags ON note_tags.tag_id = tags.id").
		Where("note_tags.note_id = ?", noteID).
		Order("tags.name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("list note tags: %w", err)
	}
	return tags, nil
}
