package services

import (
	"context"
	"fmt"
	"strings"

	"lifelog/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	wordsPerMinute = 200
	excerptLength  = 200
)

type NoteInput struct {
	NotebookID *uuid.UUID `json:"notebookId"`
	Title      string     `json:"title" binding:"required,max=500"`
	Content    string     `json:"content"`
	Excerpt    string     `json:"excerpt"`
	IsFavorite bool       `json:"isFavorite"`
	IsPinned   bool       `json:"isPinned"`
	Tags       []string   `json:"tags" binding:"omitempty,dive,min=1,max=100"`
}

type NoteUpdate struct {
	NotebookID Optional[uuid.UUID] `json:"notebookId"`
	Title      *string             `json:"title" binding:"omitempty,min=1,max=500"`
	Content    *string             `json:"content"`
	Excerpt    *string             `json:"excerpt"`
	IsFavorite *bool               `json:"isFavorite"`
	IsPinned   *bool               `json:"isPinned"`
	IsArchived *bool               `json:"isArchived"`
	Tags       *[]string           `json:"tags" binding:"omitempty,dive,min=1,max=100"`
}

type NoteFilter struct {
	NotebookID *uuid.UUID
	TagID      *uuid.UUID
	Search     string
}

type NoteService struct {
	db   *gorm.DB
	now  Clock
	tags *TagService
}

func NewNoteService(db *gorm.DB, clock Clock) *NoteService {
	if clock == nil {
		clock = SystemClock
	}
	return &NoteService{db: db, now: clock, tags: NewTagService(db, clock)}
}

// ReadingStats counts whitespace-separated words and the minutes to read them.
func ReadingStats(content string) (words, minutes int) {
	words = len(strings.Fields(content))
	if words == 0 {
		return 0, 0
	}
	minutes = (words + wordsPerMinute - 1) / wordsPerMinute
	return words, minutes
}

func excerptOf(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	r := []rune(content)
	if len(r) <= excerptLength {
		return content
	}
	return string(r[:excerptLength]) + "..."
}

func (s *NoteService) active(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return s.db.WithContext(ctx).Where("notes.user_id = ? AND notes.is_archived = ?", userID, false)
}

func (s *NoteService) find(q *gorm.DB) ([]models.Note, error) {
	var notes []models.Note
	if err := q.Order("notes.is_pinned DESC, notes.updated_at DESC").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (s *NoteService) List(ctx context.Context, userID uuid.UUID, f NoteFilter) ([]models.Note, error) {
	q := s.active(ctx, userID)
	if f.NotebookID != nil {
		q = q.Where("notes.notebook_id = ?", *f.NotebookID)
	}
	if f.TagID != nil {
		q = q.Where("notes.id IN (?)", s.db.Model(&models.NoteTag{}).Select("note_id").Where("tag_id = ?", *f.TagID))
	}
	if f.Search != "" {
		q = q.Where(searchClause("notes.title", "notes.content", "notes.excerpt"), repeatArg(likePattern(f.Search), 3)...)
	}
	return s.find(q)
}

func (s *NoteService) Favorites(ctx context.Context, userID uuid.UUID) ([]models.Note, error) {
	return s.find(s.active(ctx, userID).Where("notes.is_favorite = ?", true))
}

func (s *NoteService) Pinned(ctx context.Context, userID uuid.UUID) ([]models.Note, error) {
	return s.find(s.active(ctx, userID).Where("notes.is_pinned = ?", true))
}

func (s *NoteService) ByTag(ctx context.Context, userID, tagID uuid.UUID) ([]models.Note, error) {
	return s.List(ctx, userID, NoteFilter{TagID: &tagID})
}

// Get returns the note with its tags and records the view.
func (s *NoteService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Note, error) {
	now := s.now()
	res := s.db.WithContext(ctx).Model(&models.Note{}).Where("id = ? AND user_id = ?", id, userID).
		UpdateColumns(map[string]interface{}{
			"view_count":     gorm.Expr("view_count + 1"),
			"last_viewed_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.load(ctx, id, userID)
}

func (s *NoteService) load(ctx context.Context, id, userID uuid.UUID) (*models.Note, error) {
	note, err := findOwned[models.Note](ctx, s.db, id, userID)
	if err != nil {
		return nil, err
	}
	tags, err := NewTagService(s.db, s.now).ForNote(ctx, note.ID)
	if err != nil {
		return nil, err
	}
	note.Tags = tags
	return note, nil
}

func (s *NoteService) Create(ctx context.Context, userID uuid.UUID, in NoteInput) (*models.Note, error) {
	if err := ownsRow[models.Notebook](ctx, s.db, in.NotebookID, userID); err != nil {
		return nil, err
	}
	words, minutes := ReadingStats(in.Content)
	note := &models.Note{
		UserID:      userID,
		NotebookID:  in.NotebookID,
		Title:       in.Title,
		Content:     in.Content,
		Excerpt:     in.Excerpt,
		IsFavorite:  in.IsFavorite,
		IsPinned:    in.IsPinned,
		WordCount:   words,
		ReadingTime: minutes,
	}
	if note.Excerpt == "" {
		note.Excerpt = excerptOf(in.Content)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(note).Error; err != nil {
			return fmt.Errorf("create note: %w", err)
		}
		return s.replaceTags(ctx, tx, note.ID, userID, in.Tags)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, note.ID, userID)
}

func (s *NoteService) Update(ctx context.Context, id, userID uuid.UUID, in NoteUpdate) (*models.Note, error) {
	if in.NotebookID.Set {
		if err := ownsRow[models.Notebook](ctx, s.db, in.NotebookID.Value, userID); err != nil {
			return nil, err
		}
	}
	updates := map[string]interface{}{}
	setOptional(updates, "notebook_id", in.NotebookID)
	setIf(updates, "title", in.Title)
	setIf(updates, "excerpt", in.Excerpt)
	setIf(updates, "is_favorite", in.IsFavorite)
	setIf(updates, "is_pinned", in.IsPinned)
	setIf(updates, "is_archived", in.IsArchived)
	if in.Content != nil {
		words, minutes := ReadingStats(*in.Content)
		updates["content"] = *in.Content
		updates["word_count"] = words
		updates["reading_time"] = minutes
		if in.Excerpt == nil {
			updates["excerpt"] = excerptOf(*in.Content)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := updateOwned[models.Note](ctx, tx, id, userID, updates, s.now()); err != nil {
			return err
		}
		if in.Tags == nil {
			return nil
		}
		return s.replaceTags(ctx, tx, id, userID, *in.Tags)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id, userID)
}

// replaceTags swaps the note's tag set for names, keeping usage counts in step.
func (s *NoteService) replaceTags(ctx context.Context, tx *gorm.DB, noteID, userID uuid.UUID, names []string) error {
	tags := s.tags.WithTx(tx)

	var current []models.NoteTag
	if err := tx.Where("note_id = ?", noteID).Find(&current).Error; err != nil {
		return err
	}
	keep := make(map[uuid.UUID]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		tag, err := tags.FindOrCreate(ctx, userID, name)
		if err != nil {
			return err
		}
		keep[tag.ID] = true
	}

	existing := make(map[uuid.UUID]bool, len(current))
	for _, nt := range current {
		existing[nt.TagID] = true
		if keep[nt.TagID] {
			continue
		}
		if err := tx.Where("note_id = ? AND tag_id = ?", noteID, nt.TagID).Delete(&models.NoteTag{}).Error; err != nil {
			return err
		}
		if err := tags.DecrementUsage(ctx, nt.TagID); err != nil {
			return err
		}
	}
	for tagID := range keep {
		if existing[tagID] {
			continue
		}
		if err := tx.Create(&models.NoteTag{NoteID: noteID, TagID: tagID, CreatedAt: s.now()}).Error; err != nil {
			return err
		}
		if err := tags.IncrementUsage(ctx, tagID); err != nil {
			return err
		}
	}
	return nil
}

func (s *NoteService) ToggleFavorite(ctx context.Context, id, userID uuid.UUID) (*models.Note, error) {
	return toggleOwned[models.Note](ctx, s.db, id, userID, "is_favorite", s.now())
}

func (s *NoteService) TogglePin(ctx context.Context, id, userID uuid.UUID) (*models.Note, error) {
	return toggleOwned[models.Note](ctx, s.db, id, userID, "is_pinned", s.now())
}

func (s *NoteService) Archive(ctx context.Context, id, userID uuid.UUID) (*models.Note, error) {
	return updateOwned[models.Note](ctx, s.db, id, userID, map[string]interface{}{"is_archived": true}, s.now())
}

// Delete removes the note and releases its tags.
func (s *NoteService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findOwned[models.Note](ctx, tx, id, userID); err != nil {
			return err
		}
		if err := s.replaceTags(ctx, tx, id, userID, nil); err != nil {
			return err
		}
		return deleteOwned[models.Note](ctx, tx, id, userID)
	})
}
