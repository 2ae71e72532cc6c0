package models

import (
	"time"

	"github.com/google/uuid"
)

type Notebook struct {
	Base
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	ParentID   *uuid.UUID `gorm:"type:uuid;index" json:"parentId"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	SortOrder  int        `gorm:"not null" json:"sortOrder"`
	IsArchived bool       `gorm:"not null" json:"isArchived"`
}

type Note struct {
	Base
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	NotebookID   *uuid.UUID `gorm:"type:uuid;index" json:"notebookId"`
	Title        string     `gorm:"size:500;not null" json:"title"`
	Content      string     `gorm:"type:text" json:"content"`
	Excerpt      string     `gorm:"type:text" json:"excerpt"`
	IsFavorite   bool       `gorm:"not null" json:"isFavorite"`
	IsPinned     bool       `gorm:"not null" json:"isPinned"`
	IsArchived   bool       `gorm:"not null" json:"isArchived"`
	ViewCount    int        `gorm:"not null" json:"viewCount"`
	LastViewedAt *time.Time `json:"lastViewedAt"`
	WordCount    int        `gorm:"not null" json:"wordCount"`
	ReadingTime  int        `gorm:"not null" json:"readingTime"` // minutes
	Tags         []Tag      `gorm:"-" json:"tags,omitempty"`
}

type Tag struct {
	Base
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tags_user_name" json:"userId"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:idx_tags_user_name" json:"name"`
	Color       string    `gorm:"size:7;not null" json:"color"`
	Description string    `gorm:"type:text" json:"description"`
	UsageCount  int       `gorm:"not null" json:"usageCount"`
}

// NoteTag joins notes and tags.
type NoteTag struct {
	NoteID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"noteId"`
	TagID     uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"tagId"`
	CreatedAt time.Time `json:"createdAt"`
}
