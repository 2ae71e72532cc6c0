package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentCategory struct {
	Base
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index" json:"parentId"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Color       string     `gorm:"size:7" json:"color"`
	SortOrder   int        `gorm:"not null" json:"sortOrder"`
	IsArchived  bool       `gorm:"not null" json:"isArchived"`
}

// Document is file metadata. StoragePath points at wherever the client stored the bytes.
type Document struct {
	Base
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	CategoryID     *uuid.UUID `gorm:"type:uuid;index" json:"categoryId"`
	DocumentType   string     `gorm:"size:50" json:"documentType"`
	Title          string     `gorm:"size:500;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	FileName       string     `gorm:"size:500" json:"fileName"`
	FileSize       int64      `json:"fileSize"`
	MimeType       string     `gorm:"size:255" json:"mimeType"`
	StoragePath    string     `gorm:"size:1000" json:"storagePath"`
	ExtractedText  string     `gorm:"type:text" json:"extractedText"`
	IsFavorite     bool       `gorm:"not null" json:"isFavorite"`
	IsImportant    bool       `gorm:"not null" json:"isImportant"`
	IsArchived     bool       `gorm:"not null" json:"isArchived"`
	ViewCount      int        `gorm:"not null" json:"viewCount"`
	DownloadCount  int        `gorm:"not null" json:"downloadCount"`
	LastAccessedAt *time.Time `json:"lastAccessedAt"`
	Version        int        `gorm:"not null" json:"version"`
	ExpirationDate *time.Time `json:"expirationDate"`
}

type DocumentAccessLog struct {
	ID            uuid.UUID    `gorm:"type:uuid;primary_key;" json:"id"`
	UserID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"userId"`
	DocumentID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"documentId"`
	Action        AccessAction `gorm:"size:20;not null" json:"action"`
	Success       bool         `gorm:"not null" json:"success"`
	FailureReason string       `gorm:"size:255" json:"failureReason,omitempty"`
	IPAddress     string       `gorm:"size:64" json:"ipAddress,omitempty"`
	UserAgent     string       `gorm:"size:512" json:"userAgent,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

func (DocumentAccessLog) TableName() string { return "document_access_log" }

func (l *DocumentAccessLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
