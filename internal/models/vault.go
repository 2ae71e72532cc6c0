package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VaultItemType string
type AccessAction string

const (
	VaultItemPassword VaultItemType = "password"
	VaultItemNote     VaultItemType = "note"
	VaultItemCard     VaultItemType = "card"
	VaultItemIdentity VaultItemType = "identity"
	VaultItemOther    VaultItemType = "other"

	AccessView     AccessAction = "view"
	AccessCreate   AccessAction = "create"
	AccessEdit     AccessAction = "edit"
	AccessArchive  AccessAction = "archive"
	AccessDelete   AccessAction = "delete"
	AccessDownload AccessAction = "download"
)

type VaultCategory struct {
	Base
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Color       string    `gorm:"size:7" json:"color"`
	Icon        string    `gorm:"size:50" json:"icon"`
	SortOrder   int       `gorm:"not null" json:"sortOrder"`
	IsArchived  bool      `gorm:"not null" json:"isArchived"`
}

// VaultItem stores credentials as an opaque blob encrypted on the client.
// EncryptionKeyID only references the client-side key; the server never sees plaintext.
type VaultItem struct {
	Base
	UserID          uuid.UUID     `gorm:"type:uuid;not null;index" json:"userId"`
	CategoryID      *uuid.UUID    `gorm:"type:uuid;index" json:"categoryId"`
	Type            VaultItemType `gorm:"size:20;not null" json:"type"`
	Name            string        `gorm:"size:255;not null" json:"name"`
	Website         string        `gorm:"size:500" json:"website"`
	Username        string        `gorm:"size:255" json:"username"`
	Email           string        `gorm:"size:255" json:"email"`
	Notes           string        `gorm:"type:text" json:"notes"`
	EncryptedData   string        `gorm:"type:text" json:"encryptedData"`
	EncryptionKeyID string        `gorm:"size:255" json:"encryptionKeyId"`
	IsFavorite      bool          `gorm:"not null" json:"isFavorite"`
	IsArchived      bool          `gorm:"not null" json:"isArchived"`
	AccessCount     int           `gorm:"not null" json:"accessCount"`
	LastAccessedAt  *time.Time    `json:"lastAccessedAt"`
	ExpiresAt       *time.Time    `json:"expiresAt"`
}

type VaultAccessLog struct {
	ID            uuid.UUID    `gorm:"type:uuid;primary_key;" json:"id"`
	UserID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"userId"`
	VaultItemID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"vaultItemId"`
	Action        AccessAction `gorm:"size:20;not null" json:"action"`
	Success       bool         `gorm:"not null" json:"success"`
	FailureReason string       `gorm:"size:255" json:"failureReason,omitempty"`
	IPAddress     string       `gorm:"size:64" json:"ipAddress,omitempty"`
	UserAgent     string       `gorm:"size:512" json:"userAgent,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

func (VaultAccessLog) TableName() string { return "vault_access_log" }

func (l *VaultAccessLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
