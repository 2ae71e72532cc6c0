package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultColor is used for boards and tags created without an explicit color.
const DefaultColor = "#0078d4"

// Base carries the identity and audit columns shared by every user-owned table.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}

// StringList is a []string persisted as a JSON array in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return errors.New("invalid JSON in string list column")
	}
	*l = out
	return nil
}

// AutoMigrateDB creates or updates every table from the model definitions.
// Production schemas are managed by the SQL migrations; this is used by tests and the setup tool.
func AutoMigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Session{},
		&PasswordResetToken{},
		&Board{},
		&Task{},
		&Journal{},
		&Notebook{},
		&Note{},
		&Tag{},
		&NoteTag{},
		&VaultCategory{},
		&VaultItem{},
		&VaultAccessLog{},
		&DocumentCategory{},
		&Document{},
		&DocumentAccessLog{},
		&Location{},
		&Item{},
		&ItemLocationHistory{},
		&ItemMaintenanceHistory{},
		&Lending{},
	)
}
