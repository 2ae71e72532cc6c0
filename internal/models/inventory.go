package models

import (
	"time"

	"github.com/google/uuid"
)

type LendingStatus string

const (
	LendingActive   LendingStatus = "active"
	LendingReturned LendingStatus = "returned"
	LendingOverdue  LendingStatus = "overdue"
	LendingLost     LendingStatus = "lost"

	DefaultMoveReason = "manual_move"
)

type Location struct {
	Base
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	ParentID     *uuid.UUID `gorm:"type:uuid;index" json:"parentId"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	LocationType string     `gorm:"size:50" json:"locationType"`
	SortOrder    int        `gorm:"not null" json:"sortOrder"`
	IsArchived   bool       `gorm:"not null" json:"isArchived"`
}

type Item struct {
	Base
	UserID              uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	LocationID          *uuid.UUID `gorm:"type:uuid;index" json:"locationId"`
	Name                string     `gorm:"size:255;not null" json:"name"`
	Description         string     `gorm:"type:text" json:"description"`
	Brand               string     `gorm:"size:255" json:"brand"`
	Model               string     `gorm:"size:255" json:"model"`
	SerialNumber        string     `gorm:"size:255" json:"serialNumber"`
	Barcode             string     `gorm:"size:255;index" json:"barcode"`
	CustomID            string     `gorm:"size:255;index" json:"customId"`
	Category            string     `gorm:"size:100;index" json:"category"`
	Notes               string     `gorm:"type:text" json:"notes"`
	SearchKeywords      string     `gorm:"type:text" json:"searchKeywords"`
	PurchaseDate        *time.Time `json:"purchaseDate"`
	PurchasePrice       *int64     `json:"purchasePrice"` // cents
	WarrantyExpiresAt   *time.Time `json:"warrantyExpiresAt"`
	NextMaintenanceDate *time.Time `json:"nextMaintenanceDate"`
	IsFavorite          bool       `gorm:"not null" json:"isFavorite"`
	IsLost              bool       `gorm:"not null" json:"isLost"`
	IsBroken            bool       `gorm:"not null" json:"isBroken"`
	IsLent              bool       `gorm:"not null" json:"isLent"`
	IsArchived          bool       `gorm:"not null" json:"isArchived"`
	LastUsedAt          *time.Time `json:"lastUsedAt"`
}

type ItemLocationHistory struct {
	Base
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	ItemID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"itemId"`
	FromLocationID *uuid.UUID `gorm:"type:uuid" json:"fromLocationId"`
	ToLocationID   *uuid.UUID `gorm:"type:uuid" json:"toLocationId"`
	Reason         string     `gorm:"size:100" json:"reason"`
	Notes          string     `gorm:"type:text" json:"notes"`
	MovedBy        uuid.UUID  `gorm:"type:uuid" json:"movedBy"`
	MovedDate      time.Time  `gorm:"not null" json:"movedDate"`
}

func (ItemLocationHistory) TableName() string { return "item_location_history" }

type ItemMaintenanceHistory struct {
	Base
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	ItemID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"itemId"`
	MaintenanceType string     `gorm:"size:100;not null" json:"maintenanceType"`
	Description     string     `gorm:"type:text" json:"description"`
	Cost            *int64     `json:"cost"` // cents
	PerformedBy     string     `gorm:"size:255" json:"performedBy"`
	PerformedDate   time.Time  `gorm:"not null" json:"performedDate"`
	NextDueDate     *time.Time `json:"nextDueDate"`
}

func (ItemMaintenanceHistory) TableName() string { return "item_maintenance_history" }

type Lending struct {
	Base
	UserID                uuid.UUID     `gorm:"type:uuid;not null;index" json:"userId"`
	ItemID                uuid.UUID     `gorm:"type:uuid;not null;index" json:"itemId"`
	BorrowerName          string        `gorm:"size:255;not null" json:"borrowerName"`
	BorrowerEmail         string        `gorm:"size:255" json:"borrowerEmail"`
	BorrowerPhone         string        `gorm:"size:50" json:"borrowerPhone"`
	Purpose               string        `gorm:"size:500" json:"purpose"`
	Notes                 string        `gorm:"type:text" json:"notes"`
	Status                LendingStatus `gorm:"size:20;not null;index" json:"status"`
	LentDate              time.Time     `gorm:"not null" json:"lentDate"`
	ExpectedReturnDate    *time.Time    `json:"expectedReturnDate"`
	ActualReturnDate      *time.Time    `json:"actualReturnDate"`
	IsOverdue             bool          `gorm:"not null" json:"isOverdue"`
	ConditionWhenReturned string        `gorm:"size:255" json:"conditionWhenReturned"`
	DamageNotes           string        `gorm:"type:text" json:"damageNotes"`
	ReminderSent          bool          `gorm:"not null" json:"reminderSent"`
	LastReminderDate      *time.Time    `json:"lastReminderDate"`
}

func (Lending) TableName() string { return "lending" }
