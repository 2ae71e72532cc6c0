package models

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string
type TaskPriority string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"

	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

type Board struct {
	Base
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Color       string    `gorm:"size:7;not null" json:"color"`
	IsArchived  bool      `gorm:"not null" json:"isArchived"`
	SortOrder   int       `gorm:"not null" json:"sortOrder"`
}

type Task struct {
	Base
	UserID           uuid.UUID    `gorm:"type:uuid;not null;index" json:"userId"`
	BoardID          *uuid.UUID   `gorm:"type:uuid;index" json:"boardId"`
	Title            string       `gorm:"size:500;not null" json:"title"`
	Description      string       `gorm:"type:text" json:"description"`
	Status           TaskStatus   `gorm:"size:20;not null" json:"status"`
	Priority         TaskPriority `gorm:"size:20;not null" json:"priority"`
	DueDate          *time.Time   `json:"dueDate"`
	CompletedAt      *time.Time   `json:"completedAt"`
	SortOrder        int          `gorm:"not null" json:"sortOrder"`
	Tags             StringList   `gorm:"type:text" json:"tags"`
	EstimatedMinutes *int         `json:"estimatedMinutes"`
	ActualMinutes    *int         `json:"actualMinutes"`
	IsArchived       bool         `gorm:"not null" json:"isArchived"`
}

type Journal struct {
	Base
	UserID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	Date              time.Time  `gorm:"not null;index" json:"date"`
	Title             string     `gorm:"size:255" json:"title"`
	Content           string     `gorm:"type:text" json:"content"`
	Mood              string     `gorm:"size:50" json:"mood"`
	EnergyLevel       *int       `json:"energyLevel"`
	ProductivityScore *int       `json:"productivityScore"`
	Tags              StringList `gorm:"type:text" json:"tags"`
	Weather           string     `gorm:"size:100" json:"weather"`
	Gratitude         string     `gorm:"type:text" json:"gratitude"`
	Goals             string     `gorm:"type:text" json:"goals"`
	Reflections       string     `gorm:"type:text" json:"reflections"`
}
