package services

import (
	"context"
	"fmt"
	"time"

	"lifelog/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskInput struct {
	BoardID          *uuid.UUID          `json:"boardId"`
	Title            string              `json:"title" binding:"required,max=500"`
	Description      string              `json:"description"`
	Status           models.TaskStatus   `json:"status" binding:"omitempty,oneof=todo in-progress done"`
	Priority         models.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate          *time.Time          `json:"dueDate"`
	SortOrder        int                 `json:"sortOrder"`
	Tags             []string            `json:"tags"`
	EstimatedMinutes *int                `json:"estimatedMinutes" binding:"omitempty,min=0"`
}

type TaskUpdate struct {
	BoardID          Optional[uuid.UUID]  `json:"boardId"`
	Title            *string              `json:"title" binding:"omitempty,min=1,max=500"`
	Description      *string              `json:"description"`
	Status           *models.TaskStatus   `json:"status" binding:"omitempty,oneof=todo in-progress done"`
	Priority         *models.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate          Optional[time.Time]  `json:"dueDate"`
	SortOrder        *int                 `json:"sortOrder"`
	Tags             *[]string            `json:"tags"`
	EstimatedMinutes Optional[int]        `json:"estimatedMinutes"`
	ActualMinutes    Optional[int]        `json:"actualMinutes"`
	IsArchived       *bool                `json:"isArchived"`
}

// TaskFilter narrows List. Zero values mean "any".
type TaskFilter struct {
	BoardID *uuid.UUID
	Status  models.TaskStatus
	Search  string
}

type TaskService struct {
	db  *gorm.DB
	now Clock
}

func NewTaskService(db *gorm.DB, clock Clock) *TaskService {
	if clock == nil {
		clock = SystemClock
	}
	return &TaskService{db: db, now: clock}
}

func (s *TaskService) active(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return s.db.WithContext(ctx).Where("user_id = ? AND is_archived = ?", userID, false)
}

func (s *TaskService) List(ctx context.Context, userID uuid.UUID, f TaskFilter) ([]models.Task, error) {
	q := s.active(ctx, userID)
	if f.BoardID != nil {
		q = q.Where("board_id = ?", *f.BoardID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		q = q.Where(searchClause("title", "description"), repeatArg(likePattern(f.Search), 2)...)
	}
	var tasks []models.Task
	if err := q.Order("sort_order ASC, created_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Inbox lists tasks not assigned to any board.
func (s *TaskService) Inbox(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := s.active(ctx, userID).Where("board_id IS NULL").
		Order("sort_order ASC, created_at ASC").Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list inbox tasks: %w", err)
	}
	return tasks, nil
}

// Overdue lists open tasks whose due date has passed, soonest first.
func (s *TaskService) Overdue(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := s.active(ctx, userID).
		Where("status IN ? AND due_date IS NOT NULL AND due_date < ?",
			[]string{string(models.TaskStatusTodo), string(models.TaskStatusInProgress)}, s.now()).
		Order("due_date ASC").Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list overdue tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Task, error) {
	return findOwned[models.Task](ctx, s.db, id, userID)
}

func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, in TaskInput) (*models.Task, error) {
	if err := ownsRow[models.Board](ctx, s.db, in.BoardID, userID); err != nil {
		return nil, err
	}
	task := &models.Task{
		UserID:           userID,
		BoardID:          in.BoardID,
		Title:            in.Title,
		Description:      in.Description,
		Status:           in.Status,
		Priority:         in.Priority,
		DueDate:          in.DueDate,
		SortOrder:        in.SortOrder,
		Tags:             models.StringList(in.Tags),
		EstimatedMinutes: in.EstimatedMinutes,
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Status == models.TaskStatusDone {
		now := s.now()
		task.CompletedAt = &now
	}
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, id, userID uuid.UUID, in TaskUpdate) (*models.Task, error) {
	if in.BoardID.Set {
		if err := ownsRow[models.Board](ctx, s.db, in.BoardID.Value, userID); err != nil {
			return nil, err
		}
	}
	now := s.now()
	updates := map[string]interface{}{}
	setOptional(updates, "board_id", in.BoardID)
	setIf(updates, "title", in.Title)
	setIf(updates, "description", in.Description)
	setIf(updates, "priority", in.Priority)
	setOptional(updates, "due_date", in.DueDate)
	setIf(updates, "sort_order", in.SortOrder)
	setOptional(updates, "estimated_minutes", in.EstimatedMinutes)
	setOptional(updates, "actual_minutes", in.ActualMinutes)
	setIf(updates, "is_archived", in.IsArchived)
	if in.Tags != nil {
		updates["tags"] = models.StringList(*in.Tags)
	}
	if in.Status != nil {
		updates["status"] = *in.Status
		if *in.Status == models.TaskStatusDone {
			updates["completed_at"] = now
		} else {
			updates["completed_at"] = nil
		}
	}
	return updateOwned[models.Task](ctx, s.db, id, userID, updates, now)
}

// Complete marks the task done and stamps completedAt.
func (s *TaskService) Complete(ctx context.Context, id, userID uuid.UUID) (*models.Task, error) {
	now := s.now()
	return updateOwned[models.Task](ctx, s.db, id, userID, map[string]interface{}{
		"status":       models.TaskStatusDone,
		"completed_at": now,
	}, now)
}

func (s *TaskService) Archive(ctx context.Context, id, userID uuid.UUID) (*models.Task, error) {
	return updateOwned[models.Task](ctx, s.db, id, userID, map[string]interface{}{"is_archived": true}, s.now())
}

func (s *TaskService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return deleteOwned[models.Task](ctx, s.db, id, userID)
}

// Reorder applies sort orders; when boardID is given the tasks are also moved to that board.
func (s *TaskService) Reorder(ctx context.Context, userID uuid.UUID, boardID *uuid.UUID, orders []SortOrder) error {
	if boardID == nil {
		return reorderOwned[models.Task](ctx, s.db, userID, orders, s.now())
	}
	if err := ownsRow[models.Board](ctx, s.db, boardID, userID); err != nil {
		return err
	}
	now := s.now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range orders {
			err := tx.Model(&models.Task{}).Where("id = ? AND user_id = ?", o.ID, userID).
				Updates(map[string]interface{}{"sort_order": o.SortOrder, "board_id": *boardID, "updated_at": now}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
