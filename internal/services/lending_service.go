package services

import (
	"context"
	"fmt"
	"time"

	"lifelog/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LendingInput struct {
	ItemID             uuid.UUID  `json:"itemId" binding:"required"`
	BorrowerName       string     `json:"borrowerName" binding:"required,max=255"`
	BorrowerEmail      string     `json:"borrowerEmail" binding:"omitempty,email,max=255"`
	BorrowerPhone      string     `json:"borrowerPhone" binding:"max=50"`
	Purpose            string     `json:"purpose" binding:"max=500"`
	Notes              string     `json:"notes"`
	LentDate           *time.Time `json:"lentDate"`
	ExpectedReturnDate *time.Time `json:"expectedReturnDate"`
}

type LendingUpdate struct {
	BorrowerName       *string             `json:"borrowerName" binding:"omitempty,min=1,max=255"`
	BorrowerEmail      *string             `json:"borrowerEmail" binding:"omitempty,max=255"`
	BorrowerPhone      *string             `json:"borrowerPhone" binding:"omitempty,max=50"`
	Purpose            *string             `json:"purpose" binding:"omitempty,max=500"`
	Notes              *string             `json:"notes"`
	ExpectedReturnDate Optional[time.Time] `json:"expectedReturnDate"`
}

type ReturnInput struct {
	ConditionWhenReturned string `json:"conditionWhenReturned" binding:"max=255"`
	DamageNotes           string `json:"damageNotes"`
}

type LendingFilter struct {
	Status models.LendingStatus
	ItemID *uuid.UUID
	Search string
}

// LendingStats counts a user's lendings by status.
type LendingStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Overdue  int64 `json:"overdue"`
	Returned int64 `json:"returned"`
	Lost     int64 `json:"lost"`
}

var outstandingStatuses = []string{string(models.LendingActive), string(models.LendingOverdue)}

type LendingService struct {
	db  *gorm.DB
	now Clock
}

func NewLendingService(db *gorm.DB, clock Clock) *LendingService {
	if clock == nil {
		clock = SystemClock
	}
	return &LendingService{db: db, now: clock}
}

func (s *LendingService) List(ctx context.Context, userID uuid.UUID, f LendingFilter) ([]models.Lending, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.ItemID != nil {
		q = q.Where("item_id = ?", *f.ItemID)
	}
	if f.Search != "" {
		cols := []string{"borrower_name", "borrower_email", "borrower_phone", "purpose", "notes"}
		q = q.Where(searchClause(cols...), repeatArg(likePattern(f.Search), len(cols))...)
	}
	var lendings []models.Lending
	if err := q.Order("lent_date DESC").Find(&lendings).Error; err != nil {
		return nil, fmt.Errorf("list lendings: %w", err)
	}
	return lendings, nil
}

func (s *LendingService) Active(ctx context.Context, userID uuid.UUID) ([]models.Lending, error) {
	return s.List(ctx, userID, LendingFilter{Status: models.LendingActive})
}

func (s *LendingService) Overdue(ctx context.Context, userID uuid.UUID) ([]models.Lending, error) {
	var lendings []models.Lending
	err := s.db.WithContext(ctx).Where("user_id = ? AND is_overdue = ?", userID, true).
		Order("expected_return_date ASC").Find(&lendings).Error
	if err != nil {
		return nil, fmt.Errorf("list overdue lendings: %w", err)
	}
	return lendings, nil
}

func (s *LendingService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Lending, error) {
	return findOwned[models.Lending](ctx, s.db, id, userID)
}

// Create lends an item. An item can only be out on one lending at a time.
func (s *LendingService) Create(ctx context.Context, userID uuid.UUID, in LendingInput) (*models.Lending, error) {
	now := s.now()
	lending := &models.Lending{
		UserID:             userID,
		ItemID:             in.ItemID,
		BorrowerName:       in.BorrowerName,
		BorrowerEmail:      in.BorrowerEmail,
		BorrowerPhone:      in.BorrowerPhone,
		Purpose:            in.Purpose,
		Notes:              in.Notes,
		Status:             models.LendingActive,
		LentDate:           now,
		ExpectedReturnDate: in.ExpectedReturnDate,
	}
	if in.LentDate != nil {
		lending.LentDate = in.LentDate.UTC()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findOwned[models.Item](ctx, tx, in.ItemID, userID); err != nil {
			return err
		}
		res := tx.Model(&models.Item{}).Where("id = ? AND user_id = ? AND is_lent = ?", in.ItemID, userID, false).
			Updates(map[string]interface{}{"is_lent": true, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: item is already lent", ErrConflict)
		}
		if err := tx.Create(lending).Error; err != nil {
			return fmt.Errorf("create lending: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lending, nil
}

func (s *LendingService) Update(ctx context.Context, id, userID uuid.UUID, in LendingUpdate) (*models.Lending, error) {
	updates := map[string]interface{}{}
	setIf(updates, "borrower_name", in.BorrowerName)
	setIf(updates, "borrower_email", in.BorrowerEmail)
	setIf(updates, "borrower_phone", in.BorrowerPhone)
	setIf(updates, "purpose", in.Purpose)
	setIf(updates, "notes", in.Notes)
	setOptional(updates, "expected_return_date", in.ExpectedReturnDate)
	return updateOwned[models.Lending](ctx, s.db, id, userID, updates, s.now())
}

// Return closes the lending and frees the item.
func (s *LendingService) Return(ctx context.Context, id, userID uuid.UUID, in ReturnInput) (*models.Lending, error) {
	now := s.now()
	return s.transition(ctx, id, userID, map[string]interface{}{
		"status":                  models.LendingReturned,
		"actual_return_date":      now,
		"is_overdue":              false,
		"condition_when_returned": in.ConditionWhenReturned,
		"damage_notes":            in.DamageNotes,
	}, map[string]interface{}{"is_lent": false})
}

func (s *LendingService) MarkOverdue(ctx context.Context, id, userID uuid.UUID) (*models.Lending, error) {
	return updateOutstanding(ctx, s.db, id, userID, map[string]interface{}{
		"status":     models.LendingOverdue,
		"is_overdue": true,
	}, s.now())
}

// MarkLost closes the lending as lost and flags the item.
func (s *LendingService) MarkLost(ctx context.Context, id, userID uuid.UUID) (*models.Lending, error) {
	return s.transition(ctx, id, userID,
		map[string]interface{}{"status": models.LendingLost},
		map[string]interface{}{"is_lent": false, "is_lost": true})
}

func (s *LendingService) SendReminder(ctx context.Context, id, userID uuid.UUID) (*models.Lending, error) {
	now := s.now()
	return updateOwned[models.Lending](ctx, s.db, id, userID, map[string]interface{}{
		"reminder_sent":      true,
		"last_reminder_date": now,
	}, now)
}

// ItemName returns the name of the lent item, for reminder messages.
func (s *LendingService) ItemName(ctx context.Context, lending *models.Lending) (string, error) {
	item, err := findOwned[models.Item](ctx, s.db, lending.ItemID, lending.UserID)
	if err != nil {
		return "", err
	}
	return item.Name, nil
}

func (s *LendingService) transition(ctx context.Context, id, userID uuid.UUID, lendingUpdates, itemUpdates map[string]interface{}) (*models.Lending, error) {
	var lending *models.Lending
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		var err error
		if lending, err = updateOutstanding(ctx, tx, id, userID, lendingUpdates, now); err != nil {
			return err
		}
		itemUpdates["updated_at"] = now
		return tx.Model(&models.Item{}).Where("id = ? AND user_id = ?", lending.ItemID, userID).Updates(itemUpdates).Error
	})
	if err != nil {
		return nil, err
	}
	return lending, nil
}

// updateOutstanding applies updates only while the lending is active or overdue.
// A closed lending yields ErrConflict.
func updateOutstanding(ctx context.Context, db *gorm.DB, id, userID uuid.UUID, updates map[string]interface{}, now time.Time) (*models.Lending, error) {
	updates["updated_at"] = now
	res := db.WithContext(ctx).Model(&models.Lending{}).
		Where("id = ? AND user_id = ? AND status IN ?", id, userID, outstandingStatuses).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update lending: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := findOwned[models.Lending](ctx, db, id, userID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: lending is already closed", ErrConflict)
	}
	return findOwned[models.Lending](ctx, db, id, userID)
}

// Delete removes the lending; an active lending also frees its item.
func (s *LendingService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lending, err := findOwned[models.Lending](ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if lending.Status == models.LendingActive || lending.Status == models.LendingOverdue {
			err := tx.Model(&models.Item{}).Where("id = ? AND user_id = ?", lending.ItemID, userID).
				Updates(map[string]interface{}{"is_lent": false, "updated_at": s.now()}).Error
			if err != nil {
				return err
			}
		}
		return deleteOwned[models.Lending](ctx, tx, id, userID)
	})
}

func (s *LendingService) Stats(ctx context.Context, userID uuid.UUID) (*LendingStats, error) {
	var rows []struct {
		Status      string
		StatusCount int64
	}
	err := s.db.WithContext(ctx).Model(&models.Lending{}).
		Select("status, COUNT(*) AS status_count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("lending stats: %w", err)
	}
	stats := &LendingStats{}
	for _, r := range rows {
		stats.Total += r.StatusCount
		switch models.LendingStatus(r.Status) {
		case models.LendingActive:
			stats.Active = r.StatusCount
		case models.LendingOverdue:
			stats.Overdue = r.StatusCount
		case models.LendingReturned:
			stats.Returned = r.StatusCount
		case models.LendingLost:
			stats.Lost = r.StatusCount
		}
	}
	return stats, nil
}

// CheckOverdue marks the user's active lendings past their expected return date as overdue.
func (s *LendingService) CheckOverdue(ctx context.Context, userID uuid.UUID) ([]models.Lending, error) {
	return s.checkOverdue(ctx, &userID)
}

// CheckAllOverdue runs CheckOverdue across every user. Used by the CLI.
func (s *LendingService) CheckAllOverdue(ctx context.Context) (int, error) {
	marked, err := s.checkOverdue(ctx, nil)
	return len(marked), err
}

func (s *LendingService) checkOverdue(ctx context.Context, userID *uuid.UUID) ([]models.Lending, error) {
	now := s.now()
	var due []models.Lending
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("status = ? AND is_overdue = ? AND expected_return_date IS NOT NULL AND expected_return_date < ?",
			string(models.LendingActive), false, now)
		if userID != nil {
			q = q.Where("user_id = ?", *userID)
		}
		if err := q.Find(&due).Error; err != nil {
			return err
		}
		if len(due) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, len(due))
		for i := range due {
			ids[i] = due[i].ID
			due[i].Status = models.LendingOverdue
			due[i].IsOverdue = true
			due[i].UpdatedAt = now
		}
		return tx.Model(&models.Lending{}).Where("id IN ?", ids).Updates(map[string]interface{}{
			"status":     models.LendingOverdue,
			"is_overdue": true,
			"updated_at": now,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("check overdue lendings: %w", err)
	}
	return due, nil
}
