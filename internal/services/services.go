// Package services holds the user-scoped business logic. Every query and mutation
// ANDs the owning user id so one account can never reach another account's rows.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
	ErrConflict           = errors.New("conflicting state")
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

// SystemClock is the default Clock, always in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// SortOrder is one entry of a reorder request.
type SortOrder struct {
	ID        uuid.UUID `json:"id" binding:"required"`
	SortOrder int       `json:"sortOrder"`
}

// likePattern builds a case-insensitive substring pattern for LOWER(col) LIKE ?.
func likePattern(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
	return "%" + q + "%"
}

// searchClause ORs a LIKE test across columns; callers bind the pattern once per column.
func searchClause(columns ...string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '\\'", c)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func repeatArg(v interface{}, n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = v
	}
	return args
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func findOwned[T any](ctx context.Context, db *gorm.DB, id, userID uuid.UUID) (*T, error) {
	var out T
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&out).Error; err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

// updateOwned applies column updates to one owned row and returns the fresh row.
func updateOwned[T any](ctx context.Context, db *gorm.DB, id, userID uuid.UUID, updates map[string]interface{}, now time.Time) (*T, error) {
	updates["updated_at"] = now
	res := db.WithContext(ctx).Model(new(T)).Where("id = ? AND user_id = ?", id, userID).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return findOwned[T](ctx, db, id, userID)
}

// toggleOwned flips a boolean column.
func toggleOwned[T any](ctx context.Context, db *gorm.DB, id, userID uuid.UUID, column string, now time.Time) (*T, error) {
	return updateOwned[T](ctx, db, id, userID, map[string]interface{}{
		column: gorm.Expr("NOT " + column),
	}, now)
}

func deleteOwned[T any](ctx context.Context, db *gorm.DB, id, userID uuid.UUID) error {
	res := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// reorderOwned writes sort orders in one transaction; ids the user does not own are skipped.
func reorderOwned[T any](ctx context.Context, db *gorm.DB, userID uuid.UUID, orders []SortOrder, now time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range orders {
			err := tx.Model(new(T)).Where("id = ? AND user_id = ?", o.ID, userID).
				Updates(map[string]interface{}{"sort_order": o.SortOrder, "updated_at": now}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ownsRow checks that a referenced parent (board, notebook, category, location) belongs to the user.
func ownsRow[T any](ctx context.Context, db *gorm.DB, id *uuid.UUID, userID uuid.UUID) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := db.WithContext(ctx).Model(new(T)).Where("id = ? AND user_id = ?", *id, userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// setIf copies an optional field into an update map.
func setIf[V any](updates map[string]interface{}, column string, v *V) {
	if v != nil {
		updates[column] = *v
	}
}

// Optional distinguishes an absent JSON field from an explicit null, so partial
// updates can clear nullable columns such as boardId or dueDate.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a set Optional holding null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func setOptional[V any](updates map[string]interface{}, column string, o Optional[V]) {
	if !o.Set {
		return
	}
	if o.Value == nil {
		updates[column] = nil
		return
	}
	updates[column] = *o.Value
}
