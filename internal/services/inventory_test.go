package services

import (
	"context"
	"testing"
	"time"

	"lifelog/backend/internal/models"
	"lifelog/backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationTree(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	owner, other := twoUsers(t, db)
	ctx := context.Background()
	locations := NewLocationService(db, testutil.FixedClock(trackerNow))
	items := NewItemService(db, testutil.FixedClock(trackerNow))

	garage, err := locations.Create(ctx, owner.ID, LocationInput{Name: "Garage", LocationType: "room"})
	require.NoError(t, err)
	shelf, err := locations.Create(ctx, owner.ID, LocationInput{Name: "Shelf A", LocationType: "shelf", ParentID: &garage.ID})
	require.NoError(t, err)
	_, err = locations.Create(ctx, other.ID, LocationInput{Name: "Sneaky", ParentID: &garage.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	rooms, err := locations.List(ctx, owner.ID, "room")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, garage.ID, rooms[0].ID)

	roots, err := locations.Root(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, roots, 1)
	children, err := locations.Children(ctx, owner.ID, garage.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, shelf.ID, children[0].ID)

	renamed, err := locations.Update(ctx, shelf.ID, owner.ID, LocationUpdate{Name: ptr("Shelf B")})
	require.NoError(t, err)
	assert.Equal(t, "Shelf B", renamed.Name)

	require.NoError(t, locations.Reorder(ctx, owner.ID, []SortOrder{{ID: shelf.ID, SortOrder: 3}}))

	drill, err := items.Create(ctx, owner.ID, ItemInput{Name: "Drill", LocationID: &garage.ID})
	require.NoError(t, err)

	require.NoError(t, locations.Delete(ctx, garage.ID, owner.ID))
	orphan, err := locations.Get(ctx, shelf.ID, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, orphan.ParentID)
	assert.Equal(t, 3, orphan.SortOrder)
	unplaced, err := items.Get(ctx, drill.ID, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, unplaced.LocationID)

	_, err = locations.Archive(ctx, shelf.ID, owner.ID)
	require.NoError(t, err)
	all, err := locations.List(ctx, owner.ID, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestItemMovesAndMaintenance(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	owner, other := twoUsers(t, db)
	ctx := context.Background()
	clock := &stepClock{now: trackerNow}
	locations := NewLocationService(db, clock.Now)
	items := NewItemService(db, clock.Now)

	kitchen, err := locations.Create(ctx, owner.ID, LocationInput{Name: "Kitchen"})
	require.NoError(t, err)
	cellar, err := locations.Create(ctx, owner.ID, LocationInput{Name: "Cellar"})
	require.NoError(t, err)
	foreign, err := locations.Create(ctx, other.ID, LocationInput{Name: "Elsewhere"})
	require.NoError(t, err)

	mixer, err := items.Create(ctx, owner.ID, ItemInput{
		Name: "Stand mixer", Brand: "KitchenAid", Barcode: "5012345678900", CustomID: "INV-7",
		LocationID: &kitchen.ID,
	})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	moved, err := items.Move(ctx, mixer.ID, owner.ID, MoveInput{LocationID: &cellar.ID, Notes: "winter storage"})
	require.NoError(t, err)
	require.NotNil(t, moved.LocationID)
	assert.Equal(t, cellar.ID, *moved.LocationID)

	_, err = items.Move(ctx, mixer.ID, owner.ID, MoveInput{LocationID: &foreign.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	clock.Advance(time.Minute)
	_, err = items.Move(ctx, mixer.ID, owner.ID, MoveInput{Reason: "lent_out"})
	require.NoError(t, err)

	history, err := items.LocationHistory(ctx, mixer.ID, owner.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "lent_out", history[0].Reason)
	assert.Nil(t, history[0].ToLocationID)
	assert.Equal(t, models.DefaultMoveReason, history[1].Reason)
	require.NotNil(t, history[1].FromLocationID)
	assert.Equal(t, kitchen.ID, *history[1].FromLocationID)
	assert.Equal(t, "winter storage", history[1].Notes)
	assert.Equal(t, owner.ID, history[1].MovedBy)

	_, err = items.LocationHistory(ctx, mixer.ID, other.ID, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	next := trackerNow.AddDate(0, 6, 0)
	entry, err := items.RecordMaintenance(ctx, mixer.ID, owner.ID, MaintenanceInput{
		MaintenanceType: "cleaning", Cost: ptr(int64(1500)), NextDueDate: &next,
	})
	require.NoError(t, err)
	assert.True(t, entry.PerformedDate.Equal(clock.now))

	_, err = items.RecordMaintenance(ctx, mixer.ID, other.ID, MaintenanceInput{MaintenanceType: "theft"})
	assert.ErrorIs(t, err, ErrNotFound)

	log, err := items.MaintenanceHistory(ctx, mixer.ID, owner.ID, 0)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "cleaning", log[0].MaintenanceType)

	reloaded, err := items.Get(ctx, mixer.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.NextMaintenanceDate)
	assert.True(t, reloaded.NextMaintenanceDate.Equal(next))
	require.NotNil(t, reloaded.LastUsedAt)

	due, err := items.NeedingMaintenance(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, due)
	clock.Advance(200 * 24 * time.Hour)
	due, err = items.NeedingMaintenance(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, due, 1)

	byBarcode, err := items.ByBarcode(ctx, owner.ID, "5012345678900")
	require.NoError(t, err)
	assert.Equal(t, mixer.ID, byBarcode.ID)
	_, err = items.ByBarcode(ctx, other.ID, "5012345678900")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = items.ByCustomID(ctx, owner.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
	byCustom, err := items.ByCustomID(ctx, owner.ID, "INV-7")
	require.NoError(t, err)
	assert.Equal(t, mixer.ID, byCustom.ID)
}

func TestItemFlagsAndQueries(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	owner, _ := twoUsers(t, db)
	ctx := context.Background()
	items := NewItemService(db, testutil.FixedClock(trackerNow))

	tent, err := items.Create(ctx, owner.ID, ItemInput{
		Name: "Tent", Category: "outdoor", SearchKeywords: "camping shelter",
		WarrantyExpiresAt: ptr(trackerNow.AddDate(0, 0, 10)),
	})
	require.NoError(t, err)
	stove, err := items.Create(ctx, owner.ID, ItemInput{
		Name: "Stove", Category: "outdoor", WarrantyExpiresAt: ptr(trackerNow.AddDate(1, 0, 0)),
	})
	require.NoError(t, err)

	outdoor, err := items.List(ctx, owner.ID, ItemFilter{Category: "outdoor"})
	require.NoError(t, err)
	assert.Len(t, outdoor, 2)

	found, err := items.List(ctx, owner.ID, ItemFilter{Search: "camping"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, tent.ID, found[0].ID)

	warranty, err := items.WarrantyExpiring(ctx, owner.ID, 0)
	require.NoError(t, err)
	require.Len(t, warranty, 1)
	assert.Equal(t, tent.ID, warranty[0].ID)

	lost, err := items.ToggleLost(ctx, tent.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, lost.IsLost)
	broken, err := items.ToggleBroken(ctx, stove.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, broken.IsBroken)
	fav, err := items.ToggleFavorite(ctx, stove.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, fav.IsFavorite)

	for name, fn := range map[string]func(context.Context, uuid.UUID) ([]models.Item, error){
		"lost":      items.Lost,
		"broken":    items.Broken,
		"favorites": items.Favorites,
	} {
		got, err := fn(ctx, owner.ID)
		require.NoError(t, err, name)
		assert.Len(t, got, 1, name)
	}
	lent, err := items.Lent(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, lent)

	cleared, err := items.Update(ctx, tent.ID, owner.ID, ItemUpdate{
		Notes:             ptr("patched"),
		WarrantyExpiresAt: Null[time.Time](),
		PurchasePrice:     Some(int64(12999)),
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.WarrantyExpiresAt)
	require.NotNil(t, cleared.PurchasePrice)
	assert.EqualValues(t, 12999, *cleared.PurchasePrice)

	_, err = items.Archive(ctx, stove.ID, owner.ID)
	require.NoError(t, err)
	active, err := items.List(ctx, owner.ID, ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, items.Delete(ctx, tent.ID, owner.ID))
	assert.ErrorIs(t, items.Delete(ctx, tent.ID, owner.ID), ErrNotFound)
}

func TestLendingLifecycle(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	owner, other := twoUsers(t, db)
	ctx := context.Background()
	clock := &stepClock{now: trackerNow}
	items := NewItemService(db, clock.Now)
	lendings := NewLendingService(db, clock.Now)

	ladder, err := items.Create(ctx, owner.ID, ItemInput{Name: "Ladder"})
	require.NoError(t, err)
	camera, err := items.Create(ctx, owner.ID, ItemInput{Name: "Camera"})
	require.NoError(t, err)

	_, err = lendings.Create(ctx, other.ID, LendingInput{ItemID: ladder.ID, BorrowerName: "Mallory"})
	assert.ErrorIs(t, err, ErrNotFound)

	due := trackerNow.AddDate(0, 0, 3)
	first, err := lendings.Create(ctx, owner.ID, LendingInput{
		ItemID: ladder.ID, BorrowerName: "Bob", BorrowerEmail: "bob@example.com", ExpectedReturnDate: &due,
	})
	require.NoError(t, err)
	assert.Equal(t, models.LendingActive, first.Status)
	assert.True(t, first.LentDate.Equal(trackerNow))

	_, err = lendings.Create(ctx, owner.ID, LendingInput{ItemID: ladder.ID, BorrowerName: "Carol"})
	assert.ErrorIs(t, err, ErrConflict)

	lentItem, err := items.Get(ctx, ladder.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, lentItem.IsLent)

	name, err := lendings.ItemName(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Ladder", name)

	reminded, err := lendings.SendReminder(ctx, first.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, reminded.ReminderSent)
	require.NotNil(t, reminded.LastReminderDate)

	marked, err := lendings.CheckOverdue(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, marked)

	clock.Advance(4 * 24 * time.Hour)
	marked, err = lendings.CheckOverdue(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, marked)
	marked, err = lendings.CheckOverdue(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, marked, 1)
	assert.Equal(t, models.LendingOverdue, marked[0].Status)

	overdue, err := lendings.Overdue(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, overdue, 1)

	returned, err := lendings.Return(ctx, first.ID, owner.ID, ReturnInput{ConditionWhenReturned: "scuffed"})
	require.NoError(t, err)
	assert.Equal(t, models.LendingReturned, returned.Status)
	assert.False(t, returned.IsOverdue)
	require.NotNil(t, returned.ActualReturnDate)
	assert.Equal(t, "scuffed", returned.ConditionWhenReturned)

	freed, err := items.Get(ctx, ladder.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, freed.IsLent)

	second, err := lendings.Create(ctx, owner.ID, LendingInput{ItemID: camera.ID, BorrowerName: "Dave", Purpose: "wedding"})
	require.NoError(t, err)
	lostLending, err := lendings.MarkLost(ctx, second.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LendingLost, lostLending.Status)
	lostItem, err := items.Get(ctx, camera.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, lostItem.IsLost)
	assert.False(t, lostItem.IsLent)

	third, err := lendings.Create(ctx, owner.ID, LendingInput{ItemID: ladder.ID, BorrowerName: "Erin"})
	require.NoError(t, err)
	updated, err := lendings.Update(ctx, third.ID, owner.ID, LendingUpdate{BorrowerPhone: ptr("555-0100")})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", updated.BorrowerPhone)
	overdueNow, err := lendings.MarkOverdue(ctx, third.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, overdueNow.IsOverdue)

	stats, err := lendings.Stats(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, &LendingStats{Total: 3, Overdue: 1, Returned: 1, Lost: 1}, stats)

	active, err := lendings.Active(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	search, err := lendings.List(ctx, owner.ID, LendingFilter{Search: "wedding"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, second.ID, search[0].ID)

	byItem, err := lendings.List(ctx, owner.ID, LendingFilter{ItemID: &ladder.ID})
	require.NoError(t, err)
	assert.Len(t, byItem, 2)

	assert.ErrorIs(t, lendings.Delete(ctx, third.ID, other.ID), ErrNotFound)
	require.NoError(t, lendings.Delete(ctx, third.ID, owner.ID))
	released, err := items.Get(ctx, ladder.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, released.IsLent)
}

func TestCheckAllOverdue(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	owner, other := twoUsers(t, db)
	ctx := context.Background()
	clock := &stepClock{now: trackerNow}
	items := NewItemService(db, clock.Now)
	lendings := NewLendingService(db, clock.Now)

	past := trackerNow.Add(-time.Hour)
	for _, u := range []*models.User{owner, other} {
		item, err := items.Create(ctx, u.ID, ItemInput{Name: "Book"})
		require.NoError(t, err)
		_, err = lendings.Create(ctx, u.ID, LendingInput{ItemID: item.ID, BorrowerName: "Friend", ExpectedReturnDate: &past})
		require.NoError(t, err)
	}
	spare, err := items.Create(ctx, owner.ID, ItemInput{Name: "Umbrella"})
	require.NoError(t, err)
	_, err = lendings.Create(ctx, owner.ID, LendingInput{ItemID: spare.ID, BorrowerName: "Neighbour"})
	require.NoError(t, err)

	updated, err := lendings.CheckAllOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	updated, err = lendings.CheckAllOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestClosedLendingCannotTransition(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	owner, _ := twoUsers(t, db)
	ctx := context.Background()
	clock := &stepClock{now: trackerNow}
	items := NewItemService(db, clock.Now)
	lendings := NewLendingService(db, clock.Now)

	drill, err := items.Create(ctx, owner.ID, ItemInput{Name: "Drill"})
	require.NoError(t, err)

	old, err := lendings.Create(ctx, owner.ID, LendingInput{ItemID: drill.ID, BorrowerName: "Bob"})
	require.NoError(t, err)
	_, err = lendings.Return(ctx, old.ID, owner.ID, ReturnInput{})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	current, err := lendings.Create(ctx, owner.ID, LendingInput{ItemID: drill.ID, BorrowerName: "Carol"})
	require.NoError(t, err)

	_, err = lendings.Return(ctx, old.ID, owner.ID, ReturnInput{})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = lendings.MarkLost(ctx, old.ID, owner.ID)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = lendings.MarkOverdue(ctx, old.ID, owner.ID)
	assert.ErrorIs(t, err, ErrConflict)

	item, err := items.Get(ctx, drill.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, item.IsLent, "the newer lending still holds the item")
	assert.False(t, item.IsLost)

	stale, err := lendings.Get(ctx, old.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LendingReturned, stale.Status)
	assert.False(t, stale.IsOverdue)

	_, err = lendings.Create(ctx, owner.ID, LendingInput{ItemID: drill.ID, BorrowerName: "Dave"})
	assert.ErrorIs(t, err, ErrConflict)
	active, err := lendings.List(ctx, owner.ID, LendingFilter{ItemID: &drill.ID, Status: models.LendingActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, current.ID, active[0].ID)

	overdue, err := lendings.MarkOverdue(ctx, current.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LendingOverdue, overdue.Status)
	returned, err := lendings.Return(ctx, current.ID, owner.ID, ReturnInput{})
	require.NoError(t, err)
	assert.Equal(t, models.LendingReturned, returned.Status)

	_, err = lendings.Return(ctx, uuid.New(), owner.ID, ReturnInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}
