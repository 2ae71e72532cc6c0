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
	"gorm.io/gorm"
)

var trackerNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func twoUsers(t *testing.T, db *gorm.DB) (owner, other *models.User) {
	t.Helper()
	return testutil.CreateUser(t, db, "owner@example.com", "x"), testutil.CreateUser(t, db, "other@example.com", "x")
}

func ptr[T any](v T) *T { return &v }

func TestBoardLifecycle(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	owner, other := twoUsers(t, db)
	ctx := context.Background()
	boards := NewBoardService(db, testutil.FixedClock(trackerNow))
	tasks := NewTaskService(db, testutil.FixedClock(trackerNow))

	work, err := boards.Create(ctx, owner.ID, BoardInput{Name: "Work", SortOrder: 2})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultColor, work.Color)
	home, err := boards.Create(ctx, owner.ID, BoardInput{Name: "Home", Color: "#112233", SortOrder: 1})
	require.NoError(t, err)

	list, err := boards.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, home.ID, list[0].ID)

	_, err = boards.Get(ctx, work.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = boards.Update(ctx, work.ID, other.ID, BoardUpdate{Name: ptr("Stolen")})
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := boards.Update(ctx, work.ID, owner.ID, BoardUpdate{Name: ptr("Office")})
	require.NoError(t, err)
	assert.Equal(t, "Office", updated.Name)

	require.NoError(t, boards.Reorder(ctx, owner.ID, []SortOrder{{ID: work.ID, SortOrder: 0}, {ID: home.ID, SortOrder: 5}}))
	list, err = boards.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, work.ID, list[0].ID)

	archived, err := boards.Archive(ctx, home.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)
	list, err = boards.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	task, err := tasks.Create(ctx, owner.ID, TaskInput{BoardID: &work.ID, Title: "Report"})
	require.NoError(t, err)
	require.NoError(t, boards.Delete(ctx, work.ID, owner.ID))

	moved, err := tasks.Get(ctx, task.ID, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, moved.BoardID)
	assert.ErrorIs(t, boards.Delete(ctx, work.ID, owner.ID), ErrNotFound)
}

func TestTaskLifecycle(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	owner, other := twoUsers(t, db)
	ctx := context.Background()
	boards := NewBoardService(db, testutil.FixedClock(trackerNow))
	tasks := NewTaskService(db, testutil.FixedClock(trackerNow))

	board, err := boards.Create(ctx, owner.ID, BoardInput{Name: "Errands"})
	require.NoError(t, err)
	foreign, err := boards.Create(ctx, other.ID, BoardInput{Name: "Theirs"})
	require.NoError(t, err)

	_, err = tasks.Create(ctx, owner.ID, TaskInput{BoardID: &foreign.ID, Title: "Sneaky"})
	assert.ErrorIs(t, err, ErrNotFound)

	inbox, err := tasks.Create(ctx, owner.ID, TaskInput{Title: "Call plumber", Tags: []string{"home"}})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusTodo, inbox.Status)
	assert.Equal(t, models.PriorityMedium, inbox.Priority)
	assert.Nil(t, inbox.CompletedAt)

	late, err := tasks.Create(ctx, owner.ID, TaskInput{
		BoardID: &board.ID, Title: "Renew passport", DueDate: ptr(trackerNow.Add(-24 * time.Hour)),
	})
	require.NoError(t, err)
	_, err = tasks.Create(ctx, owner.ID, TaskInput{
		BoardID: &board.ID, Title: "Buy milk", Status: models.TaskStatusDone, DueDate: ptr(trackerNow.Add(-48 * time.Hour)),
	})
	require.NoError(t, err)

	got, err := tasks.Inbox(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inbox.ID, got[0].ID)
	assert.Equal(t, models.StringList{"home"}, got[0].Tags)

	overdue, err := tasks.Overdue(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)

	onBoard, err := tasks.List(ctx, owner.ID, TaskFilter{BoardID: &board.ID, Status: models.TaskStatusDone})
	require.NoError(t, err)
	assert.Len(t, onBoard, 1)

	found, err := tasks.List(ctx, owner.ID, TaskFilter{Search: "PASSPORT"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, late.ID, found[0].ID)

	theirs, err := tasks.List(ctx, other.ID, TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, theirs)

	done, err := tasks.Complete(ctx, late.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDone, done.Status)
	require.NotNil(t, done.CompletedAt)

	reopened, err := tasks.Update(ctx, late.ID, owner.ID, TaskUpdate{
		Status:  ptr(models.TaskStatusInProgress),
		BoardID: Null[uuid.UUID](),
		DueDate: Null[time.Time](),
	})
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)
	assert.Nil(t, reopened.BoardID)
	assert.Nil(t, reopened.DueDate)

	_, err = tasks.Update(ctx, late.ID, owner.ID, TaskUpdate{BoardID: Some(foreign.ID)})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, tasks.Reorder(ctx, owner.ID, &board.ID, []SortOrder{{ID: inbox.ID, SortOrder: 3}}))
	moved, err := tasks.Get(ctx, inbox.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.BoardID)
	assert.Equal(t, board.ID, *moved.BoardID)
	assert.Equal(t, 3, moved.SortOrder)

	_, err = tasks.Archive(ctx, inbox.ID, owner.ID)
	require.NoError(t, err)
	all, err := tasks.List(ctx, owner.ID, TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, tasks.Delete(ctx, inbox.ID, other.ID), ErrNotFound)
	require.NoError(t, tasks.Delete(ctx, inbox.ID, owner.ID))
}

func TestJournalQueries(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	owner, other := twoUsers(t, db)
	ctx := context.Background()
	journals := NewJournalService(db, testutil.FixedClock(trackerNow))

	day := func(d int) time.Time { return time.Date(2025, 6, d, 8, 0, 0, 0, time.UTC) }
	entries := []JournalInput{
		{Date: day(1), Title: "Start", Mood: "happy", EnergyLevel: ptr(8), ProductivityScore: ptr(6)},
		{Date: day(10), Title: "Rainy", Mood: "tired", EnergyLevel: ptr(4), Content: "stayed in"},
		{Date: day(14), Title: "Hike", Mood: "happy", EnergyLevel: ptr(9), ProductivityScore: ptr(4)},
	}
	var created []*models.Journal
	for _, in := range entries {
		j, err := journals.Create(ctx, owner.ID, in)
		require.NoError(t, err)
		created = append(created, j)
	}
	_, err := journals.Create(ctx, other.ID, JournalInput{Date: day(14), Mood: "angry"})
	require.NoError(t, err)

	list, err := journals.List(ctx, owner.ID, "", 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Hike", list[0].Title)

	list, err = journals.List(ctx, owner.ID, "stayed", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Rainy", list[0].Title)

	onDay, err := journals.ByDate(ctx, owner.ID, day(14))
	require.NoError(t, err)
	require.Len(t, onDay, 1)
	assert.Equal(t, created[2].ID, onDay[0].ID)

	ranged, err := journals.Range(ctx, owner.ID, day(1), day(10))
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	recent, err := journals.Recent(ctx, owner.ID, 7)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	happy, err := journals.ByMood(ctx, owner.ID, "happy")
	require.NoError(t, err)
	assert.Len(t, happy, 2)

	stats, err := journals.Stats(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalEntries)
	require.NotNil(t, stats.AverageEnergyLevel)
	assert.InDelta(t, 7.0, *stats.AverageEnergyLevel, 0.001)
	require.NotNil(t, stats.AverageProductivityScore)
	assert.InDelta(t, 5.0, *stats.AverageProductivityScore, 0.001)
	require.NotNil(t, stats.MostCommonMood)
	assert.Equal(t, "happy", *stats.MostCommonMood)

	empty, err := journals.Stats(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, empty.TotalEntries)
	assert.Nil(t, empty.MostCommonMood)

	updated, err := journals.Update(ctx, created[1].ID, owner.ID, JournalUpdate{
		Mood:        ptr("calm"),
		EnergyLevel: Null[int](),
		Tags:        &[]string{"rest"},
	})
	require.NoError(t, err)
	assert.Equal(t, "calm", updated.Mood)
	assert.Nil(t, updated.EnergyLevel)
	assert.Equal(t, models.StringList{"rest"}, updated.Tags)

	_, err = journals.Get(ctx, created[0].ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, journals.Delete(ctx, created[0].ID, owner.ID))
	assert.ErrorIs(t, journals.Delete(ctx, created[0].ID, owner.ID), ErrNotFound)
}
