package services

import (
	"context"
	"strings"
	"testing"

	"lifelog/backend/internal/models"
	"lifelog/backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadingStats(t *testing.T) {
	tests := []struct {
		name    string
		content string
		words   int
		minutes int
	}{
		{"empty", "", 0, 0},
		{"whitespace only", " \n\t ", 0, 0},
		{"short", "one two three", 3, 1},
		{"exactly one minute", strings.Repeat("word ", 200), 200, 1},
		{"rounds up", strings.Repeat("word ", 201), 201, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words, minutes := ReadingStats(tt.content)
			assert.Equal(t, tt.words, words)
			assert.Equal(t, tt.minutes, minutes)
		})
	}
}

func TestExcerptOf(t *testing.T) {
	assert.Equal(t, "a b c", excerptOf("a\n  b\tc"))
	long := excerptOf(strings.Repeat("é", 250))
	assert.Equal(t, excerptLength+3, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, "..."))
}

func tagNames(tags []models.Tag) []string {
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return names
}

func TestNotebookTree(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	owner, other := twoUsers(t, db)
	ctx := context.Background()
	notebooks := NewNotebookService(db, testutil.FixedClock(trackerNow))
	notes := NewNoteService(db, testutil.FixedClock(trackerNow))

	root, err := notebooks.Create(ctx, owner.ID, NotebookInput{Name: "Projects"})
	require.NoError(t, err)
	child, err := notebooks.Create(ctx, owner.ID, NotebookInput{Name: "LifeLog", ParentID: &root.ID})
	require.NoError(t, err)
	_, err = notebooks.Create(ctx, other.ID, NotebookInput{Name: "Intrusion", ParentID: &root.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	roots, err := notebooks.Root(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, root.ID, roots[0].ID)

	children, err := notebooks.Children(ctx, owner.ID, root.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)

	_, err = notebooks.Update(ctx, root.ID, owner.ID, NotebookUpdate{ParentID: Some(root.ID)})
	assert.ErrorIs(t, err, ErrConflict)

	detached, err := notebooks.Update(ctx, child.ID, owner.ID, NotebookUpdate{ParentID: Null[uuid.UUID]()})
	require.NoError(t, err)
	assert.Nil(t, detached.ParentID)

	require.NoError(t, notebooks.Reorder(ctx, owner.ID, &root.ID, []SortOrder{{ID: child.ID, SortOrder: 4}, {ID: root.ID, SortOrder: 9}}))
	reparented, err := notebooks.Get(ctx, child.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, reparented.ParentID)
	assert.Equal(t, root.ID, *reparented.ParentID)
	assert.Equal(t, 4, reparented.SortOrder)
	self, err := notebooks.Get(ctx, root.ID, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, self.ParentID)

	note, err := notes.Create(ctx, owner.ID, NoteInput{NotebookID: &root.ID, Title: "Ideas"})
	require.NoError(t, err)

	require.NoError(t, notebooks.Delete(ctx, root.ID, owner.ID))
	orphan, err := notebooks.Get(ctx, child.ID, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, orphan.ParentID)
	kept, err := notes.Get(ctx, note.ID, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.NotebookID)

	_, err = notebooks.Archive(ctx, child.ID, owner.ID)
	require.NoError(t, err)
	all, err := notebooks.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNoteTagsAndViews(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	owner, other := twoUsers(t, db)
	ctx := context.Background()
	notes := NewNoteService(db, testutil.FixedClock(trackerNow))
	tags := NewTagService(db, testutil.FixedClock(trackerNow))

	first, err := notes.Create(ctx, owner.ID, NoteInput{
		Title:   "Go tips",
		Content: "Accept interfaces, return structs.",
		Tags:    []string{"go", "style", " "},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, first.WordCount)
	assert.Equal(t, 1, first.ReadingTime)
	assert.Equal(t, "Accept interfaces, return structs.", first.Excerpt)
	assert.Equal(t, []string{"go", "style"}, tagNames(first.Tags))

	second, err := notes.Create(ctx, owner.ID, NoteInput{Title: "Shopping", Tags: []string{"go"}, IsPinned: true})
	require.NoError(t, err)

	goTag, err := tags.GetByName(ctx, owner.ID, "go")
	require.NoError(t, err)
	assert.Equal(t, 2, goTag.UsageCount)

	byTag, err := notes.ByTag(ctx, owner.ID, goTag.ID)
	require.NoError(t, err)
	require.Len(t, byTag, 2)
	assert.Equal(t, second.ID, byTag[0].ID, "pinned notes come first")

	found, err := notes.List(ctx, owner.ID, NoteFilter{Search: "INTERFACES"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, first.ID, found[0].ID)

	updated, err := notes.Update(ctx, first.ID, owner.ID, NoteUpdate{
		Content: ptr("Short now"),
		Tags:    &[]string{"style", "testing"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.WordCount)
	assert.Equal(t, "Short now", updated.Excerpt)
	assert.Equal(t, []string{"style", "testing"}, tagNames(updated.Tags))

	goTag, err = tags.GetByName(ctx, owner.ID, "go")
	require.NoError(t, err)
	assert.Equal(t, 1, goTag.UsageCount)

	viewed, err := notes.Get(ctx, first.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, viewed.ViewCount)
	require.NotNil(t, viewed.LastViewedAt)
	_, err = notes.Get(ctx, first.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	fav, err := notes.ToggleFavorite(ctx, first.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, fav.IsFavorite)
	favorites, err := notes.Favorites(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, favorites, 1)

	unpinned, err := notes.TogglePin(ctx, second.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, unpinned.IsPinned)
	pinned, err := notes.Pinned(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, pinned)

	require.NoError(t, notes.Delete(ctx, second.ID, owner.ID))
	goTag, err = tags.GetByName(ctx, owner.ID, "go")
	require.NoError(t, err)
	assert.Zero(t, goTag.UsageCount)
	assert.ErrorIs(t, notes.Delete(ctx, second.ID, owner.ID), ErrNotFound)

	popular, err := tags.Popular(ctx, owner.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"style", "testing"}, tagNames(popular))

	_, err = notes.Archive(ctx, first.ID, owner.ID)
	require.NoError(t, err)
	active, err := notes.List(ctx, owner.ID, NoteFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestTagCRUD(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	owner, other := twoUsers(t, db)
	ctx := context.Background()
	tags := NewTagService(db, testutil.FixedClock(trackerNow))
	notes := NewNoteService(db, testutil.FixedClock(trackerNow))

	work, err := tags.Create(ctx, owner.ID, TagInput{Name: " work ", Description: "day job"})
	require.NoError(t, err)
	assert.Equal(t, "work", work.Name)
	assert.Equal(t, models.DefaultColor, work.Color)

	_, err = tags.Create(ctx, owner.ID, TagInput{Name: "work"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = tags.Create(ctx, other.ID, TagInput{Name: "work"})
	require.NoError(t, err, "tag names are unique per user")

	home, err := tags.Create(ctx, owner.ID, TagInput{Name: "home", Color: "#00ff00"})
	require.NoError(t, err)
	_, err = tags.Update(ctx, home.ID, owner.ID, TagUpdate{Name: ptr("work")})
	assert.ErrorIs(t, err, ErrConflict)
	renamed, err := tags.Update(ctx, home.ID, owner.ID, TagUpdate{Name: ptr("house")})
	require.NoError(t, err)
	assert.Equal(t, "house", renamed.Name)

	found, err := tags.List(ctx, owner.ID, "job")
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, tagNames(found))

	note, err := notes.Create(ctx, owner.ID, NoteInput{Title: "Standup", Tags: []string{"work"}})
	require.NoError(t, err)

	assert.ErrorIs(t, tags.Delete(ctx, work.ID, other.ID), ErrNotFound)
	require.NoError(t, tags.Delete(ctx, work.ID, owner.ID))
	_, err = tags.Get(ctx, work.ID, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	reloaded, err := notes.Get(ctx, note.ID, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Tags)
}
