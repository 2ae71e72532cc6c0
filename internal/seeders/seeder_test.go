package seeders

import (
	"context"
	"testing"

	"lifelog/backend/internal/models"
	"lifelog/backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedDemoData(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	account := DemoAccount{Email: "demo@lifelog.local", Password: "DemoPassw0rd", BcryptCost: bcrypt.MinCost}

	user, created, err := SeedDemoData(ctx, db, account)
	require.NoError(t, err)
	assert.True(t, created)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("DemoPassw0rd")))

	counts := map[string]interface{}{
		"boards":    &models.Board{},
		"tasks":     &models.Task{},
		"journals":  &models.Journal{},
		"notebooks": &models.Notebook{},
		"notes":     &models.Note{},
		"locations": &models.Location{},
		"items":     &models.Item{},
	}
	want := map[string]int64{"boards": 1, "tasks": 3, "journals": 1, "notebooks": 1, "notes": 1, "locations": 2, "items": 1}
	for name, model := range counts {
		var n int64
		require.NoError(t, db.Model(model).Where("user_id = ?", user.ID).Count(&n).Error)
		assert.Equal(t, want[name], n, name)
	}

	again, created, err := SeedDemoData(ctx, db, account)
	require.NoError(t, err)
	assert.False(t, created, "a second run leaves the data alone")
	assert.Equal(t, user.ID, again.ID)

	var tasks int64
	require.NoError(t, db.Model(&models.Task{}).Count(&tasks).Error)
	assert.EqualValues(t, 3, tasks)
}
