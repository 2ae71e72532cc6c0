package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"lifelog/backend/internal/models"
	"lifelog/backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("S3cretPass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "S3cretPass"))
	assert.False(t, CheckPassword(hash, "s3cretpass"))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	_, err = HashPassword("S3cretPass", 99)
	require.NoError(t, err, "an out-of-range cost falls back to the default")
}

func newAuthFixture(t *testing.T, clock Clock) (*AuthService, *SessionService) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	sessions := NewSessionService(db, clock, time.Hour)
	return NewAuthService(NewUserService(db, clock), sessions, bcrypt.MinCost), sessions
}

func TestRegisterAndSignIn(t *testing.T) {
	ctx := context.Background()
	auth, sessions := newAuthFixture(t, nil)

	user, session, err := auth.Register(ctx, RegisterInput{
		Email: " ana@example.com ", Password: "Passw0rdOne", FirstName: " Ana ", IPAddress: "203.0.113.5",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "Ana", user.FirstName)
	assert.NotEqual(t, "Passw0rdOne", user.PasswordHash)
	assert.Len(t, session.ID, 64)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "203.0.113.5", session.IPAddress)

	_, _, err = auth.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "Passw0rdTwo"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, _, err = auth.SignIn(ctx, "ana@example.com", "wrong", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = auth.SignIn(ctx, "nobody@example.com", "Passw0rdOne", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	signedIn, second, err := auth.SignIn(ctx, "ana@example.com", "Passw0rdOne", "", "ua")
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)
	assert.NotEqual(t, session.ID, second.ID)

	require.NoError(t, auth.SignOut(ctx, second.ID))
	_, err = sessions.Validate(ctx, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = sessions.Validate(ctx, session.ID)
	assert.NoError(t, err)
	assert.NoError(t, auth.SignOut(ctx, "unknown"), "revoking an unknown session is not an error")
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: trackerNow}
	auth, sessions := newAuthFixture(t, clock.Now)

	user, session, err := auth.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "Passw0rdOne"})
	require.NoError(t, err)
	assert.True(t, session.ExpiresAt.Equal(trackerNow.Add(time.Hour)))

	clock.Advance(time.Hour - time.Second)
	_, err = sessions.Validate(ctx, session.ID)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = sessions.Validate(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)

	live, err := sessions.Create(ctx, user.ID, "", "")
	require.NoError(t, err)
	removed, err := sessions.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
	_, err = sessions.Validate(ctx, live.ID)
	assert.NoError(t, err)

	_, err = sessions.Create(ctx, user.ID, "", "")
	require.NoError(t, err)
	revoked, err := sessions.RevokeAllForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, revoked)
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	users := NewUserService(db, testutil.FixedClock(trackerNow))
	user := testutil.CreateUser(t, db, "ana@example.com", "hash")

	got, err := users.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	_, err = users.GetByEmail(ctx, "ANA@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	profile, err := users.UpdateProfile(ctx, user.ID, ptr("Ana"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Ana", profile.FirstName)
	assert.Equal(t, "User", profile.LastName)
	assert.True(t, profile.UpdatedAt.Equal(trackerNow))

	require.NoError(t, users.UpdatePasswordHash(ctx, user.ID, "new-hash"))
	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, "new-hash", reloaded.PasswordHash)

	rollback := errors.New("rolled back")
	err = db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, users.WithTx(tx).UpdatePasswordHash(ctx, user.ID, "discarded"))
		return rollback
	})
	require.ErrorIs(t, err, rollback)
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, "new-hash", reloaded.PasswordHash)

	missing := testutil.CreateUser(t, db, "gone@example.com", "hash")
	require.NoError(t, db.Delete(&models.User{}, "id = ?", missing.ID).Error)
	assert.ErrorIs(t, users.UpdatePasswordHash(ctx, missing.ID, "x"), ErrNotFound)
	_, err = users.GetByID(ctx, missing.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserServiceStorageError(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	boom := errors.New("db down")
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).WillReturnError(boom)

	err := NewUserService(db, nil).Create(context.Background(), &models.User{Email: "a@example.com"})
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOptionalUnmarshal(t *testing.T) {
	var payload struct {
		Due  Optional[time.Time] `json:"due"`
		Size Optional[int]       `json:"size"`
		Note Optional[string]    `json:"note"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"due": null, "size": 4}`), &payload))
	assert.True(t, payload.Due.Set)
	assert.Nil(t, payload.Due.Value)
	require.True(t, payload.Size.Set)
	assert.Equal(t, 4, *payload.Size.Value)
	assert.False(t, payload.Note.Set)

	updates := map[string]interface{}{}
	setOptional(updates, "due", payload.Due)
	setOptional(updates, "size", payload.Size)
	setOptional(updates, "note", payload.Note)
	assert.Equal(t, map[string]interface{}{"due": nil, "size": 4}, updates)
}

func TestLikePatternEscapes(t *testing.T) {
	assert.Equal(t, `%50\% off%`, likePattern(" 50% OFF "))
	assert.Equal(t, `%a\_b%`, likePattern("a_b"))
}
