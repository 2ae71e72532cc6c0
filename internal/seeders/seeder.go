package seeders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifelog/backend/internal/models"
	"lifelog/backend/internal/services"
	applog "lifelog/backend/pkg/log"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DemoAccount describes the development login SeedDemoData creates.
type DemoAccount struct {
	Email      string
	Password   string
	BcryptCost int
}

// SeedDemoData fills a fresh database with one account and a little content in every module.
// It does nothing when the account already exists, so it is safe to run repeatedly.
func SeedDemoData(ctx context.Context, db *gorm.DB, account DemoAccount) (*models.User, bool, error) {
	log := applog.L.Named("SeedDemoData")
	users := services.NewUserService(db, nil)

	existing, err := users.GetByEmail(ctx, account.Email)
	if err == nil {
		log.Info("Demo account already present; skipping", zap.String("email", account.Email))
		return existing, false, nil
	}
	if !errors.Is(err, services.ErrNotFound) {
		return nil, false, fmt.Errorf("look up demo account: %w", err)
	}

	hash, err := services.HashPassword(account.Password, account.BcryptCost)
	if err != nil {
		return nil, false, err
	}
	user := &models.User{Email: account.Email, PasswordHash: hash, FirstName: "Demo", LastName: "User"}
	if err := users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create demo account: %w", err)
	}

	seeders := []struct {
		name string
		run  func(context.Context, *gorm.DB, *models.User) error
	}{
		{"day tracker", seedDayTracker},
		{"knowledge base", seedKnowledge},
		{"inventory", seedInventory},
	}
	for _, s := range seeders {
		if err := s.run(ctx, db, user); err != nil {
			log.Error("Demo seeding failed", zap.String("module", s.name), zap.Error(err))
			return nil, false, fmt.Errorf("seed %s: %w", s.name, err)
		}
	}
	log.Info("Demo data seeded", zap.String("email", user.Email), zap.String("userID", user.ID.String()))
	return user, true, nil
}

func seedDayTracker(ctx context.Context, db *gorm.DB, user *models.User) error {
	board, err := services.NewBoardService(db, nil).Create(ctx, user.ID, services.BoardInput{Name: "Home", Color: "#4f46e5"})
	if err != nil {
		return err
	}
	tasks := services.NewTaskService(db, nil)
	due := time.Now().UTC().AddDate(0, 0, 3).Truncate(24 * time.Hour)
	for i, in := range []services.TaskInput{
		{BoardID: &board.ID, Title: "Fix the garden gate", Priority: models.PriorityHigh, DueDate: &due},
		{BoardID: &board.ID, Title: "Book dentist appointment", Tags: []string{"health"}},
		{Title: "Read inbox zero article"},
	} {
		in.SortOrder = i
		if _, err := tasks.Create(ctx, user.ID, in); err != nil {
			return err
		}
	}
	energy := 7
	_, err = services.NewJournalService(db, nil).Create(ctx, user.ID, services.JournalInput{
		Date:        time.Now().UTC().Truncate(24 * time.Hour),
		Title:       "First entry",
		Content:     "Started using LifeLog today.",
		Mood:        "happy",
		EnergyLevel: &energy,
	})
	return err
}

func seedKnowledge(ctx context.Context, db *gorm.DB, user *models.User) error {
	notebook, err := services.NewNotebookService(db, nil).Create(ctx, user.ID, services.NotebookInput{Name: "Recipes"})
	if err != nil {
		return err
	}
	_, err = services.NewNoteService(db, nil).Create(ctx, user.ID, services.NoteInput{
		NotebookID: &notebook.ID,
		Title:      "Pancakes",
		Content:    "200g flour, 2 eggs, 300ml milk. Rest the batter for 30 minutes.",
		IsPinned:   true,
		Tags:       []string{"breakfast"},
	})
	return err
}

func seedInventory(ctx context.Context, db *gorm.DB, user *models.User) error {
	locations := services.NewLocationService(db, nil)
	house, err := locations.Create(ctx, user.ID, services.LocationInput{Name: "House", LocationType: "building"})
	if err != nil {
		return err
	}
	garage, err := locations.Create(ctx, user.ID, services.LocationInput{ParentID: &house.ID, Name: "Garage", LocationType: "room"})
	if err != nil {
		return err
	}
	_, err = services.NewItemService(db, nil).Create(ctx, user.ID, services.ItemInput{
		LocationID: &garage.ID,
		Name:       "Cordless drill",
		Brand:      "Bosch",
		Category:   "tools",
	})
	return err
}
