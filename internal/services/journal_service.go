package services

import (
	"context"
	"fmt"
	"time"

	"lifelog/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultJournalLimit = 50
	DefaultRecentDays   = 7
)

type JournalInput struct {
	Date              time.Time `json:"date" binding:"required"`
	Title             string    `json:"title" binding:"max=255"`
	Content           string    `json:"content"`
	Mood              string    `json:"mood" binding:"max=50"`
	EnergyLevel       *int      `json:"energyLevel" binding:"omitempty,min=1,max=10"`
	ProductivityScore *int      `json:"productivityScore" binding:"omitempty,min=1,max=10"`
	Tags              []string  `json:"tags"`
	Weather           string    `json:"weather" binding:"max=100"`
	Gratitude         string    `json:"gratitude"`
	Goals             string    `json:"goals"`
	Reflections       string    `json:"reflections"`
}

type JournalUpdate struct {
	Date              *time.Time    `json:"date"`
	Title             *string       `json:"title" binding:"omitempty,max=255"`
	Content           *string       `json:"content"`
	Mood              *string       `json:"mood" binding:"omitempty,max=50"`
	EnergyLevel       Optional[int] `json:"energyLevel"`
	ProductivityScore Optional[int] `json:"productivityScore"`
	Tags              *[]string     `json:"tags"`
	Weather           *string       `json:"weather" binding:"omitempty,max=100"`
	Gratitude         *string       `json:"gratitude"`
	Goals             *string       `json:"goals"`
	Reflections       *string       `json:"reflections"`
}

// JournalStats summarises a user's journal.
type JournalStats struct {
	TotalEntries             int64    `json:"totalEntries"`
	AverageEnergyLevel       *float64 `json:"averageEnergyLevel"`
	AverageProductivityScore *float64 `json:"averageProductivityScore"`
	MostCommonMood           *string  `json:"mostCommonMood"`
}

type JournalService struct {
	db  *gorm.DB
	now Clock
}

func NewJournalService(db *gorm.DB, clock Clock) *JournalService {
	if clock == nil {
		clock = SystemClock
	}
	return &JournalService{db: db, now: clock}
}

func (s *JournalService) owned(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return s.db.WithContext(ctx).Where("user_id = ?", userID)
}

// List pages through entries newest first. Search matches title, content and reflections.
func (s *JournalService) List(ctx context.Context, userID uuid.UUID, search string, limit, offset int) ([]models.Journal, error) {
	if limit <= 0 {
		limit = DefaultJournalLimit
	}
	if offset < 0 {
		offset = 0
	}
	q := s.owned(ctx, userID)
	if search != "" {
		q = q.Where(searchClause("title", "content", "reflections"), repeatArg(likePattern(search), 3)...)
	}
	var entries []models.Journal
	if err := q.Order("date DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list journals: %w", err)
	}
	return entries, nil
}

// ByDate returns the entries falling on the UTC calendar day of date.
func (s *JournalService) ByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]models.Journal, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return s.between(ctx, userID, start, start.AddDate(0, 0, 1))
}

// Range returns entries from the start day through the end day, both inclusive.
func (s *JournalService) Range(ctx context.Context, userID uuid.UUID, startDate, endDate time.Time) ([]models.Journal, error) {
	start := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return s.between(ctx, userID, start, end)
}

// Recent returns entries from the last days days.
func (s *JournalService) Recent(ctx context.Context, userID uuid.UUID, days int) ([]models.Journal, error) {
	if days <= 0 {
		days = DefaultRecentDays
	}
	now := s.now()
	return s.between(ctx, userID, now.AddDate(0, 0, -days), now.Add(time.Nanosecond))
}

func (s *JournalService) between(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Journal, error) {
	var entries []models.Journal
	err := s.owned(ctx, userID).Where("date >= ? AND date < ?", from, to).Order("date DESC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list journals by date: %w", err)
	}
	return entries, nil
}

func (s *JournalService) ByMood(ctx context.Context, userID uuid.UUID, mood string) ([]models.Journal, error) {
	var entries []models.Journal
	if err := s.owned(ctx, userID).Where("mood = ?", mood).Order("date DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list journals by mood: %w", err)
	}
	return entries, nil
}

func (s *JournalService) Stats(ctx context.Context, userID uuid.UUID) (*JournalStats, error) {
	var agg struct {
		Total           int64
		AvgEnergy       *float64
		AvgProductivity *float64
	}
	err := s.db.WithContext(ctx).Model(&models.Journal{}).
		Select("COUNT(*) AS total, AVG(energy_level) AS avg_energy, AVG(productivity_score) AS avg_productivity").
		Where("user_id = ?", userID).
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}

	stats := &JournalStats{
		TotalEntries:             agg.Total,
		AverageEnergyLevel:       agg.AvgEnergy,
		AverageProductivityScore: agg.AvgProductivity,
	}

	var moods []struct {
		Mood      string
		MoodCount int64
	}
	err = s.db.WithContext(ctx).Model(&models.Journal{}).
		Select("mood, COUNT(*) AS mood_count").
		Where("user_id = ? AND mood IS NOT NULL AND mood <> ''", userID).
		Group("mood").
		Order("mood_count DESC, mood ASC").
		Limit(1).
		Scan(&moods).Error
	if err != nil {
		return nil, fmt.Errorf("journal mood stats: %w", err)
	}
	if len(moods) > 0 {
		stats.MostCommonMood = &moods[0].Mood
	}
	return stats, nil
}

func (s *JournalService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Journal, error) {
	return findOwned[models.Journal](ctx, s.db, id, userID)
}

func (s *JournalService) Create(ctx context.Context, userID uuid.UUID, in JournalInput) (*models.Journal, error) {
	entry := &models.Journal{
		UserID:            userID,
		Date:              in.Date.UTC(),
		Title:             in.Title,
		Content:           in.Content,
		Mood:              in.Mood,
		EnergyLevel:       in.EnergyLevel,
		ProductivityScore: in.ProductivityScore,
		Tags:              models.StringList(in.Tags),
		Weather:           in.Weather,
		Gratitude:         in.Gratitude,
		Goals:             in.Goals,
		Reflections:       in.Reflections,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	return entry, nil
}

func (s *JournalService) Update(ctx context.Context, id, userID uuid.UUID, in JournalUpdate) (*models.Journal, error) {
	updates := map[string]interface{}{}
	if in.Date != nil {
		updates["date"] = in.Date.UTC()
	}
	setIf(updates, "title", in.Title)
	setIf(updates, "content", in.Content)
	setIf(updates, "mood", in.Mood)
	setOptional(updates, "energy_level", in.EnergyLevel)
	setOptional(updates, "productivity_score", in.ProductivityScore)
	setIf(updates, "weather", in.Weather)
	setIf(updates, "gratitude", in.Gratitude)
	setIf(updates, "goals", in.Goals)
	setIf(updates, "reflections", in.Reflections)
	if in.Tags != nil {
		updates["tags"] = models.StringList(*in.Tags)
	}
	return updateOwned[models.Journal](ctx, s.db, id, userID, updates, s.now())
}

func (s *JournalService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return deleteOwned[models.Journal](ctx, s.db, id, userID)
}
