package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"lifelog/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultSessionLifespan applies when no lifespan is configured.
const DefaultSessionLifespan = 7 * 24 * time.Hour

type SessionService struct {
	db       *gorm.DB
	now      Clock
	lifespan time.Duration
}

func NewSessionService(db *gorm.DB, clock Clock, lifespan time.Duration) *SessionService {
	if clock == nil {
		clock = SystemClock
	}
	if lifespan <= 0 {
		lifespan = DefaultSessionLifespan
	}
	return &SessionService{db: db, now: clock, lifespan: lifespan}
}

// Create opens a session for the user.
func (s *SessionService) Create(ctx context.Context, userID uuid.UUID, ipAddress, userAgent string) (*models.Session, error) {
	id, err := randomHex(32)
	if err != nil {
		return nil, err
	}
	now := s.now()
	session := &models.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(s.lifespan),
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Validate returns the live session for id, or ErrNotFound / ErrSessionExpired.
func (s *SessionService) Validate(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, notFound(err)
	}
	if session.Expired(s.now()) {
		return nil, ErrSessionExpired
	}
	return &session, nil
}

// Revoke deletes one session. Revoking an unknown session is not an error.
func (s *SessionService) Revoke(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAllForUser deletes every session of a user and returns how many were removed.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("revoke sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CleanupExpired deletes sessions whose expiry has passed.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
