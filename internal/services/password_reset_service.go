package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifelog/backend/internal/models"
	applog "lifelog/backend/pkg/log"
	"lifelog/backend/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// User-facing outcomes of the reset flow. Unknown, expired and consumed tokens share one message.
const (
	MsgResetRequested    = "If an account with that email exists, a password reset link has been sent."
	MsgInvalidResetToken = "Invalid or expired reset token."
	MsgResetTokenValid   = "Token is valid."
	MsgPasswordReset     = "Password has been reset successfully."
)

const (
	DefaultResetTokenTTL = time.Hour
	resetTokenBytes      = 32
	notifyTimeout        = 10 * time.Second
)

var errTokenClaimed = errors.New("reset token already consumed")

// ResetResult is the outcome of RequestReset and ResetPassword.
type ResetResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VerifyResult is the outcome of VerifyToken.
type VerifyResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// ResetNotifier hands a raw reset token to the account owner out of band.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// UserDirectory is the slice of the user store the reset flow depends on.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// PasswordResetService runs the token lifecycle: request, verify, consume, clean up.
type PasswordResetService struct {
	db         *gorm.DB
	notifier   ResetNotifier
	users      func(db *gorm.DB) UserDirectory
	now        Clock
	ttl        time.Duration
	bcryptCost int
	log        *zap.Logger
}

type PasswordResetOption func(*PasswordResetService)

func WithResetClock(clock Clock) PasswordResetOption {
	return func(s *PasswordResetService) { s.now = clock }
}

func WithResetTokenTTL(ttl time.Duration) PasswordResetOption {
	return func(s *PasswordResetService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithResetBcryptCost(cost int) PasswordResetOption {
	return func(s *PasswordResetService) { s.bcryptCost = cost }
}

func WithResetLogger(log *zap.Logger) PasswordResetOption {
	return func(s *PasswordResetService) { s.log = log }
}

// WithUserDirectory replaces the user store. The factory receives the handle to use,
// which is a transaction while a reset is being committed.
func WithUserDirectory(factory func(db *gorm.DB) UserDirectory) PasswordResetOption {
	return func(s *PasswordResetService) { s.users = factory }
}

func NewPasswordResetService(db *gorm.DB, notifier ResetNotifier, opts ...PasswordResetOption) *PasswordResetService {
	s := &PasswordResetService{
		db:         db,
		notifier:   notifier,
		now:        SystemClock,
		ttl:        DefaultResetTokenTTL,
		bcryptCost: DefaultBcryptCost,
		log:        applog.L.Named("PasswordResetService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.users == nil {
		base := NewUserService(db, s.now)
		s.users = func(tx *gorm.DB) UserDirectory { return base.WithTx(tx) }
	}
	return s
}

// RequestReset issues a fresh token for the account behind email, invalidating any earlier ones.
// The response is identical whether or not the account exists.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (ResetResult, error) {
	generic := ResetResult{Success: true, Message: MsgResetRequested}

	user, err := s.users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Info("Password reset requested for unknown email")
			metrics.RecordPasswordReset(metrics.ResetUnknownEmail, 1)
			return generic, nil
		}
		return ResetResult{}, fmt.Errorf("look up user for password reset: %w", err)
	}

	token, err := randomHex(resetTokenBytes)
	if err != nil {
		return ResetResult{}, err
	}

	now := s.now()
	record := models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PasswordResetToken{}).
			Where("user_id = ? AND used = ?", user.ID, false).
			Update("used", true).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return ResetResult{}, fmt.Errorf("store password reset token: %w", err)
	}

	metrics.RecordPasswordReset(metrics.ResetRequested, 1)
	s.dispatch(ctx, user, token)
	return generic, nil
}

// dispatch is best effort: delivery failures are logged and never reach the caller.
func (s *PasswordResetService) dispatch(ctx context.Context, user *models.User, token string) {
	if s.notifier == nil {
		s.log.Warn("No password reset notifier configured", zap.String("userID", user.ID.String()))
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.SendPasswordReset(sendCtx, user.Email, token); err != nil {
		s.log.Error("Failed to deliver password reset token", zap.String("userID", user.ID.String()), zap.Error(err))
	}
}

// VerifyToken reports whether token is currently usable. It never changes state.
func (s *PasswordResetService) VerifyToken(ctx context.Context, token string) (VerifyResult, error) {
	invalid := VerifyResult{Valid: false, Message: MsgInvalidResetToken}
	if token == "" {
		return invalid, nil
	}
	if _, err := s.findActive(ctx, token, s.now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.RecordPasswordReset(metrics.ResetRejected, 1)
			return invalid, nil
		}
		return VerifyResult{}, fmt.Errorf("verify password reset token: %w", err)
	}
	metrics.RecordPasswordReset(metrics.ResetVerified, 1)
	return VerifyResult{Valid: true, Message: MsgResetTokenValid}, nil
}

// ResetPassword consumes token and sets the new password.
// Marking the token used is a conditional update inside the same transaction as the
// password write, so only one caller can ever succeed with a given token.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) (ResetResult, error) {
	invalid := ResetResult{Success: false, Message: MsgInvalidResetToken}
	if token == "" {
		return invalid, nil
	}

	now := s.now()
	record, err := s.findActive(ctx, token, now)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.RecordPasswordReset(metrics.ResetRejected, 1)
			return invalid, nil
		}
		return ResetResult{}, fmt.Errorf("look up password reset token: %w", err)
	}

	hash, err := HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return ResetResult{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PasswordResetToken{}).
			Where("id = ? AND used = ? AND expires_at > ?", record.ID, false, now).
			Update("used", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return errTokenClaimed
		}
		if err := s.users(tx).UpdatePasswordHash(ctx, record.UserID, hash); err != nil {
			return err
		}
		// Existing logins do not survive a password reset.
		_, err := NewSessionService(tx, s.now, 0).RevokeAllForUser(ctx, record.UserID)
		return err
	})
	if err != nil {
		if errors.Is(err, errTokenClaimed) || errors.Is(err, ErrNotFound) {
			metrics.RecordPasswordReset(metrics.ResetRejected, 1)
			return invalid, nil
		}
		return ResetResult{}, fmt.Errorf("reset password: %w", err)
	}

	s.log.Info("Password reset completed", zap.String("userID", record.UserID.String()))
	metrics.RecordPasswordReset(metrics.ResetCompleted, 1)
	return ResetResult{Success: true, Message: MsgPasswordReset}, nil
}

// CleanupExpiredTokens deletes every token whose expiry is at or before now, used or not.
func (s *PasswordResetService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.PasswordResetToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("cleanup password reset tokens: %w", res.Error)
	}
	metrics.RecordPasswordReset(metrics.ResetCleaned, int(res.RowsAffected))
	return res.RowsAffected, nil
}

func (s *PasswordResetService) findActive(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	err := s.db.WithContext(ctx).
		Where("token = ? AND used = ? AND expires_at > ?", token, false, now).
		First(&record).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &record, nil
}
