package services

import (
	"context"
	"errors"
	"strings"

	"lifelog/backend/internal/models"
)

// RegisterInput is a new account request. Password is the plaintext; it is hashed here.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	IPAddress string
	UserAgent string
}

// AuthService issues sessions for registration and sign-in.
type AuthService struct {
	users      *UserService
	sessions   *SessionService
	bcryptCost int
}

func NewAuthService(users *UserService, sessions *SessionService, bcryptCost int) *AuthService {
	return &AuthService{users: users, sessions: sessions, bcryptCost: bcryptCost}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, *models.Session, error) {
	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, err
	}
	user := &models.User{
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}
	session, err := s.sessions.Create(ctx, user.ID, in.IPAddress, in.UserAgent)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// SignIn checks credentials. Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, email, password, ipAddress, userAgent string) (*models.User, *models.Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}
	session, err := s.sessions.Create(ctx, user.ID, ipAddress, userAgent)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}
