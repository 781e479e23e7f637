package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"chacara-backend/internal/domain"
	"chacara-backend/internal/logger"
	"chacara-backend/internal/security"
	"chacara-backend/internal/state"
)

// Credential is one entry of the static user table. Password is hashed on
// startup when PasswordHash is empty.
type Credential struct {
	User         domain.User
	Password     string
	PasswordHash string
}

// Session is the result of a successful login.
type Session struct {
	User        domain.User `json:"user"`
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

type credentialEntry struct {
	user domain.User
	hash []byte
}

type authService struct {
	store        *state.Store
	tokenManager security.TokenManager
	users        map[string]credentialEntry
}

func NewAuthService(store *state.Store, tokenManager security.TokenManager, creds []Credential) (AuthService, error) {
	users := make(map[string]credentialEntry, len(creds))
	for _, c := range creds {
		hash := []byte(c.PasswordHash)
		if len(hash) == 0 {
			h, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("failed to hash password for %s: %w", c.User.Email, err)
			}
			hash = h
		}
		key := domain.NormalizeEmail(c.User.Email)
		if _, dup := users[key]; dup {
			return nil, fmt.Errorf("duplicate credential for %s", key)
		}
		users[key] = credentialEntry{user: c.User, hash: hash}
	}
	return &authService{
		store:        store,
		tokenManager: tokenManager,
		users:        users,
	}, nil
}

// Login checks the credential table and makes the user the current one.
// Unknown emails and wrong passwords are reported the same way.
func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	logger.EnterMethod("authService.Login", "email", email)

	entry, ok := s.users[domain.NormalizeEmail(email)]
	if !ok {
		logger.ExitMethodWithError("authService.Login", domain.ErrInvalidCredentials, "email", email)
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(entry.hash, []byte(password)); err != nil {
		logger.ExitMethodWithError("authService.Login", domain.ErrInvalidCredentials, "email", email)
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokenManager.GenerateAccessToken(entry.user)
	if err != nil {
		logger.ExitMethodWithError("authService.Login", err, "email", email)
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	user := entry.user
	err = s.store.Update(ctx, func(snap *state.Snapshot) error {
		snap.CurrentUser = &user
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("authService.Login", err, "email", email)
		return nil, err
	}

	logger.ExitMethod("authService.Login", "userID", user.ID, "type", user.Type)
	return &Session{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

func (s *authService) Logout(ctx context.Context) error {
	logger.EnterMethod("authService.Logout")
	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		snap.CurrentUser = nil
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("authService.Logout", err)
		return err
	}
	logger.ExitMethod("authService.Logout")
	return nil
}

func (s *authService) CurrentUser(ctx context.Context) (*domain.User, bool) {
	u := s.store.View().CurrentUser
	return u, u != nil
}
