package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

var (
	ErrMissingEmail    = common.NewValidationError("Missing email")
	ErrMissingPassword = common.NewValidationError("Missing password")
	ErrAlreadyExists   = common.NewValidationError("Already exist")
)

// UserService handles accounts: registration, login and logout.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *SessionService
	evaluator   *auth.Evaluator
	hasher      auth.PasswordHasher
}

func NewUserService(db *sql.DB, rm repomanager.RepositoryManager, sessions *SessionService, evaluator *auth.Evaluator, hasher auth.PasswordHasher) *UserService {
	return &UserService{
		db:          db,
		repomanager: rm,
		sessions:    sessions,
		evaluator:   evaluator,
		hasher:      hasher,
	}
}

// Register creates an account with a hashed password.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrMissingEmail
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

// Login checks the credentials of a Basic authorization header and opens a
// session. Every credential problem is common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, authorization string) (models.Token, error) {
	email, password, err := auth.ParseBasic(authorization)
	if err != nil {
		return "", err
	}

	user, err := s.findByCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", err
	}

	return s.sessions.Create(ctx, user.ID)
}

func (s *UserService) findByCredentials(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	if h, ok := s.hasher.(auth.DeterministicHasher); ok {
		return repo.FindByCredentials(ctx, email, h.Digest(password))
	}

	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, common.ErrorNotFound
	}
	return user, nil
}

// Logout ends the session behind token.
func (s *UserService) Logout(ctx context.Context, token models.Token) error {
	if _, err := s.evaluator.Identify(ctx, token); err != nil {
		return err
	}
	return s.sessions.Destroy(ctx, token)
}

// Me returns the account behind token.
func (s *UserService) Me(ctx context.Context, token models.Token) (*models.User, error) {
	userID, err := s.evaluator.Identify(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	return user, nil
}
