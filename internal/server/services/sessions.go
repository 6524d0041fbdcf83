// Package services contains the server-side business logic: sessions,
// accounts and file records. Handlers talk to these types only.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// SessionService issues and resolves login tokens. It satisfies
// auth.Resolver.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	ttl         time.Duration
	now         func() time.Time
	newToken    func() string
}

func NewSessionService(db *sql.DB, rm repomanager.RepositoryManager, ttl time.Duration) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: rm,
		ttl:         ttl,
		now:         time.Now,
		newToken:    uuid.NewString,
	}
}

// Create opens a session for userID that expires after the configured TTL.
func (s *SessionService) Create(ctx context.Context, userID models.UserID) (models.Token, error) {
	token := models.Token(s.newToken())
	if err := s.repomanager.Sessions(s.db).Create(ctx, userID, token, s.now().Add(s.ttl)); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the owner of token. Unknown and expired tokens are
// reported as ok=false.
func (s *SessionService) Resolve(ctx context.Context, token models.Token) (models.UserID, bool, error) {
	if token == "" {
		return "", false, nil
	}
	userID, err := s.repomanager.Sessions(s.db).Find(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return userID, true, nil
}

// Destroy removes token. Destroying an unknown token is not an error.
func (s *SessionService) Destroy(ctx context.Context, token models.Token) error {
	return s.repomanager.Sessions(s.db).Delete(ctx, token)
}

// Prune deletes expired sessions and returns how many were removed.
func (s *SessionService) Prune(ctx context.Context) (int64, error) {
	return s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
}
