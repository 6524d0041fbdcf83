// Package auth decides who a request acts for and what it may touch.
package auth

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// Resolver maps a session token to its user. A missing or expired session is
// ok=false, not an error.
type Resolver interface {
	Resolve(ctx context.Context, token models.Token) (models.UserID, bool, error)
}

// Evaluator applies the access rules: private records are visible to their
// owner only, public records can be read by anyone, and only the owner may
// change a record. Denied reads look exactly like missing records.
type Evaluator struct {
	sessions Resolver
}

func NewEvaluator(sessions Resolver) *Evaluator {
	return &Evaluator{sessions: sessions}
}

// Identify returns the user behind token or common.ErrorUnauthorized.
func (e *Evaluator) Identify(ctx context.Context, token models.Token) (models.UserID, error) {
	if token == "" {
		return "", common.ErrorUnauthorized
	}
	userID, ok, err := e.sessions.Resolve(ctx, token)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common.ErrorUnauthorized
	}
	return userID, nil
}

// CanRead grants access to public files without looking at the token and to
// private files for their owner. The returned user id is empty for public
// reads.
func (e *Evaluator) CanRead(ctx context.Context, token models.Token, file *models.File) (models.UserID, error) {
	if file == nil {
		return "", common.ErrorNotFound
	}
	if file.IsPublic {
		return "", nil
	}
	if token == "" {
		return "", common.ErrorNotFound
	}

	userID, ok, err := e.sessions.Resolve(ctx, token)
	if err != nil {
		return "", err
	}
	if !ok || userID != file.UserID {
		return "", common.ErrorNotFound
	}
	return userID, nil
}

// CanWrite requires a session belonging to the owner of file. A missing
// session is common.ErrorUnauthorized; someone else's file is
// common.ErrorNotFound.
func (e *Evaluator) CanWrite(ctx context.Context, token models.Token, file *models.File) (models.UserID, error) {
	userID, err := e.Identify(ctx, token)
	if err != nil {
		return "", err
	}
	if file == nil || file.UserID != userID {
		return "", common.ErrorNotFound
	}
	return userID, nil
}
