// Package sessions persists login sessions. A session row lives until its
// expires_at; lookups ignore expired rows so expiry and absence look the same.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID models.UserID, token models.Token, expiresAt time.Time) error
	Find(ctx context.Context, token models.Token, now time.Time) (models.UserID, error)
	Delete(ctx context.Context, token models.Token) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
