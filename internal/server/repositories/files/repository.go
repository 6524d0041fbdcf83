// Package files stores file metadata: the folder tree of each user and the
// public flag of every record.
package files

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, file *models.File) (*models.File, error)
	FindByID(ctx context.Context, id models.FileID) (*models.File, error)
	FindOwned(ctx context.Context, id models.FileID, userID models.UserID) (*models.File, error)
	FindFolderForUpdate(ctx context.Context, id models.FileID, userID models.UserID) (*models.File, error)
	ListByParent(ctx context.Context, userID models.UserID, parentID models.ParentID, skip, limit int) ([]*models.File, error)
	SetPublic(ctx context.Context, id models.FileID, userID models.UserID, public bool) (*models.File, error)
	Count(ctx context.Context) (int64, error)
}
