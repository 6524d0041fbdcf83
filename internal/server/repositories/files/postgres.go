package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/google/uuid"
)

const columns = `id, user_id, name, type, is_public, parent_id, local_path, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (*models.File, error) {
	f := &models.File{}
	var localPath sql.NullString
	if err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Type, &f.IsPublic, &f.ParentID, &localPath, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.LocalPath = localPath.String
	return f, nil
}

func findOne(row *sql.Row) (*models.File, error) {
	f, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// validID filters out ids that can never match a uuid primary key, so that
// garbage in a URL is a plain miss rather than a driver error.
func validID(id models.FileID) bool {
	return uuid.Validate(string(id)) == nil
}

// Insert stores file and fills in the id and creation time assigned by the
// database.
func (r *PostgresRepository) Insert(ctx context.Context, file *models.File) (*models.File, error) {
	query :=
		`INSERT INTO files (user_id, name, type, is_public, parent_id, local_path)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`

	localPath := sql.NullString{String: file.LocalPath, Valid: file.LocalPath != ""}
	parentID := file.ParentID
	if parentID == "" {
		parentID = models.RootParent
	}

	err := r.db.QueryRowContext(ctx, query,
		string(file.UserID), file.Name, string(file.Type), file.IsPublic, string(parentID), localPath,
	).Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	file.ParentID = parentID
	return file, nil
}

// FindByID looks a record up regardless of owner.
func (r *PostgresRepository) FindByID(ctx context.Context, id models.FileID) (*models.File, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + columns + ` FROM files WHERE id = $1`
	return findOne(r.db.QueryRowContext(ctx, query, string(id)))
}

// FindOwned looks a record up within userID's files only.
func (r *PostgresRepository) FindOwned(ctx context.Context, id models.FileID, userID models.UserID) (*models.File, error) {
	if !validID(id) || uuid.Validate(string(userID)) != nil {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + columns + ` FROM files WHERE id = $1 AND user_id = $2`
	return findOne(r.db.QueryRowContext(ctx, query, string(id), string(userID)))
}

// FindFolderForUpdate locks a candidate parent row for the rest of the
// enclosing transaction. The caller checks the type.
func (r *PostgresRepository) FindFolderForUpdate(ctx context.Context, id models.FileID, userID models.UserID) (*models.File, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + columns + ` FROM files WHERE id = $1 AND user_id = $2 FOR UPDATE`
	return findOne(r.db.QueryRowContext(ctx, query, string(id), string(userID)))
}

// ListByParent returns one page of userID's records under parentID in
// creation order.
func (r *PostgresRepository) ListByParent(ctx context.Context, userID models.UserID, parentID models.ParentID, skip, limit int) ([]*models.File, error) {
	query :=
		`SELECT ` + columns + ` FROM files
		 WHERE user_id = $1 AND parent_id = $2
		 ORDER BY created_at, id
		 OFFSET $3 LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, string(userID), string(parentID), skip, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.File, 0, limit)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// SetPublic flips the public flag of a record userID owns and returns the
// updated record.
func (r *PostgresRepository) SetPublic(ctx context.Context, id models.FileID, userID models.UserID, public bool) (*models.File, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	query :=
		`UPDATE files SET is_public = $3
		 WHERE id = $1 AND user_id = $2
		 RETURNING ` + columns

	return findOne(r.db.QueryRowContext(ctx, query, string(id), string(userID), public))
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
