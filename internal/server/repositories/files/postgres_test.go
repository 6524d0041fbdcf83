package files

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fileID   = "0b8f6f64-3a0e-4b8f-a1f2-9d2b43a5c7e1"
	folderID = "9a1c2e3d-4b5f-4a6b-8c7d-1e2f3a4b5c6d"
	owner    = "4d7d2a6e-8a41-4a5e-9c36-2f4f5b3c8a10"
)

var cols = []string{"id", "user_id", "name", "type", "is_public", "parent_id", "local_path", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestInsert(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+files\s*\(user_id,\s*name,\s*type,\s*is_public,\s*parent_id,\s*local_path\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+id,\s*created_at$`).
		WithArgs(owner, "cat.png", "image", false, "0", "/tmp/files_manager/k").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(fileID, now))

	f, err := repo.Insert(context.Background(), &models.File{
		UserID:    owner,
		Name:      "cat.png",
		Type:      models.FileTypeImage,
		LocalPath: "/tmp/files_manager/k",
	})
	require.NoError(t, err)
	assert.Equal(t, models.FileID(fileID), f.ID)
	assert.Equal(t, models.RootParent, f.ParentID)
}

func TestInsert_FolderHasNoPath(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+files`).
		WithArgs(owner, "docs", "folder", true, folderID, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(fileID, time.Now()))

	_, err := repo.Insert(context.Background(), &models.File{
		UserID:   owner,
		Name:     "docs",
		Type:     models.FileTypeFolder,
		IsPublic: true,
		ParentID: folderID,
	})
	require.NoError(t, err)
}

func TestInsert_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`INSERT\s+INTO\s+files`).WillReturnError(errors.New("fk violation"))

	_, err := repo.Insert(context.Background(), &models.File{UserID: owner, Name: "a", Type: models.FileTypeFile, LocalPath: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestFindByID(t *testing.T) {
	q := `(?s)^SELECT\s+id,\s*user_id,.*FROM\s+files\s+WHERE\s+id\s*=\s*\$1$`

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs(fileID).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(fileID, owner, "a.txt", "file", true, "0", "/tmp/x", time.Now()))

		f, err := repo.FindByID(context.Background(), fileID)
		require.NoError(t, err)
		assert.Equal(t, models.UserID(owner), f.UserID)
		assert.Equal(t, models.FileTypeFile, f.Type)
		assert.True(t, f.IsPublic)
		assert.Equal(t, "/tmp/x", f.LocalPath)
	})

	t.Run("null local path", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs(folderID).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(folderID, owner, "docs", "folder", false, "0", nil, time.Now()))

		f, err := repo.FindByID(context.Background(), folderID)
		require.NoError(t, err)
		assert.Empty(t, f.LocalPath)
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs(fileID).WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByID(context.Background(), fileID)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		repo, _ := newRepoWithMock(t)
		_, err := repo.FindByID(context.Background(), "5f1e7d35c7ba06511e683b21")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestFindOwned(t *testing.T) {
	const other = "11111111-2222-4333-8444-555555555555"

	t.Run("other owner", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`(?s)FROM\s+files\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2$`).
			WithArgs(fileID, other).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindOwned(context.Background(), fileID, other)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("malformed owner skips the query", func(t *testing.T) {
		repo, _ := newRepoWithMock(t)
		_, err := repo.FindOwned(context.Background(), fileID, "someone-else")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestFindFolderForUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)FROM\s+files\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2\s+FOR\s+UPDATE$`).
		WithArgs(folderID, owner).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(folderID, owner, "docs", "folder", false, "0", nil, time.Now()))

	f, err := repo.FindFolderForUpdate(context.Background(), folderID, owner)
	require.NoError(t, err)
	assert.Equal(t, models.FileTypeFolder, f.Type)
}

func TestListByParent(t *testing.T) {
	q := `(?s)FROM\s+files\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+parent_id\s*=\s*\$2\s+ORDER\s+BY\s+created_at,\s*id\s+OFFSET\s+\$3\s+LIMIT\s+\$4$`

	t.Run("page", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		now := time.Now()
		mock.ExpectQuery(q).WithArgs(owner, "0", 20, 20).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(fileID, owner, "a.txt", "file", false, "0", "/p/a", now).
				AddRow(folderID, owner, "docs", "folder", false, "0", nil, now))

		got, err := repo.ListByParent(context.Background(), owner, models.RootParent, 20, 20)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a.txt", got[0].Name)
		assert.Equal(t, "docs", got[1].Name)
	})

	t.Run("empty", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs(owner, folderID, 0, 20).
			WillReturnRows(sqlmock.NewRows(cols))

		got, err := repo.ListByParent(context.Background(), owner, folderID, 0, 20)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("scan error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs(owner, "0", 0, 20).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(fileID))

		_, err := repo.ListByParent(context.Background(), owner, models.RootParent, 0, 20)
		require.Error(t, err)
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WillReturnError(errors.New("timeout"))

		_, err := repo.ListByParent(context.Background(), owner, models.RootParent, 0, 20)
		require.Error(t, err)
	})
}

func TestSetPublic(t *testing.T) {
	q := `(?s)^UPDATE\s+files\s+SET\s+is_public\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2\s+RETURNING\s+id,`

	t.Run("owner", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs(fileID, owner, true).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(fileID, owner, "a.txt", "file", true, "0", "/p/a", time.Now()))

		f, err := repo.SetPublic(context.Background(), fileID, owner, true)
		require.NoError(t, err)
		assert.True(t, f.IsPublic)
	})

	t.Run("not owner", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs(fileID, "intruder", false).WillReturnError(sql.ErrNoRows)

		_, err := repo.SetPublic(context.Background(), fileID, "intruder", false)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestCount(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM files$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}
