package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/jobs"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	m := NewPostgresRepositoryManager()

	assert.IsType(t, &users.PostgresRepository{}, m.Users(db))
	assert.IsType(t, &sessions.PostgresRepository{}, m.Sessions(db))
	assert.IsType(t, &files.PostgresRepository{}, m.Files(db))
	assert.IsType(t, &jobs.PostgresRepository{}, m.Jobs(db))
}

func TestRunMigrations(t *testing.T) {
	db, _ := newDB(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	t.Run("success", func(t *testing.T) {
		gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
			if dir != "." {
				return errors.New("unexpected dir")
			}
			return nil
		}
		require.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))
	})

	t.Run("error", func(t *testing.T) {
		gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
			return errors.New("boom")
		}
		err := NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
		require.EqualError(t, err, "boom")
	})
}

func TestOpen(t *testing.T) {
	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })

	t.Run("ping ok", func(t *testing.T) {
		db, mock := newDB(t)
		mock.ExpectPing()
		sqlOpen = func(driver, dsn string) (*sql.DB, error) {
			assert.Equal(t, "pgx", driver)
			assert.Equal(t, "postgres://x", dsn)
			return db, nil
		}

		got, err := Open(context.Background(), "postgres://x")
		require.NoError(t, err)
		assert.Same(t, db, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping fails", func(t *testing.T) {
		db, mock := newDB(t)
		mock.ExpectPing().WillReturnError(errors.New("refused"))
		sqlOpen = func(string, string) (*sql.DB, error) { return db, nil }

		_, err := Open(context.Background(), "postgres://x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db ping error")
	})

	t.Run("open fails", func(t *testing.T) {
		sqlOpen = func(string, string) (*sql.DB, error) { return nil, errors.New("bad dsn") }

		_, err := Open(context.Background(), "::")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db open error")
	})
}
