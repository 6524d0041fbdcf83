package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/jobs"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/users"
	"github.com/google/uuid"
)

// --- in-memory repositories ---

type memUsers struct {
	mu   sync.Mutex
	byID map[models.UserID]*models.User
}

func (r *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *u
	cp.ID = models.UserID(uuid.NewString())
	r.byID[cp.ID] = &cp
	return &cp, nil
}

func (r *memUsers) FindByCredentials(_ context.Context, email, hash string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email && u.PasswordHash == hash {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) FindByID(_ context.Context, id models.UserID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

type memSession struct {
	userID    models.UserID
	expiresAt time.Time
}

type memSessions struct {
	mu      sync.Mutex
	byToken map[models.Token]memSession
}

func (r *memSessions) Create(_ context.Context, userID models.UserID, token models.Token, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byToken[token] = memSession{userID: userID, expiresAt: expiresAt}
	return nil
}

func (r *memSessions) Find(_ context.Context, token models.Token, now time.Time) (models.UserID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byToken[token]
	if !ok || !s.expiresAt.After(now) {
		return "", common.ErrorNotFound
	}
	return s.userID, nil
}

func (r *memSessions) Delete(_ context.Context, token models.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byToken, token)
	return nil
}

func (r *memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for token, s := range r.byToken {
		if !s.expiresAt.After(now) {
			delete(r.byToken, token)
			n++
		}
	}
	return n, nil
}

type memFiles struct {
	mu    sync.Mutex
	files []*models.File
}

func (r *memFiles) Insert(_ context.Context, f *models.File) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *f
	cp.ID = models.FileID(uuid.NewString())
	if cp.ParentID == "" {
		cp.ParentID = models.RootParent
	}
	r.files = append(r.files, &cp)
	out := cp
	return &out, nil
}

func (r *memFiles) find(match func(*models.File) bool) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if match(f) {
			cp := *f
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memFiles) FindByID(_ context.Context, id models.FileID) (*models.File, error) {
	return r.find(func(f *models.File) bool { return f.ID == id })
}

func (r *memFiles) FindOwned(_ context.Context, id models.FileID, userID models.UserID) (*models.File, error) {
	return r.find(func(f *models.File) bool { return f.ID == id && f.UserID == userID })
}

func (r *memFiles) FindFolderForUpdate(ctx context.Context, id models.FileID, userID models.UserID) (*models.File, error) {
	return r.FindOwned(ctx, id, userID)
}

func (r *memFiles) ListByParent(_ context.Context, userID models.UserID, parentID models.ParentID, skip, limit int) ([]*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.File{}
	for _, f := range r.files {
		if f.UserID != userID || f.ParentID != parentID {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		if len(out) == limit {
			break
		}
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memFiles) SetPublic(_ context.Context, id models.FileID, userID models.UserID, public bool) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if f.ID == id && f.UserID == userID {
			f.IsPublic = public
			cp := *f
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memFiles) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.files)), nil
}

type memManager struct {
	users    *memUsers
	sessions *memSessions
	files    *memFiles
}

func newMemManager() *memManager {
	return &memManager{
		users:    &memUsers{byID: map[models.UserID]*models.User{}},
		sessions: &memSessions{byToken: map[models.Token]memSession{}},
		files:    &memFiles{},
	}
}

func (m *memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memManager) Users(dbx.DBTX) users.Repository             { return m.users }
func (m *memManager) Sessions(dbx.DBTX) sessions.Repository       { return m.sessions }
func (m *memManager) Files(dbx.DBTX) files.Repository             { return m.files }
func (m *memManager) Jobs(dbx.DBTX) jobs.Repository               { return nil }

// --- blob store and queue ---

type memStore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	putErr error
}

func newMemStore() *memStore { return &memStore{blobs: map[string][]byte{}} }

func (s *memStore) Put(_ context.Context, key string, r io.Reader) error {
	if s.putErr != nil {
		return s.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = b
	return nil
}

func (s *memStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *memStore) Alive(context.Context) bool { return true }

type fakeQueue struct {
	mu   sync.Mutex
	jobs []models.Job
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, fileID models.FileID, userID models.UserID) (*models.Job, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	job := models.Job{ID: int64(len(q.jobs) + 1), FileID: fileID, UserID: userID}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	q.jobs = append(q.jobs, job)
	return &job, nil
}

// --- environment ---

type testEnv struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	rm       *memManager
	store    *memStore
	queue    *fakeQueue
	now      time.Time
	sessions *SessionService
	users    *UserService
	files    *FileService
}

func newTestEnv(t *testing.T, hasher auth.PasswordHasher) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		db:    db,
		mock:  mock,
		rm:    newMemManager(),
		store: newMemStore(),
		queue: &fakeQueue{},
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	env.sessions = NewSessionService(db, env.rm, 24*time.Hour)
	env.sessions.now = func() time.Time { return env.now }

	evaluator := auth.NewEvaluator(env.sessions)
	env.users = NewUserService(db, env.rm, env.sessions, evaluator, hasher)
	env.files = NewFileService(db, env.rm, evaluator, env.store, env.queue, logging.Nop{})
	return env
}

// signUp registers email and logs it in.
func (e *testEnv) signUp(t *testing.T, email, password string) (models.UserID, models.Token) {
	t.Helper()
	ctx := context.Background()
	u, err := e.users.Register(ctx, email, password)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	token, err := e.users.Login(ctx, basic(email, password))
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return u.ID, token
}

func basic(email, password string) string {
	return "Basic " + b64(email+":"+password)
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
