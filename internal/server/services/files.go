package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"io"
	"math"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/blob"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// PageSize is the number of records returned by one List call.
const PageSize = 20

const defaultMimeType = "application/octet-stream"

var (
	ErrMissingName        = common.NewValidationError("Missing name")
	ErrMissingType        = common.NewValidationError("Missing type")
	ErrMissingData        = common.NewValidationError("Missing data")
	ErrInvalidData        = common.NewValidationError("Invalid data")
	ErrParentNotFound     = common.NewValidationError("Parent not found")
	ErrParentNotFolder    = common.NewValidationError("Parent is not a folder")
	ErrFolderHasNoContent = common.NewValidationError("A folder doesn't have content")
)

// Enqueuer hands an uploaded image over to the thumbnail pipeline.
type Enqueuer interface {
	Enqueue(ctx context.Context, fileID models.FileID, userID models.UserID) (*models.Job, error)
}

// CreateRequest is the payload of a new file record. Data is the base64
// encoded content and is ignored for folders.
type CreateRequest struct {
	Name     string          `json:"name"`
	Type     models.FileType `json:"type"`
	ParentID models.ParentID `json:"parentId"`
	IsPublic bool            `json:"isPublic"`
	Data     string          `json:"data"`
}

// CreateResult carries the stored record. Warning is set when the record
// was stored but its thumbnails could not be scheduled.
type CreateResult struct {
	File    *models.File
	Warning string
}

// Content is an open blob with the mime type derived from the file name.
// The caller closes Body.
type Content struct {
	Body     io.ReadCloser
	MimeType string
}

type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	evaluator   *auth.Evaluator
	store       blob.Store
	queue       Enqueuer
	logger      logging.Logger
	newKey      func() string
}

func NewFileService(db *sql.DB, rm repomanager.RepositoryManager, evaluator *auth.Evaluator, store blob.Store, queue Enqueuer, logger logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: rm,
		evaluator:   evaluator,
		store:       store,
		queue:       queue,
		logger:      logger.With("module", "files"),
		newKey:      uuid.NewString,
	}
}

// Get returns a record owned by the caller. Visibility plays no part here.
func (s *FileService) Get(ctx context.Context, token models.Token, id models.FileID) (*models.File, error) {
	userID, err := s.evaluator.Identify(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Files(s.db).FindOwned(ctx, id, userID)
}

// List returns one page of the caller's records under parentID.
func (s *FileService) List(ctx context.Context, token models.Token, parentID models.ParentID, page int) ([]*models.File, error) {
	userID, err := s.evaluator.Identify(ctx, token)
	if err != nil {
		return nil, err
	}
	if parentID.IsRoot() {
		parentID = models.RootParent
	}
	if page < 0 {
		page = 0
	}
	if page > math.MaxInt/PageSize {
		return []*models.File{}, nil
	}
	return s.repomanager.Files(s.db).ListByParent(ctx, userID, parentID, page*PageSize, PageSize)
}

// SetVisibility publishes or unpublishes a record owned by the caller.
// Repeating the same call is harmless.
func (s *FileService) SetVisibility(ctx context.Context, token models.Token, id models.FileID, public bool) (*models.File, error) {
	userID, err := s.evaluator.Identify(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Files(s.db).SetPublic(ctx, id, userID, public)
}

// Content opens the bytes of a record, or of one of its thumbnails when
// size is set. Token may be empty for public records. A record the caller
// may not read is reported exactly like a missing one.
func (s *FileService) Content(ctx context.Context, token models.Token, id models.FileID, size string) (*Content, error) {
	file, err := s.repomanager.Files(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.evaluator.CanRead(ctx, token, file); err != nil {
		return nil, err
	}
	if !file.Type.HasContent() {
		return nil, ErrFolderHasNoContent
	}
	if file.LocalPath == "" || !validSize(size) {
		return nil, common.ErrorNotFound
	}

	body, err := s.store.Open(ctx, models.SizedPath(file.LocalPath, size))
	if err != nil {
		return nil, err
	}
	return &Content{Body: body, MimeType: mimeType(file.Name)}, nil
}

// Create stores a new record under the caller's tree. Content is written
// to the blob area first; the parent check and the insert share one
// transaction. Images are then queued for thumbnails.
func (s *FileService) Create(ctx context.Context, token models.Token, req CreateRequest) (*CreateResult, error) {
	userID, err := s.evaluator.Identify(ctx, token)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, ErrMissingName
	}
	if !req.Type.Valid() {
		return nil, ErrMissingType
	}

	var content []byte
	if req.Type.HasContent() {
		if req.Data == "" {
			return nil, ErrMissingData
		}
		content, err = base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			return nil, ErrInvalidData
		}
	}

	file := &models.File{
		UserID:   userID,
		Name:     req.Name,
		Type:     req.Type,
		IsPublic: req.IsPublic,
		ParentID: models.RootParent,
	}

	var stored string
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Files(tx)

		if folderID, ok := req.ParentID.FileID(); ok {
			parent, err := repo.FindFolderForUpdate(ctx, folderID, userID)
			if err != nil {
				if errors.Is(err, common.ErrorNotFound) {
					return ErrParentNotFound
				}
				return err
			}
			if parent.Type != models.FileTypeFolder {
				return ErrParentNotFolder
			}
			file.ParentID = req.ParentID
		}

		if content != nil {
			key := s.newKey()
			if err := s.store.Put(ctx, key, bytes.NewReader(content)); err != nil {
				return err
			}
			stored = key
			file.LocalPath = key
		}

		inserted, err := repo.Insert(ctx, file)
		if err != nil {
			return err
		}
		file = inserted
		return nil
	})
	if err != nil {
		if stored != "" {
			if derr := s.store.Delete(context.WithoutCancel(ctx), stored); derr != nil {
				s.logger.Warn(ctx, "orphaned blob not removed", "key", stored, "error", derr)
			}
		}
		return nil, err
	}

	result := &CreateResult{File: file}
	if file.Type.HasThumbnails() {
		if _, err := s.queue.Enqueue(ctx, file.ID, userID); err != nil {
			s.logger.Warn(ctx, "thumbnail job not queued", "file_id", string(file.ID), "error", err)
			result.Warning = "thumbnails will not be generated"
		}
	}
	return result, nil
}

// Stats returns the number of accounts and of file records.
func (s *FileService) Stats(ctx context.Context) (users, files int64, err error) {
	users, err = s.repomanager.Users(s.db).Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	files, err = s.repomanager.Files(s.db).Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	return users, files, nil
}

// validSize accepts the empty size and positive integers. Anything else
// could never name a thumbnail.
func validSize(size string) bool {
	if size == "" {
		return true
	}
	n, err := strconv.Atoi(size)
	return err == nil && n > 0 && strconv.Itoa(n) == size
}

func mimeType(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	return defaultMimeType
}
