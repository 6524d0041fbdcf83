package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
)

const tokenHeader = common.TokenHeaderName

func token(r *http.Request) models.Token {
	return models.Token(r.Header.Get(tokenHeader))
}

func fileID(r *http.Request) models.FileID {
	return models.FileID(r.PathValue("id"))
}

// decode reads a JSON body. An empty or malformed body is a BadRequest.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &tooLarge):
		return err
	case errors.Is(err, io.EOF):
		return common.NewValidationError("Missing body")
	default:
		return common.NewValidationError("Invalid JSON")
	}
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, s.health.Status())
}

type statsResponse struct {
	Users int64 `json:"users"`
	Files int64 `json:"files"`
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	users, files, err := s.files.Stats(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, statsResponse{Users: users, Files: files})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	user, err := s.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "user_id", string(user.ID))
	s.writeJSON(r.Context(), w, http.StatusCreated, user)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Me(r.Context(), token(r))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, user)
}

type tokenResponse struct {
	Token models.Token `json:"token"`
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	t, err := s.users.Login(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, tokenResponse{Token: t})
}

func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Logout(r.Context(), token(r)); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createResponse struct {
	*models.File
	Warning string `json:"warning,omitempty"`
}

func (s *Server) createFile(w http.ResponseWriter, r *http.Request) {
	var req services.CreateRequest
	if err := decode(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	res, err := s.files.Create(r.Context(), token(r), req)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusCreated, createResponse{File: res.File, Warning: res.Warning})
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	file, err := s.files.Get(r.Context(), token(r), fileID(r))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, file)
}

// listFiles reads parentId (default root) and page (default 0; anything
// unparsable counts as 0).
func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	parentID := models.ParentID(q.Get("parentId"))
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil {
		page = 0
	}

	files, err := s.files.List(r.Context(), token(r), parentID, page)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, files)
}

func (s *Server) publish(w http.ResponseWriter, r *http.Request) {
	s.setVisibility(w, r, true)
}

func (s *Server) unpublish(w http.ResponseWriter, r *http.Request) {
	s.setVisibility(w, r, false)
}

func (s *Server) setVisibility(w http.ResponseWriter, r *http.Request, public bool) {
	file, err := s.files.SetVisibility(r.Context(), token(r), fileID(r), public)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, file)
}

func (s *Server) fileData(w http.ResponseWriter, r *http.Request) {
	content, err := s.files.Content(r.Context(), token(r), fileID(r), r.URL.Query().Get("size"))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	defer content.Body.Close()

	w.Header().Set("Content-Type", content.MimeType)
	w.WriteHeader(http.StatusOK)
	if err := copyBody(w, content.Body); err != nil {
		s.logger.Warn(r.Context(), "content stream interrupted", "file_id", r.PathValue("id"), "error", err)
	}
}
