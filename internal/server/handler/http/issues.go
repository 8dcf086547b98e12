package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/bugboard/bugboard/internal/middleware"
	"github.com/bugboard/bugboard/internal/models"
	"github.com/bugboard/bugboard/internal/service"
	"github.com/go-chi/chi/v5"
)

// IssueService defines the issue, comment and image operations required by
// the IssueHandler.
type IssueService interface {
	ListIssues(ctx context.Context) ([]models.Issue, error)
	CreateIssue(ctx context.Context, reporter models.User, draft models.Issue) (models.Issue, error)
	ListComments(ctx context.Context, issueID int) ([]models.Comment, error)
	AddComment(ctx context.Context, author models.User, c models.Comment) (models.Comment, error)
	AttachImage(ctx context.Context, issueID int, originalName string, r io.Reader) (string, error)
	OpenImage(ctx context.Context, name string) (io.ReadCloser, error)
}

// IssueHandler handles issues, their comments and their images.
type IssueHandler struct {
	IssueService IssueService
}

// ListIssues handles GET /api/issues.
func (h *IssueHandler) ListIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := h.IssueService.ListIssues(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

// CreateIssue handles POST /api/issues. The authenticated user becomes the
// reporter.
func (h *IssueHandler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	var draft models.Issue
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	user, _ := middleware.GetUserFromContext(r.Context())

	created, err := h.IssueService.CreateIssue(r.Context(), user, draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListComments handles GET /api/comments/issue/{id}.
func (h *IssueHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	comments, err := h.IssueService.ListComments(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// CreateComment handles POST /api/comments. The authenticated user becomes
// the author.
func (h *IssueHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var c models.Comment
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	user, _ := middleware.GetUserFromContext(r.Context())

	created, err := h.IssueService.AddComment(r.Context(), user, c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UploadImage handles POST /api/images/upload/{id}: a multipart form with
// the image in the "file" field. It answers with the stored image name.
func (h *IssueHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name, err := h.IssueService.AttachImage(r.Context(), id, header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": name})
}

// Image handles GET /api/images/{name}.
func (h *IssueHandler) Image(w http.ResponseWriter, r *http.Request) {
	rc, err := h.IssueService.OpenImage(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = io.Copy(w, rc)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

