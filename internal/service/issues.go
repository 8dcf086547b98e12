package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bugboard/bugboard/internal/models"
)

// IssueRepository defines the persistence operations needed by the
// IssueService.
type IssueRepository interface {
	ListIssues(ctx context.Context) ([]models.Issue, error)
	CreateIssue(ctx context.Context, is models.Issue) (models.Issue, error)
	// SetIssueImage yields models.ErrNotFound for an unknown issue.
	SetIssueImage(ctx context.Context, id int, path string) error
	ListComments(ctx context.Context, issueID int) ([]models.Comment, error)
	// CreateComment yields models.ErrNotFound for an unknown issue.
	CreateComment(ctx context.Context, c models.Comment) (models.Comment, error)
}

// ImageStore keeps uploaded image files.
type ImageStore interface {
	Save(originalName string, r io.Reader) (string, error)
	Open(name string) (io.ReadCloser, error)
	Remove(name string) error
}

// IssueService implements issues, comments and issue images.
type IssueService struct {
	repo   IssueRepository
	images ImageStore
	now    func() time.Time
}

// NewIssueService constructs an IssueService.
func NewIssueService(repo IssueRepository, images ImageStore) *IssueService {
	return &IssueService{repo: repo, images: images, now: time.Now}
}

// ListIssues returns every issue.
func (s *IssueService) ListIssues(ctx context.Context) ([]models.Issue, error) {
	return s.repo.ListIssues(ctx)
}

// CreateIssue validates draft and stores it as reported by reporter. Any
// image reference in draft is ignored; images are attached by upload.
func (s *IssueService) CreateIssue(ctx context.Context, reporter models.User, draft models.Issue) (models.Issue, error) {
	is := models.Issue{
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		Type:        draft.Type,
		Priority:    draft.Priority,
		State:       draft.State,
		Reporter:    &reporter,
	}
	if is.State == "" {
		is.State = models.StateTodo
	}
	switch {
	case is.Title == "":
		return models.Issue{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case is.Description == "":
		return models.Issue{}, fmt.Errorf("%w: description is required", ErrInvalidInput)
	case !is.Type.Valid():
		return models.Issue{}, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, is.Type)
	case !is.Priority.Valid():
		return models.Issue{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, is.Priority)
	case !is.State.Valid():
		return models.Issue{}, fmt.Errorf("%w: unknown state %q", ErrInvalidInput, is.State)
	}
	return s.repo.CreateIssue(ctx, is)
}

// ListComments returns the comments of issue issueID.
func (s *IssueService) ListComments(ctx context.Context, issueID int) ([]models.Comment, error) {
	return s.repo.ListComments(ctx, issueID)
}

// AddComment stores c as written by author. A missing timestamp is set to
// the current local time.
func (s *IssueService) AddComment(ctx context.Context, author models.User, c models.Comment) (models.Comment, error) {
	c.Content = strings.TrimSpace(c.Content)
	if c.Content == "" {
		return models.Comment{}, fmt.Errorf("%w: comment is empty", ErrInvalidInput)
	}
	if c.IssueID <= 0 {
		return models.Comment{}, fmt.Errorf("%w: issue is required", ErrInvalidInput)
	}
	c.ID = nil
	c.Author = &author
	if c.Timestamp.IsZero() {
		c.Timestamp = models.LocalTime{Time: s.now().Truncate(time.Second)}
	}
	return s.repo.CreateComment(ctx, c)
}

// AttachImage stores the uploaded file and links it to issue issueID. It
// returns the stored image name.
func (s *IssueService) AttachImage(ctx context.Context, issueID int, originalName string, r io.Reader) (string, error) {
	name, err := s.images.Save(originalName, r)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetIssueImage(ctx, issueID, name); err != nil {
		return "", errors.Join(err, s.images.Remove(name))
	}
	return name, nil
}

// OpenImage returns the stored image called name.
func (s *IssueService) OpenImage(_ context.Context, name string) (io.ReadCloser, error) {
	return s.images.Open(name)
}
