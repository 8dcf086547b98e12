package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bugboard/bugboard/internal/models"
)

// CommentService reads and writes issue comments.
type CommentService struct {
	t Transport
}

// NewCommentService returns a CommentService over t.
func NewCommentService(t Transport) *CommentService {
	return &CommentService{t: t}
}

// ListByIssue returns the comments of one issue in server order.
func (s *CommentService) ListByIssue(ctx context.Context, issueID int) ([]models.Comment, error) {
	body, err := s.t.Get(ctx, fmt.Sprintf(pathIssueComments, issueID))
	if err != nil {
		return nil, err
	}
	return decodeList[models.Comment]("comments", body)
}

// Create posts draft and returns the stored comment.
func (s *CommentService) Create(ctx context.Context, draft models.Comment) (models.Comment, error) {
	draft.ID = nil
	body, err := s.t.Post(ctx, pathComments, draft)
	if err != nil {
		return models.Comment{}, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return models.Comment{}, ErrEmptyResponse
	}
	var created models.Comment
	if err := decode("comment", body, &created); err != nil {
		return models.Comment{}, err
	}
	return created, nil
}
