package controller

import (
	"context"
	"strings"
	"sync"

	"github.com/bugboard/bugboard/internal/client/dispatch"
	"github.com/bugboard/bugboard/internal/models"
	"go.uber.org/zap"
)

// CommentAPI is the comment endpoint set used by CommentController.
type CommentAPI interface {
	ListByIssue(ctx context.Context, issueID int) ([]models.Comment, error)
	Create(ctx context.Context, draft models.Comment) (models.Comment, error)
}

// CommentController loads and adds the comments of issues held in the store.
type CommentController struct {
	deps *Deps
	api  CommentAPI

	mu   sync.Mutex
	gens map[int]*dispatch.Generation
}

// NewCommentController returns a controller.
func NewCommentController(deps *Deps, api CommentAPI) *CommentController {
	return &CommentController{deps: deps, api: api, gens: make(map[int]*dispatch.Generation)}
}

// Load fetches the comments of issue issueID and replaces its comment
// sequence on the loop. Only the newest Load of an issue is applied.
func (c *CommentController) Load(issueID int, cb Callbacks[[]models.Comment]) error {
	if !c.deps.Session.IsLoggedIn() {
		return ErrNotLoggedIn
	}
	if _, ok := c.deps.Store.Issues.Get(issueID); !ok {
		return ErrMissingIssue
	}

	gen := c.generation(issueID)
	tok := gen.Next()
	dispatch.Submit(c.deps.Loop, func(ctx context.Context) ([]models.Comment, error) {
		return c.api.ListByIssue(ctx, issueID)
	}, func(list []models.Comment, err error) {
		if !gen.Current(tok) {
			return
		}
		if err != nil {
			c.deps.fail("load comments", err, cb.OnFailure)
			return
		}
		if !c.deps.Store.SetComments(issueID, list) {
			c.deps.logger().Debug("issue left the store before its comments arrived", zap.Int("issue", issueID))
		}
		cb.success(list)
	})
	return nil
}

// Refresh is Load without callbacks; validation failures are reported
// instead of returned.
func (c *CommentController) Refresh(issueID int) {
	if err := c.Load(issueID, Callbacks[[]models.Comment]{}); err != nil {
		c.deps.failLater("refresh comments", err)
	}
}

// Add posts a comment on issue issueID as the current user and appends the
// stored comment to the issue on success.
func (c *CommentController) Add(issueID int, content string, cb Callbacks[models.Comment]) error {
	author, ok := c.deps.Session.User()
	if !ok {
		return ErrCommentNotLoggedIn
	}
	if _, ok := c.deps.Store.Issues.Get(issueID); !ok {
		return ErrMissingIssue
	}
	text := strings.TrimSpace(content)
	if text == "" {
		return ErrEmptyComment
	}

	draft := models.Comment{
		Author:    &author,
		IssueID:   issueID,
		Content:   text,
		Timestamp: models.Now(),
	}
	dispatch.Submit(c.deps.Loop, func(ctx context.Context) (models.Comment, error) {
		return c.api.Create(ctx, draft)
	}, func(created models.Comment, err error) {
		if err != nil {
			c.deps.fail("add comment", err, cb.OnFailure)
			return
		}
		if created.IssueID == 0 {
			created.IssueID = issueID
		}
		c.deps.Store.AppendComment(issueID, created)
		cb.success(created)
	})
	return nil
}

func (c *CommentController) generation(issueID int) *dispatch.Generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.gens[issueID]
	if !ok {
		g = &dispatch.Generation{}
		c.gens[issueID] = g
	}
	return g
}
