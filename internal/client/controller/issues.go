package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bugboard/bugboard/internal/client/dispatch"
	"github.com/bugboard/bugboard/internal/client/service"
	"github.com/bugboard/bugboard/internal/client/store"
	"github.com/bugboard/bugboard/internal/models"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// maxImageBytes caps a downloaded image.
const maxImageBytes = 20 << 20

// IssueAPI is the issue endpoint set used by IssueController.
type IssueAPI interface {
	FetchAll(ctx context.Context) ([]models.Issue, error)
	Create(ctx context.Context, draft models.Issue) (models.Issue, error)
	UploadImage(ctx context.Context, id int, filePath string) (string, error)
	DownloadImage(ctx context.Context, ref string) (io.ReadCloser, error)
}

// IssueInput is what a user fills in to open an issue.
type IssueInput struct {
	Title       string
	Description string
	Type        models.IssueType
	Priority    models.Priority
	State       models.IssueState
	// ImagePath is an optional local file uploaded after creation.
	ImagePath string
}

// IssueController keeps Store.Issues in sync with the server.
type IssueController struct {
	deps   *Deps
	api    IssueAPI
	gen    dispatch.Generation
	images *cache.Cache
}

// NewIssueController returns a controller. Downloaded images are cached for
// imageTTL; zero disables expiry.
func NewIssueController(deps *Deps, api IssueAPI, imageTTL time.Duration) *IssueController {
	if imageTTL == 0 {
		imageTTL = cache.NoExpiration
	}
	return &IssueController{
		deps:   deps,
		api:    api,
		images: cache.New(imageTTL, 2*imageTTL),
	}
}

// Refresh reloads every issue in the background and replaces Store.Issues
// on the loop. A result that arrives after a newer Refresh started is
// dropped. Failures are reported, never returned. Safe to call from any
// goroutine.
func (c *IssueController) Refresh() {
	if !c.deps.Session.IsLoggedIn() {
		c.deps.failLater("refresh issues", ErrNotLoggedIn)
		return
	}

	tok := c.gen.Next()
	dispatch.Submit(c.deps.Loop, c.api.FetchAll, func(list []models.Issue, err error) {
		if !c.gen.Current(tok) {
			c.deps.logger().Debug("dropping superseded issue refresh")
			return
		}
		if err != nil {
			c.deps.fail("refresh issues", err, nil)
			return
		}
		c.deps.Store.ReplaceIssues(list)
		c.deps.logger().Debug("issues refreshed", zap.Int("count", len(list)))
	})
}

type createdIssue struct {
	issue     models.Issue
	uploadErr error
}

// Create validates in, then creates the issue in the background. When
// in.ImagePath names an existing file it is uploaded once the issue exists.
// An upload failure does not undo the creation: the issue is appended,
// OnSuccess runs, then OnFailure receives an error wrapping ErrImageUpload.
func (c *IssueController) Create(in IssueInput, cb Callbacks[models.Issue]) error {
	reporter, ok := c.deps.Session.User()
	if !ok {
		return ErrIssueNotLoggedIn
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return ErrEmptyTitle
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return ErrEmptyDescription
	}
	if !in.Type.Valid() || !in.Priority.Valid() || !in.State.Valid() {
		return ErrMissingIssueFields
	}

	draft := models.Issue{
		Title:       title,
		Description: description,
		Type:        in.Type,
		Priority:    in.Priority,
		State:       in.State,
		Reporter:    &reporter,
	}
	imagePath := strings.TrimSpace(in.ImagePath)

	dispatch.Submit(c.deps.Loop, func(ctx context.Context) (createdIssue, error) {
		created, err := c.api.Create(ctx, draft)
		if err != nil {
			return createdIssue{}, err
		}
		out := createdIssue{issue: created}
		if imagePath != "" {
			out.issue.ImagePath, out.uploadErr = c.upload(ctx, created, imagePath)
		}
		return out, nil
	}, func(out createdIssue, err error) {
		if err != nil {
			c.deps.fail("create issue", err, cb.OnFailure)
			return
		}
		c.deps.Store.Issues.Append(out.issue)
		cb.success(out.issue)
		if out.uploadErr != nil {
			c.deps.fail("upload image", out.uploadErr, cb.OnFailure)
		}
	})
	return nil
}

// upload runs on the task goroutine. A missing local file skips the upload.
func (c *IssueController) upload(ctx context.Context, created models.Issue, filePath string) (string, error) {
	if _, err := os.Stat(filePath); err != nil {
		c.deps.logger().Warn("image not found, skipping upload", zap.String("path", filePath), zap.Error(err))
		return "", nil
	}
	id, ok := created.Key()
	if !ok {
		return "", fmt.Errorf("%w: server returned the issue without an id", ErrImageUpload)
	}
	ref, err := c.api.UploadImage(ctx, id, filePath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrImageUpload, err)
	}
	return ref, nil
}

// LoadImage fetches the image named by ref, reusing a cached copy when one
// exists. Only the base name of ref is sent to the server.
func (c *IssueController) LoadImage(ref string, cb Callbacks[[]byte]) error {
	name := service.ImageBaseName(ref)
	if name == "" {
		return ErrEmptyImageReference
	}
	if !c.deps.Session.IsLoggedIn() {
		return ErrNotLoggedIn
	}
	if cached, ok := c.images.Get(name); ok {
		data := cached.([]byte)
		if !c.deps.Loop.Complete(func() { cb.success(data) }) {
			return dispatch.ErrClosed
		}
		return nil
	}

	dispatch.Submit(c.deps.Loop, func(ctx context.Context) ([]byte, error) {
		rc, err := c.api.DownloadImage(ctx, name)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, maxImageBytes))
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", name, err)
		}
		c.images.Set(name, data, cache.DefaultExpiration)
		return data, nil
	}, func(data []byte, err error) {
		if err != nil {
			c.deps.fail("load image", err, cb.OnFailure)
			return
		}
		cb.success(data)
	})
	return nil
}

// Filter returns the issues in the store matching f, in store order.
func (c *IssueController) Filter(f store.IssueFilter) []models.Issue {
	return c.deps.Store.FilterIssues(f)
}

// ByType returns the issues of type t.
func (c *IssueController) ByType(t models.IssueType) []models.Issue {
	return c.Filter(store.IssueFilter{Type: t})
}

// ByPriority returns the issues with priority p.
func (c *IssueController) ByPriority(p models.Priority) []models.Issue {
	return c.Filter(store.IssueFilter{Priority: p})
}

// ByState returns the issues in state s.
func (c *IssueController) ByState(s models.IssueState) []models.Issue {
	return c.Filter(store.IssueFilter{State: s})
}

// Search returns the issues whose title or description contains q.
func (c *IssueController) Search(q string) []models.Issue {
	return c.Filter(store.IssueFilter{Search: q})
}
