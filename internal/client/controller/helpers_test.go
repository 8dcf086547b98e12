package controller

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/bugboard/bugboard/internal/client/dispatch"
	"github.com/bugboard/bugboard/internal/client/service"
	"github.com/bugboard/bugboard/internal/client/session"
	"github.com/bugboard/bugboard/internal/client/store"
	"github.com/bugboard/bugboard/internal/models"
	"github.com/stretchr/testify/require"
)

// newTestDeps starts a UI loop for the duration of the test.
func newTestDeps(t *testing.T) *Deps {
	t.Helper()
	loop := dispatch.NewLoop(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		loop.Wait()
		cancel()
		<-done
	})
	return &Deps{Session: session.New(), Store: store.New(), Loop: loop}
}

// settle waits for every background task and then for funcs posted
// directly to the loop.
func settle(t *testing.T, d *Deps) {
	t.Helper()
	d.Loop.Wait()
	require.NoError(t, d.Loop.Do(func() {}))
}

func loginAs(t *testing.T, d *Deps, email string, role models.Role) models.User {
	t.Helper()
	u := models.User{ID: models.IntPtr(1), Username: email, Role: role}
	require.NoError(t, d.Session.Login(u, "tok"))
	return u
}

// errorLog records OnError calls; it is only touched on the loop.
type errorLog struct {
	ops  []string
	errs []error
}

func (l *errorLog) record(op string, err error) {
	l.ops = append(l.ops, op)
	l.errs = append(l.errs, err)
}

// outcome collects callback results; callbacks run on the loop and the test
// reads after settle.
type outcome[T any] struct {
	mu        sync.Mutex
	successes []T
	failures  []error
}

func (o *outcome[T]) callbacks() Callbacks[T] {
	return Callbacks[T]{
		OnSuccess: func(v T) {
			o.mu.Lock()
			defer o.mu.Unlock()
			o.successes = append(o.successes, v)
		},
		OnFailure: func(err error) {
			o.mu.Lock()
			defer o.mu.Unlock()
			o.failures = append(o.failures, err)
		},
	}
}

type fakeIssueAPI struct {
	FetchAllFunc      func(ctx context.Context) ([]models.Issue, error)
	CreateFunc        func(ctx context.Context, draft models.Issue) (models.Issue, error)
	UploadImageFunc   func(ctx context.Context, id int, filePath string) (string, error)
	DownloadImageFunc func(ctx context.Context, ref string) (io.ReadCloser, error)
}

func (f *fakeIssueAPI) FetchAll(ctx context.Context) ([]models.Issue, error) {
	return f.FetchAllFunc(ctx)
}

func (f *fakeIssueAPI) Create(ctx context.Context, draft models.Issue) (models.Issue, error) {
	return f.CreateFunc(ctx, draft)
}

func (f *fakeIssueAPI) UploadImage(ctx context.Context, id int, filePath string) (string, error) {
	return f.UploadImageFunc(ctx, id, filePath)
}

func (f *fakeIssueAPI) DownloadImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	return f.DownloadImageFunc(ctx, ref)
}

type fakeUserAPI struct {
	ExistsFunc   func(ctx context.Context, email string) (bool, error)
	FetchAllFunc func(ctx context.Context) ([]models.User, error)
	CreateFunc   func(ctx context.Context, req service.UserCreateRequest) (models.User, error)
}

func (f *fakeUserAPI) Exists(ctx context.Context, email string) (bool, error) {
	return f.ExistsFunc(ctx, email)
}

func (f *fakeUserAPI) FetchAll(ctx context.Context) ([]models.User, error) {
	return f.FetchAllFunc(ctx)
}

func (f *fakeUserAPI) Create(ctx context.Context, req service.UserCreateRequest) (models.User, error) {
	return f.CreateFunc(ctx, req)
}

type fakeCommentAPI struct {
	ListByIssueFunc func(ctx context.Context, issueID int) ([]models.Comment, error)
	CreateFunc      func(ctx context.Context, draft models.Comment) (models.Comment, error)
}

func (f *fakeCommentAPI) ListByIssue(ctx context.Context, issueID int) ([]models.Comment, error) {
	return f.ListByIssueFunc(ctx, issueID)
}

func (f *fakeCommentAPI) Create(ctx context.Context, draft models.Comment) (models.Comment, error) {
	return f.CreateFunc(ctx, draft)
}

type fakeAuthAPI struct {
	LoginFunc func(ctx context.Context, email, password string) (*service.LoginResponse, error)
}

func (f *fakeAuthAPI) Login(ctx context.Context, email, password string) (*service.LoginResponse, error) {
	return f.LoginFunc(ctx, email, password)
}

func sampleIssues(n int) []models.Issue {
	out := make([]models.Issue, n)
	for i := range out {
		out[i] = models.Issue{
			ID:       models.IntPtr(i + 1),
			Title:    "issue",
			Type:     models.TypeBug,
			Priority: models.PriorityLow,
			State:    models.StateTodo,
		}
	}
	return out
}
