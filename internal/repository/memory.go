package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/bugboard/bugboard/internal/models"
)

// MemoryRepository keeps accounts, issues and comments in process memory.
// It serves both the user and the issue side of the backend.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts []models.Account
	issues   []models.Issue
	comments map[int][]models.Comment
	nextID   int
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{comments: make(map[int][]models.Comment)}
}

func (r *MemoryRepository) id() *int {
	r.nextID++
	return models.IntPtr(r.nextID)
}

// CreateUser stores acc; a taken e-mail yields models.ErrConflict.
func (r *MemoryRepository) CreateUser(_ context.Context, acc models.Account) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.accountIndex(acc.Username) >= 0 {
		return models.User{}, models.ErrConflict
	}
	acc.ID = r.id()
	acc.PasswordSecret = ""
	r.accounts = append(r.accounts, acc)
	return acc.User, nil
}

// UserExists reports whether an account with email exists.
func (r *MemoryRepository) UserExists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.accountIndex(email) >= 0, nil
}

// AccountByEmail returns the account with email or models.ErrNotFound.
func (r *MemoryRepository) AccountByEmail(_ context.Context, email string) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.accountIndex(email)
	if i < 0 {
		return models.Account{}, models.ErrNotFound
	}
	return r.accounts[i], nil
}

// ListUsers returns every account in creation order.
func (r *MemoryRepository) ListUsers(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]models.User, len(r.accounts))
	for i, acc := range r.accounts {
		users[i] = acc.User
	}
	return users, nil
}

func (r *MemoryRepository) accountIndex(email string) int {
	return slices.IndexFunc(r.accounts, func(acc models.Account) bool {
		return acc.Username == email
	})
}

// ListIssues returns every issue in creation order.
func (r *MemoryRepository) ListIssues(_ context.Context) ([]models.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.issues), nil
}

// CreateIssue stores is and returns it with its new id.
func (r *MemoryRepository) CreateIssue(_ context.Context, is models.Issue) (models.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	is.ID = r.id()
	is.Comments = nil
	r.issues = append(r.issues, is)
	return is, nil
}

// SetIssueImage records the stored image name of issue id.
func (r *MemoryRepository) SetIssueImage(_ context.Context, id int, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.issueIndex(id)
	if i < 0 {
		return models.ErrNotFound
	}
	r.issues[i].ImagePath = path
	return nil
}

// ListComments returns the comments of issue issueID in creation order.
func (r *MemoryRepository) ListComments(_ context.Context, issueID int) ([]models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Comment{}, r.comments[issueID]...), nil
}

// CreateComment stores c; a comment on a missing issue yields
// models.ErrNotFound.
func (r *MemoryRepository) CreateComment(_ context.Context, c models.Comment) (models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.issueIndex(c.IssueID) < 0 {
		return models.Comment{}, models.ErrNotFound
	}
	c.ID = r.id()
	r.comments[c.IssueID] = append(r.comments[c.IssueID], c)
	return c, nil
}

func (r *MemoryRepository) issueIndex(id int) int {
	return slices.IndexFunc(r.issues, func(is models.Issue) bool {
		return is.ID != nil && *is.ID == id
	})
}
