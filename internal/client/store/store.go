package store

import (
	"strings"

	"github.com/bugboard/bugboard/internal/models"
)

// Store is the client's view model: the issue and user collections.
type Store struct {
	Issues *Collection[models.Issue]
	Users  *Collection[models.User]
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		Issues: NewCollection[models.Issue](),
		Users:  NewCollection[models.User](),
	}
}

// ReplaceIssues swaps the issue list for list. Comments already loaded for
// an issue that is still present are carried over, since the issue list
// never includes them.
func (s *Store) ReplaceIssues(list []models.Issue) {
	loaded := make(map[int][]models.Comment)
	for _, is := range s.Issues.Snapshot() {
		if k, ok := is.Key(); ok && is.Comments != nil {
			loaded[k] = is.Comments
		}
	}
	next := make([]models.Issue, len(list))
	for i, is := range list {
		if k, ok := is.Key(); ok && is.Comments == nil {
			is.Comments = loaded[k]
		}
		next[i] = is
	}
	s.Issues.ReplaceAll(next)
}

// SetComments replaces the comment sequence of issue id. It reports whether
// the issue is present.
func (s *Store) SetComments(id int, comments []models.Comment) bool {
	list := append([]models.Comment{}, comments...)
	return s.Issues.Update(id, func(is models.Issue) models.Issue {
		is.Comments = list
		return is
	})
}

// AppendComment adds c to the end of issue id's comments. It reports
// whether the issue is present.
func (s *Store) AppendComment(id int, c models.Comment) bool {
	return s.Issues.Update(id, func(is models.Issue) models.Issue {
		// Copy so snapshots handed out earlier keep their own backing array.
		next := make([]models.Comment, 0, len(is.Comments)+1)
		is.Comments = append(append(next, is.Comments...), c)
		return is
	})
}

// HasUsername reports whether the Users collection holds the e-mail,
// compared case-insensitively.
func (s *Store) HasUsername(email string) bool {
	return s.Users.Any(func(u models.User) bool {
		return models.SameUsername(u.Username, email)
	})
}

// IssueFilter selects issues. Zero-valued fields match everything.
type IssueFilter struct {
	Type     models.IssueType
	Priority models.Priority
	State    models.IssueState
	// Search matches title or description, case-insensitively.
	Search string
}

// Match reports whether is passes every set criterion.
func (f IssueFilter) Match(is models.Issue) bool {
	if f.Type != "" && is.Type != f.Type {
		return false
	}
	if f.Priority != "" && is.Priority != f.Priority {
		return false
	}
	if f.State != "" && is.State != f.State {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return strings.Contains(strings.ToLower(is.Title), q) ||
			strings.Contains(strings.ToLower(is.Description), q)
	}
	return true
}

// FilterIssues returns the issues matching f in collection order.
func (s *Store) FilterIssues(f IssueFilter) []models.Issue {
	return s.Issues.Filter(f.Match)
}
