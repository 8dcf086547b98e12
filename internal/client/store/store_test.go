package store

import (
	"testing"

	"github.com/bugboard/bugboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issue(id int, title string, typ models.IssueType, prio models.Priority, state models.IssueState) models.Issue {
	return models.Issue{
		ID:          models.IntPtr(id),
		Title:       title,
		Description: title + " details",
		Type:        typ,
		Priority:    prio,
		State:       state,
	}
}

func titles(list []models.Issue) []string {
	out := make([]string, 0, len(list))
	for _, is := range list {
		out = append(out, is.Title)
	}
	return out
}

func TestCollection_ReplaceAllKeepsOrderAndDedups(t *testing.T) {
	s := New()
	var changes []Change[models.Issue]
	s.Issues.Subscribe(func(c Change[models.Issue]) { changes = append(changes, c) })

	s.Issues.ReplaceAll([]models.Issue{
		issue(3, "c", models.TypeBug, models.PriorityLow, models.StateTodo),
		issue(1, "a", models.TypeBug, models.PriorityLow, models.StateTodo),
		issue(3, "c2", models.TypeBug, models.PriorityLow, models.StateTodo),
		{Title: "draft"},
	})

	assert.Equal(t, []string{"c2", "a", "draft"}, titles(s.Issues.Snapshot()))
	require.Len(t, changes, 1, "replace must notify once")
	assert.Equal(t, Replaced, changes[0].Kind)
	assert.Len(t, changes[0].Items, 3)
}

func TestCollection_AppendUpdatesExistingKey(t *testing.T) {
	s := New()
	s.Issues.ReplaceAll([]models.Issue{issue(1, "a", models.TypeBug, models.PriorityLow, models.StateTodo)})

	var kinds []ChangeKind
	s.Issues.Subscribe(func(c Change[models.Issue]) { kinds = append(kinds, c.Kind) })

	assert.True(t, s.Issues.Append(issue(2, "b", models.TypeBug, models.PriorityLow, models.StateTodo)))
	assert.False(t, s.Issues.Append(issue(1, "a2", models.TypeBug, models.PriorityLow, models.StateDone)))

	assert.Equal(t, []string{"a2", "b"}, titles(s.Issues.Snapshot()))
	assert.Equal(t, []ChangeKind{Added, Updated}, kinds)
}

func TestCollection_Unsubscribe(t *testing.T) {
	c := NewCollection[models.User]()
	calls := 0
	unsubscribe := c.Subscribe(func(Change[models.User]) { calls++ })
	c.Append(models.User{ID: models.IntPtr(1), Username: "a@b.c"})
	unsubscribe()
	c.Append(models.User{ID: models.IntPtr(2), Username: "b@b.c"})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, c.Len())
}

func TestCollection_SnapshotIsIsolated(t *testing.T) {
	c := NewCollection[models.User]()
	c.Append(models.User{ID: models.IntPtr(1), Username: "a@b.c"})
	snap := c.Snapshot()
	snap[0].Username = "changed"
	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a@b.c", got.Username)
}

func TestStore_Comments(t *testing.T) {
	s := New()
	s.Issues.ReplaceAll([]models.Issue{issue(4, "a", models.TypeBug, models.PriorityLow, models.StateTodo)})
	before := s.Issues.Snapshot()

	assert.True(t, s.SetComments(4, []models.Comment{{ID: models.IntPtr(1), IssueID: 4, Content: "first"}}))
	assert.True(t, s.AppendComment(4, models.Comment{ID: models.IntPtr(2), IssueID: 4, Content: "second"}))
	assert.False(t, s.AppendComment(99, models.Comment{Content: "orphan"}))

	got, ok := s.Issues.Get(4)
	require.True(t, ok)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "second", got.Comments[1].Content)
	assert.Empty(t, before[0].Comments, "earlier snapshot must not change")
}

func TestStore_HasUsername(t *testing.T) {
	s := New()
	s.Users.Append(models.User{ID: models.IntPtr(1), Username: "Alice@Example.com", Role: models.RoleUser})
	assert.True(t, s.HasUsername("alice@example.com"))
	assert.False(t, s.HasUsername("bob@example.com"))
}

func TestStore_FilterIssues(t *testing.T) {
	s := New()
	s.Issues.ReplaceAll([]models.Issue{
		issue(1, "Login crash", models.TypeBug, models.PriorityHigh, models.StateTodo),
		issue(2, "Dark mode", models.TypeFeature, models.PriorityLow, models.StateInProgress),
		issue(3, "Crash on export", models.TypeBug, models.PriorityLow, models.StateDone),
		issue(4, "API docs", models.TypeDocumentation, models.PriorityMedium, models.StateTodo),
	})

	cases := []struct {
		name   string
		filter IssueFilter
		want   []string
	}{
		{"all", IssueFilter{}, []string{"Login crash", "Dark mode", "Crash on export", "API docs"}},
		{"by type", IssueFilter{Type: models.TypeBug}, []string{"Login crash", "Crash on export"}},
		{"by priority", IssueFilter{Priority: models.PriorityLow}, []string{"Dark mode", "Crash on export"}},
		{"by state", IssueFilter{State: models.StateTodo}, []string{"Login crash", "API docs"}},
		{"search title", IssueFilter{Search: "CRASH"}, []string{"Login crash", "Crash on export"}},
		{"search description", IssueFilter{Search: "docs details"}, []string{"API docs"}},
		{"combined", IssueFilter{Type: models.TypeBug, State: models.StateDone, Search: "crash"}, []string{"Crash on export"}},
		{"none", IssueFilter{Type: models.TypeQuestion}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, titles(s.FilterIssues(tc.filter)))
		})
	}
}

func TestStore_ReplaceIssuesKeepsLoadedComments(t *testing.T) {
	s := New()
	s.Issues.ReplaceAll([]models.Issue{issue(1, "a", models.TypeBug, models.PriorityLow, models.StateTodo)})
	s.SetComments(1, []models.Comment{{ID: models.IntPtr(10), IssueID: 1, Content: "kept"}})

	s.ReplaceIssues([]models.Issue{
		issue(2, "b", models.TypeBug, models.PriorityLow, models.StateTodo),
		issue(1, "a renamed", models.TypeBug, models.PriorityLow, models.StateDone),
	})

	assert.Equal(t, []string{"b", "a renamed"}, titles(s.Issues.Snapshot()))
	got, _ := s.Issues.Get(1)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "kept", got.Comments[0].Content)
	other, _ := s.Issues.Get(2)
	assert.Nil(t, other.Comments)
}
