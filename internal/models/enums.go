package models

import (
	"fmt"
	"strings"
)

// Role defines the authorization level of a user.
type Role string

const (
	// RoleAdmin may create user accounts.
	RoleAdmin Role = "ADMIN"
	// RoleUser is a regular account.
	RoleUser Role = "USER"
)

// IssueType classifies an issue.
type IssueType string

const (
	TypeQuestion      IssueType = "QUESTION"
	TypeBug           IssueType = "BUG"
	TypeDocumentation IssueType = "DOCUMENTATION"
	TypeFeature       IssueType = "FEATURE"
)

// Priority orders issues by urgency.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// IssueState is the workflow position of an issue.
type IssueState string

const (
	StateTodo       IssueState = "TODO"
	StateInProgress IssueState = "IN_PROGRESS"
	StateDone       IssueState = "DONE"
)

var (
	roles      = []Role{RoleAdmin, RoleUser}
	issueTypes = []IssueType{TypeQuestion, TypeBug, TypeDocumentation, TypeFeature}
	priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}
	states     = []IssueState{StateTodo, StateInProgress, StateDone}
)

var labels = map[string]string{
	string(RoleAdmin):         "Admin",
	string(RoleUser):          "User",
	string(TypeQuestion):      "Question",
	string(TypeBug):           "Bug",
	string(TypeDocumentation): "Documentation",
	string(TypeFeature):       "Feature",
	string(PriorityLow):       "Low",
	string(PriorityMedium):    "Medium",
	string(PriorityHigh):      "High",
	string(StateTodo):         "To Do",
	string(StateInProgress):   "In Progress",
	string(StateDone):         "Done",
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return contains(roles, r) }

// Label returns the display name of the role.
func (r Role) Label() string { return labels[string(r)] }

func (t IssueType) Valid() bool    { return contains(issueTypes, t) }
func (t IssueType) Label() string  { return labels[string(t)] }
func (p Priority) Valid() bool     { return contains(priorities, p) }
func (p Priority) Label() string   { return labels[string(p)] }
func (s IssueState) Valid() bool   { return contains(states, s) }
func (s IssueState) Label() string { return labels[string(s)] }

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, error) { return parse(roles, s, "role") }

// ParseIssueType parses an issue type by wire name or label, case-insensitively.
func ParseIssueType(s string) (IssueType, error) { return parse(issueTypes, s, "issue type") }

// ParsePriority parses a priority by wire name or label, case-insensitively.
func ParsePriority(s string) (Priority, error) { return parse(priorities, s, "priority") }

// ParseIssueState parses a state by wire name or label, case-insensitively.
// "in progress", "in-progress" and "IN_PROGRESS" are all accepted.
func ParseIssueState(s string) (IssueState, error) { return parse(states, s, "state") }

// IssueTypes lists every issue type in display order.
func IssueTypes() []IssueType { return append([]IssueType(nil), issueTypes...) }

// Priorities lists every priority from lowest to highest.
func Priorities() []Priority { return append([]Priority(nil), priorities...) }

// IssueStates lists every state in workflow order.
func IssueStates() []IssueState { return append([]IssueState(nil), states...) }

func contains[T ~string](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func parse[T ~string](set []T, s, what string) (T, error) {
	norm := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range set {
		if string(v) == norm || strings.EqualFold(labels[string(v)], strings.TrimSpace(s)) {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", what, s)
}
