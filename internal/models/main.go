// Package models defines the core data structures shared by the tracker
// client and the reference backend: users, issues and comments.
package models

import "strings"

// User represents a tracker account.
type User struct {
	// ID is assigned by the server; nil until the account is persisted.
	ID *int `json:"id,omitempty"`
	// Username is the e-mail address used to sign in. Unique, compared
	// case-insensitively.
	Username string `json:"email"`
	// PasswordSecret is only populated on drafts sent to the server.
	PasswordSecret string `json:"password,omitempty"`
	// Role is the authorization level of the account.
	Role Role `json:"role"`
}

// Key returns the server id of the user, if one has been assigned.
func (u User) Key() (int, bool) { return deref(u.ID) }

// IsAdmin reports whether the user has administrative rights.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// SameUsername reports whether two usernames identify the same account.
func SameUsername(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// NormalizeUsername trims and lower-cases an e-mail address.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Issue is a tracked problem, feature request, question or documentation task.
type Issue struct {
	// ID is assigned by the server; nil until the issue is persisted.
	ID *int `json:"id,omitempty"`
	// Title is a short summary.
	Title string `json:"titolo"`
	// Description holds the full text.
	Description string `json:"descrizione"`
	// Type classifies the issue.
	Type IssueType `json:"tipologia"`
	// Priority orders issues by urgency.
	Priority Priority `json:"priorita"`
	// State tracks the workflow position.
	State IssueState `json:"stato"`
	// Reporter is the user who opened the issue.
	Reporter *User `json:"creataDa,omitempty"`
	// ImagePath references an attachment stored by the server.
	ImagePath string `json:"img,omitempty"`
	// Comments are loaded lazily per issue and never travel with the issue.
	Comments []Comment `json:"-"`
}

// Key returns the server id of the issue, if one has been assigned.
func (i Issue) Key() (int, bool) { return deref(i.ID) }

// Comment is a note attached to an issue.
type Comment struct {
	ID *int `json:"id,omitempty"`
	// Author is the user who wrote the comment.
	Author *User `json:"scrittoDa,omitempty"`
	// IssueID references the owning issue.
	IssueID int `json:"appartieneId"`
	// Content is the comment text.
	Content string `json:"descrizione"`
	// Timestamp is the creation time as recorded by the writer.
	Timestamp LocalTime `json:"data"`
}

// Key returns the server id of the comment, if one has been assigned.
func (c Comment) Key() (int, bool) { return deref(c.ID) }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

func deref(p *int) (int, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
