package repository

import (
	"context"
	"testing"

	"github.com/bugboard/bugboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_Users(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	u, err := repo.CreateUser(ctx, models.Account{User: models.User{Username: "a@b.c", Role: models.RoleAdmin}, PasswordHash: "h"})
	require.NoError(t, err)
	require.NotNil(t, u.ID)

	_, err = repo.CreateUser(ctx, models.Account{User: models.User{Username: "a@b.c"}})
	assert.ErrorIs(t, err, models.ErrConflict)

	ok, err := repo.UserExists(ctx, "a@b.c")
	require.NoError(t, err)
	assert.True(t, ok)

	acc, err := repo.AccountByEmail(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "h", acc.PasswordHash)

	_, err = repo.AccountByEmail(ctx, "nobody@b.c")
	assert.ErrorIs(t, err, models.ErrNotFound)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestMemoryRepository_IssuesAndComments(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	is, err := repo.CreateIssue(ctx, models.Issue{Title: "one"})
	require.NoError(t, err)
	id := *is.ID

	require.NoError(t, repo.SetIssueImage(ctx, id, "img.png"))
	assert.ErrorIs(t, repo.SetIssueImage(ctx, id+100, "img.png"), models.ErrNotFound)

	list, err := repo.ListIssues(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "img.png", list[0].ImagePath)

	_, err = repo.CreateComment(ctx, models.Comment{IssueID: id, Content: "c1"})
	require.NoError(t, err)
	_, err = repo.CreateComment(ctx, models.Comment{IssueID: id + 100, Content: "lost"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	comments, err := repo.ListComments(ctx, id)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "c1", comments[0].Content)

	empty, err := repo.ListComments(ctx, id+100)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
