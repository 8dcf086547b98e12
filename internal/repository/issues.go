package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bugboard/bugboard/internal/models"
	"github.com/lib/pq"
)

// foreignKeyViolation is the Postgres SQLSTATE for a broken reference.
const foreignKeyViolation = "23503"

// PostgresIssueRepository stores issues and their comments.
type PostgresIssueRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresIssueRepository creates a repository over db.
func NewPostgresIssueRepository(db *sql.DB) *PostgresIssueRepository {
	return &PostgresIssueRepository{DB: db}
}

// ListIssues returns every issue with its reporter, oldest first.
func (r *PostgresIssueRepository) ListIssues(ctx context.Context) ([]models.Issue, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT i.id, i.title, i.description, i.type, i.priority, i.state, i.image_path, u.id, u.email, u.role
		FROM issues i LEFT JOIN users u ON u.id = i.reporter_id
		ORDER BY i.id
	`)
	if err != nil {
		return nil, fmt.Errorf("ListIssues: %w", err)
	}
	defer rows.Close()

	issues := []models.Issue{}
	for rows.Next() {
		var (
			id                          int
			is                          models.Issue
			typ, priority, state        string
			reporterID                  sql.NullInt64
			reporterEmail, reporterRole sql.NullString
		)
		if err := rows.Scan(&id, &is.Title, &is.Description, &typ, &priority, &state, &is.ImagePath,
			&reporterID, &reporterEmail, &reporterRole); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		is.ID = &id
		is.Type = models.IssueType(typ)
		is.Priority = models.Priority(priority)
		is.State = models.IssueState(state)
		is.Reporter = nullableUser(reporterID, reporterEmail, reporterRole)
		issues = append(issues, is)
	}
	return issues, rows.Err()
}

// CreateIssue inserts is and returns it with its new id.
func (r *PostgresIssueRepository) CreateIssue(ctx context.Context, is models.Issue) (models.Issue, error) {
	var id int
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO issues (title, description, type, priority, state, reporter_id, image_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, is.Title, is.Description, string(is.Type), string(is.Priority), string(is.State), userID(is.Reporter), is.ImagePath).Scan(&id)
	if err != nil {
		return models.Issue{}, fmt.Errorf("CreateIssue: %w", err)
	}
	is.ID = &id
	return is, nil
}

// SetIssueImage records the stored image name of issue id.
func (r *PostgresIssueRepository) SetIssueImage(ctx context.Context, id int, path string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE issues SET image_path = $1 WHERE id = $2`, path, id)
	if err != nil {
		return fmt.Errorf("SetIssueImage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetIssueImage: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListComments returns the comments of issue issueID, oldest first.
func (r *PostgresIssueRepository) ListComments(ctx context.Context, issueID int) ([]models.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.issue_id, c.content, c.written_at, u.id, u.email, u.role
		FROM comments c LEFT JOIN users u ON u.id = c.author_id
		WHERE c.issue_id = $1
		ORDER BY c.id
	`, issueID)
	if err != nil {
		return nil, fmt.Errorf("ListComments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var (
			id                      int
			c                       models.Comment
			authorID                sql.NullInt64
			authorEmail, authorRole sql.NullString
		)
		if err := rows.Scan(&id, &c.IssueID, &c.Content, &c.Timestamp.Time, &authorID, &authorEmail, &authorRole); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		c.ID = &id
		c.Author = nullableUser(authorID, authorEmail, authorRole)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CreateComment inserts c and returns it with its new id. A comment on a
// missing issue yields models.ErrNotFound.
func (r *PostgresIssueRepository) CreateComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	var id int
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO comments (issue_id, author_id, content, written_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, c.IssueID, userID(c.Author), c.Content, c.Timestamp.Time).Scan(&id)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return models.Comment{}, models.ErrNotFound
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("CreateComment: %w", err)
	}
	c.ID = &id
	return c, nil
}

func userID(u *models.User) any {
	if u == nil || u.ID == nil {
		return nil
	}
	return int64(*u.ID)
}

func nullableUser(id sql.NullInt64, email, role sql.NullString) *models.User {
	if !id.Valid {
		return nil
	}
	return &models.User{ID: models.IntPtr(int(id.Int64)), Username: email.String, Role: models.Role(role.String)}
}
