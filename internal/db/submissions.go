package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krishnx/opportunity-board/internal/models"
)

// SubmissionStore persists visitor-proposed opportunities pending review.
type SubmissionStore struct {
	pool *pgxpool.Pool
}

func NewSubmissionStore(pool *pgxpool.Pool) *SubmissionStore {
	return &SubmissionStore{pool: pool}
}

// SubmissionInput carries the public submission form fields. Required-field
// validation happens at the API boundary; the store accepts any well-typed
// payload.
type SubmissionInput struct {
	OpportunityName string  `json:"opportunityName"`
	OpportunityType string  `json:"opportunityType"`
	Description     string  `json:"description"`
	Link            string  `json:"link"`
	UserName        *string `json:"userName"`
	UserTwitter     *string `json:"userTwitter"`
}

// Create inserts a new submission with status pending and no review
// timestamp.
func (s *SubmissionStore) Create(ctx context.Context, in SubmissionInput) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now().UnixMilli()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO submissions (
			id, opportunity_name, opportunity_type, description, link,
			user_name, user_twitter, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id, in.OpportunityName, in.OpportunityType, in.Description, in.Link,
		in.UserName, in.UserTwitter, models.SubmissionPending, now)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert failed: %w", err)
	}
	return id, nil
}

// List returns submissions, newest first. When status is non-empty only
// exact matches are returned.
func (s *SubmissionStore) List(ctx context.Context, status string) ([]models.Submission, error) {
	sql := `
		SELECT id, opportunity_name, opportunity_type, description, link,
		       user_name, user_twitter, status, created_at, reviewed_at
		FROM submissions
	`
	var args []any
	if status != "" {
		sql += " WHERE status = $1"
		args = append(args, status)
	}
	sql += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		var sub models.Submission
		if err := rows.Scan(
			&sub.ID, &sub.OpportunityName, &sub.OpportunityType, &sub.Description, &sub.Link,
			&sub.UserName, &sub.UserTwitter, &sub.Status, &sub.CreatedAt, &sub.ReviewedAt,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	if subs == nil {
		subs = []models.Submission{}
	}
	return subs, nil
}

// UpdateStatus sets the review outcome and stamps reviewed_at. The enum
// check lives at the API boundary; reviewed_at once set is never cleared.
func (s *SubmissionStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	now := time.Now().UnixMilli()
	tag, err := s.pool.Exec(ctx, `
		UPDATE submissions SET status = $2, reviewed_at = $3 WHERE id = $1
	`, id, status, now)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
