package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krishnx/opportunity-board/internal/models"
)

// AdminStore is the registry of authorized curators. Email is the unique
// key; rows are deactivated, never deleted.
type AdminStore struct {
	pool *pgxpool.Pool
}

func NewAdminStore(pool *pgxpool.Pool) *AdminStore {
	return &AdminStore{pool: pool}
}

// IsAdmin reports whether an active registry row exists for email.
func (s *AdminStore) IsAdmin(ctx context.Context, email string) (bool, error) {
	var active bool
	err := s.pool.QueryRow(ctx,
		"SELECT is_active FROM admins WHERE email = $1", email,
	).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup failed: %w", err)
	}
	return active, nil
}

// Add inserts a new active admin, or reactivates an existing row with the
// same email and returns its identifier.
func (s *AdminStore) Add(ctx context.Context, email, name string) (uuid.UUID, error) {
	var existingID uuid.UUID
	err := s.pool.QueryRow(ctx, "SELECT id FROM admins WHERE email = $1", email).Scan(&existingID)
	if err == nil {
		if _, err := s.pool.Exec(ctx, "UPDATE admins SET is_active = TRUE WHERE id = $1", existingID); err != nil {
			return uuid.Nil, fmt.Errorf("reactivate failed: %w", err)
		}
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("lookup failed: %w", err)
	}

	id := uuid.New()
	now := time.Now().UnixMilli()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO admins (id, email, name, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, $5)
	`, id, email, name, models.RoleEditor, now)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert failed: %w", err)
	}
	return id, nil
}

// List returns every registry row, active or not.
func (s *AdminStore) List(ctx context.Context) ([]models.Admin, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, email, name, role, is_active, created_at, last_login
		FROM admins ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var admins []models.Admin
	for rows.Next() {
		var a models.Admin
		if err := rows.Scan(&a.ID, &a.Email, &a.Name, &a.Role, &a.IsActive, &a.CreatedAt, &a.LastLogin); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	if admins == nil {
		admins = []models.Admin{}
	}
	return admins, nil
}

// Deactivate soft-disables the row.
func (s *AdminStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "UPDATE admins SET is_active = FALSE WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deactivate failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLogin records a successful login for the email, if registered.
func (s *AdminStore) TouchLogin(ctx context.Context, email string) error {
	now := time.Now().UnixMilli()
	_, err := s.pool.Exec(ctx, "UPDATE admins SET last_login = $2 WHERE email = $1", email, now)
	if err != nil {
		return fmt.Errorf("touch login failed: %w", err)
	}
	return nil
}
