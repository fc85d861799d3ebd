package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krishnx/opportunity-board/internal/models"
)

// AuditStore is the append-only record of admin actions. Every mutating
// admin operation records an entry through it.
type AuditStore struct {
	pool *pgxpool.Pool
}

func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Record appends one entry. The entry's ID and Timestamp are assigned here
// when unset.
func (s *AuditStore) Record(ctx context.Context, entry models.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixMilli()
	}

	var changes []byte
	if entry.Changes != nil {
		var err error
		changes, err = json.Marshal(entry.Changes)
		if err != nil {
			return fmt.Errorf("encode changes failed: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (id, admin_id, admin_email, action, resource_type, resource_id, changes, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, entry.AdminID, entry.AdminEmail, entry.Action, entry.ResourceType, entry.ResourceID, changes, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert failed: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (s *AuditStore) List(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, admin_id, admin_email, action, resource_type, resource_id, changes, ts
		FROM audit_log ORDER BY ts DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var changes []byte
		if err := rows.Scan(&e.ID, &e.AdminID, &e.AdminEmail, &e.Action, &e.ResourceType, &e.ResourceID, &changes, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if len(changes) > 0 {
			_ = json.Unmarshal(changes, &e.Changes)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	if entries == nil {
		entries = []models.AuditEntry{}
	}
	return entries, nil
}
