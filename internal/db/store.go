package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/microcosm-cc/bluemonday"

	"github.com/krishnx/opportunity-board/internal/models"
	"github.com/krishnx/opportunity-board/internal/tags"
)

// StatusAll selects every status in ListParams.
const StatusAll = "all"

// htmlPolicy sanitizes admin-supplied rich descriptions before storage.
var htmlPolicy = bluemonday.UGCPolicy()

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type ListParams struct {
	Status          string // "all", "active", "inactive" or "archived"
	Search          string // case-insensitive substring over title, description, provider
	IncludeArchived bool   // only consulted when Status is "all"
}

// OpportunityInput carries every caller-settable field for create.
type OpportunityInput struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	DescriptionFull  string   `json:"description_full"`
	Provider         string   `json:"provider"`
	LogoURL          string   `json:"logoUrl"`
	CategoryTags     []string `json:"categoryTags"`
	ApplicableGroups []string `json:"applicableGroups"`
	ApplyURL         string   `json:"applyUrl"`
	Deadline         *int64   `json:"deadline"`
	Status           string   `json:"status"`
	Regions          []string `json:"regions"`
	FundingTypes     []string `json:"fundingTypes"`
	Eligibility      *string  `json:"eligibility"`
	VerifiedAt       *int64   `json:"verifiedAt"`
	SortOrder        *float64 `json:"sortOrder"`
}

// UpdateParams replaces every field that is present (non-nil); omitted
// fields keep their stored value. ClearDeadline resets the deadline to the
// "not yet known" state.
type UpdateParams struct {
	Title            *string   `json:"title"`
	Description      *string   `json:"description"`
	DescriptionFull  *string   `json:"description_full"`
	Provider         *string   `json:"provider"`
	LogoURL          *string   `json:"logoUrl"`
	CategoryTags     *[]string `json:"categoryTags"`
	ApplicableGroups *[]string `json:"applicableGroups"`
	ApplyURL         *string   `json:"applyUrl"`
	Deadline         *int64    `json:"deadline"`
	ClearDeadline    bool      `json:"clearDeadline"`
	Status           *string   `json:"status"`
	Regions          *[]string `json:"regions"`
	FundingTypes     *[]string `json:"fundingTypes"`
	Eligibility      *string   `json:"eligibility"`
	VerifiedAt       *int64    `json:"verifiedAt"`
	SortOrder        *float64  `json:"sortOrder"`
}

const oppCols = `id, title, description, description_full, provider, logo_url,
	category_tags, applicable_groups, apply_url, deadline, status,
	regions, funding_types, eligibility, created_at, updated_at,
	verified_at, archived_at, archived_by, created_by, sort_order`

func scanOpportunity(scan func(dest ...any) error) (models.Opportunity, error) {
	var o models.Opportunity
	err := scan(
		&o.ID, &o.Title, &o.Description, &o.DescriptionFull, &o.Provider, &o.LogoURL,
		&o.CategoryTags, &o.ApplicableGroups, &o.ApplyURL, &o.Deadline, &o.Status,
		&o.Regions, &o.FundingTypes, &o.Eligibility, &o.CreatedAt, &o.UpdatedAt,
		&o.VerifiedAt, &o.ArchivedAt, &o.ArchivedBy, &o.CreatedBy, &o.SortOrder,
	)
	if err != nil {
		return o, err
	}
	if o.CategoryTags == nil {
		o.CategoryTags = []string{}
	}
	if o.ApplicableGroups == nil {
		o.ApplicableGroups = []string{}
	}
	return o, nil
}

// buildListFilter builds the WHERE clause for ListOpportunities. Visibility
// is entirely caller-driven: the public surface always asks for
// status=active, the admin surface asks for include_archived.
func buildListFilter(params ListParams) (string, []any) {
	where := "WHERE 1=1"
	var args []any
	argIdx := 1

	status := params.Status
	if status == "" {
		status = StatusAll
	}
	if status == StatusAll {
		if !params.IncludeArchived {
			where += " AND status <> 'archived'"
		}
	} else {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	if search := strings.TrimSpace(params.Search); search != "" {
		where += fmt.Sprintf(
			" AND (title ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%' OR provider ILIKE '%%' || $%d || '%%')",
			argIdx, argIdx, argIdx,
		)
		args = append(args, search)
	}

	return where, args
}

func (s *Store) ListOpportunities(ctx context.Context, params ListParams) ([]models.Opportunity, error) {
	where, args := buildListFilter(params)

	// Creation order with id tiebreak: deterministic for a given snapshot.
	sql := fmt.Sprintf("SELECT %s FROM opportunities %s ORDER BY created_at ASC, id ASC", oppCols, where)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var opps []models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		opps = append(opps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	if opps == nil {
		opps = []models.Opportunity{}
	}
	return opps, nil
}

func (s *Store) GetOpportunity(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	sql := fmt.Sprintf("SELECT %s FROM opportunities WHERE id = $1", oppCols)
	row := s.pool.QueryRow(ctx, sql, id)

	o, err := scanOpportunity(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	return &o, nil
}

func (s *Store) CreateOpportunity(ctx context.Context, in OpportunityInput, createdBy string) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now().UnixMilli()

	status := in.Status
	if status == "" {
		status = models.StatusActive
	}
	groups := in.ApplicableGroups
	if groups == nil {
		groups = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO opportunities (
			id, title, description, description_full, provider, logo_url,
			category_tags, applicable_groups, apply_url, deadline, status,
			regions, funding_types, eligibility, created_at, updated_at,
			verified_at, created_by, sort_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`,
		id, in.Title, in.Description, htmlPolicy.Sanitize(in.DescriptionFull), in.Provider, in.LogoURL,
		tags.Normalize(in.CategoryTags), groups, in.ApplyURL, in.Deadline, status,
		in.Regions, in.FundingTypes, in.Eligibility, now, now,
		in.VerifiedAt, createdBy, in.SortOrder,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert failed: %w", err)
	}
	return id, nil
}

// buildUpdateSet builds the SET clause for UpdateOpportunity from the
// non-nil fields of params, starting at positional argument argIdx. The
// updated_at bump is appended by the caller.
func buildUpdateSet(params UpdateParams, argIdx int) ([]string, []any) {
	var sets []string
	var args []any

	add := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, val)
		argIdx++
	}

	if params.Title != nil {
		add("title", *params.Title)
	}
	if params.Description != nil {
		add("description", *params.Description)
	}
	if params.DescriptionFull != nil {
		add("description_full", htmlPolicy.Sanitize(*params.DescriptionFull))
	}
	if params.Provider != nil {
		add("provider", *params.Provider)
	}
	if params.LogoURL != nil {
		add("logo_url", *params.LogoURL)
	}
	if params.CategoryTags != nil {
		add("category_tags", tags.Normalize(*params.CategoryTags))
	}
	if params.ApplicableGroups != nil {
		add("applicable_groups", *params.ApplicableGroups)
	}
	if params.ApplyURL != nil {
		add("apply_url", *params.ApplyURL)
	}
	if params.ClearDeadline {
		sets = append(sets, "deadline = NULL")
	} else if params.Deadline != nil {
		add("deadline", *params.Deadline)
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.Regions != nil {
		add("regions", *params.Regions)
	}
	if params.FundingTypes != nil {
		add("funding_types", *params.FundingTypes)
	}
	if params.Eligibility != nil {
		add("eligibility", *params.Eligibility)
	}
	if params.VerifiedAt != nil {
		add("verified_at", *params.VerifiedAt)
	}
	if params.SortOrder != nil {
		add("sort_order", *params.SortOrder)
	}

	return sets, args
}

// buildUpdateStatement composes the full UPDATE for the given params. The
// final SET clause is always the updated_at bump: GREATEST keeps updated_at
// strictly increasing even when two mutations land within the same
// millisecond, and even when params carries no fields at all.
func buildUpdateStatement(id uuid.UUID, params UpdateParams, now int64) (string, []any) {
	sets, args := buildUpdateSet(params, 2)
	sets = append(sets, fmt.Sprintf("updated_at = GREATEST($%d, updated_at + 1)", len(args)+2))
	args = append([]any{id}, args...)
	args = append(args, now)

	sql := fmt.Sprintf("UPDATE opportunities SET %s WHERE id = $1", strings.Join(sets, ", "))
	return sql, args
}

// UpdateOpportunity replaces every field present in params and advances
// updated_at.
func (s *Store) UpdateOpportunity(ctx context.Context, id uuid.UUID, params UpdateParams) error {
	sql, args := buildUpdateStatement(id, params, time.Now().UnixMilli())
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// copyForDuplicate builds a deep value copy of src: new identifier, both
// timestamps reset to now, status reset to active. Every other field,
// including archive metadata and creator identity, carries over verbatim.
func copyForDuplicate(src models.Opportunity, now int64) models.Opportunity {
	dup := src
	dup.ID = uuid.New()
	dup.CreatedAt = now
	dup.UpdatedAt = now
	dup.Status = models.StatusActive

	dup.CategoryTags = append([]string{}, src.CategoryTags...)
	dup.ApplicableGroups = append([]string{}, src.ApplicableGroups...)
	if src.Regions != nil {
		dup.Regions = append([]string(nil), src.Regions...)
	}
	if src.FundingTypes != nil {
		dup.FundingTypes = append([]string(nil), src.FundingTypes...)
	}
	dup.Deadline = clonePtr(src.Deadline)
	dup.Eligibility = clonePtr(src.Eligibility)
	dup.VerifiedAt = clonePtr(src.VerifiedAt)
	dup.ArchivedAt = clonePtr(src.ArchivedAt)
	dup.ArchivedBy = clonePtr(src.ArchivedBy)
	dup.SortOrder = clonePtr(src.SortOrder)

	return dup
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// DuplicateOpportunity inserts a deep copy of the record and returns the new
// identifier.
func (s *Store) DuplicateOpportunity(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	src, err := s.GetOpportunity(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}

	dup := copyForDuplicate(*src, time.Now().UnixMilli())

	_, err = s.pool.Exec(ctx, `
		INSERT INTO opportunities (
			id, title, description, description_full, provider, logo_url,
			category_tags, applicable_groups, apply_url, deadline, status,
			regions, funding_types, eligibility, created_at, updated_at,
			verified_at, archived_at, archived_by, created_by, sort_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`,
		dup.ID, dup.Title, dup.Description, dup.DescriptionFull, dup.Provider, dup.LogoURL,
		dup.CategoryTags, dup.ApplicableGroups, dup.ApplyURL, dup.Deadline, dup.Status,
		dup.Regions, dup.FundingTypes, dup.Eligibility, dup.CreatedAt, dup.UpdatedAt,
		dup.VerifiedAt, dup.ArchivedAt, dup.ArchivedBy, dup.CreatedBy, dup.SortOrder,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("duplicate insert failed: %w", err)
	}
	return dup.ID, nil
}

// archiveOpportunitySQL matches on id alone, so re-archiving an already
// archived record still refreshes archived_at and archived_by with the new
// call's values and still advances updated_at.
const archiveOpportunitySQL = `
	UPDATE opportunities
	SET status = 'archived', archived_at = $2, archived_by = $3,
	    updated_at = GREATEST($2, updated_at + 1)
	WHERE id = $1
`

// ArchiveOpportunity marks the record archived.
func (s *Store) ArchiveOpportunity(ctx context.Context, id uuid.UUID, adminID string) error {
	now := time.Now().UnixMilli()
	tag, err := s.pool.Exec(ctx, archiveOpportunitySQL, id, now, adminID)
	if err != nil {
		return fmt.Errorf("archive failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOpportunity physically removes the record. Irreversible.
func (s *Store) DeleteOpportunity(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM opportunities WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
