package models

import (
	"github.com/google/uuid"
)

// Opportunity statuses. Transitions are unrestricted: any admin update may
// set any value, and archived records remain editable.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusArchived = "archived"
)

// Opportunity is a listed program, grant or bootcamp with an application
// deadline and metadata. Timestamps are Unix milliseconds; a nil Deadline
// means "deadline not yet known", which is a valid state rather than
// missing data.
type Opportunity struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	DescriptionFull  string    `json:"description_full"`
	Provider         string    `json:"provider"`
	LogoURL          string    `json:"logoUrl"`
	CategoryTags     []string  `json:"categoryTags"`
	ApplicableGroups []string  `json:"applicableGroups"`
	ApplyURL         string    `json:"applyUrl"`
	Deadline         *int64    `json:"deadline,omitempty"`
	Status           string    `json:"status"`
	Regions          []string  `json:"regions,omitempty"`
	FundingTypes     []string  `json:"fundingTypes,omitempty"`
	Eligibility      *string   `json:"eligibility,omitempty"`
	CreatedAt        int64     `json:"createdAt"`
	UpdatedAt        int64     `json:"updatedAt"`
	VerifiedAt       *int64    `json:"verifiedAt,omitempty"`
	ArchivedAt       *int64    `json:"archivedAt,omitempty"`
	ArchivedBy       *string   `json:"archivedBy,omitempty"`
	CreatedBy        string    `json:"createdBy"`
	SortOrder        *float64  `json:"sortOrder,omitempty"`
}
