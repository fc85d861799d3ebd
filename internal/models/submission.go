package models

import (
	"github.com/google/uuid"
)

// Submission statuses. A submission starts pending and only moves via an
// explicit review action; once reviewed, ReviewedAt is set and stays set.
const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// Submission is a visitor-proposed opportunity awaiting admin triage.
// It is never auto-promoted to an Opportunity.
type Submission struct {
	ID              uuid.UUID `json:"id"`
	OpportunityName string    `json:"opportunityName"`
	OpportunityType string    `json:"opportunityType"`
	Description     string    `json:"description"`
	Link            string    `json:"link"`
	UserName        *string   `json:"userName,omitempty"`
	UserTwitter     *string   `json:"userTwitter,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       int64     `json:"createdAt"`
	ReviewedAt      *int64    `json:"reviewedAt,omitempty"`
}

// ValidSubmissionStatus reports whether s is one of the review statuses.
func ValidSubmissionStatus(s string) bool {
	switch s {
	case SubmissionPending, SubmissionApproved, SubmissionRejected:
		return true
	}
	return false
}
