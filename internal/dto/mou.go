package dto

import (
	"time"

	"github.com/uni-iro/mou-registry-api/internal/models"
)

// SubmitMOURequest payload for creating a new submission.
type SubmitMOURequest struct {
	Title               string     `json:"title" validate:"required"`
	PartnerOrganization string     `json:"partner_organization" validate:"required"`
	Purpose             string     `json:"purpose" validate:"required"`
	Description         string     `json:"description"`
	DatesSigned         *time.Time `json:"dates_signed"`
	ValidUntil          time.Time  `json:"valid_until" validate:"required"`
	Justification       string     `json:"justification"`
	AdditionalDocs      []string   `json:"additional_docs"`
	OrganizationAddress *string    `json:"organization_address"`
	OrganizationLat     *float64   `json:"organization_lat"`
	OrganizationLng     *float64   `json:"organization_lng"`
}

// RenewMOURequest payload for renewing an expiring submission.
type RenewMOURequest struct {
	DatesSigned *time.Time `json:"dates_signed"`
	ValidUntil  time.Time  `json:"valid_until" validate:"required"`
}

// DecisionRequest carries an optional explicit stage for approve and
// reject calls. Stage admins may omit it; super admins use it to act on
// a specific stage instead of the next pending one.
type DecisionRequest struct {
	Stage models.Stage `json:"stage"`
}

// MOUQuery mirrors supported register listing filters.
type MOUQuery struct {
	OrganizationID string
	ExpiringWithin time.Duration
	Limit          int
}

// MOUListResponse aggregates register entries for the caller.
type MOUListResponse struct {
	MOUs  []models.MOU `json:"mous"`
	Total int          `json:"total"`
}
