package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Stage identifies one of the four sequential approval steps.
type Stage string

const (
	StageLegal   Stage = "legal"
	StageFaculty Stage = "faculty"
	StageSenate  Stage = "senate"
	StageUGC     Stage = "ugc"
)

// Stages returns the approval stages in their fixed review order.
func Stages() []Stage {
	return []Stage{StageLegal, StageFaculty, StageSenate, StageUGC}
}

// Valid reports whether the value names one of the four stages.
func (s Stage) Valid() bool {
	switch s {
	case StageLegal, StageFaculty, StageSenate, StageUGC:
		return true
	}
	return false
}

// StageForRole maps a domain-admin role to the stage it may act on.
// Super Admin maps to no single stage; callers handle it separately.
func StageForRole(role UserRole) (Stage, bool) {
	switch role {
	case RoleLegalAdmin:
		return StageLegal, true
	case RoleFacultyAdmin:
		return StageFaculty, true
	case RoleSenateAdmin:
		return StageSenate, true
	case RoleUGCAdmin:
		return StageUGC, true
	default:
		return "", false
	}
}

// StageApproval records the outcome of a single review stage.
type StageApproval struct {
	Approved bool       `json:"approved"`
	Date     *time.Time `json:"date"`
}

// MOUStatus holds the per-stage approval state. It always carries exactly
// the four fixed stage keys.
type MOUStatus struct {
	Legal   StageApproval `json:"legal"`
	Faculty StageApproval `json:"faculty"`
	Senate  StageApproval `json:"senate"`
	UGC     StageApproval `json:"ugc"`
}

// NewMOUStatus returns a status with every stage unapproved.
func NewMOUStatus() MOUStatus {
	return MOUStatus{}
}

// Get returns the approval record for the given stage.
func (s MOUStatus) Get(stage Stage) StageApproval {
	switch stage {
	case StageLegal:
		return s.Legal
	case StageFaculty:
		return s.Faculty
	case StageSenate:
		return s.Senate
	case StageUGC:
		return s.UGC
	}
	return StageApproval{}
}

// Set replaces the approval record for the given stage.
func (s *MOUStatus) Set(stage Stage, approval StageApproval) {
	switch stage {
	case StageLegal:
		s.Legal = approval
	case StageFaculty:
		s.Faculty = approval
	case StageSenate:
		s.Senate = approval
	case StageUGC:
		s.UGC = approval
	}
}

// AllApproved reports whether every stage has been approved.
func (s MOUStatus) AllApproved() bool {
	for _, stage := range Stages() {
		if !s.Get(stage).Approved {
			return false
		}
	}
	return true
}

// PriorStagesApproved reports whether every stage before the given one has
// been approved. The first stage has no precondition.
func (s MOUStatus) PriorStagesApproved(stage Stage) bool {
	for _, prior := range Stages() {
		if prior == stage {
			return true
		}
		if !s.Get(prior).Approved {
			return false
		}
	}
	return true
}

// PendingFor reports whether the MOU sits in the given role's review queue.
// A stage is pending once every prior stage is approved and the stage itself
// is not; Super Admin treats any incomplete MOU as pending.
func (s MOUStatus) PendingFor(role UserRole) bool {
	if role == RoleSuperAdmin {
		return !s.AllApproved()
	}
	stage, ok := StageForRole(role)
	if !ok {
		return false
	}
	return s.PriorStagesApproved(stage) && !s.Get(stage).Approved
}

// Value implements driver.Valuer so the status persists as JSONB.
func (s MOUStatus) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB columns.
func (s *MOUStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	case nil:
		*s = NewMOUStatus()
		return nil
	default:
		return fmt.Errorf("unsupported status source type %T", src)
	}
}

// MOUDocuments references externally stored files attached to a submission.
type MOUDocuments struct {
	Justification  string   `json:"justification,omitempty"`
	AdditionalDocs []string `json:"additionalDocs,omitempty"`
}

// Value implements driver.Valuer.
func (d MOUDocuments) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *MOUDocuments) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = MOUDocuments{}
		return nil
	default:
		return fmt.Errorf("unsupported documents source type %T", src)
	}
}

// Lifecycle history actions.
const (
	HistoryActionCreated  = "Created"
	HistoryActionApproved = "Approved"
	HistoryActionRejected = "Rejected"
	HistoryActionRenewed  = "Renewed"
)

// HistoryEntry records a lifecycle event on a submission.
type HistoryEntry struct {
	Action string    `json:"action"`
	Stage  Stage     `json:"stage,omitempty"`
	Date   time.Time `json:"date"`
	By     string    `json:"by,omitempty"`
}

// MOUHistory is the append-only event sequence stored alongside the record.
type MOUHistory []HistoryEntry

// Value implements driver.Valuer.
func (h MOUHistory) Value() (driver.Value, error) {
	if h == nil {
		h = MOUHistory{}
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner.
func (h *MOUHistory) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	case nil:
		*h = MOUHistory{}
		return nil
	default:
		return fmt.Errorf("unsupported history source type %T", src)
	}
}

// MOU is a Memorandum of Understanding submission.
type MOU struct {
	ID                  string       `db:"id" json:"id"`
	Title               string       `db:"title" json:"title"`
	PartnerOrganization string       `db:"partner_organization" json:"partner_organization"`
	OrganizationID      *string      `db:"organization_id" json:"organization_id,omitempty"`
	Purpose             string       `db:"purpose" json:"purpose"`
	Description         string       `db:"description" json:"description"`
	SubmittedBy         string       `db:"submitted_by" json:"submitted_by"`
	UserID              string       `db:"user_id" json:"user_id"`
	DateSubmitted       time.Time    `db:"date_submitted" json:"date_submitted"`
	DatesSigned         *time.Time   `db:"dates_signed" json:"dates_signed,omitempty"`
	ValidUntil          time.Time    `db:"valid_until" json:"valid_until"`
	RenewalOf           *string      `db:"renewal_of" json:"renewal_of,omitempty"`
	Status              MOUStatus    `db:"status" json:"status"`
	Documents           MOUDocuments `db:"documents" json:"documents"`
	History             MOUHistory   `db:"history" json:"history"`
	Version             int64        `db:"version" json:"-"`
}

// MOUFilter captures list criteria for submissions.
type MOUFilter struct {
	UserID         string
	OrganizationID string
	ExpiringBefore *time.Time
	ExpiringAfter  *time.Time
	Limit          int
}
