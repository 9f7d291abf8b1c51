package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uni-iro/mou-registry-api/internal/dto"
	"github.com/uni-iro/mou-registry-api/internal/models"
	"github.com/uni-iro/mou-registry-api/internal/repository"
	appErrors "github.com/uni-iro/mou-registry-api/pkg/errors"
)

type mouRepository interface {
	GetByID(ctx context.Context, id string) (*models.MOU, error)
	List(ctx context.Context, filter models.MOUFilter) ([]models.MOU, error)
	Create(ctx context.Context, mou *models.MOU) error
	UpdateStatus(ctx context.Context, id string, version int64, status models.MOUStatus, history models.MOUHistory) error
	AppendHistory(ctx context.Context, id string, version int64, history models.MOUHistory) error
}

type mouOrganizationRepository interface {
	FindByName(ctx context.Context, name string) (*models.Organization, error)
	Create(ctx context.Context, org *models.Organization) error
}

type mouAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// decisionNotifier delivers notifications about workflow events. Failures are
// logged, never surfaced to the caller.
type decisionNotifier interface {
	NotifyDecision(ctx context.Context, mou *models.MOU, entry models.HistoryEntry)
}

type analyticsInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// MOUService implements the multi-stage approval workflow.
type MOUService struct {
	repo      mouRepository
	orgs      mouOrganizationRepository
	audit     mouAuditRepository
	notifier  decisionNotifier
	cache     analyticsInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMOUService constructs a MOUService instance.
func NewMOUService(repo mouRepository, orgs mouOrganizationRepository, audit mouAuditRepository, notifier decisionNotifier, cache analyticsInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *MOUService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MOUService{repo: repo, orgs: orgs, audit: audit, notifier: notifier, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Submit registers a new MOU with every stage unapproved and a seeded history.
func (s *MOUService) Submit(ctx context.Context, claims *models.JWTClaims, req dto.SubmitMOURequest) (*models.MOU, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	orgID, err := s.resolveOrganization(ctx, req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	mou := &models.MOU{
		Title:               req.Title,
		PartnerOrganization: req.PartnerOrganization,
		OrganizationID:      orgID,
		Purpose:             req.Purpose,
		Description:         req.Description,
		SubmittedBy:         claims.Name,
		UserID:              claims.UserID,
		DateSubmitted:       now,
		DatesSigned:         req.DatesSigned,
		ValidUntil:          req.ValidUntil,
		Status:              models.NewMOUStatus(),
		Documents: models.MOUDocuments{
			Justification:  req.Justification,
			AdditionalDocs: req.AdditionalDocs,
		},
		History: models.MOUHistory{{
			Action: models.HistoryActionCreated,
			Date:   now,
			By:     claims.UserID,
		}},
	}

	if err := s.repo.Create(ctx, mou); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}

	s.invalidateAnalytics(ctx)
	return mou, nil
}

// Get returns a single submission. Regular users may only read their own.
func (s *MOUService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.MOU, error) {
	mou, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mou not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if !claims.Role.IsAdmin() && mou.UserID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this submission")
	}
	return mou, nil
}

// List returns the register. Admins see every submission, regular users only
// their own.
func (s *MOUService) List(ctx context.Context, claims *models.JWTClaims, query dto.MOUQuery) ([]models.MOU, error) {
	filter := models.MOUFilter{
		OrganizationID: query.OrganizationID,
		Limit:          query.Limit,
	}
	if !claims.Role.IsAdmin() {
		filter.UserID = claims.UserID
	}
	if query.ExpiringWithin > 0 {
		now := time.Now().UTC()
		cutoff := now.Add(query.ExpiringWithin)
		filter.ExpiringAfter = &now
		filter.ExpiringBefore = &cutoff
	}

	mous, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return mous, nil
}

// Recent returns the latest submissions visible to the caller.
func (s *MOUService) Recent(ctx context.Context, claims *models.JWTClaims, limit int) ([]models.MOU, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.List(ctx, claims, dto.MOUQuery{Limit: limit})
}

// Pending returns submissions sitting in the caller's review queue. A stage
// becomes pending only once every earlier stage has approved; the Super Admin
// queue holds every incomplete submission.
func (s *MOUService) Pending(ctx context.Context, claims *models.JWTClaims) ([]models.MOU, error) {
	if !claims.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no review queue for this role")
	}

	mous, err := s.repo.List(ctx, models.MOUFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}

	pending := make([]models.MOU, 0, len(mous))
	for _, mou := range mous {
		if mou.Status.PendingFor(claims.Role) {
			pending = append(pending, mou)
		}
	}
	return pending, nil
}

// Approve marks the caller's stage as approved. Stage admins act only on
// their own stage and only once every earlier stage has approved. The Super
// Admin fast-track approves every remaining stage in one write.
func (s *MOUService) Approve(ctx context.Context, claims *models.JWTClaims, id string, requestedStage models.Stage) (*models.MOU, error) {
	if claims.Role == models.RoleSuperAdmin {
		return s.approveRemaining(ctx, claims, id, requestedStage)
	}

	mou, stage, err := s.resolveDecision(ctx, claims, id, requestedStage)
	if err != nil {
		return nil, err
	}

	if mou.Status.Get(stage).Approved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "stage already approved")
	}
	if !mou.Status.PriorStagesApproved(stage) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "earlier stages have not approved yet")
	}

	now := time.Now().UTC()
	mou.Status.Set(stage, models.StageApproval{Approved: true, Date: &now})
	entry := models.HistoryEntry{Action: models.HistoryActionApproved, Stage: stage, Date: now, By: claims.UserID}
	mou.History = append(mou.History, entry)

	if err := s.repo.UpdateStatus(ctx, mou.ID, mou.Version, mou.Status, mou.History); err != nil {
		if errors.Is(err, repository.ErrVersionMismatch) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "submission was modified concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record approval")
	}
	mou.Version++

	s.recordDecisionAudit(ctx, claims, mou, models.AuditActionMOUApprove, stage)
	s.metrics.RecordWorkflowDecision(models.HistoryActionApproved, stage)
	if s.notifier != nil {
		s.notifier.NotifyDecision(ctx, mou, entry)
	}
	s.invalidateAnalytics(ctx)

	return mou, nil
}

// approveRemaining is the Super Admin fast-track. Every unapproved stage is
// set approved in a single conditional write, skipping review order. A
// submission that is already fully approved is returned unchanged, so the
// call is idempotent. An explicit stage narrows the write to that stage.
func (s *MOUService) approveRemaining(ctx context.Context, claims *models.JWTClaims, id string, requested models.Stage) (*models.MOU, error) {
	mou, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mou not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	stages := models.Stages()
	if requested != "" {
		if !requested.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown review stage")
		}
		stages = []models.Stage{requested}
	}

	now := time.Now().UTC()
	var approved []models.Stage
	for _, stage := range stages {
		if mou.Status.Get(stage).Approved {
			continue
		}
		mou.Status.Set(stage, models.StageApproval{Approved: true, Date: &now})
		mou.History = append(mou.History, models.HistoryEntry{Action: models.HistoryActionApproved, Stage: stage, Date: now, By: claims.UserID})
		approved = append(approved, stage)
	}
	if len(approved) == 0 {
		return mou, nil
	}

	if err := s.repo.UpdateStatus(ctx, mou.ID, mou.Version, mou.Status, mou.History); err != nil {
		if errors.Is(err, repository.ErrVersionMismatch) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "submission was modified concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record approval")
	}
	mou.Version++

	for _, stage := range approved {
		s.recordDecisionAudit(ctx, claims, mou, models.AuditActionMOUApprove, stage)
		s.metrics.RecordWorkflowDecision(models.HistoryActionApproved, stage)
	}
	if s.notifier != nil {
		s.notifier.NotifyDecision(ctx, mou, mou.History[len(mou.History)-1])
	}
	s.invalidateAnalytics(ctx)

	return mou, nil
}

// Reject records a rejection on the caller's stage. The stage keeps an
// unapproved record with the decision timestamp so the submitter can see when
// it was turned down.
func (s *MOUService) Reject(ctx context.Context, claims *models.JWTClaims, id string, requestedStage models.Stage) (*models.MOU, error) {
	mou, stage, err := s.resolveDecision(ctx, claims, id, requestedStage)
	if err != nil {
		return nil, err
	}

	if mou.Status.Get(stage).Approved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "stage already approved")
	}

	now := time.Now().UTC()
	mou.Status.Set(stage, models.StageApproval{Approved: false, Date: &now})
	entry := models.HistoryEntry{Action: models.HistoryActionRejected, Stage: stage, Date: now, By: claims.UserID}
	mou.History = append(mou.History, entry)

	if err := s.repo.UpdateStatus(ctx, mou.ID, mou.Version, mou.Status, mou.History); err != nil {
		if errors.Is(err, repository.ErrVersionMismatch) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "submission was modified concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record rejection")
	}
	mou.Version++

	s.recordDecisionAudit(ctx, claims, mou, models.AuditActionMOUReject, stage)
	s.metrics.RecordWorkflowDecision(models.HistoryActionRejected, stage)
	if s.notifier != nil {
		s.notifier.NotifyDecision(ctx, mou, entry)
	}
	s.invalidateAnalytics(ctx)

	return mou, nil
}

// Renew creates a successor submission that restarts the full approval
// workflow and links back to its parent. The parent history records the
// renewal.
func (s *MOUService) Renew(ctx context.Context, claims *models.JWTClaims, id string, req dto.RenewMOURequest) (*models.MOU, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid renewal payload")
	}

	parent, err := s.Get(ctx, claims, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	parentHistory := append(parent.History, models.HistoryEntry{
		Action: models.HistoryActionRenewed,
		Date:   now,
		By:     claims.UserID,
	})
	if err := s.repo.AppendHistory(ctx, parent.ID, parent.Version, parentHistory); err != nil {
		if errors.Is(err, repository.ErrVersionMismatch) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "submission was modified concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record renewal")
	}

	child := &models.MOU{
		Title:               parent.Title,
		PartnerOrganization: parent.PartnerOrganization,
		OrganizationID:      parent.OrganizationID,
		Purpose:             parent.Purpose,
		Description:         parent.Description,
		SubmittedBy:         claims.Name,
		UserID:              claims.UserID,
		DateSubmitted:       now,
		DatesSigned:         req.DatesSigned,
		ValidUntil:          req.ValidUntil,
		RenewalOf:           &parent.ID,
		Status:              models.NewMOUStatus(),
		Documents:           parent.Documents,
		History: models.MOUHistory{{
			Action: models.HistoryActionCreated,
			Date:   now,
			By:     claims.UserID,
		}},
	}

	if err := s.repo.Create(ctx, child); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create renewal")
	}

	s.invalidateAnalytics(ctx)
	return child, nil
}

// resolveDecision loads the submission and determines the stage the caller is
// acting on.
func (s *MOUService) resolveDecision(ctx context.Context, claims *models.JWTClaims, id string, requested models.Stage) (*models.MOU, models.Stage, error) {
	mou, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "mou not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	if claims.Role == models.RoleSuperAdmin {
		if requested != "" {
			if !requested.Valid() {
				return nil, "", appErrors.Clone(appErrors.ErrValidation, "unknown review stage")
			}
			return mou, requested, nil
		}
		for _, stage := range models.Stages() {
			if !mou.Status.Get(stage).Approved {
				return mou, stage, nil
			}
		}
		return nil, "", appErrors.Clone(appErrors.ErrConflict, "all stages already approved")
	}

	stage, ok := models.StageForRole(claims.Role)
	if !ok {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "role may not act on the workflow")
	}
	if requested != "" && requested != stage {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "role may not act on the requested stage")
	}
	return mou, stage, nil
}

func (s *MOUService) resolveOrganization(ctx context.Context, req dto.SubmitMOURequest) (*string, error) {
	if s.orgs == nil || req.PartnerOrganization == "" {
		return nil, nil
	}

	org, err := s.orgs.FindByName(ctx, req.PartnerOrganization)
	if err == nil {
		return &org.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve organization")
	}

	created := &models.Organization{
		Name:    req.PartnerOrganization,
		Address: req.OrganizationAddress,
		Lat:     req.OrganizationLat,
		Lng:     req.OrganizationLng,
	}
	if err := s.orgs.Create(ctx, created); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create organization")
	}
	return &created.ID, nil
}

func (s *MOUService) recordDecisionAudit(ctx context.Context, claims *models.JWTClaims, mou *models.MOU, action string, stage models.Stage) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{"stage": string(stage)})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     action,
		Resource:   "mou",
		ResourceID: &mou.ID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record workflow audit log", zap.Error(err))
	}
}

func (s *MOUService) invalidateAnalytics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "analytics:*"); err != nil {
		s.logger.Warn("failed to invalidate analytics cache", zap.Error(err))
	}
}
