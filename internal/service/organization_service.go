package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uni-iro/mou-registry-api/internal/models"
	appErrors "github.com/uni-iro/mou-registry-api/pkg/errors"
)

type organizationRepository interface {
	List(ctx context.Context) ([]models.Organization, error)
	GetByID(ctx context.Context, id string) (*models.Organization, error)
	FindByName(ctx context.Context, name string) (*models.Organization, error)
	Create(ctx context.Context, org *models.Organization) error
}

// OrganizationService manages the partner organization directory.
type OrganizationService struct {
	repo   organizationRepository
	logger *zap.Logger
}

// NewOrganizationService constructs the service.
func NewOrganizationService(repo organizationRepository, logger *zap.Logger) *OrganizationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrganizationService{repo: repo, logger: logger}
}

// List returns all registered partner organizations.
func (s *OrganizationService) List(ctx context.Context) ([]models.Organization, error) {
	orgs, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("list organizations", zap.Error(err))
		return nil, appErrors.ErrInternal
	}
	return orgs, nil
}

// Get returns a single organization by ID.
func (s *OrganizationService) Get(ctx context.Context, id string) (*models.Organization, error) {
	org, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		s.logger.Error("get organization", zap.String("id", id), zap.Error(err))
		return nil, appErrors.ErrInternal
	}
	return org, nil
}

// Create registers a new partner organization. Names are unique.
func (s *OrganizationService) Create(ctx context.Context, org *models.Organization) (*models.Organization, error) {
	if org == nil || org.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}

	if existing, err := s.repo.FindByName(ctx, org.Name); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "organization already registered")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Error("lookup organization", zap.String("name", org.Name), zap.Error(err))
		return nil, appErrors.ErrInternal
	}

	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, org); err != nil {
		s.logger.Error("create organization", zap.String("name", org.Name), zap.Error(err))
		return nil, appErrors.ErrInternal
	}
	return org, nil
}
