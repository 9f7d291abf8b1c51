package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uni-iro/mou-registry-api/internal/models"
)

// OrganizationRepository stores partner organizations.
type OrganizationRepository struct {
	db *sqlx.DB
}

// NewOrganizationRepository creates the repository.
func NewOrganizationRepository(db *sqlx.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// List returns all organizations ordered by name.
func (r *OrganizationRepository) List(ctx context.Context) ([]models.Organization, error) {
	const query = `SELECT id, name, address, lat, lng, created_at FROM organizations ORDER BY name ASC`
	var orgs []models.Organization
	if err := r.db.SelectContext(ctx, &orgs, query); err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return orgs, nil
}

// GetByID returns an organization by identifier.
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	const query = `SELECT id, name, address, lat, lng, created_at FROM organizations WHERE id = $1 LIMIT 1`
	var org models.Organization
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find organization by id: %w", err)
	}
	return &org, nil
}

// FindByName returns an organization by exact name.
func (r *OrganizationRepository) FindByName(ctx context.Context, name string) (*models.Organization, error) {
	const query = `SELECT id, name, address, lat, lng, created_at FROM organizations WHERE name = $1 LIMIT 1`
	var org models.Organization
	if err := r.db.GetContext(ctx, &org, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find organization by name: %w", err)
	}
	return &org, nil
}

// Create inserts an organization.
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO organizations (id, name, address, lat, lng, created_at) VALUES (:id, :name, :address, :lat, :lng, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, org); err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}
