package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uni-iro/mou-registry-api/internal/models"
)

// ErrVersionMismatch signals a lost optimistic-concurrency race: the record
// changed between the caller's read and its conditional write.
var ErrVersionMismatch = errors.New("mou version mismatch")

const mouColumns = `id, title, partner_organization, organization_id, purpose, description, submitted_by, user_id, date_submitted, dates_signed, valid_until, renewal_of, status, documents, history, version`

// MOURepository provides persistence for MOU submissions.
type MOURepository struct {
	db *sqlx.DB
}

// NewMOURepository creates the repository.
func NewMOURepository(db *sqlx.DB) *MOURepository {
	return &MOURepository{db: db}
}

// GetByID returns a submission by identifier.
func (r *MOURepository) GetByID(ctx context.Context, id string) (*models.MOU, error) {
	query := fmt.Sprintf(`SELECT %s FROM mou_submissions WHERE id = $1 LIMIT 1`, mouColumns)
	var mou models.MOU
	if err := r.db.GetContext(ctx, &mou, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find mou by id: %w", err)
	}
	return &mou, nil
}

// List returns submissions matching the filter, most recent first.
func (r *MOURepository) List(ctx context.Context, filter models.MOUFilter) ([]models.MOU, error) {
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.OrganizationID != "" {
		conditions = append(conditions, fmt.Sprintf("organization_id = $%d", len(args)+1))
		args = append(args, filter.OrganizationID)
	}
	if filter.ExpiringBefore != nil {
		conditions = append(conditions, fmt.Sprintf("valid_until <= $%d", len(args)+1))
		args = append(args, *filter.ExpiringBefore)
	}
	if filter.ExpiringAfter != nil {
		conditions = append(conditions, fmt.Sprintf("valid_until > $%d", len(args)+1))
		args = append(args, *filter.ExpiringAfter)
	}

	query := fmt.Sprintf("SELECT %s FROM mou_submissions", mouColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if filter.ExpiringBefore != nil {
		query += " ORDER BY valid_until ASC"
	} else {
		query += " ORDER BY date_submitted DESC"
	}
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var mous []models.MOU
	if err := r.db.SelectContext(ctx, &mous, query, args...); err != nil {
		return nil, fmt.Errorf("list mous: %w", err)
	}
	return mous, nil
}

// Create inserts a new submission.
func (r *MOURepository) Create(ctx context.Context, mou *models.MOU) error {
	if mou.ID == "" {
		mou.ID = uuid.NewString()
	}
	if mou.DateSubmitted.IsZero() {
		mou.DateSubmitted = time.Now().UTC()
	}
	mou.Version = 1

	const query = `INSERT INTO mou_submissions (id, title, partner_organization, organization_id, purpose, description, submitted_by, user_id, date_submitted, dates_signed, valid_until, renewal_of, status, documents, history, version)
VALUES (:id, :title, :partner_organization, :organization_id, :purpose, :description, :submitted_by, :user_id, :date_submitted, :dates_signed, :valid_until, :renewal_of, :status, :documents, :history, :version)`
	if _, err := r.db.NamedExecContext(ctx, query, mou); err != nil {
		return fmt.Errorf("create mou: %w", err)
	}
	return nil
}

// UpdateStatus writes a new status and history conditioned on the version the
// caller read. A second writer that raced ahead bumps the version first, so
// the stale write matches no row and ErrVersionMismatch is returned.
func (r *MOURepository) UpdateStatus(ctx context.Context, id string, version int64, status models.MOUStatus, history models.MOUHistory) error {
	const query = `UPDATE mou_submissions SET status = $3, history = $4, version = version + 1 WHERE id = $1 AND version = $2`
	res, err := r.db.ExecContext(ctx, query, id, version, status, history)
	if err != nil {
		return fmt.Errorf("update mou status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update mou status rows: %w", err)
	}
	if affected == 0 {
		return ErrVersionMismatch
	}
	return nil
}

// AppendHistory replaces the history column conditioned on the read version.
func (r *MOURepository) AppendHistory(ctx context.Context, id string, version int64, history models.MOUHistory) error {
	const query = `UPDATE mou_submissions SET history = $3, version = version + 1 WHERE id = $1 AND version = $2`
	res, err := r.db.ExecContext(ctx, query, id, version, history)
	if err != nil {
		return fmt.Errorf("append mou history: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append mou history rows: %w", err)
	}
	if affected == 0 {
		return ErrVersionMismatch
	}
	return nil
}

// CountAll returns the total number of submissions.
func (r *MOURepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM mou_submissions`); err != nil {
		return 0, fmt.Errorf("count mous: %w", err)
	}
	return total, nil
}

// CountCompleted counts submissions whose final stage is approved.
func (r *MOURepository) CountCompleted(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM mou_submissions WHERE (status->'ugc'->>'approved')::boolean = TRUE`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count completed mous: %w", err)
	}
	return total, nil
}

// CountActive counts fully approved submissions that have not yet expired.
func (r *MOURepository) CountActive(ctx context.Context, now time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM mou_submissions WHERE (status->'ugc'->>'approved')::boolean = TRUE AND valid_until > $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, now); err != nil {
		return 0, fmt.Errorf("count active mous: %w", err)
	}
	return total, nil
}

// CountPending counts submissions with at least one unapproved stage.
func (r *MOURepository) CountPending(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM mou_submissions WHERE (status->'legal'->>'approved')::boolean = FALSE
OR (status->'faculty'->>'approved')::boolean = FALSE
OR (status->'senate'->>'approved')::boolean = FALSE
OR (status->'ugc'->>'approved')::boolean = FALSE`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count pending mous: %w", err)
	}
	return total, nil
}

// CountExpiringBetween counts submissions expiring inside (after, before].
func (r *MOURepository) CountExpiringBetween(ctx context.Context, after, before time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM mou_submissions WHERE valid_until <= $1 AND valid_until > $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, before, after); err != nil {
		return 0, fmt.Errorf("count expiring mous: %w", err)
	}
	return total, nil
}

// ListExpiringBefore returns every submission whose validity ends on or
// before the cutoff, soonest first. Used by the expiry scan.
func (r *MOURepository) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.MOU, error) {
	query := fmt.Sprintf(`SELECT %s FROM mou_submissions WHERE valid_until <= $1 ORDER BY valid_until ASC`, mouColumns)
	var mous []models.MOU
	if err := r.db.SelectContext(ctx, &mous, query, cutoff); err != nil {
		return nil, fmt.Errorf("list expiring mous: %w", err)
	}
	return mous, nil
}
