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

// NotificationRepository stores in-app notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, user_id, mou_id, title, message, read, created_at) VALUES (:id, :user_id, :mou_id, :title, :message, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByUser returns the most recent notifications for a user.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT id, user_id, mou_id, title, message, read, created_at FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// ExistsForMOU reports whether the user already has a notification with the
// given title for the MOU. Used to keep the expiry scan idempotent.
func (r *NotificationRepository) ExistsForMOU(ctx context.Context, userID, mouID, title string) (bool, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND mou_id = $2 AND title = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, mouID, title); err != nil {
		return false, fmt.Errorf("check notification exists: %w", err)
	}
	return count > 0, nil
}

// FindForMOU returns the user's most recent notification with the given
// title for a MOU, or nil when no such notification exists.
func (r *NotificationRepository) FindForMOU(ctx context.Context, userID, mouID, title string) (*models.Notification, error) {
	const query = `SELECT id, user_id, mou_id, title, message, read, created_at FROM notifications WHERE user_id = $1 AND mou_id = $2 AND title = $3 ORDER BY created_at DESC LIMIT 1`
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, query, userID, mouID, title); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return &n, nil
}

// MarkRead flags a notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	const query = `UPDATE notifications SET read = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// DeleteByUser removes all notifications belonging to a user.
func (r *NotificationRepository) DeleteByUser(ctx context.Context, userID string) error {
	const query = `DELETE FROM notifications WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}
