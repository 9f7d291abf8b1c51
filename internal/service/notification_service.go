package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uni-iro/mou-registry-api/internal/models"
	appErrors "github.com/uni-iro/mou-registry-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	ExistsForMOU(ctx context.Context, userID, mouID, title string) (bool, error)
	FindForMOU(ctx context.Context, userID, mouID, title string) (*models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}

type notificationUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type expiringMOURepository interface {
	GetByID(ctx context.Context, id string) (*models.MOU, error)
	ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.MOU, error)
}

type mailSender interface {
	Enqueue(to, subject, body string) error
}

// NotificationService manages in-app notifications and expiry reminders.
type NotificationService struct {
	repo   notificationRepository
	users  notificationUserRepository
	mous   expiringMOURepository
	mail   mailSender
	window time.Duration
	logger *zap.Logger
}

// NewNotificationService constructs the service. The window controls how far
// ahead the expiry scan looks.
func NewNotificationService(repo notificationRepository, users notificationUserRepository, mous expiringMOURepository, mail mailSender, window time.Duration, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = 90 * 24 * time.Hour
	}
	return &NotificationService{
		repo:   repo,
		users:  users,
		mous:   mous,
		mail:   mail,
		window: window,
		logger: logger,
	}
}

// List returns the caller's most recent notifications.
func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	notifications, err := s.repo.ListByUser(ctx, userID, 20)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// Clear removes every notification belonging to the caller.
func (s *NotificationService) Clear(ctx context.Context, userID string) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear notifications")
	}
	return nil
}

// NotifyDecision informs the submitter about an approval or rejection. Errors
// are logged only; workflow writes never fail on notification problems.
func (s *NotificationService) NotifyDecision(ctx context.Context, mou *models.MOU, entry models.HistoryEntry) {
	var title, message string
	switch entry.Action {
	case models.HistoryActionApproved:
		if mou.Status.AllApproved() {
			title = "MOU Fully Approved"
			message = fmt.Sprintf("%q has completed all approval stages.", mou.Title)
		} else {
			title = "MOU Stage Approved"
			message = fmt.Sprintf("%q was approved at the %s stage.", mou.Title, entry.Stage)
		}
	case models.HistoryActionRejected:
		title = "MOU Rejected"
		message = fmt.Sprintf("%q was rejected at the %s stage.", mou.Title, entry.Stage)
	default:
		return
	}

	if err := s.repo.Create(ctx, &models.Notification{
		UserID:  mou.UserID,
		MOUID:   mou.ID,
		Title:   title,
		Message: message,
	}); err != nil {
		s.logger.Warn("failed to create decision notification", zap.String("mou_id", mou.ID), zap.Error(err))
	}

	s.emailSubmitter(ctx, mou, title, message)
}

// NotifyExpiry raises the expiry reminder for one submission on demand. An
// existing reminder is marked read instead of duplicated.
func (s *NotificationService) NotifyExpiry(ctx context.Context, mouID string) error {
	mou, err := s.mous.GetByID(ctx, mouID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	existing, err := s.repo.FindForMOU(ctx, mou.UserID, mou.ID, models.NotificationTitleExpiring)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing reminder")
	}
	if existing != nil {
		if err := s.repo.MarkRead(ctx, existing.ID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update reminder")
		}
		return nil
	}

	message := fmt.Sprintf("%q expires on %s. Consider renewing it.", mou.Title, mou.ValidUntil.Format("2 January 2006"))
	if err := s.repo.Create(ctx, &models.Notification{
		UserID:  mou.UserID,
		MOUID:   mou.ID,
		Title:   models.NotificationTitleExpiring,
		Message: message,
	}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reminder")
	}

	s.emailSubmitter(ctx, mou, models.NotificationTitleExpiring, message)
	return nil
}

// ScanExpiring creates an expiry reminder for every MOU whose validity ends
// inside the scan window. A reminder already present for the same MOU is not
// duplicated, so repeated scans are safe.
func (s *NotificationService) ScanExpiring(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(s.window)
	mous, err := s.mous.ListExpiringBefore(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan expiring submissions")
	}

	created := 0
	for i := range mous {
		mou := &mous[i]
		exists, err := s.repo.ExistsForMOU(ctx, mou.UserID, mou.ID, models.NotificationTitleExpiring)
		if err != nil {
			s.logger.Warn("failed to check existing reminder", zap.String("mou_id", mou.ID), zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		message := fmt.Sprintf("%q expires on %s. Consider renewing it.", mou.Title, mou.ValidUntil.Format("2 January 2006"))
		if err := s.repo.Create(ctx, &models.Notification{
			UserID:  mou.UserID,
			MOUID:   mou.ID,
			Title:   models.NotificationTitleExpiring,
			Message: message,
		}); err != nil {
			s.logger.Warn("failed to create expiry reminder", zap.String("mou_id", mou.ID), zap.Error(err))
			continue
		}
		created++

		s.emailSubmitter(ctx, mou, models.NotificationTitleExpiring, message)
	}

	if created > 0 {
		s.logger.Info("expiry scan created reminders", zap.Int("count", created))
	}
	return created, nil
}

func (s *NotificationService) emailSubmitter(ctx context.Context, mou *models.MOU, subject, message string) {
	if s.mail == nil || s.users == nil {
		return
	}
	user, err := s.users.FindByID(ctx, mou.UserID)
	if err != nil {
		s.logger.Warn("failed to resolve submitter for email", zap.String("mou_id", mou.ID), zap.Error(err))
		return
	}
	body := fmt.Sprintf("<p>Dear %s,</p><p>%s</p><p>University International Relations Office</p>", user.Name, message)
	if err := s.mail.Enqueue(user.Email, subject, body); err != nil {
		s.logger.Warn("failed to enqueue notification email", zap.String("mou_id", mou.ID), zap.Error(err))
	}
}
