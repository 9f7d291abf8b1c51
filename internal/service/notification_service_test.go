package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uni-iro/mou-registry-api/internal/models"
	appErrors "github.com/uni-iro/mou-registry-api/pkg/errors"
)

type mockNotificationRepo struct {
	notifications []*models.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	n.ID = "n" + n.MOUID
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) ExistsForMOU(ctx context.Context, userID, mouID, title string) (bool, error) {
	for _, n := range m.notifications {
		if n.UserID == userID && n.MOUID == mouID && n.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) FindForMOU(ctx context.Context, userID, mouID, title string) (*models.Notification, error) {
	for _, n := range m.notifications {
		if n.UserID == userID && n.MOUID == mouID && n.Title == title {
			return n, nil
		}
	}
	return nil, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id string) error {
	for _, n := range m.notifications {
		if n.ID == id {
			n.Read = true
		}
	}
	return nil
}

func (m *mockNotificationRepo) DeleteByUser(ctx context.Context, userID string) error {
	kept := m.notifications[:0]
	for _, n := range m.notifications {
		if n.UserID != userID {
			kept = append(kept, n)
		}
	}
	m.notifications = kept
	return nil
}

type mockNotificationUserRepo struct {
	users map[string]*models.User
}

func (m *mockNotificationUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return m.users[id], nil
}

type mockExpiringRepo struct {
	mous []models.MOU
}

func (m *mockExpiringRepo) GetByID(ctx context.Context, id string) (*models.MOU, error) {
	for i := range m.mous {
		if m.mous[i].ID == id {
			return &m.mous[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockExpiringRepo) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.MOU, error) {
	var out []models.MOU
	for _, mou := range m.mous {
		if !mou.ValidUntil.After(cutoff) {
			out = append(out, mou)
		}
	}
	return out, nil
}

type mockMailSender struct {
	sent []string
}

func (m *mockMailSender) Enqueue(to, subject, body string) error {
	m.sent = append(m.sent, to+": "+subject)
	return nil
}

func expiringMOU(id, userID string, validUntil time.Time) models.MOU {
	return models.MOU{ID: id, Title: "Agreement " + id, UserID: userID, ValidUntil: validUntil}
}

func TestScanExpiringCreatesReminders(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockNotificationRepo{}
	users := &mockNotificationUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Name: "Jane", Email: "jane@example.com"}}}
	mous := &mockExpiringRepo{mous: []models.MOU{
		expiringMOU("m1", "u1", now.AddDate(0, 1, 0)),
		expiringMOU("m2", "u1", now.AddDate(2, 0, 0)),
	}}
	mail := &mockMailSender{}
	svc := NewNotificationService(repo, users, mous, mail, 90*24*time.Hour, zap.NewNop())

	created, err := svc.ScanExpiring(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	require.Len(t, repo.notifications, 1)
	assert.Equal(t, models.NotificationTitleExpiring, repo.notifications[0].Title)
	assert.Equal(t, "m1", repo.notifications[0].MOUID)
	require.Len(t, mail.sent, 1)
}

func TestScanExpiringIsIdempotent(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockNotificationRepo{}
	users := &mockNotificationUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Name: "Jane", Email: "jane@example.com"}}}
	mous := &mockExpiringRepo{mous: []models.MOU{expiringMOU("m1", "u1", now.AddDate(0, 1, 0))}}
	svc := NewNotificationService(repo, users, mous, nil, 90*24*time.Hour, zap.NewNop())

	first, err := svc.ScanExpiring(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := svc.ScanExpiring(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, second)
	assert.Len(t, repo.notifications, 1)
}

func TestNotifyExpiryCreatesReminder(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockNotificationRepo{}
	users := &mockNotificationUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Name: "Jane", Email: "jane@example.com"}}}
	mous := &mockExpiringRepo{mous: []models.MOU{expiringMOU("m1", "u1", now.AddDate(0, 1, 0))}}
	mail := &mockMailSender{}
	svc := NewNotificationService(repo, users, mous, mail, 0, zap.NewNop())

	require.NoError(t, svc.NotifyExpiry(context.Background(), "m1"))
	require.Len(t, repo.notifications, 1)
	assert.Equal(t, models.NotificationTitleExpiring, repo.notifications[0].Title)
	require.Len(t, mail.sent, 1)
}

func TestNotifyExpiryMarksExistingRead(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockNotificationRepo{notifications: []*models.Notification{
		{ID: "n1", UserID: "u1", MOUID: "m1", Title: models.NotificationTitleExpiring},
	}}
	mous := &mockExpiringRepo{mous: []models.MOU{expiringMOU("m1", "u1", now.AddDate(0, 1, 0))}}
	svc := NewNotificationService(repo, nil, mous, nil, 0, zap.NewNop())

	require.NoError(t, svc.NotifyExpiry(context.Background(), "m1"))
	require.Len(t, repo.notifications, 1)
	assert.True(t, repo.notifications[0].Read)
}

func TestNotifyExpiryUnknownSubmission(t *testing.T) {
	svc := NewNotificationService(&mockNotificationRepo{}, nil, &mockExpiringRepo{}, nil, 0, zap.NewNop())

	err := svc.NotifyExpiry(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestNotifyDecisionApproved(t *testing.T) {
	repo := &mockNotificationRepo{}
	users := &mockNotificationUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Name: "Jane", Email: "jane@example.com"}}}
	mail := &mockMailSender{}
	svc := NewNotificationService(repo, users, nil, mail, 0, zap.NewNop())

	mou := &models.MOU{ID: "m1", Title: "Agreement", UserID: "u1"}
	svc.NotifyDecision(context.Background(), mou, models.HistoryEntry{Action: models.HistoryActionApproved, Stage: models.StageLegal})

	require.Len(t, repo.notifications, 1)
	assert.Equal(t, "MOU Stage Approved", repo.notifications[0].Title)
	require.Len(t, mail.sent, 1)
}

func TestNotifyDecisionFullyApproved(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, nil, nil, nil, 0, zap.NewNop())

	now := time.Now().UTC()
	mou := &models.MOU{ID: "m1", Title: "Agreement", UserID: "u1"}
	for _, stage := range models.Stages() {
		mou.Status.Set(stage, models.StageApproval{Approved: true, Date: &now})
	}
	svc.NotifyDecision(context.Background(), mou, models.HistoryEntry{Action: models.HistoryActionApproved, Stage: models.StageUGC})

	require.Len(t, repo.notifications, 1)
	assert.Equal(t, "MOU Fully Approved", repo.notifications[0].Title)
}

func TestClearRemovesOnlyOwnNotifications(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, nil, nil, nil, 0, zap.NewNop())

	repo.notifications = []*models.Notification{
		{ID: "n1", UserID: "u1"},
		{ID: "n2", UserID: "u2"},
	}

	require.NoError(t, svc.Clear(context.Background(), "u1"))
	remaining, err := svc.List(context.Background(), "u2")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
