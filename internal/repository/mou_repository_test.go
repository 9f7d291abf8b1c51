package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-iro/mou-registry-api/internal/models"
)

func mouRows(id string) *sqlmock.Rows {
	now := time.Now()
	status := []byte(`{"legal":{"approved":true,"date":"2026-01-10T00:00:00Z"},"faculty":{"approved":false,"date":null},"senate":{"approved":false,"date":null},"ugc":{"approved":false,"date":null}}`)
	documents := []byte(`{"justification":"docs/just.pdf","additionalDocs":[]}`)
	history := []byte(`[{"action":"Created","date":"2026-01-01T00:00:00Z","by":"u1"}]`)
	return sqlmock.NewRows([]string{"id", "title", "partner_organization", "organization_id", "purpose", "description", "submitted_by", "user_id", "date_submitted", "dates_signed", "valid_until", "renewal_of", "status", "documents", "history", "version"}).
		AddRow(id, "Exchange Agreement", "Partner University", "org-1", "Exchange", "Student exchange", "Jane Staff", "u1", now, now, now.AddDate(1, 0, 0), nil, status, documents, history, int64(3))
}

func TestMOUGetByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMOURepository(db)

	mock.ExpectQuery("SELECT (.+) FROM mou_submissions WHERE id = \\$1 LIMIT 1").
		WithArgs("m1").
		WillReturnRows(mouRows("m1"))

	mou, err := repo.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", mou.ID)
	assert.True(t, mou.Status.Legal.Approved)
	assert.False(t, mou.Status.Faculty.Approved)
	assert.Equal(t, int64(3), mou.Version)
	require.Len(t, mou.History, 1)
	assert.Equal(t, models.HistoryActionCreated, mou.History[0].Action)
}

func TestMOUListByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMOURepository(db)

	mock.ExpectQuery("SELECT (.+) FROM mou_submissions WHERE user_id = \\$1 ORDER BY date_submitted DESC").
		WithArgs("u1").
		WillReturnRows(mouRows("m1"))

	mous, err := repo.List(context.Background(), models.MOUFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, mous, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMOUCreateAssignsDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMOURepository(db)

	mock.ExpectExec("INSERT INTO mou_submissions").WillReturnResult(sqlmock.NewResult(1, 1))

	mou := &models.MOU{Title: "Exchange Agreement", UserID: "u1"}
	err := repo.Create(context.Background(), mou)
	require.NoError(t, err)
	assert.NotEmpty(t, mou.ID)
	assert.False(t, mou.DateSubmitted.IsZero())
	assert.Equal(t, int64(1), mou.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMOUUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMOURepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE mou_submissions SET status = $3, history = $4, version = version + 1 WHERE id = $1 AND version = $2")).
		WithArgs("m1", int64(3), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "m1", 3, models.MOUStatus{}, models.MOUHistory{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMOUUpdateStatusStaleVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMOURepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE mou_submissions SET status = $3, history = $4, version = version + 1 WHERE id = $1 AND version = $2")).
		WithArgs("m1", int64(2), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "m1", 2, models.MOUStatus{}, models.MOUHistory{})
	assert.ErrorIs(t, err, ErrVersionMismatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMOUCountActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMOURepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM mou_submissions WHERE (status->'ugc'->>'approved')::boolean = TRUE AND valid_until > $1")).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	total, err := repo.CountActive(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMOUListExpiringBefore(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMOURepository(db)

	cutoff := time.Now().AddDate(0, 3, 0)
	mock.ExpectQuery("SELECT (.+) FROM mou_submissions WHERE valid_until <= \\$1 ORDER BY valid_until ASC").
		WithArgs(cutoff).
		WillReturnRows(mouRows("m1"))

	mous, err := repo.ListExpiringBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Len(t, mous, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
