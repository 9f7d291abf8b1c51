package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-iro/mou-registry-api/internal/dto"
	"github.com/uni-iro/mou-registry-api/internal/middleware"
	"github.com/uni-iro/mou-registry-api/internal/models"
	appErrors "github.com/uni-iro/mou-registry-api/pkg/errors"
)

type mouServiceMock struct {
	mou       *models.MOU
	err       error
	lastStage models.Stage
	lastQuery dto.MOUQuery
}

func (m *mouServiceMock) Submit(ctx context.Context, claims *models.JWTClaims, req dto.SubmitMOURequest) (*models.MOU, error) {
	return m.mou, m.err
}

func (m *mouServiceMock) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.MOU, error) {
	return m.mou, m.err
}

func (m *mouServiceMock) List(ctx context.Context, claims *models.JWTClaims, query dto.MOUQuery) ([]models.MOU, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	if m.mou == nil {
		return nil, nil
	}
	return []models.MOU{*m.mou}, nil
}

func (m *mouServiceMock) Recent(ctx context.Context, claims *models.JWTClaims, limit int) ([]models.MOU, error) {
	return nil, m.err
}

func (m *mouServiceMock) Pending(ctx context.Context, claims *models.JWTClaims) ([]models.MOU, error) {
	return nil, m.err
}

func (m *mouServiceMock) Approve(ctx context.Context, claims *models.JWTClaims, id string, stage models.Stage) (*models.MOU, error) {
	m.lastStage = stage
	return m.mou, m.err
}

func (m *mouServiceMock) Reject(ctx context.Context, claims *models.JWTClaims, id string, stage models.Stage) (*models.MOU, error) {
	m.lastStage = stage
	return m.mou, m.err
}

func (m *mouServiceMock) Renew(ctx context.Context, claims *models.JWTClaims, id string, req dto.RenewMOURequest) (*models.MOU, error) {
	return m.mou, m.err
}

func testContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	return c, w
}

func TestMOUHandlerSubmitInvalidBody(t *testing.T) {
	handler := NewMOUHandler(&mouServiceMock{})
	c, w := testContext(t, http.MethodPost, "/mous", []byte(`not-json`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleUser})

	handler.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMOUHandlerSubmitRequiresAuth(t *testing.T) {
	handler := NewMOUHandler(&mouServiceMock{})
	body, _ := json.Marshal(dto.SubmitMOURequest{Title: "Exchange", PartnerOrganization: "Uni", Purpose: "Research", ValidUntil: time.Now().AddDate(1, 0, 0)})
	c, w := testContext(t, http.MethodPost, "/mous", body)

	handler.Submit(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMOUHandlerApprovePassesExplicitStage(t *testing.T) {
	mock := &mouServiceMock{mou: &models.MOU{ID: "m1"}}
	handler := NewMOUHandler(mock)
	body, _ := json.Marshal(dto.DecisionRequest{Stage: models.StageSenate})
	c, w := testContext(t, http.MethodPost, "/mous/m1/approve", body)
	c.Params = gin.Params{{Key: "id", Value: "m1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "sa", Role: models.RoleSuperAdmin})

	handler.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StageSenate, mock.lastStage)
}

func TestMOUHandlerApproveEmptyBodyAllowed(t *testing.T) {
	mock := &mouServiceMock{mou: &models.MOU{ID: "m1"}}
	handler := NewMOUHandler(mock)
	c, w := testContext(t, http.MethodPost, "/mous/m1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "m1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "legal", Role: models.RoleLegalAdmin})

	handler.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, mock.lastStage)
}

func TestMOUHandlerRejectPropagatesForbidden(t *testing.T) {
	handler := NewMOUHandler(&mouServiceMock{err: appErrors.ErrForbidden})
	c, w := testContext(t, http.MethodPost, "/mous/m1/reject", nil)
	c.Params = gin.Params{{Key: "id", Value: "m1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "ugc", Role: models.RoleUGCAdmin})

	handler.Reject(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestMOUHandlerListParsesExpiringWindow(t *testing.T) {
	mock := &mouServiceMock{}
	handler := NewMOUHandler(mock)
	c, w := testContext(t, http.MethodGet, "/mous?expiringWithinDays=30&limit=10", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleUser})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 30*24*time.Hour, mock.lastQuery.ExpiringWithin)
	assert.Equal(t, 10, mock.lastQuery.Limit)
}

func TestMOUHandlerListRejectsBadWindow(t *testing.T) {
	handler := NewMOUHandler(&mouServiceMock{})
	c, w := testContext(t, http.MethodGet, "/mous?expiringWithinDays=soon", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleUser})

	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
