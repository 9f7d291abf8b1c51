package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-iro/mou-registry-api/internal/models"
	"github.com/uni-iro/mou-registry-api/pkg/response"
)

type analyticsServiceMock struct {
	overview models.DashboardAnalytics
	cacheHit bool
	err      error
}

func (m *analyticsServiceMock) Overview(ctx context.Context) (models.DashboardAnalytics, bool, error) {
	return m.overview, m.cacheHit, m.err
}

func (m *analyticsServiceMock) SystemMetrics() models.AnalyticsSystemMetrics {
	return models.AnalyticsSystemMetrics{}
}

func TestAnalyticsHandlerOverview(t *testing.T) {
	mock := &analyticsServiceMock{
		overview: models.DashboardAnalytics{TotalSubmissions: 12, ApprovalRate: 50},
		cacheHit: true,
	}
	handler := NewAnalyticsHandler(mock)
	c, w := testContext(t, http.MethodGet, "/analytics", nil)

	handler.Overview(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Meta)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
}

func TestAnalyticsHandlerOverviewNilService(t *testing.T) {
	handler := NewAnalyticsHandler(nil)
	c, w := testContext(t, http.MethodGet, "/analytics", nil)

	handler.Overview(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
