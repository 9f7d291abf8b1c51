package models

import "time"

// DashboardAnalytics aggregates register-wide submission counters.
type DashboardAnalytics struct {
	TotalSubmissions   int     `json:"totalSubmissions"`
	ActiveSubmissions  int     `json:"activeSubmissions"`
	PendingSubmissions int     `json:"pendingSubmissions"`
	ExpiringMOUs       int     `json:"expiringMOUs"`
	ApprovalRate       float64 `json:"approvalRate"`
}

// AnalyticsSystemMetrics represents system level analytics captured from instrumentation.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
