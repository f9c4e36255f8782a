// Package health provides system health monitoring and status reporting.
package health

import (
	"github.com/fundgrove/relevance/internal/cache"
	"github.com/fundgrove/relevance/internal/core/domain"
)

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report contains the full system health report.
type Report struct {
	SystemStatus   SystemStatus               `json:"system_status"`
	Database       SystemStatus               `json:"database"`
	Cache          cache.Health               `json:"cache"`
	CacheStats     cache.Stats                `json:"cache_stats"`
	Programs       int                        `json:"programs"`
	Indexed        int                        `json:"indexed"`
	Classification domain.ClassificationStats `json:"classification"`
}
