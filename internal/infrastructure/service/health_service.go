package service

import (
	"context"
	"time"

	"github.com/typeflow-app/typeflow-backend/internal/infrastructure/persistence/postgres"
	"github.com/typeflow-app/typeflow-backend/internal/infrastructure/persistence/redis"
	httpapi "github.com/typeflow-app/typeflow-backend/internal/interface/http"
)

// HealthService reports readiness of PostgreSQL and Redis for the
// health endpoints. Redis is optional; when absent the component is
// reported as disabled, not unhealthy.
type HealthService struct {
	db    *postgres.Connection
	cache *redis.Cache
}

func NewHealthService(db *postgres.Connection, cache *redis.Cache) *HealthService {
	return &HealthService{db: db, cache: cache}
}

// Check implements httpapi.HealthChecker.
func (s *HealthService) Check(ctx context.Context) httpapi.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := httpapi.HealthStatus{
		Healthy:    true,
		Components: make(map[string]string),
	}

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			status.Healthy = false
			status.Components["postgres"] = "down: " + err.Error()
			status.Message = "database unreachable"
		} else {
			status.Components["postgres"] = "up"
		}
	}

	if s.cache == nil {
		status.Components["redis"] = "disabled"
	} else if err := s.cache.Ping(ctx); err != nil {
		// Degraded, not unhealthy: reads fall back to PostgreSQL.
		status.Components["redis"] = "down: " + err.Error()
	} else {
		status.Components["redis"] = "up"
	}

	return status
}
