package service

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/polynews/backend/internal/domain"
)

const (
	staleAfter = 30 * time.Minute

	// Rough estimate of ingestion cycles per hour used to turn the hourly
	// error counter into a rate.
	cyclesPerHour = 4

	degradedErrorRate = 0.05
)

// Health states. Later probes override earlier ones, so a high error rate
// reports degraded even when the feed is also stale.
const (
	StatusHealthy  = "healthy"
	StatusStale    = "stale"
	StatusDegraded = "degraded"
)

// Health is the system status report.
type Health struct {
	Status            string     `json:"status"`
	LastIngestion     *time.Time `json:"last_ingestion,omitempty"`
	StalenessMinutes  *float64   `json:"staleness_minutes,omitempty"`
	APIErrorRate      float64    `json:"api_error_rate"`
	DatabaseConnected bool       `json:"database_connected"`
	RedisConnected    bool       `json:"redis_connected"`
}

// Pinger reports connectivity to one backing system.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusService aggregates connectivity and ingestion freshness into one
// health report.
type StatusService struct {
	db     Pinger
	redis  Pinger
	status domain.StatusCache
	logger *slog.Logger
	now    func() time.Time
}

// NewStatusService wires a StatusService.
func NewStatusService(db, redis Pinger, status domain.StatusCache, logger *slog.Logger) *StatusService {
	return &StatusService{
		db:     db,
		redis:  redis,
		status: status,
		logger: logger.With(slog.String("component", "status_service")),
		now:    time.Now,
	}
}

// Check never fails: every probe error degrades the report instead. The
// endpoint must stay useful exactly when the backing systems are not.
func (s *StatusService) Check(ctx context.Context) Health {
	h := Health{Status: StatusHealthy}

	if err := s.db.Ping(ctx); err != nil {
		s.logger.Warn("database probe failed", slog.String("error", err.Error()))
		h.Status = StatusDegraded
	} else {
		h.DatabaseConnected = true
	}

	if err := s.redis.Ping(ctx); err != nil {
		s.logger.Warn("redis probe failed", slog.String("error", err.Error()))
		h.Status = StatusDegraded
	} else {
		h.RedisConnected = true
	}

	if last, err := s.status.LastIngestion(ctx); err != nil {
		s.logger.Warn("last ingestion probe failed", slog.String("error", err.Error()))
	} else if last != nil {
		h.LastIngestion = last
		minutes := round1(s.now().UTC().Sub(last.UTC()).Minutes())
		h.StalenessMinutes = &minutes
		if minutes > staleAfter.Minutes() {
			h.Status = StatusStale
		}
	}

	if count, err := s.status.ErrorCount(ctx); err != nil {
		s.logger.Warn("error counter probe failed", slog.String("error", err.Error()))
	} else {
		rate := math.Min(float64(count)/cyclesPerHour, 1.0)
		h.APIErrorRate = round3(rate)
		if rate > degradedErrorRate {
			h.Status = StatusDegraded
		}
	}

	return h
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
