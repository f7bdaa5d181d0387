package scheduler

import (
	"context"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fariasdev/mycar-sync/internal/alerts"
	"github.com/fariasdev/mycar-sync/internal/models"
	syncengine "github.com/fariasdev/mycar-sync/internal/sync"
)

// AlertPublisher delivers a generated alert feed to the notification
// channels.
type AlertPublisher interface {
	Publish(alerts []models.VehicleAlert) error
}

// Scheduler owns sync and alert cadence. The engine exposes only
// synchronous entry points; this is the collaborator that invokes them on
// start, on demand, and on an interval, and that serializes full syncs so
// no two run concurrently.
type Scheduler struct {
	engine    *syncengine.Engine
	alerts    *alerts.Service
	publisher AlertPublisher

	syncInterval  time.Duration
	alertInterval time.Duration

	mu sync.Mutex
}

// New creates a scheduler. Intervals come from SYNC_INTERVAL and
// ALERT_INTERVAL (Go duration strings); defaults are one hour for full
// sync and twelve hours for alert refresh.
func New(engine *syncengine.Engine, alertService *alerts.Service, publisher AlertPublisher) *Scheduler {
	return &Scheduler{
		engine:        engine,
		alerts:        alertService,
		publisher:     publisher,
		syncInterval:  intervalFromEnv("SYNC_INTERVAL", time.Hour),
		alertInterval: intervalFromEnv("ALERT_INTERVAL", 12*time.Hour),
	}
}

func intervalFromEnv(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			return parsed
		}
		log.WithField("key", key).Warn("unparseable interval, using default")
	}
	return fallback
}

// RunFullSync runs one full reconciliation. Invocations are serialized; a
// call that arrives while a sync is in flight waits for it and then runs.
func (s *Scheduler) RunFullSync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := s.engine.SyncAll(ctx)
	if err != nil {
		log.WithError(err).Warn("full sync failed")
		return err
	}
	log.WithField("took", time.Since(start)).Info("full sync completed")
	return nil
}

// RefreshAlerts regenerates the current car's alert feed and publishes it.
func (s *Scheduler) RefreshAlerts(ctx context.Context) error {
	feed, err := s.alerts.ForCurrentCar(ctx)
	if err != nil {
		log.WithError(err).Warn("alert refresh failed")
		return err
	}
	if len(feed) == 0 {
		return nil
	}
	if err := s.publisher.Publish(feed); err != nil {
		log.WithError(err).Warn("alert publish failed")
		return err
	}
	return nil
}

// Run blocks, driving the periodic triggers until the context is cancelled.
// One full sync and one alert refresh run immediately on start; sync errors
// are logged and retried on the next tick, never fatal.
func (s *Scheduler) Run(ctx context.Context) {
	if err := s.RunFullSync(ctx); err != nil && !syncengine.IsRetryable(err) {
		log.WithError(err).Error("startup sync hit a non-retryable error")
	}
	if err := s.RefreshAlerts(ctx); err != nil {
		log.WithError(err).Warn("startup alert refresh failed")
	}

	syncTicker := time.NewTicker(s.syncInterval)
	alertTicker := time.NewTicker(s.alertInterval)
	defer syncTicker.Stop()
	defer alertTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler stopped")
			return
		case <-syncTicker.C:
			_ = s.RunFullSync(ctx)
		case <-alertTicker.C:
			_ = s.RefreshAlerts(ctx)
		}
	}
}
