// Package materializer turns routine schedules into task missions ahead of
// time, on a cron schedule.
package materializer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dukerupert/neuri/internal/metrics"
	"github.com/dukerupert/neuri/internal/schedule"
	"github.com/dukerupert/neuri/internal/store"
	ws "github.com/dukerupert/neuri/internal/websocket"
)

type Config struct {
	// Spec is a five-field cron expression evaluated in Location.
	Spec        string
	HorizonDays int
	Location    *time.Location
}

// Materializer expands every routine over the next HorizonDays days and
// stores the occurrences that are not stored yet.
type Materializer struct {
	cfg      Config
	routines *store.RoutineStore
	missions *store.MissionStore
	hub      *ws.Hub
	metrics  *metrics.Metrics
	logger   *slog.Logger
	cron     *cron.Cron
	now      func() time.Time
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func New(cfg Config, routines *store.RoutineStore, missions *store.MissionStore, hub *ws.Hub, m *metrics.Metrics, logger *slog.Logger) (*Materializer, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 1
	}

	mat := &Materializer{
		cfg:      cfg,
		routines: routines,
		missions: missions,
		hub:      hub,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(cfg.Location),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}
	if _, err := mat.cron.AddFunc(cfg.Spec, mat.tick); err != nil {
		return nil, fmt.Errorf("parse materializer spec %q: %w", cfg.Spec, err)
	}
	return mat, nil
}

// Start runs the job in the background until Stop is called.
func (m *Materializer) Start() {
	m.logger.Info("materializer started", "spec", m.cfg.Spec, "horizon_days", m.cfg.HorizonDays)
	m.cron.Start()
}

// Stop stops scheduling and waits for a running pass to finish or ctx to end.
func (m *Materializer) Stop(ctx context.Context) {
	done := m.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (m *Materializer) tick() {
	n, err := m.RunOnce()
	if err != nil {
		m.logger.Error("materialize routines", "error", err, "created", n)
		return
	}
	m.logger.Info("materialized routines", "created", n)
}

// RunOnce performs a single pass and returns the number of missions created.
// A failing routine does not stop the others; their errors are joined.
func (m *Materializer) RunOnce() (int, error) {
	routines, err := m.routines.ListAll()
	if err != nil {
		return 0, fmt.Errorf("list routines: %w", err)
	}

	start := schedule.StartOfDay(m.now(), m.cfg.Location)
	var errs []error
	total := 0
	for _, rt := range routines {
		if rt.Schedule == nil {
			continue
		}
		occurrences := schedule.Expand(rt.Title, schedule.Parse(*rt.Schedule), m.cfg.HorizonDays, start)
		if len(occurrences) == 0 {
			continue
		}
		m.metrics.OccurrencesGenerated(len(occurrences))

		created, err := m.missions.MaterializeOccurrences(rt, occurrences)
		if err != nil {
			errs = append(errs, fmt.Errorf("routine %s: %w", rt.ID, err))
			continue
		}
		if len(created) == 0 {
			continue
		}
		total += len(created)
		m.metrics.OccurrencesMaterialized(len(created))
		if m.hub != nil {
			m.hub.Broadcast(ws.NewMessage("routine", "tasks_generated", rt.UserID, rt.ID,
				map[string]any{"count": len(created)}))
		}
	}
	return total, errors.Join(errs...)
}
