// Package retention periodically purges old classification history.
package retention

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"weatherclassifier/internal/logger"
	"weatherclassifier/internal/metrics"
)

// Purger deletes history older than a number of days.
type Purger interface {
	PurgeOlderThan(days int) (int64, error)
}

// Scheduler runs PurgeOlderThan on a standard cron schedule. Five-field
// expressions and descriptors such as @daily are accepted, matching cron.ParseStandard.
type Scheduler struct {
	cron     *cron.Cron
	purger   Purger
	days     int
	schedule string
	entry    cron.EntryID
	started  bool
	logger   *logger.Logger
}

// New creates a Scheduler. A non-positive days value disables it.
func New(purger Purger, days int, schedule string, loc *time.Location, log *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		purger:   purger,
		days:     days,
		schedule: strings.TrimSpace(schedule),
		logger:   log,
	}
}

// Enabled reports whether the scheduler will purge anything.
func (s *Scheduler) Enabled() bool {
	return s.days > 0
}

// Start registers the purge job and starts the cron runner.
func (s *Scheduler) Start() error {
	if !s.Enabled() {
		s.logger.Info("History retention disabled (RETENTION_DAYS not set)")
		return nil
	}

	id, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(); err != nil {
			s.logger.Error("Scheduled history purge failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.schedule, err)
	}

	s.entry = id
	s.cron.Start()
	s.started = true

	s.logger.Info("History retention scheduled (cron: %s, keep %d days, next run %s)",
		s.schedule, s.days, s.Next().Format("Mon Jan 2 15:04"))
	return nil
}

// Next returns the next scheduled run, or the zero time when not started.
func (s *Scheduler) Next() time.Time {
	if !s.started {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// RunOnce purges records older than the configured number of days.
func (s *Scheduler) RunOnce() (int64, error) {
	removed, err := s.purger.PurgeOlderThan(s.days)
	if err != nil {
		return 0, err
	}

	metrics.HistoryRecordsPurged.Add(float64(removed))
	s.logger.Info("Purged %d history records older than %d days", removed, s.days)
	return removed, nil
}

// Stop stops the cron runner and waits for a running purge to finish.
func (s *Scheduler) Stop() {
	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.started = false
}
