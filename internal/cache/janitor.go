package cache

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Purger is anything holding expirable entries
type Purger interface {
	Purge() int
}

// Janitor evicts expired entries from in-memory caches on a cron schedule
type Janitor struct {
	cron    *cron.Cron
	purgers []Purger
	logger  *slog.Logger
}

// NewJanitor registers one purge job on schedule, e.g. "@every 5m"
func NewJanitor(schedule string, logger *slog.Logger, purgers ...Purger) (*Janitor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	j := &Janitor{
		cron:    cron.New(),
		purgers: purgers,
		logger:  logger,
	}
	if _, err := j.cron.AddFunc(schedule, j.RunOnce); err != nil {
		return nil, fmt.Errorf("register cache purge %q: %w", schedule, err)
	}
	return j, nil
}

// RunOnce purges every cache immediately
func (j *Janitor) RunOnce() {
	total := 0
	for _, p := range j.purgers {
		total += p.Purge()
	}
	if total > 0 {
		j.logger.Debug("purged expired cache entries", "evicted", total)
	}
}

// Start starts the cron scheduler
func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info("cache janitor started")
}

// Stop stops the scheduler and waits for a running purge to finish
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("cache janitor stopped")
}
