package app

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/broker"
)

// janitor periodically sweeps jobs past their TTL (spec §3), the same
// scheduled-maintenance role the teacher's own cron-backed scheduler service
// fills for its stale/orphaned job cleanup, reduced here to the one
// recurring task this pipeline needs.
type janitor struct {
	cron   *cron.Cron
	broker *broker.Broker
	logger arbor.ILogger
}

func newJanitor(b *broker.Broker, logger arbor.ILogger) *janitor {
	return &janitor{cron: cron.New(), broker: b, logger: logger}
}

// start registers the sweep job and starts the cron scheduler. "@every 10m"
// comfortably undercuts even scrape jobs' 1h TTL (models.Kind.TTL), so an
// expired job is never visible for much longer than one sweep interval.
func (j *janitor) start() error {
	_, err := j.cron.AddFunc("@every 10m", j.sweep)
	if err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

func (j *janitor) sweep() {
	n, err := j.broker.SweepExpired(context.Background())
	if err != nil {
		j.logger.Warn().Err(err).Msg("janitor: sweep expired jobs failed")
		return
	}
	if n > 0 {
		j.logger.Info().Int("count", n).Msg("janitor: swept expired jobs")
	}
}

// stop halts the scheduler, waiting for any in-flight sweep to finish.
func (j *janitor) stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}
