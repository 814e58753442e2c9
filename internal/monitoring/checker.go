package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Checker runs periodic alert checks in the background.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	interval  time.Duration
	lookback  int
}

// NewChecker creates a background alert checker. A non-positive interval
// defaults to five minutes.
func NewChecker(collector *Collector, alerter *Alerter, interval time.Duration, lookbackHours int) *Checker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Checker{
		collector: collector,
		alerter:   alerter,
		interval:  interval,
		lookback:  lookbackHours,
	}
}

// Run starts the periodic check loop. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("monitoring: starting alert checker",
		zap.Duration("interval", c.interval),
		zap.Int("lookback_hours", c.lookback),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("monitoring: alert checker stopped")
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check collects one snapshot and raises its alerts. The triggered alerts
// are returned.
func (c *Checker) Check(ctx context.Context) []Alert {
	log := zap.L().With(zap.String("component", "monitoring.checker"))

	snap, err := c.collector.Collect(ctx, c.lookback)
	if err != nil {
		log.Error("monitoring: failed to collect metrics", zap.Error(err))
		return nil
	}

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		log.Debug("monitoring: no alerts triggered", zap.Int("runs", snap.Total))
		return nil
	}
	for _, a := range alerts {
		log.Warn("monitoring: alert", zap.String("type", string(a.Type)), zap.String("message", a.Message))
	}

	if err := c.alerter.Notify(ctx, snap, alerts); err != nil {
		log.Error("monitoring: failed to deliver alerts", zap.Error(err))
	}
	return alerts
}
