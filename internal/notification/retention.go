package notification

import (
	"context"
	"fmt"
	"time"

	domainNotification "precast-tracker/internal/domain/notification"
	"precast-tracker/internal/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Retention purges inbox rows older than maxAge on a cron schedule.
type Retention struct {
	inbox  domainNotification.Repository
	maxAge time.Duration
	spec   string
	cron   *cron.Cron
	now    func() time.Time
}

func NewRetention(inbox domainNotification.Repository, days int, spec string) *Retention {
	return &Retention{
		inbox:  inbox,
		maxAge: time.Duration(days) * 24 * time.Hour,
		spec:   spec,
		cron:   cron.New(),
		now:    time.Now,
	}
}

// Start schedules the purge. A zero retention disables it.
func (r *Retention) Start() error {
	if r.maxAge <= 0 {
		logger.Info("Notification retention disabled")
		return nil
	}

	_, err := r.cron.AddFunc(r.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := r.Purge(ctx); err != nil {
			logger.Error("Notification purge failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid notification cleanup schedule %q: %w", r.spec, err)
	}

	r.cron.Start()
	logger.Info("Notification retention scheduled",
		zap.String("schedule", r.spec),
		zap.Duration("max_age", r.maxAge),
	)
	return nil
}

// Stop waits for a running purge to finish.
func (r *Retention) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Retention) Purge(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.maxAge)
	deleted, err := r.inbox.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	logger.Info("Notifications purged",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff),
		zap.String("event", "notifications_purged"),
	)
	return deleted, nil
}
