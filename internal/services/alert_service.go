package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// AlertService runs the scheduled overdue check. Every alert interval it
// scans the active departures and logs the overdue roster so operators and
// log-based alerting pick it up even when nobody has a dashboard open.
type AlertService struct {
	cron       *cron.Cron
	departures *DepartureService
	interval   time.Duration
	logger     *logrus.Logger
}

// NewAlertService creates a new AlertService firing every interval.
func NewAlertService(departures *DepartureService, interval time.Duration, logger *logrus.Logger) *AlertService {
	return &AlertService{
		cron:       cron.New(),
		departures: departures,
		interval:   interval,
		logger:     logger,
	}
}

// Start schedules and starts the overdue check job.
func (s *AlertService) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.overdueCheckJob); err != nil {
		return fmt.Errorf("failed to schedule overdue check: %w", err)
	}
	s.cron.Start()
	s.logger.WithField("interval", s.interval.String()).Info("Overdue alert job scheduled")
	return nil
}

// Stop stops the scheduler, waiting for a running job to finish.
func (s *AlertService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Overdue alert job stopped")
}

// RunOnce performs a single overdue scan. Exposed for startup and tests;
// the cron job calls the same code.
func (s *AlertService) RunOnce(ctx context.Context) {
	active, err := s.departures.ListActive(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Overdue check failed")
		return
	}

	overdue := 0
	for _, d := range active {
		if !d.IsOverdue {
			// Active departures are sorted most-overdue first.
			break
		}
		overdue++
		s.logger.WithFields(logrus.Fields{
			"departure_id":    d.ID,
			"person":          d.PersonName,
			"destination":     d.Destination,
			"supervisor":      d.Supervisor,
			"phone":           d.Phone,
			"overdue_hours":   -d.TimeRemainingHours,
			"expected_return": d.ExpectedReturn,
		}).Warn("Personnel overdue")
	}

	if overdue == 0 {
		s.logger.WithField("active", len(active)).Debug("Overdue check: all clear")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"overdue": overdue,
		"active":  len(active),
	}).Warn("Overdue personnel alert")
}

func (s *AlertService) overdueCheckJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.RunOnce(ctx)
}
