package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// BadgeScanner refreshes the reminder badge for a fixed set of users on
// a cron schedule, so candidate counts and the Prometheus gauge stay
// warm without waiting for the first page load of the day.
type BadgeScanner struct {
	cron      *cron.Cron
	reminders *ReminderService
	schedule  string
	userIDs   []string
	logger    *zap.Logger
}

// NewBadgeScanner creates the scanner. userIDs comes from configuration;
// a typical single-tenant deployment lists one ID.
func NewBadgeScanner(reminders *ReminderService, schedule string, userIDs []string, logger *zap.Logger) *BadgeScanner {
	return &BadgeScanner{
		cron:      cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		reminders: reminders,
		schedule:  schedule,
		userIDs:   userIDs,
		logger:    logger,
	}
}

// Start registers the scan job and starts the cron loop.
func (s *BadgeScanner) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.scan); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("badge scan scheduled",
		zap.String("schedule", s.schedule),
		zap.Int("users", len(s.userIDs)),
	)
	return nil
}

// Stop stops the cron loop; the returned context is done once any
// running scan finishes.
func (s *BadgeScanner) Stop() context.Context {
	return s.cron.Stop()
}

func (s *BadgeScanner) scan() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	for _, userID := range s.userIDs {
		n, err := s.reminders.RefreshBadge(ctx, userID)
		if err != nil {
			s.logger.Warn("badge scan failed for user",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("badge refreshed",
			zap.String("user_id", userID),
			zap.Int("candidates", n),
		)
	}
}
