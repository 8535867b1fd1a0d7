package services

import (
	"context"
	"time"

	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// RuleExpirer is the part of DiscountService the scheduler drives.
type RuleExpirer interface {
	ExpireRules(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic discount-rule maintenance.
type Scheduler struct {
	cron    *cron.Cron
	rules   RuleExpirer
	log     *logrus.Logger
	timeout time.Duration
}

func NewScheduler(spec string, rules RuleExpirer, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithLogger(cron.PrintfLogger(log))),
		rules:   rules,
		log:     log,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.expireRules); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) expireRules() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.rules.ExpireRules(ctx)
	if err != nil {
		s.log.WithError(err).Error("Failed to expire discount rules")
		return
	}
	if n > 0 {
		s.log.WithField("count", n).Info("Expired discount rules deactivated")
	}
}
