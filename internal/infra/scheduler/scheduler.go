package scheduler

import (
	"context"
	"time"

	"github.com/roctbb/protocol-medsenger-bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DispatchScheduler owns the polling cadence of the notification
// pipeline: one cron job runs the dispatch cycle on a fixed interval.
// A cycle failure is logged and the next cycle proceeds normally; the
// loop only stops with the process.
type DispatchScheduler struct {
	cronEngine *cron.Cron
	dispatcher app.Dispatcher
	logger     *logrus.Logger
	cronSpec   string
}

func NewDispatchScheduler(
	dispatcher app.Dispatcher,
	logger *logrus.Logger,
	cronSpec string, // e.g. "*/5 * * * *" (every 5 minutes)
) *DispatchScheduler {
	return &DispatchScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		dispatcher: dispatcher,
		logger:     logger,
		cronSpec:   cronSpec,
	}
}

func (s *DispatchScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpec, s.runCycle)
	if err != nil {
		return err
	}
	s.cronEngine.Start()
	s.logger.Infof("Dispatch scheduler started (spec %q)", s.cronSpec)
	return nil
}

// RunNow triggers a dispatch cycle outside the cron cadence, used right
// after a contract activates so its due events are handled without
// waiting for the next tick.
func (s *DispatchScheduler) RunNow() {
	go s.runCycle()
}

func (s *DispatchScheduler) runCycle() {
	// No deadline on purpose: a cycle may take as long as it needs,
	// each outbound delivery is individually bounded.
	if err := s.dispatcher.RunCycle(context.Background()); err != nil {
		s.logger.Errorf("Dispatch cycle failed: %v", err)
	}
}

func (s *DispatchScheduler) Stop() {
	s.logger.Info("Stopping dispatch scheduler...")
	ctx := s.cronEngine.Stop() // waits for a running cycle to finish
	<-ctx.Done()
	s.logger.Info("Dispatch scheduler gracefully stopped.")
}
