package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gpuindex/gpu-price-index/internal/logger"
)

// Scheduler runs the pipeline on a cron schedule. A tick that fires while a
// cycle is still running is skipped.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *Pipeline
	baseCtx  context.Context
	timeout  time.Duration
}

// NewScheduler parses spec, a standard five field expression or a
// descriptor such as "@every 30m". timeout bounds a single cycle.
func NewScheduler(baseCtx context.Context, p *Pipeline, spec string, timeout time.Duration) (*Scheduler, error) {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{}),
			cron.SkipIfStillRunning(cronLogger{}),
		)),
		pipeline: p,
		baseCtx:  baseCtx,
		timeout:  timeout,
	}

	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.timeout)
	defer cancel()
	ctx = logger.WithTraceID(ctx, "cron-"+time.Now().UTC().Format("20060102T150405"))

	report, err := s.pipeline.Run(ctx, TriggerSchedule)
	if errors.Is(err, ErrSyncInProgress) {
		logger.Info("Scheduled sync skipped, a sync is already running")
		return
	}
	if err != nil {
		logger.Errorf("Scheduled sync failed: %v", err)
		return
	}
	logger.Infof("Scheduled sync done: %d/%d updated", report.Stats.Updated, report.Stats.TotalGPUs)
}

func (s *Scheduler) Start() {
	logger.Info("Sync scheduler started")
	s.cron.Start()
}

// Stop waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Sync scheduler stopped")
}

// cronLogger routes cron's own messages to logrus.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.WithFields(kvFields(keysAndValues)).Debug("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.WithFields(kvFields(keysAndValues)).WithError(err).Error("cron: " + msg)
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
