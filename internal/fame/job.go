package fame

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// JobMetrics provides centralized background job metrics tracking.
// This interface allows the job to report to the central job metrics system
// without importing it.
type JobMetrics interface {
	IncJobsTotal(jobType, status string)
	ObserveJobDuration(jobType string, seconds float64)
	IncJobErrors(jobType, errorType string)
}

// RecomputeJobConfig configures a scheduled fame recompute job.
type RecomputeJobConfig struct {
	// Name labels the job in logs and metrics (e.g. "fame_recompute_hourly").
	Name string
	// Interval is the duration between recompute passes.
	Interval time.Duration
	// Logger for job activity.
	Logger *slog.Logger
	// JobMetrics for centralized background job tracking.
	JobMetrics JobMetrics
	// Timeout for each recompute pass.
	Timeout time.Duration
}

// DefaultRecomputeInterval is the default interval between recompute passes.
const DefaultRecomputeInterval = time.Hour

// DefaultRecomputeTimeout is the default timeout for a single pass.
const DefaultRecomputeTimeout = 10 * time.Minute

// RecomputeJob periodically runs a full fame rating sweep. The hourly and
// daily triggers are two instances of this job sharing one recomputer;
// overlapping passes are permitted because recompute is idempotent — an
// overlap wastes work, it cannot corrupt state.
type RecomputeJob struct {
	config     RecomputeJobConfig
	recomputer *Recomputer

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRecomputeJob creates a new scheduled fame recompute job.
func NewRecomputeJob(config RecomputeJobConfig, recomputer *Recomputer) *RecomputeJob {
	if config.Name == "" {
		config.Name = "fame_recompute"
	}
	if config.Interval == 0 {
		config.Interval = DefaultRecomputeInterval
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultRecomputeTimeout
	}

	return &RecomputeJob{
		config:     config,
		recomputer: recomputer,
	}
}

// Start begins the periodic recompute job.
// Returns immediately; the job runs in a background goroutine.
func (j *RecomputeJob) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	go j.run(ctx)
	return nil
}

// Stop signals the recompute job to stop and waits for it to finish.
func (j *RecomputeJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stopCh := j.stopCh
	doneCh := j.doneCh
	j.mu.Unlock()

	close(stopCh)
	<-doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

// IsRunning returns whether the job is currently running.
func (j *RecomputeJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// run is the main loop for the recompute job.
func (j *RecomputeJob) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.config.Logger.Info("fame recompute job stopping due to context cancellation",
				"job", j.config.Name)
			return
		case <-j.stopCh:
			j.config.Logger.Info("fame recompute job stopping due to stop signal",
				"job", j.config.Name)
			return
		case <-ticker.C:
			j.runPass(ctx)
		}
	}
}

// runPass executes one full recompute sweep with a per-pass timeout.
func (j *RecomputeJob) runPass(parentCtx context.Context) {
	ctx, cancel := context.WithTimeout(parentCtx, j.config.Timeout)
	defer cancel()

	summary, err := j.recomputer.RecomputeAll(ctx)

	status := StatusSuccess
	if err != nil {
		status = StatusFailure
		j.config.Logger.Error("fame recompute pass failed",
			"job", j.config.Name,
			"error", err)
		if j.config.JobMetrics != nil {
			j.config.JobMetrics.IncJobErrors(j.config.Name, "list_users_error")
		}
	} else if summary.Failed > 0 {
		status = StatusFailure
	}

	if j.config.JobMetrics != nil {
		j.config.JobMetrics.IncJobsTotal(j.config.Name, status)
		j.config.JobMetrics.ObserveJobDuration(j.config.Name, summary.Duration.Seconds())
	}
}

// Job status labels reported to the central job metrics.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)
