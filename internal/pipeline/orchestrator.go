package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docstruct/internal/parser"
)

// ErrQueueFull is returned by Submit when no queue slot is free.
var ErrQueueFull = errors.New("job queue is full")

// Settings sizes the worker pool.
type Settings struct {
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration
	Parser       parser.Options
}

// Orchestrator manages the document ingestion pipeline.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	stats *LatencyStats
	log   *slog.Logger
	cfg   Settings

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg Settings, log *slog.Logger) *Orchestrator {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 1
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		stats: NewLatencyStats(time.Hour),
		log:   log,
		cfg:   cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.jobs, o.stats, o.log, o.cfg.Parser)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(cleanupInterval(o.cfg.JobTTL))
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

func cleanupInterval(ttl time.Duration) time.Duration {
	switch {
	case ttl >= 10*time.Minute:
		return 5 * time.Minute
	case ttl/2 < time.Second:
		return time.Second
	default:
		return ttl / 2
	}
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// JobCount returns the number of jobs still held in the store.
func (o *Orchestrator) JobCount() int {
	return o.jobs.Len()
}

// Stats returns the analysis latency tracker.
func (o *Orchestrator) Stats() *LatencyStats {
	return o.stats
}
