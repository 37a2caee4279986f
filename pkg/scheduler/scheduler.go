// Package scheduler provides a single-worker task scheduler that serialises
// long-running indexer jobs.
package scheduler

import (
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/Othernet-Project/fsal/pkg/logging"
)

// queueCapacity is the maximum number of jobs that can be pending at once.
// Indexer jobs are coarse (whole-subtree scans), so a deep backlog indicates
// something pathological and additional jobs are dropped with a warning.
const queueCapacity = 256

// job pairs a scheduled callback with its identifying metadata.
type job struct {
	// id is the unique job identifier used in logs.
	id string
	// name describes the job.
	name string
	// run is the job callback.
	run func()
}

// Scheduler runs scheduled jobs serially on a single background worker. At
// most one job runs at any time.
type Scheduler struct {
	// jobs is the pending job queue.
	jobs chan *job
	// stop signals the worker to terminate once the current job completes.
	stop chan struct{}
	// done is closed when the worker has terminated.
	done chan struct{}
	// logger is the scheduler's logger.
	logger *logging.Logger
	// startOnce and stopOnce guard lifecycle transitions.
	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a scheduler. The worker doesn't run until Start is invoked.
func New(logger *logging.Logger) *Scheduler {
	return &Scheduler{
		jobs:   make(chan *job, queueCapacity),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Start launches the background worker.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

// Schedule queues a job for execution. It returns false if the scheduler is
// saturated and the job was dropped.
func (s *Scheduler) Schedule(name string, run func()) bool {
	queued := &job{
		id:   uuid.NewString(),
		name: name,
		run:  run,
	}
	select {
	case s.jobs <- queued:
		s.logger.Debugf("scheduled job %s (%s)", queued.name, queued.id)
		return true
	default:
		s.logger.Warnf("job queue saturated, dropping job %s", name)
		return false
	}
}

// Stop prevents further job execution and waits for any in-flight job to
// complete. Pending jobs are discarded.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

// run is the worker loop.
func (s *Scheduler) run() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case next := <-s.jobs:
			s.execute(next)
		}
	}
}

// execute runs a single job, recovering from panics so that a failing job
// can't take down the worker.
func (s *Scheduler) execute(next *job) {
	defer func() {
		if value := recover(); value != nil {
			s.logger.Errorf("job %s (%s) panicked: %v\n%s",
				next.name, next.id, value, debug.Stack())
		}
	}()
	s.logger.Debugf("running job %s (%s)", next.name, next.id)
	next.run()
}
