// Package batch drives one sequential segmentation pass over an image
// sequence: it freezes the balanced annotation at start, streams the
// engine's results on a dedicated worker goroutine, persists each result
// eagerly, and reports progress through a serialized event channel.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/menta2k/sam-annotator/pkg/client"
	"github.com/menta2k/sam-annotator/pkg/layout"
	"github.com/menta2k/sam-annotator/pkg/types"
)

// ErrNotReady is returned when batch start preconditions are unmet. No job
// is created and no state changes.
var ErrNotReady = errors.New("not ready for batch processing")

// Status is the lifecycle state of a batch job.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Outcome records the handling of one sequence position. Err is nil on
// success and carries the frame's inference or persistence failure
// otherwise; a failed outcome never stops the run.
type Outcome struct {
	Index     int // 1-based sequence position
	ImagePath string
	Err       error
}

// Job is the transient record of one batch run. It is created at start,
// owned by the worker while running, and handed back to the caller inside
// the terminal event. It is never persisted.
type Job struct {
	ID         uuid.UUID
	Folder     string
	Dirs       layout.OutputDirs
	Total      int
	Status     Status
	Outcomes   []Outcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// EventKind discriminates worker notifications.
type EventKind int

const (
	// EventProgress reports one processed sequence item.
	EventProgress EventKind = iota
	// EventFinished delivers the job after it reached Completed or
	// Cancelled.
	EventFinished
	// EventError delivers the job after the engine stream failed; partial
	// outcomes are retained on the job.
	EventError
)

// Event is one notification from the batch worker. All events for a job
// arrive on a single channel in order, so the receiving side never observes
// worker state concurrently.
type Event struct {
	Kind    EventKind
	Current int // progress only
	Total   int // progress only
	Job     *Job
	Err     error
}

// Persister abstracts per-item artifact writing.
type Persister interface {
	Persist(res *types.SegmentResult) error
}

// Coordinator runs at most one batch job at a time.
type Coordinator struct {
	engine client.SegmentClient
	events chan Event

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// New creates a coordinator using the given engine client.
func New(engine client.SegmentClient) *Coordinator {
	return &Coordinator{
		engine: engine,
		events: make(chan Event, 16),
	}
}

// Events returns the notification channel. Events are delivered in order;
// the channel is shared across successive jobs and never closed by the
// coordinator.
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// Running reports whether a job is currently active.
func (c *Coordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Start validates preconditions, freezes the balanced annotation and output
// roots, and launches the worker. The returned job is owned by the worker
// until it comes back inside a terminal event; callers must not read it
// before then. Precondition violations return ErrNotReady synchronously with
// no job created and no events emitted.
func (c *Coordinator) Start(seq client.Sequence, balanced types.BalancedAnnotation, dirs layout.OutputDirs, persister Persister) (*Job, error) {
	if balanced.Empty() {
		return nil, fmt.Errorf("%w: no annotation points", ErrNotReady)
	}
	if seq == nil || seq.Count() == 0 {
		return nil, fmt.Errorf("%w: no images loaded", ErrNotReady)
	}
	if persister == nil {
		return nil, fmt.Errorf("%w: no persister", ErrNotReady)
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: a batch job is already running", ErrNotReady)
	}

	job := &Job{
		ID:        uuid.New(),
		Folder:    seq.Folder(),
		Dirs:      dirs,
		Total:     seq.Count(),
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.running = true
	c.cancel = cancel
	c.mu.Unlock()

	log.Info().
		Str("job", job.ID.String()).
		Str("folder", job.Folder).
		Int("images", job.Total).
		Int("objects", balanced.ObjectCount()).
		Msg("Starting batch processing")

	go c.run(ctx, job, seq, balanced, persister)
	return job, nil
}

// Stop requests cooperative cancellation of the active job. The worker
// checks between sequence items; artifacts already persisted are untouched.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running && c.cancel != nil {
		c.cancel()
	}
}

func (c *Coordinator) run(ctx context.Context, job *Job, seq client.Sequence, balanced types.BalancedAnnotation, persister Persister) {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.mu.Unlock()
	}()

	stream, err := c.engine.SegmentSequence(ctx, seq, balanced.Points, balanced.Labels)
	if err != nil {
		c.finishFailed(job, fmt.Errorf("engine call failed: %w", err))
		return
	}
	defer stream.Close()

	paths := seq.Paths()
	for i := 1; ; i++ {
		select {
		case <-ctx.Done():
			c.finishCancelled(job)
			return
		default:
		}

		res, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var frameErr *client.FrameError
		if errors.As(err, &frameErr) {
			// Only this frame's inference failed; the run continues.
			outcome := Outcome{Index: i, ImagePath: frameErr.ImagePath, Err: frameErr}
			if outcome.ImagePath == "" && i <= len(paths) {
				outcome.ImagePath = paths[i-1]
			}
			log.Warn().
				Str("job", job.ID.String()).
				Str("image", outcome.ImagePath).
				Err(frameErr).
				Msg("Frame inference failed")
			job.Outcomes = append(job.Outcomes, outcome)
			c.events <- Event{Kind: EventProgress, Current: i, Total: job.Total}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				c.finishCancelled(job)
				return
			}
			c.finishFailed(job, fmt.Errorf("engine stream failed at item %d: %w", i, err))
			return
		}

		outcome := Outcome{Index: i, ImagePath: res.ImagePath}
		if perr := persister.Persist(res); perr != nil {
			outcome.Err = perr
			log.Warn().
				Str("job", job.ID.String()).
				Str("image", res.ImagePath).
				Err(perr).
				Msg("Failed to persist batch item")
		}
		job.Outcomes = append(job.Outcomes, outcome)

		c.events <- Event{Kind: EventProgress, Current: i, Total: job.Total}
	}

	job.Status = StatusCompleted
	job.FinishedAt = time.Now()
	log.Info().
		Str("job", job.ID.String()).
		Int("processed", len(job.Outcomes)).
		Int("failed", job.failedCount()).
		Msg("Batch processing completed")
	c.events <- Event{Kind: EventFinished, Job: job}
}

func (c *Coordinator) finishFailed(job *Job, err error) {
	job.Status = StatusFailed
	job.FinishedAt = time.Now()
	log.Error().
		Str("job", job.ID.String()).
		Int("processed", len(job.Outcomes)).
		Err(err).
		Msg("Batch processing failed")
	c.events <- Event{Kind: EventError, Job: job, Err: err}
}

func (c *Coordinator) finishCancelled(job *Job) {
	job.Status = StatusCancelled
	job.FinishedAt = time.Now()
	log.Info().
		Str("job", job.ID.String()).
		Int("processed", len(job.Outcomes)).
		Msg("Batch processing cancelled")
	c.events <- Event{Kind: EventFinished, Job: job}
}

func (j *Job) failedCount() int {
	n := 0
	for _, o := range j.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// FailedOutcomes returns the outcomes whose persistence step failed.
func (j *Job) FailedOutcomes() []Outcome {
	var failed []Outcome
	for _, o := range j.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
