package gui

import (
	"context"
	"sync"

	"codeberg.org/snonux/waldl/internal/thumbnail"
)

// ThumbnailJob asks for one grid tile to be filled
type ThumbnailJob struct {
	ID         int
	Generation uint64
	Index      int // Position in the result grid
	URL        string
	Status     JobStatus
}

// JobStatus represents the current state of a job
type JobStatus int

const (
	StatusQueued JobStatus = iota
	StatusProcessing
	StatusCompleted
	StatusFailed
)

func (s JobStatus) String() string {
	switch s {
	case StatusQueued:
		return "Queued"
	case StatusProcessing:
		return "Processing"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Pending"
	default:
		return "Unknown"
	}
}

// Materializer returns a decoded thumbnail for a generation. The bool is
// false while the image is not available.
type Materializer interface {
	ThumbnailFor(ctx context.Context, generation uint64, url string) (*thumbnail.Handle, bool)
	Generation() uint64
}

// ThumbnailLoader runs thumbnail jobs one at a time on a single worker
// goroutine. Jobs of an older generation are skipped without fetching.
// Enqueue never blocks, so it is safe to call from the UI goroutine.
type ThumbnailLoader struct {
	source Materializer

	mu      sync.Mutex
	pending []*ThumbnailJob
	nextID  int
	wake    chan struct{} // holds at most one signal

	// Callback for UI updates, called on the worker goroutine. handle is
	// nil when the thumbnail is still pending.
	onLoaded func(job *ThumbnailJob, handle *thumbnail.Handle)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewThumbnailLoader creates and starts a loader
func NewThumbnailLoader(ctx context.Context, source Materializer, onLoaded func(*ThumbnailJob, *thumbnail.Handle)) *ThumbnailLoader {
	loaderCtx, cancel := context.WithCancel(ctx)

	l := &ThumbnailLoader{
		source:   source,
		nextID:   1,
		wake:     make(chan struct{}, 1),
		onLoaded: onLoaded,
		ctx:      loaderCtx,
		cancel:   cancel,
	}

	l.wg.Add(1)
	go l.run()

	return l
}

// Enqueue adds a job for the tile at index. It returns nil once the loader
// is stopped.
func (l *ThumbnailLoader) Enqueue(generation uint64, index int, url string) *ThumbnailJob {
	if l.ctx.Err() != nil {
		return nil
	}

	l.mu.Lock()
	job := &ThumbnailJob{
		ID:         l.nextID,
		Generation: generation,
		Index:      index,
		URL:        url,
		Status:     StatusQueued,
	}
	l.nextID++
	l.pending = append(l.pending, job)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return job
}

// Pending returns the number of jobs waiting for the worker
func (l *ThumbnailLoader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Stop cancels pending jobs and waits for the worker to exit
func (l *ThumbnailLoader) Stop() {
	l.cancel()
	l.wg.Wait()
}

func (l *ThumbnailLoader) run() {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-l.wake:
		}

		for {
			job := l.next()
			if job == nil {
				break
			}
			if l.ctx.Err() != nil {
				return
			}
			l.process(job)
		}
	}
}

// next pops the oldest pending job, or returns nil when there is none
func (l *ThumbnailLoader) next() *ThumbnailJob {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return nil
	}
	job := l.pending[0]
	l.pending[0] = nil
	l.pending = l.pending[1:]
	return job
}

func (l *ThumbnailLoader) process(job *ThumbnailJob) {
	if job.Generation != l.source.Generation() {
		job.Status = StatusFailed
		return
	}

	job.Status = StatusProcessing
	handle, ok := l.source.ThumbnailFor(l.ctx, job.Generation, job.URL)
	if ok {
		job.Status = StatusCompleted
	} else {
		job.Status = StatusFailed
		handle = nil
	}

	if l.onLoaded != nil {
		l.onLoaded(job, handle)
	}
}
