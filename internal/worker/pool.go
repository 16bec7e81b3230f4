// Package worker runs one retrieval cycle over a job list.
package worker

import (
	"context"
	"errors"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/ftruzzi/urlwatch/internal/browser"
	"github.com/ftruzzi/urlwatch/internal/cache"
	"github.com/ftruzzi/urlwatch/internal/job"
)

// Outcome classifies the result of one job's retrieval.
type Outcome string

const (
	OutcomeNew       Outcome = "new"
	OutcomeChanged   Outcome = "changed"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeError     Outcome = "error"
)

// Result is the outcome of one job in a run.
type Result struct {
	Job     job.Job
	Outcome Outcome
	Content string
	Err     error
}

// Store is the snapshot persistence the pool needs.
type Store interface {
	Load(ctx context.Context, guid string) (*cache.Snapshot, error)
	Save(ctx context.Context, snap cache.Snapshot) error
}

// Pool retrieves jobs concurrently on a fixed number of workers. Each job
// gets exactly one Retrieve call per run; retries are not this layer's
// concern. Async jobs are set up on the calling goroutine before any worker
// starts and cleaned up after the render loop has stopped, so no Retrieve
// can observe a torn-down browser.
type Pool struct {
	store   Store
	loop    *browser.Loop
	workers int
}

// New creates a pool. The loop may be nil when the job list contains no
// browser jobs.
func New(store Store, loop *browser.Loop, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{store: store, loop: loop, workers: workers}
}

// Run executes one retrieval cycle and returns a result per job, in job
// list order.
func (p *Pool) Run(ctx context.Context, jobs []job.Job) []Result {
	results := make([]Result, len(jobs))

	var asyncJobs []job.AsyncJob
	for _, j := range jobs {
		if aj, ok := j.(job.AsyncJob); ok {
			asyncJobs = append(asyncJobs, aj)
		}
	}

	skip := make(map[int]bool)
	var setUp []job.AsyncJob
	if len(asyncJobs) > 0 {
		if p.loop == nil {
			for i, j := range jobs {
				if _, ok := j.(job.AsyncJob); ok {
					results[i] = Result{Job: j, Outcome: OutcomeError, Err: errors.New("no render loop configured")}
					skip[i] = true
				}
			}
		} else {
			p.loop.Start()
			for i, j := range jobs {
				aj, ok := j.(job.AsyncJob)
				if !ok {
					continue
				}
				if err := aj.Setup(p.loop); err != nil {
					results[i] = Result{Job: j, Outcome: OutcomeError, Err: err}
					skip[i] = true
					continue
				}
				setUp = append(setUp, aj)
			}
		}
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = p.runJob(ctx, jobs[i])
			}
		}()
	}
	for i := range jobs {
		if skip[i] {
			continue
		}
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	if len(setUp) > 0 {
		p.loop.Stop()
		for _, aj := range setUp {
			if err := aj.Cleanup(); err != nil {
				log.Printf("cleanup %s: %v", aj.PrettyName(), err)
			}
		}
	}

	return results
}

func (p *Pool) runJob(ctx context.Context, j job.Job) Result {
	guid := job.GUID(j)

	prev, err := p.store.Load(ctx, guid)
	if err != nil {
		return Result{Job: j, Outcome: OutcomeError, Err: err}
	}

	var state job.State
	if prev != nil {
		state.ETag = prev.ETag
		state.Timestamp = prev.Timestamp
	}

	content, err := j.Retrieve(ctx, &state)
	if errors.Is(err, job.ErrNotModified) {
		// Sentinel: the server reports no new content. Keep the
		// previous snapshot as-is.
		log.Printf("job %s: not modified", j.PrettyName())
		result := Result{Job: j, Outcome: OutcomeUnchanged}
		if prev != nil {
			result.Content = prev.Content
		}
		return result
	}
	if err != nil {
		if ignoresConnectionErrors(j, err) {
			log.Printf("job %s: ignoring connection error: %v", j.PrettyName(), err)
			result := Result{Job: j, Outcome: OutcomeUnchanged}
			if prev != nil {
				result.Content = prev.Content
			}
			return result
		}
		return Result{Job: j, Outcome: OutcomeError, Err: err}
	}

	outcome := OutcomeNew
	if prev != nil {
		if prev.Content == content {
			outcome = OutcomeUnchanged
		} else {
			outcome = OutcomeChanged
		}
	}

	snap := cache.Snapshot{
		GUID:      guid,
		Content:   content,
		ETag:      state.ETag,
		Timestamp: time.Now(),
	}
	if err := p.store.Save(ctx, snap); err != nil {
		return Result{Job: j, Outcome: OutcomeError, Err: err}
	}

	return Result{Job: j, Outcome: outcome, Content: content}
}

// ignoresConnectionErrors reports whether j has opted out of surfacing
// transport-level failures. Only URL jobs carry the flag, and only errors
// from the HTTP client round trip qualify; HTTP status errors still count.
func ignoresConnectionErrors(j job.Job, err error) bool {
	uj, ok := j.(*job.URLJob)
	if !ok || !uj.IgnoreConnectionErrors {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
