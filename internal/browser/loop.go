// Package browser drives a shared headless browser from a single goroutine.
//
// One Loop serves one retrieval run. Worker goroutines submit render
// requests through a bounded channel and block on a per-request reply, so a
// render looks like a normal blocking call from the caller's side while the
// browser is only ever touched by the loop-owning goroutine.
package browser

import (
	"context"
	"errors"
	"sync"
)

// Renderer abstracts the headless browser behind the loop.
type Renderer interface {
	// Launch starts the browser process.
	Launch() error
	// Render opens an isolated page, navigates to url, and returns the
	// rendered document content. The page is torn down before returning.
	Render(ctx context.Context, url string) (string, error)
	// Close shuts the browser process down.
	Close() error
}

// ErrLoopStopped is returned by Render when the loop has been stopped
// before the request could be served.
var ErrLoopStopped = errors.New("render loop stopped")

type request struct {
	url   string
	reply chan result
}

type result struct {
	content string
	err     error
}

// Loop owns the goroutine that serves render requests and the shared
// browser handle. The browser is launched lazily by the first Acquire and
// closed by the last Release, making the handle's lifetime explicit instead
// of living in package-level state. A Loop serves a single Start/Stop
// cycle; create a new one per run.
type Loop struct {
	renderer Renderer
	requests chan request
	stop     chan struct{}
	stopped  chan struct{}

	mu       sync.Mutex
	running  bool
	refs     int
	launched bool
}

// New creates a loop backed by a headless Chrome renderer.
func New() *Loop {
	return NewWith(NewChrome())
}

// NewWith creates a loop backed by the given renderer.
func NewWith(r Renderer) *Loop {
	return &Loop{
		renderer: r,
		requests: make(chan request, 16),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start begins serving render requests on a dedicated goroutine.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	go l.run()
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		select {
		case <-l.stop:
			return
		case req := <-l.requests:
			content, err := l.renderer.Render(context.Background(), req.url)
			req.reply <- result{content: content, err: err}
		}
	}
}

// Stop stops serving requests and waits for the loop goroutine to exit. An
// in-flight render finishes first.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	l.mu.Unlock()

	close(l.stop)
	<-l.stopped
}

// Running reports whether the loop goroutine is serving requests.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Acquire takes a reference on the shared browser, launching it if this is
// the first reference. Subsequent calls reuse the running browser.
func (l *Loop) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.launched {
		if err := l.renderer.Launch(); err != nil {
			return err
		}
		l.launched = true
	}
	l.refs++
	return nil
}

// Release drops a reference. The last release closes the browser and makes
// the handle eligible for relaunch.
func (l *Loop) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.refs == 0 {
		return errors.New("Release without matching Acquire")
	}
	l.refs--
	if l.refs == 0 && l.launched {
		l.launched = false
		return l.renderer.Close()
	}
	return nil
}

// Render submits a render request to the loop goroutine and blocks until it
// has been served. It fails with ErrLoopStopped if the loop stops before
// the request is handled.
func (l *Loop) Render(ctx context.Context, url string) (string, error) {
	reply := make(chan result, 1)
	select {
	case l.requests <- request{url: url, reply: reply}:
	case <-l.stopped:
		return "", ErrLoopStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case res := <-reply:
		return res.content, res.err
	case <-l.stopped:
		return "", ErrLoopStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
