package job

import (
	"context"
	"errors"

	"github.com/ftruzzi/urlwatch/internal/browser"
)

var browserKind = Kind{
	Tag:      "browser",
	Doc:      "Retrieve an URL, emulating a real web browser",
	Required: []string{"navigate"},
	Optional: metaFields,
}

func init() { browserKind.New = newBrowserJob }

// AsyncJob is implemented by kinds that need the shared render loop. The
// driver must call Setup once on the driving goroutine before scheduling
// Retrieve from workers, and Cleanup on the driving goroutine after the
// loop has stopped.
type AsyncJob interface {
	Job
	Setup(loop *browser.Loop) error
	Cleanup() error
}

// BrowserJob retrieves an URL by rendering it in the shared headless
// browser.
type BrowserJob struct {
	meta
	Navigate string

	loop *browser.Loop
}

func newBrowserJob(rec Record) (Job, error) {
	if err := checkRequired("browser", rec, browserKind.Required); err != nil {
		return nil, err
	}
	j := &BrowserJob{Navigate: stringField(rec, "navigate")}
	j.fill(rec)
	j.extra = extraFields(rec, append(browserKind.Required, browserKind.Optional...))
	return j, nil
}

func (j *BrowserJob) Kind() string { return browserKind.Tag }

func (j *BrowserJob) Location() string { return j.Navigate }

func (j *BrowserJob) PrettyName() string { return j.pretty(j.Navigate) }

func (j *BrowserJob) Serialize() Record {
	rec := Record{"kind": browserKind.Tag, "navigate": j.Navigate}
	j.serializeInto(rec)
	return rec
}

// Setup attaches the render loop and takes a reference on the shared
// browser, launching it if this job is the first. All browser jobs in a run
// share one browser process.
func (j *BrowserJob) Setup(loop *browser.Loop) error {
	if loop == nil {
		return errors.New("Setup requires a render loop")
	}
	if err := loop.Acquire(); err != nil {
		return err
	}
	j.loop = loop
	return nil
}

// Retrieve renders the page through the loop. It fails if Setup has not
// been called or the loop is not running; submitting to a stopped loop
// would deadlock the worker.
func (j *BrowserJob) Retrieve(ctx context.Context, state *State) (string, error) {
	if j.loop == nil {
		return "", ErrSetupNotCalled
	}
	if !j.loop.Running() {
		return "", ErrLoopNotRunning
	}
	return j.loop.Render(ctx, j.Navigate)
}

// Cleanup drops this job's reference on the shared browser. The loop must
// already be stopped; the last Cleanup closes the browser.
func (j *BrowserJob) Cleanup() error {
	if j.loop == nil {
		return ErrSetupNotCalled
	}
	if j.loop.Running() {
		return ErrLoopNotStopped
	}
	return j.loop.Release()
}
