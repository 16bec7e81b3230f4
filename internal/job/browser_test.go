package job

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ftruzzi/urlwatch/internal/browser"
)

// fakeRenderer counts launches and closes and renders canned content.
type fakeRenderer struct {
	mu       sync.Mutex
	launches int
	closes   int
}

func (f *fakeRenderer) Launch() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launches++
	return nil
}

func (f *fakeRenderer) Render(ctx context.Context, url string) (string, error) {
	return "<html>" + url + "</html>", nil
}

func (f *fakeRenderer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func newBrowserTestJob(t *testing.T, url string) *BrowserJob {
	t.Helper()
	j, err := newBrowserJob(Record{"navigate": url})
	if err != nil {
		t.Fatalf("newBrowserJob() error = %v", err)
	}
	return j.(*BrowserJob)
}

func TestBrowserJob_RetrieveBeforeSetup(t *testing.T) {
	j := newBrowserTestJob(t, "https://example.com")

	_, err := j.Retrieve(context.Background(), &State{})
	if !errors.Is(err, ErrSetupNotCalled) {
		t.Errorf("Retrieve() error = %v, want ErrSetupNotCalled", err)
	}
}

func TestBrowserJob_RetrieveWithStoppedLoop(t *testing.T) {
	j := newBrowserTestJob(t, "https://example.com")
	loop := browser.NewWith(&fakeRenderer{})

	if err := j.Setup(loop); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	// The loop was never started.
	_, err := j.Retrieve(context.Background(), &State{})
	if !errors.Is(err, ErrLoopNotRunning) {
		t.Errorf("Retrieve() error = %v, want ErrLoopNotRunning", err)
	}
}

func TestBrowserJob_CleanupWhileRunning(t *testing.T) {
	j := newBrowserTestJob(t, "https://example.com")
	loop := browser.NewWith(&fakeRenderer{})
	loop.Start()
	defer loop.Stop()

	if err := j.Setup(loop); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	if err := j.Cleanup(); !errors.Is(err, ErrLoopNotStopped) {
		t.Errorf("Cleanup() error = %v, want ErrLoopNotStopped", err)
	}
}

func TestBrowserJob_CleanupBeforeSetup(t *testing.T) {
	j := newBrowserTestJob(t, "https://example.com")

	if err := j.Cleanup(); !errors.Is(err, ErrSetupNotCalled) {
		t.Errorf("Cleanup() error = %v, want ErrSetupNotCalled", err)
	}
}

// Two browser jobs sharing one setup/cleanup cycle launch and close the
// browser exactly once.
func TestBrowserJob_SharedBrowserLifecycle(t *testing.T) {
	renderer := &fakeRenderer{}
	loop := browser.NewWith(renderer)

	a := newBrowserTestJob(t, "https://example.com/a")
	b := newBrowserTestJob(t, "https://example.com/b")

	loop.Start()
	if err := a.Setup(loop); err != nil {
		t.Fatalf("Setup(a) error = %v", err)
	}
	if err := b.Setup(loop); err != nil {
		t.Fatalf("Setup(b) error = %v", err)
	}

	var wg sync.WaitGroup
	for _, j := range []*BrowserJob{a, b} {
		wg.Add(1)
		go func(j *BrowserJob) {
			defer wg.Done()
			content, err := j.Retrieve(context.Background(), &State{})
			if err != nil {
				t.Errorf("Retrieve(%s) error = %v", j.Navigate, err)
				return
			}
			if want := "<html>" + j.Navigate + "</html>"; content != want {
				t.Errorf("Retrieve(%s) = %q, want %q", j.Navigate, content, want)
			}
		}(j)
	}
	wg.Wait()

	loop.Stop()
	if err := a.Cleanup(); err != nil {
		t.Fatalf("Cleanup(a) error = %v", err)
	}

	// The browser stays up until the last job releases it.
	renderer.mu.Lock()
	closesAfterFirst := renderer.closes
	renderer.mu.Unlock()
	if closesAfterFirst != 0 {
		t.Errorf("closes after first Cleanup = %d, want 0", closesAfterFirst)
	}

	if err := b.Cleanup(); err != nil {
		t.Fatalf("Cleanup(b) error = %v", err)
	}

	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	if renderer.launches != 1 {
		t.Errorf("launches = %d, want 1", renderer.launches)
	}
	if renderer.closes != 1 {
		t.Errorf("closes = %d, want 1", renderer.closes)
	}
}
