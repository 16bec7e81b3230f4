package job

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotModified is the sentinel returned by Retrieve when the server
// reports the content has not changed (HTTP 304). It means "no new content",
// not a real failure, and drivers must treat it as a successful no-op.
var ErrNotModified = errors.New("content not modified")

// Lifecycle errors for async jobs. These indicate driver ordering bugs, not
// transient conditions.
var (
	ErrSetupNotCalled = errors.New("Setup must be called before use")
	ErrLoopNotRunning = errors.New("the render loop must be running when Retrieve is called")
	ErrLoopNotStopped = errors.New("the render loop must be stopped before Cleanup is called")
)

// DuplicateKindError reports a second registration of an already-registered
// kind tag.
type DuplicateKindError struct {
	Tag string
}

func (e *DuplicateKindError) Error() string {
	return fmt.Sprintf("job kind %q already registered", e.Tag)
}

// UnknownKindError reports a record whose explicit kind tag is not
// registered.
type UnknownKindError struct {
	Tag string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown job kind %q", e.Tag)
}

// NoMatchError reports a record without a kind tag that matches no
// registered kind.
type NoMatchError struct {
	Keys []string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("kind is not specified, and no job kind matches keys [%s]", strings.Join(e.Keys, ", "))
}

// AmbiguousKindError reports a record without a kind tag that matches more
// than one registered kind.
type AmbiguousKindError struct {
	Keys []string
	Tags []string
}

func (e *AmbiguousKindError) Error() string {
	return fmt.Sprintf("multiple job kinds match keys [%s]: %s", strings.Join(e.Keys, ", "), strings.Join(e.Tags, ", "))
}

// MissingFieldError reports a required field absent at construction.
type MissingFieldError struct {
	Kind  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field %q missing for job kind %q", e.Field, e.Kind)
}

// ShellError reports a shell command that exited with a non-zero status.
type ShellError struct {
	ExitCode int
}

func (e *ShellError) Error() string {
	return fmt.Sprintf("shell command failed: exit status %d", e.ExitCode)
}

// HTTPError reports a non-2xx, non-304 HTTP response.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d for %s", e.StatusCode, e.URL)
}
