package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ftruzzi/urlwatch/internal/job"
	"github.com/ftruzzi/urlwatch/internal/worker"
)

type namedJob struct {
	name string
}

func (n *namedJob) Kind() string          { return "stub" }
func (n *namedJob) Location() string      { return n.name }
func (n *namedJob) PrettyName() string    { return n.name }
func (n *namedJob) Serialize() job.Record { return job.Record{} }
func (n *namedJob) Retrieve(ctx context.Context, state *job.State) (string, error) {
	return "", nil
}

func TestWrite(t *testing.T) {
	results := []worker.Result{
		{Job: &namedJob{name: "homepage"}, Outcome: worker.OutcomeChanged},
		{Job: &namedJob{name: "uptime"}, Outcome: worker.OutcomeUnchanged},
		{Job: &namedJob{name: "flaky"}, Outcome: worker.OutcomeError, Err: errors.New("boom")},
	}

	var b strings.Builder
	Write(&b, "run-1", results)
	out := b.String()

	for _, want := range []string{
		"run-1",
		"CHANGED   homepage",
		"UNCHANGED uptime",
		"ERROR     flaky: boom",
		"3 jobs: 0 new, 1 changed, 1 unchanged, 1 failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Write() output missing %q\ngot:\n%s", want, out)
		}
	}
}
