package job

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
)

var shellKind = Kind{
	Tag:      "shell",
	Doc:      "Run a shell command and get its standard output",
	Required: []string{"command"},
	Optional: metaFields,
}

func init() { shellKind.New = newShellJob }

// ShellJob runs a command through the platform shell and captures its
// standard output.
type ShellJob struct {
	meta
	Command string
}

func newShellJob(rec Record) (Job, error) {
	if err := checkRequired("shell", rec, shellKind.Required); err != nil {
		return nil, err
	}
	j := &ShellJob{Command: stringField(rec, "command")}
	j.fill(rec)
	j.extra = extraFields(rec, append(shellKind.Required, shellKind.Optional...))
	return j, nil
}

func (j *ShellJob) Kind() string { return shellKind.Tag }

// Location returns the command line verbatim.
func (j *ShellJob) Location() string { return j.Command }

func (j *ShellJob) PrettyName() string { return j.pretty(j.Command) }

func (j *ShellJob) Serialize() Record {
	rec := Record{"kind": shellKind.Tag, "command": j.Command}
	j.serializeInto(rec)
	return rec
}

// Retrieve runs the command and returns its standard output. A non-zero
// exit status fails with a ShellError carrying the exit code.
func (j *ShellJob) Retrieve(ctx context.Context, state *State) (string, error) {
	shell, arg := "/bin/sh", "-c"
	if runtime.GOOS == "windows" {
		shell, arg = "cmd", "/c"
	}

	cmd := exec.CommandContext(ctx, shell, arg, j.Command)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ShellError{ExitCode: exitErr.ExitCode()}
		}
		return "", err
	}
	return stdout.String(), nil
}
