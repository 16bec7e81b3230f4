package job

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Version is the program version, reported in the HTTP user agent.
const Version = "2.9"

// Record is a serialized job entry: plain string keys mapped to scalar
// values, optionally containing a "kind" field naming the job kind.
type Record map[string]any

// State is the per-cycle cache bridge between a job and the snapshot store.
// The driver fills it from the previous snapshot before Retrieve; a job may
// overwrite ETag during Retrieve. Jobs never own or persist this state.
type State struct {
	ETag      string
	Timestamp time.Time
}

// Job is the contract every job kind implements.
type Job interface {
	// Kind returns the kind tag ("shell", "url", "browser").
	Kind() string
	// Location uniquely identifies what the job fetches.
	Location() string
	// PrettyName returns the configured name, or the location if unset.
	PrettyName() string
	// Retrieve fetches the job's content. It returns the content or an
	// error, never both; ErrNotModified signals unchanged content.
	Retrieve(ctx context.Context, state *State) (string, error)
	// Serialize renders the job as a record including its kind tag and
	// every populated declared field.
	Serialize() Record
}

// GUID returns the job's stable cross-run identifier: the SHA-1 hex digest
// of its UTF-8 encoded location.
func GUID(j Job) string {
	sum := sha1.Sum([]byte(j.Location()))
	return hex.EncodeToString(sum[:])
}

// metaFields are the optional keys shared by every job kind.
var metaFields = []string{"name", "filter", "max_tries", "diff_tool"}

// meta holds the optional fields common to all kinds. Zero values mean the
// field is absent; absent fields are omitted from serialization.
type meta struct {
	Name     string
	Filter   string
	MaxTries int
	DiffTool string

	// extra holds fields outside the kind's declared set. They are kept
	// for forward compatibility but never serialized.
	extra map[string]any
}

func (m *meta) fill(rec Record) {
	m.Name = stringField(rec, "name")
	m.Filter = stringField(rec, "filter")
	m.MaxTries = intField(rec, "max_tries")
	m.DiffTool = stringField(rec, "diff_tool")
}

func (m *meta) serializeInto(rec Record) {
	if m.Name != "" {
		rec["name"] = m.Name
	}
	if m.Filter != "" {
		rec["filter"] = m.Filter
	}
	if m.MaxTries != 0 {
		rec["max_tries"] = m.MaxTries
	}
	if m.DiffTool != "" {
		rec["diff_tool"] = m.DiffTool
	}
}

func (m *meta) pretty(location string) string {
	if m.Name != "" {
		return m.Name
	}
	return location
}

// checkRequired fails with a MissingFieldError for the first required field
// not present in the record.
func checkRequired(kind string, rec Record, required []string) error {
	for _, f := range required {
		if _, ok := rec[f]; !ok {
			return &MissingFieldError{Kind: kind, Field: f}
		}
	}
	return nil
}

// extraFields collects record fields outside the declared set. The "kind"
// tag itself is not a field.
func extraFields(rec Record, declared []string) map[string]any {
	var extra map[string]any
	for k, v := range rec {
		if k == "kind" || contains(declared, k) {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra
}

func contains(fields []string, key string) bool {
	for _, f := range fields {
		if f == key {
			return true
		}
	}
	return false
}

func stringField(rec Record, key string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func boolField(rec Record, key string) bool {
	v, _ := rec[key].(bool)
	return v
}

func intField(rec Record, key string) int {
	switch v := rec[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// stringMapField reads a nested map field, as produced by the YAML decoder.
func stringMapField(rec Record, key string) map[string]string {
	raw, ok := rec[key].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k := range raw {
		out[k] = stringField(raw, k)
	}
	return out
}

func sortedKeys(rec Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinFields(fields []string) string {
	return strings.Join(fields, ", ")
}
