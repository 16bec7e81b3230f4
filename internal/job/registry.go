package job

import (
	"fmt"
	"strings"
)

// Kind is a static descriptor of a job kind: its unique tag, documentation,
// declared field sets, and a factory constructing instances from records.
// Required and optional field names never overlap.
type Kind struct {
	Tag      string
	Doc      string
	Required []string
	Optional []string
	New      func(Record) (Job, error)
}

// matches reports whether a record without an explicit kind tag can only be
// this kind: all required fields are present and no field falls outside the
// declared required+optional set.
func (k Kind) matches(rec Record) bool {
	for _, f := range k.Required {
		if _, ok := rec[f]; !ok {
			return false
		}
	}
	for key := range rec {
		if !contains(k.Required, key) && !contains(k.Optional, key) {
			return false
		}
	}
	return true
}

// Registry maps kind tags to their descriptors. Kinds are reported in
// registration order, which is the stable display order.
type Registry struct {
	kinds map[string]Kind
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]Kind)}
}

// Default returns a registry with all built-in job kinds registered in
// display order.
func Default() *Registry {
	r := NewRegistry()
	for _, k := range []Kind{shellKind, urlKind, browserKind} {
		if err := r.Register(k); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a kind to the registry. Registering a tag twice fails with
// a DuplicateKindError.
func (r *Registry) Register(k Kind) error {
	if _, ok := r.kinds[k.Tag]; ok {
		return &DuplicateKindError{Tag: k.Tag}
	}
	r.kinds[k.Tag] = k
	r.order = append(r.order, k.Tag)
	return nil
}

// Kinds returns all registered kinds in display order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.order))
	for _, tag := range r.order {
		out = append(out, r.kinds[tag])
	}
	return out
}

// Resolve determines the kind of a record. A record with an explicit "kind"
// field resolves to that kind or fails with an UnknownKindError. Without
// one, the kind is auto-detected from the record's keys; zero candidates
// fail with a NoMatchError and several with an AmbiguousKindError, so a
// wrong guess is never made silently.
func (r *Registry) Resolve(rec Record) (Kind, error) {
	if _, ok := rec["kind"]; ok {
		tag := stringField(rec, "kind")
		k, ok := r.kinds[tag]
		if !ok {
			return Kind{}, &UnknownKindError{Tag: tag}
		}
		return k, nil
	}

	var tags []string
	for _, tag := range r.order {
		if r.kinds[tag].matches(rec) {
			tags = append(tags, tag)
		}
	}
	switch len(tags) {
	case 1:
		return r.kinds[tags[0]], nil
	case 0:
		return Kind{}, &NoMatchError{Keys: sortedKeys(rec)}
	default:
		return Kind{}, &AmbiguousKindError{Keys: sortedKeys(rec), Tags: tags}
	}
}

// Unserialize reconstructs a job from a record, auto-detecting the kind if
// the record carries no kind tag.
func (r *Registry) Unserialize(rec Record) (Job, error) {
	k, err := r.Resolve(rec)
	if err != nil {
		return nil, err
	}
	return k.New(rec)
}

// Document renders user-facing schema documentation for every registered
// kind, in display order.
func (r *Registry) Document() string {
	var b strings.Builder
	for _, tag := range r.order {
		k := r.kinds[tag]
		fmt.Fprintf(&b, "  * %s - %s\n", k.Tag, k.Doc)
		fmt.Fprintf(&b, "    Required keys: %s\n", joinFields(k.Required))
		fmt.Fprintf(&b, "    Optional keys: %s\n", joinFields(k.Optional))
		b.WriteString("\n")
	}
	return b.String()
}
