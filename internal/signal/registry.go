package signal

import (
	"fmt"

	"github.com/sigexhq/sigex-cli/internal/content"
)

// Registry is the process-wide table of signal types. It is built once at
// startup and read-only afterwards: construct it in main, pass it by
// reference to everything that needs lookups. Multiple signal types may
// share an index class but never share index instances.
type Registry struct {
	byName  map[string]*Type
	ordered []*Type
}

// NewRegistry builds a registry holding the built-in signal types plus any
// caller extensions. Duplicate names fail.
func NewRegistry(extra ...*Type) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Type)}
	builtins := []*Type{
		newPDQType(),
		newVideoMD5Type(),
		newURLType(),
		newURLMD5Type(),
		newRawTextType(),
		newTextTLSHType(),
	}
	for _, t := range append(builtins, extra...) {
		if err := r.register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(t *Type) error {
	if t.Name == "" {
		return fmt.Errorf("signal type with empty name")
	}
	if _, dup := r.byName[t.Name]; dup {
		return fmt.Errorf("duplicate signal type %q", t.Name)
	}
	r.byName[t.Name] = t
	r.ordered = append(r.ordered, t)
	return nil
}

// ByName resolves a signal type name. A miss is surfaced as
// ErrUnknownSignalType, never silently defaulted.
func (r *Registry) ByName(name string) (*Type, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignalType, name)
	}
	return t, nil
}

// All returns every registered signal type in registration order.
func (r *Registry) All() []*Type {
	out := make([]*Type, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// ForContentType returns the signal types applicable to a content kind.
func (r *Registry) ForContentType(ct content.Type) []*Type {
	var out []*Type
	for _, t := range r.ordered {
		if t.AppliesTo(ct) {
			out = append(out, t)
		}
	}
	return out
}

// ForIndicator returns the signal types that consume the given exchange API
// indicator type.
func (r *Registry) ForIndicator(indicator string) []*Type {
	var out []*Type
	for _, t := range r.ordered {
		if t.MatchesIndicator(indicator) {
			out = append(out, t)
		}
	}
	return out
}
