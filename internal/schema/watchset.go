package schema

// WatchSet is the immutable, ordered set of events being observed.
type WatchSet struct {
	entries []*EventSignature
	names   map[string]struct{}
	all     bool
}

func newWatchSet(entries []*EventSignature, all bool) *WatchSet {
	names := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		names[entry.Name] = struct{}{}
	}
	return &WatchSet{entries: entries, names: names, all: all}
}

// Events returns the watched entries in registry order.
func (w *WatchSet) Events() []*EventSignature {
	out := make([]*EventSignature, len(w.entries))
	copy(out, w.entries)
	return out
}

// Contains reports whether the named event is watched.
func (w *WatchSet) Contains(name string) bool {
	if w == nil {
		return false
	}
	_, ok := w.names[name]
	return ok
}

// Names returns the watched names in registry order.
func (w *WatchSet) Names() []string {
	names := make([]string, 0, len(w.names))
	seen := make(map[string]struct{}, len(w.names))
	for _, entry := range w.entries {
		if _, ok := seen[entry.Name]; ok {
			continue
		}
		seen[entry.Name] = struct{}{}
		names = append(names, entry.Name)
	}
	return names
}

// All reports whether the set was resolved from an empty selection.
func (w *WatchSet) All() bool { return w.all }

// Len returns the number of watched entries.
func (w *WatchSet) Len() int { return len(w.entries) }
