// Package schema loads a contract's event definitions and exposes them as an
// ordered registry. Registry order is the order events appear in the ABI file
// and is the order used wherever more than one entry could apply.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrUnknownEvent is returned when a requested event name is not in the registry.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrNoEvents is returned when a schema declares no watchable events.
	ErrNoEvents = errors.New("schema has no events")
)

// Field is one typed event argument.
type Field struct {
	Name    string
	Type    string
	Indexed bool
}

// EventSignature describes one watchable event type.
type EventSignature struct {
	Name      string
	Signature string
	Topic     common.Hash
	Fields    []Field
	Event     abi.Event
	Index     int
}

// IndexedCount returns the number of fields carried in topics.
func (s *EventSignature) IndexedCount() int {
	n := 0
	for _, f := range s.Fields {
		if f.Indexed {
			n++
		}
	}
	return n
}

// NewEventSignature builds a registry entry from a parsed ABI event.
func NewEventSignature(event abi.Event) *EventSignature {
	fields := make([]Field, 0, len(event.Inputs))
	for _, input := range event.Inputs {
		fields = append(fields, Field{
			Name:    input.Name,
			Type:    input.Type.String(),
			Indexed: input.Indexed,
		})
	}

	name := event.RawName
	if name == "" {
		name = event.Name
	}

	return &EventSignature{
		Name:      name,
		Signature: event.Sig,
		Topic:     event.ID,
		Fields:    fields,
		Event:     event,
	}
}

// Registry is an immutable, ordered set of event signatures.
type Registry struct {
	entries []*EventSignature
	byTopic map[common.Hash][]*EventSignature
	byName  map[string][]*EventSignature
}

// NewRegistry builds a registry keeping the given order.
func NewRegistry(entries ...*EventSignature) *Registry {
	r := &Registry{
		entries: make([]*EventSignature, 0, len(entries)),
		byTopic: make(map[common.Hash][]*EventSignature),
		byName:  make(map[string][]*EventSignature),
	}
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		entry.Index = len(r.entries)
		r.entries = append(r.entries, entry)
		r.byTopic[entry.Topic] = append(r.byTopic[entry.Topic], entry)
		r.byName[entry.Name] = append(r.byName[entry.Name], entry)
	}
	return r
}

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.entries) }

// Events returns all entries in registry order.
func (r *Registry) Events() []*EventSignature {
	out := make([]*EventSignature, len(r.entries))
	copy(out, r.entries)
	return out
}

// Names returns the distinct event names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	seen := make(map[string]struct{}, len(r.byName))
	for _, entry := range r.entries {
		if _, ok := seen[entry.Name]; ok {
			continue
		}
		seen[entry.Name] = struct{}{}
		names = append(names, entry.Name)
	}
	return names
}

// Lookup returns the first entry with the given name.
func (r *Registry) Lookup(name string) (*EventSignature, bool) {
	entries := r.byName[name]
	if len(entries) == 0 {
		return nil, false
	}
	return entries[0], true
}

// ByTopic returns every entry whose topic hash matches, in registry order.
func (r *Registry) ByTopic(topic common.Hash) []*EventSignature {
	return r.byTopic[topic]
}

// ResolveWatchSet selects the events to observe. No names selects every
// event. Each name selects all entries sharing it (overloads). Names the
// registry does not know are rejected.
func (r *Registry) ResolveWatchSet(names []string) (*WatchSet, error) {
	if len(r.entries) == 0 {
		return nil, ErrNoEvents
	}

	selected := make(map[string]struct{}, len(names))
	var unknown []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := r.byName[name]; !ok {
			unknown = append(unknown, name)
			continue
		}
		selected[name] = struct{}{}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s (known: %s)", ErrUnknownEvent, strings.Join(unknown, ", "), strings.Join(r.Names(), ", "))
	}

	all := len(selected) == 0
	entries := make([]*EventSignature, 0, len(r.entries))
	for _, entry := range r.entries {
		if _, ok := selected[entry.Name]; all || ok {
			entries = append(entries, entry)
		}
	}

	return newWatchSet(entries, all), nil
}
