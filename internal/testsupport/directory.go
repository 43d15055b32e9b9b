package testsupport

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"cheatdb/internal/directory"
)

// StubDirectory is an in-memory directory.Lookup that counts calls per
// queried value. Entries are registered by handle and resolvable by handle,
// by "id<N>", and by the bare id.
type StubDirectory struct {
	mu      sync.Mutex
	entries map[string]directory.Entry
	calls   map[string]int
	err     error
}

var _ directory.Lookup = (*StubDirectory)(nil)

// NewStubDirectory returns a stub holding the given entries.
func NewStubDirectory(entries ...directory.Entry) *StubDirectory {
	d := &StubDirectory{
		entries: make(map[string]directory.Entry),
		calls:   make(map[string]int),
	}
	for _, e := range entries {
		d.Set(e)
	}
	return d
}

// Set registers or replaces an entry. Replacing an entry with a new handle
// models an account renaming itself.
func (d *StubDirectory) Set(e directory.Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, existing := range d.entries {
		if existing.ID == e.ID {
			delete(d.entries, key)
		}
	}
	id := strconv.FormatInt(e.ID, 10)
	d.entries[id] = e
	d.entries["id"+id] = e
	if e.Handle != "" {
		d.entries[e.Handle] = e
	}
}

// Fail makes every following lookup return err; nil restores normal behavior.
func (d *StubDirectory) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Lookup implements directory.Lookup.
func (d *StubDirectory) Lookup(_ context.Context, handleOrID string) (directory.Entry, error) {
	key := strings.ToLower(strings.TrimSpace(handleOrID))
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls[key]++
	if d.err != nil {
		return directory.Entry{}, d.err
	}
	return d.entries[key], nil
}

// Calls returns how many times value was looked up.
func (d *StubDirectory) Calls(value string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[strings.ToLower(value)]
}

// TotalCalls returns the number of lookups of any value.
func (d *StubDirectory) TotalCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := 0
	for _, n := range d.calls {
		total += n
	}
	return total
}
