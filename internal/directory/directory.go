package directory

import (
	"context"
	"strconv"
)

// Entry is the directory's view of one account. A zero ID means the
// directory does not know the queried value.
type Entry struct {
	ID     int64
	Handle string
	Name   string
	Banned bool
}

// Found reports whether the directory returned a canonical id.
func (e Entry) Found() bool {
	return e.ID > 0
}

// ProfileRef renders the entry as "id<N>" for display.
func (e Entry) ProfileRef() string {
	if e.ID <= 0 {
		return ""
	}
	return "id" + strconv.FormatInt(e.ID, 10)
}

// Lookup resolves a handle or numeric id to its current directory entry.
// An unknown value yields a zero Entry and a nil error; errors are reserved
// for transport and API failures.
type Lookup interface {
	Lookup(ctx context.Context, handleOrID string) (Entry, error)
}
