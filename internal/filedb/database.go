package filedb

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// Entry is one stored credential.
type Entry struct {
	Service  string    `json:"service"`
	UserName string    `json:"user,omitempty"`
	Password []byte    `json:"password,omitempty"`
	Updated  time.Time `json:"updated"`
}

type entryKey struct {
	service string
	user    string
}

// Database is the decrypted, in-memory form of a database file. It is safe
// for concurrent use.
type Database struct {
	mu      sync.RWMutex
	entries map[entryKey]Entry
	dirty   bool
}

// New returns an empty database.
func New() *Database {
	return &Database{entries: make(map[entryKey]Entry)}
}

// Find returns the entry for service and user. An empty user matches the
// entry stored without a user name first, then the first entry of the
// service ordered by user name.
func (d *Database) Find(service, user string) (Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if e, ok := d.entries[entryKey{service, user}]; ok {
		return cloneEntry(e), true
	}
	if user != "" {
		return Entry{}, false
	}
	var found *Entry
	for k, e := range d.entries {
		if k.service != service {
			continue
		}
		if found == nil || strings.Compare(e.UserName, found.UserName) < 0 {
			found = &e
		}
	}
	if found == nil {
		return Entry{}, false
	}
	return cloneEntry(*found), true
}

// Put inserts or replaces the entry keyed by its service and user name.
func (d *Database) Put(e Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e.Updated.IsZero() {
		e.Updated = time.Now().UTC()
	}
	d.entries[entryKey{e.Service, e.UserName}] = cloneEntry(e)
	d.dirty = true
}

// Remove deletes the entry and reports whether it existed.
func (d *Database) Remove(service, user string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := entryKey{service, user}
	if _, ok := d.entries[k]; !ok {
		return false
	}
	delete(d.entries, k)
	d.dirty = true
	return true
}

// Clear removes all entries.
func (d *Database) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.entries) == 0 {
		return
	}
	d.entries = make(map[entryKey]Entry)
	d.dirty = true
}

// Entries returns a copy of all entries sorted by service, then user.
func (d *Database) Entries() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Entry, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, cloneEntry(e))
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if c := strings.Compare(a.Service, b.Service); c != 0 {
			return c
		}
		return strings.Compare(a.UserName, b.UserName)
	})
	return out
}

func (d *Database) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// IsDirty reports whether the database changed since it was loaded or saved.
func (d *Database) IsDirty() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dirty
}

// MarkDirty forces the next save to write, e.g. after a re-key.
func (d *Database) MarkDirty() {
	d.mu.Lock()
	d.dirty = true
	d.mu.Unlock()
}

func (d *Database) markClean() {
	d.mu.Lock()
	d.dirty = false
	d.mu.Unlock()
}

func cloneEntry(e Entry) Entry {
	e.Password = slices.Clone(e.Password)
	return e
}
