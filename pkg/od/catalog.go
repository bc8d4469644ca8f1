package od

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

// Catalog is an immutable, index-sorted table of object dictionary entries,
// grounded on the teacher's map-based ObjectDictionary but reshaped into a
// sorted slice so Find can binary search it (spec.md §3/§8 P1).
type Catalog struct {
	entries   []*Entry
	Registry  *ExtensionRegistry
	persist   map[uint16]bool
}

// Build sorts entries by index and rejects duplicate indices. It does not
// inspect the Extended flag: the returned Catalog owns a fresh, empty
// ExtensionRegistry, into which any Extended entry can later have an
// extension installed.
func Build(entries []*Entry) (*Catalog, error) {
	sorted := make([]*Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Index == sorted[i-1].Index {
			return nil, fmt.Errorf("od: duplicate entry index 0x%04X", sorted[i].Index)
		}
	}

	return &Catalog{
		entries:  sorted,
		Registry: NewExtensionRegistry(),
		persist:  make(map[uint16]bool),
	}, nil
}

// Find looks up an entry by 16-bit index using binary search over the
// sorted table.
func (c *Catalog) Find(index uint16) (*Entry, bool) {
	lo, hi := 0, len(c.entries)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case c.entries[mid].Index == index:
			return c.entries[mid], true
		case c.entries[mid].Index < index:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return nil, false
}

// MustFind panics if index is absent; intended for wiring code (cmd/, tests)
// where a missing entry is a programming error, not a runtime condition.
func (c *Catalog) MustFind(index uint16) *Entry {
	e, ok := c.Find(index)
	if !ok {
		panic(fmt.Sprintf("od: catalog has no entry at 0x%04X", index))
	}
	return e
}

// Entries returns the full sorted entry table. Callers must not mutate the
// returned slice; entry contents are still protected by each Sub's own lock.
func (c *Catalog) Entries() []*Entry {
	return c.entries
}

// SetPersistent tags index as belonging to the persistent (non-volatile)
// storage area, mirroring the teacher's split between the communication
// profile (0x1000 range, persisted) and manufacturer RAM-only entries.
func (c *Catalog) SetPersistent(index uint16, persistent bool) {
	c.persist[index] = persistent
}

// Snapshot concatenates the backing bytes of every sub-entry, in catalog
// order. When persistOnly is true, only entries tagged via SetPersistent
// are included.
func (c *Catalog) Snapshot(persistOnly bool) []byte {
	var out []byte
	for _, e := range c.entries {
		if persistOnly && !c.persist[e.Index] {
			continue
		}
		for _, s := range e.Subs {
			s.mu.RLock()
			out = append(out, s.data...)
			s.mu.RUnlock()
		}
	}
	return out
}
