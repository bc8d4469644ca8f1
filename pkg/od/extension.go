package od

import "sync"

// Extension overrides the default byte-copy stream behavior of one
// sub-entry with application-provided read/write functions, plus a
// per-object PDO-mapping flag vector. Modeled as a value installed into a
// parallel registry rather than a field embedded in Entry (Design Notes §9:
// "arena+index style... break cyclic references") so Catalog/Entry stay
// plain, freely-copyable values.
type Extension struct {
	Object   any
	Read     StreamReader
	Write    StreamWriter
	PDOFlags [FlagsPDOSize]uint8
}

type extKey struct {
	index uint16
	sub   uint8
}

// ExtensionRegistry maps (index, sub-index) pairs to an installed Extension.
type ExtensionRegistry struct {
	mu   sync.RWMutex
	exts map[extKey]*Extension
}

func NewExtensionRegistry() *ExtensionRegistry {
	return &ExtensionRegistry{exts: make(map[extKey]*Extension)}
}

func (r *ExtensionRegistry) lookup(index uint16, sub uint8) *Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exts[extKey{index, sub}]
}

// InstallExtension wires read/write/object onto entry's sub-index. It is
// ErrIdxNotExist if entry is nil, ErrParIncompat if the entry was not built
// with Extended=true, and ErrSubNotExist if subIndex is out of range.
func InstallExtension(cat *Catalog, entry *Entry, subIndex uint8, object any, read StreamReader, write StreamWriter) ODR {
	if entry == nil {
		return ErrIdxNotExist
	}
	if !entry.Extended {
		return ErrParIncompat
	}
	if _, odr := entry.GetSub(subIndex); odr != ErrNo {
		return odr
	}

	cat.Registry.mu.Lock()
	defer cat.Registry.mu.Unlock()
	cat.Registry.exts[extKey{entry.Index, subIndex}] = &Extension{Object: object, Read: read, Write: write}
	return ErrNo
}

// PDOFlags returns the installed extension's PDO-mapping flag vector for
// (index, sub), or nil if no extension is installed there.
func (c *Catalog) PDOFlags(index uint16, sub uint8) *[FlagsPDOSize]uint8 {
	ext := c.Registry.lookup(index, sub)
	if ext == nil {
		return nil
	}
	return &ext.PDOFlags
}
