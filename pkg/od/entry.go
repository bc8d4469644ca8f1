package od

import "sync"

// Sub is a single addressable sub-index of an object dictionary entry. It
// owns its backing storage and the lock that guards it, grounded on the
// teacher's Variable.mu / Stream.mu pattern.
type Sub struct {
	SubIndex  uint8
	Name      string
	DataType  uint8
	Attribute uint8
	LowLimit  []byte
	HighLimit []byte

	mu   sync.RWMutex
	data []byte
}

// NewSub builds a Sub with a copy of initial as its starting value. The
// backing slice's length fixes DataLength for every stream opened on it.
func NewSub(subIndex uint8, name string, dataType, attribute uint8, initial []byte) *Sub {
	data := make([]byte, len(initial))
	copy(data, initial)
	return &Sub{SubIndex: subIndex, Name: name, DataType: dataType, Attribute: attribute, data: data}
}

// Entry is one object dictionary index: a Var (single sub-index 0), or an
// Array/Record (sub-index 0 holds the highest sub-index in use, followed by
// the data elements). Extended marks the entry as accepting an extension;
// InstallExtension refuses entries without it.
type Entry struct {
	Index    uint16
	Name     string
	Kind     EntryKind
	Extended bool
	Subs     []*Sub
}

// NewVarEntry builds a single-value (Var) entry.
func NewVarEntry(index uint16, name string, sub *Sub, extended bool) *Entry {
	sub.SubIndex = 0
	return &Entry{Index: index, Name: name, Kind: KindVar, Extended: extended, Subs: []*Sub{sub}}
}

// NewArrayEntry builds an Array entry: subIndex 0 reports len(elements) and
// is itself an UNSIGNED8; elements are appended starting at sub-index 1.
func NewArrayEntry(index uint16, name string, elements []*Sub, extended bool) *Entry {
	count := NewSub(0, "highest sub-index supported", UNSIGNED8, AttributeSdoR, []byte{byte(len(elements))})
	subs := make([]*Sub, 0, len(elements)+1)
	subs = append(subs, count)
	for i, el := range elements {
		el.SubIndex = uint8(i + 1)
		subs = append(subs, el)
	}
	return &Entry{Index: index, Name: name, Kind: KindArray, Extended: extended, Subs: subs}
}

// NewRecordEntry builds a Record entry from explicitly sub-indexed fields;
// subIndex 0 (the "highest sub-index supported" field) must be included.
func NewRecordEntry(index uint16, name string, subs []*Sub, extended bool) *Entry {
	return &Entry{Index: index, Name: name, Kind: KindRecord, Extended: extended, Subs: subs}
}

// RawBytes returns the Sub's live backing slice without copying or
// locking. It exists for collaborators (like pkg/emergency) that need to
// alias a sub-entry's storage directly instead of going through streamed
// reads, and are responsible for their own synchronization via GetLocked/
// SetLocked below.
func (s *Sub) RawBytes() []byte {
	return s.data
}

// GetLocked returns a copy of the Sub's current value under its RWMutex.
func (s *Sub) GetLocked() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

// SetLocked overwrites the Sub's value under its RWMutex. value must match
// the existing backing length.
func (s *Sub) SetLocked(value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.data, value)
}

// GetSub finds the sub-entry for subIndex, or ErrSubNotExist.
func (e *Entry) GetSub(subIndex uint8) (*Sub, ODR) {
	for _, s := range e.Subs {
		if s.SubIndex == subIndex {
			return s, ErrNo
		}
	}
	return nil, ErrSubNotExist
}

// SubCount returns the number of sub-entries, including sub-index 0.
func (e *Entry) SubCount() int {
	return len(e.Subs)
}
