package od

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	entries := []*Entry{
		NewVarEntry(0x1018, "identity", NewSub(0, "vendor", UNSIGNED32, AttributeSdoRw, []byte{1, 0, 0, 0}), false),
		NewVarEntry(0x1001, "error register", NewSub(0, "error register", UNSIGNED8, AttributeSdoR, []byte{0}), false),
		NewVarEntry(0x2000, "manufacturer counter", NewSub(0, "counter", UNSIGNED16, AttributeSdoRw, []byte{0, 0}), true),
	}
	cat, err := Build(entries)
	assert.NoError(t, err)
	return cat
}

func TestFindBinarySearch(t *testing.T) {
	cat := buildTestCatalog(t)

	entry, ok := cat.Find(0x1001)
	assert.True(t, ok)
	assert.Equal(t, "error register", entry.Name)

	entry, ok = cat.Find(0x1018)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x1018), entry.Index)

	_, ok = cat.Find(0x9999)
	assert.False(t, ok)
}

func TestEntriesAreSortedByIndex(t *testing.T) {
	cat := buildTestCatalog(t)
	entries := cat.Entries()
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Index, entries[i].Index)
	}
}

func TestBuildRejectsDuplicateIndices(t *testing.T) {
	entries := []*Entry{
		NewVarEntry(0x2000, "a", NewSub(0, "a", UNSIGNED8, AttributeSdoRw, []byte{0}), false),
		NewVarEntry(0x2000, "b", NewSub(0, "b", UNSIGNED8, AttributeSdoRw, []byte{0}), false),
	}
	_, err := Build(entries)
	assert.Error(t, err)
}

func TestMustFindPanicsOnMissingIndex(t *testing.T) {
	cat := buildTestCatalog(t)
	assert.Panics(t, func() { cat.MustFind(0xBEEF) })
}
