package od

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstallExtensionRequiresExtendedEntry(t *testing.T) {
	entry := NewVarEntry(0x3000, "plain", NewSub(0, "v", UNSIGNED8, AttributeSdoRw, []byte{0}), false)
	cat, err := Build([]*Entry{entry})
	assert.NoError(t, err)

	odr := InstallExtension(cat, entry, 0, nil, ReadEntryDefault, WriteEntryDefault)
	assert.Equal(t, ErrParIncompat, odr)
}

func TestInstallExtensionRejectsMissingSub(t *testing.T) {
	entry := NewVarEntry(0x3001, "extended", NewSub(0, "v", UNSIGNED8, AttributeSdoRw, []byte{0}), true)
	cat, err := Build([]*Entry{entry})
	assert.NoError(t, err)

	odr := InstallExtension(cat, entry, 5, nil, ReadEntryDefault, WriteEntryDefault)
	assert.Equal(t, ErrSubNotExist, odr)
}

func TestInstalledExtensionOverridesDefaultReadWrite(t *testing.T) {
	entry := NewVarEntry(0x3002, "extended", NewSub(0, "v", UNSIGNED8, AttributeSdoRw, []byte{0}), true)
	cat, err := Build([]*Entry{entry})
	assert.NoError(t, err)

	var seenWrites [][]byte
	fakeRead := func(stream *Stream, read []byte, countRead *uint16) error {
		read[0] = 0x42
		*countRead = 1
		return ErrNo
	}
	fakeWrite := func(stream *Stream, toWrite []byte, countWritten *uint16) error {
		seenWrites = append(seenWrites, append([]byte(nil), toWrite...))
		*countWritten = uint16(len(toWrite))
		return ErrNo
	}

	odr := InstallExtension(cat, entry, 0, "marker", fakeRead, fakeWrite)
	assert.Equal(t, ErrNo, odr)

	value, odr := GetUint8(cat, 0x3002, 0)
	assert.Equal(t, ErrNo, odr)
	assert.Equal(t, uint8(0x42), value)

	odr = SetUint8(cat, 0x3002, 0, 9)
	assert.Equal(t, ErrNo, odr)
	assert.Equal(t, [][]byte{{9}}, seenWrites)

	// origin=true still bypasses the extension and sees raw backing storage.
	streamer, odr := GetSub(cat, 0x3002, 0, true)
	assert.Equal(t, ErrNo, odr)
	assert.Nil(t, streamer.stream.Object)
}
