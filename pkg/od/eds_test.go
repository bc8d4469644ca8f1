package od

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleEDS = `
[1018]
ParameterName=Identity object
ObjectType=0x9
SubNumber=1

[1018sub0]
ParameterName=vendor id
DataType=0x07
AccessType=ro
DefaultValue=42
`

func TestLoadEDSBuildsCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.eds")
	assert.NoError(t, os.WriteFile(path, []byte(sampleEDS), 0o644))

	cat, err := LoadEDS(path)
	assert.NoError(t, err)

	entry, ok := cat.Find(0x1018)
	assert.True(t, ok)
	v, odr := GetUint32(cat, entry.Index, 0)
	assert.Equal(t, ErrNo, odr)
	assert.Equal(t, uint32(42), v)
}

func TestLoadEDSMissingFile(t *testing.T) {
	_, err := LoadEDS("/nonexistent/path.eds")
	assert.Error(t, err)
}
