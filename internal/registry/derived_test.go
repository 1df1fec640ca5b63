package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "derived.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDerivedDefinitions(t *testing.T) {
	path := writeTempYAML(t, `
derived:
  - code: pct_anc4
    numerator: anc4
    denominator: anc1
  - code: pct_penta3
    numerator: penta3
    denominator: penta1
`)

	defs, err := LoadDerivedDefinitions(path)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "pct_anc4", defs[0].Code)
	assert.Equal(t, "anc4", defs[0].NumeratorID)
	assert.Equal(t, "anc1", defs[0].DenominatorID)
}

func TestLoadDerivedDefinitions_EmptyPath(t *testing.T) {
	defs, err := LoadDerivedDefinitions("")
	assert.NoError(t, err)
	assert.Nil(t, defs)
}

func TestLoadDerivedDefinitions_Incomplete(t *testing.T) {
	path := writeTempYAML(t, `
derived:
  - code: pct_anc4
    numerator: anc4
`)

	_, err := LoadDerivedDefinitions(path)
	assert.Error(t, err)
}

func TestLoadDerivedDefinitions_DuplicateCode(t *testing.T) {
	path := writeTempYAML(t, `
derived:
  - code: pct_anc4
    numerator: anc4
    denominator: anc1
  - code: pct_anc4
    numerator: anc8
    denominator: anc1
`)

	_, err := LoadDerivedDefinitions(path)
	assert.Error(t, err)
}

func TestLoadDerivedDefinitions_BadYAML(t *testing.T) {
	path := writeTempYAML(t, `derived: [`)

	_, err := LoadDerivedDefinitions(path)
	assert.Error(t, err)
}
