package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadImportSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reqs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"requirements": [
			{"ref": "r1", "title": "Stop", "statement": "The car shall stop.", "priority": 1},
			{"ref": "r2", "parent_ref": "r1", "title": "Fast", "statement": "Within 100 ms.", "status": "review"}
		]
	}`), 0o644))

	schema, err := LoadImportSchema(path)
	require.NoError(t, err)
	require.Len(t, schema.Requirements, 2)
	require.NotNil(t, schema.Requirements[0].Priority)
	assert.Equal(t, 1, *schema.Requirements[0].Priority)
	require.NotNil(t, schema.Requirements[1].ParentRef)
	assert.Equal(t, "r1", *schema.Requirements[1].ParentRef)
	assert.Equal(t, "review", schema.Requirements[1].Status)
}

func TestLoadImportSchema_MissingFile(t *testing.T) {
	_, err := LoadImportSchema(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
