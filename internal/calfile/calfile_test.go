package calfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gamepad_fusion/internal/geom"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration", "pad_calibration.json")
	offset := geom.Vec3{X: 0.5, Y: -0.25, Z: 1.5}

	require.NoError(t, Save(path, offset, 120))

	cal, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, offset, cal.Offset)
	assert.Equal(t, 120, cal.Weight)
	assert.Equal(t, schemaVersion, cal.SchemaVersion)
	assert.False(t, cal.SavedAt.IsZero())
}

func TestSaveOverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pad_calibration.json")

	require.NoError(t, Save(path, geom.Vec3{X: 1}, 10))
	require.NoError(t, Save(path, geom.Vec3{X: 2}, 20))

	cal, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cal.Offset.X)
	assert.Equal(t, 20, cal.Weight)

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadRejectsBadContent(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"garbage.json":     "not json at all",
		"bad_version.json": `{"schema_version": 99, "offset": {"x":0,"y":0,"z":0}, "weight": 5}`,
		"bad_weight.json":  `{"schema_version": 1, "offset": {"x":0,"y":0,"z":0}, "weight": 0}`,
	}
	for name, content := range cases {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := Load(path)
		assert.Error(t, err, "file %s", name)
	}
}
