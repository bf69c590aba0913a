package pad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gamepad_fusion/internal/geom"
)

func TestParseFrame(t *testing.T) {
	sample, ok := parseFrame("1.5,-2.25,0.5,0.01,1.0,-0.02")
	require.True(t, ok)
	assert.Equal(t, geom.Vec3{X: 1.5, Y: -2.25, Z: 0.5}, sample.Gyro)
	assert.Equal(t, geom.Vec3{X: 0.01, Y: 1.0, Z: -0.02}, sample.Accel)
}

func TestParseFrameTrimsFieldWhitespace(t *testing.T) {
	sample, ok := parseFrame("1, 2 ,3,  4,5 ,6")
	require.True(t, ok)
	assert.Equal(t, geom.Vec3{X: 1, Y: 2, Z: 3}, sample.Gyro)
	assert.Equal(t, geom.Vec3{X: 4, Y: 5, Z: 6}, sample.Accel)
}

func TestParseFrameRejectsBadLines(t *testing.T) {
	for _, line := range []string{
		"",
		"1,2,3",
		"1,2,3,4,5,6,7",
		"1,2,three,4,5,6",
		"READY",
	} {
		_, ok := parseFrame(line)
		assert.False(t, ok, "line %q", line)
	}
}

func TestMockSourceLooksLikeRestingPad(t *testing.T) {
	src := NewMockSource()

	sample, err := src.Next()
	require.NoError(t, err)

	// Gravity dominates the accel reading and the gyro stays within a
	// gentle wrist-motion envelope.
	assert.InDelta(t, 1.0, sample.Accel.Length(), 0.1)
	assert.Less(t, sample.Gyro.Length(), 20.0)
}
