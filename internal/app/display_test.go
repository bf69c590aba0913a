package app

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/gamepad_fusion/internal/geom"
)

func TestEulerAnglesIdentity(t *testing.T) {
	roll, pitch, yaw := eulerAngles(geom.Identity())
	assert.InDelta(t, 0.0, roll, 1e-9)
	assert.InDelta(t, 0.0, pitch, 1e-9)
	assert.InDelta(t, 0.0, yaw, 1e-9)
}

func TestEulerAnglesSingleAxis(t *testing.T) {
	roll, _, _ := eulerAngles(geom.AngleAxis(30*math.Pi/180, 1, 0, 0))
	assert.InDelta(t, 30.0, roll, 1e-6)

	_, pitch, _ := eulerAngles(geom.AngleAxis(45*math.Pi/180, 0, 1, 0))
	assert.InDelta(t, 45.0, pitch, 1e-6)

	_, _, yaw := eulerAngles(geom.AngleAxis(-60*math.Pi/180, 0, 0, 1))
	assert.InDelta(t, -60.0, yaw, 1e-6)
}

func TestEulerAnglesClampsGimbalLock(t *testing.T) {
	// Straight-up pitch sits exactly on the asin domain edge; rounding must
	// not produce NaN.
	q := geom.AngleAxis(math.Pi/2, 0, 1, 0)
	_, pitch, _ := eulerAngles(q)
	assert.False(t, math.IsNaN(pitch))
	assert.InDelta(t, 90.0, pitch, 1e-6)
}
