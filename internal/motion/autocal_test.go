package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gamepad_fusion/internal/geom"
)

// stillSample fakes a resting pad with a constant gyro bias and a little
// sensor noise so the min/max spans are small but nonzero.
func stillSample(i int, bias geom.Vec3) (geom.Vec3, geom.Vec3) {
	jitter := 0.01 * math.Sin(1.7*float64(i))
	gyro := bias.Add(geom.Vec3{X: jitter, Y: jitter, Z: jitter})
	accel := geom.Vec3{X: 0.1 * jitter, Y: 1 + 0.1*jitter, Z: 0.1 * jitter}
	return gyro, accel
}

func TestAutoCalibratorFiresOnStillPad(t *testing.T) {
	var bias BiasStore
	a := NewAutoCalibrator(&bias)

	injected := geom.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	fired := false
	for i := 0; i < 150; i++ {
		gyro, accel := stillSample(i, injected)
		if a.AddSample(gyro, accel, tickRate) {
			fired = true
			break
		}
	}
	require.True(t, fired, "no recalibration within 2.5 s of stillness")

	offset, accelMag := bias.Offset()
	assert.InDelta(t, injected.X, offset.X, 0.02)
	assert.InDelta(t, injected.Y, offset.Y, 0.02)
	assert.InDelta(t, injected.Z, offset.Z, 0.02)
	assert.InDelta(t, 1.0, accelMag, 0.01)
	assert.Equal(t, 1, bias.Samples())
}

func TestAutoCalibratorThresholdDropsOnFire(t *testing.T) {
	var bias BiasStore
	a := NewAutoCalibrator(&bias)

	for i := 0; i < 150; i++ {
		gyro, accel := stillSample(i, geom.Vec3{})
		if a.AddSample(gyro, accel, tickRate) {
			break
		}
	}
	assert.InDelta(t, maxRecalibrateThreshold-recalibrateDrop, a.recalibrateThreshold, 0.02)
}

func TestAutoCalibratorIgnoresMovement(t *testing.T) {
	var bias BiasStore
	a := NewAutoCalibrator(&bias)

	// Establish realistic noise floors with a still stretch first.
	for i := 0; i < 150; i++ {
		gyro, accel := stillSample(i, geom.Vec3{})
		a.AddSample(gyro, accel, tickRate)
	}

	// Then wave the pad around. The spans dwarf the learned floors, so no
	// window may fire and the stored estimate must survive untouched.
	before, _ := bias.Offset()
	for i := 0; i < 180; i++ {
		s := float64(i)
		gyro := geom.Vec3{X: 80 * math.Sin(0.3*s), Y: 40 * math.Cos(0.2*s), Z: 60 * math.Sin(0.5*s)}
		accel := geom.Vec3{X: 0.4 * math.Sin(0.4*s), Y: 1 + 0.3*math.Cos(0.6*s), Z: 0.2 * math.Sin(0.7*s)}
		assert.False(t, a.AddSample(gyro, accel, tickRate), "fired while moving at tick %d", i)
	}
	after, _ := bias.Offset()
	assert.Equal(t, before, after)
}

func TestAutoCalibratorWindowsStayStaggered(t *testing.T) {
	var bias BiasStore
	a := NewAutoCalibrator(&bias)

	// Fresh windows sit exactly half a period apart.
	assert.Equal(t, 0.0, a.windows[0].timeSampled)
	assert.Equal(t, -minAutoWindowTime/2, a.windows[1].timeSampled)

	for i := 0; i < 300; i++ {
		gyro, accel := stillSample(i, geom.Vec3{})
		a.AddSample(gyro, accel, tickRate)
	}

	// At a steady cadence the stagger is preserved across resets.
	gap := math.Abs(a.windows[0].timeSampled - a.windows[1].timeSampled)
	assert.InDelta(t, minAutoWindowTime/2, gap, 2*tickRate)
}

func TestAutoCalibratorReset(t *testing.T) {
	var bias BiasStore
	a := NewAutoCalibrator(&bias)

	for i := 0; i < 150; i++ {
		gyro, accel := stillSample(i, geom.Vec3{X: 1})
		a.AddSample(gyro, accel, tickRate)
	}
	require.Less(t, a.minDeltaGyro.X, 1.0)

	a.Reset()

	assert.Equal(t, initialMinDelta, a.minDeltaGyro.X)
	assert.Equal(t, initialMinDelta, a.minDeltaAccel.Z)
	assert.Equal(t, 1.0, a.recalibrateThreshold)
	assert.Equal(t, 0, a.windows[0].numSamples)
}
