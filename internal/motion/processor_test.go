package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gamepad_fusion/internal/geom"
)

func TestProcessorDefaults(t *testing.T) {
	p := NewProcessor()

	assert.Equal(t, CalibrationManual, p.Mode())
	assert.False(t, p.Calibrating())
	assert.Equal(t, geom.Identity(), p.Orientation())
	assert.Equal(t, geom.Vec3{}, p.CalibrationOffset())
	assert.Equal(t, 0, p.CalibrationWeight())
}

func TestProcessorManualCalibrationRemovesBias(t *testing.T) {
	p := NewProcessor()

	// Pad at rest with a constant gyro bias; host runs a manual calibration.
	p.StartContinuousCalibration()
	require.True(t, p.Calibrating())
	for i := 0; i < 60; i++ {
		p.ProcessMotion(1.5, -0.5, 0.25, 0, 1, 0, tickRate)
	}
	p.PauseContinuousCalibration()

	offset := p.CalibrationOffset()
	assert.InDelta(t, 1.5, offset.X, 1e-12)
	assert.InDelta(t, -0.5, offset.Y, 1e-12)
	assert.InDelta(t, 0.25, offset.Z, 1e-12)
	assert.Equal(t, 60, p.CalibrationWeight())

	// With calibration paused the bias is still subtracted every tick.
	p.ProcessMotion(1.5, -0.5, 0.25, 0, 1, 0, tickRate)
	gyro := p.CalibratedGyro()
	assert.InDelta(t, 0.0, gyro.X, 1e-12)
	assert.InDelta(t, 0.0, gyro.Y, 1e-12)
	assert.InDelta(t, 0.0, gyro.Z, 1e-12)
	assert.Equal(t, 60, p.CalibrationWeight())
}

func TestProcessorSetCalibrationOffsetRoundTrip(t *testing.T) {
	p := NewProcessor()
	p.SetCalibrationOffset(1.25, -2.5, 0.5, 10)

	offset := p.CalibrationOffset()
	assert.InDelta(t, 1.25, offset.X, 1e-12)
	assert.InDelta(t, -2.5, offset.Y, 1e-12)
	assert.InDelta(t, 0.5, offset.Z, 1e-12)
	assert.Equal(t, 10, p.CalibrationWeight())
}

func TestProcessorResetContinuousCalibration(t *testing.T) {
	p := NewProcessor()
	p.SetCalibrationOffset(1, 2, 3, 5)

	p.ResetContinuousCalibration()

	assert.Equal(t, geom.Vec3{}, p.CalibrationOffset())
	assert.Equal(t, 0, p.CalibrationWeight())
}

func TestProcessorAutoModeRecalibrates(t *testing.T) {
	p := NewProcessor()
	p.SetMode(CalibrationAuto)

	injected := geom.Vec3{X: 0.8, Y: -0.6, Z: 0.4}
	recalibrated := false
	for i := 0; i < 150; i++ {
		gyro, accel := stillSample(i, injected)
		if p.ProcessMotion(gyro.X, gyro.Y, gyro.Z, accel.X, accel.Y, accel.Z, tickRate) {
			recalibrated = true
		}
	}
	require.True(t, recalibrated, "auto calibration never fired on a still pad")

	offset := p.CalibrationOffset()
	assert.InDelta(t, injected.X, offset.X, 0.02)
	assert.InDelta(t, injected.Y, offset.Y, 0.02)
	assert.InDelta(t, injected.Z, offset.Z, 0.02)

	// After the fire the calibrated gyro is the residual noise only.
	gyro, _ := stillSample(0, injected)
	p.ProcessMotion(gyro.X, gyro.Y, gyro.Z, 0, 1, 0, tickRate)
	assert.InDelta(t, 0.0, p.CalibratedGyro().X, 0.05)
}

func TestProcessorManualModeNeverAutoFires(t *testing.T) {
	p := NewProcessor()

	for i := 0; i < 300; i++ {
		gyro, accel := stillSample(i, geom.Vec3{X: 2})
		assert.False(t, p.ProcessMotion(gyro.X, gyro.Y, gyro.Z, accel.X, accel.Y, accel.Z, tickRate))
	}
	assert.Equal(t, geom.Vec3{}, p.CalibrationOffset())
}

func TestProcessorGravityFallsBackToNominal(t *testing.T) {
	p := NewProcessor()
	p.SetNominalGravity(2)

	// Uncalibrated: gravity magnitude comes from the nominal setting.
	for i := 0; i < 30; i++ {
		p.ProcessMotion(0, 0, 0, 0, 2, 0, tickRate)
	}
	assert.InDelta(t, 2.0, p.Gravity().Length(), 1e-6)
	assert.InDelta(t, 0.0, p.Acceleration().Length(), 1e-6)
}

func TestProcessorResetKeepsMode(t *testing.T) {
	p := NewProcessor()
	p.SetMode(CalibrationAuto)
	p.SetCalibrationOffset(1, 1, 1, 10)
	for i := 0; i < 30; i++ {
		p.ProcessMotion(20, 0, 0, 0, 1, 0, tickRate)
	}

	p.Reset()

	assert.Equal(t, CalibrationAuto, p.Mode())
	assert.Equal(t, geom.Identity(), p.Orientation())
	assert.Equal(t, geom.Vec3{}, p.CalibrationOffset())
	assert.Equal(t, geom.Vec3{}, p.CalibratedGyro())
	assert.Equal(t, geom.Vec3{}, p.RawAcceleration())
}

func TestProcessorResetMotionKeepsCalibration(t *testing.T) {
	p := NewProcessor()
	p.SetCalibrationOffset(0.5, 0, 0, 10)
	for i := 0; i < 30; i++ {
		p.ProcessMotion(40, 0, 0, 0, 1, 0, tickRate)
	}
	require.NotEqual(t, geom.Identity(), p.Orientation())

	p.ResetMotion()

	assert.Equal(t, geom.Identity(), p.Orientation())
	assert.Equal(t, 10, p.CalibrationWeight())
}
