// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import "github.com/relabs-tech/gamepad_fusion/internal/geom"

// CalibrationMode selects how the gyro bias estimate is maintained.
type CalibrationMode int

const (
	// CalibrationManual accumulates bias only while the host has explicitly
	// started calibration (pad known to be at rest, e.g. in a menu).
	CalibrationManual CalibrationMode = iota
	// CalibrationAuto continuously watches for stillness and recalibrates on
	// its own.
	CalibrationAuto
)

func (m CalibrationMode) String() string {
	switch m {
	case CalibrationManual:
		return "manual"
	case CalibrationAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// calibrator is the per-tick contract both strategies share: observe the raw
// sample, optionally update the bias store, report whether a fresh estimate
// was written this tick.
type calibrator interface {
	observe(gyro, accel geom.Vec3, deltaTime float64) bool
}

// manualCalibrator feeds the bias store only while active.
type manualCalibrator struct {
	bias   *BiasStore
	active bool
}

func (m *manualCalibrator) observe(gyro, accel geom.Vec3, _ float64) bool {
	if !m.active {
		return false
	}
	m.bias.Add(gyro, accel.Length())
	return false
}

// autoObserver adapts AutoCalibrator to the calibrator contract.
type autoObserver struct {
	auto *AutoCalibrator
}

func (a *autoObserver) observe(gyro, accel geom.Vec3, deltaTime float64) bool {
	return a.auto.AddSample(gyro, accel, deltaTime)
}

// DefaultGravity is the nominal gravity magnitude (G) used until a
// calibration has measured the sensor's own 1 G.
const DefaultGravity = 1.0

// Processor is the per-tick façade the host drives. It owns the bias store,
// both calibration strategies and the fusion integrator, and caches the last
// calibrated gyro and raw accel for read-back.
//
// A Processor is single-writer state: ticks must be serialized by the caller.
type Processor struct {
	fusion  *Fusion
	bias    BiasStore
	manual  manualCalibrator
	auto    *AutoCalibrator
	autoObs autoObserver
	mode    CalibrationMode

	nominalGravity float64

	gyro     geom.Vec3 // last calibrated gyro, deg/s
	rawAccel geom.Vec3 // last raw accel, G
}

// NewProcessor returns a processor in manual calibration mode with an empty
// bias estimate and identity orientation.
func NewProcessor() *Processor {
	p := &Processor{
		fusion:         NewFusion(),
		mode:           CalibrationManual,
		nominalGravity: DefaultGravity,
	}
	p.manual.bias = &p.bias
	p.auto = NewAutoCalibrator(&p.bias)
	p.autoObs.auto = p.auto
	return p
}

// SetNominalGravity overrides the gravity magnitude assumed before any
// calibration has measured one. Values <= 0 are ignored.
func (p *Processor) SetNominalGravity(g float64) {
	if g > 0 {
		p.nominalGravity = g
	}
}

// ProcessMotion runs one tick: feed the active calibration strategy, subtract
// the current bias estimate from the raw gyro, and integrate. It reports
// whether an auto-recalibration fired so the host can persist the new offset.
//
// Gyro is deg/s, accel is G, deltaTime is seconds since the previous tick.
func (p *Processor) ProcessMotion(gyroX, gyroY, gyroZ, accelX, accelY, accelZ, deltaTime float64) bool {
	gyro := geom.Vec3{X: gyroX, Y: gyroY, Z: gyroZ}
	accel := geom.Vec3{X: accelX, Y: accelY, Z: accelZ}

	recalibrated := p.activeCalibrator().observe(gyro, accel, deltaTime)

	offset, gravityLength := p.bias.Offset()
	if gravityLength <= 0 {
		// Nothing measured yet. Assume nominal gravity so the gravity
		// estimate has a usable magnitude from the first tick.
		gravityLength = p.nominalGravity
	}

	calibrated := gyro.Sub(offset)
	p.fusion.Update(calibrated, accel, gravityLength, deltaTime)

	p.gyro = calibrated
	p.rawAccel = accel
	return recalibrated
}

func (p *Processor) activeCalibrator() calibrator {
	if p.mode == CalibrationAuto {
		return &p.autoObs
	}
	return &p.manual
}

// Reset restores the initial state: identity orientation, empty bias, fresh
// auto-calibrator. The calibration mode and manual start/pause state are
// left alone.
func (p *Processor) Reset() {
	p.bias.Reset()
	p.auto.Reset()
	p.gyro = geom.Vec3{}
	p.rawAccel = geom.Vec3{}
	p.fusion.Reset()
}

// ResetMotion resets only the orientation estimate, keeping calibration.
func (p *Processor) ResetMotion() {
	p.fusion.Reset()
}

// Orientation returns the latest sensor-to-world unit quaternion.
func (p *Processor) Orientation() geom.Quat { return p.fusion.Orientation() }

// Gravity returns the latest gravity estimate (G).
func (p *Processor) Gravity() geom.Vec3 { return p.fusion.Gravity() }

// Acceleration returns the latest gravity-removed acceleration (G).
func (p *Processor) Acceleration() geom.Vec3 { return p.fusion.Acceleration() }

// CalibratedGyro returns the latest bias-corrected gyro sample (deg/s).
func (p *Processor) CalibratedGyro() geom.Vec3 { return p.gyro }

// RawAcceleration returns the accel sample from the latest tick (G).
func (p *Processor) RawAcceleration() geom.Vec3 { return p.rawAccel }

// StartContinuousCalibration begins accumulating manual calibration samples.
func (p *Processor) StartContinuousCalibration() { p.manual.active = true }

// PauseContinuousCalibration stops accumulating without discarding anything.
func (p *Processor) PauseContinuousCalibration() { p.manual.active = false }

// ResetContinuousCalibration discards the accumulated bias estimate.
func (p *Processor) ResetContinuousCalibration() { p.bias.Reset() }

// Calibrating reports whether manual accumulation is currently active.
func (p *Processor) Calibrating() bool { return p.manual.active }

// CalibrationOffset returns the current mean gyro bias (deg/s).
func (p *Processor) CalibrationOffset() geom.Vec3 {
	offset, _ := p.bias.Offset()
	return offset
}

// CalibrationWeight returns the sample count behind the current offset.
func (p *Processor) CalibrationWeight() int { return p.bias.Samples() }

// SetCalibrationOffset seeds the bias estimate, typically from a value saved
// in a previous session, with weight as its equivalent sample count.
func (p *Processor) SetCalibrationOffset(x, y, z float64, weight int) {
	p.bias.Seed(geom.Vec3{X: x, Y: y, Z: z}, weight)
}

// Mode returns the active calibration strategy.
func (p *Processor) Mode() CalibrationMode { return p.mode }

// SetMode switches between manual and auto calibration.
func (p *Processor) SetMode(mode CalibrationMode) { p.mode = mode }
