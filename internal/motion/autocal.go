// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import "github.com/relabs-tech/gamepad_fusion/internal/geom"

const (
	// A window may fire once it spans at least this many samples and this
	// much sampled time.
	minAutoWindowSamples = 5
	minAutoWindowTime    = 1.0

	numWindows = 2

	// Floors relax upward at minClimbRate per second so one lucky low-noise
	// window cannot lock them down forever.
	minClimbRate = 0.5

	// The recalibrate threshold climbs while quiet and drops on every fire,
	// damping immediate re-triggering.
	recalibrateClimbRate    = 0.5
	maxRecalibrateThreshold = 1.5
	recalibrateDrop         = 0.25

	// Initial per-axis floor. Deliberately far above any plausible still
	// span; the first mature window pulls it down to reality.
	initialMinDelta = 10.0
)

// minMaxWindow tracks per-axis extremes of gyro and accel over one sampling
// window. TimeSampled may start negative: the two windows are phase staggered
// by half the window period so one is always close to mature.
type minMaxWindow struct {
	minGyro  geom.Vec3
	maxGyro  geom.Vec3
	minAccel geom.Vec3
	maxAccel geom.Vec3

	numSamples  int
	timeSampled float64
}

func (w *minMaxWindow) reset(remainder float64) {
	w.numSamples = 0
	w.timeSampled = remainder
}

func (w *minMaxWindow) addSample(gyro, accel geom.Vec3, deltaTime float64) {
	if w.numSamples == 0 {
		w.minGyro, w.maxGyro = gyro, gyro
		w.minAccel, w.maxAccel = accel, accel
		w.numSamples = 1
		w.timeSampled += deltaTime
		return
	}

	w.minGyro = vecMin(w.minGyro, gyro)
	w.maxGyro = vecMax(w.maxGyro, gyro)
	w.minAccel = vecMin(w.minAccel, accel)
	w.maxAccel = vecMax(w.maxAccel, accel)

	w.numSamples++
	w.timeSampled += deltaTime
}

// medianGyro is the midpoint of the per-axis gyro range, the bias estimate a
// firing window produces.
func (w *minMaxWindow) medianGyro() geom.Vec3 {
	return w.maxGyro.Add(w.minGyro).Scale(0.5)
}

func vecMin(a, b geom.Vec3) geom.Vec3 {
	return geom.Vec3{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)}
}

func vecMax(a, b geom.Vec3) geom.Vec3 {
	return geom.Vec3{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)}
}

// AutoCalibrator watches the raw gyro/accel stream for stretches where the
// pad is demonstrably still and writes a fresh bias estimate into the shared
// BiasStore when it finds one.
//
// Stillness is judged against six adaptive floors: the smallest per-axis span
// ever seen in a mature window, slowly relaxed upward over time. The floors
// adapt to the individual sensor, so the detector keeps working across units
// with very different noise profiles and across slow environmental drift.
type AutoCalibrator struct {
	windows [numWindows]minMaxWindow

	minDeltaGyro  geom.Vec3
	minDeltaAccel geom.Vec3

	recalibrateThreshold float64

	bias *BiasStore
}

// NewAutoCalibrator hands the calibrator its output store. The calibrator
// writes through the handle but never owns the store; the processor does.
func NewAutoCalibrator(bias *BiasStore) *AutoCalibrator {
	a := &AutoCalibrator{bias: bias}
	a.Reset()
	return a
}

// Reset restores the just-constructed state: floors wide open, threshold at
// its minimum, windows staggered by half the window period.
func (a *AutoCalibrator) Reset() {
	a.minDeltaGyro = geom.Vec3{X: initialMinDelta, Y: initialMinDelta, Z: initialMinDelta}
	a.minDeltaAccel = geom.Vec3{X: initialMinDelta, Y: initialMinDelta, Z: initialMinDelta}
	a.recalibrateThreshold = 1
	for i := range a.windows {
		a.windows[i].reset(minAutoWindowTime * (-float64(i) / numWindows))
	}
}

// AddSample feeds one raw tick into both windows and reports whether a
// recalibration fired. On fire the bias store holds the window median as a
// fresh weight-1 estimate.
func (a *AutoCalibrator) AddSample(gyro, accel geom.Vec3, deltaTime float64) bool {
	calibrated := false

	climb := minClimbRate * deltaTime
	a.minDeltaGyro = a.minDeltaGyro.Add(geom.Vec3{X: climb, Y: climb, Z: climb})
	a.minDeltaAccel = a.minDeltaAccel.Add(geom.Vec3{X: climb, Y: climb, Z: climb})

	a.recalibrateThreshold += recalibrateClimbRate * deltaTime
	if a.recalibrateThreshold > maxRecalibrateThreshold {
		a.recalibrateThreshold = maxRecalibrateThreshold
	}

	for i := range a.windows {
		w := &a.windows[i]
		other := &a.windows[(i+numWindows-1)%numWindows]
		w.addSample(gyro, accel, deltaTime)
		if w.numSamples < minAutoWindowSamples || w.timeSampled < minAutoWindowTime {
			continue
		}

		gyroDelta := w.maxGyro.Sub(w.minGyro)
		accelDelta := w.maxAccel.Sub(w.minAccel)

		a.minDeltaGyro = vecMin(a.minDeltaGyro, gyroDelta)
		a.minDeltaAccel = vecMin(a.minDeltaAccel, accelDelta)

		// The gyro X span is compared against all six thresholds. Looser
		// than per-axis gating; kept as-is pending product-owner review
		// since changing it shifts when recalibration fires on real pads.
		if gyroDelta.X < a.minDeltaGyro.X*a.recalibrateThreshold &&
			gyroDelta.X < a.minDeltaGyro.Y*a.recalibrateThreshold &&
			gyroDelta.X < a.minDeltaGyro.Z*a.recalibrateThreshold &&
			accelDelta.X < a.minDeltaAccel.X*a.recalibrateThreshold &&
			accelDelta.X < a.minDeltaAccel.Y*a.recalibrateThreshold &&
			accelDelta.X < a.minDeltaAccel.Z*a.recalibrateThreshold {

			a.recalibrateThreshold -= recalibrateDrop
			if a.recalibrateThreshold < 1 {
				a.recalibrateThreshold = 1
			}

			if a.bias != nil {
				accelMagnitude := w.maxAccel.Add(w.minAccel).Length() * 0.5
				a.bias.setEstimate(w.medianGyro(), accelMagnitude)
				calibrated = true
			}
		}

		// Re-stagger against the other window so the two stay exactly half
		// a period apart at any steady cadence.
		if other.timeSampled+deltaTime >= minAutoWindowTime {
			w.reset(minAutoWindowTime / numWindows)
		} else {
			w.reset(other.timeSampled - minAutoWindowTime/numWindows)
		}
	}

	return calibrated
}
