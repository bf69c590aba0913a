// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import "github.com/relabs-tech/gamepad_fusion/internal/geom"

// BiasStore accumulates gyro samples taken while the pad is held still and
// exposes their running mean as the zero-rate bias estimate. The accel
// magnitude is accumulated alongside so the fusion step knows what "1 G"
// looks like on this particular sensor.
//
// The store is shared between the processor (manual calibration pushes) and
// the auto-calibrator (which overwrites it with fresh single-sample
// estimates). It is plain single-writer state like everything else on the
// tick path.
type BiasStore struct {
	sum      geom.Vec3
	accelMag float64
	samples  int
}

// Add accumulates one raw gyro sample and the matching accel magnitude.
func (b *BiasStore) Add(gyro geom.Vec3, accelMagnitude float64) {
	b.sum = b.sum.Add(gyro)
	b.accelMag += accelMagnitude
	b.samples++
}

// Offset returns the mean gyro bias and mean accel magnitude. With no
// samples both are zero; there is never an error to report here.
func (b *BiasStore) Offset() (geom.Vec3, float64) {
	if b.samples <= 0 {
		return geom.Vec3{}, 0
	}
	inv := 1 / float64(b.samples)
	return b.sum.Scale(inv), b.accelMag * inv
}

// Samples returns the current sample count (the estimate's weight).
func (b *BiasStore) Samples() int {
	return b.samples
}

// Seed installs an externally supplied bias with an equivalent sample count,
// so a calibration saved in a previous session is restored with its original
// confidence instead of counting as a single raw sample. An existing mean
// accel magnitude is kept by rescaling it to the new weight.
func (b *BiasStore) Seed(offset geom.Vec3, weight int) {
	if b.samples > 1 {
		b.accelMag *= float64(weight) / float64(b.samples)
	} else {
		b.accelMag = float64(weight)
	}
	b.samples = weight
	b.sum = offset.Scale(float64(weight))
}

// setEstimate replaces the store with a fresh single-sample estimate. Used by
// the auto-calibrator when a steady window fires.
func (b *BiasStore) setEstimate(bias geom.Vec3, accelMagnitude float64) {
	b.sum = bias
	b.accelMag = accelMagnitude
	b.samples = 1
}

// Reset clears the store back to the empty, zero-offset state.
func (b *BiasStore) Reset() {
	*b = BiasStore{}
}
