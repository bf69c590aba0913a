// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package motion fuses calibrated gyro and raw accelerometer samples into a
// stable orientation estimate, splits gravity from true linear acceleration,
// and tracks gyro zero-rate bias both manually and automatically.
//
// The coordinate system is Y-up, following the convention of PlayStation
// class controller sensors. Gyro input is degrees per second, accelerometer
// input is G units (1 G ≈ 9.8 m/s²).
//
// Everything here runs once per input poll on the host's tick. No locking,
// no allocation past construction, no error paths: every numeric degeneracy
// resolves to a defined fallback so a frame can never stall.
package motion

import (
	"math"

	"github.com/relabs-tech/gamepad_fusion/internal/geom"
)

const (
	// gravSampleCount is how many recent world-frame accel samples the
	// steadiness test looks at.
	gravSampleCount = 10

	// steadyGravityThreshold is the per-axis bounding-box extent (G) under
	// which the recent accel history is treated as gravity-only.
	steadyGravityThreshold = 0.05

	// easeInTime ramps the gravity correction up over the first moments of
	// stillness so alignment never snaps visibly.
	easeInTime = 0.25

	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// Fusion is the gravity-convergence integrator. It owns the orientation
// quaternion and the gravity / linear-acceleration split derived from it.
type Fusion struct {
	orientation geom.Quat
	accel       geom.Vec3 // latest linear acceleration, gravity removed
	grav        geom.Vec3 // latest gravity estimate

	gravSamples    *vecRing
	timeCorrecting float64
}

// NewFusion returns an integrator at identity orientation.
func NewFusion() *Fusion {
	f := &Fusion{gravSamples: newVecRing(gravSampleCount)}
	f.Reset()
	return f
}

// Reset snaps the orientation back to identity and clears the accel history.
func (f *Fusion) Reset() {
	f.orientation = geom.Identity()
	f.accel = geom.Vec3{}
	f.grav = geom.Vec3{}
	f.gravSamples.Reset()
	f.timeCorrecting = 0
}

// Orientation returns the current sensor-to-world unit quaternion.
func (f *Fusion) Orientation() geom.Quat { return f.orientation }

// Gravity returns the current gravity estimate in G units.
func (f *Fusion) Gravity() geom.Vec3 { return f.grav }

// Acceleration returns the latest accel reading with gravity removed.
func (f *Fusion) Acceleration() geom.Vec3 { return f.accel }

// Update advances the orientation by one tick. gyro must already be bias
// corrected (deg/s), accel is the raw reading (G), gravityLength is the
// expected magnitude of gravity on this sensor (G) and deltaTime the seconds
// since the previous tick.
func (f *Fusion) Update(gyro, accel geom.Vec3, gravityLength, deltaTime float64) {
	angle := gyro.Length() * degToRad * deltaTime

	// Local rotation, so the increment composes on the right.
	rotation := geom.AngleAxis(angle, gyro.X, gyro.Y, gyro.Z)
	f.orientation = f.orientation.Mul(rotation)

	accelMagnitude := accel.Length()
	if accelMagnitude > 0 {
		// Steadiness is judged on world-frame samples so a slow tumble
		// with constant local accel still reads as motion.
		worldAccel := accel.Rotate(f.orientation)
		f.gravSamples.Push(worldAccel)

		gravityMin := worldAccel
		gravityMax := worldAccel
		f.gravSamples.Do(func(s geom.Vec3) {
			gravityMin.X = math.Min(gravityMin.X, s.X)
			gravityMin.Y = math.Min(gravityMin.Y, s.Y)
			gravityMin.Z = math.Min(gravityMin.Z, s.Z)
			gravityMax.X = math.Max(gravityMax.X, s.X)
			gravityMax.Y = math.Max(gravityMax.Y, s.Y)
			gravityMax.Z = math.Max(gravityMax.Z, s.Z)
		})
		boxSize := gravityMax.Sub(gravityMin)

		if boxSize.X <= steadyGravityThreshold &&
			boxSize.Y <= steadyGravityThreshold &&
			boxSize.Z <= steadyGravityThreshold {
			f.correctToward(gravityMin.Add(boxSize.Scale(0.5)), deltaTime)
		} else {
			f.timeCorrecting = 0
		}

		// Recompute gravity from the quaternion every tick whether or not a
		// correction was applied: the quaternion's gravity is smooth where
		// the raw accel may be shaky.
		f.grav = geom.Vec3{Y: -gravityLength}.Rotate(f.orientation.Inverse())
		f.accel = accel.Add(f.grav)
	} else {
		f.timeCorrecting = 0
		f.accel = geom.Vec3{}
	}

	f.orientation = f.orientation.Normalized()
}

// correctToward nudges the orientation so its implied "down" converges on the
// observed gravity direction. boxCenter is the center of the recent
// world-frame accel bounding box.
func (f *Fusion) correctToward(boxCenter geom.Vec3, deltaTime float64) {
	worldDown := geom.Vec3{Y: -1}
	gravityDirection := boxCenter.Normalized().Neg()
	errorAngle := math.Acos(worldDown.Dot(gravityDirection)) * radToDeg

	// Rotation axis that carries the observed gravity direction onto world
	// down. Degenerates to zero when they are parallel or anti-parallel, in
	// which case AngleAxis yields the identity and no correction happens.
	axis := gravityDirection.Cross(worldDown).Normalized()

	if errorAngle > 0 {
		f.timeCorrecting += deltaTime

		// Frame-rate independent exponential approach: the same fraction of
		// the remaining error is removed per unit time regardless of tick
		// rate.
		correction := errorAngle * (1 - math.Exp2(-deltaTime*4))
		if f.timeCorrecting < easeInTime {
			correction *= f.timeCorrecting / easeInTime
		}

		// Global correction, so it composes on the left.
		f.orientation = geom.AngleAxis(correction*degToRad, axis.X, axis.Y, axis.Z).Mul(f.orientation)
	} else {
		f.timeCorrecting = 0
	}
}
