// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geom

import "math"

// Quat is a rotation quaternion in (w, x, y, z) order. The motion code keeps
// its quaternions within a few eps of unit length by renormalizing once per
// tick.
type Quat struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Identity is the no-rotation quaternion.
func Identity() Quat {
	return Quat{W: 1}
}

// AngleAxis builds a rotation of angle radians around the given axis. The
// axis does not need to be unit length; Normalized scales the vector part to
// match the half-angle cosine in w. A zero axis or zero angle yields the
// identity.
func AngleAxis(angle float64, x, y, z float64) Quat {
	q := Quat{W: math.Cos(angle * 0.5), X: x, Y: y, Z: z}
	return q.Normalized()
}

// Mul returns the Hamilton product q * r.
func (q Quat) Mul(r Quat) Quat {
	return Quat{
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
	}
}

// Inverse returns the conjugate. For unit quaternions the conjugate is the
// true inverse, and the motion code only ever inverts unit quaternions.
func (q Quat) Inverse() Quat {
	return Quat{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Normalized rescales the vector part so the whole quaternion has unit
// length, keeping w fixed. Degenerate cases (|w| >= 1 with no usable vector
// part, or a zero vector part) snap to the identity instead of dividing by
// zero.
func (q Quat) Normalized() Quat {
	length := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	targetLength := 1 - q.W*q.W
	if targetLength <= 0 || length <= 0 {
		return Identity()
	}
	fix := math.Sqrt(targetLength) / length
	return Quat{W: q.W, X: q.X * fix, Y: q.Y * fix, Z: q.Z * fix}
}

// Norm returns the 4-component Euclidean norm.
func (q Quat) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}
