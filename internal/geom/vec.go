// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package geom provides the small 3-vector and unit-quaternion algebra the
// motion pipeline is built on. Everything is value-based float64 math with no
// allocation, so it is safe to use on the per-tick hot path.
package geom

import "math"

// Vec3 is a plain 3D vector. Units depend on context: deg/s for gyro
// rates, G for accelerometer readings.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized returns a unit vector in the direction of v. A zero vector
// is returned unchanged rather than producing NaN.
func (v Vec3) Normalized() Vec3 {
	length := v.Length()
	if length == 0 {
		return v
	}
	return v.Scale(1 / length)
}

// Rotate rotates v by the unit quaternion q (computes q * (0,v) * q⁻¹).
func (v Vec3) Rotate(q Quat) Vec3 {
	p := q.Mul(Quat{0, v.X, v.Y, v.Z}).Mul(q.Inverse())
	return Vec3{p.X, p.Y, p.Z}
}
