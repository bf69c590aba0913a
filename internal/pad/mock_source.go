// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pad

import (
	"math"
	"time"

	"github.com/relabs-tech/gamepad_fusion/internal/geom"
)

type mockSource struct {
	start time.Time
}

// NewMockSource creates a mock sample source that waves the pad gently around
// a resting pose: a slow sinusoidal wrist roll plus 1 G of gravity on the
// accelerometer. Useful for developing the pipeline without hardware.
func NewMockSource() Source {
	return &mockSource{start: time.Now()}
}

func (m *mockSource) Next() (Sample, error) {
	elapsed := time.Since(m.start).Seconds()

	return Sample{
		Gyro: geom.Vec3{
			X: 12 * math.Sin(elapsed),
			Y: 8 * math.Cos(elapsed*0.7),
			Z: 5 * math.Sin(elapsed*1.3),
		},
		Accel: geom.Vec3{
			X: 0.05 * math.Sin(elapsed*0.9),
			Y: 1,
			Z: 0.05 * math.Cos(elapsed*1.1),
		},
	}, nil
}
