// Package pad defines the sample and state data model of the motion pipeline
// and the sources that produce samples.
package pad

import (
	"time"

	"github.com/relabs-tech/gamepad_fusion/internal/geom"
)

// Sample is one raw motion-sensor poll from a controller. Gyro rates are in
// degrees per second, accelerometer values in G units.
type Sample struct {
	Gyro  geom.Vec3 `json:"gyro"`
	Accel geom.Vec3 `json:"accel"`
}

// State is the fused output published after each tick, suitable for JSON and
// MQTT.
type State struct {
	Time time.Time `json:"time"`

	Orientation geom.Quat `json:"orientation"` // sensor-to-world unit quaternion
	Gravity     geom.Vec3 `json:"gravity"`     // G units
	Accel       geom.Vec3 `json:"accel"`       // linear acceleration, G units
	Gyro        geom.Vec3 `json:"gyro"`        // calibrated, deg/s

	CalibrationMode   string `json:"calibration_mode"`
	CalibrationWeight int    `json:"calibration_weight"`
}

// CalibrationEvent is published whenever the bias estimate changes in a way
// the host may want to persist or surface.
type CalibrationEvent struct {
	Time   time.Time `json:"time"`
	Kind   string    `json:"kind"` // "auto", "manual", "seeded", "reset"
	Offset geom.Vec3 `json:"offset"`
	Weight int       `json:"weight"`
}

// Source is anything that can provide raw samples over time: the mock wave
// generator, a serial-attached microcontroller, or an IMU read directly over
// SPI.
type Source interface {
	Next() (Sample, error)
}
