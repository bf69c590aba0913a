// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors provides the MPU-9250 backed sample source for running the
// fusion pipeline directly against an IMU wired to the host over SPI.
package sensors

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gamepad_fusion/internal/config"
	"github.com/relabs-tech/gamepad_fusion/internal/geom"
	"github.com/relabs-tech/gamepad_fusion/internal/pad"
)

type imuSource struct {
	imu *mpu9250.MPU9250

	// counts-per-unit scale factors derived from the configured ranges
	accelScale float64 // LSB per G
	gyroScale  float64 // LSB per deg/s
}

// NewIMUSource initializes the MPU-9250 over SPI and returns a pad.Source
// that reads gyro in deg/s and accel in G, scaled from raw counts using the
// configured sensor ranges.
func NewIMUSource() (pad.Source, error) {
	cfg := config.Get()

	// Initialize periph host once.
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.IMUCSPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU CS pin %q not found", cfg.IMUCSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.IMUSPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU SPI transport (%s): %w", cfg.IMUSPIDevice, err)
	}

	imu, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("IMU device creation: %w", err)
	}

	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("IMU initialization: %w", err)
	}

	if err := imu.SetAccelRange(cfg.IMUAccelRange); err != nil {
		return nil, fmt.Errorf("IMU set accel range: %w", err)
	}
	log.Printf("IMU: accelerometer range set to %d (±%dg)", cfg.IMUAccelRange, []int{2, 4, 8, 16}[cfg.IMUAccelRange])

	if err := imu.SetGyroRange(cfg.IMUGyroRange); err != nil {
		return nil, fmt.Errorf("IMU set gyro range: %w", err)
	}
	log.Printf("IMU: gyroscope range set to %d (±%d°/s)", cfg.IMUGyroRange, []int{250, 500, 1000, 2000}[cfg.IMUGyroRange])

	// Self-test and on-chip calibration are slow but worth it at startup:
	// the fusion layer's own bias tracking starts from a better place.
	if _, err := imu.SelfTest(); err != nil {
		log.Printf("Warning: IMU self-test failed: %v", err)
	}
	if err := imu.Calibrate(); err != nil {
		log.Printf("Warning: IMU calibrate failed: %v", err)
	}

	return &imuSource{
		imu: imu,
		// ±2g full scale is 16384 LSB/g, halving per range step.
		accelScale: float64(int(16384) >> cfg.IMUAccelRange),
		// ±250°/s full scale is 131 LSB/(°/s), halving per range step.
		gyroScale: 131.0 / float64(int(1)<<cfg.IMUGyroRange),
	}, nil
}

// Next reads one gyro+accel sample and converts it to pipeline units.
func (s *imuSource) Next() (pad.Sample, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return pad.Sample{}, fmt.Errorf("IMU accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return pad.Sample{}, fmt.Errorf("IMU accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return pad.Sample{}, fmt.Errorf("IMU accel Z: %w", err)
	}

	gx, err := s.imu.GetRotationX()
	if err != nil {
		return pad.Sample{}, fmt.Errorf("IMU gyro X: %w", err)
	}
	gy, err := s.imu.GetRotationY()
	if err != nil {
		return pad.Sample{}, fmt.Errorf("IMU gyro Y: %w", err)
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return pad.Sample{}, fmt.Errorf("IMU gyro Z: %w", err)
	}

	return pad.Sample{
		Gyro: geom.Vec3{
			X: float64(gx) / s.gyroScale,
			Y: float64(gy) / s.gyroScale,
			Z: float64(gz) / s.gyroScale,
		},
		Accel: geom.Vec3{
			X: float64(ax) / s.accelScale,
			Y: float64(ay) / s.accelScale,
			Z: float64(az) / s.accelScale,
		},
	}, nil
}
