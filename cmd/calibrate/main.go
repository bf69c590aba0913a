// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/calibrate/main.go
//
// Guided manual gyro calibration for the pad. Asks the user to set the
// controller down, accumulates bias samples for a fixed duration while
// sanity-checking stillness, then writes the resulting offset+weight pair to
// the calibration file so the motion producer restores it on startup.
//
// Run:
//
//	go run ./cmd/calibrate -duration 10
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/relabs-tech/gamepad_fusion/internal/app"
	"github.com/relabs-tech/gamepad_fusion/internal/calfile"
	"github.com/relabs-tech/gamepad_fusion/internal/config"
	"github.com/relabs-tech/gamepad_fusion/internal/motion"
)

// Gyro rates above this (deg/s, any axis) while capturing mean the pad was
// moved; the run is rejected rather than baking motion into the bias.
const maxStillRate = 5.0

func main() {
	configPath := flag.String("config", "./pad_config.txt", "path to configuration file")
	duration := flag.Duration("duration", 10*time.Second, "how long to accumulate still samples")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	source, err := app.NewSource(cfg)
	if err != nil {
		log.Fatalf("sample source: %v", err)
	}

	fmt.Println("Gyro bias calibration")
	fmt.Printf("Place the controller on a stable surface and do not touch it for %s.\n", *duration)
	fmt.Print("Press Enter when ready... ")
	bufio.NewReader(os.Stdin).ReadString('\n')

	proc := motion.NewProcessor()
	proc.SetNominalGravity(cfg.NominalGravity)
	proc.StartContinuousCalibration()

	interval := time.Duration(cfg.SampleInterval) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	deadline := time.Now().Add(*duration)
	lastTick := time.Time{}
	nextReport := time.Now().Add(time.Second)
	rejected := false

	for t := range ticker.C {
		if t.After(deadline) {
			break
		}

		dt := interval.Seconds()
		if !lastTick.IsZero() {
			dt = t.Sub(lastTick).Seconds()
		}
		lastTick = t

		sample, err := source.Next()
		if err != nil {
			log.Fatalf("sample source error: %v", err)
		}

		if abs(sample.Gyro.X) > maxStillRate || abs(sample.Gyro.Y) > maxStillRate || abs(sample.Gyro.Z) > maxStillRate {
			rejected = true
			break
		}

		proc.ProcessMotion(
			sample.Gyro.X, sample.Gyro.Y, sample.Gyro.Z,
			sample.Accel.X, sample.Accel.Y, sample.Accel.Z,
			dt,
		)

		if t.After(nextReport) {
			fmt.Printf("  %d samples, %.0fs remaining\n", proc.CalibrationWeight(), time.Until(deadline).Seconds())
			nextReport = t.Add(time.Second)
		}
	}

	proc.PauseContinuousCalibration()

	if rejected {
		log.Fatalf("movement detected during capture, calibration aborted; run again with the pad at rest")
	}
	if proc.CalibrationWeight() == 0 {
		log.Fatalf("no samples captured, calibration aborted")
	}

	offset := proc.CalibrationOffset()
	fmt.Printf("\nCaptured %d samples.\n", proc.CalibrationWeight())
	fmt.Printf("Gyro bias: (%.4f, %.4f, %.4f) deg/s\n", offset.X, offset.Y, offset.Z)

	if err := calfile.Save(cfg.CalibrationFile, offset, proc.CalibrationWeight()); err != nil {
		log.Fatalf("failed to save calibration: %v", err)
	}
	fmt.Printf("Saved to %s\n", cfg.CalibrationFile)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
