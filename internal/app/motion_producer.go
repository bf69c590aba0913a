// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gamepad_fusion/internal/calfile"
	"github.com/relabs-tech/gamepad_fusion/internal/config"
	"github.com/relabs-tech/gamepad_fusion/internal/motion"
	"github.com/relabs-tech/gamepad_fusion/internal/pad"
	"github.com/relabs-tech/gamepad_fusion/internal/sensors"
)

// Command is a calibration control message received on the command topic
// (published by the web UI or any other MQTT client).
type Command struct {
	Action string `json:"action"` // start, pause, reset, reset_motion, mode, save
	Mode   string `json:"mode,omitempty"`
}

// NewSource picks the sample source configured by PAD_SOURCE.
func NewSource(cfg *config.Config) (pad.Source, error) {
	switch cfg.PadSource {
	case "mock":
		log.Println("using mock sample source")
		return pad.NewMockSource(), nil
	case "serial":
		log.Printf("using serial sample source on %s at %d baud", cfg.SerialPort, cfg.SerialBaudRate)
		return pad.NewSerialSource(cfg.SerialPort, uint(cfg.SerialBaudRate))
	case "imu":
		log.Printf("using MPU-9250 sample source on %s", cfg.IMUSPIDevice)
		return sensors.NewIMUSource()
	default:
		return nil, fmt.Errorf("unknown PAD_SOURCE %q", cfg.PadSource)
	}
}

// RunMotionProducer runs the fusion pipeline: read samples from the
// configured source, process them through the motion core once per tick, and
// publish the fused state as JSON over MQTT. Calibration control commands
// arrive on the command topic and are applied between ticks, because the
// motion processor is single-writer state.
func RunMotionProducer() error {
	log.Println("starting gamepad_fusion motion producer")

	cfg := config.Get()

	source, err := NewSource(cfg)
	if err != nil {
		return fmt.Errorf("sample source: %w", err)
	}

	proc := motion.NewProcessor()
	proc.SetNominalGravity(cfg.NominalGravity)
	if cfg.CalibrationMode == "auto" {
		proc.SetMode(motion.CalibrationAuto)
	}
	log.Printf("calibration mode: %s", proc.Mode())

	// Restore a previous session's calibration with its original weight.
	if cal, err := calfile.Load(cfg.CalibrationFile); err == nil {
		proc.SetCalibrationOffset(cal.Offset.X, cal.Offset.Y, cal.Offset.Z, cal.Weight)
		log.Printf("restored calibration offset (%.4f, %.4f, %.4f) weight=%d from %s",
			cal.Offset.X, cal.Offset.Y, cal.Offset.Z, cal.Weight, cfg.CalibrationFile)
	} else if !os.IsNotExist(err) {
		log.Printf("WARNING: could not load calibration file: %v", err)
	}

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Println("connected to MQTT, starting tick loop")

	// Commands arrive on a paho goroutine; queue them and apply in the tick
	// loop so the processor only ever sees one writer.
	commands := make(chan Command, 16)
	token := client.Subscribe(cfg.TopicCalibrationCommand, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var cmd Command
		if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
			log.Printf("command unmarshal error: %v", err)
			return
		}
		select {
		case commands <- cmd:
		default:
			log.Printf("command queue full, dropping %q", cmd.Action)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("MQTT subscribe (%s): %w", cfg.TopicCalibrationCommand, token.Error())
	}

	var lastTickTime time.Time

	ticker := time.NewTicker(time.Duration(cfg.SampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		for len(commands) > 0 {
			applyCommand(proc, <-commands, cfg, client)
		}

		var deltaTime float64
		if lastTickTime.IsZero() {
			deltaTime = float64(cfg.SampleInterval) / 1000.0
		} else {
			deltaTime = t.Sub(lastTickTime).Seconds()
		}
		lastTickTime = t

		sample, err := source.Next()
		if err != nil {
			log.Printf("sample source error: %v", err)
			continue
		}

		recalibrated := proc.ProcessMotion(
			sample.Gyro.X, sample.Gyro.Y, sample.Gyro.Z,
			sample.Accel.X, sample.Accel.Y, sample.Accel.Z,
			deltaTime,
		)

		state := pad.State{
			Time:              t,
			Orientation:       proc.Orientation(),
			Gravity:           proc.Gravity(),
			Accel:             proc.Acceleration(),
			Gyro:              proc.CalibratedGyro(),
			CalibrationMode:   proc.Mode().String(),
			CalibrationWeight: proc.CalibrationWeight(),
		}

		if payload, err := json.Marshal(state); err != nil {
			log.Printf("json marshal error (state): %v", err)
		} else if token := client.Publish(cfg.TopicMotionState, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (state): %v", token.Error())
			continue
		}

		if recalibrated {
			offset := proc.CalibrationOffset()
			log.Printf("auto-recalibrated: offset (%.4f, %.4f, %.4f)", offset.X, offset.Y, offset.Z)
			publishEvent(client, cfg, "auto", proc)
			if err := calfile.Save(cfg.CalibrationFile, offset, proc.CalibrationWeight()); err != nil {
				log.Printf("WARNING: could not persist calibration: %v", err)
			}
		}
	}
	return nil
}

// applyCommand executes one calibration control command on the tick loop.
func applyCommand(proc *motion.Processor, cmd Command, cfg *config.Config, client mqtt.Client) {
	switch cmd.Action {
	case "start":
		proc.StartContinuousCalibration()
		log.Println("manual calibration started")
	case "pause":
		proc.PauseContinuousCalibration()
		log.Println("manual calibration paused")
		publishEvent(client, cfg, "manual", proc)
	case "reset":
		proc.ResetContinuousCalibration()
		log.Println("calibration reset")
		publishEvent(client, cfg, "reset", proc)
	case "reset_motion":
		proc.ResetMotion()
		log.Println("motion state reset")
	case "mode":
		switch cmd.Mode {
		case "manual":
			proc.SetMode(motion.CalibrationManual)
		case "auto":
			proc.SetMode(motion.CalibrationAuto)
		default:
			log.Printf("unknown calibration mode %q", cmd.Mode)
			return
		}
		log.Printf("calibration mode switched to %s", proc.Mode())
	case "save":
		offset := proc.CalibrationOffset()
		if err := calfile.Save(cfg.CalibrationFile, offset, proc.CalibrationWeight()); err != nil {
			log.Printf("WARNING: could not persist calibration: %v", err)
			return
		}
		log.Printf("calibration saved to %s", cfg.CalibrationFile)
	default:
		log.Printf("unknown calibration command %q", cmd.Action)
	}
}

func publishEvent(client mqtt.Client, cfg *config.Config, kind string, proc *motion.Processor) {
	event := pad.CalibrationEvent{
		Time:   time.Now(),
		Kind:   kind,
		Offset: proc.CalibrationOffset(),
		Weight: proc.CalibrationWeight(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("json marshal error (calibration event): %v", err)
		return
	}
	if token := client.Publish(cfg.TopicCalibrationEvent, 0, false, payload); token.Wait() && token.Error() != nil {
		log.Printf("MQTT publish error (calibration event): %v", token.Error())
	}
}
