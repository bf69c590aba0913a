package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gamepad_fusion/internal/config"
	"github.com/relabs-tech/gamepad_fusion/internal/pad"
)

// RunConsole subscribes to the fused state and calibration events and prints
// them, one line per message.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	stateToken := client.Subscribe(cfg.TopicMotionState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s pad.State
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: state unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[MOTION] quat=(%6.3f %6.3f %6.3f %6.3f)  grav=(%6.3f %6.3f %6.3f)  accel=(%6.3f %6.3f %6.3f)  gyro=(%7.2f %7.2f %7.2f) [%s w=%d]\n",
			s.Orientation.W, s.Orientation.X, s.Orientation.Y, s.Orientation.Z,
			s.Gravity.X, s.Gravity.Y, s.Gravity.Z,
			s.Accel.X, s.Accel.Y, s.Accel.Z,
			s.Gyro.X, s.Gyro.Y, s.Gyro.Z,
			s.CalibrationMode, s.CalibrationWeight,
		)
	})
	stateToken.Wait()
	if stateToken.Error() != nil {
		return stateToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicMotionState)

	eventToken := client.Subscribe(cfg.TopicCalibrationEvent, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e pad.CalibrationEvent
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			log.Printf("console: event unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[CALIB]  %-6s offset=(%7.4f %7.4f %7.4f) weight=%d\n",
			e.Kind, e.Offset.X, e.Offset.Y, e.Offset.Z, e.Weight,
		)
	})
	eventToken.Wait()
	if eventToken.Error() != nil {
		return eventToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicCalibrationEvent)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
