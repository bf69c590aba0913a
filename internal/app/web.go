// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gamepad_fusion/internal/config"
	"github.com/relabs-tech/gamepad_fusion/internal/pad"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// stateCache holds the latest fused state received over MQTT.
type stateCache struct {
	mu        sync.RWMutex
	lastState pad.State
	haveState bool
}

func (c *stateCache) set(s pad.State) {
	c.mu.Lock()
	c.lastState = s
	c.haveState = true
	c.mu.Unlock()
}

func (c *stateCache) get() (pad.State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastState, c.haveState
}

// RunWeb serves the live motion viewer: a JSON endpoint with the latest fused
// state, a websocket that streams state updates and accepts calibration
// control messages (forwarded to the MQTT command topic), and static files
// from ./web.
func RunWeb() error {
	cfg := config.Get()
	cache := &stateCache{}

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to the state topic and cache the latest state
	token := client.Subscribe(cfg.TopicMotionState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s pad.State
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("web: state unmarshal error: %v", err)
			return
		}
		cache.set(s)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicMotionState)

	// 3) JSON API endpoint: latest fused state
	http.HandleFunc("/api/motion", func(w http.ResponseWriter, r *http.Request) {
		state, ok := cache.get()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(state); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 4) Websocket: stream state, accept calibration commands
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleMotionWS(w, r, cache, client, cfg)
	})

	// 5) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}

// handleMotionWS pushes the cached state to the browser at the display rate
// and forwards any control message it receives to the producer's command
// topic. The web process never touches the motion processor itself.
func handleMotionWS(w http.ResponseWriter, r *http.Request, cache *stateCache, client mqtt.Client, cfg *config.Config) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})

	// Reader: forward calibration commands to MQTT.
	go func() {
		defer close(done)
		for {
			var cmd Command
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			payload, err := json.Marshal(cmd)
			if err != nil {
				log.Printf("web: command marshal error: %v", err)
				continue
			}
			if token := client.Publish(cfg.TopicCalibrationCommand, 0, false, payload); token.Wait() && token.Error() != nil {
				log.Printf("web: command publish error: %v", token.Error())
			}
		}
	}()

	// Writer: push the latest state until the client goes away.
	interval := time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			state, ok := cache.get()
			if !ok {
				continue
			}
			if err := conn.WriteJSON(state); err != nil {
				return
			}
		}
	}
}
