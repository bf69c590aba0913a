package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gamepad_fusion/internal/app"
	"github.com/relabs-tech/gamepad_fusion/internal/config"
)

func main() {
	configPath := flag.String("config", "./pad_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting gamepad_fusion OLED display (MQTT subscriber)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunDisplay(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
