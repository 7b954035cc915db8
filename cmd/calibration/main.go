// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Guided gesture-threshold calibration.
//
// The cube is held at rest, tilted right, tilted left and tipped forward.
// Each pose is sampled for -pose seconds and the rotate/press thresholds are
// placed halfway between the rest noise band and the weakest pose.
//
// Run:
//
//	go run ./cmd/calibration -config holocube_config.txt
package main

import (
	"flag"
	"log"
	"time"

	"github.com/relabs-tech/holocube/internal/app"
	"github.com/relabs-tech/holocube/internal/config"
)

func main() {
	configPath := flag.String("config", "./holocube_config.txt", "path to configuration file")
	pose := flag.Duration("pose", 3*time.Second, "sampling time per pose")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunCalibration(*pose); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
