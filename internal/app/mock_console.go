// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"

	"github.com/relabs-tech/holocube/internal/config"
	"github.com/relabs-tech/holocube/internal/telemetry"
)

// mockConfig switches every hardware driver in cfg to its simulated variant.
func mockConfig(cfg *config.Config) *config.Config {
	c := *config.Default()
	if cfg != nil {
		c = *cfg
	}
	c.IMUDriver = "mock"
	c.DisplayDriver = "memory"
	c.BacklightDriver = "none"
	return &c
}

func statusLine(st telemetry.PlaybackStatus) string {
	return fmt.Sprintf(
		"screen=%-6s active=%-5t index=%3d shown=%d skipped=%d errors=%d brightness=%3.0f%%",
		st.Screen, st.Active, st.Index, st.Displayed, st.Skipped, st.Errors, st.Brightness*100,
	)
}

// RunMockConsole runs the full main loop headless: simulated tilts, an
// in-memory panel and the configured frame directory. Status is printed once
// a second; PREVIEW_ADDR shows the panel in a browser.
func RunMockConsole() error {
	return runHoloCube(mockConfig(config.Get()), func(st telemetry.PlaybackStatus) {
		fmt.Println(statusLine(st))
	})
}
