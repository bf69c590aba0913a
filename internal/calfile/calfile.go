// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calfile persists the gyro bias offset together with its weight
// (equivalent sample count), so a calibration survives across sessions and
// is restored with its original confidence. The motion core itself never
// touches the filesystem; the host commands do.
package calfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/relabs-tech/gamepad_fusion/internal/geom"
)

const schemaVersion = 1

// Calibration is the on-disk representation of a saved offset+weight pair.
type Calibration struct {
	SchemaVersion int       `json:"schema_version"`
	SavedAt       time.Time `json:"saved_at"`

	Offset geom.Vec3 `json:"offset"` // gyro bias, deg/s
	Weight int       `json:"weight"` // equivalent sample count
}

// Save writes the calibration as indented JSON, creating parent directories
// as needed. The write goes through a temp file and rename so a crash cannot
// leave a truncated file behind.
func Save(path string, offset geom.Vec3, weight int) error {
	cal := Calibration{
		SchemaVersion: schemaVersion,
		SavedAt:       time.Now(),
		Offset:        offset,
		Weight:        weight,
	}

	data, err := json.MarshalIndent(cal, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal calibration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create calibration dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write calibration file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename calibration file: %w", err)
	}
	return nil
}

// Load reads a saved calibration. A missing file is not an error condition
// worth special-casing at call sites, so callers should test with
// os.IsNotExist when they want to treat it as "no calibration yet".
func Load(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Calibration{}, err
	}

	var cal Calibration
	if err := json.Unmarshal(data, &cal); err != nil {
		return Calibration{}, fmt.Errorf("parse calibration file %s: %w", path, err)
	}
	if cal.SchemaVersion != schemaVersion {
		return Calibration{}, fmt.Errorf("calibration file %s: unsupported schema version %d", path, cal.SchemaVersion)
	}
	if cal.Weight <= 0 {
		return Calibration{}, fmt.Errorf("calibration file %s: weight must be positive, got %d", path, cal.Weight)
	}
	return cal, nil
}
