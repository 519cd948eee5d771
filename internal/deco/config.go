/*
Package deco
File: config.go
Description:
    Process-wide, read-only model configuration: the Bühlmann compartment
    table and the planner tuning knobs (stop granularity, sample interval,
    breathing rates, ppO2 limits). A compiled-in ZHL-16C default is active
    from init; LoadModelConfig replaces it from a YAML file, typically once
    at startup and again on SIGHUP.

    Any code reading the active configuration goes through ActiveModelConfig,
    which returns a value copy, so a running calculation is never affected
    by a concurrent reload.
*/

package deco

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// CompartmentSpec holds the half-times and Bühlmann a/b coefficients of a
// single tissue compartment, per inert gas.
type CompartmentSpec struct {
	HalfTimeN2 float64 `yaml:"half_time_n2" json:"half_time_n2"` // minutes
	AN2        float64 `yaml:"a_n2" json:"a_n2"`
	BN2        float64 `yaml:"b_n2" json:"b_n2"`
	HalfTimeHe float64 `yaml:"half_time_he" json:"half_time_he"` // minutes
	AHe        float64 `yaml:"a_he" json:"a_he"`
	BHe        float64 `yaml:"b_he" json:"b_he"`
}

// ModelConfig is the full tuning surface of the engine. Exact coefficient
// tables and rounding granularity are deliberately configuration, not
// hard-coded: tests pin them, deployments may override them.
type ModelConfig struct {
	Name         string            `yaml:"name" json:"name"`                   // model label, e.g. "ZHL-16C/GF"
	Compartments []CompartmentSpec `yaml:"compartments" json:"compartments"`   // tissue compartment table
	StopIncrement float64          `yaml:"stop_increment" json:"stop_increment"` // stop depth granularity, meters
	SampleInterval float64         `yaml:"sample_interval" json:"sample_interval"` // stop hold increment, minutes
	AscentRate   float64           `yaml:"ascent_rate" json:"ascent_rate"`     // meters per minute
	DescentRate  float64           `yaml:"descent_rate" json:"descent_rate"`   // meters per minute
	SACBottom    float64           `yaml:"sac_bottom" json:"sac_bottom"`       // surface L/min during planned steps
	SACDeco      float64           `yaml:"sac_deco" json:"sac_deco"`           // surface L/min during the ascent
	MaxPpO2Bottom float64          `yaml:"max_ppo2_bottom" json:"max_ppo2_bottom"` // bar
	MaxPpO2Deco  float64           `yaml:"max_ppo2_deco" json:"max_ppo2_deco"` // bar
	MinPpO2      float64           `yaml:"min_ppo2" json:"min_ppo2"`           // hypoxic floor, bar
	GFLowDefault  float64          `yaml:"gf_low_default" json:"gf_low_default"`
	GFHighDefault float64          `yaml:"gf_high_default" json:"gf_high_default"`
}

var (
	// configLock protects the active model configuration. Handlers and
	// plans read snapshots; only LoadModelConfig writes.
	configLock  sync.RWMutex
	activeModel = DefaultModelConfig()
)

// DefaultModelConfig returns the compiled-in ZHL-16C table with gradient
// factors and domain-standard planner defaults.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Name: "ZHL-16C/GF",
		Compartments: []CompartmentSpec{
			{HalfTimeN2: 5.0, AN2: 1.1696, BN2: 0.5578, HalfTimeHe: 1.88, AHe: 1.6189, BHe: 0.4770},
			{HalfTimeN2: 8.0, AN2: 1.0000, BN2: 0.6514, HalfTimeHe: 3.02, AHe: 1.3830, BHe: 0.5747},
			{HalfTimeN2: 12.5, AN2: 0.8618, BN2: 0.7222, HalfTimeHe: 4.72, AHe: 1.1919, BHe: 0.6527},
			{HalfTimeN2: 18.5, AN2: 0.7562, BN2: 0.7825, HalfTimeHe: 6.99, AHe: 1.0458, BHe: 0.7223},
			{HalfTimeN2: 27.0, AN2: 0.6200, BN2: 0.8126, HalfTimeHe: 10.21, AHe: 0.9220, BHe: 0.7582},
			{HalfTimeN2: 38.3, AN2: 0.5043, BN2: 0.8434, HalfTimeHe: 14.48, AHe: 0.8205, BHe: 0.7957},
			{HalfTimeN2: 54.3, AN2: 0.4410, BN2: 0.8693, HalfTimeHe: 20.53, AHe: 0.7305, BHe: 0.8279},
			{HalfTimeN2: 77.0, AN2: 0.4000, BN2: 0.8910, HalfTimeHe: 29.11, AHe: 0.6502, BHe: 0.8553},
			{HalfTimeN2: 109.0, AN2: 0.3750, BN2: 0.9092, HalfTimeHe: 41.20, AHe: 0.5950, BHe: 0.8757},
			{HalfTimeN2: 146.0, AN2: 0.3500, BN2: 0.9222, HalfTimeHe: 55.19, AHe: 0.5545, BHe: 0.8903},
			{HalfTimeN2: 187.0, AN2: 0.3295, BN2: 0.9319, HalfTimeHe: 70.69, AHe: 0.5333, BHe: 0.8997},
			{HalfTimeN2: 239.0, AN2: 0.3065, BN2: 0.9403, HalfTimeHe: 90.34, AHe: 0.5189, BHe: 0.9073},
			{HalfTimeN2: 305.0, AN2: 0.2835, BN2: 0.9477, HalfTimeHe: 115.29, AHe: 0.5181, BHe: 0.9122},
			{HalfTimeN2: 390.0, AN2: 0.2610, BN2: 0.9544, HalfTimeHe: 147.42, AHe: 0.5176, BHe: 0.9171},
			{HalfTimeN2: 498.0, AN2: 0.2480, BN2: 0.9602, HalfTimeHe: 188.24, AHe: 0.5172, BHe: 0.9217},
			{HalfTimeN2: 635.0, AN2: 0.2327, BN2: 0.9653, HalfTimeHe: 240.03, AHe: 0.5119, BHe: 0.9267},
		},
		StopIncrement:  3.0,
		SampleInterval: 1.0,
		AscentRate:     9.0,
		DescentRate:    18.0,
		SACBottom:      20.0,
		SACDeco:        15.0,
		MaxPpO2Bottom:  1.4,
		MaxPpO2Deco:    1.6,
		MinPpO2:        0.18,
		GFLowDefault:   30,
		GFHighDefault:  85,
	}
}

// ActiveModelConfig returns a copy of the currently active configuration.
func ActiveModelConfig() ModelConfig {
	configLock.RLock()
	defer configLock.RUnlock()

	cfg := activeModel
	cfg.Compartments = append([]CompartmentSpec(nil), activeModel.Compartments...)
	return cfg
}

// LoadModelConfig reads a YAML model configuration and makes it the active
// one. Fields left at zero in the file keep their default values, so a
// file may override just the tuning knobs without restating the table.
func LoadModelConfig(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cfg := DefaultModelConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("parse model config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	configLock.Lock()
	activeModel = cfg
	configLock.Unlock()
	return nil
}

// SetModelConfig replaces the active configuration directly. Intended for
// tests that pin a specific table.
func SetModelConfig(cfg ModelConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	configLock.Lock()
	activeModel = cfg
	configLock.Unlock()
	return nil
}

// Validate rejects configurations the engine cannot run on.
func (c ModelConfig) Validate() error {
	if len(c.Compartments) == 0 {
		return fmt.Errorf("model config: compartment table is empty")
	}
	for i, comp := range c.Compartments {
		if comp.HalfTimeN2 <= 0 || comp.HalfTimeHe <= 0 {
			return fmt.Errorf("model config: compartment %d has non-positive half-time", i+1)
		}
		if comp.BN2 <= 0 || comp.BHe <= 0 {
			return fmt.Errorf("model config: compartment %d has non-positive b coefficient", i+1)
		}
	}
	if c.StopIncrement <= 0 || c.SampleInterval <= 0 {
		return fmt.Errorf("model config: stop increment and sample interval must be positive")
	}
	if c.AscentRate <= 0 || c.DescentRate <= 0 {
		return fmt.Errorf("model config: ascent and descent rates must be positive")
	}
	if c.SACBottom <= 0 || c.SACDeco <= 0 {
		return fmt.Errorf("model config: SAC rates must be positive")
	}
	if c.MinPpO2 <= 0 || c.MaxPpO2Deco < c.MaxPpO2Bottom || c.MaxPpO2Bottom <= c.MinPpO2 {
		return fmt.Errorf("model config: ppO2 window is inconsistent")
	}
	return nil
}
