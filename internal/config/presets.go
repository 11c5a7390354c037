package config

import (
	"sort"

	"github.com/san-kum/wheelrail/internal/contact"
)

// Preset is a named operating point applied on top of the defaults.
type Preset struct {
	Description string
	Apply       func(*Config)
}

var Presets = map[string]Preset{
	"tread": {
		Description: "tread contact, free rolling with small creepage",
		Apply: func(c *Config) {
			c.Creepage.Longitudinal = 1e-3
		},
	},
	"flange": {
		Description: "flange root contact, small rail radius and large spin",
		Apply: func(c *Config) {
			c.Normal.Model = "mkp"
			c.Normal.RailRadius = 0.015
			c.Normal.WheelRadius = 0.44
			c.Load.NormalForce = 60e3
			c.Tangential.Model = "fastrip"
			c.Creepage.Lateral = 5e-3
			c.Creepage.Spin = 8
			c.Sweep.Axis = "lateral"
		},
	},
	"traction": {
		Description: "driven wheel under high traction",
		Apply: func(c *Config) {
			c.Load.NormalForce = 100e3
			c.Creepage.Longitudinal = 5e-3
			c.Tangential.Friction = 0.35
		},
	},
	"braking": {
		Description: "braked wheel on a wet rail",
		Apply: func(c *Config) {
			c.Creepage.Longitudinal = -5e-3
			c.Tangential.Friction = 0.15
			c.Sweep.Min = -1e-2
			c.Sweep.Max = 0
		},
	},
	"curving": {
		Description: "outer wheel in a curve with yaw and combined creepage",
		Apply: func(c *Config) {
			c.Normal.YawAngle = 0.01
			c.Tangential.Model = "fastrip"
			c.Creepage = contact.Creepage{Longitudinal: 1e-3, Lateral: 3e-3, Spin: 1.2}
			c.Wear.Enabled = true
			c.Sweep.Axis = "lateral"
		},
	},
}

// GetPreset returns a fresh config with the preset applied, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.Apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
