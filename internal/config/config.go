package config

import (
	"fmt"
	"os"

	"github.com/san-kum/wheelrail/internal/contact"
	"github.com/san-kum/wheelrail/internal/normal"
	"github.com/san-kum/wheelrail/internal/tangential"
	"github.com/san-kum/wheelrail/internal/wear"
	"gopkg.in/yaml.v3"
)

const (
	DefaultNormalModel     = "kp"
	DefaultTangentialModel = "fastsim"
	DefaultNormalForce     = 80e3
	DefaultWheelRadius     = 0.46
	DefaultRailRadius      = 0.3
	DefaultSweepPoints     = 25
	DefaultSlidingDistance = 1000.0
	DefaultSpeed           = 20.0
)

type Config struct {
	Normal     NormalConfig     `yaml:"normal"`
	Tangential TangentialConfig `yaml:"tangential"`
	Load       LoadConfig       `yaml:"load"`
	Creepage   contact.Creepage `yaml:"creepage"`
	Wear       WearConfig       `yaml:"wear"`
	Sweep      SweepConfig      `yaml:"sweep"`
}

type NormalConfig struct {
	Model              string           `yaml:"model"`
	WheelRadius        float64          `yaml:"wheel_radius"`
	RailRadius         float64          `yaml:"rail_radius"`
	YawAngle           float64          `yaml:"yaw_angle"`
	Wheel              contact.Material `yaml:"wheel"`
	Rail               contact.Material `yaml:"rail"`
	Discretization     int              `yaml:"discretization"`
	VirtualPenetration float64          `yaml:"virtual_penetration"`
	SemiAxesRatioLimit float64          `yaml:"semi_axes_ratio_limit"`
	Tolerance          float64          `yaml:"tolerance"`
	MaxIterations      int              `yaml:"max_iterations"`
}

type TangentialConfig struct {
	Model          string           `yaml:"model"`
	Friction       float64          `yaml:"friction"`
	Discretization int              `yaml:"discretization"`
	Strips         int              `yaml:"strips"`
	Blend          tangential.Blend `yaml:"blend"`
}

// LoadConfig selects force or penetration control. Exactly one must be positive.
type LoadConfig struct {
	NormalForce float64 `yaml:"normal_force"`
	Penetration float64 `yaml:"penetration"`
}

type WearConfig struct {
	Enabled         bool    `yaml:"enabled"`
	WheelMaterial   string  `yaml:"wheel_material"`
	RailMaterial    string  `yaml:"rail_material"`
	SlidingDistance float64 `yaml:"sliding_distance"`
	Density         float64 `yaml:"density"`
}

// SweepConfig describes a creep curve: Axis is swept from Min to Max while
// the other creepages keep their configured values. Speed is the rolling
// speed in m/s used for frictional power.
type SweepConfig struct {
	Axis    string  `yaml:"axis"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Points  int     `yaml:"points"`
	Workers int     `yaml:"workers"`
	Speed   float64 `yaml:"speed"`
}

func DefaultConfig() *Config {
	return &Config{
		Normal: NormalConfig{
			Model:              DefaultNormalModel,
			WheelRadius:        DefaultWheelRadius,
			RailRadius:         DefaultRailRadius,
			Wheel:              contact.Steel,
			Rail:               contact.Steel,
			Discretization:     normal.DefaultDiscretization,
			VirtualPenetration: normal.DefaultVirtualPenetration,
			SemiAxesRatioLimit: normal.DefaultSemiAxesRatioLimit,
			Tolerance:          normal.DefaultTolerance,
			MaxIterations:      normal.DefaultMaxIterations,
		},
		Tangential: TangentialConfig{
			Model:          DefaultTangentialModel,
			Friction:       tangential.DefaultFriction,
			Discretization: tangential.DefaultDiscretization,
			Strips:         tangential.DefaultStrips,
			Blend:          tangential.DefaultBlend(),
		},
		Load: LoadConfig{NormalForce: DefaultNormalForce},
		Wear: WearConfig{
			WheelMaterial:   "R8T",
			RailMaterial:    "UIC60 900A",
			SlidingDistance: DefaultSlidingDistance,
			Density:         wear.SteelDensity,
		},
		Sweep: SweepConfig{
			Axis:   "longitudinal",
			Min:    0,
			Max:    1e-2,
			Points: DefaultSweepPoints,
			Speed:  DefaultSpeed,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := Merge(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overlays the fields present in the YAML file at path onto cfg.
func Merge(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields the solvers do not check themselves.
func (c *Config) Validate() error {
	switch c.Normal.Model {
	case "kp", "mkp":
	default:
		return fmt.Errorf("%w: unknown normal model %q", contact.ErrInvalidParameter, c.Normal.Model)
	}
	switch c.Tangential.Model {
	case "fastsim", "fastrip":
	default:
		return fmt.Errorf("%w: unknown tangential model %q", contact.ErrInvalidParameter, c.Tangential.Model)
	}
	if _, err := c.SweepAxis(); err != nil {
		return err
	}
	if c.Sweep.Points < 2 {
		return fmt.Errorf("%w: sweep needs at least 2 points, got %d", contact.ErrInvalidResolution, c.Sweep.Points)
	}
	if err := c.NormalParams().Validate(); err != nil {
		return err
	}
	if err := c.TangentialParams().Validate(); err != nil {
		return err
	}
	if c.Tangential.Model == "fastrip" {
		if err := c.Tangential.Blend.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) NormalParams() normal.Params {
	n := c.Normal
	return normal.Params{
		WheelRadius:        n.WheelRadius,
		RailRadius:         n.RailRadius,
		Wheel:              n.Wheel,
		Rail:               n.Rail,
		YawAngle:           n.YawAngle,
		Discretization:     n.Discretization,
		VirtualPenetration: n.VirtualPenetration,
		SemiAxesRatioLimit: n.SemiAxesRatioLimit,
		Tolerance:          n.Tolerance,
		MaxIterations:      n.MaxIterations,
	}
}

// TangentialParams combines the wheel and rail elastic constants into the
// single shear modulus and Poisson ratio used by the traction solvers.
func (c *Config) TangentialParams() tangential.Params {
	gw, gr := c.Normal.Wheel.ShearModulus(), c.Normal.Rail.ShearModulus()
	g := 0.0
	if gw+gr > 0 {
		g = 2 * gw * gr / (gw + gr)
	}
	return tangential.Params{
		PoissonRatio:   (c.Normal.Wheel.PoissonRatio + c.Normal.Rail.PoissonRatio) / 2,
		ShearModulus:   g,
		Friction:       c.Tangential.Friction,
		Discretization: c.Tangential.Discretization,
	}
}

func (c *Config) NormalLoad() normal.Load {
	return normal.Load{NormalForce: c.Load.NormalForce, Penetration: c.Load.Penetration}
}

// Axis is a creepage component.
type Axis int

const (
	Longitudinal Axis = iota
	Lateral
	Spin
)

func (a Axis) String() string {
	switch a {
	case Lateral:
		return "lateral"
	case Spin:
		return "spin"
	default:
		return "longitudinal"
	}
}

// With returns c with the component a replaced by v.
func (a Axis) With(c contact.Creepage, v float64) contact.Creepage {
	switch a {
	case Lateral:
		c.Lateral = v
	case Spin:
		c.Spin = v
	default:
		c.Longitudinal = v
	}
	return c
}

func ParseAxis(s string) (Axis, error) {
	switch s {
	case "longitudinal", "x", "xi":
		return Longitudinal, nil
	case "lateral", "y", "eta":
		return Lateral, nil
	case "spin", "phi":
		return Spin, nil
	}
	return Longitudinal, fmt.Errorf("%w: unknown creepage axis %q", contact.ErrInvalidParameter, s)
}

func (c *Config) SweepAxis() (Axis, error) {
	return ParseAxis(c.Sweep.Axis)
}
