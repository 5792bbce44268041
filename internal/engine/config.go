package engine

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Canonical group names. The engine only animates these three groups.
const (
	GroupBackdrop    = "backdrop"
	GroupOverhead    = "overhead"
	GroupBattlefield = "battlefield"
)

var canonicalGroups = []string{GroupBackdrop, GroupOverhead, GroupBattlefield}

// Group type values.
const (
	TypeRGB             = "rgb"
	TypeScene           = "scene"
	TypeOff             = "off"
	TypeInheritBackdrop = "inherit_backdrop"
	TypeInheritOverhead = "inherit_overhead"
)

// Config is a declarative animation configuration. It arrives structurally
// validated; absent optional keys fall back to defaults via the getters.
// Configs are treated as immutable once handed to the engine, which is what
// makes the identity-based hot-swap check sound.
type Config struct {
	// CycleTime is the overall animation cycle length in seconds.
	CycleTime float64                 `yaml:"cycletime" json:"cycletime"`
	Groups    map[string]*GroupConfig `yaml:"groups" json:"groups"`
}

// GroupConfig holds the animation settings for a single bulb group.
type GroupConfig struct {
	Type       string            `yaml:"type" json:"type"`
	RGB        *RGBConfig        `yaml:"rgb,omitempty" json:"rgb,omitempty"`
	Scene      *SceneConfig      `yaml:"scene,omitempty" json:"scene,omitempty"`
	Brightness *BrightnessConfig `yaml:"brightness,omitempty" json:"brightness,omitempty"`
	Flash      *FlashConfig      `yaml:"flash,omitempty" json:"flash,omitempty"`
	Enabled    *bool             `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// RGBConfig describes the color range for rgb-type groups.
type RGBConfig struct {
	Base     []int `yaml:"base,omitempty" json:"base,omitempty"`
	Variance []int `yaml:"variance,omitempty" json:"variance,omitempty"`
}

// SceneConfig describes the scene preset range for scene-type groups.
type SceneConfig struct {
	IDs      []int `yaml:"ids,omitempty" json:"ids,omitempty"`
	SpeedMin *int  `yaml:"speed_min,omitempty" json:"speed_min,omitempty"`
	SpeedMax *int  `yaml:"speed_max,omitempty" json:"speed_max,omitempty"`
}

// BrightnessConfig bounds the per-tick brightness draw.
type BrightnessConfig struct {
	Min *int `yaml:"min,omitempty" json:"min,omitempty"`
	Max *int `yaml:"max,omitempty" json:"max,omitempty"`
}

// FlashConfig describes the optional flash overlay.
type FlashConfig struct {
	Probability *float64 `yaml:"probability,omitempty" json:"probability,omitempty"`
	Color       []int    `yaml:"color,omitempty" json:"color,omitempty"`
	Brightness  *int     `yaml:"brightness,omitempty" json:"brightness,omitempty"`
	Duration    *float64 `yaml:"duration,omitempty" json:"duration,omitempty"`
}

// CycleDuration returns the cycle time, defaulting to 12 seconds.
func (c *Config) CycleDuration() time.Duration {
	if c.CycleTime <= 0 {
		return 12 * time.Second
	}
	return time.Duration(c.CycleTime * float64(time.Second))
}

// GetType returns the group type, defaulting to rgb.
func (g *GroupConfig) GetType() string {
	if g.Type == "" {
		return TypeRGB
	}
	return g.Type
}

// IsEnabled reports whether the group takes part in the animation. Groups
// are enabled unless they opt out with enabled:false or type:off.
func (g *GroupConfig) IsEnabled() bool {
	if g.Enabled != nil && !*g.Enabled {
		return false
	}
	return g.GetType() != TypeOff
}

// BaseColor returns the rgb base color, defaulting to mid gray.
func (g *GroupConfig) BaseColor() [3]int {
	if g.RGB != nil && len(g.RGB.Base) == 3 {
		return [3]int{g.RGB.Base[0], g.RGB.Base[1], g.RGB.Base[2]}
	}
	return [3]int{128, 128, 128}
}

// ColorVariance returns the per-channel variance range.
func (g *GroupConfig) ColorVariance() [3]int {
	if g.RGB != nil && len(g.RGB.Variance) == 3 {
		return [3]int{g.RGB.Variance[0], g.RGB.Variance[1], g.RGB.Variance[2]}
	}
	return [3]int{20, 20, 20}
}

// SceneIDs returns the scene preset ids to draw from.
func (g *GroupConfig) SceneIDs() []int {
	if g.Scene != nil && len(g.Scene.IDs) > 0 {
		return g.Scene.IDs
	}
	return []int{5, 28, 31}
}

// SceneSpeedRange returns the scene speed bounds.
func (g *GroupConfig) SceneSpeedRange() (int, int) {
	speedMin, speedMax := 10, 190
	if g.Scene != nil {
		if g.Scene.SpeedMin != nil {
			speedMin = *g.Scene.SpeedMin
		}
		if g.Scene.SpeedMax != nil {
			speedMax = *g.Scene.SpeedMax
		}
	}
	return speedMin, speedMax
}

// BrightnessRange returns the brightness bounds.
func (g *GroupConfig) BrightnessRange() (int, int) {
	briMin, briMax := 100, 255
	if g.Brightness != nil {
		if g.Brightness.Min != nil {
			briMin = *g.Brightness.Min
		}
		if g.Brightness.Max != nil {
			briMax = *g.Brightness.Max
		}
	}
	return briMin, briMax
}

// FlashProbability returns the per-tick flash probability, default 0.
func (g *GroupConfig) FlashProbability() float64 {
	if g.Flash != nil && g.Flash.Probability != nil {
		return *g.Flash.Probability
	}
	return 0
}

// FlashColor returns the flash color, default full white.
func (g *GroupConfig) FlashColor() [3]int {
	if g.Flash != nil && len(g.Flash.Color) == 3 {
		return [3]int{g.Flash.Color[0], g.Flash.Color[1], g.Flash.Color[2]}
	}
	return [3]int{255, 255, 255}
}

// FlashBrightness returns the flash brightness, default 255.
func (g *GroupConfig) FlashBrightness() int {
	if g.Flash != nil && g.Flash.Brightness != nil {
		return *g.Flash.Brightness
	}
	return 255
}

// FlashDuration returns how long a flash is held, default 1s.
func (g *GroupConfig) FlashDuration() time.Duration {
	if g.Flash != nil && g.Flash.Duration != nil {
		return time.Duration(*g.Flash.Duration * float64(time.Second))
	}
	return time.Second
}

// inheritTarget returns the peer group name an inherit type points at, or ""
// for non-inherit types.
func inheritTarget(groupType string) string {
	switch groupType {
	case TypeInheritBackdrop:
		return GroupBackdrop
	case TypeInheritOverhead:
		return GroupOverhead
	default:
		return ""
	}
}

// resolveInheritance returns the effective configuration for the named
// group. Inheritance copies the peer's raw entry exactly one hop; a missing
// peer or a chained inherit is a configuration error and degrades to the
// group's own literal settings.
func resolveInheritance(name string, groups map[string]*GroupConfig) *GroupConfig {
	own := groups[name]
	if own == nil {
		return nil
	}

	target := inheritTarget(own.GetType())
	if target == "" {
		return own
	}

	peer, ok := groups[target]
	if !ok {
		log.Warn().
			Str("group", name).
			Str("target", target).
			Msg("Inheritance target not configured, using literal settings")
		return own
	}

	if inheritTarget(peer.GetType()) != "" {
		log.Warn().
			Str("group", name).
			Str("target", target).
			Msg("Chained inheritance is not supported, using literal settings")
		return own
	}

	return peer
}
