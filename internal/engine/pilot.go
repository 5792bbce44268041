package engine

import (
	"math/rand"

	"github.com/moricard/tabletopd/internal/device"
)

// computePilot draws a fresh pilot for one tick from the group's effective
// configuration. Every draw is independent; channels are clamped by the
// pilot constructors. Unknown and unresolved types render as rgb.
func computePilot(rng *rand.Rand, cfg *GroupConfig) device.Pilot {
	brightness := drawBrightness(rng, cfg)

	if cfg.GetType() == TypeScene {
		ids := cfg.SceneIDs()
		id := ids[rng.Intn(len(ids))]
		speedMin, speedMax := cfg.SceneSpeedRange()
		speed := speedMin + int(rng.Float64()*float64(speedMax-speedMin))
		return device.NewScenePilot(id, speed, brightness)
	}

	base := cfg.BaseColor()
	variance := cfg.ColorVariance()
	r := base[0] + int(rng.Float64()*float64(variance[0]))
	g := base[1] + int(rng.Float64()*float64(variance[1]))
	b := base[2] + int(rng.Float64()*float64(variance[2]))
	return device.NewRGBPilot(r, g, b, brightness)
}

// drawBrightness picks a brightness within the configured range.
func drawBrightness(rng *rand.Rand, cfg *GroupConfig) int {
	briMin, briMax := cfg.BrightnessRange()
	return briMin + int(rng.Float64()*float64(briMax-briMin))
}

// flashPilot builds the flash overlay pilot for a group.
func flashPilot(cfg *GroupConfig) device.Pilot {
	color := cfg.FlashColor()
	return device.NewRGBPilot(color[0], color[1], color[2], cfg.FlashBrightness())
}
