// Package device defines the light-output descriptor (Pilot) and the
// controller capability used to drive a single network-addressable fixture.
package device

import "fmt"

// PilotMode distinguishes the two pilot variants.
type PilotMode int

const (
	ModeRGB PilotMode = iota
	ModeScene
)

// Pilot is a single desired light-output state for a bulb. It is immutable;
// a fresh Pilot is built for every tick.
type Pilot struct {
	Mode PilotMode

	// RGB mode
	R, G, B uint8

	// Scene mode
	SceneID int
	Speed   int

	// Shared
	Brightness uint8
}

// NewRGBPilot builds an RGB pilot, clamping each channel and the brightness
// to [0,255]. Inputs may exceed the range when a variance draw pushes a raw
// sum above 255.
func NewRGBPilot(r, g, b, brightness int) Pilot {
	return Pilot{
		Mode:       ModeRGB,
		R:          clampByte(r),
		G:          clampByte(g),
		B:          clampByte(b),
		Brightness: clampByte(brightness),
	}
}

// NewScenePilot builds a scene pilot. Speed is clamped to the range the
// bulbs accept (10..200), brightness to [0,255].
func NewScenePilot(sceneID, speed, brightness int) Pilot {
	if speed < 10 {
		speed = 10
	}
	if speed > 200 {
		speed = 200
	}
	return Pilot{
		Mode:       ModeScene,
		SceneID:    sceneID,
		Speed:      speed,
		Brightness: clampByte(brightness),
	}
}

func (p Pilot) String() string {
	if p.Mode == ModeScene {
		return fmt.Sprintf("scene(id=%d speed=%d bri=%d)", p.SceneID, p.Speed, p.Brightness)
	}
	return fmt.Sprintf("rgb(%d,%d,%d bri=%d)", p.R, p.G, p.B, p.Brightness)
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
