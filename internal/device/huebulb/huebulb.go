// Package huebulb adapts Philips Hue lights to the device controller
// interface, so a bulb group can mix WiZ and Hue fixtures.
package huebulb

import (
	"context"
	"fmt"
	"math"

	"github.com/amimof/huego"

	"github.com/moricard/tabletopd/internal/device"
)

// Bridge wraps a Hue bridge connection shared by all Hue fixtures.
type Bridge struct {
	bridge *huego.Bridge
}

// NewBridge creates a bridge handle. host is the bridge IP, user the
// registered application token.
func NewBridge(host, user string) *Bridge {
	return &Bridge{bridge: huego.New(host, user)}
}

// Light returns a controller for the Hue light with the given numeric id.
func (b *Bridge) Light(id int) *Light {
	return &Light{bridge: b.bridge, id: id}
}

// Light is a single Hue fixture. It implements device.Controller.
type Light struct {
	bridge *huego.Bridge
	id     int
}

// Addr returns the fixture address in the "hue:<id>" scheme.
func (l *Light) Addr() string {
	return fmt.Sprintf("hue:%d", l.id)
}

// SetPilot applies a pilot. RGB pilots map to CIE xy color; scene pilots have
// no Hue equivalent, so they map to the colorloop effect at the requested
// brightness.
func (l *Light) SetPilot(ctx context.Context, pilot device.Pilot) error {
	state := huego.State{On: true, Bri: hueBrightness(pilot.Brightness)}

	if pilot.Mode == device.ModeScene {
		state.Effect = "colorloop"
	} else {
		x, y := rgbToXY(pilot.R, pilot.G, pilot.B)
		state.Xy = []float32{x, y}
	}

	if _, err := l.bridge.SetLightStateContext(ctx, l.id, state); err != nil {
		return fmt.Errorf("failed to set hue light %d: %w", l.id, err)
	}
	return nil
}

// TurnOff switches the fixture off.
func (l *Light) TurnOff(ctx context.Context) error {
	if _, err := l.bridge.SetLightStateContext(ctx, l.id, huego.State{On: false}); err != nil {
		return fmt.Errorf("failed to turn off hue light %d: %w", l.id, err)
	}
	return nil
}

// hueBrightness maps 0..255 to the 1..254 range the Hue API accepts.
func hueBrightness(brightness uint8) uint8 {
	if brightness == 0 {
		return 1
	}
	if brightness == 255 {
		return 254
	}
	return brightness
}

// rgbToXY converts sRGB channels to CIE 1931 xy chromaticity using the
// standard Philips Hue conversion (gamma correction + Wide RGB D65 matrix).
func rgbToXY(r, g, b uint8) (float32, float32) {
	red := gammaCorrect(float64(r) / 255.0)
	green := gammaCorrect(float64(g) / 255.0)
	blue := gammaCorrect(float64(b) / 255.0)

	x := red*0.664511 + green*0.154324 + blue*0.162028
	y := red*0.283881 + green*0.668433 + blue*0.047685
	z := red*0.000088 + green*0.072310 + blue*0.986039

	sum := x + y + z
	if sum == 0 {
		// Black has no chromaticity; return the D65 white point.
		return 0.3127, 0.3290
	}

	return float32(x / sum), float32(y / sum)
}

func gammaCorrect(channel float64) float64 {
	if channel > 0.04045 {
		return math.Pow((channel+0.055)/1.055, 2.4)
	}
	return channel / 12.92
}
