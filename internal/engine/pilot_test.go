package engine

import (
	"math/rand"
	"testing"

	"github.com/moricard/tabletopd/internal/device"
)

func TestComputePilotRGBStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	// Variance pushes raw sums well above 255; clamping must hold.
	cfg := &GroupConfig{
		Type:       TypeRGB,
		RGB:        &RGBConfig{Base: []int{200, 200, 200}, Variance: []int{100, 100, 100}},
		Brightness: &BrightnessConfig{Min: intPtr(50), Max: intPtr(255)},
	}

	for i := 0; i < 1000; i++ {
		p := computePilot(rng, cfg)
		if p.Mode != device.ModeRGB {
			t.Fatalf("Mode = %v, want rgb", p.Mode)
		}
		if p.Brightness < 50 {
			t.Fatalf("brightness = %d, below configured min", p.Brightness)
		}
		// uint8 fields cannot exceed 255; the interesting check is that the
		// raw sums were clamped high, not wrapped.
		if p.R < 200 || p.G < 200 || p.B < 200 {
			t.Fatalf("channel below base: rgb(%d,%d,%d)", p.R, p.G, p.B)
		}
	}
}

func TestComputePilotSceneStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	cfg := &GroupConfig{
		Type:       TypeScene,
		Scene:      &SceneConfig{IDs: []int{5, 28, 31}, SpeedMin: intPtr(20), SpeedMax: intPtr(80)},
		Brightness: &BrightnessConfig{Min: intPtr(100), Max: intPtr(200)},
	}
	valid := map[int]bool{5: true, 28: true, 31: true}

	for i := 0; i < 1000; i++ {
		p := computePilot(rng, cfg)
		if p.Mode != device.ModeScene {
			t.Fatalf("Mode = %v, want scene", p.Mode)
		}
		if !valid[p.SceneID] {
			t.Fatalf("scene id %d not in configured list", p.SceneID)
		}
		if p.Speed < 20 || p.Speed > 80 {
			t.Fatalf("speed = %d, outside [20,80]", p.Speed)
		}
		if p.Brightness < 100 || p.Brightness > 200 {
			t.Fatalf("brightness = %d, outside [100,200]", p.Brightness)
		}
	}
}

func TestComputePilotFixedConfigIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	// Zero variance and a collapsed brightness range leave nothing to draw.
	cfg := &GroupConfig{
		Type:       TypeRGB,
		RGB:        &RGBConfig{Base: []int{10, 10, 10}, Variance: []int{0, 0, 0}},
		Brightness: &BrightnessConfig{Min: intPtr(50), Max: intPtr(50)},
	}

	for i := 0; i < 100; i++ {
		p := computePilot(rng, cfg)
		if p.R != 10 || p.G != 10 || p.B != 10 || p.Brightness != 50 {
			t.Fatalf("pilot = %s, want rgb(10,10,10 bri=50)", p)
		}
	}
}

func TestComputePilotUnresolvedInheritRendersAsRGB(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	// A group left with a literal inherit type (unresolvable target) must
	// degrade to its own rgb settings instead of producing nothing.
	cfg := &GroupConfig{
		Type: TypeInheritBackdrop,
		RGB:  &RGBConfig{Base: []int{1, 2, 3}, Variance: []int{0, 0, 0}},
	}

	p := computePilot(rng, cfg)
	if p.Mode != device.ModeRGB {
		t.Fatalf("Mode = %v, want rgb", p.Mode)
	}
	if p.R != 1 || p.G != 2 || p.B != 3 {
		t.Errorf("pilot = %s, want rgb(1,2,3)", p)
	}
}

func TestFlashPilotDefaults(t *testing.T) {
	p := flashPilot(&GroupConfig{})
	if p.Mode != device.ModeRGB || p.R != 255 || p.G != 255 || p.B != 255 || p.Brightness != 255 {
		t.Errorf("flash pilot = %s, want full-brightness white", p)
	}
}

func TestFlashPilotConfigured(t *testing.T) {
	cfg := &GroupConfig{
		Flash: &FlashConfig{Color: []int{255, 0, 0}, Brightness: intPtr(230)},
	}
	p := flashPilot(cfg)
	if p.R != 255 || p.G != 0 || p.B != 0 || p.Brightness != 230 {
		t.Errorf("flash pilot = %s, want rgb(255,0,0 bri=230)", p)
	}
}
