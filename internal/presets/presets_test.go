package presets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/moricard/tabletopd/internal/engine"
)

const tavernPreset = `
cycletime: 12
groups:
  backdrop:
    type: rgb
    rgb:
      base: [180, 90, 30]
      variance: [40, 20, 10]
    brightness:
      min: 74
      max: 255
    flash:
      probability: 0.05
  overhead:
    type: inherit_backdrop
  battlefield:
    type: "off"
`

func writePreset(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write preset: %v", err)
	}
}

func TestLoadPresets(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "tavern.yaml", tavernPreset)
	writePreset(t, dir, "dungeon.yml", "cycletime: 20\ngroups:\n  backdrop:\n    type: scene\n")
	writePreset(t, dir, "notes.txt", "not a preset")

	r, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "dungeon" || names[1] != "tavern" {
		t.Fatalf("Names() = %v, want [dungeon tavern]", names)
	}

	tavern, ok := r.Get("tavern")
	if !ok {
		t.Fatal("tavern preset missing")
	}
	if tavern.CycleTime != 12 {
		t.Errorf("cycletime = %f, want 12", tavern.CycleTime)
	}

	backdrop := tavern.Groups[engine.GroupBackdrop]
	if backdrop == nil {
		t.Fatal("backdrop group missing")
	}
	if got := backdrop.BaseColor(); got != [3]int{180, 90, 30} {
		t.Errorf("base color = %v", got)
	}
	if got := backdrop.FlashProbability(); got != 0.05 {
		t.Errorf("flash probability = %f, want 0.05", got)
	}

	overhead := tavern.Groups[engine.GroupOverhead]
	if overhead == nil || overhead.GetType() != engine.TypeInheritBackdrop {
		t.Error("overhead should inherit backdrop")
	}

	battlefield := tavern.Groups[engine.GroupBattlefield]
	if battlefield == nil || battlefield.IsEnabled() {
		t.Error("battlefield should be disabled by type off")
	}
}

func TestLoadMissingDirIsEmpty(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing dir must not be an error, got: %v", err)
	}
	if len(r.Names()) != 0 {
		t.Errorf("Names() = %v, want empty", r.Names())
	}
	if _, ok := r.Get("tavern"); ok {
		t.Error("Get on empty registry must miss")
	}
}

func TestLoadMalformedPresetFails(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "broken.yaml", "groups: [not, a, map]")

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for malformed preset")
	}
}
