// Package presets loads named animation configurations from a directory.
// Each <name>.yaml file holds one animation configuration; the control API
// starts shows by preset name.
package presets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/moricard/tabletopd/internal/engine"
)

// Registry holds the loaded presets.
type Registry struct {
	presets map[string]*engine.Config
}

// Load reads every .yaml/.yml file in dir into the registry. A missing
// directory yields an empty registry; a malformed preset is an error.
func Load(dir string) (*Registry, error) {
	r := &Registry{presets: make(map[string]*engine.Config)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("dir", dir).Msg("Presets directory not found, starting with no presets")
			return r, nil
		}
		return nil, fmt.Errorf("failed to read presets directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read preset %s: %w", entry.Name(), err)
		}

		var cfg engine.Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse preset %s: %w", entry.Name(), err)
		}

		name := strings.TrimSuffix(entry.Name(), ext)
		r.presets[name] = &cfg
	}

	log.Info().Int("count", len(r.presets)).Str("dir", dir).Msg("Presets loaded")
	return r, nil
}

// Get returns the preset with the given name.
func (r *Registry) Get(name string) (*engine.Config, bool) {
	cfg, ok := r.presets[name]
	return cfg, ok
}

// Names returns all preset names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
