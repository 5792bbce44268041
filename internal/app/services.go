package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/moricard/tabletopd/internal/config"
	"github.com/moricard/tabletopd/internal/control"
	"github.com/moricard/tabletopd/internal/db"
	"github.com/moricard/tabletopd/internal/device"
	"github.com/moricard/tabletopd/internal/device/huebulb"
	"github.com/moricard/tabletopd/internal/device/wiz"
	"github.com/moricard/tabletopd/internal/engine"
	"github.com/moricard/tabletopd/internal/presets"
	"github.com/moricard/tabletopd/internal/state"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB    *db.DB
	Store *state.Store

	// Domain
	Presets *presets.Registry
	Engine  *engine.Engine
	Control *control.Server
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	// Initialize database
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database

	// Initialize show store
	s.Store = state.NewStore(database.DB)

	// Load presets
	s.Presets, err = presets.Load(cfg.Presets.Dir)
	if err != nil {
		s.Close()
		return nil, err
	}

	// Build bulb groups. With lights disabled the engine gets no groups at
	// all, so no device clients are ever created.
	groups := map[string]*engine.Group{}
	if !cfg.LightsDisabled {
		groups, err = buildGroups(cfg)
		if err != nil {
			s.Close()
			return nil, err
		}
	}

	// Initialize the animation engine
	s.Engine = engine.New(groups, cfg.LightsDisabled)

	// Initialize the control server
	s.Control = control.NewServer(cfg.Control.Host, cfg.Control.Port, s.Engine, s.Presets, s.Store)

	return s, nil
}

// buildGroups creates the device controllers for every configured bulb and
// wires them into the canonical groups. Plain addresses are WiZ bulb IPs;
// "hue:<id>" addresses go through the Hue bridge.
func buildGroups(cfg *config.Config) (map[string]*engine.Group, error) {
	wizClient := wiz.NewClient(cfg.Wiz.Port, cfg.Wiz.Timeout.Duration(), cfg.Wiz.RateLimitRPS)

	var bridge *huebulb.Bridge
	if cfg.Hue.Bridge != "" {
		bridge = huebulb.NewBridge(cfg.Hue.Bridge, cfg.Hue.Token)
	}

	groups := make(map[string]*engine.Group, len(cfg.Bulbs.Groups))
	for name, addrs := range cfg.Bulbs.Groups {
		members := make([]device.Controller, 0, len(addrs))
		for _, addr := range addrs {
			if id, ok := strings.CutPrefix(addr, "hue:"); ok {
				if bridge == nil {
					return nil, fmt.Errorf("bulb %q in group %q needs a hue.bridge configuration", addr, name)
				}
				lightID, err := strconv.Atoi(id)
				if err != nil {
					return nil, fmt.Errorf("bad hue light id in %q (group %q): %w", addr, name, err)
				}
				members = append(members, bridge.Light(lightID))
				continue
			}
			members = append(members, wizClient.Bulb(addr))
		}
		groups[name] = engine.NewGroup(name, members)

		log.Debug().Str("group", name).Int("bulbs", len(members)).Msg("Bulb group created")
	}

	return groups, nil
}

// Start starts the background services.
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	// Restore the persisted show before opening the control surface.
	if s.cfg.RestoreShow {
		if err := s.Control.Restore(); err != nil {
			log.Warn().Err(err).Msg("Failed to restore persisted show")
		}
	}

	go func() {
		if err := s.Control.Run(ctx, s.cfg.ShutdownTimeout.Duration()); err != nil {
			onFatalError(fmt.Errorf("control server failed: %w", err))
		}
	}()

	return nil
}

// ClearShowState clears the persisted show.
func (s *Services) ClearShowState() error {
	return s.Store.Clear()
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	s.Close()
	return nil
}

// Close releases all resources.
func (s *Services) Close() {
	if s.Engine != nil {
		s.Engine.Stop()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
