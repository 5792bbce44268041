// Package engine implements the lighting animation engine: a continuous
// loop that computes randomized pilots per bulb group, dispatches them
// fire-and-forget, and supports hot-swapping the animation configuration
// without interrupting output.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/moricard/tabletopd/internal/metrics"
)

// Engine owns a set of bulb groups and runs the animation loop over them.
// The loop is a single goroutine; per-bulb dispatch fans out from it. The
// only mutable state shared with callers is the held configuration, guarded
// by mu.
type Engine struct {
	groups   map[string]*Group
	disabled bool

	mu      sync.Mutex
	current *Config

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	rng *rand.Rand
}

// New creates an engine over the given groups. When disabled is set, every
// operation is a no-op; the flag is per-instance so engines under test do
// not interfere with each other.
func New(groups map[string]*Group, disabled bool) *Engine {
	return &Engine{
		groups:   groups,
		disabled: disabled,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start stores the configuration, applies one immediate initialization pass
// so the bulbs are never left in a stale state between sessions, and
// launches the animation loop in the background. Calling Start on a running
// engine hot-swaps the configuration instead of spawning a second loop.
func (e *Engine) Start(cfg *Config) {
	if e.disabled {
		log.Debug().Msg("Lights disabled, ignoring start")
		return
	}

	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.running {
		log.Warn().Msg("Animation loop already running, hot-swapping configuration instead")
		e.setConfig(cfg)
		return
	}

	e.setConfig(cfg)
	e.initialize(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running = true
	metrics.EngineRunning.Set(1)

	go e.run(ctx)
}

// UpdateConfig hot-swaps the animation configuration. The running pass
// keeps using its captured plan; the loop adopts the new configuration at
// the top of the next pass, so the lights never go dark during a swap.
func (e *Engine) UpdateConfig(cfg *Config) {
	if e.disabled {
		return
	}

	e.setConfig(cfg)
	log.Info().Msg("Animation configuration hot-swapped")
}

// Stop cancels the loop and waits for it to exit. After Stop returns, the
// loop dispatches nothing further. Stopping an idle engine is a no-op.
func (e *Engine) Stop() {
	if e.disabled {
		return
	}

	e.runMu.Lock()
	defer e.runMu.Unlock()

	if !e.running {
		return
	}

	e.cancel()
	<-e.done
	e.running = false
	metrics.EngineRunning.Set(0)
	log.Info().Msg("Animation loop stopped")
}

// IsRunning reports whether the animation loop is active.
func (e *Engine) IsRunning() bool {
	if e.disabled {
		return false
	}

	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.running
}

func (e *Engine) setConfig(cfg *Config) {
	e.mu.Lock()
	e.current = cfg
	e.mu.Unlock()
}

func (e *Engine) currentConfig() *Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// planGroup pairs a bulb group with its effective configuration for a pass.
type planGroup struct {
	group *Group
	cfg   *GroupConfig
}

// plan is the loop's working set, rebuilt whenever the held configuration
// changes identity.
type plan struct {
	groups       []planGroup
	perBulbDelay time.Duration
	cycle        time.Duration
}

// buildPlan resolves inheritance and enablement for the canonical groups.
// Disabled groups are turned off right here, on every resolution; groups
// absent from the configuration are left untouched. The combined bulb count
// of the enabled groups drives per-bulb pacing.
func (e *Engine) buildPlan(cfg *Config) *plan {
	p := &plan{cycle: cfg.CycleDuration()}

	totalBulbs := 0
	for _, name := range canonicalGroups {
		group, ok := e.groups[name]
		if !ok {
			continue
		}

		effective := resolveInheritance(name, cfg.Groups)
		if effective == nil {
			continue
		}

		if !effective.IsEnabled() {
			group.TurnOff()
			continue
		}

		p.groups = append(p.groups, planGroup{group: group, cfg: effective})
		totalBulbs += group.Size()
	}

	// A plan with only empty groups still paces one full cycle per pass.
	p.perBulbDelay = p.cycle
	if totalBulbs > 0 {
		p.perBulbDelay = p.cycle / time.Duration(totalBulbs)
	}

	return p
}

// safeBuildPlan contains resolution panics; a failed resolution yields an
// empty plan and the loop idles until the next configuration change.
func (e *Engine) safeBuildPlan(cfg *Config) (p *plan) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Configuration resolution panicked")
			p = &plan{cycle: cfg.CycleDuration(), perBulbDelay: cfg.CycleDuration()}
		}
	}()
	return e.buildPlan(cfg)
}

// initialize applies each enabled group once and turns off disabled groups,
// synchronously and without pacing delays.
func (e *Engine) initialize(cfg *Config) {
	p := e.safeBuildPlan(cfg)
	for _, pg := range p.groups {
		pg.group.ApplyPilot(computePilot(e.rng, pg.cfg))
	}
}

// run is the animation loop. It exits only through context cancellation;
// dispatch errors and panics are contained per group.
func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	log.Info().Msg("Animation loop started")

	cfg := e.currentConfig()
	p := e.safeBuildPlan(cfg)

	for {
		if ctx.Err() != nil {
			return
		}

		// Adopt a hot-swapped configuration. Identity comparison is enough:
		// configs are immutable, a swap always installs a new pointer.
		if latest := e.currentConfig(); latest != cfg {
			cfg = latest
			p = e.safeBuildPlan(cfg)
			log.Info().Msg("Adopted hot-swapped configuration")
		}

		metrics.AnimationPasses.Inc()
		log.Debug().Int("groups", len(p.groups)).Msg("Animation pass started")

		if len(p.groups) == 0 {
			if !e.sleep(ctx, p.cycle) {
				return
			}
			continue
		}

		// Fresh visiting order every pass.
		e.rng.Shuffle(len(p.groups), func(i, j int) {
			p.groups[i], p.groups[j] = p.groups[j], p.groups[i]
		})

		for _, pg := range p.groups {
			if ctx.Err() != nil {
				return
			}
			e.animateGroup(ctx, pg, p.perBulbDelay)
		}
	}
}

// animateGroup runs one tick for one group: the flash overlay if triggered,
// then the steady pilot, then the pacing delay. Panics are contained so one
// bad group configuration never kills the loop.
func (e *Engine) animateGroup(ctx context.Context, pg planGroup, perBulbDelay time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("group", pg.group.Name()).
				Msg("Group animation panicked")
		}
	}()

	if prob := pg.cfg.FlashProbability(); prob > 0 && e.rng.Float64() < prob {
		pg.group.ApplyPilot(flashPilot(pg.cfg))
		if !e.sleep(ctx, pg.cfg.FlashDuration()) {
			return
		}
	}

	if ctx.Err() != nil {
		return
	}

	pg.group.ApplyPilot(computePilot(e.rng, pg.cfg))
	e.sleep(ctx, perBulbDelay)
}

// sleep waits for d or until the loop is cancelled. Returns false when
// cancelled.
func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
