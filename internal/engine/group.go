package engine

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/moricard/tabletopd/internal/device"
	"github.com/moricard/tabletopd/internal/metrics"
)

// Group is a named, fixed collection of bulbs animated together. Membership
// is immutable after construction, so groups need no synchronization.
type Group struct {
	name    string
	members []device.Controller
}

// NewGroup creates a bulb group.
func NewGroup(name string, members []device.Controller) *Group {
	return &Group{name: name, members: members}
}

// Name returns the group name.
func (g *Group) Name() string {
	return g.name
}

// Size returns the number of bulbs in the group.
func (g *Group) Size() int {
	return len(g.members)
}

// ApplyPilot dispatches the pilot to every member concurrently and returns
// without waiting for acknowledgment. A failing bulb is logged and never
// affects the rest of the group; there are no retries, the next tick
// supersedes any missed command.
func (g *Group) ApplyPilot(pilot device.Pilot) {
	for _, member := range g.members {
		go g.dispatch(member, func(ctx context.Context) error {
			return member.SetPilot(ctx, pilot)
		}, "set pilot")
	}
}

// TurnOff switches every member off, fire-and-forget like ApplyPilot.
func (g *Group) TurnOff() {
	for _, member := range g.members {
		go g.dispatch(member, func(ctx context.Context) error {
			return member.TurnOff(ctx)
		}, "turn off")
	}
}

// dispatch runs one bulb command inside a recover boundary. Commands use a
// background context so an engine stop never cuts off in-flight commands;
// the device client bounds each command with its own timeout.
func (g *Group) dispatch(member device.Controller, cmd func(context.Context) error, what string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("group", g.name).
				Str("bulb", member.Addr()).
				Msg("Bulb command panicked")
		}
	}()

	metrics.CommandsSent.WithLabelValues(g.name).Inc()

	if err := cmd(context.Background()); err != nil {
		metrics.DispatchFailures.WithLabelValues(g.name).Inc()
		log.Warn().
			Err(err).
			Str("group", g.name).
			Str("bulb", member.Addr()).
			Msgf("Failed to %s bulb", what)
	}
}
