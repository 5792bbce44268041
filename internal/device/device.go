package device

import "context"

// Controller drives one addressable fixture. Implementations own the wire
// protocol; callers only see "set pilot" and "turn off".
type Controller interface {
	// Addr returns the fixture address, used for logging.
	Addr() string

	// SetPilot applies the given pilot to the fixture.
	SetPilot(ctx context.Context, pilot Pilot) error

	// TurnOff switches the fixture off.
	TurnOff(ctx context.Context) error
}
