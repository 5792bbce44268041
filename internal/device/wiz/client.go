// Package wiz implements the device controller for WiZ smart bulbs.
//
// WiZ bulbs speak a JSON-RPC style protocol over UDP port 38899. A single
// "setPilot" method covers colors, scene presets and power state.
package wiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/moricard/tabletopd/internal/device"
)

const (
	// DefaultPort is the UDP control port WiZ bulbs listen on.
	DefaultPort = 38899

	// DefaultTimeout bounds a single command round-trip.
	DefaultTimeout = 2 * time.Second
)

// ErrThrottled is returned when a command is dropped by the client-side rate
// limiter. A dropped command is superseded by the next animation tick, so
// callers treat this as a soft failure.
var ErrThrottled = errors.New("wiz: command rate limit exceeded")

// Client sends commands to WiZ bulbs. One client is shared by all bulbs so
// the rate limit applies to the whole installation.
type Client struct {
	port    int
	timeout time.Duration
	limiter *rate.Limiter
}

// NewClient creates a WiZ client. rateLimitRPS bounds the total command rate
// across all bulbs; 0 uses a default of 50 commands per second.
func NewClient(port int, timeout time.Duration, rateLimitRPS float64) *Client {
	if port == 0 {
		port = DefaultPort
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if rateLimitRPS == 0 {
		rateLimitRPS = 50.0
	}

	return &Client{
		port:    port,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(rateLimitRPS), int(math.Ceil(rateLimitRPS))),
	}
}

// Bulb returns a controller for the bulb at the given IP address.
func (c *Client) Bulb(ip string) *Bulb {
	return &Bulb{client: c, ip: ip}
}

// Bulb is a single WiZ fixture. It implements device.Controller.
type Bulb struct {
	client *Client
	ip     string
}

// Addr returns the bulb IP address.
func (b *Bulb) Addr() string {
	return b.ip
}

// SetPilot applies a pilot to the bulb.
func (b *Bulb) SetPilot(ctx context.Context, pilot device.Pilot) error {
	params := encodePilot(pilot)
	return b.client.send(ctx, b.ip, message{Method: "setPilot", Params: &params})
}

// TurnOff switches the bulb off.
func (b *Bulb) TurnOff(ctx context.Context) error {
	off := false
	return b.client.send(ctx, b.ip, message{Method: "setPilot", Params: &pilotParams{State: &off}})
}

// message is a WiZ JSON-RPC request.
type message struct {
	Method string       `json:"method"`
	Params *pilotParams `json:"params,omitempty"`
}

// pilotParams carries the setPilot arguments. WiZ expects brightness as a
// "dimming" percentage in 10..100.
type pilotParams struct {
	State   *bool `json:"state,omitempty"`
	R       *int  `json:"r,omitempty"`
	G       *int  `json:"g,omitempty"`
	B       *int  `json:"b,omitempty"`
	SceneID *int  `json:"sceneId,omitempty"`
	Speed   *int  `json:"speed,omitempty"`
	Dimming *int  `json:"dimming,omitempty"`
}

// response is the bulb's reply to a command.
type response struct {
	Method string `json:"method"`
	Result *struct {
		Success bool `json:"success"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// encodePilot converts a device pilot into WiZ wire parameters.
func encodePilot(p device.Pilot) pilotParams {
	on := true
	dimming := dimmingPercent(p.Brightness)
	params := pilotParams{State: &on, Dimming: &dimming}

	switch p.Mode {
	case device.ModeScene:
		id := p.SceneID
		speed := p.Speed
		params.SceneID = &id
		params.Speed = &speed
	default:
		r, g, b := int(p.R), int(p.G), int(p.B)
		params.R = &r
		params.G = &g
		params.B = &b
	}

	return params
}

// dimmingPercent maps a 0..255 brightness to the 10..100 percent range the
// bulbs accept.
func dimmingPercent(brightness uint8) int {
	percent := int(math.Round(float64(brightness) / 255.0 * 100.0))
	if percent < 10 {
		percent = 10
	}
	return percent
}

// send issues one command datagram and waits for the bulb's reply within the
// client timeout.
func (c *Client) send(ctx context.Context, ip string, msg message) error {
	if !c.limiter.Allow() {
		return ErrThrottled
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode command: %w", err)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", fmt.Sprintf("%s:%d", ip, c.port))
	if err != nil {
		return fmt.Errorf("failed to dial bulb %s: %w", ip, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set deadline: %w", err)
	}

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("failed to send command to %s: %w", ip, err)
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil {
		return fmt.Errorf("no reply from bulb %s: %w", ip, err)
	}

	var resp response
	if err := json.Unmarshal(buf[:n], &resp); err != nil {
		return fmt.Errorf("bad reply from bulb %s: %w", ip, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("bulb %s rejected command: %s (code %d)", ip, resp.Error.Message, resp.Error.Code)
	}

	log.Debug().Str("bulb", ip).Str("method", msg.Method).Msg("Command acknowledged")
	return nil
}
