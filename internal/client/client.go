// Package client wires a RoleClient sim.World to a netchannel.Transport and
// drives its tick loop, replacing the teacher's placeholder Client (which
// predates the rollback/sim core and carried its own ad hoc
// PredictionBuffer/Reconciler — both superseded by internal/rollback and
// deleted; see DESIGN.md) with one built on the generalized stack.
package client

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andersfylling/rayman-slides/internal/config"
	"github.com/andersfylling/rayman-slides/internal/netchannel"
	"github.com/andersfylling/rayman-slides/internal/protocol"
	"github.com/andersfylling/rayman-slides/internal/sim"
)

// Client drives one RoleClient sim.World against a single server connection.
type Client struct {
	cfg       config.ClientConfig
	log       *logrus.Logger
	World     *sim.World
	Transport netchannel.Transport

	quit chan struct{}
	done chan struct{}
}

// New wires world to transport; world must already be sim.NewWorld(sim.RoleClient, ...).
func New(cfg config.ClientConfig, world *sim.World, transport netchannel.Transport, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.New()
	}
	world.Transport = transport
	return &Client{
		cfg:       cfg,
		log:       log,
		World:     world,
		Transport: transport,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Handshake exchanges protocol.Handshake messages on the REPLICATION channel
// and marks the world connected once both sides agree (§4.1, Invariant 1's
// connect-time check; the registry-length/tick-period mismatch cases are
// surfaced as errors, not silently tolerated).
func (c *Client) Handshake() error {
	local := protocol.Handshake{
		Version:         protocol.ProtocolVersion,
		PlayerName:      c.cfg.PlayerName,
		RegistryLength:  len(c.World.Reg.IDs()),
		TickPeriodMicro: c.World.Clock.Period.Microseconds(),
	}
	b, err := protocol.EncodeHandshake(&local)
	if err != nil {
		return fmt.Errorf("client: encode handshake: %w", err)
	}
	if err := c.Transport.Send(netchannel.Replication, b); err != nil {
		return fmt.Errorf("client: send handshake: %w", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		raw, ok := c.Transport.Recv(netchannel.Replication)
		if !ok {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		remote, err := protocol.DecodeHandshake(raw)
		if err != nil {
			return fmt.Errorf("client: decode handshake: %w", err)
		}
		if err := protocol.Compatible(local, remote); err != nil {
			return fmt.Errorf("client: %w", err)
		}
		c.World.SetConnected(true)
		c.log.WithField("server_version", remote.Version).Info("handshake complete")
		return nil
	}
	return fmt.Errorf("client: handshake timed out")
}

// Run drives one RunPass per tick period until Stop is called.
func (c *Client) Run() error {
	defer close(c.done)

	ticker := time.NewTicker(c.World.Clock.Period)
	defer ticker.Stop()

	for {
		select {
		case <-c.quit:
			return nil
		case <-ticker.C:
			c.World.Step()
		}
	}
}

// Stop halts the tick loop and waits for Run to return.
func (c *Client) Stop() {
	close(c.quit)
	<-c.done
}
