// Package server drives one authoritative sim.World and fans its per-tick
// snapshot out to every connected Session, generalizing the teacher's
// goroutine+mutex Session bookkeeping (QueueInput/DrainInputs, one session
// per accepted connection) from a single hardcoded game.World onto the
// reusable sim.World core.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/andersfylling/rayman-slides/internal/config"
	"github.com/andersfylling/rayman-slides/internal/metrics"
	"github.com/andersfylling/rayman-slides/internal/netchannel"
	"github.com/andersfylling/rayman-slides/internal/protocol"
	"github.com/andersfylling/rayman-slides/internal/sim"
)

// Session is one connected player's network link. Its ID is a connection-
// lifecycle identifier distinct from the NetID the Emitter mints for the
// player's entity on the replication wire.
type Session struct {
	ID         xid.ID
	PlayerName string
	Transport  netchannel.Transport
}

// InputDrainFunc pulls and applies one session's pending InputPacket for the
// tick that just elapsed. The caller closes over the concrete input state
// type via inputnet.ServerApplySystem[S] and the session's registered
// history component map; Server itself stays domain-agnostic.
type InputDrainFunc func(transport netchannel.Transport) error

// Server owns one authoritative sim.World (Role == sim.RoleServer) and the
// set of Sessions replicating against it.
type Server struct {
	cfg config.ServerConfig
	log *logrus.Logger

	World *sim.World

	mu         sync.RWMutex
	sessions   map[xid.ID]*Session
	inputDrain InputDrainFunc

	quit chan struct{}
	done chan struct{}
}

// New wires world (already sim.NewWorld(sim.RoleServer, ...)) into a Server.
func New(cfg config.ServerConfig, world *sim.World, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		cfg:      cfg,
		log:      log,
		World:    world,
		sessions: make(map[xid.ID]*Session),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// SetInputDrain installs the per-tick input drain callback; nil disables
// input processing (useful for a server with no Control-marked entities).
func (s *Server) SetInputDrain(fn InputDrainFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputDrain = fn
}

// AddSession registers a newly accepted connection.
func (s *Server) AddSession(playerName string, transport netchannel.Transport) *Session {
	sess := &Session{ID: xid.New(), PlayerName: playerName, Transport: transport}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{"session": sess.ID.String(), "player": playerName}).Info("session connected")
	return sess
}

// RemoveSession drops a disconnected session.
func (s *Server) RemoveSession(id xid.ID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.log.WithField("session", id.String()).Info("session disconnected")
}

func (s *Server) snapshotSessions() ([]*Session, InputDrainFunc) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out, s.inputDrain
}

// Run drives the tick loop at cfg.TickRate until ctx is cancelled or Stop is
// called: fan in every session's pending input, advance the simulation one
// step, then fan the resulting snapshot out to every session.
func (s *Server) Run(ctx context.Context) error {
	defer close(s.done)

	period := time.Second / time.Duration(s.cfg.TickRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.quit:
			return nil
		case <-ticker.C:
			if err := s.tick(); err != nil {
				s.log.WithError(err).Warn("tick error")
			}
		}
	}
}

// tick drains every session's pending input and steps the world. Draining
// runs serially, one session at a time: drain wraps a system that
// structurally mutates the shared ark World (history component adds,
// History.Restore), and ark's World is not safe for concurrent structural
// mutation — the tick loop is single-threaded and cooperative (§5).
func (s *Server) tick() error {
	sessions, drain := s.snapshotSessions()

	if drain != nil {
		for _, sess := range sessions {
			if err := drain(sess.Transport); err != nil {
				s.log.WithError(err).WithField("session", sess.ID.String()).Warn("input drain error")
			}
		}
	}

	s.World.Step()

	return s.broadcast(sessions)
}

func (s *Server) broadcast(sessions []*Session) error {
	if s.World.Emitter == nil {
		return nil
	}
	snap := s.World.Emitter.Emit(s.World.Clock.Tick())
	b, err := protocol.EncodeSnapshot(&snap)
	if err != nil {
		return fmt.Errorf("server: encode snapshot: %w", err)
	}
	for _, sess := range sessions {
		if err := sess.Transport.Send(netchannel.Replication, b); err != nil {
			s.log.WithError(err).WithField("session", sess.ID.String()).Warn("snapshot send failed")
			continue
		}
		metrics.SnapshotsSent.Inc()
	}
	return nil
}

// Stop halts the tick loop and waits for Run to return.
func (s *Server) Stop() {
	close(s.quit)
	<-s.done
}
