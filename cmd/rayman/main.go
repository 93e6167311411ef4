// Command rayman is the game client. It connects to a rayserver instance,
// predicts its own player's attack spawns, and resimulates on a confirmed
// desync once the server's snapshot arrives.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/mlange-42/ark/ecs"
	"github.com/sirupsen/logrus"

	"github.com/andersfylling/rayman-slides/internal/client"
	"github.com/andersfylling/rayman-slides/internal/config"
	"github.com/andersfylling/rayman-slides/internal/demo"
	"github.com/andersfylling/rayman-slides/internal/inputhist"
	"github.com/andersfylling/rayman-slides/internal/inputnet"
	"github.com/andersfylling/rayman-slides/internal/markers"
	"github.com/andersfylling/rayman-slides/internal/netchannel"
	"github.com/andersfylling/rayman-slides/internal/sim"
	"github.com/andersfylling/rayman-slides/internal/tick"
)

// Version is set at build time.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a client config YAML file (defaults are used if omitted)")
	flag.Parse()

	log := logrus.New()
	log.Infof("rayman %s starting", Version)

	cfg := config.DefaultClientConfig()
	if *configPath != "" {
		loaded, err := config.LoadClientConfig(*configPath)
		if err != nil {
			log.WithError(err).Fatal("load config")
		}
		cfg = loaded
	}

	world := sim.NewWorld(sim.RoleClient, secondsPerTick(cfg.TickRate))
	sim.RegisterReplicatedComponent(world, demo.SerializeMarker, demo.DeserializeMarker)
	world.AddSystem(tick.PhaseResync, nil, sim.ClientResyncSystem(func(err error) {
		log.WithError(err).Warn("resync failed")
	}))
	world.AddSystem(tick.PhaseUpdate, sim.ClientConnected, demo.NewAttackSpawnSystem(world))

	controlMap := ecs.NewMap1[markers.Control](world.Ark)
	intentMap := ecs.NewMap1[demo.CurrentIntent](world.Ark)
	historyMap := ecs.NewMap1[inputhist.History[demo.Intent]](world.Ark)

	player := world.Ark.NewEntity()
	controlMap.Add(player, &markers.Control{})
	intentMap.Add(player, &demo.CurrentIntent{})
	historyMap.Add(player, inputhist.New(demo.Edge))

	codec := inputnet.Codec[demo.Intent]{Serialize: demo.SerializeIntent, Deserialize: demo.DeserializeIntent}

	// PreUpdate: a live input source (e.g. a terminal key-state poll) would
	// record this tick's Intent into historyMap before this system runs;
	// here the recorded edge is only ever whatever CopyFromHistorySystem
	// (during resimulation) or the live source installed.
	world.AddSystem(tick.PhasePreUpdate, sim.Resimulating, func(w *sim.World) {
		inputnet.CopyFromHistorySystem(w.Ark, controlMap, historyMap, w.Clock.Tick(), func(e ecs.Entity, s demo.Intent) {
			cur := intentMap.Get(e)
			cur.Intent = demo.Edge(cur.Intent, s)
		})
	})
	world.AddSystem(tick.PhasePreUpdate, func(w *sim.World) bool {
		return sim.ClientConnected(w) && !sim.Resimulating(w)
	}, func(w *sim.World) {
		if err := inputnet.SendSystem(w.Ark, controlMap, historyMap, world.Applier.NetIDs(), w.Transport, codec, w.Clock.Tick()); err != nil {
			log.WithError(err).Warn("input send failed")
		}
	})

	transport, err := netchannel.NewUDPTransport(":0", cfg.ServerAddr, netchannel.DefaultChannelSet().Names, cfg.ResendTimeout, cfg.ChannelCeiling)
	if err != nil {
		log.WithError(err).Fatal("dial")
	}
	defer transport.Close()

	c := client.New(cfg, world, transport, log)
	if err := c.Handshake(); err != nil {
		log.WithError(err).Fatal("handshake")
	}

	if err := c.Run(); err != nil {
		log.WithError(err).Error("client run")
	}
	os.Exit(0)
}

func secondsPerTick(rate int) time.Duration {
	if rate <= 0 {
		return tick.DefaultPeriod
	}
	return time.Second / time.Duration(rate)
}
