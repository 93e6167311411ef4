// Command rayserver is the dedicated, headless game server: it holds the
// one authoritative sim.World, accepts UDP client connections, and
// replicates the world to every connected rayman client at its tick rate.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mlange-42/ark/ecs"
	"github.com/sirupsen/logrus"

	"github.com/andersfylling/rayman-slides/internal/config"
	"github.com/andersfylling/rayman-slides/internal/demo"
	"github.com/andersfylling/rayman-slides/internal/inputhist"
	"github.com/andersfylling/rayman-slides/internal/inputnet"
	"github.com/andersfylling/rayman-slides/internal/markers"
	"github.com/andersfylling/rayman-slides/internal/netchannel"
	"github.com/andersfylling/rayman-slides/internal/server"
	"github.com/andersfylling/rayman-slides/internal/sim"
	"github.com/andersfylling/rayman-slides/internal/tick"
)

// Version is set at build time.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a server config YAML file (defaults are used if omitted)")
	flag.Parse()

	log := logrus.New()
	log.Infof("rayserver %s starting", Version)

	cfg := config.DefaultServerConfig()
	if *configPath != "" {
		loaded, err := config.LoadServerConfig(*configPath)
		if err != nil {
			log.WithError(err).Fatal("load config")
		}
		cfg = loaded
	}

	world := sim.NewWorld(sim.RoleServer, secondsPerTick(cfg.TickRate))
	sim.RegisterReplicatedComponent(world, demo.SerializeMarker, demo.DeserializeMarker)
	world.AddSystem(tick.PhaseUpdate, nil, demo.NewAttackSpawnSystem(world))
	world.AddSystem(tick.PhasePostUpdate, nil, sim.ServerEmitSystem(func(err error) {
		log.WithError(err).Warn("snapshot emit failed")
	}))

	controlMap := ecs.NewMap1[markers.Control](world.Ark)
	intentMap := ecs.NewMap1[demo.CurrentIntent](world.Ark)
	historyMap := ecs.NewMap1[inputhist.History[demo.Intent]](world.Ark)

	player := world.Ark.NewEntity()
	controlMap.Add(player, &markers.Control{})
	intentMap.Add(player, &demo.CurrentIntent{})

	codec := inputnet.Codec[demo.Intent]{Serialize: demo.SerializeIntent, Deserialize: demo.DeserializeIntent}

	world.AddSystem(tick.PhasePreUpdate, nil, func(w *sim.World) {
		inputnet.CopyFromHistorySystem(w.Ark, controlMap, historyMap, w.Clock.Tick(), func(e ecs.Entity, s demo.Intent) {
			cur := intentMap.Get(e)
			cur.Intent = demo.Edge(cur.Intent, s)
		})
	})

	srv := server.New(cfg, world, log)
	srv.SetInputDrain(func(transport netchannel.Transport) error {
		return inputnet.ServerApplySystem(transport, world.Emitter.NetIDs(), historyMap, codec, demo.Edge)
	})

	listener, err := netchannel.NewUDPTransport(cfg.ListenAddr, "", netchannel.DefaultChannelSet().Names, cfg.ResendTimeout, cfg.ChannelCeiling)
	if err != nil {
		log.WithError(err).Fatal("listen")
	}
	// A single accepted connection is treated as one session; a real
	// multi-client listener would demux by remote address before handing
	// out per-session transports.
	srv.AddSession("player", listener)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("addr", cfg.ListenAddr).Info("server ready")
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("server run")
	}
	listener.Close()
	log.Info("server stopped")
}

func secondsPerTick(rate int) time.Duration {
	if rate <= 0 {
		return tick.DefaultPeriod
	}
	return time.Second / time.Duration(rate)
}
