package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/mirage-vr/client/internal/backend"
	"github.com/mirage-vr/client/internal/client"
	"github.com/mirage-vr/client/internal/config"
	"github.com/mirage-vr/client/internal/sim"
	"github.com/mirage-vr/client/internal/stream"
	"github.com/mirage-vr/client/internal/telemetry"
)

func main() {
	app := cli.NewApp()
	app.Name = "mirage-client"
	app.Usage = "split-rendering headset client"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "path to yaml config file",
		},
		cli.BoolFlag{
			Name:  "sim",
			Usage: "use the loopback streaming engine instead of a remote host",
		},
		cli.StringFlag{
			Name:  "url",
			Usage: "override the streaming host url",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("client exited: %v", err)
	}
}

func run(cliCtx *cli.Context) error {
	cfg := config.Default()
	if path := cliCtx.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if url := cliCtx.String("url"); url != "" {
		cfg.Engine.URL = url
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The hardware runtime binding is platform-specific and linked per
	// device; this build runs against the simulated runtime.
	rt := sim.NewRuntime(sim.Options{RefreshRate: cfg.Headset.FallbackRefreshRate})

	var engine stream.Engine
	if cliCtx.Bool("sim") {
		log.Println("starting with loopback streaming engine")
		loopback := sim.NewLoopback(sim.Options{RefreshRate: cfg.Headset.FallbackRefreshRate})
		go loopback.Run(ctx)
		engine = loopback
	} else {
		dialCtx, cancel := context.WithTimeout(ctx, cfg.Engine.ConnectTimeout.Std())
		defer cancel()
		socket, err := stream.Dial(dialCtx, cfg.Engine.URL)
		if err != nil {
			return err
		}
		defer socket.Close()
		engine = socket
	}

	collector := telemetry.NewCollector(engine, cfg.Telemetry.Window)
	go collector.Run(ctx, cfg.Telemetry.Interval.Std())

	cl := client.New(cfg, rt, engine, &backend.Noop{}, collector)

	start := time.Now()
	err := cl.Run(ctx)
	log.Printf("client ran for %v", time.Since(start).Round(time.Second))
	return err
}
