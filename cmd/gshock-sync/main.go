package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/godbus/dbus/v5"

	"github.com/user/gshock-sync/casio"
	"github.com/user/gshock-sync/config"
	"github.com/user/gshock-sync/logger"
	"github.com/user/gshock-sync/session"
	"github.com/user/gshock-sync/statusfeed"
	"github.com/user/gshock-sync/util"
	"github.com/user/gshock-sync/wire"
	"github.com/user/gshock-sync/wire/bluez"
	"github.com/user/gshock-sync/wire/debug"
	"github.com/user/gshock-sync/wire/sim"
)

func main() {
	configPath := flag.String("config", util.GetConfigPath(), "Path to YAML config file")
	transport := flag.String("transport", "", "Transport: bluez or sim")
	address := flag.String("address", "", "Bluetooth address of the watch")
	multiWatch := flag.Bool("multi-watch", false, "Connect to any watch, not only the remembered one")
	excluded := flag.String("excluded", "", "Comma separated watch names to ignore")
	fineAdjust := flag.Int("fine-adjustment-secs", 0, "Seconds added to the time written to the watch (-10..10)")
	logLevel := flag.String("log-level", "", "Log level: trace, debug, info, warn, error")
	packets := flag.Bool("log-packets", false, "Append watch traffic to debug/packets.jsonl in the data dir")
	feed := flag.String("feed", "", "host:port for the websocket status feed")
	simButton := flag.String("sim-button", "lower-left", "Button the simulated watch reports: lower-left, lower-right, none, find")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("config load failed: %v", err)
	}

	// flags override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "transport":
			cfg.Transport = *transport
		case "address":
			cfg.Device.Address = *address
		case "multi-watch":
			cfg.Device.MultiWatch = *multiWatch
		case "excluded":
			cfg.Device.ExcludedWatches = strings.Split(*excluded, ",")
		case "fine-adjustment-secs":
			cfg.Sync.FineAdjustmentSecs = *fineAdjust
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-packets":
			cfg.Log.Packets = *packets
		case "feed":
			cfg.Feed.Listen = *feed
		}
	})

	if err := config.Validate(cfg); err != nil {
		fatal("config validation failed: %v", err)
	}
	config.Normalize(cfg)
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.DebugJSON("main", "config", cfg)

	dataDir, err := util.EnsureDataDir()
	if err != nil {
		fatal("data dir: %v", err)
	}
	store, err := config.OpenStore(util.GetStatePath())
	if err != nil {
		fatal("state store: %v", err)
	}
	rememberAddress(store, cfg.Device.Address)
	logger.Debug("main", "data dir %s", dataDir)

	packetLog := debug.NewPacketLogger(filepath.Join(dataDir, "debug"), cfg.Log.Packets)
	if cfg.Log.Packets {
		logger.Info("main", "recording watch traffic to %s", packetLog.Path())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scanner, dial, closeTransport, err := buildTransport(ctx, cfg, *simButton)
	if err != nil {
		fatal("transport: %v", err)
	}
	defer closeTransport()

	runner := session.NewRunner(scanner, dial, store, session.Options{
		FineAdjustment:  cfg.Sync.FineAdjustment(),
		MultiWatch:      cfg.Device.MultiWatch,
		ExcludedWatches: cfg.Device.ExcludedWatches,
		RequestTimeout:  cfg.Sync.RequestTimeout(),
		ScanTimeout:     cfg.Sync.ScanTimeout(),
		Idle:            cfg.Sync.Idle(),
		PacketLog:       packetLog,
	})

	if cfg.Feed.Listen != "" {
		hub := statusfeed.NewHub()
		hub.Attach(runner)
		runner.SetDisplay(hub)
		go func() {
			if err := hub.Serve(ctx, cfg.Feed.Listen); err != nil {
				logger.Error("main", "status feed stopped: %v", err)
			}
		}()
	}

	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		fatal("sync loop: %v", err)
	}
	logger.Info("main", "shutting down")
}

func buildTransport(ctx context.Context, cfg *config.Config, simButton string) (wire.Scanner, func() wire.Transport, func(), error) {
	if cfg.Transport == config.TransportSim {
		w := sim.NewWatch(sim.DefaultConfig())
		w.PressButton(parseButton(simButton))
		logger.Info("main", "using simulated watch %s (%s)", w.Config().Name, w.Config().Address)
		return w.Scanner(), func() wire.Transport { return w.Transport() }, func() {}, nil
	}

	conn, err := bluez.Dial()
	if err != nil {
		return nil, nil, nil, err
	}
	adapter := dbus.ObjectPath(cfg.Device.Adapter)
	scanner := bluez.NewScanner(conn, adapter)
	if err := scanner.EnsurePowered(ctx); err != nil {
		conn.Close()
		return nil, nil, nil, err
	}
	dial := func() wire.Transport { return bluez.NewTransport(conn, adapter) }
	return scanner, dial, func() { conn.Close() }, nil
}

// rememberAddress pins the configured watch address in the state store
func rememberAddress(store session.Store, address string) {
	if address == "" {
		return
	}
	if err := store.Set(session.KeyAddress, address); err != nil {
		logger.Warn("main", "failed to store %s: %v", session.KeyAddress, err)
	}
}

func parseButton(name string) casio.WatchButton {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lower-right":
		return casio.ButtonLowerRight
	case "none":
		return casio.ButtonNone
	case "find":
		return casio.ButtonFind
	}
	return casio.ButtonLowerLeft
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
