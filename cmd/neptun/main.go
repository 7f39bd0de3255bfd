// cmd/neptun/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tamzrod/neptun-bridge/internal/api"
	"github.com/tamzrod/neptun-bridge/internal/config"
	"github.com/tamzrod/neptun-bridge/internal/hub"
	hmodbus "github.com/tamzrod/neptun-bridge/internal/hub/modbus"
	"github.com/tamzrod/neptun-bridge/internal/logging"
	"github.com/tamzrod/neptun-bridge/internal/metrics"
	"github.com/tamzrod/neptun-bridge/internal/poller"
	"github.com/tamzrod/neptun-bridge/internal/registry"
	"github.com/tamzrod/neptun-bridge/internal/writer"
)

var version = "dev"

func main() {
	cfgPath := flag.String("config", "neptun.yaml", "path to config file")
	flag.Parse()

	// --------------------
	// Load + normalize + validate config
	// --------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	config.Normalize(cfg)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}

	logger, logCloser, err := logging.Init(cfg.Neptun.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("logging init failed")
	}
	defer logCloser.Close()

	sink, err := metrics.New(cfg.Neptun.Metrics, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("metrics disabled")
		sink = metrics.Nop{}
	}
	defer sink.Close()

	logger.Info().Str("config", *cfgPath).Int("hubs", len(cfg.Neptun.Hubs)).Str("version", version).Msg("starting neptun bridge")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := registry.New(logger, sink)

	// --------------------
	// Build per-hub pipelines
	// --------------------

	for _, hc := range cfg.Neptun.Hubs {
		if err := attach(ctx, reg, hc, cfg.Neptun.Poll, sink, logger); err != nil {
			logger.Fatal().Err(err).Str("hub", hc.Name).Msg("hub setup failed")
		}
	}

	srv, err := api.New(api.Deps{
		Listen:  cfg.Neptun.HTTP.Listen,
		Service: reg,
		Logger:  logger,
		Version: version,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api setup failed")
	}
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("api start failed")
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	if err := srv.Close(); err != nil {
		logger.Error().Err(err).Msg("api close failed")
	}
	if err := reg.CloseAll(); err != nil {
		logger.Error().Err(err).Msg("hub close failed")
	}
}

// attach builds transport, hub, mirror, writer and poller for one hub,
// registers it, and starts the poll loop. A failed initial connect is
// logged; the hub stays registered and can be connected later.
func attach(ctx context.Context, reg *registry.Registry, hc config.HubConfig, poll config.PollConfig, sink metrics.Sink, logger zerolog.Logger) error {
	c := hc.Connection

	tr, err := hmodbus.New(hmodbus.Config{
		Method:   c.Method,
		Port:     c.Port,
		BaudRate: c.BaudRate,
		DataBits: c.ByteSize,
		Parity:   c.Parity,
		StopBits: c.StopBits,
		Timeout:  c.TimeoutDuration(),
		Trace:    hc.Trace,
		Logger:   logger.With().Str("hub", hc.Name).Logger(),
	})
	if err != nil {
		return fmt.Errorf("transport: %w", err)
	}

	h, err := hub.New(hub.Config{Name: hc.Name, Logger: logger}, tr)
	if err != nil {
		return err
	}

	w, mirror, err := writer.Build(hc, h.Layout(), sink, logger)
	if err != nil {
		return err
	}
	if err := reg.Add(&registry.Entry{Hub: h, Mirror: mirror, Writer: w}); err != nil {
		return err
	}

	logger.Info().
		Str("hub", hc.Name).
		Str("port", c.Port).
		Str("method", c.Method).
		Int("baudrate", c.BaudRate).
		Strs("valves", hc.Valves).
		Msg("hub created")

	// The connect read fills the mirror; the poll loop takes over from the first tick.
	if _, err := reg.Connect(hc.Name); err != nil {
		logger.Warn().Err(err).Str("hub", hc.Name).Msg("initial connect failed")
	}

	p, err := poller.Build(hc, poll, h)
	if err != nil {
		return err
	}

	// ---- channel between poller and writer ----
	out := make(chan poller.PollResult)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case res := <-out:
				if err := w.Write(res); err != nil {
					logger.Warn().Err(err).Str("hub", res.Hub).Msg("writer error")
				}
			}
		}
	}()

	go p.Run(ctx, out)
	return nil
}
