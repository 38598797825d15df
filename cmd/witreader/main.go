// cmd/witreader/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/witmotion-modbus/internal/config"
)

type flags struct {
	config   string
	device   string
	address  string
	interval int
	baud     int
	verbose  bool
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("witreader", flag.ContinueOnError)

	fs.StringVar(&f.config, "c", "", "YAML config file")
	fs.StringVar(&f.config, "config", "", "YAML config file")
	fs.StringVar(&f.device, "d", "", "serial device, e.g. /dev/ttyUSB0")
	fs.StringVar(&f.device, "device", "", "serial device, e.g. /dev/ttyUSB0")
	fs.StringVar(&f.address, "a", "", "slave address, hex (0x50) or decimal; 255 discovers")
	fs.StringVar(&f.address, "address", "", "slave address, hex (0x50) or decimal; 255 discovers")
	fs.IntVar(&f.interval, "i", 0, "poll interval in ms (default 500)")
	fs.IntVar(&f.interval, "interval", 0, "poll interval in ms (default 500)")
	fs.IntVar(&f.baud, "b", 0, "force baud rate instead of detecting it")
	fs.IntVar(&f.baud, "baud", 0, "force baud rate instead of detecting it")
	fs.BoolVar(&f.verbose, "v", false, "debug logging and raw register dump")
	fs.BoolVar(&f.verbose, "verbose", false, "debug logging and raw register dump")

	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	if fs.NArg() > 0 {
		return flags{}, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	return f, nil
}

// loadConfig reads the file when one is given and lays the flags over it.
func loadConfig(f flags) (*config.Config, error) {
	var cfg *config.Config
	if f.config != "" {
		c, err := config.Load(f.config)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = config.Default(f.device)
	}

	r := &cfg.Reader
	if f.device != "" {
		r.Serial.Device = f.device
	}
	if f.address != "" {
		r.Sensor.Address = f.address
	}
	if f.interval != 0 {
		r.Poll.IntervalMs = f.interval
	}
	if f.baud != 0 {
		r.Serial.Baud = f.baud
	}
	if f.verbose {
		r.Sinks.Console.Verbose = true
	}
	return cfg, nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	log := newLogger(f.verbose)

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := loadConfig(f)
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}
	config.Normalize(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Connect + build sinks
	// --------------------

	app, cleanup, err := InitApp(ctx, cfg, log, os.Stdout)
	if err != nil {
		stop()
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer cleanup()

	if err := app.Run(ctx); err != nil {
		log.Error().Err(err).Msg("poll loop failed")
	}
}
