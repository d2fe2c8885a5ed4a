// Package cli defines the carctl command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chaz8081/carctl/internal/ble"
	"github.com/chaz8081/carctl/internal/car"
	"github.com/chaz8081/carctl/internal/config"
	"github.com/chaz8081/carctl/internal/controller"
	"github.com/chaz8081/carctl/internal/input"
	"github.com/chaz8081/carctl/internal/tui"
)

// CLI is the root command structure for carctl.
type CLI struct {
	Config  string `help:"Path to config file (default: ~/.config/carctl/config.yaml)" type:"path"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Drive   DriveCmd   `cmd:"" default:"withargs" help:"Interactive driving screen (default)"`
	Monitor MonitorCmd `cmd:"" help:"Pair and hold the link, logging telemetry and battery"`
	Scan    ScanCmd    `cmd:"" help:"List nearby BLE advertisements"`
	Send    SendCmd    `cmd:"" help:"Connect to an address and send a single control frame"`
}

// setup loads the config and installs the logger. Shared by every command.
func setup(globals *CLI) (*config.Config, error) {
	cfg, err := loadConfig(globals.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	level := parseLevel(cfg.LogLevel)
	if globals.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	return cfg, nil
}

// loadConfig loads the config from the specified path, or falls back to the
// default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, nil
	}

	return config.Default(), nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildCodec creates the configured protocol codec and telemetry sink.
func buildCodec(cfg *config.Config) (car.Codec, *car.Telemetry, error) {
	if cfg.Variant == config.VariantCrypt {
		codec, err := car.NewCryptCodec(cfg.Key())
		if err != nil {
			return nil, nil, err
		}
		return codec, car.NewTelemetry(codec.Block()), nil
	}
	return car.PlainCodec{Mode: byte(cfg.Mode)}, car.NewTelemetry(nil), nil
}

func matcherFrom(cfg *config.Config) car.Matcher {
	return car.Matcher{
		NamePrefix:      cfg.NamePrefix,
		AddressContains: cfg.AddressContains,
	}
}

func enabledAdapter() (*ble.TinygoAdapter, error) {
	adapter := ble.NewTinygoAdapter()
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable bluetooth: %w", err)
	}
	return adapter, nil
}

func loopOptions(cfg *config.Config) controller.Options {
	return controller.Options{
		ScanWindow:    time.Duration(cfg.ScanWindowMS) * time.Millisecond,
		FrameInterval: time.Duration(cfg.FrameIntervalMS) * time.Millisecond,
	}
}

// stopVehicle sends one neutral frame so the car halts before we drop the
// link.
func stopVehicle(session *car.Session, codec car.Codec) {
	frame, err := codec.Encode(input.Neutral())
	if err != nil {
		return
	}
	if err := session.WriteFrame(frame); err != nil {
		slog.Debug("[cli] stop frame not sent", "err", err)
	}
}

// --- drive ---

// DriveCmd runs the interactive driving screen on top of the control loop.
type DriveCmd struct{}

func (c *DriveCmd) Run(globals *CLI) error {
	cfg, err := setup(globals)
	if err != nil {
		return err
	}
	codec, telemetry, err := buildCodec(cfg)
	if err != nil {
		return err
	}
	adapter, err := enabledAdapter()
	if err != nil {
		return err
	}

	session := car.NewSession(adapter, matcherFrom(cfg), telemetry)
	state := &input.State{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := controller.New(session, codec, state, loopOptions(cfg))
	loopDone := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(loopDone)
	}()

	err = tui.Run(state, session, codec, telemetry)

	// Wait for the loop to finish so no movement frame lands after the stop
	// frame.
	cancel()
	<-loopDone
	stopVehicle(session, codec)
	session.Close()
	return err
}

// --- monitor ---

// MonitorCmd pairs and keeps the link alive with neutral frames, logging
// whatever the vehicle pushes back. Useful for protocol archaeology.
type MonitorCmd struct{}

func (c *MonitorCmd) Run(globals *CLI) error {
	cfg, err := setup(globals)
	if err != nil {
		return err
	}
	codec, telemetry, err := buildCodec(cfg)
	if err != nil {
		return err
	}
	adapter, err := enabledAdapter()
	if err != nil {
		return err
	}

	session := car.NewSession(adapter, matcherFrom(cfg), telemetry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("[cli] monitoring, ctrl+c to quit")
	loop := controller.New(session, codec, input.Fixed(input.Neutral()), loopOptions(cfg))
	loop.Run(ctx)

	stopVehicle(session, codec)
	return session.Close()
}

// --- scan ---

// ScanCmd lists advertisements heard during one scan window.
type ScanCmd struct {
	Window int  `default:"5" help:"Scan window in seconds"`
	All    bool `help:"List every advertisement, not just matching vehicles"`
}

func (c *ScanCmd) Run(globals *CLI) error {
	cfg, err := setup(globals)
	if err != nil {
		return err
	}
	adapter, err := enabledAdapter()
	if err != nil {
		return err
	}
	matcher := matcherFrom(cfg)

	fmt.Printf("Scanning for %ds...\n", c.Window)
	devices, err := car.ScanAll(context.Background(), adapter, time.Duration(c.Window)*time.Second)
	if err != nil {
		return err
	}

	shown := 0
	for _, adv := range devices {
		match := matcher.Matches(adv)
		if !match && !c.All {
			continue
		}
		shown++
		marker := " "
		if match {
			marker = "*"
		}
		name := adv.Name
		if name == "" {
			name = "(no name)"
		}
		fmt.Printf("%s %-20s %s  RSSI %d\n", marker, adv.Address, name, adv.RSSI)
	}
	if shown == 0 {
		fmt.Println("No devices found.")
	}
	return nil
}

// --- send ---

// SendCmd connects to an explicit address and emits one control frame, then
// optionally stays subscribed to telemetry for a while. Mirrors the original
// validation tool: direction flags map to the frame's digital bits.
type SendCmd struct {
	Address string `arg:"" help:"Hardware address of the vehicle"`

	Forward  bool `help:"Set the forward bit"`
	Backward bool `help:"Set the reverse bit"`
	Left     bool `help:"Set the left bit"`
	Right    bool `help:"Set the right bit"`
	Lights   bool `help:"Lights on"`
	Turbo    bool `help:"Turbo on"`
	Donut    bool `help:"Donut on"`

	Listen int `default:"0" help:"Seconds to keep listening for telemetry after sending"`
}

func (c *SendCmd) Run(globals *CLI) error {
	cfg, err := setup(globals)
	if err != nil {
		return err
	}
	codec, telemetry, err := buildCodec(cfg)
	if err != nil {
		return err
	}
	adapter, err := enabledAdapter()
	if err != nil {
		return err
	}

	session := car.NewSession(adapter, matcherFrom(cfg), telemetry)
	if err := session.SetTarget(c.Address); err != nil {
		return err
	}
	if err := session.Pair(context.Background()); err != nil {
		return err
	}
	defer session.Close()

	snapshot := car.Snapshot{
		Forward:  !c.Forward, // pressed pulls the line low
		Backward: !c.Backward,
		Left:     !c.Left,
		Right:    !c.Right,
		Lights:   c.Lights,
		Turbo:    c.Turbo,
		Donut:    c.Donut,
	}
	frame, err := codec.Encode(snapshot)
	if err != nil {
		return err
	}
	if err := session.WriteFrame(frame); err != nil {
		return err
	}
	fmt.Printf("Sent %x\n", frame)

	if c.Listen > 0 {
		slog.Info("[cli] listening for telemetry", "seconds", c.Listen)
		time.Sleep(time.Duration(c.Listen) * time.Second)
	}

	stopVehicle(session, codec)
	return nil
}
