package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/pokerroom/internal/config"
	"github.com/lox/pokerroom/internal/gateway"
	"github.com/lox/pokerroom/internal/room"
)

var CLI struct {
	Config   string `short:"c" default:"pokerroom.hcl" help:"Path to HCL configuration file"`
	LogLevel string `short:"l" default:"info" help:"Log level (debug, info, warn, error)"`

	Watch WatchCmd `cmd:"" help:"Follow a room as a spectator"`
	Join  JoinCmd  `cmd:"" help:"Take a seat in the room, then follow it"`
}

type WatchCmd struct{}

func (w *WatchCmd) Run(app *App) error {
	return app.run(func(context.Context, *gateway.Relay) error { return nil })
}

type JoinCmd struct {
	Seat  int   `short:"s" required:"" help:"Seat index to take"`
	BuyIn int64 `short:"b" required:"" help:"Buy-in amount in chip units"`
}

func (j *JoinCmd) Run(app *App) error {
	return app.run(func(ctx context.Context, relay *gateway.Relay) error {
		if err := relay.JoinRoom(ctx, j.Seat, j.BuyIn); err != nil {
			return fmt.Errorf("joining room: %w", err)
		}
		app.logger.Info("Joined room", "seat", j.Seat, "buyIn", j.BuyIn)
		return nil
	})
}

// App carries what every subcommand needs.
type App struct {
	cfg    *config.Config
	logger *log.Logger
}

// run connects to the relay, runs the subcommand's setup, bootstraps the
// room machine and follows it until interrupted.
func (a *App) run(setup func(context.Context, *gateway.Relay) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relay, err := gateway.Dial(ctx, gateway.Config{
		URL:           a.cfg.Relay.URL,
		RoomID:        a.cfg.Room.ID,
		ChainID:       a.cfg.Relay.ChainID,
		PlayerAddress: a.cfg.Relay.PlayerAddress,
		Logger:        a.logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = relay.Terminate() }()

	if err := setup(ctx, relay); err != nil {
		return err
	}

	initial, err := relay.InitialContext()
	if err != nil {
		return err
	}
	initial.SmallBlind = orDefault(initial.SmallBlind, a.cfg.Room.SmallBlind)
	initial.MinimumEntryBalance = orDefault(initial.MinimumEntryBalance, a.cfg.Room.MinimumEntry)
	if initial.SeatsCount == 0 {
		initial.SeatsCount = a.cfg.Room.Seats
	}

	history, err := relay.History()
	if err != nil {
		return err
	}

	a.logger.Info("Bootstrapping room",
		"room", a.cfg.Room.ID,
		"round", initial.RoundID,
		"players", len(initial.Players),
		"history", len(history))

	supervisor, err := room.Bootstrap(ctx, room.SupervisorConfig{
		Gateway:         relay,
		Logger:          a.logger,
		NewRoundDelay:   a.cfg.Room.NewRoundDelay(),
		AutoActionDelay: a.cfg.Room.AutoActionDelay(),
	}, initial, history)
	if err != nil {
		return fmt.Errorf("bootstrapping room: %w", err)
	}
	defer supervisor.Stop()

	state, _ := supervisor.Snapshot()
	a.logger.Info("Room is live", "state", state)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	a.logger.Info("Shutting down")
	return nil
}

func orDefault(value, fallback int64) int64 {
	if value == 0 {
		return fallback
	}
	return value
}

func main() {
	kctx := kong.Parse(&CLI)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch CLI.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	err = kctx.Run(&App{cfg: cfg, logger: logger})
	kctx.FatalIfErrorf(err)
}
