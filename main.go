package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nstehr/hive/agent"
	"github.com/nstehr/hive/config"
	"github.com/nstehr/hive/journal"
	"github.com/nstehr/hive/memory"
	"github.com/nstehr/hive/rules"
)

const banner = `
██╗  ██╗██╗██╗   ██╗███████╗
██║  ██║██║██║   ██║██╔════╝
███████║██║██║   ██║█████╗
██╔══██║██║╚██╗ ██╔╝██╔══╝
██║  ██║██║ ╚████╔╝ ███████╗
╚═╝  ╚═╝╚═╝  ╚═══╝  ╚══════╝

Tick-Driven Colony Controller`

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "hive",
		Short:         "Per-tick unit controller for room-based colony simulations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults when empty)")

	root.AddCommand(serveCmd(), simulateCmd(), memoryCmd(), schemaCmd())

	if err := root.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printBanner() {
	color.New(color.FgYellow, color.Bold).Println(banner)
	fmt.Println()
}

// loadConfig reads the config and installs the default logger at its level.
func loadConfig(level string) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if level != "" {
		cfg.Log.Level = level
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	return cfg, nil
}

func openStore(cfg config.Config) (memory.Store, error) {
	switch cfg.Memory.Kind {
	case "sqlite":
		return memory.OpenSQLite(cfg.Memory.Path)
	default:
		return memory.NewMapStore(), nil
	}
}

func newEngine(cfg config.Config) (*rules.Engine, error) {
	rs, err := cfg.RuleSet()
	if err != nil {
		return nil, err
	}
	return rules.NewEngine(rs)
}

func runnerOptions(cfg config.Config) (agent.Options, error) {
	body, err := cfg.BodyParts()
	if err != nil {
		return agent.Options{}, err
	}
	return agent.Options{
		Body:       body,
		CacheTTL:   cfg.Rooms.CacheTTL,
		MaxOps:     cfg.Planner.MaxOps,
		StuckLimit: cfg.Stuck.Limit,
		AvoidTicks: cfg.Stuck.AvoidTicks,
	}, nil
}

// openJournal returns nil when the journal is disabled.
func openJournal(cfg config.Config) *journal.Writer {
	if cfg.Journal.Dir == "" {
		return nil
	}
	return journal.NewWriter(cfg.Journal.Dir)
}
