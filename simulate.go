package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nstehr/hive/agent"
	"github.com/nstehr/hive/config"
	"github.com/nstehr/hive/memory"
	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/sim"
	"github.com/nstehr/hive/world"
)

func simulateCmd() *cobra.Command {
	var (
		level string
		ticks int
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the controller against a generated room offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(level)
			if err != nil {
				return err
			}
			if ticks > 0 {
				cfg.Sim.Ticks = ticks
			}
			if cmd.Flags().Changed("seed") {
				cfg.Sim.Seed = seed
			}
			printBanner()
			return simulate(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&level, "log-level", "warn", "override log.level")
	cmd.Flags().IntVarP(&ticks, "ticks", "n", 0, "ticks to run (overrides sim.ticks)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "room seed (overrides sim.seed; 0 is random)")
	return cmd
}

type simTotals struct {
	harvested, built, upgraded, transferred, moves, rejected int
	spawned, finished, levelUps, events, errors             int
}

func simulate(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	opts, err := runnerOptions(cfg)
	if err != nil {
		return err
	}
	runner := agent.NewRunner(memory.NewCodec(store), engine, opts)
	if runner.Journal = openJournal(cfg); runner.Journal != nil {
		defer runner.Journal.Close()
	}

	s := sim.Generate(sim.Options{Seed: cfg.Sim.Seed, Room: cfg.Sim.Room, Sources: cfg.Sim.Sources})
	color.New(color.FgCyan).Printf("Simulating %s for %s ticks\n\n", s.Room(), humanize.Comma(int64(cfg.Sim.Ticks)))

	var tot simTotals
	start := time.Now()
	for range cfg.Sim.Ticks {
		snap := world.NewSnapshot(s.State(), s.Terrain())
		rep, err := runner.RunTick(ctx, snap)
		if err != nil {
			return err
		}
		st := s.Step(snap.Intents())

		tot.harvested += st.Harvested
		tot.built += st.Built
		tot.upgraded += st.Upgraded
		tot.transferred += st.Transferred
		tot.moves += st.Moves
		tot.rejected += st.Rejected
		tot.spawned += len(st.Spawned)
		tot.finished += len(st.Finished)
		tot.levelUps += st.LevelUps
		tot.events += len(rep.Events)
		tot.errors += rep.Errors
	}
	elapsed := time.Since(start)

	printTotals(tot)
	printUnits(ctx, runner.Memory, s.State())

	color.New(color.FgGreen, color.Bold).Printf("\n✓ %s ticks in %s\n", humanize.Comma(int64(cfg.Sim.Ticks)), elapsed.Round(time.Millisecond))
	return nil
}

func printTotals(t simTotals) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Metric", "Total"}),
	)
	rows := []struct {
		name  string
		value int
	}{
		{"energy harvested", t.harvested},
		{"energy delivered", t.transferred},
		{"build progress", t.built},
		{"upgrade progress", t.upgraded},
		{"moves", t.moves},
		{"rejected intents", t.rejected},
		{"units spawned", t.spawned},
		{"sites finished", t.finished},
		{"controller levels", t.levelUps},
		{"colony events", t.events},
		{"unit errors", t.errors},
	}
	for _, r := range rows {
		table.Append([]string{r.name, humanize.Comma(int64(r.value))})
	}
	table.Render()
	fmt.Println()
}

func printUnits(ctx context.Context, codec *memory.Codec, gs model.GameState) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Unit", "Role", "Goal", "Pos", "Energy", "Stuck"}),
	)
	for _, u := range gs.Units {
		rec, _, err := codec.LoadUnit(ctx, u.Name)
		if err != nil {
			rec = memory.UnitRecord{}
		}
		table.Append([]string{
			u.Name,
			string(rec.Role),
			rec.Goal.String(),
			fmt.Sprintf("%d,%d", u.Pos.X, u.Pos.Y),
			fmt.Sprintf("%d/%d", u.Store.Energy, u.Store.Capacity),
			fmt.Sprintf("%d", rec.Stuck),
		})
	}
	table.Render()
}
