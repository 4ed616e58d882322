package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nstehr/hive/memory"
	"github.com/nstehr/hive/model"
)

func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect persisted unit and room memory",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "ls [bucket...]",
		Short: "List memory keys with blob sizes (buckets: creeps, rooms)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig("warn")
			if err != nil {
				return err
			}
			if cfg.Memory.Kind != "sqlite" {
				return fmt.Errorf("memory.kind is %q; only sqlite memory outlives the process", cfg.Memory.Kind)
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			buckets := args
			if len(buckets) == 0 {
				buckets = []string{memory.BucketUnits, memory.BucketRooms}
			}
			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"Bucket", "Key", "Size", "Updated"}),
			)
			for _, b := range buckets {
				entries, err := store.List(cmd.Context(), b)
				if err != nil {
					return err
				}
				for _, e := range entries {
					table.Append([]string{b, e.Key, humanize.Bytes(uint64(e.Size)), humanize.Time(e.UpdatedAt)})
				}
			}
			table.Render()
			return nil
		},
	})
	return cmd
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the game_state payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := model.GameStateSchema()
			if err != nil {
				return err
			}
			fmt.Println(string(raw))
			return nil
		},
	}
}
