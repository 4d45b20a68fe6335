package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/homemind/config"
	"github.com/kilianp07/homemind/core/topology"
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "List the zones and dock phrases the robot understands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		r, err := topology.New(cfg.Topology)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, z := range r.Zones() {
			fmt.Fprintf(out, "%-12s %-6s room %d\n", z.ID, z.Name, z.RoomID)
		}
		dock := r.Dock()
		fmt.Fprintf(out, "%-12s %s\n\n", dock.ID, dock.Name)
		fmt.Fprintln(out, r.Help())
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Read the robot battery and status once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		svc, err := newService(ctx)
		if err != nil {
			return err
		}
		defer closeService(svc)
		st, err := svc.Telemetry.Read(ctx)
		if err != nil {
			return fmt.Errorf("read telemetry: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "battery %d%%, status %s (%s)\n", st.Battery, st.Status, st.RawStatus)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(zonesCmd, statusCmd)
}
