package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var waitForCompletion bool

var navigateCmd = &cobra.Command{
	Use:   "navigate <target>",
	Short: "Send the robot to a zone or back to its dock",
	Args:  cobra.ExactArgs(1),
	RunE:  navigate,
}

func init() {
	navigateCmd.Flags().BoolVar(&waitForCompletion, "wait", false, "block until the task completes, times out or is superseded")
	rootCmd.AddCommand(navigateCmd)
}

func navigate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	defer closeService(svc)

	res := svc.Navigator.Navigate(ctx, args[0])
	fmt.Fprintln(cmd.OutOrStdout(), res.Outcome.Message)
	if !res.Outcome.Success {
		return fmt.Errorf("navigate %q: %s", args[0], res.Stage)
	}
	if !waitForCompletion || res.Handle == nil {
		return nil
	}
	state, err := res.Handle.Wait(ctx)
	if err != nil {
		return err
	}
	last, polls := res.Handle.LastStatus()
	fmt.Fprintf(cmd.OutOrStdout(), "monitor %s: %s (last status %s after %d polls)\n", res.Handle.ID, state, last, polls)
	return nil
}
