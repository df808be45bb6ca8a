// ABOUTME: CLI command reporting the latest run recorded in an output directory.
// ABOUTME: Reads the task start and finish records written by the runner.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/2389-research/ppiembed/internal/runner"
)

var statusCmd = &cobra.Command{
	Use:   "status <outdir>",
	Short: "Show the status of the latest run",
	Long:  "Summarize the most recent task records written into OUTDIR.",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	status, err := runner.ReadTaskStatus(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Started:  %s\n", time.Unix(status.Start.StartTime, 0).Format(time.RFC3339))
	fmt.Fprintf(out, "Version:  %s\n", status.Start.Version)
	fmt.Fprintf(out, "Login:    %s\n", status.Start.Login)
	if status.Finish == nil {
		fmt.Fprintln(out, "Finished: (running or interrupted)")
		return nil
	}
	fmt.Fprintf(out, "Finished: %s (%ds)\n", time.Unix(status.Finish.EndTime, 0).Format(time.RFC3339), status.Finish.ElapsedTime)
	fmt.Fprintf(out, "Status:   %d\n", status.Finish.Status)
	return nil
}
