package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Ask the engine context process to exit",
	Args:  cobra.NoArgs,
	RunE:  runKill,
}

func runKill(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	client, err := dialEngine(ctx)
	if err != nil {
		return err
	}
	if err := client.Exit(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Engine context at %s asked to exit\n", client.Name())
	return nil
}
