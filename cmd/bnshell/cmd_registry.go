package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Query the naming service",
}

var registryListCmd = &cobra.Command{
	Use:   "list [host[:port]]",
	Short: "List the networks bound in a naming service",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRegistryList,
}

var registryPingCmd = &cobra.Command{
	Use:   "ping <name>",
	Short: "Resolve a network name and report how long it took",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistryPing,
}

func init() {
	registryCmd.AddCommand(registryListCmd)
	registryCmd.AddCommand(registryPingCmd)
}

func runRegistryList(cmd *cobra.Command, args []string) error {
	var target string
	if len(args) > 0 {
		target = args[0]
	}
	host, port, err := splitHostPort(target)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := dialEngine(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	names, err := client.List(ctx, host, port)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runRegistryPing(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := dialEngine(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	start := time.Now()
	n, err := client.Lookup(ctx, args[0])
	if err != nil {
		return err
	}
	name, err := n.Name(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: network %s answered in %s\n", args[0], name, time.Since(start).Round(time.Microsecond))
	return nil
}
