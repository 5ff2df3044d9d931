package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"bnshell/internal/config"
)

var configFlags struct {
	yaml  bool
	force bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with the defaults",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show which configuration file is used",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configShowCmd.Flags().BoolVar(&configFlags.yaml, "yaml", false, "print the configuration as YAML")
	configInitCmd.Flags().BoolVarP(&configFlags.force, "force", "f", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if configFlags.yaml {
		data, err := yaml.Marshal(app.cfg)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}
	if app.cfgPath != "" {
		fmt.Fprintf(out, "Config: %s\n", app.cfgPath)
	} else {
		fmt.Fprintln(out, "Config: none found, using defaults")
	}
	fmt.Fprintln(out, app.cfg.Summary())
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultConfigPath()
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !configFlags.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if app.cfgPath != "" {
		fmt.Fprintln(out, app.cfgPath)
		return nil
	}
	fmt.Fprintf(out, "none found; default location is %s\n", config.DefaultConfigPath())
	return nil
}
