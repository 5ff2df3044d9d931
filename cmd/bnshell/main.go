// bnshell binds belief networks served by a remote engine context into an
// interactive shell.
//
// Usage:
//
//	bnshell shell [script]
//	bnshell export <network> [-f json|yaml|dot] [-o file]
//	bnshell journal list|show|replay|delete
//	bnshell registry list [host[:port]] | ping <name>
//	bnshell discover <target>...
//	bnshell kill
//	bnshell config show|init|path
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	endpoint   string
	logLevel   string
	policy     string
	noJournal  bool
}

var rootCmd = &cobra.Command{
	Use:   "bnshell",
	Short: "Interactive shell for a remote belief-network engine",
	Long: "bnshell binds belief networks parsed or looked up by a remote engine context\n" +
		"into a shell namespace, where variables can be inspected and evidence assigned.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&rootFlags.configPath, "config", "c", "", "config file (default: search $BNSHELL_CONFIG, ./bnshell.yaml, ~/.config/bnshell)")
	f.StringVar(&rootFlags.endpoint, "endpoint", "", "engine context endpoint, overrides engine.endpoint")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&rootFlags.policy, "policy", "", "caching policy: "+strings.Join(policyNames(), ", "))
	f.BoolVar(&rootFlags.noJournal, "no-journal", false, "do not record the session")

	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.Version = version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
