package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"bnshell/internal/shell"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Run the statements of a script file",
	Args:  cobra.ExactArgs(1),
	RunE:  runScript,
}

func runShell(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer closeInto(&err, s)

	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	if interactive {
		fmt.Fprintf(cmd.OutOrStdout(), "bnshell %s, engine context %s, session %s\n", version, s.Context().Name(), s.ID())
		fmt.Fprintln(cmd.OutOrStdout(), `Type "help" for the statements and commands.`)
	}
	return shell.NewInterpreter(s, cmd.OutOrStdout()).Run(ctx, cmd.InOrStdin(), interactive)
}

func runScript(cmd *cobra.Command, args []string) (err error) {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer closeInto(&err, s)

	return shell.NewInterpreter(s, cmd.OutOrStdout()).Run(ctx, f, false)
}
