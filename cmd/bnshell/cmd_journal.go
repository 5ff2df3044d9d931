package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"bnshell/internal/logging"
	"bnshell/internal/shell"
)

var journalFlags struct {
	limit       int
	interactive bool
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect and replay recorded sessions",
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded sessions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Show the entries of a session (an id prefix is enough)",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalReplayCmd = &cobra.Command{
	Use:   "replay <session>",
	Short: "Re-import the networks of a session and re-apply its evidence",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalReplay,
}

var journalDeleteCmd = &cobra.Command{
	Use:   "delete <session>",
	Short: "Delete a recorded session",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDelete,
}

func init() {
	journalListCmd.Flags().IntVarP(&journalFlags.limit, "limit", "n", 20, "number of sessions to list (0 for all)")
	journalReplayCmd.Flags().BoolVarP(&journalFlags.interactive, "interactive", "i", false, "continue in the shell after replaying")

	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalReplayCmd)
	journalCmd.AddCommand(journalDeleteCmd)
}

func runJournalList(cmd *cobra.Command, _ []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	sessions, err := j.ListSessions(cmd.Context(), journalFlags.limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded sessions")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTARTED\tCONTEXT\tENTRIES")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", shortID(s.ID), s.StartedAt.Local().Format(time.DateTime), s.Context, s.Entries)
	}
	return tw.Flush()
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	id, err := j.ResolveSession(ctx, args[0])
	if err != nil {
		return err
	}
	entries, err := j.Entries(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s (%d entries)\n", id, len(entries))
	for _, e := range entries {
		target := e.Network
		if e.Variable != "" {
			target += "." + e.Variable
		}
		line := fmt.Sprintf("%4d  %s  %-18s %s", e.Seq, e.CreatedAt.Local().Format(time.TimeOnly), e.Kind, target)
		switch {
		case e.Kind.IsImport() && e.Source != "":
			line += "  <- " + firstLine(e.Source)
		case e.Value != nil:
			line += fmt.Sprintf(" = %v", e.Value)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runJournalReplay(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	if app.cfg.Journal.Disabled {
		return fmt.Errorf("the journal is disabled")
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	id, err := j.ResolveSession(ctx, args[0])
	if err != nil {
		j.Close()
		return err
	}
	entries, err := j.Entries(ctx, id)
	j.Close()
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer closeInto(&err, s)

	applied, err := s.Replay(ctx, entries)
	if err != nil {
		return err
	}
	logging.New("journal").Info("session replayed", "from", id, "session", s.ID(), "applied", applied)
	fmt.Fprintf(cmd.OutOrStdout(), "Replayed %d of %d entries from %s into session %s\n", applied, len(entries), shortID(id), shortID(s.ID()))

	if !journalFlags.interactive {
		return nil
	}
	interactive := isatty.IsTerminal(os.Stdin.Fd())
	return shell.NewInterpreter(s, cmd.OutOrStdout()).Run(ctx, cmd.InOrStdin(), interactive)
}

func runJournalDelete(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer closeInto(&err, j)

	id, err := j.ResolveSession(ctx, args[0])
	if err != nil {
		return err
	}
	if err := j.DeleteSession(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", id)
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i] + " ..."
		}
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
