package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bnshell/internal/binding"
	"bnshell/internal/codec"
)

var exportFlags struct {
	format   string
	output   string
	file     bool
	evidence string
}

var exportCmd = &cobra.Command{
	Use:   "export <network>",
	Short: "Export a network snapshot as JSON, YAML or Graphviz DOT",
	Long: "Export looks the network up through the naming service, or parses it from a\n" +
		"description file with --file, and writes a snapshot of its variables.",
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportFlags.format, "format", "f", "", "json, yaml or dot (default: from --output, else json)")
	f.StringVarP(&exportFlags.output, "output", "o", "", "output file (default: stdout)")
	f.BoolVar(&exportFlags.file, "file", false, "treat the argument as a description file")
	f.StringVar(&exportFlags.evidence, "evidence", "", "JSON or YAML snapshot whose evidence is applied first")
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()

	format := exportFlags.format
	if format == "" {
		format = codec.FormatFromPath(exportFlags.output)
	}
	if format == "" {
		format = "json"
	}
	if _, err := codec.ExporterFor(format); err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer closeInto(&err, s)

	var n *binding.Network
	if exportFlags.file {
		n, err = s.ImportFile(ctx, args[0])
	} else {
		n, err = s.ImportRemote(ctx, args[0])
	}
	if err != nil {
		return err
	}

	if exportFlags.evidence != "" {
		if _, err := s.ApplyFile(ctx, n, exportFlags.evidence); err != nil {
			return err
		}
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportFlags.output != "" {
		f, ferr := os.Create(exportFlags.output)
		if ferr != nil {
			return ferr
		}
		defer closeInto(&err, f)
		w = f
	}
	if err := s.Export(ctx, n, format, w); err != nil {
		return err
	}
	if exportFlags.output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", exportFlags.output)
	}
	return nil
}
