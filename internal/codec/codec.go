package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"bnshell/internal/domain"
)

// Importer interface for reading network snapshots from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.NetworkSnapshot, error)
	Format() string
}

// Exporter interface for writing network snapshots to various formats
type Exporter interface {
	Export(snap *domain.NetworkSnapshot, w io.Writer) error
	Format() string
}

// ExporterFor returns the exporter registered for a format name
func ExporterFor(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	case "dot", "gv", "graphviz":
		return NewDOTCodec(), nil
	}
	return nil, fmt.Errorf("unknown export format %q (want json, yaml or dot)", format)
}

// ImporterFor returns the importer registered for a format name. DOT output cannot
// be read back.
func ImporterFor(format string) (Importer, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("unknown import format %q (want json or yaml)", format)
}

// FormatFromPath guesses the format from a file extension, or returns "".
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".dot", ".gv":
		return "dot"
	}
	return ""
}
