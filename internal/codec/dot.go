package codec

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"bnshell/internal/domain"
)

// DOTCodec exports a network as a Graphviz digraph. Evidence variables are filled
// gray; parents that live outside the network are drawn yellow.
type DOTCodec struct{}

// NewDOTCodec creates a new DOT codec
func NewDOTCodec() *DOTCodec {
	return &DOTCodec{}
}

// Format returns the codec format identifier
func (c *DOTCodec) Format() string {
	return "dot"
}

// Export writes a snapshot as DOT
func (c *DOTCodec) Export(snap *domain.NetworkSnapshot, w io.Writer) error {
	var sb strings.Builder

	local := make(map[string]bool, len(snap.Variables))
	for _, v := range snap.Variables {
		local[v.Name] = true
	}
	id := func(name string) string {
		return quote(snap.Name + "." + name)
	}

	fmt.Fprintf(&sb, "digraph %s {\n", quote(snap.Name))

	// Parents from other networks are not part of any subgraph.
	lost := make(map[string]bool)
	for _, v := range snap.Variables {
		for _, p := range v.Parents {
			if !local[p] {
				lost[p] = true
			}
		}
	}
	for _, p := range sortedKeys(lost) {
		fmt.Fprintf(&sb, "  %s [ color=yellow, label=%s ];\n", quote(p), quote(breakWords(p)))
	}

	high := quote("invis-" + snap.Name + "-high")
	low := quote("invis-" + snap.Name + "-low")
	fmt.Fprintf(&sb, "  %s [style=invis, width=\"0.1\", height=\"0.1\", label=\"\"];\n", high)
	fmt.Fprintf(&sb, "  %s [style=invis, width=\"0.1\", height=\"0.1\", label=\"\"];\n", low)

	for _, v := range snap.Variables {
		fmt.Fprintf(&sb, "  %s [ label=%s", id(v.Name), quote(breakWords(v.Name)))
		if v.Evidence != nil {
			sb.WriteString(", color=gray92, style=filled")
		}
		sb.WriteString(" ];\n")

		root := true
		for _, p := range v.Parents {
			if local[p] {
				fmt.Fprintf(&sb, "  %s->%s;\n", id(p), id(v.Name))
				root = false
			} else {
				fmt.Fprintf(&sb, "  %s->%s;\n", quote(p), id(v.Name))
			}
		}
		if root {
			fmt.Fprintf(&sb, "  %s -> %s [style=invis];\n", high, id(v.Name))
		}

		leaf := true
		for _, ch := range v.Children {
			if local[ch] {
				leaf = false
				break
			}
		}
		if leaf {
			fmt.Fprintf(&sb, "  %s -> %s [style=invis];\n", id(v.Name), low)
		}
	}

	sb.WriteString("}\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write DOT: %w", err)
	}
	return nil
}

// breakWords puts each word of a name on its own label line.
func breakWords(name string) string {
	return strings.NewReplacer("-", "\n", "_", "\n").Replace(name)
}

// quote returns a DOT double-quoted string.
func quote(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s)
	return `"` + s + `"`
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
