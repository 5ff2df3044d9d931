package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"bnshell/internal/binding"
	"bnshell/internal/domain"
)

const (
	prompt             = "bn> "
	continuationPrompt = "... "
	maxStatementBytes  = 4 << 20
)

var (
	errExit = errors.New("exit")

	heredocOpen = regexp.MustCompile(`<<-?([A-Za-z_][A-Za-z0-9_]*)\s*$`)
)

type command func(ctx context.Context, it *Interpreter, args []string) error

var commands = map[string]command{
	"ls":      cmdList,
	"policy":  cmdPolicy,
	"refresh": cmdRefresh,
	"clear":   cmdClear,
	"export":  cmdExport,
	"apply":   cmdApply,
	"help":    cmdHelp,
	"exit":    cmdExit,
	"quit":    cmdExit,
}

// Interpreter runs shell statements against a Session and prints results to out.
type Interpreter struct {
	session *Session
	out     io.Writer
	log     *slog.Logger
}

// NewInterpreter creates an interpreter writing to out.
func NewInterpreter(s *Session, out io.Writer) *Interpreter {
	return &Interpreter{session: s, out: out, log: s.log}
}

// Run reads statements from r until end of input or exit. A failing statement is
// reported and reading goes on. When not interactive, Run returns an error at the end
// if any statement failed.
func (it *Interpreter) Run(ctx context.Context, r io.Reader, interactive bool) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxStatementBytes)

	failed := 0
	for {
		if interactive {
			fmt.Fprint(it.out, prompt)
		}
		stmt, ok := it.readStatement(sc, interactive)
		if !ok {
			break
		}
		if err := it.Exec(ctx, stmt); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			failed++
			fmt.Fprintf(it.out, "error: %v\n", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if interactive {
		fmt.Fprintln(it.out)
	} else if failed > 0 {
		return fmt.Errorf("%d statement(s) failed", failed)
	}
	return nil
}

// readStatement reads one line, or a heredoc statement up to its marker and the line
// closing the call.
func (it *Interpreter) readStatement(sc *bufio.Scanner, interactive bool) (string, bool) {
	if !sc.Scan() {
		return "", false
	}
	line := sc.Text()
	m := heredocOpen.FindStringSubmatch(line)
	if m == nil {
		return line, true
	}

	lines := []string{line}
	marker := m[1]
	closed := false
	for !closed {
		if interactive {
			fmt.Fprint(it.out, continuationPrompt)
		}
		if !sc.Scan() {
			break
		}
		next := sc.Text()
		lines = append(lines, next)
		closed = strings.TrimSpace(next) == marker
	}
	if closed && strings.Count(line, "(") > strings.Count(line, ")") {
		if interactive {
			fmt.Fprint(it.out, continuationPrompt)
		}
		if sc.Scan() {
			lines = append(lines, sc.Text())
		}
	}
	return strings.Join(lines, "\n"), true
}

// Exec runs one statement.
func (it *Interpreter) Exec(ctx context.Context, stmt string) error {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" || strings.HasPrefix(stmt, "#") {
		return nil
	}

	fields := strings.Fields(stmt)
	if cmd, ok := commands[fields[0]]; ok {
		return cmd(ctx, it, fields[1:])
	}

	if lhs, rhs, ok := splitAssignment(stmt); ok {
		return it.assign(ctx, lhs, rhs)
	}

	expr, err := parseExpression(stmt)
	if err != nil {
		return err
	}
	if call, ok := expr.(*hclsyntax.FunctionCallExpr); ok {
		return it.call(ctx, call)
	}

	trav, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() {
		return fmt.Errorf("unsupported statement %q", stmt)
	}
	value, err := it.resolve(ctx, trav)
	if err != nil {
		return err
	}
	return it.print(ctx, value)
}

func (it *Interpreter) call(ctx context.Context, call *hclsyntax.FunctionCallExpr) error {
	var importer func(context.Context, string) (*binding.Network, error)
	switch call.Name {
	case "import_file":
		importer = it.session.ImportFile
	case "import_description":
		importer = it.session.ImportDescription
	case "import_remote":
		importer = it.session.ImportRemote
	case "import_reference":
		return fmt.Errorf("import_reference takes an engine reference and is only available to programs")
	default:
		return fmt.Errorf("unknown function %q", call.Name)
	}

	if len(call.Args) != 1 {
		return fmt.Errorf("%s takes exactly one argument", call.Name)
	}
	arg, err := literalValue(call.Args[0])
	if err != nil {
		return err
	}
	text, ok := arg.(string)
	if !ok {
		return fmt.Errorf("%s: argument must be a string", call.Name)
	}

	n, err := importer(ctx, text)
	if err != nil {
		return err
	}
	fmt.Fprintf(it.out, "%s: %d variables\n", n.Name(), n.Nodes().Len())
	return nil
}

func (it *Interpreter) assign(ctx context.Context, lhs, rhs string) error {
	trav, err := parseTarget(lhs)
	if err != nil {
		return err
	}
	if len(trav) < 2 {
		return fmt.Errorf("cannot assign to %s: networks are bound by importing them", lhs)
	}

	expr, err := parseExpression(rhs)
	if err != nil {
		return err
	}
	value, err := literalValue(expr)
	if err != nil {
		return err
	}

	target, err := it.resolve(ctx, trav[:len(trav)-1])
	if err != nil {
		return err
	}

	switch last := trav[len(trav)-1].(type) {
	case hcl.TraverseAttr:
		n, ok := target.(*binding.Network)
		if !ok {
			return fmt.Errorf("cannot assign %s: only network fields can be assigned", formatTraversal(trav))
		}
		return it.session.Assign(ctx, n, last.Name, value)
	case hcl.TraverseIndex:
		nodes, ok := target.(*binding.NodeList)
		if !ok {
			return fmt.Errorf("cannot assign %s: only nodes can be assigned by index", formatTraversal(trav))
		}
		i, err := indexOf(last.Key)
		if err != nil {
			return err
		}
		return it.session.AssignIndex(ctx, nodes.Owner(), i, value)
	}
	return fmt.Errorf("cannot assign %s", formatTraversal(trav))
}

// resolve walks a traversal from a bound network through fields and indexes.
func (it *Interpreter) resolve(ctx context.Context, trav hcl.Traversal) (any, error) {
	root := trav.RootName()
	n, ok := it.session.ns.Get(root)
	if !ok {
		return nil, fmt.Errorf("name %q is not defined", root)
	}

	var cur any = n
	for i, step := range trav[1:] {
		var err error
		switch st := step.(type) {
		case hcl.TraverseAttr:
			cur, err = fieldOf(ctx, cur, st.Name)
		case hcl.TraverseIndex:
			cur, err = elementOf(cur, st)
		default:
			err = fmt.Errorf("unsupported step")
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", formatTraversal(trav[:i+2]), err)
		}
	}
	return cur, nil
}

func fieldOf(ctx context.Context, cur any, name string) (any, error) {
	switch c := cur.(type) {
	case *binding.Network:
		return c.Field(ctx, name)
	case *binding.Variable:
		return c.Field(ctx, name)
	}
	return nil, fmt.Errorf("%T has no field %q: %w", cur, name, domain.ErrAttributeNotFound)
}

func elementOf(cur any, key hcl.TraverseIndex) (any, error) {
	i, err := indexOf(key.Key)
	if err != nil {
		return nil, err
	}
	switch c := cur.(type) {
	case *binding.NodeList:
		return c.At(i)
	case []*binding.Variable:
		if i < 0 || i >= len(c) {
			return nil, fmt.Errorf("index %d out of range [0, %d)", i, len(c))
		}
		return c[i], nil
	case domain.Messages:
		if i < 0 || i >= len(c) {
			return nil, fmt.Errorf("index %d out of range [0, %d)", i, len(c))
		}
		return c[i], nil
	}
	return nil, fmt.Errorf("%T cannot be indexed", cur)
}

func (it *Interpreter) print(ctx context.Context, value any) error {
	var text string
	switch v := value.(type) {
	case nil:
		text = "None"
	case *binding.Network:
		s, err := v.Format(ctx)
		if err != nil {
			return err
		}
		text = s
	case *binding.Variable:
		s, err := v.Format(ctx)
		if err != nil {
			return err
		}
		text = s
	case *binding.NodeList:
		text = "[" + strings.Join(v.Names(), ", ") + "]"
	case []*binding.Variable:
		names := make([]string, len(v))
		for i, h := range v {
			names[i] = h.Name()
		}
		text = "[" + strings.Join(names, ", ") + "]"
	case fmt.Stringer:
		text = v.String()
	default:
		text = fmt.Sprintf("%v", v)
	}
	fmt.Fprintln(it.out, strings.TrimRight(text, "\n"))
	return nil
}

func (it *Interpreter) network(name string) (*binding.Network, error) {
	n, ok := it.session.ns.Get(name)
	if !ok {
		return nil, fmt.Errorf("name %q is not defined", name)
	}
	return n, nil
}

func cmdList(ctx context.Context, it *Interpreter, args []string) error {
	if len(args) == 0 {
		for _, name := range it.session.ns.Names() {
			n, _ := it.session.ns.Get(name)
			fmt.Fprintf(it.out, "%-20s %3d variables  policy %s\n", name, n.Nodes().Len(), n.Policy())
		}
		return nil
	}

	n, err := it.network(args[0])
	if err != nil {
		return err
	}
	for i, v := range n.Variables() {
		line := fmt.Sprintf("[%d] %s", i, v.Name())
		if ev, ok := n.Evidence(v.Name()); ok {
			line += fmt.Sprintf(" = %v", ev)
		}
		fmt.Fprintln(it.out, line)
	}
	for _, local := range n.Locals() {
		value, _ := n.Field(ctx, local)
		fmt.Fprintf(it.out, "%s = %v (local)\n", local, value)
	}
	return nil
}

func cmdPolicy(ctx context.Context, it *Interpreter, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(it.out, it.session.Policy())
		return nil
	}
	p, err := binding.ParsePolicy(args[0])
	if err != nil {
		return err
	}
	it.session.SetPolicy(p)
	fmt.Fprintf(it.out, "policy %s\n", p)
	return nil
}

func cmdRefresh(ctx context.Context, it *Interpreter, args []string) error {
	names := args
	if len(names) == 0 {
		names = it.session.ns.Names()
	}
	for _, name := range names {
		n, err := it.network(name)
		if err != nil {
			return err
		}
		n.Refresh()
	}
	return nil
}

func cmdClear(ctx context.Context, it *Interpreter, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: clear <network>")
	}
	n, err := it.network(args[0])
	if err != nil {
		return err
	}
	return it.session.ClearAll(ctx, n)
}

func cmdExport(ctx context.Context, it *Interpreter, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("usage: export <network> json|yaml|dot [file]")
	}
	n, err := it.network(args[0])
	if err != nil {
		return err
	}
	if len(args) == 2 {
		return it.session.Export(ctx, n, args[1], it.out)
	}

	f, err := os.Create(args[2])
	if err != nil {
		return err
	}
	if err := it.session.Export(ctx, n, args[1], f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(it.out, "wrote %s\n", args[2])
	return nil
}

func cmdApply(ctx context.Context, it *Interpreter, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: apply <network> <snapshot file>")
	}
	n, err := it.network(args[0])
	if err != nil {
		return err
	}
	applied, err := it.session.ApplyFile(ctx, n, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(it.out, "%s: %d evidence assignments\n", n.Name(), applied)
	return nil
}

func cmdHelp(ctx context.Context, it *Interpreter, args []string) error {
	fmt.Fprint(it.out, helpText)
	return nil
}

func cmdExit(ctx context.Context, it *Interpreter, args []string) error {
	return errExit
}

const helpText = `Statements:
  import_file("path")              parse a description file (search path, .riso optional)
  import_description("text")       parse a description; use <<EOT ... EOT for several lines
  import_remote("host:port/name")  look a network up in a naming service
  net                              print the network
  net.var.posterior                print a field: cpd posterior pi lambda pi_messages
                                   lambda_messages parents children, or any engine attribute
  net.nodes[i]                     the i-th variable
  net.var = 1.5 | "state"          assign evidence
  net.var = None                   clear evidence
  net.nodes[i] = value             assign evidence by index
  net.note = value                 store a local field

Commands:
  ls [net]                                list networks, or the variables of one
  policy [cached|read-through|force-recompute]
  refresh [net]                           drop cached inference results
  clear <net>                             clear all evidence
  export <net> json|yaml|dot [file]
  apply <net> <snapshot.json|yaml>        assign the evidence recorded in a snapshot
  help
  exit | quit
`
