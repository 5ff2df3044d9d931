package binding

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"bnshell/internal/domain"
	"bnshell/internal/engine"
)

// Fields a Network computes itself.
const (
	FieldNodes = "nodes"
	FieldName  = "name"
)

// Network is the handle for one remote belief network.
type Network struct {
	remote engine.Network
	name   string
	vars   map[string]*Variable
	order  []*Variable
	nodes  memo[*NodeList]
	locals map[string]any

	// evidence mirrors what was assigned through this handle, for snapshots.
	evidence map[string]any

	policy Policy
	log    *slog.Logger
}

// Option configures a Network.
type Option func(*Network)

// WithPolicy sets the caching policy for the network's variables.
func WithPolicy(p Policy) Option {
	return func(n *Network) {
		n.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Network) {
		if l != nil {
			n.log = l
		}
	}
}

// NewNetwork wraps remote. It reads the network name and variable list once and creates
// one Variable handle per remote variable, in the engine's enumeration order.
func NewNetwork(ctx context.Context, remote engine.Network, opts ...Option) (*Network, error) {
	name, err := remote.Name(ctx)
	if err != nil {
		return nil, fmt.Errorf("read network name: %w", err)
	}

	n := &Network{
		remote:   remote,
		name:     name,
		vars:     make(map[string]*Variable),
		locals:   make(map[string]any),
		evidence: make(map[string]any),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}

	remoteVars, err := remote.Variables(ctx)
	if err != nil {
		return nil, fmt.Errorf("read variables of %s: %w", name, err)
	}
	for _, rv := range remoteVars {
		vname, err := rv.Name(ctx)
		if err != nil {
			return nil, fmt.Errorf("read variable name in %s: %w", name, err)
		}
		if _, dup := n.vars[vname]; dup {
			return nil, fmt.Errorf("network %s reports variable %q twice", name, vname)
		}
		v := &Variable{owner: n, remote: rv, name: vname}
		n.vars[vname] = v
		n.order = append(n.order, v)
	}

	n.log.Debug("network bound", "network", name, "variables", len(n.order), "policy", n.policy.String())
	return n, nil
}

// Name returns the network name read at construction.
func (n *Network) Name() string {
	return n.name
}

// Remote returns the wrapped engine network.
func (n *Network) Remote() engine.Network {
	return n.remote
}

// Policy returns the caching policy.
func (n *Network) Policy() Policy {
	return n.policy
}

// SetPolicy changes the caching policy. Values already cached stay cached until Refresh.
func (n *Network) SetPolicy(p Policy) {
	n.policy = p
}

// Variable returns the handle of a variable of this network.
func (n *Network) Variable(name string) (*Variable, bool) {
	v, ok := n.vars[name]
	return v, ok
}

// Variables returns the variable handles in enumeration order.
func (n *Network) Variables() []*Variable {
	out := make([]*Variable, len(n.order))
	copy(out, n.order)
	return out
}

// Locals returns the names of local fields in sorted order.
func (n *Network) Locals() []string {
	names := make([]string, 0, len(n.locals))
	for name := range n.locals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evidence returns the value last assigned to the variable through this handle.
func (n *Network) Evidence(variable string) (any, bool) {
	v, ok := n.evidence[variable]
	return v, ok
}

// Nodes returns the ordered list of variable handles. It is built on first use and
// never rebuilt.
func (n *Network) Nodes() *NodeList {
	nodes, _ := n.nodes.get(func() (*NodeList, error) {
		return &NodeList{owner: n, items: n.Variables()}, nil
	})
	return nodes
}

// Field resolves a field by name: "nodes", a variable, a local field, "name", and
// finally any attribute of the remote network.
func (n *Network) Field(ctx context.Context, name string) (any, error) {
	if name == FieldNodes {
		return n.Nodes(), nil
	}
	if v, ok := n.vars[name]; ok {
		return v, nil
	}
	if value, ok := n.locals[name]; ok {
		return value, nil
	}
	if name == FieldName {
		return n.name, nil
	}
	value, err := n.remote.Attribute(ctx, name)
	if err != nil {
		return nil, err
	}
	return value, nil
}

// SetField assigns a field. For a variable of the network a nil value clears its
// evidence and anything else is assigned as evidence. Other names become local fields
// with no engine call.
func (n *Network) SetField(ctx context.Context, name string, value any) error {
	v, ok := n.vars[name]
	if !ok {
		if name == FieldNodes || name == FieldName {
			return fmt.Errorf("%s.%s: %w", n.name, name, domain.ErrReadOnlyField)
		}
		n.locals[name] = value
		return nil
	}

	if value == nil {
		if err := n.remote.ClearPosterior(ctx, v.remote); err != nil {
			return err
		}
		delete(n.evidence, name)
		n.log.Debug("evidence cleared", "network", n.name, "variable", name)
		return nil
	}

	if err := n.remote.AssignEvidence(ctx, v.remote, value); err != nil {
		return err
	}
	n.evidence[name] = value
	n.log.Debug("evidence assigned", "network", n.name, "variable", name, "value", value)
	return nil
}

// ClearAllEvidence removes the evidence of every variable.
func (n *Network) ClearAllEvidence(ctx context.Context) error {
	if err := n.remote.ClearAllEvidence(ctx); err != nil {
		return err
	}
	n.evidence = make(map[string]any)
	n.log.Debug("all evidence cleared", "network", n.name)
	return nil
}

// Refresh drops every cached inference field so the next access reads the engine
// again. cpd, parents and children stay cached.
func (n *Network) Refresh() {
	for _, v := range n.order {
		v.resetInference()
	}
}

// Format returns the engine's rendering of the network.
func (n *Network) Format(ctx context.Context) (string, error) {
	return n.remote.Format(ctx, "")
}

// Snapshot collects the exportable view of the network. Posteriors are read through
// the variable handles, so the current policy applies.
func (n *Network) Snapshot(ctx context.Context) (*domain.NetworkSnapshot, error) {
	snap := &domain.NetworkSnapshot{Name: n.name}
	for _, v := range n.order {
		parents, err := v.relativeNames(ctx, v.remote.Parents)
		if err != nil {
			return nil, err
		}
		children, err := v.relativeNames(ctx, v.remote.Children)
		if err != nil {
			return nil, err
		}
		posterior, err := v.Posterior(ctx)
		if err != nil {
			return nil, fmt.Errorf("posterior of %s: %w", v, err)
		}
		vs := domain.VariableSnapshot{
			Name:     v.name,
			Parents:  parents,
			Children: children,
		}
		if posterior != nil {
			vs.Posterior = posterior.String()
		}
		if ev, ok := n.evidence[v.name]; ok {
			vs.Evidence = ev
		}
		snap.Variables = append(snap.Variables, vs)
	}
	return snap, nil
}

func (n *Network) String() string {
	return n.name
}

// NodeList is the ordered list of a network's variables. Assigning through an index
// assigns evidence to that variable.
type NodeList struct {
	owner *Network
	items []*Variable
}

// Owner returns the network the list belongs to.
func (l *NodeList) Owner() *Network {
	return l.owner
}

// Len returns the number of variables.
func (l *NodeList) Len() int {
	return len(l.items)
}

// At returns the i-th variable.
func (l *NodeList) At(i int) (*Variable, error) {
	if i < 0 || i >= len(l.items) {
		return nil, fmt.Errorf("%s.nodes: index %d out of range [0, %d)", l.owner.name, i, len(l.items))
	}
	return l.items[i], nil
}

// Set assigns evidence to the i-th variable, or clears it when value is nil.
func (l *NodeList) Set(ctx context.Context, i int, value any) error {
	v, err := l.At(i)
	if err != nil {
		return err
	}
	return l.owner.SetField(ctx, v.name, value)
}

// Names returns the variable names in order.
func (l *NodeList) Names() []string {
	names := make([]string, len(l.items))
	for i, v := range l.items {
		names[i] = v.name
	}
	return names
}
