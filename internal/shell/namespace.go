package shell

import (
	"sort"

	"bnshell/internal/binding"
)

// Namespace holds the networks bound in a session, keyed by network name. Binding a
// name again replaces the earlier handle.
type Namespace struct {
	networks map[string]*binding.Network
}

// NewNamespace creates an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{networks: make(map[string]*binding.Network)}
}

// Bind registers n under its name and reports whether an earlier handle was replaced.
func (ns *Namespace) Bind(n *binding.Network) bool {
	_, replaced := ns.networks[n.Name()]
	ns.networks[n.Name()] = n
	return replaced
}

// Get returns the network bound to name.
func (ns *Namespace) Get(name string) (*binding.Network, bool) {
	n, ok := ns.networks[name]
	return n, ok
}

// Names returns the bound names in sorted order.
func (ns *Namespace) Names() []string {
	names := make([]string, 0, len(ns.networks))
	for name := range ns.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bound networks.
func (ns *Namespace) Len() int {
	return len(ns.networks)
}
