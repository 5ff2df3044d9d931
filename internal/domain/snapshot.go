package domain

// NetworkSnapshot is the exportable view of a bound network.
type NetworkSnapshot struct {
	Name      string             `json:"name" yaml:"name"`
	Variables []VariableSnapshot `json:"variables" yaml:"variables"`
}

// VariableSnapshot is one variable of a NetworkSnapshot.
type VariableSnapshot struct {
	Name      string   `json:"name" yaml:"name"`
	Parents   []string `json:"parents,omitempty" yaml:"parents,omitempty"`
	Children  []string `json:"children,omitempty" yaml:"children,omitempty"`
	Evidence  any      `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Posterior string   `json:"posterior,omitempty" yaml:"posterior,omitempty"`
}

// Variable returns the named variable snapshot, or nil.
func (s *NetworkSnapshot) Variable(name string) *VariableSnapshot {
	for i := range s.Variables {
		if s.Variables[i].Name == name {
			return &s.Variables[i]
		}
	}
	return nil
}

// ContextCandidate is a host found listening on a naming-service port.
type ContextCandidate struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Hostname string `json:"hostname,omitempty"`
	Service  string `json:"service,omitempty"`
}

// Address returns "host:port".
func (c ContextCandidate) Address() string {
	return NameInfo{Host: c.Host, Port: c.Port}.Address()
}
