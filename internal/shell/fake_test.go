package shell

import (
	"context"
	"fmt"
	"strings"

	"bnshell/internal/domain"
	"bnshell/internal/engine"
)

// alarmDescription uses the fake parser's format: the network name, a colon, then one
// token per variable with its parents in parentheses.
const alarmDescription = "alarm: burglary earthquake alarm(burglary,earthquake)"

// fakeContext is an in-memory engine context. Parse builds networks from the
// fake description format; Lookup serves networks registered in remote.
type fakeContext struct {
	remote map[string]*fakeNetwork
	parsed []string
	closed int
}

func newFakeContext() *fakeContext {
	return &fakeContext{remote: make(map[string]*fakeNetwork)}
}

func (c *fakeContext) Name() string { return "fake:8099" }

func (c *fakeContext) Parse(ctx context.Context, description string) (engine.Network, error) {
	if c.closed > 0 {
		return nil, domain.ErrContextClosed
	}
	c.parsed = append(c.parsed, description)
	return parseFake(description)
}

func (c *fakeContext) Lookup(ctx context.Context, name string) (engine.Network, error) {
	n, ok := c.remote[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRemoteLookupFailure, name)
	}
	return n, nil
}

func (c *fakeContext) Close() error {
	c.closed++
	return nil
}

func parseFake(description string) (*fakeNetwork, error) {
	name, body, ok := strings.Cut(strings.TrimSpace(description), ":")
	if !ok || strings.TrimSpace(name) == "" {
		return nil, &domain.RemoteError{Code: domain.CodeDescriptionParse, Message: "expected <name>: <variables>"}
	}

	n := &fakeNetwork{name: strings.TrimSpace(name), evidence: make(map[string]any), byName: make(map[string]*fakeVariable)}
	parents := make(map[string][]string)
	for _, tok := range strings.Fields(body) {
		vname, rest, _ := strings.Cut(tok, "(")
		v := &fakeVariable{net: n, name: vname}
		n.vars = append(n.vars, v)
		n.byName[vname] = v
		if rest != "" {
			parents[vname] = strings.Split(strings.TrimSuffix(rest, ")"), ",")
		}
	}
	for child, ps := range parents {
		for _, p := range ps {
			pv, ok := n.byName[p]
			if !ok {
				return nil, &domain.RemoteError{Code: domain.CodeDescriptionParse, Message: "unknown parent " + p}
			}
			n.byName[child].parents = append(n.byName[child].parents, pv)
			pv.children = append(pv.children, n.byName[child])
		}
	}
	return n, nil
}

type fakeNetwork struct {
	name     string
	vars     []*fakeVariable
	byName   map[string]*fakeVariable
	evidence map[string]any
	calls    []string
}

func (n *fakeNetwork) call(format string, args ...any) {
	n.calls = append(n.calls, fmt.Sprintf(format, args...))
}

func (n *fakeNetwork) Name(ctx context.Context) (string, error) { return n.name, nil }

func (n *fakeNetwork) Variables(ctx context.Context) ([]engine.Variable, error) {
	out := make([]engine.Variable, len(n.vars))
	for i, v := range n.vars {
		out[i] = v
	}
	return out, nil
}

func (n *fakeNetwork) AssignEvidence(ctx context.Context, v engine.Variable, value any) error {
	name := v.(*fakeVariable).name
	if _, ok := value.(bool); ok {
		return &domain.RemoteError{Code: domain.CodeEvidenceType, Message: "boolean evidence"}
	}
	n.call("assign %s=%v", name, value)
	n.evidence[name] = value
	return nil
}

func (n *fakeNetwork) ClearPosterior(ctx context.Context, v engine.Variable) error {
	name := v.(*fakeVariable).name
	n.call("clear %s", name)
	delete(n.evidence, name)
	return nil
}

func (n *fakeNetwork) ClearAllEvidence(ctx context.Context) error {
	n.call("clear_all")
	n.evidence = make(map[string]any)
	return nil
}

func (n *fakeNetwork) Posterior(ctx context.Context, v engine.Variable) (*domain.Distribution, error) {
	return v.Posterior(ctx)
}

func (n *fakeNetwork) ComputePi(ctx context.Context, v engine.Variable) (*domain.Distribution, error) {
	return v.Pi(ctx)
}

func (n *fakeNetwork) ComputeLambda(ctx context.Context, v engine.Variable) (*domain.Distribution, error) {
	return v.Lambda(ctx)
}

func (n *fakeNetwork) RefreshPiMessages(ctx context.Context, v engine.Variable) error { return nil }

func (n *fakeNetwork) RefreshLambdaMessages(ctx context.Context, v engine.Variable) error {
	return nil
}

func (n *fakeNetwork) Format(ctx context.Context, prefix string) (string, error) {
	return prefix + "network " + n.name + "\n", nil
}

func (n *fakeNetwork) Attribute(ctx context.Context, name string) (any, error) {
	if name == "fullname" {
		return "fake:1099/" + n.name, nil
	}
	return nil, fmt.Errorf("%s.%s: %w", n.name, name, domain.ErrAttributeNotFound)
}

type fakeVariable struct {
	net      *fakeNetwork
	name     string
	parents  []*fakeVariable
	children []*fakeVariable
}

func toEngine(vs []*fakeVariable) []engine.Variable {
	out := make([]engine.Variable, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func (v *fakeVariable) Name(ctx context.Context) (string, error) { return v.name, nil }

func (v *fakeVariable) Network() string { return v.net.name }

func (v *fakeVariable) Parents(ctx context.Context) ([]engine.Variable, error) {
	return toEngine(v.parents), nil
}

func (v *fakeVariable) Children(ctx context.Context) ([]engine.Variable, error) {
	return toEngine(v.children), nil
}

func (v *fakeVariable) Distribution(ctx context.Context) (*domain.Distribution, error) {
	return &domain.Distribution{Class: "ConditionalDiscrete", Description: "cpd of " + v.name}, nil
}

func (v *fakeVariable) Posterior(ctx context.Context) (*domain.Distribution, error) {
	return &domain.Distribution{Class: "Discrete", Description: fmt.Sprintf("p(%s|e) with %d evidence", v.name, len(v.net.evidence))}, nil
}

func (v *fakeVariable) Pi(ctx context.Context) (*domain.Distribution, error) {
	return &domain.Distribution{Class: "Discrete", Description: "pi of " + v.name}, nil
}

func (v *fakeVariable) Lambda(ctx context.Context) (*domain.Distribution, error) {
	return &domain.Distribution{Class: "Discrete", Description: "lambda of " + v.name}, nil
}

func (v *fakeVariable) PiMessages(ctx context.Context) (domain.Messages, error) {
	out := make(domain.Messages, len(v.parents))
	for i, p := range v.parents {
		out[i] = &domain.Distribution{Class: "Discrete", Description: "pi from " + p.name}
	}
	return out, nil
}

func (v *fakeVariable) LambdaMessages(ctx context.Context) (domain.Messages, error) {
	return make(domain.Messages, len(v.children)), nil
}

func (v *fakeVariable) Format(ctx context.Context, prefix string) (string, error) {
	return prefix + "variable " + v.name + "\n", nil
}

func (v *fakeVariable) Attribute(ctx context.Context, name string) (any, error) {
	if name == "type" {
		return "discrete", nil
	}
	return nil, fmt.Errorf("%s.%s: %w", v.name, name, domain.ErrAttributeNotFound)
}
