package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"bnshell/internal/domain"
	"bnshell/internal/engine"
)

// Network is a proxy for a network inside the remote context.
type Network struct {
	client *Client
	name   string
}

var _ engine.Network = (*Network)(nil)

// Name asks the engine for the network name. The call doubles as a liveness check.
func (n *Network) Name(ctx context.Context) (string, error) {
	var res TextResult
	if err := n.client.call(ctx, methodNetworkName, NetworkRef{Network: n.name}, &res); err != nil {
		return "", err
	}
	return res.Text, nil
}

// Variables lists the network's variables in enumeration order.
func (n *Network) Variables(ctx context.Context) ([]engine.Variable, error) {
	var res VariablesResult
	if err := n.client.call(ctx, methodNetworkVariables, NetworkRef{Network: n.name}, &res); err != nil {
		return nil, fmt.Errorf("list variables of %s: %w", n.name, err)
	}
	vars := make([]engine.Variable, 0, len(res.Variables))
	for _, name := range res.Variables {
		vars = append(vars, n.variable(name))
	}
	return vars, nil
}

func (n *Network) AssignEvidence(ctx context.Context, v engine.Variable, value any) error {
	name, err := n.variableName(ctx, v)
	if err != nil {
		return err
	}
	if _, err := json.Marshal(value); err != nil {
		return fmt.Errorf("assign evidence to %s.%s: %w: %T", n.name, name, domain.ErrEvidenceTypeMismatch, value)
	}
	params := EvidenceParams{Network: n.name, Variable: name, Value: value}
	if err := n.client.call(ctx, methodNetworkAssign, params, nil); err != nil {
		return fmt.Errorf("assign evidence to %s.%s: %w", n.name, name, err)
	}
	return nil
}

func (n *Network) ClearPosterior(ctx context.Context, v engine.Variable) error {
	name, err := n.variableName(ctx, v)
	if err != nil {
		return err
	}
	if err := n.client.call(ctx, methodNetworkClearPosterior, VariableRef{Network: n.name, Variable: name}, nil); err != nil {
		return fmt.Errorf("clear posterior of %s.%s: %w", n.name, name, err)
	}
	return nil
}

func (n *Network) ClearAllEvidence(ctx context.Context) error {
	if err := n.client.call(ctx, methodNetworkClearAll, NetworkRef{Network: n.name}, nil); err != nil {
		return fmt.Errorf("clear evidence of %s: %w", n.name, err)
	}
	return nil
}

func (n *Network) Posterior(ctx context.Context, v engine.Variable) (*domain.Distribution, error) {
	return n.distribution(ctx, methodNetworkPosterior, v)
}

func (n *Network) ComputePi(ctx context.Context, v engine.Variable) (*domain.Distribution, error) {
	return n.distribution(ctx, methodNetworkComputePi, v)
}

func (n *Network) ComputeLambda(ctx context.Context, v engine.Variable) (*domain.Distribution, error) {
	return n.distribution(ctx, methodNetworkComputeLambda, v)
}

func (n *Network) RefreshPiMessages(ctx context.Context, v engine.Variable) error {
	return n.variableCall(ctx, methodNetworkAllPi, v)
}

func (n *Network) RefreshLambdaMessages(ctx context.Context, v engine.Variable) error {
	return n.variableCall(ctx, methodNetworkAllLambda, v)
}

func (n *Network) Format(ctx context.Context, prefix string) (string, error) {
	var res TextResult
	if err := n.client.call(ctx, methodNetworkFormat, FormatParams{Network: n.name, Prefix: prefix}, &res); err != nil {
		return "", fmt.Errorf("format %s: %w", n.name, err)
	}
	return res.Text, nil
}

func (n *Network) Attribute(ctx context.Context, name string) (any, error) {
	var res ValueResult
	if err := n.client.call(ctx, methodNetworkAttribute, AttributeParams{Network: n.name, Name: name}, &res); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", n.name, name, err)
	}
	return res.Value, nil
}

func (n *Network) variable(name string) *Variable {
	return &Variable{client: n.client, network: n.name, name: name}
}

func (n *Network) distribution(ctx context.Context, method string, v engine.Variable) (*domain.Distribution, error) {
	name, err := n.variableName(ctx, v)
	if err != nil {
		return nil, err
	}
	var res DistributionResult
	if err := n.client.call(ctx, method, VariableRef{Network: n.name, Variable: name}, &res); err != nil {
		return nil, fmt.Errorf("%s %s.%s: %w", method, n.name, name, err)
	}
	return res.Distribution, nil
}

func (n *Network) variableCall(ctx context.Context, method string, v engine.Variable) error {
	name, err := n.variableName(ctx, v)
	if err != nil {
		return err
	}
	if err := n.client.call(ctx, method, VariableRef{Network: n.name, Variable: name}, nil); err != nil {
		return fmt.Errorf("%s %s.%s: %w", method, n.name, name, err)
	}
	return nil
}

// variableName avoids a round-trip for variables created by this package.
func (n *Network) variableName(ctx context.Context, v engine.Variable) (string, error) {
	if rv, ok := v.(*Variable); ok {
		return rv.name, nil
	}
	return v.Name(ctx)
}
