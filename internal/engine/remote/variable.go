package remote

import (
	"context"
	"fmt"

	"bnshell/internal/domain"
	"bnshell/internal/engine"
)

// Variable is a proxy for one variable of a remote network.
type Variable struct {
	client  *Client
	network string
	name    string
}

var _ engine.Variable = (*Variable)(nil)

// Name returns the variable name. Names are fixed once the network is parsed, so no
// call is made.
func (v *Variable) Name(context.Context) (string, error) {
	return v.name, nil
}

func (v *Variable) Network() string {
	return v.network
}

func (v *Variable) Parents(ctx context.Context) ([]engine.Variable, error) {
	return v.relatives(ctx, methodVariableParents)
}

func (v *Variable) Children(ctx context.Context) ([]engine.Variable, error) {
	return v.relatives(ctx, methodVariableChildren)
}

func (v *Variable) Distribution(ctx context.Context) (*domain.Distribution, error) {
	return v.distribution(ctx, methodVariableDistribution)
}

func (v *Variable) Posterior(ctx context.Context) (*domain.Distribution, error) {
	return v.distribution(ctx, methodVariablePosterior)
}

func (v *Variable) Pi(ctx context.Context) (*domain.Distribution, error) {
	return v.distribution(ctx, methodVariablePi)
}

func (v *Variable) Lambda(ctx context.Context) (*domain.Distribution, error) {
	return v.distribution(ctx, methodVariableLambda)
}

func (v *Variable) PiMessages(ctx context.Context) (domain.Messages, error) {
	return v.messages(ctx, methodVariablePiMessages)
}

func (v *Variable) LambdaMessages(ctx context.Context) (domain.Messages, error) {
	return v.messages(ctx, methodVariableLambdaMessages)
}

func (v *Variable) Format(ctx context.Context, prefix string) (string, error) {
	var res TextResult
	params := FormatParams{Network: v.network, Variable: v.name, Prefix: prefix}
	if err := v.client.call(ctx, methodVariableFormat, params, &res); err != nil {
		return "", fmt.Errorf("format %s: %w", v, err)
	}
	return res.Text, nil
}

func (v *Variable) Attribute(ctx context.Context, name string) (any, error) {
	var res ValueResult
	params := AttributeParams{Network: v.network, Variable: v.name, Name: name}
	if err := v.client.call(ctx, methodVariableAttribute, params, &res); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", v, name, err)
	}
	return res.Value, nil
}

func (v *Variable) String() string {
	return v.network + "." + v.name
}

func (v *Variable) ref() VariableRef {
	return VariableRef{Network: v.network, Variable: v.name}
}

func (v *Variable) relatives(ctx context.Context, method string) ([]engine.Variable, error) {
	var res RelativesResult
	if err := v.client.call(ctx, method, v.ref(), &res); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, v, err)
	}
	out := make([]engine.Variable, 0, len(res.Variables))
	for _, r := range res.Variables {
		network := r.Network
		if network == "" {
			network = v.network
		}
		out = append(out, &Variable{client: v.client, network: network, name: r.Variable})
	}
	return out, nil
}

func (v *Variable) distribution(ctx context.Context, method string) (*domain.Distribution, error) {
	var res DistributionResult
	if err := v.client.call(ctx, method, v.ref(), &res); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, v, err)
	}
	return res.Distribution, nil
}

func (v *Variable) messages(ctx context.Context, method string) (domain.Messages, error) {
	var res MessagesResult
	if err := v.client.call(ctx, method, v.ref(), &res); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, v, err)
	}
	return res.Messages, nil
}
