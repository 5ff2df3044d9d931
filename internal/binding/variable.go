package binding

import (
	"context"
	"fmt"

	"bnshell/internal/domain"
	"bnshell/internal/engine"
)

// Fields a Variable computes itself.
const (
	FieldCPD            = "cpd"
	FieldPosterior      = "posterior"
	FieldPi             = "pi"
	FieldLambda         = "lambda"
	FieldPiMessages     = "pi_messages"
	FieldLambdaMessages = "lambda_messages"
	FieldParents        = "parents"
	FieldChildren       = "children"
)

// VariableFields lists the fields a Variable resolves without forwarding.
var VariableFields = []string{
	FieldName, FieldCPD, FieldPosterior, FieldPi, FieldLambda,
	FieldPiMessages, FieldLambdaMessages, FieldParents, FieldChildren,
}

// Variable is the handle for one variable of a Network.
type Variable struct {
	owner  *Network // not owned
	remote engine.Variable
	name   string

	cpd            memo[*domain.Distribution]
	posterior      memo[*domain.Distribution]
	pi             memo[*domain.Distribution]
	lambda         memo[*domain.Distribution]
	piMessages     memo[domain.Messages]
	lambdaMessages memo[domain.Messages]
	parents        memo[[]*Variable]
	children       memo[[]*Variable]
}

func (v *Variable) Name() string {
	return v.name
}

// Owner returns the network the variable belongs to.
func (v *Variable) Owner() *Network {
	return v.owner
}

// Remote returns the wrapped engine variable.
func (v *Variable) Remote() engine.Variable {
	return v.remote
}

// CPD returns the variable's conditional distribution.
func (v *Variable) CPD(ctx context.Context) (*domain.Distribution, error) {
	return v.cpd.get(func() (*domain.Distribution, error) {
		return v.remote.Distribution(ctx)
	})
}

// Posterior returns p(v|e).
func (v *Variable) Posterior(ctx context.Context) (*domain.Distribution, error) {
	return resolve(ctx, v.owner.policy, &v.posterior, v.remote.Posterior,
		func(ctx context.Context) (*domain.Distribution, error) {
			return v.owner.remote.Posterior(ctx, v.remote)
		})
}

func (v *Variable) Pi(ctx context.Context) (*domain.Distribution, error) {
	return resolve(ctx, v.owner.policy, &v.pi, v.remote.Pi,
		func(ctx context.Context) (*domain.Distribution, error) {
			return v.owner.remote.ComputePi(ctx, v.remote)
		})
}

func (v *Variable) Lambda(ctx context.Context) (*domain.Distribution, error) {
	return resolve(ctx, v.owner.policy, &v.lambda, v.remote.Lambda,
		func(ctx context.Context) (*domain.Distribution, error) {
			return v.owner.remote.ComputeLambda(ctx, v.remote)
		})
}

// PiMessages returns the incoming pi-messages, one per parent.
func (v *Variable) PiMessages(ctx context.Context) (domain.Messages, error) {
	return resolve(ctx, v.owner.policy, &v.piMessages, v.remote.PiMessages,
		func(ctx context.Context) (domain.Messages, error) {
			if err := v.owner.remote.RefreshPiMessages(ctx, v.remote); err != nil {
				return nil, err
			}
			return v.remote.PiMessages(ctx)
		})
}

// LambdaMessages returns the incoming lambda-messages, one per child.
func (v *Variable) LambdaMessages(ctx context.Context) (domain.Messages, error) {
	return resolve(ctx, v.owner.policy, &v.lambdaMessages, v.remote.LambdaMessages,
		func(ctx context.Context) (domain.Messages, error) {
			if err := v.owner.remote.RefreshLambdaMessages(ctx, v.remote); err != nil {
				return nil, err
			}
			return v.remote.LambdaMessages(ctx)
		})
}

// Parents returns the handles of the variable's parents, looked up by name in the
// owning network. A parent from another network fails with domain.ErrNotFoundInOwner.
func (v *Variable) Parents(ctx context.Context) ([]*Variable, error) {
	return v.parents.get(func() ([]*Variable, error) {
		return v.resolveRelatives(ctx, FieldParents, v.remote.Parents)
	})
}

// Children returns the handles of the variable's children, resolved like Parents.
func (v *Variable) Children(ctx context.Context) ([]*Variable, error) {
	return v.children.get(func() ([]*Variable, error) {
		return v.resolveRelatives(ctx, FieldChildren, v.remote.Children)
	})
}

// Field resolves a field by name. Names other than the derived fields are forwarded
// to the remote variable.
func (v *Variable) Field(ctx context.Context, name string) (any, error) {
	switch name {
	case FieldName:
		return v.name, nil
	case FieldCPD:
		return v.CPD(ctx)
	case FieldPosterior:
		return v.Posterior(ctx)
	case FieldPi:
		return v.Pi(ctx)
	case FieldLambda:
		return v.Lambda(ctx)
	case FieldPiMessages:
		return v.PiMessages(ctx)
	case FieldLambdaMessages:
		return v.LambdaMessages(ctx)
	case FieldParents:
		return v.Parents(ctx)
	case FieldChildren:
		return v.Children(ctx)
	}
	return v.remote.Attribute(ctx, name)
}

// Format returns the engine's rendering of the variable.
func (v *Variable) Format(ctx context.Context) (string, error) {
	return v.remote.Format(ctx, "")
}

func (v *Variable) String() string {
	return v.owner.name + "." + v.name
}

func (v *Variable) resetInference() {
	v.posterior.reset()
	v.pi.reset()
	v.lambda.reset()
	v.piMessages.reset()
	v.lambdaMessages.reset()
}

func (v *Variable) resolveRelatives(ctx context.Context, field string, list func(context.Context) ([]engine.Variable, error)) ([]*Variable, error) {
	remotes, err := list(ctx)
	if err != nil {
		return nil, err
	}
	home := v.remote.Network()
	out := make([]*Variable, 0, len(remotes))
	for _, r := range remotes {
		name, err := r.Name(ctx)
		if err != nil {
			return nil, err
		}
		// a relative in another network is never the owner's handle, even when the names match
		if other := r.Network(); other != home {
			return nil, fmt.Errorf("%s.%s: %q in network %q: %w", v, field, name, other, domain.ErrNotFoundInOwner)
		}
		h, ok := v.owner.vars[name]
		if !ok {
			return nil, fmt.Errorf("%s.%s: %q: %w", v, field, name, domain.ErrNotFoundInOwner)
		}
		out = append(out, h)
	}
	return out, nil
}

// resolve applies the caching policy to one inference field. read asks the remote
// variable for its current value; force asks the owning network to recompute it.
func resolve[T any](ctx context.Context, p Policy, m *memo[T], read, force func(context.Context) (T, error)) (T, error) {
	switch p {
	case PolicyForceRecompute:
		return force(ctx)
	case PolicyReadThrough:
		return read(ctx)
	}
	return m.get(func() (T, error) {
		return read(ctx)
	})
}
