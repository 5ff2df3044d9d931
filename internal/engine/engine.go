// Package engine declares the operations bnshell consumes from a belief-network engine.
//
// The engine itself (belief propagation, topology, the description grammar) lives
// elsewhere. These interfaces are what the binding layer forwards to; package remote
// implements them over the wire.
package engine

import (
	"context"

	"bnshell/internal/domain"
)

// Context is a connection to an engine context: the service that parses descriptions and
// resolves network names. One Context is created per process and passed to everything
// that needs it.
type Context interface {
	// Name identifies the context, usually its endpoint.
	Name() string

	// Parse hands a network description to the engine parser.
	Parse(ctx context.Context, description string) (Network, error)

	// Lookup resolves a network by name through the naming service.
	Lookup(ctx context.Context, name string) (Network, error)

	// Close releases the connection. Further calls fail with domain.ErrContextClosed.
	Close() error
}

// Network is a remote belief network.
type Network interface {
	Name(ctx context.Context) (string, error)

	// Variables lists the network's variables in the engine's enumeration order.
	Variables(ctx context.Context) ([]Variable, error)

	AssignEvidence(ctx context.Context, v Variable, value any) error
	ClearPosterior(ctx context.Context, v Variable) error
	ClearAllEvidence(ctx context.Context) error

	// Posterior returns p(v|e), computing it if needed.
	Posterior(ctx context.Context, v Variable) (*domain.Distribution, error)
	ComputePi(ctx context.Context, v Variable) (*domain.Distribution, error)
	ComputeLambda(ctx context.Context, v Variable) (*domain.Distribution, error)

	// RefreshPiMessages makes the engine collect every pi-message into v.
	RefreshPiMessages(ctx context.Context, v Variable) error
	// RefreshLambdaMessages makes the engine collect every lambda-message into v.
	RefreshLambdaMessages(ctx context.Context, v Variable) error

	Format(ctx context.Context, prefix string) (string, error)

	// Attribute reads any other attribute. Unknown names fail with
	// domain.ErrAttributeNotFound.
	Attribute(ctx context.Context, name string) (any, error)
}

// Variable is a variable of a remote belief network. The getters return what the
// engine has cached for the variable; nothing is recomputed.
type Variable interface {
	Name(ctx context.Context) (string, error)
	// Network names the network the variable belongs to, as the engine addresses it.
	Network() string
	Parents(ctx context.Context) ([]Variable, error)
	Children(ctx context.Context) ([]Variable, error)

	Distribution(ctx context.Context) (*domain.Distribution, error)
	Posterior(ctx context.Context) (*domain.Distribution, error)
	Pi(ctx context.Context) (*domain.Distribution, error)
	Lambda(ctx context.Context) (*domain.Distribution, error)
	PiMessages(ctx context.Context) (domain.Messages, error)
	LambdaMessages(ctx context.Context) (domain.Messages, error)

	Format(ctx context.Context, prefix string) (string, error)
	Attribute(ctx context.Context, name string) (any, error)
}
