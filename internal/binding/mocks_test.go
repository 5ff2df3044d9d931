package binding

import (
	"context"

	"github.com/stretchr/testify/mock"

	"bnshell/internal/domain"
	"bnshell/internal/engine"
)

type mockNetwork struct {
	mock.Mock
}

func (m *mockNetwork) Name(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockNetwork) Variables(ctx context.Context) ([]engine.Variable, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]engine.Variable), args.Error(1)
}

func (m *mockNetwork) AssignEvidence(ctx context.Context, v engine.Variable, value any) error {
	args := m.Called(ctx, v, value)
	return args.Error(0)
}

func (m *mockNetwork) ClearPosterior(ctx context.Context, v engine.Variable) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *mockNetwork) ClearAllEvidence(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockNetwork) Posterior(ctx context.Context, v engine.Variable) (*domain.Distribution, error) {
	args := m.Called(ctx, v)
	return distArg(args, 0), args.Error(1)
}

func (m *mockNetwork) ComputePi(ctx context.Context, v engine.Variable) (*domain.Distribution, error) {
	args := m.Called(ctx, v)
	return distArg(args, 0), args.Error(1)
}

func (m *mockNetwork) ComputeLambda(ctx context.Context, v engine.Variable) (*domain.Distribution, error) {
	args := m.Called(ctx, v)
	return distArg(args, 0), args.Error(1)
}

func (m *mockNetwork) RefreshPiMessages(ctx context.Context, v engine.Variable) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *mockNetwork) RefreshLambdaMessages(ctx context.Context, v engine.Variable) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *mockNetwork) Format(ctx context.Context, prefix string) (string, error) {
	args := m.Called(ctx, prefix)
	return args.String(0), args.Error(1)
}

func (m *mockNetwork) Attribute(ctx context.Context, name string) (any, error) {
	args := m.Called(ctx, name)
	return args.Get(0), args.Error(1)
}

type mockVariable struct {
	mock.Mock
}

func (m *mockVariable) Name(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockVariable) Network() string {
	return m.Called().String(0)
}

func (m *mockVariable) Parents(ctx context.Context) ([]engine.Variable, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]engine.Variable), args.Error(1)
}

func (m *mockVariable) Children(ctx context.Context) ([]engine.Variable, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]engine.Variable), args.Error(1)
}

func (m *mockVariable) Distribution(ctx context.Context) (*domain.Distribution, error) {
	args := m.Called(ctx)
	return distArg(args, 0), args.Error(1)
}

func (m *mockVariable) Posterior(ctx context.Context) (*domain.Distribution, error) {
	args := m.Called(ctx)
	return distArg(args, 0), args.Error(1)
}

func (m *mockVariable) Pi(ctx context.Context) (*domain.Distribution, error) {
	args := m.Called(ctx)
	return distArg(args, 0), args.Error(1)
}

func (m *mockVariable) Lambda(ctx context.Context) (*domain.Distribution, error) {
	args := m.Called(ctx)
	return distArg(args, 0), args.Error(1)
}

func (m *mockVariable) PiMessages(ctx context.Context) (domain.Messages, error) {
	args := m.Called(ctx)
	return messagesArg(args, 0), args.Error(1)
}

func (m *mockVariable) LambdaMessages(ctx context.Context) (domain.Messages, error) {
	args := m.Called(ctx)
	return messagesArg(args, 0), args.Error(1)
}

func (m *mockVariable) Format(ctx context.Context, prefix string) (string, error) {
	args := m.Called(ctx, prefix)
	return args.String(0), args.Error(1)
}

func (m *mockVariable) Attribute(ctx context.Context, name string) (any, error) {
	args := m.Called(ctx, name)
	return args.Get(0), args.Error(1)
}

func distArg(args mock.Arguments, i int) *domain.Distribution {
	if d, ok := args.Get(i).(*domain.Distribution); ok {
		return d
	}
	return nil
}

func messagesArg(args mock.Arguments, i int) domain.Messages {
	if m, ok := args.Get(i).(domain.Messages); ok {
		return m
	}
	return nil
}

// fixture is a remote network "alarm" with burglary -> alarm <- earthquake.
type fixture struct {
	net   *mockNetwork
	vars  map[string]*mockVariable
	order []string
}

func newVariable(name string) *mockVariable {
	return newVariableIn("alarm", name)
}

func newVariableIn(network, name string) *mockVariable {
	v := &mockVariable{}
	v.On("Name", mock.Anything).Return(name, nil)
	v.On("Network").Return(network).Maybe()
	return v
}

func newFixture() *fixture {
	f := &fixture{
		net:   &mockNetwork{},
		vars:  make(map[string]*mockVariable),
		order: []string{"burglary", "earthquake", "alarm"},
	}
	remote := make([]engine.Variable, 0, len(f.order))
	for _, name := range f.order {
		v := newVariable(name)
		f.vars[name] = v
		remote = append(remote, v)
	}
	f.net.On("Name", mock.Anything).Return("alarm", nil)
	f.net.On("Variables", mock.Anything).Return(remote, nil)

	b, e, a := f.vars["burglary"], f.vars["earthquake"], f.vars["alarm"]
	a.On("Parents", mock.Anything).Return([]engine.Variable{b, e}, nil)
	a.On("Children", mock.Anything).Return([]engine.Variable{}, nil)
	b.On("Parents", mock.Anything).Return([]engine.Variable{}, nil)
	b.On("Children", mock.Anything).Return([]engine.Variable{a}, nil)
	e.On("Parents", mock.Anything).Return([]engine.Variable{}, nil)
	e.On("Children", mock.Anything).Return([]engine.Variable{a}, nil)
	return f
}
