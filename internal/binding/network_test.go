package binding

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bnshell/internal/domain"
	"bnshell/internal/engine"
)

func bind(t *testing.T, f *fixture, opts ...Option) *Network {
	t.Helper()
	n, err := NewNetwork(context.Background(), f.net, opts...)
	require.NoError(t, err)
	return n
}

func TestNewNetwork(t *testing.T) {
	t.Run("variables in enumeration order", func(t *testing.T) {
		f := newFixture()
		n := bind(t, f)

		assert.Equal(t, "alarm", n.Name())
		var names []string
		for _, v := range n.Variables() {
			names = append(names, v.Name())
		}
		if diff := cmp.Diff(f.order, names); diff != "" {
			t.Errorf("variable order mismatch (-want +got):\n%s", diff)
		}
		for _, name := range f.order {
			v, ok := n.Variable(name)
			require.True(t, ok, name)
			assert.Same(t, n, v.Owner())
		}
	})

	t.Run("duplicate variable name", func(t *testing.T) {
		rn := &mockNetwork{}
		rn.On("Name", mock.Anything).Return("dup", nil)
		rn.On("Variables", mock.Anything).Return([]engine.Variable{newVariable("x"), newVariable("x")}, nil)

		_, err := NewNetwork(context.Background(), rn)
		assert.Error(t, err)
	})

	t.Run("engine failure", func(t *testing.T) {
		rn := &mockNetwork{}
		rn.On("Name", mock.Anything).Return("", errors.New("connection refused"))

		_, err := NewNetwork(context.Background(), rn)
		assert.ErrorContains(t, err, "connection refused")
	})
}

func TestNetworkNodes(t *testing.T) {
	f := newFixture()
	n := bind(t, f)
	ctx := context.Background()

	first, err := n.Field(ctx, FieldNodes)
	require.NoError(t, err)
	nodes := first.(*NodeList)

	assert.Equal(t, len(f.order), nodes.Len())
	assert.Equal(t, f.order, nodes.Names())
	for i, name := range f.order {
		v, err := nodes.At(i)
		require.NoError(t, err)
		want, _ := n.Variable(name)
		assert.Same(t, want, v)
	}

	second, err := n.Field(ctx, FieldNodes)
	require.NoError(t, err)
	assert.Same(t, nodes, second)

	_, err = nodes.At(len(f.order))
	assert.Error(t, err)
	_, err = nodes.At(-1)
	assert.Error(t, err)

	f.net.AssertNumberOfCalls(t, "Variables", 1)
}

func TestNetworkSetField(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns evidence once", func(t *testing.T) {
		f := newFixture()
		n := bind(t, f)
		f.net.On("AssignEvidence", mock.Anything, f.vars["burglary"], 1.0).Return(nil)

		require.NoError(t, n.SetField(ctx, "burglary", 1.0))

		f.net.AssertNumberOfCalls(t, "AssignEvidence", 1)
		f.net.AssertNotCalled(t, "ClearPosterior", mock.Anything, mock.Anything)
		got, err := n.Field(ctx, "burglary")
		require.NoError(t, err)
		assert.IsType(t, &Variable{}, got)
		assert.Empty(t, n.Locals())

		ev, ok := n.Evidence("burglary")
		assert.True(t, ok)
		assert.Equal(t, 1.0, ev)
	})

	t.Run("nil clears posterior once", func(t *testing.T) {
		f := newFixture()
		n := bind(t, f)
		f.net.On("ClearPosterior", mock.Anything, f.vars["alarm"]).Return(nil)

		require.NoError(t, n.SetField(ctx, "alarm", nil))

		f.net.AssertNumberOfCalls(t, "ClearPosterior", 1)
		f.net.AssertNotCalled(t, "AssignEvidence", mock.Anything, mock.Anything, mock.Anything)
		_, ok := n.Evidence("alarm")
		assert.False(t, ok)
	})

	t.Run("unknown name is local state", func(t *testing.T) {
		f := newFixture()
		n := bind(t, f)

		require.NoError(t, n.SetField(ctx, "note", "checked"))

		got, err := n.Field(ctx, "note")
		require.NoError(t, err)
		assert.Equal(t, "checked", got)
		assert.Equal(t, []string{"note"}, n.Locals())
		f.net.AssertNotCalled(t, "AssignEvidence", mock.Anything, mock.Anything, mock.Anything)
		f.net.AssertNotCalled(t, "ClearPosterior", mock.Anything, mock.Anything)
		f.net.AssertNotCalled(t, "Attribute", mock.Anything, mock.Anything)
	})

	t.Run("engine rejects evidence", func(t *testing.T) {
		f := newFixture()
		n := bind(t, f)
		rejected := &domain.RemoteError{Code: domain.CodeEvidenceType, Message: "expected a number"}
		f.net.On("AssignEvidence", mock.Anything, f.vars["burglary"], "yes").Return(rejected)

		err := n.SetField(ctx, "burglary", "yes")
		assert.ErrorIs(t, err, domain.ErrEvidenceTypeMismatch)
		_, ok := n.Evidence("burglary")
		assert.False(t, ok)
	})

	t.Run("read-only fields", func(t *testing.T) {
		f := newFixture()
		n := bind(t, f)

		assert.ErrorIs(t, n.SetField(ctx, FieldNodes, 1), domain.ErrReadOnlyField)
		assert.ErrorIs(t, n.SetField(ctx, FieldName, "x"), domain.ErrReadOnlyField)
	})

	t.Run("through nodes index", func(t *testing.T) {
		f := newFixture()
		n := bind(t, f)
		f.net.On("AssignEvidence", mock.Anything, f.vars["earthquake"], 0.0).Return(nil)
		f.net.On("ClearPosterior", mock.Anything, f.vars["earthquake"]).Return(nil)

		require.NoError(t, n.Nodes().Set(ctx, 1, 0.0))
		require.NoError(t, n.Nodes().Set(ctx, 1, nil))

		f.net.AssertNumberOfCalls(t, "AssignEvidence", 1)
		f.net.AssertNumberOfCalls(t, "ClearPosterior", 1)
		assert.Error(t, n.Nodes().Set(ctx, 9, 1.0))
	})
}

func TestNetworkFieldForwarding(t *testing.T) {
	f := newFixture()
	n := bind(t, f)
	ctx := context.Background()
	f.net.On("Attribute", mock.Anything, "fullname").Return("localhost:1099/alarm", nil)
	f.net.On("Attribute", mock.Anything, "colour").Return(nil, &domain.RemoteError{Code: domain.CodeUnknownAttribute, Message: "colour"})

	got, err := n.Field(ctx, "fullname")
	require.NoError(t, err)
	assert.Equal(t, "localhost:1099/alarm", got)

	_, err = n.Field(ctx, "colour")
	assert.ErrorIs(t, err, domain.ErrAttributeNotFound)

	got, err = n.Field(ctx, FieldName)
	require.NoError(t, err)
	assert.Equal(t, "alarm", got)
}

func TestNetworkClearAllEvidence(t *testing.T) {
	f := newFixture()
	n := bind(t, f)
	ctx := context.Background()
	f.net.On("AssignEvidence", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.net.On("ClearAllEvidence", mock.Anything).Return(nil)

	require.NoError(t, n.SetField(ctx, "burglary", 1.0))
	require.NoError(t, n.ClearAllEvidence(ctx))

	f.net.AssertNumberOfCalls(t, "ClearAllEvidence", 1)
	_, ok := n.Evidence("burglary")
	assert.False(t, ok)
}

func TestNetworkFormat(t *testing.T) {
	f := newFixture()
	n := bind(t, f)
	f.net.On("Format", mock.Anything, "").Return("alarm {\n}\n", nil)

	text, err := n.Format(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alarm {\n}\n", text)
}

func TestNetworkSnapshot(t *testing.T) {
	f := newFixture()
	n := bind(t, f)
	ctx := context.Background()
	f.net.On("AssignEvidence", mock.Anything, f.vars["burglary"], 1.0).Return(nil)
	for name, v := range f.vars {
		v.On("Posterior", mock.Anything).Return(&domain.Distribution{Class: "Discrete", Description: "p(" + name + ")"}, nil)
	}
	require.NoError(t, n.SetField(ctx, "burglary", 1.0))

	snap, err := n.Snapshot(ctx)
	require.NoError(t, err)

	want := &domain.NetworkSnapshot{
		Name: "alarm",
		Variables: []domain.VariableSnapshot{
			{Name: "burglary", Parents: []string{}, Children: []string{"alarm"}, Evidence: 1.0, Posterior: "p(burglary)"},
			{Name: "earthquake", Parents: []string{}, Children: []string{"alarm"}, Posterior: "p(earthquake)"},
			{Name: "alarm", Parents: []string{"burglary", "earthquake"}, Children: []string{}, Posterior: "p(alarm)"},
		},
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestIndependentImports(t *testing.T) {
	ctx := context.Background()
	f1, f2 := newFixture(), newFixture()
	n1, n2 := bind(t, f1), bind(t, f2)

	f1.vars["alarm"].On("Posterior", mock.Anything).Return(&domain.Distribution{Class: "first"}, nil)
	f2.vars["alarm"].On("Posterior", mock.Anything).Return(&domain.Distribution{Class: "second"}, nil)
	f1.net.On("AssignEvidence", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	a1, _ := n1.Variable("alarm")
	a2, _ := n2.Variable("alarm")
	assert.NotSame(t, a1, a2)

	p1, err := a1.Posterior(ctx)
	require.NoError(t, err)
	p2, err := a2.Posterior(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", p1.Class)
	assert.Equal(t, "second", p2.Class)

	require.NoError(t, n1.SetField(ctx, "burglary", 1.0))
	require.NoError(t, n1.SetField(ctx, "note", "only here"))
	_, ok := n2.Evidence("burglary")
	assert.False(t, ok)
	assert.Empty(t, n2.Locals())
	assert.NotSame(t, n1.Nodes(), n2.Nodes())

	n1.Refresh()
	assert.False(t, a1.posterior.cached())
	assert.True(t, a2.posterior.cached())

	f2.net.AssertNotCalled(t, "AssignEvidence", mock.Anything, mock.Anything, mock.Anything)
}
