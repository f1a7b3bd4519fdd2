package catalog

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sabasehrish/phlex/internal/algo"
	"github.com/sabasehrish/phlex/internal/phlexname"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func double(_ context.Context, inputs []cty.Value) ([]cty.Value, error) {
	return []cty.Value{inputs[0]}, nil
}

func newTransformNode(plugin, algorithm string) *Node {
	return &Node{
		Name:        phlexname.NewAlgorithmName(plugin, algorithm),
		Kind:        algo.KindTransform,
		Arity:       -1,
		Concurrency: algo.Unlimited(),
		Impl:        algo.TransformImpl{Fn: double},
		Inputs:      []phlexname.SpecifiedLabel{phlexname.Label("x")},
		Outputs:     []string{"y"},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	cat := New()
	cat.Register(newTransformNode("demo", "double"))

	require.Empty(t, cat.Errors())
	n, ok := cat.Lookup("demo:double")
	require.True(t, ok)
	require.Equal(t, "demo:double", n.FullName())
}

func TestDuplicateRegistrationYieldsOneEntryAndOneError(t *testing.T) {
	cat := New()
	cat.Register(newTransformNode("demo", "double"))
	cat.Register(newTransformNode("demo", "double"))

	require.Len(t, cat.All(), 1)
	require.Len(t, cat.Errors(), 1)
	require.Contains(t, cat.Errors()[0], "duplicate node registration")
}

func TestArityMismatchIsRecordedNotPanicked(t *testing.T) {
	cat := New()
	n := newTransformNode("demo", "double")
	n.Arity = 2 // declared 1 input above
	cat.Register(n)

	require.Empty(t, cat.All())
	require.Len(t, cat.Errors(), 1)
	require.Contains(t, cat.Errors()[0], "expected 2 input")
}

func TestFoldRequiresPartition(t *testing.T) {
	cat := New()
	n := &Node{
		Name: phlexname.NewAlgorithmName("demo", "sum"),
		Kind: algo.KindFold,
		Impl: algo.FoldImpl{Initial: []cty.Value{cty.NumberIntVal(0)}},
		Outputs: []string{"sum"},
	}
	cat.Register(n)

	require.Empty(t, cat.All())
	require.Len(t, cat.Errors(), 1)
	require.Contains(t, cat.Errors()[0], "partition")
}

func TestOutputQualifiedNamesMatchesDeclaredOutputs(t *testing.T) {
	cat := New()
	cat.Register(newTransformNode("demo", "double"))
	n, ok := cat.Lookup("demo:double")
	require.True(t, ok)

	want := []phlexname.QualifiedName{{Qualifier: phlexname.NewAlgorithmName("demo", "double"), Name: "y"}}
	got := n.OutputQualifiedNames()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("OutputQualifiedNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestByKindFiltersAndPreservesOrder(t *testing.T) {
	cat := New()
	cat.Register(newTransformNode("demo", "double"))
	cat.Register(newTransformNode("demo", "triple"))

	nodes := cat.ByKind(algo.KindTransform)
	require.Len(t, nodes, 2)
	require.Equal(t, "demo:double", nodes[0].FullName())
	require.Equal(t, "demo:triple", nodes[1].FullName())
}
