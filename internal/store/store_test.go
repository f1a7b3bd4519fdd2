package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestStoreForProductVisibility(t *testing.T) {
	root := Base("job")
	root.AddProduct("x", cty.NumberIntVal(1))

	child := root.MakeChild(0, "event", "demo:source", map[string]cty.Value{"y": cty.NumberIntVal(2)})

	src, ok := child.StoreForProduct("x")
	require.True(t, ok)
	require.Same(t, root, src)

	src, ok = child.StoreForProduct("y")
	require.True(t, ok)
	require.Same(t, child, src)

	_, ok = root.StoreForProduct("y")
	require.False(t, ok, "a product stored only on a descendant must not be visible to an ancestor")
}

func TestMostDerived(t *testing.T) {
	root := Base("job")
	child := root.MakeChildEmpty(0, "event", "demo:source", Process)
	grandchild := child.MakeChildEmpty(0, "segment", "demo:unfold", Process)

	require.Same(t, child, MostDerived(root, child))
	require.Same(t, grandchild, MostDerived(child, grandchild))
	require.Same(t, grandchild, MostDerived(grandchild, root))
}

func TestMostDerivedAllLeftFold(t *testing.T) {
	root := Base("job")
	a := root.MakeChildEmpty(0, "event", "demo:source", Process)
	b := a.MakeChildEmpty(0, "segment", "demo:unfold", Process)
	c := root.MakeChildEmpty(1, "event", "demo:source", Process)

	// b is a descendant of a; c is unrelated to b, so the tuple-fold picks
	// the second operand at that step per most_derived's tie-break rule.
	got := MostDerivedAll(a, b, c)
	require.Same(t, c, got)
}

func TestMakeContinuationRoundTrip(t *testing.T) {
	root := Base("job")
	child := root.MakeChildEmpty(0, "event", "demo:source", Process)
	require.NoError(t, child.AddProduct("x", cty.NumberIntVal(3)))

	cont := child.MakeContinuation("demo:double", nil)

	require.True(t, cont.ID().Equal(child.ID()))
	parent, ok := cont.Parent()
	require.True(t, ok)
	require.Same(t, root, parent)

	// The continuation must still see the predecessor's products.
	v, ok := cont.GetProduct("x")
	require.True(t, ok)
	require.True(t, v.RawEquals(cty.NumberIntVal(3)))
}

func TestMakeContinuationPreservesProductProvenance(t *testing.T) {
	child := Base("job").MakeChildEmpty(0, "event", "demo:source", Process)
	require.NoError(t, child.AddProduct("x", cty.NumberIntVal(3)))

	cont := child.MakeContinuation("demo:double", map[string]cty.Value{"y": cty.NumberIntVal(6)})

	xSrc, ok := cont.ProductSource("x")
	require.True(t, ok)
	require.Equal(t, "demo:source", xSrc, "a copied-forward product must keep its original producer")

	ySrc, ok := cont.ProductSource("y")
	require.True(t, ok)
	require.Equal(t, "demo:double", ySrc)
}

func TestMakeChildParentNavigation(t *testing.T) {
	base := Base("job")
	child := base.MakeChild(1, "run", "", nil)

	parent, ok := child.ParentNamed("run")
	require.True(t, ok)
	require.Same(t, child, parent)

	parent, ok = child.ParentNamed("job")
	require.True(t, ok)
	require.Same(t, base, parent)
}

func TestAddProductRejectsDuplicateKey(t *testing.T) {
	s := Base("job")
	require.NoError(t, s.AddProduct("x", cty.NumberIntVal(1)))
	require.Error(t, s.AddProduct("x", cty.NumberIntVal(2)))
}

func TestAddProductRejectsSealedStore(t *testing.T) {
	s := Base("job")
	s.Seal()
	require.Error(t, s.AddProduct("x", cty.NumberIntVal(1)))
}

func TestMakeFlushSharesIDAndParent(t *testing.T) {
	root := Base("job")
	child := root.MakeChildEmpty(0, "event", "demo:source", Process)
	flush := child.MakeFlush()

	require.True(t, flush.ID().Equal(child.ID()))
	require.True(t, flush.IsFlush())
	parent, ok := flush.Parent()
	require.True(t, ok)
	require.Same(t, root, parent)
}
