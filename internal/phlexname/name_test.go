package phlexname

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlgorithmNameMatch(t *testing.T) {
	a := NewAlgorithmName("demo", "double")
	b := NewAlgorithmName("demo", "double")
	c := NewAlgorithmName("demo", "neg")

	require.True(t, a.Match(b))
	require.False(t, a.Match(c))
	require.True(t, AnyAlgorithmName().Match(c))
	require.True(t, a.Match(AnyAlgorithmName()))
}

func TestAlgorithmNameFull(t *testing.T) {
	require.Equal(t, "demo:double", NewAlgorithmName("demo", "double").Full())
}

func TestQualifiedNameFull(t *testing.T) {
	q := QualifiedName{Qualifier: NewAlgorithmName("demo", "double"), Name: "y"}
	require.Equal(t, "demo:double/y", q.Full())

	bare := QualifiedName{Qualifier: AnyAlgorithmName(), Name: "y"}
	require.Equal(t, "y", bare.Full())
}

func TestSpecifiedLabelMatches(t *testing.T) {
	producer := NewAlgorithmName("demo", "double")
	other := NewAlgorithmName("demo", "neg")

	unqualified := Label("y")
	require.True(t, unqualified.Matches(QualifiedName{Qualifier: producer, Name: "y"}))
	require.False(t, unqualified.Matches(QualifiedName{Qualifier: producer, Name: "z"}))

	qualified := QualifiedLabel("y", producer)
	require.True(t, qualified.Matches(QualifiedName{Qualifier: producer, Name: "y"}))
	require.False(t, qualified.Matches(QualifiedName{Qualifier: other, Name: "y"}))
}

func TestAlgorithmNameLess(t *testing.T) {
	a := NewAlgorithmName("demo", "double")
	b := NewAlgorithmName("demo", "neg")
	c := NewAlgorithmName("other", "double")

	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.True(t, a.Less(c))
}
