package levelid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseAndChild(t *testing.T) {
	root := Base("job")
	require.Equal(t, "job", root.LevelName())
	require.Equal(t, 0, root.LevelNumber())
	require.Equal(t, 1, root.Depth())

	run := root.Child("run", 1)
	require.Equal(t, "run", run.LevelName())
	require.Equal(t, 2, run.Depth())

	parent, ok := run.Parent()
	require.True(t, ok)
	require.True(t, parent.Equal(root))
}

func TestRootHasNoParent(t *testing.T) {
	root := Base("job")
	_, ok := root.Parent()
	require.False(t, ok)
}

func TestIsAncestorOf(t *testing.T) {
	root := Base("job")
	event := root.Child("event", 0)
	segment := event.Child("segment", 2)

	require.True(t, root.IsAncestorOf(event))
	require.True(t, root.IsAncestorOf(segment))
	require.True(t, event.IsAncestorOf(segment))
	require.False(t, event.IsAncestorOf(root))
	require.False(t, root.IsAncestorOf(root))
}

func TestAncestorNamed(t *testing.T) {
	root := Base("job")
	event := root.Child("event", 3)
	segment := event.Child("segment", 0)

	jobAncestor, ok := segment.AncestorNamed("job")
	require.True(t, ok)
	require.True(t, jobAncestor.Equal(root))

	eventAncestor, ok := segment.AncestorNamed("event")
	require.True(t, ok)
	require.True(t, eventAncestor.Equal(event))

	_, ok = segment.AncestorNamed("run")
	require.False(t, ok)
}

func TestHashStableAcrossEqualPaths(t *testing.T) {
	a := Base("job").Child("event", 2)
	b := Base("job").Child("event", 2)
	require.Equal(t, a.Hash(), b.Hash())
	require.True(t, a.Equal(b))

	c := Base("job").Child("event", 3)
	require.NotEqual(t, a.Hash(), c.Hash())
}

func TestString(t *testing.T) {
	id := Base("job").Child("event", 2)
	require.Equal(t, "job[0]/event[2]", id.String())
}
