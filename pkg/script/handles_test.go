package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marlin/pkg/html"
)

func TestHandleStability(t *testing.T) {
	table := NewHandleTable()
	node := &html.Node{Type: html.ElementNode, TagName: "div"}

	h := table.GetOrCreate(node)
	for i := 0; i < 5; i++ {
		assert.Equal(t, h, table.GetOrCreate(node), "repeated calls must return the same handle")
	}
}

func TestHandleUniquenessAndMonotonicity(t *testing.T) {
	table := NewHandleTable()
	seen := make(map[int]bool)
	prev := 0
	for i := 0; i < 10; i++ {
		h := table.GetOrCreate(&html.Node{Type: html.ElementNode, TagName: "p"})
		assert.False(t, seen[h], "handle %d reused", h)
		assert.Greater(t, h, prev, "handles must increase monotonically")
		seen[h] = true
		prev = h
	}
	assert.Equal(t, 10, table.Len())
}

func TestHandleStartsAtOne(t *testing.T) {
	table := NewHandleTable()
	node := &html.Node{Type: html.ElementNode, TagName: "div"}
	assert.Equal(t, 1, table.GetOrCreate(node))
}

func TestResolveRoundTrip(t *testing.T) {
	table := NewHandleTable()
	a := &html.Node{Type: html.ElementNode, TagName: "a"}
	b := &html.Node{Type: html.ElementNode, TagName: "b"}

	ha := table.GetOrCreate(a)
	hb := table.GetOrCreate(b)

	got, err := table.Resolve(ha)
	require.NoError(t, err)
	assert.Same(t, a, got)

	got, err = table.Resolve(hb)
	require.NoError(t, err)
	assert.Same(t, b, got)
}

func TestResolveUnknownHandle(t *testing.T) {
	table := NewHandleTable()
	_, err := table.Resolve(42)
	require.Error(t, err)

	var unknown *UnknownHandleError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, 42, unknown.Handle)
	assert.Contains(t, err.Error(), "42")
}

func TestResolveZeroNeverAllocated(t *testing.T) {
	table := NewHandleTable()
	table.GetOrCreate(&html.Node{Type: html.ElementNode, TagName: "div"})
	_, err := table.Resolve(0)
	assert.Error(t, err, "0 is the no-handle sentinel and must never resolve")
}

// Once handled, a node is retained for the rest of the page load even after
// it is detached from the tree. This is the documented leak: reclaiming
// would need the two runtimes' collectors to coordinate.
func TestDetachedNodeStaysResolvable(t *testing.T) {
	table := NewHandleTable()
	parent := &html.Node{Type: html.ElementNode, TagName: "div"}
	child := &html.Node{Type: html.ElementNode, TagName: "span"}
	parent.AddChild(child)

	h := table.GetOrCreate(child)
	parent.ReplaceChildren(nil)

	got, err := table.Resolve(h)
	require.NoError(t, err)
	assert.Same(t, child, got)
}
