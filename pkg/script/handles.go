package script

import (
	"fmt"

	"marlin/pkg/html"
)

// HandleTable maps host-side document nodes to the small integer tokens
// that cross the runtime boundary. Handles start at 1 and grow
// monotonically; 0 is never allocated and can serve as a "no handle"
// sentinel. Handles are scoped to one page load: the table lives and dies
// with its Bridge.
//
// The table keeps a strong reference to every node it has ever handed out,
// even after the node is detached from the document by a mutation. True
// reclamation would require coordinating the two runtimes' collectors, so
// the growth is an accepted cost for the duration of a page load.
type HandleTable struct {
	byNode   map[*html.Node]int
	byHandle map[int]*html.Node
	next     int
}

// UnknownHandleError is returned when a handle resolves to nothing. Scripts
// cannot forge handles, so this always indicates a defect in the bridge or
// the bootstrap program, not a script bug.
type UnknownHandleError struct {
	Handle int
}

func (e *UnknownHandleError) Error() string {
	return fmt.Sprintf("unknown node handle %d", e.Handle)
}

// NewHandleTable returns an empty table whose first handle will be 1.
func NewHandleTable() *HandleTable {
	return &HandleTable{
		byNode:   make(map[*html.Node]int),
		byHandle: make(map[int]*html.Node),
		next:     1,
	}
}

// GetOrCreate returns the node's existing handle, or allocates the next
// integer and records the pair in both directions.
func (t *HandleTable) GetOrCreate(node *html.Node) int {
	if h, ok := t.byNode[node]; ok {
		return h
	}
	h := t.next
	t.next++
	t.byNode[node] = h
	t.byHandle[h] = node
	return h
}

// Resolve returns the node for a previously allocated handle.
func (t *HandleTable) Resolve(handle int) (*html.Node, error) {
	node, ok := t.byHandle[handle]
	if !ok {
		return nil, &UnknownHandleError{Handle: handle}
	}
	return node, nil
}

// Len returns the number of nodes that have been made script-visible.
func (t *HandleTable) Len() int {
	return len(t.byHandle)
}
