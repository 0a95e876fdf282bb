package reconstruct

import "fmt"

// handle addresses a slot of an arena. A slot's generation is bumped every
// time it is reused, so a handle outlives the node it pointed at without ever
// resolving to a newer one. Generation zero is never issued.
type handle struct {
	index uint32
	gen   uint32
}

type slot[T any] struct {
	gen uint32
	val *T
}

// arena holds the only strong references to the graph's layers and
// connections. Everything handed out to callers is a handle into it.
type arena[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

func (a *arena[T]) insert(v *T) handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot[T]{})
		idx = uint32(len(a.slots) - 1)
	}
	s := &a.slots[idx]
	s.gen++
	s.val = v
	a.live++
	return handle{index: idx, gen: s.gen}
}

func (a *arena[T]) get(h handle) (*T, bool) {
	if h.gen == 0 || int(h.index) >= len(a.slots) {
		return nil, false
	}
	s := a.slots[h.index]
	if s.gen != h.gen || s.val == nil {
		return nil, false
	}
	return s.val, true
}

func (a *arena[T]) remove(h handle) bool {
	if _, ok := a.get(h); !ok {
		return false
	}
	a.slots[h.index].val = nil
	a.free = append(a.free, h.index)
	a.live--
	return true
}

func (a *arena[T]) len() int {
	return a.live
}

// LayerRef is a weak handle to a layer. It stays comparable and cheap to copy
// after the layer is removed; Get then reports false. The zero LayerRef means
// "no layer".
type LayerRef struct {
	g *Graph
	h handle
}

// Get resolves the handle. The returned layer must not be retained beyond
// the current graph operation.
func (r LayerRef) Get() (*Layer, bool) {
	if r.g == nil {
		return nil, false
	}
	return r.g.layers.get(r.h)
}

// IsValid reports whether the layer still exists.
func (r LayerRef) IsValid() bool {
	_, ok := r.Get()
	return ok
}

// IsNone reports whether r is the zero handle.
func (r LayerRef) IsNone() bool {
	return r.g == nil
}

func (r LayerRef) String() string {
	if r.IsNone() {
		return "layer(none)"
	}
	return fmt.Sprintf("layer#%d.%d", r.h.index, r.h.gen)
}

// ConnectionRef is a weak handle to a connection.
type ConnectionRef struct {
	g *Graph
	h handle
}

// Get resolves the handle. It fails once the connection has been
// disconnected or torn down with its layer or file.
func (r ConnectionRef) Get() (*Connection, bool) {
	if r.g == nil {
		return nil, false
	}
	return r.g.connections.get(r.h)
}

// IsValid reports whether the connection still exists.
func (r ConnectionRef) IsValid() bool {
	_, ok := r.Get()
	return ok
}

func (r ConnectionRef) String() string {
	if r.g == nil {
		return "connection(none)"
	}
	return fmt.Sprintf("connection#%d.%d", r.h.index, r.h.gen)
}
