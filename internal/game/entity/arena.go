package entity

import "slices"

// ID is a stable entity handle. Handles are never reused within an Arena.
type ID uint32

// None is the invalid handle.
const None ID = 0

// Object is anything stored in the arena. Implementations embed Node.
type Object interface {
	Base() *Node
}

// Awaker is implemented by entities and modules that need an init hook.
type Awaker interface {
	Awake()
}

// Destroyer is implemented by entities that need a hook on disposal.
// It runs after module OnDestroy hooks and before children are disposed.
type Destroyer interface {
	OnDestroy()
}

// Node is the graph state of an entity: handle, parent, children and modules.
type Node struct {
	id       ID
	parent   ID
	children []ID
	modules  map[ModuleKind]Module
	disposed bool
}

// Base implements Object.
func (n *Node) Base() *Node { return n }

// ID returns the entity handle.
func (n *Node) ID() ID { return n.id }

// Parent returns the parent handle, or None for roots.
func (n *Node) Parent() ID { return n.parent }

// Children returns a copy of the child handles in creation order.
func (n *Node) Children() []ID { return slices.Clone(n.children) }

// Disposed reports whether the entity has been disposed.
func (n *Node) Disposed() bool { return n.disposed }

// Arena owns every entity of a combat context.
type Arena struct {
	nextID  ID
	objects map[ID]Object
}

// NewArena creates an empty arena. IDs start at 1.
func NewArena() *Arena {
	return &Arena{objects: make(map[ID]Object, 256)}
}

// Spawn registers obj under parent (None for a root), runs its Awake hook
// and returns it.
func Spawn[T Object](a *Arena, parent ID, obj T) T {
	n := obj.Base()
	a.nextID++
	n.id = a.nextID
	n.parent = None
	n.disposed = false
	a.objects[n.id] = obj

	if p, ok := a.objects[parent]; ok && parent != None {
		n.parent = parent
		pn := p.Base()
		pn.children = append(pn.children, n.id)
	}

	if aw, ok := any(obj).(Awaker); ok {
		aw.Awake()
	}
	return obj
}

// Get returns the live object for id.
func (a *Arena) Get(id ID) (Object, bool) {
	obj, ok := a.objects[id]
	return obj, ok
}

// Alive reports whether id refers to a live entity.
func (a *Arena) Alive(id ID) bool {
	_, ok := a.objects[id]
	return ok
}

// Len returns the number of live entities.
func (a *Arena) Len() int {
	return len(a.objects)
}

// Lookup returns the live object for id asserted to T.
func Lookup[T Object](a *Arena, id ID) (T, bool) {
	obj, ok := a.objects[id]
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := obj.(T)
	return typed, ok
}

// FindAncestor walks up from id (exclusive) and returns the nearest ancestor of type T.
func FindAncestor[T Object](a *Arena, id ID) (T, bool) {
	var zero T
	obj, ok := a.objects[id]
	if !ok {
		return zero, false
	}
	for parent := obj.Base().parent; parent != None; {
		p, ok := a.objects[parent]
		if !ok {
			return zero, false
		}
		if typed, ok := p.(T); ok {
			return typed, true
		}
		parent = p.Base().parent
	}
	return zero, false
}

// Dispose destroys id and its subtree: module hooks, the entity's own
// OnDestroy, children (in creation order), then detaches from the parent.
// Disposing an unknown or already disposed entity is a no-op.
//
// Callbacks that dispose entities while iterating children must iterate a
// snapshot (Children returns one).
func (a *Arena) Dispose(id ID) {
	obj, ok := a.objects[id]
	if !ok {
		return
	}
	n := obj.Base()
	if n.disposed {
		return
	}
	n.disposed = true

	n.destroyModules()
	if d, ok := obj.(Destroyer); ok {
		d.OnDestroy()
	}

	for _, child := range slices.Clone(n.children) {
		a.Dispose(child)
	}
	n.children = nil

	if p, ok := a.objects[n.parent]; ok {
		pn := p.Base()
		if i := slices.Index(pn.children, id); i >= 0 {
			pn.children = slices.Delete(pn.children, i, i+1)
		}
	}
	delete(a.objects, id)
}
