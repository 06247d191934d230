package entity

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrForeignModule is returned when a module bound to one entity is added to another.
var ErrForeignModule = errors.New("module belongs to another entity")

// ModuleKind is the discriminant a node's module map is keyed by.
// A node holds at most one module per kind.
type ModuleKind uint16

// Module is a behavior attached to an entity.
// Implementations embed ModuleBase.
type Module interface {
	Kind() ModuleKind
	OnDestroy()
	base() *ModuleBase
}

// ModuleBase carries the owning entity handle.
type ModuleBase struct {
	owner ID
}

// Owner returns the entity the module is attached to, or None.
func (b *ModuleBase) Owner() ID { return b.owner }

// OnDestroy is the default no-op destroy hook.
func (b *ModuleBase) OnDestroy() {}

func (b *ModuleBase) base() *ModuleBase { return b }

// AddModule binds m to the node, runs its Awake hook and stores it.
// A previous module of the same kind is destroyed first.
func (n *Node) AddModule(m Module) error {
	b := m.base()
	if b.owner != None && b.owner != n.id {
		return fmt.Errorf("%w: kind %d owned by %d, adding to %d", ErrForeignModule, m.Kind(), b.owner, n.id)
	}

	if prev, ok := n.modules[m.Kind()]; ok && prev != m {
		prev.OnDestroy()
		prev.base().owner = None
	}

	b.owner = n.id
	if aw, ok := m.(Awaker); ok {
		aw.Awake()
	}
	if n.modules == nil {
		n.modules = make(map[ModuleKind]Module, 4)
	}
	n.modules[m.Kind()] = m
	return nil
}

// RemoveModule destroys and detaches the module of the given kind.
func (n *Node) RemoveModule(kind ModuleKind) {
	m, ok := n.modules[kind]
	if !ok {
		return
	}
	delete(n.modules, kind)
	m.OnDestroy()
	m.base().owner = None
}

// Module returns the module of the given kind, or nil.
func (n *Node) Module(kind ModuleKind) Module {
	return n.modules[kind]
}

// TryModule returns the module of the given kind and whether it exists.
func (n *Node) TryModule(kind ModuleKind) (Module, bool) {
	m, ok := n.modules[kind]
	return m, ok
}

// HasModule reports whether a module of the given kind is attached.
func (n *Node) HasModule(kind ModuleKind) bool {
	_, ok := n.modules[kind]
	return ok
}

// ModuleOf returns the module of the given kind asserted to M.
func ModuleOf[M Module](n *Node, kind ModuleKind) (M, bool) {
	m, ok := n.modules[kind]
	if !ok {
		var zero M
		return zero, false
	}
	typed, ok := m.(M)
	return typed, ok
}

// destroyModules runs OnDestroy on every module in ascending kind order.
func (n *Node) destroyModules() {
	for _, kind := range slices.Sorted(maps.Keys(n.modules)) {
		m := n.modules[kind]
		m.OnDestroy()
		m.base().owner = None
	}
	n.modules = nil
}
