package skill

import (
	"log/slog"

	"github.com/udisondev/abilitycore/internal/game/entity"
)

// abilityBase is the shared state of every ability entity: skills, statuses,
// effects and action pipelines.
type abilityBase struct {
	entity.Node
	ctx     *Context
	enabled bool
	owner   entity.ID
}

// Enabled reports whether the ability is active.
func (a *abilityBase) Enabled() bool { return a.enabled && !a.Disposed() }

// Owner returns the nearest ancestor combat actor, or nil once it is gone.
func (a *abilityBase) Owner() *CombatEntity {
	if a.owner == entity.None {
		if owner, ok := entity.FindAncestor[*CombatEntity](a.ctx.arena, a.ID()); ok {
			a.owner = owner.ID()
		}
	}
	owner, ok := a.ctx.Actor(a.owner)
	if !ok {
		return nil
	}
	return owner
}

// actionPtr is satisfied by *A when A embeds actionBase.
type actionPtr[A any] interface {
	*A
	bindRelease(release func())
}

// ActionAbility is an always-on ability that hands out pooled actions.
// At most len(slots) actions are in flight at once.
type ActionAbility[A any, P actionPtr[A]] struct {
	abilityBase
	slots []A
	busy  []bool
}

// Action pipelines attached to every combat actor.
type (
	EffectAssignAbility = ActionAbility[EffectAssignAction, *EffectAssignAction]
	DamageAbility       = ActionAbility[DamageAction, *DamageAction]
	CureAbility         = ActionAbility[CureAction, *CureAction]
	AddStatusAbility    = ActionAbility[AddStatusAction, *AddStatusAction]
)

// AttachAction creates an action ability with size slots under owner and enables it.
func AttachAction[A any, P actionPtr[A]](owner *CombatEntity, size int) *ActionAbility[A, P] {
	size = max(size, 1)
	return entity.Spawn(owner.ctx.arena, owner.ID(), &ActionAbility[A, P]{
		abilityBase: abilityBase{ctx: owner.ctx, enabled: true, owner: owner.ID()},
		slots:       make([]A, size),
		busy:        make([]bool, size),
	})
}

// TryMakeAction takes a free action slot. It returns false when every slot is
// in flight; the caller drops the action.
func (p *ActionAbility[A, P]) TryMakeAction() (P, bool) {
	if !p.Enabled() {
		return nil, false
	}
	for i := range p.busy {
		if p.busy[i] {
			continue
		}
		var zero A
		p.slots[i] = zero
		p.busy[i] = true
		act := P(&p.slots[i])
		act.bindRelease(func() { p.busy[i] = false })
		return act, true
	}
	slog.Debug("action pool exhausted", "ability", p.ID(), "size", len(p.slots))
	return nil, false
}

// InFlight returns the number of taken slots.
func (p *ActionAbility[A, P]) InFlight() int {
	n := 0
	for _, b := range p.busy {
		if b {
			n++
		}
	}
	return n
}

// Size returns the pool capacity.
func (p *ActionAbility[A, P]) Size() int { return len(p.slots) }
