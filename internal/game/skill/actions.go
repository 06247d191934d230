package skill

import (
	"log/slog"
	"time"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/event"
	"github.com/udisondev/abilitycore/internal/game/entity"
)

// actionBase is embedded by every pooled action.
type actionBase struct {
	release func()
	// Creator is the actor performing the action.
	Creator *CombatEntity
	// Target is the actor the action mutates.
	Target *CombatEntity
}

func (a *actionBase) bindRelease(release func()) { a.release = release }

// finish returns the action to its pool. Safe to call twice.
func (a *actionBase) finish() {
	if r := a.release; r != nil {
		a.release = nil
		r()
	}
}

func (a *actionBase) targetAlive() bool {
	return a.Target != nil && a.Target.Alive()
}

func (a *actionBase) trigger(point data.ActionPointType, on *CombatEntity, amount float64) {
	if on == nil || on.Disposed() {
		return
	}
	info := ActionInfo{Point: point, Amount: amount}
	if a.Creator != nil {
		info.Creator = a.Creator.ID()
	}
	if a.Target != nil {
		info.Target = a.Target.ID()
	}
	on.actionPoints.Trigger(info)
}

// EffectAssignAction applies one effect to one target.
type EffectAssignAction struct {
	actionBase
	Effect *AbilityEffect
	// Execution and Item attribute the assignment; None when not applicable.
	Execution entity.ID
	Item      entity.ID
	// TargetCount is the number of targets hit together, for decorators.
	TargetCount int
	// Trigger is the action that fired an action point trigger, if any.
	Trigger *ActionInfo
}

// ApplyEffectAssign resolves the effect payload against the target, fires the
// assign action points, publishes EffectAssigned and releases the action.
// A dead or disposed target is left untouched.
func (a *EffectAssignAction) ApplyEffectAssign() {
	defer a.finish()

	e := a.Effect
	if !a.targetAlive() || e == nil || e.Disposed() || a.Creator == nil {
		return
	}

	payload, ok := entity.ModuleOf[effectPayload](e.Base(), ModuleEffectPayload)
	if !ok {
		slog.Warn("effect without payload", "effect", e.ID(), "kind", e.Config.Kind)
		return
	}

	// 1. Decorators and payload mutate the target through sub-actions.
	payload.assign(a)

	// 2. Hooks on both sides.
	a.trigger(data.AssignEffect, a.Creator, 0)
	a.trigger(data.ReceiveEffect, a.Target, 0)

	// 3. Notify observers.
	e.ctx.publish(event.Event{
		Type:     event.EffectAssigned,
		Source:   uint32(a.Creator.ID()),
		Target:   uint32(a.Target.ID()),
		ConfigID: e.configID(),
		Detail:   e.Config.Kind.String(),
	})
}

// DamageAction deals resolved damage to a target.
type DamageAction struct {
	actionBase
	ConfigID   int32
	DamageType data.DamageType
	// Value is the damage before the critical roll.
	Value   float64
	CanCrit bool

	Critical bool
	// Dealt is the health actually removed.
	Dealt float64
}

// ApplyDamage runs the damage pipeline and returns the health removed.
func (a *DamageAction) ApplyDamage() float64 {
	defer a.finish()
	if !a.targetAlive() {
		return 0
	}

	value := clampAmount(a.Value)
	if a.CanCrit && a.Creator != nil && value > 0 {
		if p := a.Creator.Attr(AttrCriticalProbability); p > 0 && a.Target.ctx.rng.Float64() < p {
			value *= critMultiplier
			a.Critical = true
		}
	}

	a.trigger(data.PreCauseDamage, a.Creator, value)
	a.trigger(data.PreReceiveDamage, a.Target, value)

	var source entity.ID
	if a.Creator != nil {
		source = a.Creator.ID()
	}
	a.Dealt = a.Target.ReceiveDamage(Hit{
		Source:   source,
		ConfigID: a.ConfigID,
		Amount:   value,
		Critical: a.Critical,
		Detail:   a.DamageType.String(),
	})

	a.trigger(data.PostCauseDamage, a.Creator, a.Dealt)
	a.trigger(data.PostReceiveDamage, a.Target, a.Dealt)
	return a.Dealt
}

const critMultiplier = 1.5

// CureAction restores resolved health to a target.
type CureAction struct {
	actionBase
	ConfigID int32
	Value    float64
	// Cured is the health actually restored.
	Cured float64
}

// ApplyCure runs the cure pipeline and returns the health restored.
func (a *CureAction) ApplyCure() float64 {
	defer a.finish()
	if !a.targetAlive() {
		return 0
	}

	var source entity.ID
	if a.Creator != nil {
		source = a.Creator.ID()
	}
	a.Cured = a.Target.ReceiveCure(Hit{
		Source:   source,
		ConfigID: a.ConfigID,
		Amount:   clampAmount(a.Value),
	})

	a.trigger(data.PostGiveCure, a.Creator, a.Cured)
	a.trigger(data.PostReceiveCure, a.Target, a.Cured)
	return a.Cured
}

// AddStatusAction attaches and activates a status on a target.
type AddStatusAction struct {
	actionBase
	StatusID int32
	// Duration overrides the configured duration when positive.
	Duration time.Duration
	Params   map[string]string
	// ParentStatus links the new status as a child of an active status.
	ParentStatus entity.ID

	Status *StatusAbility
}

// ApplyAddStatus applies the status and returns it, or nil when it could not
// be applied. A non-stacking status already present is refreshed instead.
func (a *AddStatusAction) ApplyAddStatus() *StatusAbility {
	defer a.finish()
	if !a.targetAlive() {
		return nil
	}

	cfg := a.Target.ctx.content.Status(a.StatusID)
	if cfg == nil {
		slog.Warn("unknown status skipped", "status", a.StatusID, "target", a.Target.ID())
		return nil
	}

	st, refreshed := a.Target.statuses.apply(cfg, a.Creator, a.Duration, a.Params, a.ParentStatus)
	if !refreshed {
		st.Activate()
	}
	a.Status = st

	a.trigger(data.PostGiveStatus, a.Creator, 0)
	a.trigger(data.PostReceiveStatus, a.Target, 0)
	return st
}
