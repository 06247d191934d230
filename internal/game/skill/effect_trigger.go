package skill

import (
	"log/slog"
	"math"
	"time"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/game/entity"
	"github.com/udisondev/abilitycore/internal/timer"
)

// effectTrigger fires an auto effect on its own schedule while enabled.
type effectTrigger interface {
	entity.Module
	enable()
	disable()
}

type triggerBase struct {
	entity.ModuleBase
	effect *AbilityEffect
	owner  entity.ID
}

func (*triggerBase) Kind() entity.ModuleKind { return ModuleEffectTrigger }

func (t *triggerBase) ownerActor() (*CombatEntity, bool) {
	return t.effect.ctx.Actor(t.owner)
}

func newTrigger(e *AbilityEffect) effectTrigger {
	base := triggerBase{effect: e}
	switch e.Config.Trigger.Type {
	case data.TriggerInstant:
		return &instantTrigger{triggerBase: base}
	case data.TriggerActionPoint:
		return &actionPointTrigger{triggerBase: base}
	case data.TriggerInterval:
		return &intervalTrigger{triggerBase: base}
	case data.TriggerCondition:
		return &conditionTrigger{triggerBase: base}
	}
	slog.Warn("unknown trigger type", "trigger", e.Config.Trigger.Type, "source", e.sourceID)
	return nil
}

// instantTrigger fires once each time the effect is enabled.
type instantTrigger struct {
	triggerBase
}

func (t *instantTrigger) enable()  { t.effect.fire(nil) }
func (t *instantTrigger) disable() {}

// actionPointTrigger fires on every occurrence of an action point on the owner.
type actionPointTrigger struct {
	triggerBase
	token uint64
}

func (t *actionPointTrigger) enable() {
	owner := t.effect.Owner()
	if owner == nil || t.token != 0 {
		return
	}
	t.owner = owner.ID()
	t.token = owner.actionPoints.Subscribe(t.effect.Config.Trigger.ActionPoint, func(info ActionInfo) {
		t.effect.fire(&info)
	})
}

func (t *actionPointTrigger) disable() {
	if t.token == 0 {
		return
	}
	if owner, ok := t.ownerActor(); ok {
		owner.actionPoints.Unsubscribe(t.effect.Config.Trigger.ActionPoint, t.token)
	}
	t.token = 0
}

func (t *actionPointTrigger) OnDestroy() { t.disable() }

const (
	minInterval = time.Millisecond
	// maxIntervalMs is the largest interval in milliseconds a time.Duration holds.
	maxIntervalMs = float64(math.MaxInt64 / int64(time.Millisecond))
)

// intervalTrigger fires every resolved interval, gated by an optional condition
// that is re-checked on each tick.
type intervalTrigger struct {
	triggerBase
	handle timer.Handle
}

func (t *intervalTrigger) enable() {
	owner := t.effect.Owner()
	if owner == nil || t.handle != 0 {
		return
	}
	t.owner = owner.ID()
	cfg := t.effect.Config.Trigger
	interval, ok := t.effect.evaluate(cfg.Interval, t.effect.instigator(), owner)
	if !ok || interval <= 0 {
		slog.Warn("interval trigger skipped", "interval", cfg.Interval, "source", t.effect.configID())
		return
	}
	if interval >= maxIntervalMs {
		slog.Warn("interval trigger overflows", "interval", cfg.Interval, "source", t.effect.configID())
		return
	}
	every := time.Duration(interval * float64(time.Millisecond))
	if every < minInterval {
		slog.Warn("interval trigger clamped", "interval", cfg.Interval, "min", minInterval, "source", t.effect.configID())
		every = minInterval
	}
	t.handle = t.effect.ctx.clock.ScheduleRepeating(every, t.tick)
}

func (t *intervalTrigger) tick() {
	owner, ok := t.ownerActor()
	if !ok || !t.effect.Enabled() {
		return
	}
	cfg := t.effect.Config.Trigger
	if cfg.Condition != 0 {
		param, _ := t.effect.evaluate(cfg.ConditionParam, owner, owner)
		if !owner.conditions.Check(cfg.Condition, param) {
			return
		}
	}
	t.effect.fire(nil)
}

func (t *intervalTrigger) disable() {
	if t.handle == 0 {
		return
	}
	t.effect.ctx.clock.Cancel(t.handle)
	t.handle = 0
}

func (t *intervalTrigger) OnDestroy() { t.disable() }

// conditionTrigger fires when a condition on the owner becomes true.
type conditionTrigger struct {
	triggerBase
	token uint64
}

func (t *conditionTrigger) enable() {
	owner := t.effect.Owner()
	if owner == nil || t.token != 0 {
		return
	}
	t.owner = owner.ID()
	cfg := t.effect.Config.Trigger
	param, _ := t.effect.evaluate(cfg.ConditionParam, owner, owner)
	t.token = owner.conditions.Watch(cfg.Condition, param, func() { t.effect.fire(nil) })
}

func (t *conditionTrigger) disable() {
	if t.token == 0 {
		return
	}
	if owner, ok := t.ownerActor(); ok {
		owner.conditions.Unwatch(t.token)
	}
	t.token = 0
}

func (t *conditionTrigger) OnDestroy() { t.disable() }
