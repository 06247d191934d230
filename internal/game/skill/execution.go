package skill

import (
	"log/slog"

	"github.com/yohamta/donburi/features/math"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/event"
	"github.com/udisondev/abilitycore/internal/game/entity"
	"github.com/udisondev/abilitycore/internal/timer"
)

// ExecutionState is the lifecycle state of an execution.
type ExecutionState uint8

const (
	ExecutionIdle ExecutionState = iota
	ExecutionCasting
	ExecutionExpired
)

func (s ExecutionState) String() string {
	switch s {
	case ExecutionIdle:
		return "idle"
	case ExecutionCasting:
		return "casting"
	case ExecutionExpired:
		return "expired"
	}
	return "unknown"
}

// Execution is one in-flight cast. It drives the clips of its config on the
// clock and ends itself after the configured duration.
type Execution struct {
	entity.Node
	ctx    *Context
	Config *data.ExecutionConfig

	skill   entity.ID
	caster  entity.ID
	chained bool
	state   ExecutionState

	targets   []entity.ID
	point     math.Vec2
	direction float64
	timers    []timer.Handle
}

// State returns the lifecycle state.
func (x *Execution) State() ExecutionState { return x.state }

// Chained reports whether the execution was triggered by another one.
// Chained executions never occupy the casting slot.
func (x *Execution) Chained() bool { return x.chained }

// Targets returns the live targets resolved at cast start.
func (x *Execution) Targets() []*CombatEntity {
	out := make([]*CombatEntity, 0, len(x.targets))
	for _, id := range x.targets {
		if a, ok := x.ctx.Actor(id); ok && a.Alive() {
			out = append(out, a)
		}
	}
	return out
}

// Point returns the cast input point.
func (x *Execution) Point() math.Vec2 { return x.point }

// Skill returns the skill that started the execution, or nil once it is gone.
func (x *Execution) Skill() *SkillAbility {
	s, ok := entity.Lookup[*SkillAbility](x.ctx.arena, x.skill)
	if !ok {
		return nil
	}
	return s
}

func (x *Execution) setTargets(targets []*CombatEntity, point math.Vec2, direction float64) {
	x.targets = x.targets[:0]
	for _, t := range targets {
		x.targets = append(x.targets, t.ID())
	}
	x.point = point
	x.direction = direction
}

// BeginExecute takes the caster's casting slot (unless chained), marks the
// skill as spelling and schedules every clip and the end of the execution.
func (x *Execution) BeginExecute() {
	if x.state != ExecutionIdle {
		return
	}
	x.state = ExecutionCasting

	caster, ok := x.ctx.Actor(x.caster)
	if !ok {
		x.End()
		return
	}
	if !x.chained {
		caster.spell.casting = x.ID()
		if s := x.Skill(); s != nil {
			s.spelling = true
		}
	}

	x.ctx.publish(event.Event{
		Type:     event.ExecutionStarted,
		Source:   uint32(x.caster),
		Target:   uint32(firstTarget(x.targets)),
		ConfigID: x.configID(),
		Detail:   x.Config.ID,
	})

	for i := range x.Config.Clips {
		idx := i
		x.timers = append(x.timers, x.ctx.clock.ScheduleOnce(ms(x.Config.Clips[i].StartMs), func() { x.fireClip(idx) }))
	}
	x.timers = append(x.timers, x.ctx.clock.ScheduleOnce(ms(x.Config.DurationMs), x.End))
}

// live reports whether pending callbacks may still act.
func (x *Execution) live() (*CombatEntity, *SkillAbility, bool) {
	if x.Disposed() || x.state != ExecutionCasting {
		return nil, nil, false
	}
	caster, ok := x.ctx.Actor(x.caster)
	if !ok || !caster.Alive() {
		return nil, nil, false
	}
	s := x.Skill()
	if s == nil {
		return nil, nil, false
	}
	return caster, s, true
}

func (x *Execution) fireClip(i int) {
	caster, s, ok := x.live()
	if !ok {
		return
	}
	clip := &x.Config.Clips[i]
	switch clip.Type {
	case data.ClipCollision:
		if clip.Collision == nil {
			slog.Warn("collision clip without collision", "execution", x.Config.ID, "clip", i)
			return
		}
		x.spawnItem(caster, s, clip)
	case data.ClipAnimation:
		x.ctx.view.PlayAnimation(caster.ID(), clip.Name)
	case data.ClipAudio:
		x.ctx.view.PlayAudio(caster.ID(), clip.Name)
	case data.ClipParticle:
		x.ctx.view.SpawnParticle(caster.ID(), clip.Name, caster.Position)
	case data.ClipActionEvent:
		if clip.Action == nil {
			slog.Warn("action clip without action", "execution", x.Config.ID, "clip", i)
			return
		}
		targets := x.Targets()
		x.handleAction(s, *clip.Action, targets, len(targets), x.point, entity.None)
	}
}

// handleAction assigns effects to targets or starts a chained execution at point.
// handleAction routes an action event. count is the number of actors the
// action struck together and feeds target-count decorators.
func (x *Execution) handleAction(s *SkillAbility, a data.ActionEventConfig, targets []*CombatEntity, count int, point math.Vec2, item entity.ID) {
	switch a.Event {
	case data.EventAssignEffect:
		effects := s.effectsFor(a.Effect)
		for _, t := range targets {
			for _, e := range effects {
				e.AssignTo(t, assignSource{Execution: x.ID(), Item: item, TargetCount: count})
			}
		}
	case data.EventTriggerNewExecution:
		cfg := x.ctx.content.Execution(a.Execution)
		if cfg == nil {
			slog.Warn("chained execution missing", "execution", a.Execution, "skill", s.Config.ID)
			return
		}
		next := s.newExecution(cfg, true)
		next.setTargets(targets, point, x.direction)
		next.BeginExecute()
	}
}

// End releases the casting slot, cancels pending clips, publishes
// ExecutionEnded and disposes the execution. Calling it again does nothing.
func (x *Execution) End() {
	if x.state == ExecutionExpired || x.Disposed() {
		return
	}
	x.state = ExecutionExpired
	target := firstTarget(x.targets)
	x.targets = nil

	if !x.chained {
		if caster, ok := x.ctx.Actor(x.caster); ok && caster.spell.casting == x.ID() {
			caster.spell.casting = entity.None
		}
		if s := x.Skill(); s != nil {
			s.spelling = false
		}
	}
	for _, h := range x.timers {
		x.ctx.clock.Cancel(h)
	}
	x.timers = nil

	x.ctx.publish(event.Event{
		Type:     event.ExecutionEnded,
		Source:   uint32(x.caster),
		Target:   uint32(target),
		ConfigID: x.configID(),
		Detail:   x.Config.ID,
	})
	x.ctx.arena.Dispose(x.ID())
}

func (x *Execution) configID() int32 {
	if s := x.Skill(); s != nil {
		return s.Config.ID
	}
	return 0
}

func firstTarget(ids []entity.ID) entity.ID {
	if len(ids) == 0 {
		return entity.None
	}
	return ids[0]
}
