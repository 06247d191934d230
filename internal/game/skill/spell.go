package skill

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/yohamta/donburi/features/math"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/game/entity"
)

// Cast rejections.
var (
	ErrAlreadyCasting = errors.New("already casting")
	ErrSkillDisabled  = errors.New("skill disabled")
	ErrSkillForbidden = errors.New("skills forbidden by action control")
	ErrOnCooldown     = errors.New("skill on cooldown")
	ErrCasterDead     = errors.New("caster dead")
	ErrNoTarget       = errors.New("no valid target")
)

// Spell is the casting slot of a combat actor. At most one execution
// occupies it at a time.
type Spell struct {
	entity.ModuleBase
	actor   *CombatEntity
	casting entity.ID
}

func newSpell(actor *CombatEntity) *Spell {
	return &Spell{actor: actor}
}

func (s *Spell) Kind() entity.ModuleKind { return ModuleSpell }

// Casting returns the execution occupying the slot, or nil.
func (s *Spell) Casting() *Execution {
	if s.casting == entity.None {
		return nil
	}
	x, ok := entity.Lookup[*Execution](s.actor.ctx.arena, s.casting)
	if !ok {
		s.casting = entity.None
		return nil
	}
	return x
}

// SpellWithTarget casts skill at target. Self-target skills ignore target.
func (s *Spell) SpellWithTarget(skill *SkillAbility, target *CombatEntity) (*Execution, error) {
	if skill != nil && skill.Config.Target == data.SkillTargetSelf {
		target = s.actor
	}
	if target == nil || !target.Alive() {
		return nil, fmt.Errorf("skill %d: %w", skillID(skill), ErrNoTarget)
	}
	return s.cast(skill, []*CombatEntity{target}, target.Position)
}

// SpellWithPoint casts skill at a ground point.
func (s *Spell) SpellWithPoint(skill *SkillAbility, point math.Vec2) (*Execution, error) {
	if skill != nil && skill.Config.Target == data.SkillTargetEnemy {
		return nil, fmt.Errorf("skill %d needs a target: %w", skillID(skill), ErrNoTarget)
	}
	var targets []*CombatEntity
	if skill != nil && skill.Config.Target == data.SkillTargetSelf {
		targets = []*CombatEntity{s.actor}
	}
	return s.cast(skill, targets, point)
}

// Cancel ends the current cast, if any.
func (s *Spell) Cancel() {
	if x := s.Casting(); x != nil {
		slog.Debug("cast cancelled", "caster", s.actor.ID(), "execution", x.ID())
		x.End()
	}
	s.casting = entity.None
}

// cast validates and starts a cast. Skills without an execution apply their
// effects to the targets at once and leave the slot free.
func (s *Spell) cast(skill *SkillAbility, targets []*CombatEntity, point math.Vec2) (*Execution, error) {
	a := s.actor
	// 1. Caster state
	if !a.Alive() {
		return nil, ErrCasterDead
	}
	if s.Casting() != nil {
		return nil, ErrAlreadyCasting
	}

	// 2. Skill state
	if skill == nil || !skill.Enabled() || skill.Owner() != a {
		return nil, fmt.Errorf("skill %d: %w", skillID(skill), ErrSkillDisabled)
	}
	if a.ActionControl().Has(data.SkillForbid) {
		return nil, fmt.Errorf("skill %d: %w", skill.Config.ID, ErrSkillForbidden)
	}
	if skill.OnCooldown() {
		return nil, fmt.Errorf("skill %d: %w (%v left)", skill.Config.ID, ErrOnCooldown, skill.CooldownLeft())
	}

	a.FaceTowards(point)
	a.actionPoints.Trigger(ActionInfo{Point: data.PreSpell, Creator: a.ID(), Target: firstID(targets)})
	skill.startCooldown()

	var x *Execution
	cfg := a.ctx.content.Execution(skill.Config.Execution)
	switch {
	case cfg != nil:
		x = skill.newExecution(cfg, false)
		x.setTargets(targets, point, a.Facing)
		x.BeginExecute()
	case skill.Config.Execution != "":
		slog.Warn("skill execution missing, applying effects directly", "skill", skill.Config.ID, "execution", skill.Config.Execution)
		fallthrough
	default:
		for _, t := range targets {
			for _, e := range skill.Effects() {
				e.AssignTo(t, assignSource{TargetCount: len(targets)})
			}
		}
	}

	slog.Debug("skill cast", "caster", a.ID(), "skill", skill.Config.ID, "targets", len(targets))
	a.actionPoints.Trigger(ActionInfo{Point: data.PostSpell, Creator: a.ID(), Target: firstID(targets)})
	return x, nil
}

func skillID(s *SkillAbility) int32 {
	if s == nil || s.Config == nil {
		return 0
	}
	return s.Config.ID
}

func firstID(actors []*CombatEntity) entity.ID {
	if len(actors) == 0 {
		return entity.None
	}
	return actors[0].ID()
}
