package skill

import (
	"log/slog"
	"time"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/game/entity"
)

// Level is the level module of a learned ability.
type Level struct {
	entity.ModuleBase
	Value int
}

func (l *Level) Kind() entity.ModuleKind { return ModuleLevel }

// SkillAbility is a learned skill. It owns one AbilityEffect per configured
// effect, in config order.
type SkillAbility struct {
	abilityBase
	Config *data.SkillConfig

	effects       []entity.ID
	cooldownUntil time.Duration
	spelling      bool
}

// Awake attaches the level module and the effect children.
func (s *SkillAbility) Awake() {
	_ = s.AddModule(&Level{Value: 1})
	for i := range s.Config.Effects {
		e := newEffect(s.ctx, s.ID(), &s.Config.Effects[i], i+1, s.Config.Passive)
		s.effects = append(s.effects, e.ID())
	}
}

// ActivateAbility enables the skill. Passive skills start their effects' triggers.
func (s *SkillAbility) ActivateAbility() {
	if s.enabled || s.Disposed() {
		return
	}
	s.enabled = true
	for _, e := range s.Effects() {
		e.Activate(nil)
	}
	slog.Debug("skill activated", "owner", s.owner, "skill", s.Config.ID, "passive", s.Config.Passive)
}

// DeactivateAbility disables the skill and its effects.
func (s *SkillAbility) DeactivateAbility() {
	if !s.enabled {
		return
	}
	s.enabled = false
	for _, e := range s.Effects() {
		e.Disable()
	}
}

// Level returns the skill level.
func (s *SkillAbility) Level() int {
	if l, ok := entity.ModuleOf[*Level](s.Base(), ModuleLevel); ok {
		return l.Value
	}
	return 1
}

// SetLevel changes the skill level.
func (s *SkillAbility) SetLevel(level int) {
	if l, ok := entity.ModuleOf[*Level](s.Base(), ModuleLevel); ok {
		l.Value = max(level, 1)
	}
}

// Effects returns the live effects in config order.
func (s *SkillAbility) Effects() []*AbilityEffect {
	out := make([]*AbilityEffect, 0, len(s.effects))
	for _, id := range s.effects {
		if e, ok := entity.Lookup[*AbilityEffect](s.ctx.arena, id); ok {
			out = append(out, e)
		}
	}
	return out
}

// Effect returns the n-th effect (1-based).
func (s *SkillAbility) Effect(n int) (*AbilityEffect, bool) {
	if n < 1 || n > len(s.effects) {
		return nil, false
	}
	return entity.Lookup[*AbilityEffect](s.ctx.arena, s.effects[n-1])
}

// effectsFor returns effect n, or all effects when n is 0.
func (s *SkillAbility) effectsFor(n int) []*AbilityEffect {
	if n == 0 {
		return s.Effects()
	}
	e, ok := s.Effect(n)
	if !ok {
		slog.Warn("effect index out of range", "skill", s.Config.ID, "effect", n)
		return nil
	}
	return []*AbilityEffect{e}
}

// Spelling reports whether an execution of this skill occupies the casting slot.
func (s *SkillAbility) Spelling() bool { return s.spelling }

// OnCooldown reports whether the skill is still cooling down.
func (s *SkillAbility) OnCooldown() bool { return s.ctx.Now() < s.cooldownUntil }

// CooldownLeft returns the remaining cooldown.
func (s *SkillAbility) CooldownLeft() time.Duration {
	return max(s.cooldownUntil-s.ctx.Now(), 0)
}

func (s *SkillAbility) startCooldown() {
	if s.Config.CooldownMs > 0 {
		s.cooldownUntil = s.ctx.Now() + ms(s.Config.CooldownMs)
	}
}

// newExecution spawns an execution of cfg under the skill's owner.
func (s *SkillAbility) newExecution(cfg *data.ExecutionConfig, chained bool) *Execution {
	owner := s.Owner()
	return entity.Spawn(s.ctx.arena, owner.ID(), &Execution{
		ctx:     s.ctx,
		Config:  cfg,
		skill:   s.ID(),
		caster:  owner.ID(),
		chained: chained,
	})
}

func (s *SkillAbility) OnDestroy() {
	s.enabled = false
	if owner := s.Owner(); owner != nil && owner.skills[s.Config.ID] == s.ID() {
		delete(owner.skills, s.Config.ID)
	}
}
