package skill

import (
	"log/slog"
	"maps"
	"strconv"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/formula"
	"github.com/udisondev/abilitycore/internal/game/entity"
)

// AbilityEffect is one configured effect of a skill or status. It carries a
// payload module, a trigger module when the effect fires on its own, and a
// decorator module when decorators are configured.
type AbilityEffect struct {
	abilityBase
	Config *data.EffectConfig
	// Index is the 1-based position in the owner's effect list.
	Index int

	parent entity.ID
	// auto effects fire their own trigger: status effects and passive skill effects.
	auto     bool
	sourceID int32

	prepared      bool
	substitutions int
	params        map[string]string
	exprs         map[string]string
}

func newEffect(ctx *Context, parent entity.ID, cfg *data.EffectConfig, index int, auto bool) *AbilityEffect {
	e := &AbilityEffect{
		abilityBase: abilityBase{ctx: ctx},
		Config:      cfg,
		Index:       index,
		parent:      parent,
		auto:        auto,
	}
	return entity.Spawn(ctx.arena, parent, e)
}

// Awake attaches the payload, trigger and decorator modules.
func (e *AbilityEffect) Awake() {
	if s, ok := entity.Lookup[*SkillAbility](e.ctx.arena, e.parent); ok {
		e.sourceID = s.Config.ID
	} else if st, ok := entity.Lookup[*StatusAbility](e.ctx.arena, e.parent); ok {
		e.sourceID = st.Config.ID
	}

	kind := e.Config.Kind
	if kind == 0 || int(kind) >= data.EffectKindCount || payloadFactories[kind] == nil {
		slog.Warn("effect kind unsupported", "kind", kind, "source", e.sourceID)
		return
	}
	_ = e.AddModule(payloadFactories[kind](e))

	if kind.Triggerable() && e.Config.Trigger.Type != data.TriggerNone {
		if t := newTrigger(e); t != nil {
			_ = e.AddModule(t)
		}
	}
	if len(e.Config.Decorators) > 0 {
		_ = e.AddModule(&decorators{effect: e, list: e.Config.Decorators})
	}
}

// Activate substitutes formula placeholders from params on the first call,
// then enables the effect. Later calls never substitute again.
func (e *AbilityEffect) Activate(params map[string]string) {
	e.prepare(params)
	e.Enable()
}

// Enable turns the effect on. Continuous payloads (attribute modify, action
// control) hold on the owner until Disable, for active skills too. Only auto
// effects start their trigger.
func (e *AbilityEffect) Enable() {
	if e.enabled || e.Disposed() {
		return
	}
	e.enabled = true
	if p, ok := entity.ModuleOf[effectPayload](e.Base(), ModuleEffectPayload); ok {
		p.enable()
	}
	if !e.auto {
		return
	}
	if t, ok := entity.ModuleOf[effectTrigger](e.Base(), ModuleEffectTrigger); ok {
		t.enable()
	}
}

// Disable turns the effect off, stopping its trigger and continuous payload.
func (e *AbilityEffect) Disable() {
	if !e.enabled {
		return
	}
	e.enabled = false
	if t, ok := entity.ModuleOf[effectTrigger](e.Base(), ModuleEffectTrigger); ok {
		t.disable()
	}
	if p, ok := entity.ModuleOf[effectPayload](e.Base(), ModuleEffectPayload); ok {
		p.disable()
	}
}

// Expression returns raw with the activation parameters substituted.
func (e *AbilityEffect) Expression(raw string) string {
	if v, ok := e.exprs[raw]; ok {
		return v
	}
	return raw
}

// Substitutions returns how many times placeholders were substituted (0 or 1).
func (e *AbilityEffect) Substitutions() int { return e.substitutions }

// Params returns a copy of the activation parameters.
func (e *AbilityEffect) Params() map[string]string { return maps.Clone(e.params) }

func (e *AbilityEffect) prepare(params map[string]string) {
	if e.prepared {
		return
	}
	e.prepared = true
	e.params = maps.Clone(params)
	if len(params) == 0 {
		return
	}
	e.substitutions++
	e.exprs = make(map[string]string)
	for _, raw := range formulaFields(e.Config) {
		e.exprs[raw] = formula.Substitute(raw, params)
	}
}

// formulaFields lists every expression an effect config evaluates.
func formulaFields(cfg *data.EffectConfig) []string {
	out := []string{cfg.Trigger.Interval, cfg.Trigger.ConditionParam}
	switch p := cfg.Payload.(type) {
	case data.DamageEffect:
		out = append(out, p.Value)
	case data.DamageBloodSuckEffect:
		out = append(out, p.Value)
	case data.CureEffect:
		out = append(out, p.Value)
	case data.AttributeModifyEffect:
		out = append(out, p.Value)
	case data.AddStatusEffect:
		for _, v := range p.Params {
			out = append(out, v)
		}
	case data.CustomEffect:
		for _, v := range p.Params {
			out = append(out, v)
		}
	}
	return out
}

// configID returns the id of the skill or status the effect belongs to.
func (e *AbilityEffect) configID() int32 { return e.sourceID }

// instigator is the actor whose action pipelines apply the effect: the
// creator of the owning status while alive, otherwise the owner.
func (e *AbilityEffect) instigator() *CombatEntity {
	if st, ok := entity.Lookup[*StatusAbility](e.ctx.arena, e.parent); ok {
		if c, ok := e.ctx.Actor(st.creator); ok && c.Alive() {
			return c
		}
	}
	return e.Owner()
}

// level returns the level of the owning skill, 1 for statuses.
func (e *AbilityEffect) level() int {
	if s, ok := entity.Lookup[*SkillAbility](e.ctx.arena, e.parent); ok {
		return s.Level()
	}
	return 1
}

// evaluate resolves a config expression for source acting on target.
func (e *AbilityEffect) evaluate(raw string, source, target *CombatEntity) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	return e.ctx.resolve(e.Expression(raw), combatEnv(source, target, e.level()))
}

// evaluateParams resolves a parameter dictionary into concrete values.
func (e *AbilityEffect) evaluateParams(raw map[string]string, source, target *CombatEntity) map[string]string {
	out := make(map[string]string, len(raw)+1)
	for k, expr := range raw {
		v, ok := e.evaluate(expr, source, target)
		if !ok {
			continue
		}
		out[k] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return out
}

type assignSource struct {
	Execution   entity.ID
	Item        entity.ID
	TargetCount int
	Trigger     *ActionInfo
}

// AssignTo applies the effect to target through the instigator's
// EffectAssign pipeline. Self and action-source effects are redirected.
// Returns false when nothing was applied.
func (e *AbilityEffect) AssignTo(target *CombatEntity, src assignSource) bool {
	if !e.Enabled() {
		return false
	}
	inst := e.instigator()
	if inst == nil || !inst.Alive() {
		return false
	}
	target = e.resolveTarget(target, src.Trigger)
	if target == nil || !target.Alive() {
		return false
	}

	act, ok := inst.effectAssign.TryMakeAction()
	if !ok {
		slog.Debug("effect assign dropped", "effect", e.ID(), "instigator", inst.ID(), "target", target.ID())
		return false
	}
	act.Creator = inst
	act.Target = target
	act.Effect = e
	act.Execution = src.Execution
	act.Item = src.Item
	act.TargetCount = max(src.TargetCount, 1)
	act.Trigger = src.Trigger
	act.ApplyEffectAssign()
	return true
}

func (e *AbilityEffect) resolveTarget(assigned *CombatEntity, trigger *ActionInfo) *CombatEntity {
	switch e.Config.Target {
	case data.TargetSelf:
		return e.Owner()
	case data.TargetActionSource:
		if trigger == nil {
			return nil
		}
		src, _ := e.ctx.Actor(trigger.Creator)
		return src
	}
	return assigned
}

// fire runs an auto trigger. The effect is assigned to its owner.
func (e *AbilityEffect) fire(trigger *ActionInfo) {
	if !e.Enabled() {
		return
	}
	owner := e.Owner()
	if owner == nil || !owner.Alive() {
		return
	}
	e.AssignTo(owner, assignSource{Trigger: trigger})
}

func (e *AbilityEffect) decorate(a *EffectAssignAction, v float64) float64 {
	if d, ok := entity.ModuleOf[*decorators](e.Base(), ModuleEffectDecorator); ok {
		return d.apply(a, v)
	}
	return v
}
