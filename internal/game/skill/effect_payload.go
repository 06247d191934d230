package skill

import (
	"log/slog"
	"strconv"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/game/entity"
)

// effectPayload applies the configured effect kind.
// Discrete payloads act in assign; continuous payloads act between enable and disable.
type effectPayload interface {
	entity.Module
	assign(a *EffectAssignAction)
	enable()
	disable()
}

type payloadBase struct {
	entity.ModuleBase
	effect *AbilityEffect
}

func (*payloadBase) Kind() entity.ModuleKind { return ModuleEffectPayload }
func (*payloadBase) enable()                 {}
func (*payloadBase) disable()                {}

// payloadFactories maps each effect kind to its payload module.
var payloadFactories = [data.EffectKindCount]func(*AbilityEffect) effectPayload{
	data.EffectAddStatus:       newPayload[addStatusPayload, data.AddStatusEffect],
	data.EffectRemoveStatus:    newPayload[removeStatusPayload, data.RemoveStatusEffect],
	data.EffectClearAllStatus:  newPayload[clearAllStatusPayload, data.ClearAllStatusEffect],
	data.EffectCure:            newPayload[curePayload, data.CureEffect],
	data.EffectDamage:          newPayload[damagePayload, data.DamageEffect],
	data.EffectDamageBloodSuck: newPayload[bloodSuckPayload, data.DamageBloodSuckEffect],
	data.EffectAttributeModify: newPayload[attributeModifyPayload, data.AttributeModifyEffect],
	data.EffectActionControl:   newPayload[actionControlPayload, data.ActionControlEffect],
	data.EffectCustom:          newPayload[customPayload, data.CustomEffect],
}

// typedPayload is a payload module holding its config of type C.
type typedPayload[T any, C data.EffectPayload] interface {
	*T
	effectPayload
	init(e *AbilityEffect, cfg C)
}

func newPayload[T any, C data.EffectPayload, P typedPayload[T, C]](e *AbilityEffect) effectPayload {
	cfg, ok := e.Config.Payload.(C)
	if !ok {
		slog.Warn("effect payload mismatch", "kind", e.Config.Kind, "source", e.sourceID)
	}
	p := P(new(T))
	p.init(e, cfg)
	return p
}

type damagePayload struct {
	payloadBase
	cfg data.DamageEffect
}

func (p *damagePayload) init(e *AbilityEffect, cfg data.DamageEffect) { p.effect, p.cfg = e, cfg }

func (p *damagePayload) assign(a *EffectAssignAction) {
	v, ok := p.effect.evaluate(p.cfg.Value, a.Creator, a.Target)
	if !ok {
		return
	}
	v = p.effect.decorate(a, v)
	dealDamage(a, p.effect.configID(), p.cfg, v)
}

// dealDamage runs a DamageAction from a's creator and returns the damage dealt.
func dealDamage(a *EffectAssignAction, configID int32, cfg data.DamageEffect, value float64) float64 {
	dmg, ok := a.Creator.damage.TryMakeAction()
	if !ok {
		slog.Debug("damage dropped", "creator", a.Creator.ID(), "target", a.Target.ID())
		return 0
	}
	dmg.Creator = a.Creator
	dmg.Target = a.Target
	dmg.ConfigID = configID
	dmg.DamageType = cfg.DamageType
	dmg.Value = value
	dmg.CanCrit = cfg.CanCrit
	return dmg.ApplyDamage()
}

// cure runs a CureAction from creator to target.
func cure(creator, target *CombatEntity, configID int32, value float64) float64 {
	act, ok := creator.cure.TryMakeAction()
	if !ok {
		slog.Debug("cure dropped", "creator", creator.ID(), "target", target.ID())
		return 0
	}
	act.Creator = creator
	act.Target = target
	act.ConfigID = configID
	act.Value = value
	return act.ApplyCure()
}

type bloodSuckPayload struct {
	payloadBase
	cfg data.DamageBloodSuckEffect
}

func (p *bloodSuckPayload) init(e *AbilityEffect, cfg data.DamageBloodSuckEffect) {
	p.effect, p.cfg = e, cfg
}

func (p *bloodSuckPayload) assign(a *EffectAssignAction) {
	v, ok := p.effect.evaluate(p.cfg.Value, a.Creator, a.Target)
	if !ok {
		return
	}
	v = p.effect.decorate(a, v)
	dealt := dealDamage(a, p.effect.configID(), p.cfg.DamageEffect, v)
	if heal := dealt * p.cfg.SuckRatio; heal > 0 {
		cure(a.Creator, a.Creator, p.effect.configID(), heal)
	}
}

type curePayload struct {
	payloadBase
	cfg data.CureEffect
}

func (p *curePayload) init(e *AbilityEffect, cfg data.CureEffect) { p.effect, p.cfg = e, cfg }

func (p *curePayload) assign(a *EffectAssignAction) {
	v, ok := p.effect.evaluate(p.cfg.Value, a.Creator, a.Target)
	if !ok {
		return
	}
	v = p.effect.decorate(a, v)
	cure(a.Creator, a.Target, p.effect.configID(), v)
}

type addStatusPayload struct {
	payloadBase
	cfg data.AddStatusEffect
}

func (p *addStatusPayload) init(e *AbilityEffect, cfg data.AddStatusEffect) { p.effect, p.cfg = e, cfg }

// assign applies the status with a fresh parameter dictionary: the configured
// params resolved against the caster, plus Duration in milliseconds.
func (p *addStatusPayload) assign(a *EffectAssignAction) {
	p.effect.decorate(a, 0)

	params := p.effect.evaluateParams(p.cfg.Params, a.Creator, a.Target)
	duration := ms(p.cfg.DurationMs)
	if duration <= 0 {
		if cfg := p.effect.ctx.content.Status(p.cfg.StatusID); cfg != nil {
			duration = ms(cfg.DurationMs)
		}
	}
	params["Duration"] = strconv.FormatInt(duration.Milliseconds(), 10)

	act, ok := a.Creator.addStatus.TryMakeAction()
	if !ok {
		slog.Debug("add status dropped", "creator", a.Creator.ID(), "status", p.cfg.StatusID)
		return
	}
	act.Creator = a.Creator
	act.Target = a.Target
	act.StatusID = p.cfg.StatusID
	act.Duration = duration
	act.Params = params
	act.ApplyAddStatus()
}

type removeStatusPayload struct {
	payloadBase
	cfg data.RemoveStatusEffect
}

func (p *removeStatusPayload) init(e *AbilityEffect, cfg data.RemoveStatusEffect) {
	p.effect, p.cfg = e, cfg
}

func (p *removeStatusPayload) assign(a *EffectAssignAction) {
	p.effect.decorate(a, 0)
	for _, st := range a.Target.statuses.ByConfig(p.cfg.StatusID) {
		st.End()
	}
}

type clearAllStatusPayload struct {
	payloadBase
	cfg data.ClearAllStatusEffect
}

func (p *clearAllStatusPayload) init(e *AbilityEffect, cfg data.ClearAllStatusEffect) {
	p.effect, p.cfg = e, cfg
}

func (p *clearAllStatusPayload) assign(a *EffectAssignAction) {
	p.effect.decorate(a, 0)
	for _, st := range a.Target.statuses.ByType(p.cfg.StatusType) {
		// The status carrying this effect may end itself here.
		st.End()
	}
}

// attributeModifyPayload installs a modifier on the owner while enabled.
type attributeModifyPayload struct {
	payloadBase
	cfg    data.AttributeModifyEffect
	owner  entity.ID
	handle ModifierHandle
}

func (p *attributeModifyPayload) init(e *AbilityEffect, cfg data.AttributeModifyEffect) {
	p.effect, p.cfg = e, cfg
}

func (p *attributeModifyPayload) assign(*EffectAssignAction) {}

func (p *attributeModifyPayload) enable() {
	owner := p.effect.Owner()
	if owner == nil || p.handle != 0 {
		return
	}
	v, ok := p.effect.evaluate(p.cfg.Value, p.effect.instigator(), owner)
	if !ok {
		return
	}
	p.owner = owner.ID()
	p.handle = owner.attributes.AddModifier(StatModifier{Stat: p.cfg.Attribute, Type: p.cfg.Modify, Value: v})
}

func (p *attributeModifyPayload) disable() {
	if p.handle == 0 {
		return
	}
	if owner, ok := p.effect.ctx.Actor(p.owner); ok {
		owner.attributes.RemoveModifier(p.handle)
	}
	p.handle = 0
}

func (p *attributeModifyPayload) OnDestroy() { p.disable() }

// actionControlPayload restricts the owner while enabled.
type actionControlPayload struct {
	payloadBase
	cfg    data.ActionControlEffect
	owner  entity.ID
	active bool
}

func (p *actionControlPayload) init(e *AbilityEffect, cfg data.ActionControlEffect) {
	p.effect, p.cfg = e, cfg
}

func (p *actionControlPayload) assign(*EffectAssignAction) {}

func (p *actionControlPayload) enable() {
	owner := p.effect.Owner()
	if owner == nil || p.active {
		return
	}
	p.owner = owner.ID()
	p.active = true
	owner.setControl(p.effect.ID(), p.cfg.Control)
	if p.cfg.Control.Has(data.SkillForbid) {
		owner.spell.Cancel()
	}
}

func (p *actionControlPayload) disable() {
	if !p.active {
		return
	}
	p.active = false
	if owner, ok := p.effect.ctx.Actor(p.owner); ok {
		owner.clearControl(p.effect.ID())
	}
}

func (p *actionControlPayload) OnDestroy() { p.disable() }

type customPayload struct {
	payloadBase
	cfg data.CustomEffect
}

func (p *customPayload) init(e *AbilityEffect, cfg data.CustomEffect) { p.effect, p.cfg = e, cfg }

func (p *customPayload) assign(a *EffectAssignAction) {
	h, ok := p.effect.ctx.custom[p.cfg.Handler]
	if !ok {
		slog.Warn("custom effect handler not registered", "handler", p.cfg.Handler, "source", p.effect.configID())
		return
	}
	p.effect.decorate(a, 0)

	params := make(map[string]string, len(p.cfg.Params))
	for k, v := range p.cfg.Params {
		params[k] = p.effect.Expression(v)
	}
	h(CustomCall{
		Context: p.effect.ctx,
		Effect:  p.effect,
		Source:  a.Creator,
		Target:  a.Target,
		Params:  params,
	})
}
