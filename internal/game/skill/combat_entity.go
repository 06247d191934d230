package skill

import (
	"log/slog"
	gomath "math"
	"time"

	"github.com/yohamta/donburi/features/math"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/event"
	"github.com/udisondev/abilitycore/internal/formula"
	"github.com/udisondev/abilitycore/internal/game/entity"
)

// ActorSpec describes a combat actor to spawn.
type ActorSpec struct {
	Name       string
	Team       int
	Position   math.Vec2
	Facing     float64
	Radius     float64
	Attributes map[string]float64
	// HP is the starting health; zero means full.
	HP float64
}

// Hit is one health change delivered to an actor.
type Hit struct {
	Source   entity.ID
	ConfigID int32
	Amount   float64
	Critical bool
	Detail   string
}

// CombatEntity is a combat actor. It owns its abilities, statuses,
// executions and ability items as entity children.
type CombatEntity struct {
	entity.Node
	ctx *Context

	Name     string
	Team     int
	Position math.Vec2
	// Facing is the heading in radians, counter-clockwise from +X.
	Facing float64
	Radius float64

	hp           float64
	dead         bool
	lastDamageAt time.Duration
	control      data.ActionControlType
	controls     map[entity.ID]data.ActionControlType

	attributes   *Attributes
	actionPoints *ActionPoints
	conditions   *Conditions
	statuses     *StatusComponent
	spell        *Spell
	motion       *Motion

	effectAssign *EffectAssignAbility
	damage       *DamageAbility
	cure         *CureAbility
	addStatus    *AddStatusAbility

	skills map[int32]entity.ID
}

// SpawnActor creates a combat actor with its modules and built-in action abilities.
func (c *Context) SpawnActor(spec ActorSpec) *CombatEntity {
	a := entity.Spawn(c.arena, entity.None, &CombatEntity{
		ctx:      c,
		Name:     spec.Name,
		Team:     spec.Team,
		Position: spec.Position,
		Facing:   spec.Facing,
		Radius:   spec.Radius,
		controls: make(map[entity.ID]data.ActionControlType),
		skills:   make(map[int32]entity.ID),
	})

	a.attributes = newAttributes(spec.Attributes, a.attributeChanged)
	a.actionPoints = newActionPoints()
	a.conditions = newConditions(a)
	a.statuses = newStatusComponent(a)
	a.spell = newSpell(a)
	a.motion = &Motion{actor: a}
	for _, m := range []entity.Module{a.attributes, a.actionPoints, a.conditions, a.statuses, a.spell, a.motion} {
		// Fresh modules cannot belong to another entity.
		_ = a.AddModule(m)
	}

	a.hp = a.MaxHP()
	if spec.HP > 0 {
		a.hp = min(spec.HP, a.MaxHP())
	}
	a.lastDamageAt = c.Now()

	a.effectAssign = AttachAction[EffectAssignAction](a, c.pools.EffectAssign)
	a.damage = AttachAction[DamageAction](a, c.pools.Damage)
	a.cure = AttachAction[CureAction](a, c.pools.Cure)
	a.addStatus = AttachAction[AddStatusAction](a, c.pools.AddStatus)

	c.actors = append(c.actors, a.ID())
	slog.Debug("actor spawned", "actor", a.ID(), "name", a.Name, "team", a.Team, "hp", a.hp)
	return a
}

// Context returns the combat context the actor lives in.
func (e *CombatEntity) Context() *Context { return e.ctx }

// HP returns current health.
func (e *CombatEntity) HP() float64 { return e.hp }

// MaxHP returns the effective MaxHP attribute.
func (e *CombatEntity) MaxHP() float64 { return e.attributes.Value(AttrMaxHP) }

// HPPercent returns health as a percentage of MaxHP.
func (e *CombatEntity) HPPercent() float64 {
	maxHP := e.MaxHP()
	if maxHP <= 0 {
		return 0
	}
	return e.hp / maxHP * 100
}

// Dead reports whether the actor reached zero health.
func (e *CombatEntity) Dead() bool { return e.dead }

// Alive reports whether the actor can still act and be affected.
func (e *CombatEntity) Alive() bool { return !e.dead && !e.Disposed() }

// Attr returns the effective value of an attribute.
func (e *CombatEntity) Attr(stat string) float64 { return e.attributes.Value(stat) }

func (e *CombatEntity) Attributes() *Attributes { return e.attributes }
func (e *CombatEntity) ActionPoints() *ActionPoints { return e.actionPoints }
func (e *CombatEntity) Conditions() *Conditions { return e.conditions }
func (e *CombatEntity) Statuses() *StatusComponent { return e.statuses }
func (e *CombatEntity) Spell() *Spell { return e.spell }
func (e *CombatEntity) Motion() *Motion { return e.motion }
func (e *CombatEntity) EffectAssign() *EffectAssignAbility { return e.effectAssign }
func (e *CombatEntity) Damage() *DamageAbility { return e.damage }
func (e *CombatEntity) Cure() *CureAbility { return e.cure }
func (e *CombatEntity) AddStatus() *AddStatusAbility { return e.addStatus }

// ActionControl returns the union of every active action control on the actor.
func (e *CombatEntity) ActionControl() data.ActionControlType { return e.control }

func (e *CombatEntity) setControl(source entity.ID, flags data.ActionControlType) {
	e.controls[source] = flags
	e.recomputeControl()
}

func (e *CombatEntity) clearControl(source entity.ID) {
	if _, ok := e.controls[source]; !ok {
		return
	}
	delete(e.controls, source)
	e.recomputeControl()
}

func (e *CombatEntity) recomputeControl() {
	var c data.ActionControlType
	for _, flags := range e.controls {
		c |= flags
	}
	if c != e.control {
		slog.Debug("action control changed", "actor", e.ID(), "control", c)
	}
	e.control = c
}

// AttachSkill creates a skill ability from config. The skill stays disabled
// until ActivateAbility is called. A skill with the same id is replaced.
func (e *CombatEntity) AttachSkill(cfg *data.SkillConfig) *SkillAbility {
	if prev, ok := e.Skill(cfg.ID); ok {
		e.ctx.arena.Dispose(prev.ID())
	}
	s := entity.Spawn(e.ctx.arena, e.ID(), &SkillAbility{
		abilityBase: abilityBase{ctx: e.ctx, owner: e.ID()},
		Config:      cfg,
	})
	e.skills[cfg.ID] = s.ID()
	return s
}

// Skill returns the attached skill with the given config id.
func (e *CombatEntity) Skill(id int32) (*SkillAbility, bool) {
	sid, ok := e.skills[id]
	if !ok {
		return nil, false
	}
	return entity.Lookup[*SkillAbility](e.ctx.arena, sid)
}

// ApplyStatus applies a status from creator to the actor through creator's
// AddStatus pipeline. Returns nil when the status could not be applied.
func (e *CombatEntity) ApplyStatus(creator *CombatEntity, statusID int32, duration time.Duration, params map[string]string) *StatusAbility {
	if creator == nil {
		creator = e
	}
	act, ok := creator.addStatus.TryMakeAction()
	if !ok {
		slog.Debug("add status dropped", "creator", creator.ID(), "status", statusID)
		return nil
	}
	act.Creator = creator
	act.Target = e
	act.StatusID = statusID
	act.Duration = duration
	act.Params = params
	return act.ApplyAddStatus()
}

// ReceiveDamage lowers health by h.Amount and returns the health removed.
// Invalid amounts count as zero. Dead or disposed actors are not affected.
func (e *CombatEntity) ReceiveDamage(h Hit) float64 {
	if !e.Alive() {
		return 0
	}
	amount := min(clampAmount(h.Amount), e.hp)
	e.hp -= amount
	e.lastDamageAt = e.ctx.Now()

	e.ctx.publish(event.Event{
		Type:     event.DamageReceived,
		Source:   uint32(h.Source),
		Target:   uint32(e.ID()),
		ConfigID: h.ConfigID,
		Amount:   amount,
		Critical: h.Critical,
		Detail:   h.Detail,
	})

	if e.hp <= 0 {
		e.die(h.Source)
		return amount
	}
	e.conditions.Evaluate()
	return amount
}

// ReceiveCure raises health by h.Amount up to MaxHP and returns the health restored.
func (e *CombatEntity) ReceiveCure(h Hit) float64 {
	if !e.Alive() {
		return 0
	}
	amount := min(clampAmount(h.Amount), max(e.MaxHP()-e.hp, 0))
	e.hp += amount

	e.ctx.publish(event.Event{
		Type:     event.CureReceived,
		Source:   uint32(h.Source),
		Target:   uint32(e.ID()),
		ConfigID: h.ConfigID,
		Amount:   amount,
		Critical: h.Critical,
		Detail:   h.Detail,
	})
	e.conditions.Evaluate()
	return amount
}

func (e *CombatEntity) die(killer entity.ID) {
	e.hp = 0
	e.dead = true
	slog.Debug("actor died", "actor", e.ID(), "name", e.Name, "killer", killer)

	e.ctx.publish(event.Event{
		Type:   event.ActorDied,
		Source: uint32(killer),
		Target: uint32(e.ID()),
	})

	e.spell.Cancel()
	for _, st := range e.statuses.All() {
		st.End()
	}
}

// Destroy removes the actor and everything it owns from the simulation.
func (e *CombatEntity) Destroy() {
	if e.Disposed() {
		return
	}
	e.spell.Cancel()
	for _, st := range e.statuses.All() {
		st.End()
	}
	e.ctx.arena.Dispose(e.ID())
}

func (e *CombatEntity) OnDestroy() {
	e.ctx.removeActor(e.ID())
}

// Direction returns the unit vector of the actor's facing.
func (e *CombatEntity) Direction() math.Vec2 {
	sin, cos := gomath.Sincos(e.Facing)
	return math.Vec2{X: cos, Y: sin}
}

// FaceTowards turns the actor to look at p. Does nothing when p is the actor's position.
func (e *CombatEntity) FaceTowards(p math.Vec2) {
	dx, dy := p.X-e.Position.X, p.Y-e.Position.Y
	if dx == 0 && dy == 0 {
		return
	}
	e.Facing = gomath.Atan2(dy, dx)
}

// Env returns the formula variables describing the actor.
func (e *CombatEntity) Env() map[string]any {
	snap := e.attributes.Snapshot()
	env := make(map[string]any, len(snap)+3)
	for k, v := range snap {
		env[k] = v
	}
	env["HP"] = e.hp
	env[AttrMaxHP] = e.MaxHP()
	env["HPPct"] = e.HPPercent()
	return env
}

func (e *CombatEntity) attributeChanged(stat string) {
	if stat == AttrMaxHP && e.hp > e.MaxHP() {
		e.hp = max(e.MaxHP(), 0)
	}
}

// combatEnv builds the variables for a formula evaluated by source against target.
func combatEnv(source, target *CombatEntity, level int) formula.Env {
	env := formula.Env{"Level": float64(level)}
	if source != nil {
		env["Caster"] = source.Env()
	}
	if target != nil {
		env["Target"] = target.Env()
	} else if source != nil {
		env["Target"] = env["Caster"]
	}
	return env
}

// clampAmount maps NaN, infinite and negative amounts to zero.
func clampAmount(v float64) float64 {
	if gomath.IsNaN(v) || gomath.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
