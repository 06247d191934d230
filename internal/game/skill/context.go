package skill

import (
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/yohamta/donburi/features/math"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/event"
	"github.com/udisondev/abilitycore/internal/formula"
	"github.com/udisondev/abilitycore/internal/game/entity"
	"github.com/udisondev/abilitycore/internal/timer"
)

// Clock is the timer collaborator. *timer.Scheduler implements it.
type Clock interface {
	Now() time.Duration
	ScheduleOnce(delay time.Duration, fn func()) timer.Handle
	ScheduleRepeating(interval time.Duration, fn func()) timer.Handle
	Cancel(h timer.Handle) bool
	Advance(dt time.Duration)
}

// Publisher receives combat notifications. *event.Bus implements it.
type Publisher interface {
	Publish(e event.Event)
}

// FormulaResolver evaluates numeric expressions. *formula.Resolver implements it.
type FormulaResolver interface {
	Resolve(expression string, env formula.Env) (float64, error)
}

// ContentSource looks up immutable configuration. *data.Content implements it.
type ContentSource interface {
	Skill(id int32) *data.SkillConfig
	Status(id int32) *data.StatusConfig
	Execution(id string) *data.ExecutionConfig
}

// View is the presentation sink. The combat core never reads it back.
type View interface {
	PlayAnimation(actor entity.ID, name string)
	PlayAudio(actor entity.ID, name string)
	SpawnParticle(actor entity.ID, name string, at math.Vec2)
	SyncTransform(id entity.ID, pos math.Vec2, rotation float64)
}

// NopView discards every view call.
type NopView struct{}

func (NopView) PlayAnimation(entity.ID, string) {}
func (NopView) PlayAudio(entity.ID, string) {}
func (NopView) SpawnParticle(entity.ID, string, math.Vec2) {}
func (NopView) SyncTransform(entity.ID, math.Vec2, float64) {}

// PoolSizes bounds the in-flight actions of each built-in action ability.
type PoolSizes struct {
	EffectAssign int
	Damage       int
	Cure         int
	AddStatus    int
}

// DefaultPoolSizes returns the pool sizes used when none are configured.
func DefaultPoolSizes() PoolSizes {
	return PoolSizes{EffectAssign: 16, Damage: 8, Cure: 8, AddStatus: 8}
}

// CustomCall is passed to custom effect handlers.
type CustomCall struct {
	Context *Context
	Effect  *AbilityEffect
	Source  *CombatEntity
	Target  *CombatEntity
	Params  map[string]string
}

// CustomHandler implements a custom effect kind.
type CustomHandler func(call CustomCall)

// Options configures a Context. Zero fields get defaults.
type Options struct {
	Clock     Clock
	Publisher Publisher
	Formula   FormulaResolver
	Content   ContentSource
	View      View
	Pools     PoolSizes
	// Seed drives critical hit rolls.
	Seed uint64
}

// Context owns one combat simulation: the entity arena and every collaborator.
// All methods must be called from the logic goroutine.
type Context struct {
	arena   *entity.Arena
	clock   Clock
	events  Publisher
	formula FormulaResolver
	content ContentSource
	view    View
	pools   PoolSizes
	rng     *rand.Rand

	custom map[string]CustomHandler
	actors []entity.ID
	items  []entity.ID
}

// NewContext builds a Context, filling unset collaborators with defaults.
func NewContext(opts Options) *Context {
	if opts.Clock == nil {
		opts.Clock = timer.New()
	}
	if opts.Publisher == nil {
		opts.Publisher = event.NewBus()
	}
	if opts.Formula == nil {
		opts.Formula = formula.NewResolver()
	}
	if opts.Content == nil {
		opts.Content = data.NewContent(&data.ContentFile{})
	}
	if opts.View == nil {
		opts.View = NopView{}
	}
	def := DefaultPoolSizes()
	if opts.Pools.EffectAssign <= 0 {
		opts.Pools.EffectAssign = def.EffectAssign
	}
	if opts.Pools.Damage <= 0 {
		opts.Pools.Damage = def.Damage
	}
	if opts.Pools.Cure <= 0 {
		opts.Pools.Cure = def.Cure
	}
	if opts.Pools.AddStatus <= 0 {
		opts.Pools.AddStatus = def.AddStatus
	}

	return &Context{
		arena:   entity.NewArena(),
		clock:   opts.Clock,
		events:  opts.Publisher,
		formula: opts.Formula,
		content: opts.Content,
		view:    opts.View,
		pools:   opts.Pools,
		rng:     rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		custom:  make(map[string]CustomHandler),
	}
}

// Arena returns the entity arena.
func (c *Context) Arena() *entity.Arena { return c.arena }

// Clock returns the timer collaborator.
func (c *Context) Clock() Clock { return c.clock }

// Content returns the configuration source.
func (c *Context) Content() ContentSource { return c.content }

// Now returns the current simulated time.
func (c *Context) Now() time.Duration { return c.clock.Now() }

// RegisterCustom installs the handler for custom effects naming it.
func (c *Context) RegisterCustom(name string, h CustomHandler) {
	c.custom[name] = h
}

// Actor returns the live combat actor with the given handle.
func (c *Context) Actor(id entity.ID) (*CombatEntity, bool) {
	return entity.Lookup[*CombatEntity](c.arena, id)
}

// Actors returns live actors in spawn order.
func (c *Context) Actors() []*CombatEntity {
	out := make([]*CombatEntity, 0, len(c.actors))
	for _, id := range c.actors {
		if a, ok := c.Actor(id); ok {
			out = append(out, a)
		}
	}
	return out
}

// Items returns live ability items in spawn order.
func (c *Context) Items() []*AbilityItem {
	out := make([]*AbilityItem, 0, len(c.items))
	for _, id := range c.items {
		if it, ok := entity.Lookup[*AbilityItem](c.arena, id); ok {
			out = append(out, it)
		}
	}
	return out
}

// Update advances the simulation by dt: due timers fire first, then ability
// items move and collide, then time-based conditions are re-evaluated.
func (c *Context) Update(dt time.Duration) {
	c.clock.Advance(dt)

	for _, id := range slices.Clone(c.items) {
		if it, ok := entity.Lookup[*AbilityItem](c.arena, id); ok {
			it.update(dt)
		}
	}
	c.items = slices.DeleteFunc(c.items, func(id entity.ID) bool { return !c.arena.Alive(id) })

	for _, a := range c.Actors() {
		a.conditions.Evaluate()
	}
}

func (c *Context) publish(e event.Event) {
	e.At = c.clock.Now()
	c.events.Publish(e)
}

func (c *Context) resolve(expression string, env formula.Env) (float64, bool) {
	v, err := c.formula.Resolve(expression, env)
	if err != nil {
		slog.Warn("formula skipped", "expression", expression, "error", err)
		return 0, false
	}
	return v, true
}

func (c *Context) removeActor(id entity.ID) {
	if i := slices.Index(c.actors, id); i >= 0 {
		c.actors = slices.Delete(c.actors, i, i+1)
	}
}

func ms(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}
