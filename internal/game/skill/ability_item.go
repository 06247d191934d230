package skill

import (
	"log/slog"
	gomath "math"
	"time"

	"github.com/yohamta/donburi/features/math"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/event"
	"github.com/udisondev/abilitycore/internal/game/entity"
	"github.com/udisondev/abilitycore/internal/game/path"
	"github.com/udisondev/abilitycore/internal/timer"
)

// AbilityItem is a projectile or zone spawned by a collision clip.
// It lives under its caster and hits each actor at most once.
type AbilityItem struct {
	entity.Node
	ctx    *Context
	Config *data.CollisionConfig

	Position math.Vec2
	Rotation float64
	// OnComplete runs when a moving item reaches the end of its travel.
	OnComplete func(it *AbilityItem)

	execution *Execution
	skill     entity.ID
	caster    entity.ID
	team      int
	target    entity.ID
	start     math.Vec2
	duration  time.Duration
	spawnedAt time.Duration
	last      time.Duration

	hit      map[entity.ID]struct{}
	mover    itemMover
	finished bool
}

func (x *Execution) spawnItem(caster *CombatEntity, s *SkillAbility, clip *data.ClipConfig) *AbilityItem {
	cc := clip.Collision
	start := caster.Position
	if cc.Move == data.MoveFixedPosition {
		start = x.point
	}
	it := entity.Spawn(x.ctx.arena, caster.ID(), &AbilityItem{
		ctx:       x.ctx,
		Config:    cc,
		Position:  start,
		Rotation:  x.direction,
		execution: x,
		skill:     s.ID(),
		caster:    caster.ID(),
		team:      caster.Team,
		target:    firstTarget(x.targets),
		start:     start,
		duration:  ms(clip.DurationMs()),
		spawnedAt: x.ctx.Now(),
		last:      x.ctx.Now(),
		hit:       make(map[entity.ID]struct{}),
	})
	x.ctx.items = append(x.ctx.items, it.ID())
	x.ctx.publish(event.Event{
		Type:     event.ItemSpawned,
		Source:   uint32(caster.ID()),
		Target:   uint32(it.target),
		ConfigID: s.Config.ID,
		Detail:   cc.Move.String(),
	})
	x.ctx.view.SyncTransform(it.ID(), it.Position, it.Rotation)

	it.begin()
	return it
}

// Awake attaches the mover and lifetime modules.
func (it *AbilityItem) Awake() {
	it.mover = newMover(it)
	_ = it.AddModule(it.mover)
	_ = it.AddModule(&itemLifetime{item: it})
}

// begin runs the spawn-time collision check, or finishes a zero-length item at once.
func (it *AbilityItem) begin() {
	if it.duration <= 0 {
		it.mover.move(0, 1)
		if it.Config.Move != data.MoveTargetFly {
			it.collide()
		}
		it.complete()
		return
	}
	if it.Config.Move != data.MoveTargetFly {
		it.collide()
	}
}

// Caster returns the handle of the actor that spawned the item.
func (it *AbilityItem) Caster() entity.ID { return it.caster }

// Hits returns how many actors the item has hit.
func (it *AbilityItem) Hits() int { return len(it.hit) }

// HasHit reports whether the item already hit id.
func (it *AbilityItem) HasHit(id entity.ID) bool {
	_, ok := it.hit[id]
	return ok
}

// Elapsed returns the time since spawn.
func (it *AbilityItem) Elapsed() time.Duration { return it.ctx.Now() - it.spawnedAt }

func (it *AbilityItem) update(time.Duration) {
	if it.Disposed() || it.finished {
		return
	}
	now := it.ctx.Now()
	dt := now - it.last
	if dt <= 0 {
		return
	}
	it.last = now

	progress := 1.0
	if it.duration > 0 {
		progress = min(float64(it.Elapsed())/float64(it.duration), 1)
	}
	done := it.mover.move(dt, progress)
	it.ctx.view.SyncTransform(it.ID(), it.Position, it.Rotation)
	if it.Config.Move != data.MoveTargetFly {
		it.collide()
	}
	if done {
		it.complete()
	}
}

// complete invokes OnComplete once and destroys the item.
func (it *AbilityItem) complete() {
	if it.finished {
		return
	}
	it.finished = true
	if it.OnComplete != nil {
		it.OnComplete(it)
	}
	it.destroy()
}

func (it *AbilityItem) destroy() {
	if it.Disposed() {
		return
	}
	it.finished = true
	it.ctx.publish(event.Event{
		Type:     event.ItemDestroyed,
		Source:   uint32(it.caster),
		Target:   uint32(it.target),
		ConfigID: it.configID(),
		Detail:   it.Config.Move.String(),
	})
	it.ctx.arena.Dispose(it.ID())
}

func (it *AbilityItem) configID() int32 {
	if s, ok := entity.Lookup[*SkillAbility](it.ctx.arena, it.skill); ok {
		return s.Config.ID
	}
	return 0
}

// collide hits every eligible actor inside the hit volume. Actors entering
// the volume on the same step are struck together; a destroy-on-hit item
// strikes only the first.
func (it *AbilityItem) collide() {
	var batch []*CombatEntity
	for _, a := range it.ctx.Actors() {
		if !it.eligible(a) || !it.overlaps(a) {
			continue
		}
		batch = append(batch, a)
		if it.Config.DestroyOnHit {
			break
		}
	}
	for _, a := range batch {
		it.hit[a.ID()] = struct{}{}
	}
	for _, a := range batch {
		if it.Disposed() || it.finished {
			return
		}
		it.onHit(a)
	}
}

func (it *AbilityItem) eligible(a *CombatEntity) bool {
	if a.ID() == it.caster || !a.Alive() {
		return false
	}
	if _, done := it.hit[a.ID()]; done {
		return false
	}
	return it.Config.AffectAllies || a.Team != it.team
}

func (it *AbilityItem) overlaps(a *CombatEntity) bool {
	dx, dy := a.Position.X-it.Position.X, a.Position.Y-it.Position.Y
	switch it.Config.Shape {
	case data.ShapeBox:
		sin, cos := gomath.Sincos(it.Rotation)
		lx := dx*cos + dy*sin
		ly := -dx*sin + dy*cos
		return gomath.Abs(lx) <= it.Config.Width/2+a.Radius && gomath.Abs(ly) <= it.Config.Height/2+a.Radius
	default:
		reach := it.Config.Radius + a.Radius
		return dx*dx+dy*dy <= reach*reach
	}
}

// onHit routes a hit to the collision action. Every actor the item has
// struck so far counts as a target. Hits need the skill and the caster
// alive; the execution may already have ended.
func (it *AbilityItem) onHit(a *CombatEntity) {
	it.hit[a.ID()] = struct{}{}
	caster, ok := it.ctx.Actor(it.caster)
	if !ok || !caster.Alive() {
		return
	}
	s, ok := entity.Lookup[*SkillAbility](it.ctx.arena, it.skill)
	if !ok {
		return
	}
	slog.Debug("item hit", "item", it.ID(), "target", a.ID(), "skill", s.Config.ID, "hits", len(it.hit))
	it.execution.handleAction(s, it.Config.Action, []*CombatEntity{a}, len(it.hit), it.Position, it.ID())
	if it.Config.DestroyOnHit {
		it.destroy()
	}
}

// itemLifetime destroys the item after the clip duration. Movers that are
// still travelling get a final step first so they land where they should.
type itemLifetime struct {
	entity.ModuleBase
	item   *AbilityItem
	handle timer.Handle
}

func (l *itemLifetime) Kind() entity.ModuleKind { return ModuleItemLifetime }

func (l *itemLifetime) Awake() {
	if l.item.duration <= 0 {
		return
	}
	l.handle = l.item.ctx.clock.ScheduleOnce(l.item.duration, l.expire)
}

func (l *itemLifetime) expire() {
	l.handle = 0
	it := l.item
	if it.Disposed() || it.finished {
		return
	}
	it.update(0)
	if it.Disposed() || it.finished {
		return
	}
	if it.Config.Move == data.MoveForwardFly || it.Config.Move == data.MovePathFly {
		it.complete()
		return
	}
	it.destroy()
}

func (l *itemLifetime) OnDestroy() {
	if l.handle != 0 {
		l.item.ctx.clock.Cancel(l.handle)
		l.handle = 0
	}
}

// itemMover advances the item by dt; progress is elapsed/duration in [0,1].
// It reports whether the item reached the end of its travel.
type itemMover interface {
	entity.Module
	move(dt time.Duration, progress float64) bool
}

type moverBase struct {
	entity.ModuleBase
	item *AbilityItem
}

func (*moverBase) Kind() entity.ModuleKind { return ModuleItemMove }

func newMover(it *AbilityItem) itemMover {
	base := moverBase{item: it}
	switch it.Config.Move {
	case data.MoveFixedDirection:
		return &fixedDirectionMover{moverBase: base}
	case data.MoveTargetFly:
		return &targetFlyMover{moverBase: base}
	case data.MoveForwardFly:
		return &forwardFlyMover{moverBase: base}
	case data.MovePathFly:
		return newPathFlyMover(base)
	}
	return &fixedPositionMover{moverBase: base}
}

// fixedPositionMover keeps the item at the cast point.
type fixedPositionMover struct {
	moverBase
}

func (*fixedPositionMover) move(time.Duration, float64) bool { return false }

// fixedDirectionMover keeps the item where the caster stood, turned along
// the cast direction, until the lifetime ends.
type fixedDirectionMover struct {
	moverBase
}

func (*fixedDirectionMover) move(time.Duration, float64) bool { return false }

// targetFlyMover homes on the first target and hits it on arrival only.
type targetFlyMover struct {
	moverBase
}

func (m *targetFlyMover) move(dt time.Duration, progress float64) bool {
	it := m.item
	target, ok := it.ctx.Actor(it.target)
	if !ok || !target.Alive() {
		return true
	}
	dx, dy := target.Position.X-it.Position.X, target.Position.Y-it.Position.Y
	dist := gomath.Hypot(dx, dy)

	var frac float64
	switch {
	case it.Config.Speed > 0:
		if dist > 0 {
			frac = min(it.Config.Speed*dt.Seconds()/dist, 1)
		} else {
			frac = 1
		}
	case progress >= 1:
		frac = 1
	default:
		// Cover the remaining distance over the remaining lifetime.
		remaining := float64(it.duration) * (1 - progress)
		frac = min(float64(dt)/(remaining+float64(dt)), 1)
	}
	it.Position = math.Vec2{X: it.Position.X + dx*frac, Y: it.Position.Y + dy*frac}
	if dist > 0 {
		it.Rotation = gomath.Atan2(dy, dx)
	}
	if frac < 1 && !it.overlaps(target) {
		return false
	}
	if _, done := it.hit[target.ID()]; !done {
		it.onHit(target)
	}
	return true
}

// forwardFlyMover travels Distance along the cast direction and completes on arrival.
type forwardFlyMover struct {
	moverBase
	travelled float64
}

func (m *forwardFlyMover) speed() float64 {
	it := m.item
	if it.Config.Speed > 0 {
		return it.Config.Speed
	}
	if it.duration > 0 {
		return it.Config.Distance / it.duration.Seconds()
	}
	return gomath.Inf(1)
}

func (m *forwardFlyMover) move(dt time.Duration, progress float64) bool {
	it := m.item
	step := m.speed() * dt.Seconds()
	if progress >= 1 && it.Config.Speed <= 0 {
		step = it.Config.Distance
	}
	step = min(step, it.Config.Distance-m.travelled)
	if step > 0 {
		m.travelled += step
		it.Position = it.Position.Add(heading(it.Rotation, step))
	}
	return m.travelled >= it.Config.Distance
}

// pathFlyMover follows the configured Bezier path, rotated by the facing
// at spawn and anchored at the spawn position.
type pathFlyMover struct {
	moverBase
	path *path.Path
}

func newPathFlyMover(base moverBase) *pathFlyMover {
	it := base.item
	points := make([]path.ControlPoint, 0, len(it.Config.Points))
	for _, p := range it.Config.Points {
		points = append(points, path.ControlPoint{
			Position:   math.Vec2{X: p.X, Y: p.Y},
			InTangent:  math.Vec2{X: p.InX, Y: p.InY},
			OutTangent: math.Vec2{X: p.OutX, Y: p.OutY},
			Type:       pathPointType(p.Type),
		})
	}
	return &pathFlyMover{
		moverBase: base,
		path:      path.New(points).Transform(it.start, it.Rotation),
	}
}

func (m *pathFlyMover) move(_ time.Duration, progress float64) bool {
	if m.path.SegmentCount() == 0 {
		return progress >= 1
	}
	m.item.Position = m.path.Evaluate(progress)
	return progress >= 1
}

func pathPointType(t data.PathPointType) path.PointType {
	switch t {
	case data.PointSmooth:
		return path.Smooth
	case data.PointBezierCorner:
		return path.BezierCorner
	}
	return path.Corner
}

func heading(angle, length float64) math.Vec2 {
	sin, cos := gomath.Sincos(angle)
	return math.Vec2{X: cos * length, Y: sin * length}
}
