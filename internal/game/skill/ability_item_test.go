package skill

import (
	gomath "math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi/features/math"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/event"
)

func TestItem_ForwardFlyHitsEnemiesOnce(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	ally := h.spawn("ally", 1, 3, 0)
	enemy := h.spawn("enemy", 2, 6, 0)
	aside := h.spawn("aside", 2, 3, 5)
	shot := h.learn(a, 8)

	_, err := a.Spell().SpellWithTarget(shot, enemy)
	require.NoError(t, err)

	h.run(100 * time.Millisecond)
	items := h.ctx.Items()
	require.Len(t, items, 1)
	it := items[0]
	assert.Equal(t, a.ID(), it.Caster())
	assert.InDelta(t, 1, it.Position.X, 1e-9)

	var completed int
	var landed math.Vec2
	it.OnComplete = func(it *AbilityItem) {
		completed++
		landed = it.Position
	}

	h.run(1100 * time.Millisecond)
	assert.InDelta(t, 85, enemy.HP(), 1e-9)
	assert.InDelta(t, 100, ally.HP(), 1e-9, "allies are ignored")
	assert.InDelta(t, 100, aside.HP(), 1e-9)
	assert.Len(t, h.events(event.DamageReceived), 1)
	assert.True(t, it.HasHit(enemy.ID()))

	assert.Equal(t, 1, completed)
	assert.InDelta(t, 10, landed.X, 1e-9)
	assert.InDelta(t, 0, landed.Y, 1e-9)
	assert.Empty(t, h.ctx.Items())
	assert.Len(t, h.events(event.ItemSpawned), 1)
	assert.Len(t, h.events(event.ItemDestroyed), 1)
}

func TestItem_PathFlyEndsAtRotatedEndpoint(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	enemy := h.spawn("enemy", 2, 0, 2)
	arc := h.learn(a, 9)

	_, err := a.Spell().SpellWithPoint(arc, math.Vec2{X: 0, Y: 5})
	require.NoError(t, err)
	assert.InDelta(t, gomath.Pi/2, a.Facing, 1e-9)

	h.run(100 * time.Millisecond)
	items := h.ctx.Items()
	require.Len(t, items, 1)
	id := items[0].ID()

	h.run(900 * time.Millisecond)
	assert.Empty(t, h.ctx.Items())
	last, ok := h.view.last[id]
	require.True(t, ok)
	assert.InDelta(t, 0, last.pos.X, 1e-9)
	assert.InDelta(t, 4, last.pos.Y, 1e-9)
	assert.InDelta(t, 85, enemy.HP(), 1e-9)
}

func TestItem_TargetFlyHitsTargetOnArrival(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	enemy := h.spawn("enemy", 2, 5, 0)
	bystander := h.spawn("bystander", 2, 2, 0)
	homing := h.learn(a, 10)

	_, err := a.Spell().SpellWithTarget(homing, enemy)
	require.NoError(t, err)

	h.run(500 * time.Millisecond)
	assert.InDelta(t, 100, enemy.HP(), 1e-9)
	assert.InDelta(t, 100, bystander.HP(), 1e-9, "homing items only hit their target")

	h.run(500 * time.Millisecond)
	assert.InDelta(t, 85, enemy.HP(), 1e-9)
	assert.Empty(t, h.ctx.Items())
}

func TestItem_TargetFlyLosesDeadTarget(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	enemy := h.spawn("enemy", 2, 5, 0)
	homing := h.learn(a, 10)

	_, err := a.Spell().SpellWithTarget(homing, enemy)
	require.NoError(t, err)
	h.run(300 * time.Millisecond)
	enemy.ReceiveDamage(Hit{Amount: 1000})

	h.run(100 * time.Millisecond)
	assert.Empty(t, h.ctx.Items())
	assert.Len(t, h.events(event.DamageReceived), 1)
}

func TestItem_FixedPositionAffectsAllies(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	ally := h.spawn("ally", 1, 5, 1)
	near := h.spawn("near", 2, 6, 0)
	far := h.spawn("far", 2, 9, 0)
	nova := h.learn(a, 16)

	_, err := a.Spell().SpellWithPoint(nova, math.Vec2{X: 5})
	require.NoError(t, err)

	h.run(400 * time.Millisecond)
	assert.InDelta(t, 95, ally.HP(), 1e-9)
	assert.InDelta(t, 95, near.HP(), 1e-9)
	assert.InDelta(t, 100, far.HP(), 1e-9)
	assert.InDelta(t, 100, a.HP(), 1e-9, "the caster is never hit")
	require.Len(t, h.ctx.Items(), 1)
	assert.Equal(t, 2, h.ctx.Items()[0].Hits())

	h.run(100 * time.Millisecond)
	assert.Empty(t, h.ctx.Items())
}

func TestItem_DestroyOnHit(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	first := h.spawn("first", 2, 3, 0)
	second := h.spawn("second", 2, 5, 0)
	spear := h.learn(a, 17)

	_, err := a.Spell().SpellWithTarget(spear, first)
	require.NoError(t, err)

	h.run(time.Second)
	assert.InDelta(t, 75, first.HP(), 1e-9)
	assert.InDelta(t, 100, second.HP(), 1e-9)
	assert.Empty(t, h.ctx.Items())
	assert.Len(t, h.events(event.ItemDestroyed), 1)
}

func TestItem_FixedDirectionStaysAtCaster(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 2, 1)
	enemy := h.spawn("enemy", 2, 12, 1)
	ward := h.learn(a, 20)

	_, err := a.Spell().SpellWithTarget(ward, enemy)
	require.NoError(t, err)

	h.run(500 * time.Millisecond)
	items := h.ctx.Items()
	require.Len(t, items, 1)
	it := items[0]
	assert.Equal(t, 500*time.Millisecond, it.Elapsed())
	assertNear(t, math.Vec2{X: 2, Y: 1}, it.Position)

	h.run(500 * time.Millisecond)
	assert.Empty(t, h.ctx.Items())
	assertNear(t, math.Vec2{X: 2, Y: 1}, h.view.last[it.ID()].pos, "speed is ignored")
	assert.InDelta(t, 100, enemy.HP(), 1e-9)
}

func TestItem_AreaHitScalesByTargetCount(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	enemies := []*CombatEntity{
		h.spawn("e1", 2, 2, 0),
		h.spawn("e2", 2, -2, 0),
		h.spawn("e3", 2, 0, 2),
	}
	quake := h.learn(a, 21)

	_, err := a.Spell().SpellWithPoint(quake, math.Vec2{})
	require.NoError(t, err)

	h.run(100 * time.Millisecond)
	for _, e := range enemies {
		// 40 * (1 - 25% * 2 extra targets)
		assert.InDelta(t, 80, e.HP(), 1e-9, e.Name)
	}
}

func TestItem_ZeroDurationChecksOnce(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	enemy := h.spawn("enemy", 2, 3, 0)
	flash := h.learn(a, 18)

	_, err := a.Spell().SpellWithPoint(flash, math.Vec2{X: 3})
	require.NoError(t, err)

	h.run(100 * time.Millisecond)
	assert.InDelta(t, 93, enemy.HP(), 1e-9)
	assert.Empty(t, h.ctx.Items())
	assert.Len(t, h.events(event.ItemSpawned), 1)
	assert.Len(t, h.events(event.ItemDestroyed), 1)
}

func TestItem_BoxOverlapUsesRotation(t *testing.T) {
	h := newHarness(t)
	along := h.spawn("along", 2, 0, 1.5)
	across := h.spawn("across", 2, 1.5, 0)

	it := &AbilityItem{
		Config:   &data.CollisionConfig{Shape: data.ShapeBox, Width: 4, Height: 1},
		Rotation: gomath.Pi / 2,
	}
	assert.True(t, it.overlaps(along), "width runs along the facing")
	assert.False(t, it.overlaps(across))

	it.Rotation = 0
	assert.False(t, it.overlaps(along))
	assert.True(t, it.overlaps(across))
}
