package skill

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi/features/math"

	"github.com/udisondev/abilitycore/internal/event"
)

func TestSpell_DirectDamage(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	b := h.spawn("b", 2, 3, 0)
	strike := h.learn(a, 1)

	x, err := a.Spell().SpellWithTarget(strike, b)
	require.NoError(t, err)
	assert.Nil(t, x, "skills without execution apply at once")

	assert.InDelta(t, 80, b.HP(), 1e-9)
	got := h.events(event.DamageReceived)
	require.Len(t, got, 1)
	assert.InDelta(t, 20, got[0].Amount, 1e-9)
	assert.Equal(t, uint32(a.ID()), got[0].Source)
	assert.Equal(t, uint32(b.ID()), got[0].Target)
	assert.Equal(t, int32(1), got[0].ConfigID)
	assert.Len(t, h.events(event.EffectAssigned), 1)
	assert.Nil(t, a.Spell().Casting())
}

func TestSpell_AtMostOneCast(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	b := h.spawn("b", 2, 3, 0)
	bolt := h.learn(a, 2)
	strike := h.learn(a, 1)

	x, err := a.Spell().SpellWithTarget(bolt, b)
	require.NoError(t, err)
	require.NotNil(t, x)
	assert.Equal(t, ExecutionCasting, x.State())
	assert.Same(t, x, a.Spell().Casting())
	assert.True(t, bolt.Spelling())

	_, err = a.Spell().SpellWithTarget(strike, b)
	require.ErrorIs(t, err, ErrAlreadyCasting)
	assert.InDelta(t, 100, b.HP(), 1e-9)

	h.run(500 * time.Millisecond)
	assert.InDelta(t, 90, b.HP(), 1e-9, "action clip fires at 500ms")
	assert.Equal(t, []string{"raise_hands"}, h.view.animations)
	assert.NotNil(t, a.Spell().Casting())

	h.run(500 * time.Millisecond)
	assert.Nil(t, a.Spell().Casting())
	assert.False(t, bolt.Spelling())
	assert.Equal(t, ExecutionExpired, x.State())
	assert.True(t, x.Disposed())
	require.Len(t, h.events(event.ExecutionEnded), 1)

	_, err = a.Spell().SpellWithTarget(strike, b)
	require.NoError(t, err)
	assert.InDelta(t, 70, b.HP(), 1e-9)
}

func TestSpell_Cooldown(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	b := h.spawn("b", 2, 3, 0)
	dash := h.learn(a, 3)

	_, err := a.Spell().SpellWithTarget(dash, b)
	require.NoError(t, err)
	assert.True(t, dash.OnCooldown())
	assert.Equal(t, 2*time.Second, dash.CooldownLeft())

	_, err = a.Spell().SpellWithTarget(dash, b)
	require.ErrorIs(t, err, ErrOnCooldown)

	h.run(2 * time.Second)
	assert.False(t, dash.OnCooldown())
	_, err = a.Spell().SpellWithTarget(dash, b)
	require.NoError(t, err)
	assert.InDelta(t, 98, b.HP(), 1e-9)
}

func TestSpell_Rejections(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	b := h.spawn("b", 2, 3, 0)
	other := h.spawn("other", 1, 0, 1)

	t.Run("disabled skill", func(t *testing.T) {
		s := a.AttachSkill(h.content.Skill(1))
		_, err := a.Spell().SpellWithTarget(s, b)
		require.ErrorIs(t, err, ErrSkillDisabled)
	})

	t.Run("foreign skill", func(t *testing.T) {
		s := h.learn(other, 1)
		_, err := a.Spell().SpellWithTarget(s, b)
		require.ErrorIs(t, err, ErrSkillDisabled)
	})

	t.Run("no target", func(t *testing.T) {
		s := h.learn(a, 1)
		_, err := a.Spell().SpellWithTarget(s, nil)
		require.ErrorIs(t, err, ErrNoTarget)

		_, err = a.Spell().SpellWithPoint(s, math.Vec2{X: 1})
		require.ErrorIs(t, err, ErrNoTarget)
	})

	t.Run("nil skill", func(t *testing.T) {
		_, err := a.Spell().SpellWithTarget(nil, b)
		require.ErrorIs(t, err, ErrSkillDisabled)
	})
}

func TestSpell_ChainedExecutionDoesNotHoldSlot(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	b := h.spawn("b", 2, 3, 0)
	burst := h.learn(a, 11)

	x, err := a.Spell().SpellWithTarget(burst, b)
	require.NoError(t, err)

	h.run(100 * time.Millisecond)
	assert.InDelta(t, 90, b.HP(), 1e-9, "chained execution assigns at its start")
	assert.Len(t, h.events(event.ExecutionStarted), 2)
	assert.Same(t, x, a.Spell().Casting())

	h.run(100 * time.Millisecond)
	assert.Nil(t, a.Spell().Casting(), "slot frees when the root execution ends")
	assert.Len(t, h.events(event.ExecutionEnded), 1)

	h.run(500 * time.Millisecond)
	assert.Len(t, h.events(event.ExecutionEnded), 2)
	assert.InDelta(t, 90, b.HP(), 1e-9)
}

func TestSpell_CancelStopsPendingClips(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	b := h.spawn("b", 2, 3, 0)
	bolt := h.learn(a, 2)

	_, err := a.Spell().SpellWithTarget(bolt, b)
	require.NoError(t, err)
	a.Spell().Cancel()
	assert.Nil(t, a.Spell().Casting())

	h.run(time.Second)
	assert.InDelta(t, 100, b.HP(), 1e-9)
	assert.Len(t, h.events(event.ExecutionEnded), 1)
}

func TestSpell_SkillRemovedMidCast(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	b := h.spawn("b", 2, 3, 0)
	bolt := h.learn(a, 2)

	x, err := a.Spell().SpellWithTarget(bolt, b)
	require.NoError(t, err)
	h.ctx.Arena().Dispose(bolt.ID())

	h.run(time.Second)
	assert.InDelta(t, 100, b.HP(), 1e-9, "pending clips no-op without their skill")
	assert.True(t, x.Disposed())
	assert.Nil(t, a.Spell().Casting())
}

func TestSpell_DeathCancelsCastAndEndsStatuses(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	b := h.spawnWith(ActorSpec{Name: "b", Team: 2, Position: math.Vec2{X: 3}, HP: 15})
	strike := h.learn(a, 1)
	bolt := h.learn(b, 2)

	require.NotNil(t, b.ApplyStatus(a, 20, 0, nil))
	_, err := b.Spell().SpellWithTarget(bolt, a)
	require.NoError(t, err)

	_, err = a.Spell().SpellWithTarget(strike, b)
	require.NoError(t, err)

	assert.True(t, b.Dead())
	assert.Zero(t, b.HP())
	assert.Nil(t, b.Spell().Casting())
	assert.Zero(t, b.Statuses().Count())
	died := h.events(event.ActorDied)
	require.Len(t, died, 1)
	assert.Equal(t, uint32(a.ID()), died[0].Source)

	dmg := h.events(event.DamageReceived)
	require.Len(t, dmg, 1)
	assert.InDelta(t, 15, dmg[0].Amount, 1e-9, "damage is capped at remaining health")

	_, err = b.Spell().SpellWithTarget(bolt, a)
	require.ErrorIs(t, err, ErrCasterDead)

	h.run(time.Second)
	assert.InDelta(t, 100, a.HP(), 1e-9)
}

func TestSpell_Backpressure(t *testing.T) {
	h := newHarnessWith(t, Options{Pools: PoolSizes{Damage: 1}})
	a := h.spawn("a", 1, 0, 0)
	b := h.spawn("b", 2, 3, 0)
	strike := h.learn(a, 1)

	held, ok := a.Damage().TryMakeAction()
	require.True(t, ok)
	_, ok = a.Damage().TryMakeAction()
	require.False(t, ok, "pool of one is exhausted")
	assert.Equal(t, 1, a.Damage().InFlight())

	_, err := a.Spell().SpellWithTarget(strike, b)
	require.NoError(t, err)
	assert.InDelta(t, 100, b.HP(), 1e-9, "damage is dropped, not queued")
	assert.Empty(t, h.events(event.DamageReceived))

	held.ApplyDamage()
	assert.Zero(t, a.Damage().InFlight())

	_, err = a.Spell().SpellWithTarget(strike, b)
	require.NoError(t, err)
	assert.InDelta(t, 80, b.HP(), 1e-9)
}

func TestSpell_ReflectionIsBoundedByPools(t *testing.T) {
	h := newHarness(t)
	a := h.spawn("a", 1, 0, 0)
	b := h.spawn("b", 2, 3, 0)
	strike := h.learn(a, 1)
	h.learn(a, 6)
	h.learn(b, 6)

	_, err := a.Spell().SpellWithTarget(strike, b)
	require.NoError(t, err)

	// a's damage pool (8) holds the strike and seven reflections; b reflects eight times.
	assert.InDelta(t, 100-20-7*5, b.HP(), 1e-9)
	assert.InDelta(t, 100-8*5, a.HP(), 1e-9)
	for _, actor := range []*CombatEntity{a, b} {
		assert.Zero(t, actor.Damage().InFlight())
		assert.Zero(t, actor.EffectAssign().InFlight())
	}
}
