package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleContent = `
skills:
  - id: 1001
    name: Fireball
    target: target
    cooldown_ms: 2000
    execution: fireball
    effects:
      - kind: damage
        damage_type: magic
        value: "Caster.Attack * 2"
        can_crit: true
        decorators:
          - type: target_hp_below_bonus
            value: 10
            threshold: 50
      - kind: add_status
        status_id: 2001
        duration_ms: 3000
        params:
          Heal: "Caster.Attack / 10"
statuses:
  - id: 2001
    name: Regeneration
    type: buff
    duration_ms: 5000
    effects:
      - kind: cure
        value: "{Heal}"
        trigger:
          type: interval
          interval: "1000"
  - id: 2002
    name: Root
    type: debuff
    effects:
      - kind: action_control
        control: move_forbid|attack_forbid
executions:
  - id: fireball
    duration_ms: 1200
    clips:
      - type: animation
        start_ms: 0
        name: cast
      - type: collision
        start_ms: 200
        end_ms: 1200
        collision:
          shape: sphere
          radius: 0.5
          move: target_fly
          action:
            event: assign_effect
`

func TestParseContent(t *testing.T) {
	c, err := ParseContent([]byte(sampleContent))
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	skill := c.Skill(1001)
	require.NotNil(t, skill)
	assert.Equal(t, "Fireball", skill.Name)
	assert.Equal(t, SkillTargetEnemy, skill.Target)
	assert.Equal(t, int64(2000), skill.CooldownMs)
	require.Len(t, skill.Effects, 2)

	dmg, ok := skill.Effects[0].Payload.(DamageEffect)
	require.True(t, ok)
	assert.Equal(t, DamageMagic, dmg.DamageType)
	assert.Equal(t, "Caster.Attack * 2", dmg.Value)
	assert.True(t, dmg.CanCrit)
	require.Len(t, skill.Effects[0].Decorators, 1)
	assert.Equal(t, DecoratorTargetHPBelowBonus, skill.Effects[0].Decorators[0].Type)

	add, ok := skill.Effects[1].Payload.(AddStatusEffect)
	require.True(t, ok)
	assert.Equal(t, int32(2001), add.StatusID)
	assert.Equal(t, "Caster.Attack / 10", add.Params["Heal"])

	regen := c.Status(2001)
	require.NotNil(t, regen)
	assert.Equal(t, StatusBuff, regen.Type)
	assert.Equal(t, TriggerInterval, regen.Effects[0].Trigger.Type)

	root := c.Status(2002)
	require.NotNil(t, root)
	ctl, ok := root.Effects[0].Payload.(ActionControlEffect)
	require.True(t, ok)
	assert.True(t, ctl.Control.Has(MoveForbid))
	assert.True(t, ctl.Control.Has(AttackForbid))
	assert.False(t, ctl.Control.Has(SkillForbid))

	exec := c.Execution("fireball")
	require.NotNil(t, exec)
	require.Len(t, exec.Clips, 2)
	assert.Equal(t, ClipCollision, exec.Clips[1].Type)
	assert.Equal(t, int64(1000), exec.Clips[1].DurationMs())
	assert.Equal(t, MoveTargetFly, exec.Clips[1].Collision.Move)

	assert.Nil(t, c.Skill(9999))
	assert.Nil(t, c.Execution("missing"))
}

func TestParseContent_UnknownKind(t *testing.T) {
	_, err := ParseContent([]byte(`
skills:
  - id: 1
    effects:
      - kind: teleport
`))
	require.Error(t, err)
}

func TestParseContent_MissingKind(t *testing.T) {
	_, err := ParseContent([]byte(`
statuses:
  - id: 1
    effects:
      - value: "5"
`))
	assert.ErrorIs(t, err, ErrUnknownEffectKind)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	c, err := ParseContent([]byte(`
skills:
  - id: 1
    execution: nowhere
    effects:
      - kind: add_status
        status_id: 77
      - kind: damage
statuses:
  - id: 5
    children:
      - status_id: 6
    effects:
      - kind: cure
        value: "1"
        trigger:
          type: action_point
executions:
  - id: chain
    duration_ms: 100
    clips:
      - type: action_event
        start_ms: 500
        action:
          event: trigger_new_execution
          execution: ghost
`))
	require.NoError(t, err)

	err = c.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		`unknown execution "nowhere"`,
		"unknown status 77",
		"damage value formula is empty",
		"unknown child status 6",
		"action_point trigger without action_point",
		"outside duration",
		`unknown chained execution "ghost"`,
	} {
		assert.Contains(t, msg, want)
	}
}

func TestValidate_ChildCycles(t *testing.T) {
	c, err := ParseContent([]byte(`
statuses:
  - id: 1
    can_stack: true
    children:
      - status_id: 2
  - id: 2
    can_stack: true
    children:
      - status_id: 1
  - id: 3
    children:
      - status_id: 3
  - id: 4
    children:
      - status_id: 2
`))
	require.NoError(t, err)

	err = c.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "status 1: child cycle [1 2 1]")
	assert.Contains(t, msg, "status 3: child cycle [3 3]")
	assert.Equal(t, 2, strings.Count(msg, "child cycle"))
}

func TestLoadContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleContent), 0o644))

	c, err := LoadContent(path)
	require.NoError(t, err)
	assert.NotNil(t, c.Skill(1001))

	_, err = LoadContent(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPayloadDecodersExhaustive(t *testing.T) {
	protos := PayloadPrototypes()
	assert.Len(t, protos, EffectKindCount-1)
	for k := EffectKind(1); int(k) < EffectKindCount; k++ {
		assert.NotNil(t, payloadDecoders[k], "decoder for %s", k)
		p, ok := protos[k.String()]
		require.True(t, ok, "prototype for %s", k)
		assert.Equal(t, k, p.Kind())
	}
}

func TestStackLimit(t *testing.T) {
	assert.Equal(t, 1, (&StatusConfig{}).StackLimit())
	assert.Equal(t, 1, (&StatusConfig{MaxStack: 5}).StackLimit())
	assert.Equal(t, 3, (&StatusConfig{CanStack: true, MaxStack: 3}).StackLimit())
	assert.Greater(t, (&StatusConfig{CanStack: true}).StackLimit(), 1000)
}
