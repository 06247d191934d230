package skill

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi/features/math"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/event"
	"github.com/udisondev/abilitycore/internal/game/entity"
	"github.com/udisondev/abilitycore/internal/timer"
)

const testContent = `
skills:
  - id: 1
    name: Strike
    target: target
    effects:
      - kind: damage
        damage_type: physic
        value: "20"
        can_crit: true
  - id: 2
    name: Bolt
    target: target
    execution: bolt
    effects:
      - kind: damage
        damage_type: magic
        value: "10"
  - id: 3
    name: Dash
    target: target
    cooldown_ms: 2000
    effects:
      - kind: damage
        damage_type: physic
        value: "1"
  - id: 4
    name: Execute
    target: target
    effects:
      - kind: damage
        damage_type: physic
        value: "20"
        decorators:
          - type: target_hp_below_bonus
            value: 50
            threshold: 50
  - id: 5
    name: Cleave
    target: target
    effects:
      - kind: damage
        damage_type: physic
        value: "20"
        decorators:
          - type: target_count_reduce
            value: 25
          - type: add_status
            status_id: 20
            duration_ms: 500
  - id: 6
    name: Thorns
    target: self
    passive: true
    effects:
      - kind: damage
        damage_type: real
        value: "5"
        target: action_source
        trigger:
          type: action_point
          action_point: post_receive_damage
  - id: 7
    name: Last Stand
    target: self
    passive: true
    effects:
      - kind: cure
        value: "30"
        trigger:
          type: condition
          condition: when_hp_pct_lower
          condition_param: "50"
  - id: 8
    name: Shot
    target: target
    execution: shot
    effects:
      - kind: damage
        damage_type: physic
        value: "15"
  - id: 9
    name: Arc
    target: point
    execution: arc
    effects:
      - kind: damage
        damage_type: magic
        value: "15"
  - id: 10
    name: Homing
    target: target
    execution: homing
    effects:
      - kind: damage
        damage_type: magic
        value: "15"
  - id: 11
    name: Burst
    target: target
    execution: burst
    effects:
      - kind: damage
        damage_type: magic
        value: "10"
  - id: 12
    name: Drain
    target: target
    effects:
      - kind: damage_blood_suck
        damage_type: magic
        value: "20"
        suck_ratio: 0.5
  - id: 13
    name: Purify
    target: self
    effects:
      - kind: clear_all_status
        status_type: debuff
      - kind: remove_status
        status_id: 10
  - id: 14
    name: Mark
    target: target
    effects:
      - kind: custom
        handler: mark
        params:
          Power: "Caster.Attack * 2"
  - id: 15
    name: Mend
    target: target
    effects:
      - kind: add_status
        status_id: 10
        params:
          Heal: "Caster.Attack / 2"
  - id: 16
    name: Nova
    target: point
    execution: nova
    effects:
      - kind: damage
        damage_type: magic
        value: "5"
  - id: 17
    name: Spear
    target: target
    execution: spear
    effects:
      - kind: damage
        damage_type: physic
        value: "25"
  - id: 18
    name: Flash
    target: point
    execution: flash
    effects:
      - kind: damage
        damage_type: magic
        value: "7"
  - id: 19
    name: Stance
    target: self
    effects:
      - kind: attribute_modify
        attribute: Attack
        value: "5"
        modify: add
      - kind: action_control
        control: move_forbid
  - id: 20
    name: Ward
    target: target
    execution: ward
    effects:
      - kind: damage
        damage_type: magic
        value: "5"
  - id: 21
    name: Quake
    target: point
    execution: quake
    effects:
      - kind: damage
        damage_type: physic
        value: "40"
        decorators:
          - type: target_count_reduce
            value: 25
statuses:
  - id: 10
    name: Regen
    type: buff
    effects:
      - kind: cure
        value: "{Heal}"
        trigger:
          type: interval
          interval: "1000"
  - id: 11
    name: Echo
    type: other
    effects:
      - kind: cure
        value: "{A}"
  - id: 20
    name: Root
    type: debuff
    duration_ms: 2000
    effects:
      - kind: action_control
        control: move_forbid
  - id: 21
    name: Silence
    type: debuff
    effects:
      - kind: action_control
        control: skill_forbid|attack_forbid
  - id: 30
    name: Empower
    type: buff
    children:
      - status_id: 31
        params:
          Bonus: "{Bonus} * 2"
    effects:
      - kind: attribute_modify
        attribute: Attack
        value: "{Bonus}"
        modify: add
  - id: 31
    name: Fortify
    type: buff
    effects:
      - kind: attribute_modify
        attribute: Defense
        value: "{Bonus}"
        modify: add
  - id: 32
    name: Might
    type: buff
    effects:
      - kind: attribute_modify
        attribute: Attack
        value: "50"
        modify: percent_add
  - id: 40
    name: Bleed
    type: debuff
    duration_ms: 5000
    can_stack: true
    max_stack: 2
    effects:
      - kind: damage
        damage_type: real
        value: "1"
        trigger:
          type: interval
          interval: "1000"
  - id: 50
    name: Scorch
    type: debuff
    effects:
      - kind: damage
        damage_type: physic
        value: "20"
        trigger:
          type: instant
  - id: 51
    name: Second Wind
    type: buff
    effects:
      - kind: cure
        value: "10"
        trigger:
          type: interval
          interval: "1000"
          condition: when_hp_pct_lower
          condition_param: "50"
executions:
  - id: bolt
    duration_ms: 1000
    clips:
      - type: animation
        start_ms: 0
        name: raise_hands
      - type: action_event
        start_ms: 500
        action:
          event: assign_effect
  - id: shot
    duration_ms: 1000
    clips:
      - type: collision
        start_ms: 0
        end_ms: 1000
        collision:
          shape: sphere
          radius: 0.5
          move: forward_fly
          distance: 10
          action:
            event: assign_effect
  - id: arc
    duration_ms: 1000
    clips:
      - type: collision
        start_ms: 0
        end_ms: 1000
        collision:
          shape: sphere
          radius: 0.1
          move: path_fly
          points:
            - {x: 0, y: 0, type: corner}
            - {x: 4, y: 0, type: corner}
          action:
            event: assign_effect
  - id: homing
    duration_ms: 1000
    clips:
      - type: collision
        start_ms: 0
        end_ms: 1000
        collision:
          shape: sphere
          radius: 0.2
          move: target_fly
          action:
            event: assign_effect
  - id: burst
    duration_ms: 200
    clips:
      - type: action_event
        start_ms: 100
        action:
          event: trigger_new_execution
          execution: burst_tail
  - id: burst_tail
    duration_ms: 500
    clips:
      - type: action_event
        start_ms: 0
        action:
          event: assign_effect
  - id: nova
    duration_ms: 500
    clips:
      - type: collision
        start_ms: 0
        end_ms: 500
        collision:
          shape: sphere
          radius: 2
          move: fixed_position
          affect_allies: true
          action:
            event: assign_effect
  - id: spear
    duration_ms: 1000
    clips:
      - type: collision
        start_ms: 0
        end_ms: 1000
        collision:
          shape: box
          width: 10
          height: 1
          move: fixed_direction
          destroy_on_hit: true
          action:
            event: assign_effect
  - id: flash
    duration_ms: 100
    clips:
      - type: collision
        start_ms: 0
        collision:
          shape: sphere
          radius: 1.5
          move: fixed_position
          action:
            event: assign_effect
  - id: ward
    duration_ms: 1000
    clips:
      - type: collision
        start_ms: 0
        end_ms: 1000
        collision:
          shape: box
          width: 1
          height: 1
          move: fixed_direction
          speed: 10
          action:
            event: assign_effect
  - id: quake
    duration_ms: 300
    clips:
      - type: collision
        start_ms: 0
        end_ms: 300
        collision:
          shape: sphere
          radius: 3
          move: fixed_position
          action:
            event: assign_effect
`

type harness struct {
	t       *testing.T
	ctx     *Context
	clock   *timer.Scheduler
	rec     *event.Recorder
	view    *recordingView
	content *data.Content
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, Options{})
}

func newHarnessWith(t *testing.T, opts Options) *harness {
	t.Helper()

	content, err := data.ParseContent([]byte(testContent))
	require.NoError(t, err)
	require.NoError(t, content.Validate())
	return newHarnessFor(t, content, opts)
}

// newHarnessFor builds a harness over content that may not pass Validate.
func newHarnessFor(t *testing.T, content *data.Content, opts Options) *harness {
	t.Helper()

	bus := event.NewBus()
	rec := &event.Recorder{}
	bus.SubscribeAll(rec.Handle)
	clock := timer.New()
	view := newRecordingView()

	opts.Clock = clock
	opts.Publisher = bus
	opts.Content = content
	opts.View = view
	if opts.Seed == 0 {
		opts.Seed = 7
	}

	return &harness{
		t:       t,
		ctx:     NewContext(opts),
		clock:   clock,
		rec:     rec,
		view:    view,
		content: content,
	}
}

func (h *harness) spawn(name string, team int, x, y float64) *CombatEntity {
	return h.spawnWith(ActorSpec{Name: name, Team: team, Position: math.Vec2{X: x, Y: y}})
}

func (h *harness) spawnWith(spec ActorSpec) *CombatEntity {
	if spec.Radius == 0 {
		spec.Radius = 0.5
	}
	if spec.Attributes == nil {
		spec.Attributes = map[string]float64{AttrMaxHP: 100, AttrAttack: 10}
	}
	return h.ctx.SpawnActor(spec)
}

// learn attaches and activates the skill with the given id.
func (h *harness) learn(a *CombatEntity, id int32) *SkillAbility {
	h.t.Helper()
	cfg := h.content.Skill(id)
	require.NotNil(h.t, cfg, "skill %d", id)
	s := a.AttachSkill(cfg)
	s.ActivateAbility()
	return s
}

// run advances the simulation in 100ms frames.
func (h *harness) run(d time.Duration) {
	const frame = 100 * time.Millisecond
	for d > 0 {
		step := min(frame, d)
		h.ctx.Update(step)
		d -= step
	}
}

func (h *harness) events(t event.Type) []event.Event {
	return h.rec.OfType(t)
}

type transform struct {
	pos      math.Vec2
	rotation float64
}

type recordingView struct {
	animations []string
	last       map[entity.ID]transform
}

func newRecordingView() *recordingView {
	return &recordingView{last: make(map[entity.ID]transform)}
}

func (v *recordingView) PlayAnimation(_ entity.ID, name string) {
	v.animations = append(v.animations, name)
}
func (v *recordingView) PlayAudio(entity.ID, string)                {}
func (v *recordingView) SpawnParticle(entity.ID, string, math.Vec2) {}
func (v *recordingView) SyncTransform(id entity.ID, pos math.Vec2, rotation float64) {
	v.last[id] = transform{pos: pos, rotation: rotation}
}

func assertNear(t *testing.T, want, got math.Vec2, msgAndArgs ...any) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, msgAndArgs...)
	assert.InDelta(t, want.Y, got.Y, 1e-9, msgAndArgs...)
}
