package data

import (
	"fmt"
	"strings"
)

// enumNames maps enum values to their content-file spelling.
type enumNames[T ~uint8] map[T]string

func (m enumNames[T]) name(v T) string {
	if s, ok := m[v]; ok {
		return s
	}
	return fmt.Sprintf("%d", uint8(v))
}

func (m enumNames[T]) parse(kind string, b []byte) (T, error) {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for v, name := range m {
		if name == s {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", kind, b)
}

// EffectKind discriminates the effect payload union.
type EffectKind uint8

const (
	EffectAddStatus EffectKind = iota + 1
	EffectRemoveStatus
	EffectClearAllStatus
	EffectCure
	EffectDamage
	EffectDamageBloodSuck
	EffectAttributeModify
	EffectActionControl
	EffectCustom

	// EffectKindCount sizes kind-indexed tables. Index 0 is unused.
	EffectKindCount = iota + 1
)

var effectKindNames = enumNames[EffectKind]{
	EffectAddStatus:       "add_status",
	EffectRemoveStatus:    "remove_status",
	EffectClearAllStatus:  "clear_all_status",
	EffectCure:            "cure",
	EffectDamage:          "damage",
	EffectDamageBloodSuck: "damage_blood_suck",
	EffectAttributeModify: "attribute_modify",
	EffectActionControl:   "action_control",
	EffectCustom:          "custom",
}

func (k EffectKind) String() string { return effectKindNames.name(k) }

func (k EffectKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EffectKind) UnmarshalText(b []byte) (err error) {
	*k, err = effectKindNames.parse("effect kind", b)
	return err
}

// Triggerable reports whether effects of this kind fire discretely.
// AttributeModify and ActionControl apply continuously while enabled.
func (k EffectKind) Triggerable() bool {
	return k != EffectAttributeModify && k != EffectActionControl
}

// TriggerType selects when an effect fires on its own.
// TriggerNone means the effect is only assigned by executions.
type TriggerType uint8

const (
	TriggerNone TriggerType = iota
	TriggerInstant
	TriggerActionPoint
	TriggerInterval
	TriggerCondition
)

var triggerTypeNames = enumNames[TriggerType]{
	TriggerNone:        "none",
	TriggerInstant:     "instant",
	TriggerActionPoint: "action_point",
	TriggerInterval:    "interval",
	TriggerCondition:   "condition",
}

func (t TriggerType) String() string { return triggerTypeNames.name(t) }

func (t TriggerType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TriggerType) UnmarshalText(b []byte) (err error) {
	*t, err = triggerTypeNames.parse("trigger type", b)
	return err
}

// EffectTarget selects who receives an effect relative to the assignment.
type EffectTarget uint8

const (
	// TargetAssigned is the entity the effect was assigned to (hit target, status bearer).
	TargetAssigned EffectTarget = iota
	// TargetSelf is the owner of the effect (caster for skills, bearer for statuses).
	TargetSelf
	// TargetActionSource is the creator of the action that fired an action-point trigger.
	TargetActionSource
)

var effectTargetNames = enumNames[EffectTarget]{
	TargetAssigned:     "target",
	TargetSelf:         "self",
	TargetActionSource: "action_source",
}

func (t EffectTarget) String() string { return effectTargetNames.name(t) }

func (t EffectTarget) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *EffectTarget) UnmarshalText(b []byte) (err error) {
	*t, err = effectTargetNames.parse("effect target", b)
	return err
}

// ActionPointType names a hook on a combat actor's action lifecycle.
type ActionPointType uint8

const (
	PreCauseDamage ActionPointType = iota + 1
	PreReceiveDamage
	PostCauseDamage
	PostReceiveDamage
	PostGiveCure
	PostReceiveCure
	AssignEffect
	ReceiveEffect
	PostGiveStatus
	PostReceiveStatus
	PreSpell
	PostSpell
)

var actionPointNames = enumNames[ActionPointType]{
	PreCauseDamage:    "pre_cause_damage",
	PreReceiveDamage:  "pre_receive_damage",
	PostCauseDamage:   "post_cause_damage",
	PostReceiveDamage: "post_receive_damage",
	PostGiveCure:      "post_give_cure",
	PostReceiveCure:   "post_receive_cure",
	AssignEffect:      "assign_effect",
	ReceiveEffect:     "receive_effect",
	PostGiveStatus:    "post_give_status",
	PostReceiveStatus: "post_receive_status",
	PreSpell:          "pre_spell",
	PostSpell:         "post_spell",
}

func (t ActionPointType) String() string { return actionPointNames.name(t) }

func (t ActionPointType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *ActionPointType) UnmarshalText(b []byte) (err error) {
	*t, err = actionPointNames.parse("action point", b)
	return err
}

// ConditionType names a predicate over a combat actor's state.
type ConditionType uint8

const (
	WhenHPPctLower ConditionType = iota + 1
	WhenHPLower
	WhenNoDamageInTime
)

var conditionNames = enumNames[ConditionType]{
	WhenHPPctLower:     "when_hp_pct_lower",
	WhenHPLower:        "when_hp_lower",
	WhenNoDamageInTime: "when_no_damage_in_time",
}

func (t ConditionType) String() string { return conditionNames.name(t) }

func (t ConditionType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *ConditionType) UnmarshalText(b []byte) (err error) {
	*t, err = conditionNames.parse("condition", b)
	return err
}

// ActionControlType is a bit set of action restrictions.
type ActionControlType uint8

const (
	MoveForbid ActionControlType = 1 << iota
	SkillForbid
	AttackForbid
	MoveControl
	AttackControl

	ControlNone ActionControlType = 0
)

var actionControlNames = []struct {
	flag ActionControlType
	name string
}{
	{MoveForbid, "move_forbid"},
	{SkillForbid, "skill_forbid"},
	{AttackForbid, "attack_forbid"},
	{MoveControl, "move_control"},
	{AttackControl, "attack_control"},
}

// Has reports whether every bit of flag is set.
func (c ActionControlType) Has(flag ActionControlType) bool {
	return flag != 0 && c&flag == flag
}

func (c ActionControlType) String() string {
	if c == ControlNone {
		return "none"
	}
	var parts []string
	for _, n := range actionControlNames {
		if c&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

func (c ActionControlType) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText accepts flag names joined with "|", e.g. "move_forbid|skill_forbid".
func (c *ActionControlType) UnmarshalText(b []byte) error {
	var out ActionControlType
	for _, part := range strings.Split(string(b), "|") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" || part == "none" {
			continue
		}
		found := false
		for _, n := range actionControlNames {
			if n.name == part {
				out |= n.flag
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown action control %q", part)
		}
	}
	*c = out
	return nil
}

// StatusType classifies statuses. StatusAny is only meaningful as a filter.
type StatusType uint8

const (
	StatusAny StatusType = iota
	StatusBuff
	StatusDebuff
	StatusOther
)

var statusTypeNames = enumNames[StatusType]{
	StatusAny:    "any",
	StatusBuff:   "buff",
	StatusDebuff: "debuff",
	StatusOther:  "other",
}

func (t StatusType) String() string { return statusTypeNames.name(t) }

func (t StatusType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *StatusType) UnmarshalText(b []byte) (err error) {
	*t, err = statusTypeNames.parse("status type", b)
	return err
}

// ModifyType selects how an attribute modifier combines with the base value.
type ModifyType uint8

const (
	ModifyAdd ModifyType = iota
	ModifyPercentAdd
)

var modifyTypeNames = enumNames[ModifyType]{
	ModifyAdd:        "add",
	ModifyPercentAdd: "percent_add",
}

func (t ModifyType) String() string { return modifyTypeNames.name(t) }

func (t ModifyType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *ModifyType) UnmarshalText(b []byte) (err error) {
	*t, err = modifyTypeNames.parse("modify type", b)
	return err
}

// DamageType tags damage for observers.
type DamageType uint8

const (
	DamagePhysic DamageType = iota
	DamageMagic
	DamageReal
)

var damageTypeNames = enumNames[DamageType]{
	DamagePhysic: "physic",
	DamageMagic:  "magic",
	DamageReal:   "real",
}

func (t DamageType) String() string { return damageTypeNames.name(t) }

func (t DamageType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *DamageType) UnmarshalText(b []byte) (err error) {
	*t, err = damageTypeNames.parse("damage type", b)
	return err
}

// ClipType is the kind of a timed execution clip.
type ClipType uint8

const (
	ClipCollision ClipType = iota + 1
	ClipAnimation
	ClipAudio
	ClipParticle
	ClipActionEvent
)

var clipTypeNames = enumNames[ClipType]{
	ClipCollision:   "collision",
	ClipAnimation:   "animation",
	ClipAudio:       "audio",
	ClipParticle:    "particle",
	ClipActionEvent: "action_event",
}

func (t ClipType) String() string { return clipTypeNames.name(t) }

func (t ClipType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *ClipType) UnmarshalText(b []byte) (err error) {
	*t, err = clipTypeNames.parse("clip type", b)
	return err
}

// CollisionMoveType selects an ability item's movement strategy.
type CollisionMoveType uint8

const (
	MoveFixedPosition CollisionMoveType = iota
	MoveFixedDirection
	MoveTargetFly
	MoveForwardFly
	MovePathFly
)

var moveTypeNames = enumNames[CollisionMoveType]{
	MoveFixedPosition:  "fixed_position",
	MoveFixedDirection: "fixed_direction",
	MoveTargetFly:      "target_fly",
	MoveForwardFly:     "forward_fly",
	MovePathFly:        "path_fly",
}

func (t CollisionMoveType) String() string { return moveTypeNames.name(t) }

func (t CollisionMoveType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *CollisionMoveType) UnmarshalText(b []byte) (err error) {
	*t, err = moveTypeNames.parse("move type", b)
	return err
}

// CollisionShape is the hit volume of an ability item.
type CollisionShape uint8

const (
	ShapeSphere CollisionShape = iota
	ShapeBox
)

var shapeNames = enumNames[CollisionShape]{
	ShapeSphere: "sphere",
	ShapeBox:    "box",
}

func (t CollisionShape) String() string { return shapeNames.name(t) }

func (t CollisionShape) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *CollisionShape) UnmarshalText(b []byte) (err error) {
	*t, err = shapeNames.parse("shape", b)
	return err
}

// ExecuteEventType is what a clip or item does when it fires.
type ExecuteEventType uint8

const (
	EventAssignEffect ExecuteEventType = iota
	EventTriggerNewExecution
)

var executeEventNames = enumNames[ExecuteEventType]{
	EventAssignEffect:        "assign_effect",
	EventTriggerNewExecution: "trigger_new_execution",
}

func (t ExecuteEventType) String() string { return executeEventNames.name(t) }

func (t ExecuteEventType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *ExecuteEventType) UnmarshalText(b []byte) (err error) {
	*t, err = executeEventNames.parse("execute event", b)
	return err
}

// DecoratorType names an effect decorator.
type DecoratorType uint8

const (
	DecoratorTargetCountReduce DecoratorType = iota + 1
	DecoratorTargetHPBelowBonus
	DecoratorAddStatus
)

var decoratorNames = enumNames[DecoratorType]{
	DecoratorTargetCountReduce:  "target_count_reduce",
	DecoratorTargetHPBelowBonus: "target_hp_below_bonus",
	DecoratorAddStatus:          "add_status",
}

func (t DecoratorType) String() string { return decoratorNames.name(t) }

func (t DecoratorType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *DecoratorType) UnmarshalText(b []byte) (err error) {
	*t, err = decoratorNames.parse("decorator", b)
	return err
}

// PathPointType mirrors path.PointType in content files.
type PathPointType uint8

const (
	PointCorner PathPointType = iota
	PointSmooth
	PointBezierCorner
)

var pathPointNames = enumNames[PathPointType]{
	PointCorner:       "corner",
	PointSmooth:       "smooth",
	PointBezierCorner: "bezier_corner",
}

func (t PathPointType) String() string { return pathPointNames.name(t) }

func (t PathPointType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *PathPointType) UnmarshalText(b []byte) (err error) {
	*t, err = pathPointNames.parse("path point type", b)
	return err
}

// SkillTargetType is the input a skill cast requires.
type SkillTargetType uint8

const (
	SkillTargetEnemy SkillTargetType = iota
	SkillTargetSelf
	SkillTargetPoint
)

var skillTargetNames = enumNames[SkillTargetType]{
	SkillTargetEnemy: "target",
	SkillTargetSelf:  "self",
	SkillTargetPoint: "point",
}

func (t SkillTargetType) String() string { return skillTargetNames.name(t) }

func (t SkillTargetType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *SkillTargetType) UnmarshalText(b []byte) (err error) {
	*t, err = skillTargetNames.parse("skill target", b)
	return err
}
