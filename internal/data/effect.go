package data

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrUnknownEffectKind is returned when an effect entry names no known payload.
var ErrUnknownEffectKind = errors.New("unknown effect kind")

// EffectPayload is the kind-specific part of an effect. The set of
// implementations is closed: one per EffectKind.
type EffectPayload interface {
	Kind() EffectKind
	validate() error
}

// DamageEffect deals formula-resolved damage.
type DamageEffect struct {
	DamageType DamageType `json:"damage_type" yaml:"damage_type"`
	Value      string     `json:"value" yaml:"value"`
	CanCrit    bool       `json:"can_crit" yaml:"can_crit"`
}

func (DamageEffect) Kind() EffectKind { return EffectDamage }

func (e DamageEffect) validate() error {
	if e.Value == "" {
		return errors.New("damage value formula is empty")
	}
	return nil
}

// DamageBloodSuckEffect deals damage and heals the source by a share of the damage dealt.
type DamageBloodSuckEffect struct {
	DamageEffect `yaml:",inline"`
	SuckRatio    float64 `json:"suck_ratio" yaml:"suck_ratio"`
}

func (DamageBloodSuckEffect) Kind() EffectKind { return EffectDamageBloodSuck }

func (e DamageBloodSuckEffect) validate() error {
	if err := e.DamageEffect.validate(); err != nil {
		return err
	}
	if e.SuckRatio < 0 {
		return fmt.Errorf("negative suck ratio %v", e.SuckRatio)
	}
	return nil
}

// CureEffect restores formula-resolved health.
type CureEffect struct {
	Value string `json:"value" yaml:"value"`
}

func (CureEffect) Kind() EffectKind { return EffectCure }

func (e CureEffect) validate() error {
	if e.Value == "" {
		return errors.New("cure value formula is empty")
	}
	return nil
}

// AddStatusEffect applies a status to the target. Params are formulas
// resolved against the caster when the status is applied.
type AddStatusEffect struct {
	StatusID   int32             `json:"status_id" yaml:"status_id"`
	DurationMs int64             `json:"duration_ms" yaml:"duration_ms"`
	Params     map[string]string `json:"params,omitempty" yaml:"params"`
}

func (AddStatusEffect) Kind() EffectKind { return EffectAddStatus }

func (e AddStatusEffect) validate() error {
	if e.StatusID == 0 {
		return errors.New("add_status without status_id")
	}
	return nil
}

// RemoveStatusEffect ends every instance of a status on the target.
type RemoveStatusEffect struct {
	StatusID int32 `json:"status_id" yaml:"status_id"`
}

func (RemoveStatusEffect) Kind() EffectKind { return EffectRemoveStatus }

func (e RemoveStatusEffect) validate() error {
	if e.StatusID == 0 {
		return errors.New("remove_status without status_id")
	}
	return nil
}

// ClearAllStatusEffect ends every status on the target, optionally of one type.
type ClearAllStatusEffect struct {
	StatusType StatusType `json:"status_type" yaml:"status_type"`
}

func (ClearAllStatusEffect) Kind() EffectKind { return EffectClearAllStatus }

func (ClearAllStatusEffect) validate() error { return nil }

// AttributeModifyEffect installs a modifier on a named attribute while enabled.
type AttributeModifyEffect struct {
	Attribute string     `json:"attribute" yaml:"attribute"`
	Value     string     `json:"value" yaml:"value"`
	Modify    ModifyType `json:"modify" yaml:"modify"`
}

func (AttributeModifyEffect) Kind() EffectKind { return EffectAttributeModify }

func (e AttributeModifyEffect) validate() error {
	if e.Attribute == "" || e.Value == "" {
		return errors.New("attribute_modify needs attribute and value")
	}
	return nil
}

// ActionControlEffect restricts the bearer's actions while enabled.
type ActionControlEffect struct {
	Control ActionControlType `json:"control" yaml:"control"`
}

func (ActionControlEffect) Kind() EffectKind { return EffectActionControl }

func (ActionControlEffect) validate() error { return nil }

// CustomEffect dispatches to a handler registered by name on the combat context.
type CustomEffect struct {
	Handler string            `json:"handler" yaml:"handler"`
	Params  map[string]string `json:"params,omitempty" yaml:"params"`
}

func (CustomEffect) Kind() EffectKind { return EffectCustom }

func (e CustomEffect) validate() error {
	if e.Handler == "" {
		return errors.New("custom effect without handler")
	}
	return nil
}

// payloadDecoders maps each kind to the decoder of its payload.
var payloadDecoders = [EffectKindCount]func(*yaml.Node) (EffectPayload, error){
	EffectAddStatus:       decodePayload[AddStatusEffect],
	EffectRemoveStatus:    decodePayload[RemoveStatusEffect],
	EffectClearAllStatus:  decodePayload[ClearAllStatusEffect],
	EffectCure:            decodePayload[CureEffect],
	EffectDamage:          decodePayload[DamageEffect],
	EffectDamageBloodSuck: decodePayload[DamageBloodSuckEffect],
	EffectAttributeModify: decodePayload[AttributeModifyEffect],
	EffectActionControl:   decodePayload[ActionControlEffect],
	EffectCustom:          decodePayload[CustomEffect],
}

func decodePayload[P EffectPayload](node *yaml.Node) (EffectPayload, error) {
	var p P
	if err := node.Decode(&p); err != nil {
		return nil, err
	}
	return p, nil
}

// PayloadPrototypes returns a zero value of every payload type, keyed by kind name.
func PayloadPrototypes() map[string]EffectPayload {
	return map[string]EffectPayload{
		EffectAddStatus.String():       AddStatusEffect{},
		EffectRemoveStatus.String():    RemoveStatusEffect{},
		EffectClearAllStatus.String():  ClearAllStatusEffect{},
		EffectCure.String():            CureEffect{},
		EffectDamage.String():          DamageEffect{},
		EffectDamageBloodSuck.String(): DamageBloodSuckEffect{},
		EffectAttributeModify.String(): AttributeModifyEffect{},
		EffectActionControl.String():   ActionControlEffect{},
		EffectCustom.String():          CustomEffect{},
	}
}

// TriggerConfig selects when an effect fires on its own.
type TriggerConfig struct {
	Type        TriggerType     `json:"type" yaml:"type"`
	ActionPoint ActionPointType `json:"action_point,omitempty" yaml:"action_point"`
	// Interval is a formula in milliseconds.
	Interval  string        `json:"interval,omitempty" yaml:"interval"`
	Condition ConditionType `json:"condition,omitempty" yaml:"condition"`
	// ConditionParam is a formula: HP percent, HP value or milliseconds without damage.
	ConditionParam string `json:"condition_param,omitempty" yaml:"condition_param"`
}

// DecoratorConfig alters an effect before its payload executes.
type DecoratorConfig struct {
	Type DecoratorType `json:"type" yaml:"type"`
	// Value is the percentage the decorator applies.
	Value float64 `json:"value" yaml:"value"`
	// Threshold is the target HP percent for target_hp_below_bonus.
	Threshold  float64 `json:"threshold,omitempty" yaml:"threshold"`
	StatusID   int32   `json:"status_id,omitempty" yaml:"status_id"`
	DurationMs int64   `json:"duration_ms,omitempty" yaml:"duration_ms"`
}

// EffectConfig is one configured effect. Kind-specific fields sit next to the
// common ones in content files and decode into Payload.
type EffectConfig struct {
	Kind       EffectKind        `json:"kind" yaml:"kind"`
	Target     EffectTarget      `json:"target" yaml:"target"`
	Trigger    TriggerConfig     `json:"trigger" yaml:"trigger"`
	Decorators []DecoratorConfig `json:"decorators,omitempty" yaml:"decorators"`
	Payload    EffectPayload     `json:"-" yaml:"-"`
}

type effectHead struct {
	Kind       EffectKind        `yaml:"kind"`
	Target     EffectTarget      `yaml:"target"`
	Trigger    TriggerConfig     `yaml:"trigger"`
	Decorators []DecoratorConfig `yaml:"decorators"`
}

// UnmarshalYAML decodes the common fields, then the payload selected by kind.
func (c *EffectConfig) UnmarshalYAML(node *yaml.Node) error {
	var head effectHead
	if err := node.Decode(&head); err != nil {
		return err
	}
	if head.Kind == 0 || int(head.Kind) >= EffectKindCount {
		return fmt.Errorf("line %d: %w %d", node.Line, ErrUnknownEffectKind, head.Kind)
	}
	payload, err := payloadDecoders[head.Kind](node)
	if err != nil {
		return fmt.Errorf("line %d: decode %s payload: %w", node.Line, head.Kind, err)
	}
	*c = EffectConfig{
		Kind:       head.Kind,
		Target:     head.Target,
		Trigger:    head.Trigger,
		Decorators: head.Decorators,
		Payload:    payload,
	}
	return nil
}

// Validate checks the payload and trigger for consistency.
func (c *EffectConfig) Validate() error {
	if c.Payload == nil {
		return fmt.Errorf("%w %d", ErrUnknownEffectKind, c.Kind)
	}
	if c.Payload.Kind() != c.Kind {
		return fmt.Errorf("payload kind %s does not match %s", c.Payload.Kind(), c.Kind)
	}
	if err := c.Payload.validate(); err != nil {
		return fmt.Errorf("%s: %w", c.Kind, err)
	}
	switch c.Trigger.Type {
	case TriggerActionPoint:
		if c.Trigger.ActionPoint == 0 {
			return errors.New("action_point trigger without action_point")
		}
	case TriggerInterval:
		if c.Trigger.Interval == "" {
			return errors.New("interval trigger without interval")
		}
	case TriggerCondition:
		if c.Trigger.Condition == 0 {
			return errors.New("condition trigger without condition")
		}
	}
	return nil
}
