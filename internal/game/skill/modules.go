package skill

import "github.com/udisondev/abilitycore/internal/game/entity"

// Module kinds. Disposal runs module hooks in this order.
const (
	ModuleAttributes entity.ModuleKind = iota + 1
	ModuleActionPoint
	ModuleCondition
	ModuleStatus
	ModuleSpell
	ModuleMotion
	ModuleLevel
	ModuleEffectTrigger
	ModuleEffectDecorator
	ModuleEffectPayload
	ModuleItemMove
	ModuleItemLifetime
)
