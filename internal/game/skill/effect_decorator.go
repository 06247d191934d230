package skill

import (
	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/game/entity"
)

// decorators alter an effect before its payload executes. They run in
// configured order; when two touch the value the last one wins.
type decorators struct {
	entity.ModuleBase
	effect *AbilityEffect
	list   []data.DecoratorConfig
}

func (d *decorators) Kind() entity.ModuleKind { return ModuleEffectDecorator }

func (d *decorators) apply(a *EffectAssignAction, v float64) float64 {
	for _, dc := range d.list {
		switch dc.Type {
		case data.DecoratorTargetCountReduce:
			// Value percent less per additional target, never below zero.
			if a.TargetCount > 1 {
				v *= max(0, 1-dc.Value/100*float64(a.TargetCount-1))
			}
		case data.DecoratorTargetHPBelowBonus:
			if a.Target.HPPercent() < dc.Threshold {
				v *= 1 + dc.Value/100
			}
		case data.DecoratorAddStatus:
			a.Target.ApplyStatus(a.Creator, dc.StatusID, ms(dc.DurationMs), nil)
		}
	}
	return v
}
