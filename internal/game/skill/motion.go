package skill

import (
	"github.com/yohamta/donburi/features/math"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/game/entity"
)

// Motion moves a combat actor. Movement is disabled while MoveForbid is active.
type Motion struct {
	entity.ModuleBase
	actor *CombatEntity
}

func (m *Motion) Kind() entity.ModuleKind { return ModuleMotion }

// Enabled reports whether the actor may move.
func (m *Motion) Enabled() bool {
	return m.actor.Alive() && !m.actor.ActionControl().Has(data.MoveForbid)
}

// MoveTo places the actor at pos, facing the movement direction.
// Returns false when movement is disabled.
func (m *Motion) MoveTo(pos math.Vec2) bool {
	if !m.Enabled() {
		return false
	}
	m.actor.FaceTowards(pos)
	m.actor.Position = pos
	m.actor.ctx.view.SyncTransform(m.actor.ID(), pos, m.actor.Facing)
	return true
}
