package skill

import (
	"log/slog"
	"slices"
	"time"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/game/entity"
)

// StatusComponent tracks the statuses borne by a combat actor, oldest first.
type StatusComponent struct {
	entity.ModuleBase
	actor *CombatEntity
	ids   []entity.ID
}

func newStatusComponent(actor *CombatEntity) *StatusComponent {
	return &StatusComponent{actor: actor}
}

func (c *StatusComponent) Kind() entity.ModuleKind { return ModuleStatus }

// All returns live statuses, oldest first.
func (c *StatusComponent) All() []*StatusAbility {
	out := make([]*StatusAbility, 0, len(c.ids))
	for _, id := range c.ids {
		if st, ok := entity.Lookup[*StatusAbility](c.actor.ctx.arena, id); ok {
			out = append(out, st)
		}
	}
	return out
}

// ByConfig returns live statuses with the given config id, oldest first.
func (c *StatusComponent) ByConfig(statusID int32) []*StatusAbility {
	var out []*StatusAbility
	for _, st := range c.All() {
		if st.Config.ID == statusID {
			out = append(out, st)
		}
	}
	return out
}

// ByType returns live statuses of type t; StatusAny matches every status.
func (c *StatusComponent) ByType(t data.StatusType) []*StatusAbility {
	var out []*StatusAbility
	for _, st := range c.All() {
		if t == data.StatusAny || st.Config.Type == t {
			out = append(out, st)
		}
	}
	return out
}

// Has reports whether a status with the given config id is borne.
func (c *StatusComponent) Has(statusID int32) bool {
	return len(c.ByConfig(statusID)) > 0
}

// Count returns the number of live statuses.
func (c *StatusComponent) Count() int { return len(c.All()) }

// apply attaches a new status from cfg, honoring stacking rules.
//
// Stacking rules (same config id):
//   - non-stacking status already borne → its duration is refreshed and it is returned
//   - stack limit reached → oldest instance is ended first
func (c *StatusComponent) apply(cfg *data.StatusConfig, creator *CombatEntity, duration time.Duration, params map[string]string, parent entity.ID) (*StatusAbility, bool) {
	if duration <= 0 {
		duration = ms(cfg.DurationMs)
	}

	existing := c.ByConfig(cfg.ID)
	if len(existing) >= cfg.StackLimit() {
		if !cfg.CanStack {
			st := existing[0]
			st.Refresh(duration)
			slog.Debug("status refreshed", "bearer", c.actor.ID(), "status", cfg.ID)
			return st, true
		}
		slog.Debug("status stack full, ending oldest", "bearer", c.actor.ID(), "status", cfg.ID, "limit", cfg.StackLimit())
		existing[0].End()
	}

	st := newStatus(c.actor, cfg, creator, duration, params, parent)
	c.ids = append(c.ids, st.ID())
	return st, false
}

func (c *StatusComponent) remove(id entity.ID) {
	if i := slices.Index(c.ids, id); i >= 0 {
		c.ids = slices.Delete(c.ids, i, i+1)
	}
}

func (c *StatusComponent) OnDestroy() {
	c.ids = nil
}
