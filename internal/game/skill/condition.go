package skill

import (
	"slices"
	"time"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/game/entity"
)

type conditionWatch struct {
	token uint64
	typ   data.ConditionType
	param float64
	last  bool
	fire  func()
}

// Conditions evaluates state predicates of a combat actor and notifies
// watchers when a predicate becomes true.
type Conditions struct {
	entity.ModuleBase
	actor   *CombatEntity
	watches []*conditionWatch
	next    uint64
}

func newConditions(actor *CombatEntity) *Conditions {
	return &Conditions{actor: actor}
}

func (c *Conditions) Kind() entity.ModuleKind { return ModuleCondition }

// Check evaluates a predicate now.
//
//	when_hp_pct_lower:      HP percent < param
//	when_hp_lower:          HP < param
//	when_no_damage_in_time: no damage received for at least param ms
func (c *Conditions) Check(typ data.ConditionType, param float64) bool {
	a := c.actor
	switch typ {
	case data.WhenHPPctLower:
		return a.HPPercent() < param
	case data.WhenHPLower:
		return a.HP() < param
	case data.WhenNoDamageInTime:
		return a.ctx.Now()-a.lastDamageAt >= time.Duration(param*float64(time.Millisecond))
	}
	return false
}

// Watch calls fire every time the predicate transitions from false to true.
// The predicate counts as false at subscription, so a predicate that already
// holds fires immediately.
func (c *Conditions) Watch(typ data.ConditionType, param float64, fire func()) uint64 {
	c.next++
	w := &conditionWatch{token: c.next, typ: typ, param: param, fire: fire}
	c.watches = append(c.watches, w)
	c.evaluate(w)
	return w.token
}

// Unwatch removes a watcher. Unknown tokens are ignored.
func (c *Conditions) Unwatch(token uint64) {
	c.watches = slices.DeleteFunc(c.watches, func(w *conditionWatch) bool { return w.token == token })
}

// Watching returns the number of registered watchers.
func (c *Conditions) Watching() int { return len(c.watches) }

// Evaluate re-checks every watcher. Called after HP changes and once per tick.
func (c *Conditions) Evaluate() {
	for _, w := range slices.Clone(c.watches) {
		if slices.Contains(c.watches, w) {
			c.evaluate(w)
		}
	}
}

func (c *Conditions) evaluate(w *conditionWatch) {
	now := c.Check(w.typ, w.param)
	rising := now && !w.last
	w.last = now
	if rising {
		w.fire()
	}
}

func (c *Conditions) OnDestroy() {
	c.watches = nil
}
