package skill

import (
	"slices"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/game/entity"
)

// ActionInfo describes the action that reached an action point.
type ActionInfo struct {
	Point data.ActionPointType
	// Creator is the actor that created the action.
	Creator entity.ID
	Target  entity.ID
	Amount  float64
}

// ActionPointHandler observes an action point.
type ActionPointHandler func(ActionInfo)

type actionPointSub struct {
	token   uint64
	handler ActionPointHandler
}

// ActionPoints dispatches named hooks on a combat actor's action lifecycle.
type ActionPoints struct {
	entity.ModuleBase
	subs map[data.ActionPointType][]actionPointSub
	next uint64
}

func newActionPoints() *ActionPoints {
	return &ActionPoints{subs: make(map[data.ActionPointType][]actionPointSub)}
}

func (p *ActionPoints) Kind() entity.ModuleKind { return ModuleActionPoint }

// Subscribe registers h and returns a token for Unsubscribe.
func (p *ActionPoints) Subscribe(point data.ActionPointType, h ActionPointHandler) uint64 {
	p.next++
	p.subs[point] = append(p.subs[point], actionPointSub{token: p.next, handler: h})
	return p.next
}

// Unsubscribe removes a handler. Unknown tokens are ignored.
func (p *ActionPoints) Unsubscribe(point data.ActionPointType, token uint64) {
	p.subs[point] = slices.DeleteFunc(p.subs[point], func(s actionPointSub) bool {
		return s.token == token
	})
}

// Count returns the number of handlers on point.
func (p *ActionPoints) Count(point data.ActionPointType) int {
	return len(p.subs[point])
}

// Trigger runs the handlers of info.Point in subscription order.
// Handlers subscribed during dispatch run from the next trigger on.
func (p *ActionPoints) Trigger(info ActionInfo) {
	subs := p.subs[info.Point]
	if len(subs) == 0 {
		return
	}
	for _, s := range slices.Clone(subs) {
		if !p.subscribed(info.Point, s.token) {
			continue
		}
		s.handler(info)
	}
}

func (p *ActionPoints) subscribed(point data.ActionPointType, token uint64) bool {
	return slices.ContainsFunc(p.subs[point], func(s actionPointSub) bool { return s.token == token })
}

func (p *ActionPoints) OnDestroy() {
	clear(p.subs)
}
