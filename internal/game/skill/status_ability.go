package skill

import (
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/event"
	"github.com/udisondev/abilitycore/internal/formula"
	"github.com/udisondev/abilitycore/internal/game/entity"
	"github.com/udisondev/abilitycore/internal/timer"
)

// StatusAbility is a timed or permanent modifier borne by a combat actor.
// It owns its effects as entity children and tracks child statuses by handle.
type StatusAbility struct {
	abilityBase
	Config *data.StatusConfig

	duration     time.Duration
	params       map[string]string
	creator      entity.ID
	parentStatus entity.ID
	children     []entity.ID
	effects      []entity.ID

	expiry    timer.Handle
	activated bool
	ended     bool
}

func newStatus(bearer *CombatEntity, cfg *data.StatusConfig, creator *CombatEntity, duration time.Duration, params map[string]string, parent entity.ID) *StatusAbility {
	st := &StatusAbility{
		abilityBase:  abilityBase{ctx: bearer.ctx, owner: bearer.ID()},
		Config:       cfg,
		duration:     duration,
		params:       maps.Clone(params),
		parentStatus: parent,
	}
	if creator != nil {
		st.creator = creator.ID()
	}
	return entity.Spawn(bearer.ctx.arena, bearer.ID(), st)
}

// Awake creates the effect children. They stay disabled until Activate.
func (s *StatusAbility) Awake() {
	for i := range s.Config.Effects {
		e := newEffect(s.ctx, s.ID(), &s.Config.Effects[i], i+1, true)
		s.effects = append(s.effects, e.ID())
	}
}

// Creator returns the handle of the actor that applied the status.
func (s *StatusAbility) Creator() entity.ID { return s.creator }

// Duration returns the configured lifetime; zero or less is permanent.
func (s *StatusAbility) Duration() time.Duration { return s.duration }

// IsChild reports whether the status was activated by a parent status.
func (s *StatusAbility) IsChild() bool { return s.parentStatus != entity.None }

// ParentStatus returns the parent status handle, or None.
func (s *StatusAbility) ParentStatus() entity.ID { return s.parentStatus }

// Children returns the live child statuses.
func (s *StatusAbility) Children() []*StatusAbility {
	out := make([]*StatusAbility, 0, len(s.children))
	for _, id := range s.children {
		if c, ok := entity.Lookup[*StatusAbility](s.ctx.arena, id); ok {
			out = append(out, c)
		}
	}
	return out
}

// Effects returns the live effects in config order.
func (s *StatusAbility) Effects() []*AbilityEffect {
	out := make([]*AbilityEffect, 0, len(s.effects))
	for _, id := range s.effects {
		if e, ok := entity.Lookup[*AbilityEffect](s.ctx.arena, id); ok {
			out = append(out, e)
		}
	}
	return out
}

// Params returns a copy of the parameter dictionary.
func (s *StatusAbility) Params() map[string]string { return maps.Clone(s.params) }

// Active reports whether the status has been activated and not ended.
func (s *StatusAbility) Active() bool { return s.activated && !s.ended }

// Activate publishes StatusActivated, activates child statuses, enables the
// effects and schedules expiry. Calling it again does nothing.
func (s *StatusAbility) Activate() {
	if s.activated || s.ended || s.Disposed() {
		return
	}
	s.activated = true
	s.enabled = true
	bearer := s.Owner()

	s.ctx.publish(event.Event{
		Type:     event.StatusActivated,
		Source:   uint32(s.creator),
		Target:   uint32(s.owner),
		ConfigID: s.Config.ID,
		Detail:   s.Config.Name,
	})
	slog.Debug("status activated", "bearer", s.owner, "status", s.Config.ID, "duration", s.duration)

	for _, child := range s.Config.Children {
		s.activateChild(bearer, child)
	}

	for _, e := range s.Effects() {
		e.Activate(s.params)
	}

	if s.duration > 0 && !s.ended {
		s.expiry = s.ctx.clock.ScheduleOnce(s.duration, s.expire)
	}
}

func (s *StatusAbility) activateChild(bearer *CombatEntity, child data.ChildStatusConfig) {
	if bearer == nil || !bearer.Alive() {
		return
	}
	cfg := s.ctx.content.Status(child.StatusID)
	if cfg == nil {
		slog.Warn("unknown child status skipped", "status", s.Config.ID, "child", child.StatusID)
		return
	}
	if s.hasAncestor(child.StatusID) {
		slog.Warn("cyclic child status skipped", "status", s.Config.ID, "child", child.StatusID)
		return
	}

	params := maps.Clone(s.params)
	if params == nil {
		params = make(map[string]string, len(child.Params))
	}
	for k, raw := range child.Params {
		v, err := s.ctx.formula.Resolve(formula.Substitute(raw, s.params), combatEnv(bearer, bearer, 1))
		if err != nil {
			slog.Warn("child status param skipped", "status", s.Config.ID, "param", k, "error", err)
			continue
		}
		params[k] = strconv.FormatFloat(v, 'f', -1, 64)
	}

	var creator *CombatEntity
	if c, ok := s.ctx.Actor(s.creator); ok {
		creator = c
	}
	// Child duration is its own; it never outlives the parent since End ends children.
	st, refreshed := bearer.statuses.apply(cfg, creator, ms(cfg.DurationMs), params, s.ID())
	if refreshed {
		return
	}
	s.children = append(s.children, st.ID())
	st.Activate()
}

// hasAncestor reports whether configID is this status or one of its parents.
func (s *StatusAbility) hasAncestor(configID int32) bool {
	for cur := s; cur != nil; {
		if cur.Config.ID == configID {
			return true
		}
		parent, ok := entity.Lookup[*StatusAbility](s.ctx.arena, cur.parentStatus)
		if !ok {
			return false
		}
		cur = parent
	}
	return false
}

// Refresh restarts the expiry timer with duration. Parameters and effects are kept.
func (s *StatusAbility) Refresh(duration time.Duration) {
	if s.ended {
		return
	}
	if duration > 0 {
		s.duration = duration
	}
	if s.expiry != 0 {
		s.ctx.clock.Cancel(s.expiry)
		s.expiry = 0
	}
	if s.activated && s.duration > 0 {
		s.expiry = s.ctx.clock.ScheduleOnce(s.duration, s.expire)
	}
}

func (s *StatusAbility) expire() {
	s.expiry = 0
	if s.Disposed() {
		return
	}
	s.End()
}

// End ends child statuses, disables the effects, leaves the bearer,
// publishes StatusEnded and disposes the status. Calling it again does nothing.
func (s *StatusAbility) End() {
	if s.ended || s.Disposed() {
		return
	}
	s.ended = true

	for _, child := range slices.Backward(s.Children()) {
		child.End()
	}
	s.children = nil

	if s.expiry != 0 {
		s.ctx.clock.Cancel(s.expiry)
		s.expiry = 0
	}
	for _, e := range s.Effects() {
		e.Disable()
	}
	s.enabled = false

	if bearer, ok := s.ctx.Actor(s.owner); ok {
		bearer.statuses.remove(s.ID())
	}
	if parent, ok := entity.Lookup[*StatusAbility](s.ctx.arena, s.parentStatus); ok {
		parent.children = slices.DeleteFunc(parent.children, func(id entity.ID) bool { return id == s.ID() })
	}

	s.ctx.publish(event.Event{
		Type:     event.StatusEnded,
		Source:   uint32(s.creator),
		Target:   uint32(s.owner),
		ConfigID: s.Config.ID,
		Detail:   s.Config.Name,
	})
	slog.Debug("status ended", "bearer", s.owner, "status", s.Config.ID)

	s.ctx.arena.Dispose(s.ID())
}
