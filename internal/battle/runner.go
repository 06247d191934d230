package battle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/udisondev/abilitycore/internal/config"
	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/db"
	"github.com/udisondev/abilitycore/internal/event"
	"github.com/udisondev/abilitycore/internal/game/skill"
	"github.com/udisondev/abilitycore/internal/observer"
	"github.com/udisondev/abilitycore/internal/telemetry"
	"github.com/udisondev/abilitycore/internal/timer"
)

var (
	ErrUnknownActor  = errors.New("unknown actor")
	ErrNotLearned    = errors.New("skill not learned")
	ErrStatusRefused = errors.New("status not applied")
	ErrMoveForbidden = errors.New("movement forbidden")
)

// CombatLogStore persists a finished battle. *db.CombatLogRepository implements it.
type CombatLogStore interface {
	InsertBatch(ctx context.Context, battle db.BattleRow, entries []db.CombatLogEntry) error
}

// Runner plays scenarios. A Runner is reusable; each Run builds a fresh
// combat context.
type Runner struct {
	content *data.Content

	tick     time.Duration
	realtime bool
	seed     uint64
	pools    skill.PoolSizes

	tracer trace.Tracer
	hub    *observer.Hub
	store  CombatLogStore
	view   skill.View
	custom map[string]skill.CustomHandler
}

// Option configures a Runner.
type Option func(*Runner)

func WithTracer(t trace.Tracer) Option { return func(r *Runner) { r.tracer = t } }

// WithObserver streams every event of a run to hub.
func WithObserver(hub *observer.Hub) Option { return func(r *Runner) { r.hub = hub } }

// WithStore persists the combat log after each completed run.
func WithStore(s CombatLogStore) Option { return func(r *Runner) { r.store = s } }

func WithView(v skill.View) Option { return func(r *Runner) { r.view = v } }

// WithCustom registers a custom effect handler on every run.
func WithCustom(name string, h skill.CustomHandler) Option {
	return func(r *Runner) { r.custom[name] = h }
}

// NewRunner creates a Runner from engine config.
func NewRunner(cfg config.Engine, content *data.Content, opts ...Option) *Runner {
	r := &Runner{
		content:  content,
		tick:     cfg.TickInterval,
		realtime: cfg.Realtime,
		seed:     cfg.Seed,
		pools: skill.PoolSizes{
			EffectAssign: cfg.Pools.EffectAssign,
			Damage:       cfg.Pools.Damage,
			Cure:         cfg.Pools.Cure,
			AddStatus:    cfg.Pools.AddStatus,
		},
		tracer: telemetry.NoopTracer(),
		custom: make(map[string]skill.CustomHandler),
	}
	if r.tick <= 0 {
		r.tick = config.DefaultEngine().TickInterval
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Summary is the outcome of one run.
type Summary struct {
	BattleID uuid.UUID
	Scenario string
	Elapsed  time.Duration
	// Winner is the only team with living actors, or 0.
	Winner   int
	Actors   []ActorSummary
	Events   map[string]int
	Rejected int
}

// ActorSummary is the final state of one actor.
type ActorSummary struct {
	Name     string
	Team     int
	HP       float64
	MaxHP    float64
	Alive    bool
	Statuses []int32
}

// run is the state of one battle in progress.
type run struct {
	ctx      context.Context
	runner   *Runner
	combat   *skill.Context
	actors   map[string]*skill.CombatEntity
	rejected int
}

// Run plays sc to completion, or until ctx is cancelled. On cancellation
// the partial summary is returned with the context error and nothing is stored.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Summary, error) {
	id := uuid.New()
	startedAt := time.Now()

	ctx, span := r.tracer.Start(ctx, "battle.run", trace.WithAttributes(
		attribute.String("battle.id", id.String()),
		attribute.String("battle.scenario", sc.Name),
		attribute.Int("battle.actors", len(sc.Actors)),
		attribute.Int("battle.steps", len(sc.Steps)),
	))
	defer span.End()

	bus := event.NewBus()
	log := NewCombatLog()
	bus.SubscribeAll(log.Handle)
	bus.SubscribeAll(logEvent)
	if r.hub != nil {
		bus.SubscribeAll(r.hub.Sink(id.String()))
	}

	clock := timer.New()
	combat := skill.NewContext(skill.Options{
		Clock:     clock,
		Publisher: bus,
		Content:   r.content,
		View:      r.view,
		Pools:     r.pools,
		Seed:      r.seed,
	})
	for name, h := range r.custom {
		combat.RegisterCustom(name, h)
	}

	b := &run{
		ctx:    ctx,
		runner: r,
		combat: combat,
		actors: make(map[string]*skill.CombatEntity, len(sc.Actors)),
	}
	b.spawn(sc.Actors)
	for _, st := range sc.Steps {
		clock.ScheduleOnce(st.At, func() { b.step(st) })
	}

	slog.Info("battle started", "battle", id, "scenario", sc.Name, "actors", len(sc.Actors), "duration", sc.Duration)

	var pacer *time.Ticker
	if r.realtime {
		pacer = time.NewTicker(r.tick)
		defer pacer.Stop()
	}

	var (
		elapsed time.Duration
		runErr  error
	)
	for elapsed < sc.Duration {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("battle %s interrupted: %w", id, err)
			break
		}
		dt := min(r.tick, sc.Duration-elapsed)
		combat.Update(dt)
		elapsed += dt

		if sc.StopOnVictory && len(b.livingTeams()) <= 1 {
			break
		}
		if pacer != nil {
			select {
			case <-ctx.Done():
			case <-pacer.C:
			}
		}
	}

	sum := b.summary(id, sc.Name, elapsed, log)
	span.SetAttributes(
		attribute.Int64("battle.elapsed_ms", elapsed.Milliseconds()),
		attribute.Int("battle.winner", sum.Winner),
		attribute.Int("battle.events", log.Len()),
		attribute.Int("battle.rejected", sum.Rejected),
	)
	if runErr != nil {
		span.SetStatus(codes.Error, "interrupted")
		return sum, runErr
	}

	slog.Info("battle finished", "battle", id, "elapsed", elapsed, "winner", sum.Winner,
		"events", log.Len(), "rejected", sum.Rejected)

	if r.store != nil {
		row := db.BattleRow{ID: id, Scenario: sc.Name, Seed: r.seed, Duration: elapsed, StartedAt: startedAt}
		if err := r.store.InsertBatch(ctx, row, log.Entries()); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "storing combat log")
			return sum, fmt.Errorf("storing combat log: %w", err)
		}
	}

	return sum, nil
}

func (b *run) spawn(specs []ActorSpec) {
	for _, spec := range specs {
		a := b.combat.SpawnActor(skill.ActorSpec{
			Name:       spec.Name,
			Team:       spec.Team,
			Position:   spec.Position,
			Facing:     spec.Facing,
			Radius:     spec.Radius,
			Attributes: spec.Attributes,
			HP:         spec.HP,
		})
		b.actors[spec.Name] = a

		for _, id := range spec.Skills {
			cfg := b.runner.content.Skill(id)
			if cfg == nil {
				slog.Warn("unknown skill skipped", "actor", spec.Name, "skill", id)
				continue
			}
			s := a.AttachSkill(cfg)
			if lvl, ok := spec.Levels[id]; ok {
				s.SetLevel(lvl)
			}
			s.ActivateAbility()
		}
		for _, st := range spec.Statuses {
			if a.ApplyStatus(a, st.ID, st.Duration, st.Params) == nil {
				slog.Warn("initial status skipped", "actor", spec.Name, "status", st.ID)
			}
		}
	}
}

// step runs one scripted action. Rejections are logged and counted; they
// never stop the battle.
func (b *run) step(st Step) {
	_, span := b.runner.tracer.Start(b.ctx, "battle.step", trace.WithAttributes(
		attribute.String("step.action", st.Action.String()),
		attribute.String("step.actor", st.Actor),
		attribute.Int64("step.at_ms", st.At.Milliseconds()),
	))
	defer span.End()

	if err := b.apply(st); err != nil {
		b.rejected++
		span.RecordError(err)
		span.SetStatus(codes.Error, "rejected")
		slog.Warn("step rejected", "action", st.Action, "actor", st.Actor, "at", st.At, "error", err)
	}
}

func (b *run) apply(st Step) error {
	actor, ok := b.actors[st.Actor]
	if !ok {
		return fmt.Errorf("%q: %w", st.Actor, ErrUnknownActor)
	}
	var target *skill.CombatEntity
	if st.Target != "" {
		if target, ok = b.actors[st.Target]; !ok {
			return fmt.Errorf("target %q: %w", st.Target, ErrUnknownActor)
		}
	}

	switch st.Action {
	case StepCast:
		s, ok := actor.Skill(st.Skill)
		if !ok {
			return fmt.Errorf("%q skill %d: %w", st.Actor, st.Skill, ErrNotLearned)
		}
		var err error
		if st.Point != nil {
			_, err = actor.Spell().SpellWithPoint(s, *st.Point)
		} else {
			_, err = actor.Spell().SpellWithTarget(s, target)
		}
		return err

	case StepApplyStatus:
		if target == nil {
			target = actor
		}
		if target.ApplyStatus(actor, st.Status, st.Duration, st.Params) == nil {
			return fmt.Errorf("status %d on %q: %w", st.Status, target.Name, ErrStatusRefused)
		}
		return nil

	case StepCancel:
		actor.Spell().Cancel()
		return nil

	case StepMove:
		if st.Point == nil || !actor.Motion().MoveTo(*st.Point) {
			return fmt.Errorf("%q: %w", st.Actor, ErrMoveForbidden)
		}
		return nil
	}
	return fmt.Errorf("unsupported step action %s", st.Action)
}

func (b *run) livingTeams() []int {
	var teams []int
	for _, a := range b.combat.Actors() {
		if a.Alive() && !slices.Contains(teams, a.Team) {
			teams = append(teams, a.Team)
		}
	}
	return teams
}

func (b *run) summary(id uuid.UUID, name string, elapsed time.Duration, log *CombatLog) *Summary {
	sum := &Summary{
		BattleID: id,
		Scenario: name,
		Elapsed:  elapsed,
		Events:   log.Counts(),
		Rejected: b.rejected,
	}
	if teams := b.livingTeams(); len(teams) == 1 {
		sum.Winner = teams[0]
	}
	for _, a := range b.combat.Actors() {
		as := ActorSummary{
			Name:  a.Name,
			Team:  a.Team,
			HP:    a.HP(),
			MaxHP: a.MaxHP(),
			Alive: a.Alive(),
		}
		for _, st := range a.Statuses().All() {
			as.Statuses = append(as.Statuses, st.Config.ID)
		}
		sum.Actors = append(sum.Actors, as)
	}
	return sum
}

func logEvent(e event.Event) {
	slog.Debug("combat event",
		"type", e.Type,
		"at", e.At,
		"source", e.Source,
		"target", e.Target,
		"config", e.ConfigID,
		"amount", e.Amount,
		"critical", e.Critical)
}
