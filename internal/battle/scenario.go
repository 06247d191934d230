// Package battle runs scripted combat scenarios against loaded content.
package battle

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/yohamta/donburi/features/math"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/abilitycore/internal/data"
)

// StepAction is what a scripted step does.
type StepAction uint8

const (
	StepCast StepAction = iota + 1
	StepApplyStatus
	StepCancel
	StepMove
)

var stepActionNames = map[StepAction]string{
	StepCast:        "cast",
	StepApplyStatus: "apply_status",
	StepCancel:      "cancel",
	StepMove:        "move",
}

func (a StepAction) String() string {
	if s, ok := stepActionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("step(%d)", uint8(a))
}

func (a StepAction) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *StepAction) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for k, v := range stepActionNames {
		if v == s {
			*a = k
			return nil
		}
	}
	return fmt.Errorf("unknown step action %q", b)
}

// Scenario is a scripted battle.
type Scenario struct {
	Name     string        `yaml:"name"`
	Duration time.Duration `yaml:"duration"`
	// StopOnVictory ends the run as soon as at most one team has living actors.
	StopOnVictory bool        `yaml:"stop_on_victory"`
	Actors        []ActorSpec `yaml:"actors"`
	Steps         []Step      `yaml:"steps"`
}

// ActorSpec is one combatant of a scenario.
type ActorSpec struct {
	Name       string             `yaml:"name"`
	Team       int                `yaml:"team"`
	Position   math.Vec2          `yaml:"position"`
	Facing     float64            `yaml:"facing"`
	Radius     float64            `yaml:"radius"`
	HP         float64            `yaml:"hp"`
	Attributes map[string]float64 `yaml:"attributes"`
	Skills     []int32            `yaml:"skills"`
	// Levels maps a learned skill id to its level; unlisted skills stay at 1.
	Levels     map[int32]int      `yaml:"levels"`
	Statuses   []StatusSpec       `yaml:"statuses"`
}

// StatusSpec is a status applied to an actor at spawn, created by the actor itself.
type StatusSpec struct {
	ID       int32             `yaml:"id"`
	Duration time.Duration     `yaml:"duration"`
	Params   map[string]string `yaml:"params"`
}

// Step is one scripted action at a point in simulated time.
type Step struct {
	At     time.Duration `yaml:"at"`
	Actor  string        `yaml:"actor"`
	Action StepAction    `yaml:"action"`

	Skill  int32      `yaml:"skill"`
	Target string     `yaml:"target"`
	Point  *math.Vec2 `yaml:"point"`

	Status   int32             `yaml:"status"`
	Duration time.Duration     `yaml:"duration"`
	Params   map[string]string `yaml:"params"`
}

// ParseScenario decodes a YAML scenario and sorts its steps by time.
// Steps sharing a time keep file order.
func ParseScenario(b []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	slices.SortStableFunc(sc.Steps, func(a, b Step) int {
		return cmp.Compare(a.At, b.At)
	})
	return &sc, nil
}

// LoadScenario reads a YAML scenario from path.
func LoadScenario(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %q: %w", path, err)
	}
	return ParseScenario(b)
}

// Validate checks the scenario against content and returns every problem found.
func (s *Scenario) Validate(content *data.Content) error {
	var errs []error
	if s.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %s", s.Duration))
	}

	actors := make(map[string]*ActorSpec, len(s.Actors))
	for i := range s.Actors {
		a := &s.Actors[i]
		if a.Name == "" {
			errs = append(errs, fmt.Errorf("actor %d: empty name", i))
			continue
		}
		if _, dup := actors[a.Name]; dup {
			errs = append(errs, fmt.Errorf("actor %q: duplicate name", a.Name))
		}
		actors[a.Name] = a
		for _, id := range a.Skills {
			if content.Skill(id) == nil {
				errs = append(errs, fmt.Errorf("actor %q: unknown skill %d", a.Name, id))
			}
		}
		for id, lvl := range a.Levels {
			if !slices.Contains(a.Skills, id) {
				errs = append(errs, fmt.Errorf("actor %q: level for unlearned skill %d", a.Name, id))
			}
			if lvl < 1 {
				errs = append(errs, fmt.Errorf("actor %q: skill %d level %d below 1", a.Name, id, lvl))
			}
		}
		for _, st := range a.Statuses {
			if content.Status(st.ID) == nil {
				errs = append(errs, fmt.Errorf("actor %q: unknown status %d", a.Name, st.ID))
			}
		}
	}

	for i, st := range s.Steps {
		where := fmt.Sprintf("step %d (%s at %s)", i, st.Action, st.At)
		actor, ok := actors[st.Actor]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: unknown actor %q", where, st.Actor))
		}
		if st.Target != "" {
			if _, ok := actors[st.Target]; !ok {
				errs = append(errs, fmt.Errorf("%s: unknown target %q", where, st.Target))
			}
		}
		if st.At < 0 || (s.Duration > 0 && st.At > s.Duration) {
			errs = append(errs, fmt.Errorf("%s: outside the run", where))
		}

		switch st.Action {
		case StepCast:
			if actor != nil && !slices.Contains(actor.Skills, st.Skill) {
				errs = append(errs, fmt.Errorf("%s: actor %q has not learned skill %d", where, st.Actor, st.Skill))
			}
		case StepApplyStatus:
			if content.Status(st.Status) == nil {
				errs = append(errs, fmt.Errorf("%s: unknown status %d", where, st.Status))
			}
		case StepMove:
			if st.Point == nil {
				errs = append(errs, fmt.Errorf("%s: move needs a point", where))
			}
		case StepCancel:
		default:
			errs = append(errs, fmt.Errorf("%s: missing action", where))
		}
	}

	return errors.Join(errs...)
}
