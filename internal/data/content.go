package data

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ContentFile is the on-disk layout of a content bundle.
type ContentFile struct {
	Skills     []SkillConfig     `json:"skills" yaml:"skills"`
	Statuses   []StatusConfig    `json:"statuses" yaml:"statuses"`
	Executions []ExecutionConfig `json:"executions" yaml:"executions"`
}

// Content is the immutable registry of skills, statuses and executions.
// Строится один раз при загрузке; lookups O(1), safe for concurrent reads.
type Content struct {
	skills     map[int32]*SkillConfig
	statuses   map[int32]*StatusConfig
	executions map[string]*ExecutionConfig
}

// NewContent indexes a content file. Later entries with a duplicate id win.
func NewContent(f *ContentFile) *Content {
	c := &Content{
		skills:     make(map[int32]*SkillConfig, len(f.Skills)),
		statuses:   make(map[int32]*StatusConfig, len(f.Statuses)),
		executions: make(map[string]*ExecutionConfig, len(f.Executions)),
	}
	for i := range f.Skills {
		c.skills[f.Skills[i].ID] = &f.Skills[i]
	}
	for i := range f.Statuses {
		c.statuses[f.Statuses[i].ID] = &f.Statuses[i]
	}
	for i := range f.Executions {
		c.executions[f.Executions[i].ID] = &f.Executions[i]
	}
	return c
}

// ParseContent decodes a YAML content bundle.
func ParseContent(b []byte) (*Content, error) {
	var f ContentFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parsing content: %w", err)
	}
	return NewContent(&f), nil
}

// LoadContent reads and decodes a YAML content bundle from path.
func LoadContent(path string) (*Content, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading content file %q: %w", path, err)
	}
	c, err := ParseContent(b)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded content", "path", path,
		"skills", len(c.skills), "statuses", len(c.statuses), "executions", len(c.executions))
	return c, nil
}

// Skill returns the skill config by id, or nil.
func (c *Content) Skill(id int32) *SkillConfig { return c.skills[id] }

// Status returns the status config by id, or nil.
func (c *Content) Status(id int32) *StatusConfig { return c.statuses[id] }

// Execution returns the execution config by id, or nil.
func (c *Content) Execution(id string) *ExecutionConfig { return c.executions[id] }

// Validate reports every dangling reference and malformed effect.
// Content with problems is still usable: bad entries are skipped at runtime.
func (c *Content) Validate() error {
	var errs []error

	for id, s := range c.skills {
		if s.Execution != "" && c.executions[s.Execution] == nil {
			errs = append(errs, fmt.Errorf("skill %d: unknown execution %q", id, s.Execution))
		}
		errs = append(errs, c.validateEffects(fmt.Sprintf("skill %d", id), s.Effects)...)
	}

	for id, s := range c.statuses {
		for _, child := range s.Children {
			if c.statuses[child.StatusID] == nil {
				errs = append(errs, fmt.Errorf("status %d: unknown child status %d", id, child.StatusID))
			}
		}
		errs = append(errs, c.validateEffects(fmt.Sprintf("status %d", id), s.Effects)...)
	}
	errs = append(errs, c.childCycles()...)

	for id, e := range c.executions {
		for i, clip := range e.Clips {
			if clip.StartMs < 0 || clip.StartMs > e.DurationMs {
				errs = append(errs, fmt.Errorf("execution %q clip %d: start %dms outside duration %dms", id, i, clip.StartMs, e.DurationMs))
			}
			switch clip.Type {
			case ClipCollision:
				if clip.Collision == nil {
					errs = append(errs, fmt.Errorf("execution %q clip %d: collision clip without collision", id, i))
				} else if err := c.validateAction(clip.Collision.Action); err != nil {
					errs = append(errs, fmt.Errorf("execution %q clip %d: %w", id, i, err))
				}
			case ClipActionEvent:
				if clip.Action == nil {
					errs = append(errs, fmt.Errorf("execution %q clip %d: action clip without action", id, i))
				} else if err := c.validateAction(*clip.Action); err != nil {
					errs = append(errs, fmt.Errorf("execution %q clip %d: %w", id, i, err))
				}
			}
		}
	}

	return errors.Join(errs...)
}

// childCycles reports every status that reaches itself through its children.
func (c *Content) childCycles() []error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[int32]int, len(c.statuses))
	var (
		errs  []error
		stack []int32
		visit func(id int32)
	)
	visit = func(id int32) {
		state[id] = visiting
		stack = append(stack, id)
		for _, child := range c.statuses[id].Children {
			if c.statuses[child.StatusID] == nil {
				continue
			}
			switch state[child.StatusID] {
			case visiting:
				i := slices.Index(stack, child.StatusID)
				cycle := append(slices.Clone(stack[i:]), child.StatusID)
				errs = append(errs, fmt.Errorf("status %d: child cycle %v", child.StatusID, cycle))
			case unvisited:
				visit(child.StatusID)
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
	}

	ids := slices.Sorted(maps.Keys(c.statuses))
	for _, id := range ids {
		if state[id] == unvisited {
			visit(id)
		}
	}
	return errs
}

func (c *Content) validateEffects(owner string, effects []EffectConfig) []error {
	var errs []error
	for i := range effects {
		e := &effects[i]
		if err := e.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s effect %d: %w", owner, i+1, err))
			continue
		}
		var statusID int32
		switch p := e.Payload.(type) {
		case AddStatusEffect:
			statusID = p.StatusID
		case RemoveStatusEffect:
			statusID = p.StatusID
		}
		if statusID != 0 && c.statuses[statusID] == nil {
			errs = append(errs, fmt.Errorf("%s effect %d: unknown status %d", owner, i+1, statusID))
		}
		for _, d := range e.Decorators {
			if d.Type == DecoratorAddStatus && c.statuses[d.StatusID] == nil {
				errs = append(errs, fmt.Errorf("%s effect %d: decorator references unknown status %d", owner, i+1, d.StatusID))
			}
		}
	}
	return errs
}

func (c *Content) validateAction(a ActionEventConfig) error {
	if a.Event == EventTriggerNewExecution && c.executions[a.Execution] == nil {
		return fmt.Errorf("unknown chained execution %q", a.Execution)
	}
	return nil
}
