package data

// StatusConfig describes a status that can be applied to a combat actor.
type StatusConfig struct {
	ID   int32      `json:"id" yaml:"id"`
	Name string     `json:"name" yaml:"name"`
	Type StatusType `json:"type" yaml:"type"`
	// DurationMs is the default duration; zero or less is permanent.
	DurationMs int64 `json:"duration_ms,omitempty" yaml:"duration_ms"`
	CanStack   bool  `json:"can_stack,omitempty" yaml:"can_stack"`
	MaxStack   int   `json:"max_stack,omitempty" yaml:"max_stack"`

	Children []ChildStatusConfig `json:"children,omitempty" yaml:"children"`
	Effects  []EffectConfig      `json:"effects" yaml:"effects"`
}

// StackLimit returns how many instances may coexist on one bearer.
func (c *StatusConfig) StackLimit() int {
	if !c.CanStack {
		return 1
	}
	if c.MaxStack <= 0 {
		return 1 << 30
	}
	return c.MaxStack
}

// ChildStatusConfig is a status activated together with its parent.
// Params are formulas over the parent's parameters.
type ChildStatusConfig struct {
	StatusID int32             `json:"status_id" yaml:"status_id"`
	Params   map[string]string `json:"params,omitempty" yaml:"params"`
}
