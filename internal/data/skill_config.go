package data

// SkillConfig describes a castable skill.
type SkillConfig struct {
	ID         int32           `json:"id" yaml:"id"`
	Name       string          `json:"name" yaml:"name"`
	Target     SkillTargetType `json:"target" yaml:"target"`
	CooldownMs int64           `json:"cooldown_ms,omitempty" yaml:"cooldown_ms"`
	// Passive skills enable their effects' own triggers when activated.
	Passive bool `json:"passive,omitempty" yaml:"passive"`
	// Execution is the id of the execution started on cast.
	Execution string         `json:"execution,omitempty" yaml:"execution"`
	Effects   []EffectConfig `json:"effects" yaml:"effects"`
}

// ExecutionConfig is the timeline of one cast.
type ExecutionConfig struct {
	ID         string       `json:"id" yaml:"id"`
	DurationMs int64        `json:"duration_ms" yaml:"duration_ms"`
	Clips      []ClipConfig `json:"clips" yaml:"clips"`
}

// ClipConfig is a timed event within an execution.
type ClipConfig struct {
	Type    ClipType `json:"type" yaml:"type"`
	StartMs int64    `json:"start_ms" yaml:"start_ms"`
	EndMs   int64    `json:"end_ms,omitempty" yaml:"end_ms"`
	// Name is the animation, audio or particle asset for view clips.
	Name      string             `json:"name,omitempty" yaml:"name"`
	Collision *CollisionConfig   `json:"collision,omitempty" yaml:"collision"`
	Action    *ActionEventConfig `json:"action,omitempty" yaml:"action"`
}

// DurationMs returns the clip length, zero for instantaneous clips.
func (c ClipConfig) DurationMs() int64 {
	return max(c.EndMs-c.StartMs, 0)
}

// CollisionConfig describes the ability item spawned by a collision clip.
type CollisionConfig struct {
	Shape  CollisionShape `json:"shape" yaml:"shape"`
	Radius float64        `json:"radius,omitempty" yaml:"radius"`
	Width  float64        `json:"width,omitempty" yaml:"width"`
	Height float64        `json:"height,omitempty" yaml:"height"`

	Move CollisionMoveType `json:"move" yaml:"move"`
	// Speed is in units per second for forward_fly and target_fly.
	Speed    float64 `json:"speed,omitempty" yaml:"speed"`
	Distance float64 `json:"distance,omitempty" yaml:"distance"`
	// Points is the local-space path for path_fly, x forward.
	Points []PathPointConfig `json:"points,omitempty" yaml:"points"`

	DestroyOnHit bool              `json:"destroy_on_hit,omitempty" yaml:"destroy_on_hit"`
	AffectAllies bool              `json:"affect_allies,omitempty" yaml:"affect_allies"`
	Action       ActionEventConfig `json:"action" yaml:"action"`
}

// ActionEventConfig is what a clip or item hit does.
type ActionEventConfig struct {
	Event ExecuteEventType `json:"event" yaml:"event"`
	// Effect is the 1-based index into the skill's effects; 0 assigns all.
	Effect int `json:"effect,omitempty" yaml:"effect"`
	// Execution is the chained execution for trigger_new_execution.
	Execution string `json:"execution,omitempty" yaml:"execution"`
}

// PathPointConfig is one Bezier control point. Tangents are relative offsets.
type PathPointConfig struct {
	X    float64       `json:"x" yaml:"x"`
	Y    float64       `json:"y" yaml:"y"`
	InX  float64       `json:"in_x,omitempty" yaml:"in_x"`
	InY  float64       `json:"in_y,omitempty" yaml:"in_y"`
	OutX float64       `json:"out_x,omitempty" yaml:"out_x"`
	OutY float64       `json:"out_y,omitempty" yaml:"out_y"`
	Type PathPointType `json:"type" yaml:"type"`
}
