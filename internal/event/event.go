package event

import (
	"fmt"
	"time"
)

// Type identifies a combat notification.
type Type uint8

const (
	DamageReceived Type = iota + 1
	CureReceived
	EffectAssigned
	StatusActivated
	StatusEnded
	ExecutionStarted
	ExecutionEnded
	ItemSpawned
	ItemDestroyed
	ActorDied
)

var typeNames = map[Type]string{
	DamageReceived:   "damage_received",
	CureReceived:     "cure_received",
	EffectAssigned:   "effect_assigned",
	StatusActivated:  "status_activated",
	StatusEnded:      "status_ended",
	ExecutionStarted: "execution_started",
	ExecutionEnded:   "execution_ended",
	ItemSpawned:      "item_spawned",
	ItemDestroyed:    "item_destroyed",
	ActorDied:        "actor_died",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", uint8(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	for k, v := range typeNames {
		if v == string(b) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", b)
}

// Event is a fire-and-forget combat notification.
// Source and Target are entity handles; ConfigID is the skill or status id.
type Event struct {
	Type     Type          `json:"type"`
	At       time.Duration `json:"at"`
	Source   uint32        `json:"source,omitempty"`
	Target   uint32        `json:"target,omitempty"`
	ConfigID int32         `json:"config_id,omitempty"`
	Amount   float64       `json:"amount,omitempty"`
	Critical bool          `json:"critical,omitempty"`
	Detail   string        `json:"detail,omitempty"`
}
