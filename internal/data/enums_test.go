package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionControlText(t *testing.T) {
	tests := []struct {
		in   string
		want ActionControlType
	}{
		{"", ControlNone},
		{"none", ControlNone},
		{"move_forbid", MoveForbid},
		{"move_forbid|skill_forbid", MoveForbid | SkillForbid},
		{" Attack_Control | move_control ", AttackControl | MoveControl},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got ActionControlType
			require.NoError(t, got.UnmarshalText([]byte(tt.in)))
			assert.Equal(t, tt.want, got)
		})
	}

	var bad ActionControlType
	assert.Error(t, bad.UnmarshalText([]byte("move_forbid|fly")))

	text, err := (MoveForbid | AttackForbid).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "move_forbid|attack_forbid", string(text))
}

func TestActionControlHas(t *testing.T) {
	c := MoveForbid | SkillForbid
	assert.True(t, c.Has(MoveForbid))
	assert.True(t, c.Has(MoveForbid|SkillForbid))
	assert.False(t, c.Has(MoveForbid|AttackForbid))
	assert.False(t, c.Has(ControlNone))
}

func TestEnumText(t *testing.T) {
	var k EffectKind
	require.NoError(t, k.UnmarshalText([]byte("damage_blood_suck")))
	assert.Equal(t, EffectDamageBloodSuck, k)
	assert.Error(t, k.UnmarshalText([]byte("poison")))

	var ap ActionPointType
	require.NoError(t, ap.UnmarshalText([]byte("POST_RECEIVE_DAMAGE")))
	assert.Equal(t, PostReceiveDamage, ap)

	var st StatusType
	require.NoError(t, st.UnmarshalText([]byte("debuff")))
	assert.Equal(t, StatusDebuff, st)

	assert.Equal(t, "when_no_damage_in_time", WhenNoDamageInTime.String())
	assert.Equal(t, "42", EffectKind(42).String())
}

func TestTriggerable(t *testing.T) {
	assert.True(t, EffectDamage.Triggerable())
	assert.True(t, EffectAddStatus.Triggerable())
	assert.False(t, EffectAttributeModify.Triggerable())
	assert.False(t, EffectActionControl.Triggerable())
}
