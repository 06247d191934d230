package battle

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/abilitycore/internal/data"
)

func TestParseScenario_SortsStepsStably(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: order
duration: 1s
steps:
  - {at: 500ms, actor: c, action: cancel}
  - {at: 0s, actor: a, action: cancel}
  - {at: 500ms, actor: d, action: cancel}
  - {at: 0s, actor: b, action: cancel}
`))
	require.NoError(t, err)

	var order []string
	for _, st := range sc.Steps {
		order = append(order, st.Actor)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)
	assert.Equal(t, time.Second, sc.Duration)
	assert.Equal(t, StepCancel, sc.Steps[0].Action)
}

func TestParseScenario_UnknownAction(t *testing.T) {
	_, err := ParseScenario([]byte(`
duration: 1s
steps:
  - {at: 0s, actor: a, action: dance}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step action")
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(duel), 0o644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "duel", sc.Name)
	require.Len(t, sc.Actors, 2)
	assert.InDelta(t, 3, sc.Actors[1].Position.X, 1e-9)
	assert.Equal(t, "5", sc.Actors[1].Statuses[0].Params["Heal"])

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScenario_Validate(t *testing.T) {
	content, err := data.ParseContent([]byte(testContent))
	require.NoError(t, err)

	tests := []struct {
		name     string
		scenario string
		want     []string
	}{
		{
			name:     "non-positive duration",
			scenario: `{name: x, duration: 0s}`,
			want:     []string{"duration must be positive"},
		},
		{
			name: "duplicate and unknown content",
			scenario: `
duration: 1s
actors:
  - {name: a, skills: [99], statuses: [{id: 98}]}
  - {name: a}
  - {team: 2}`,
			want: []string{"unknown skill 99", "unknown status 98", "duplicate name", "empty name"},
		},
		{
			name: "bad levels",
			scenario: `
duration: 1s
actors:
  - {name: a, skills: [1], levels: {1: 0, 2: 3}}`,
			want: []string{"skill 1 level 0 below 1", "level for unlearned skill 2"},
		},
		{
			name: "bad steps",
			scenario: `
duration: 1s
actors:
  - {name: a, skills: [1]}
steps:
  - {at: 0s, actor: ghost, action: cancel}
  - {at: 0s, actor: a, action: cast, skill: 2}
  - {at: 0s, actor: a, action: cast, skill: 1, target: nobody}
  - {at: 0s, actor: a, action: apply_status, status: 77}
  - {at: 0s, actor: a, action: move}
  - {at: 2s, actor: a, action: cancel}
  - {at: 0s, actor: a}`,
			want: []string{
				`unknown actor "ghost"`,
				"has not learned skill 2",
				`unknown target "nobody"`,
				"unknown status 77",
				"move needs a point",
				"outside the run",
				"missing action",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := ParseScenario([]byte(tt.scenario))
			require.NoError(t, err)

			err = sc.Validate(content)
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}
