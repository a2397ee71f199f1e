package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_Valid(t *testing.T) {
	data := []byte(`
name: parsed
description: All the fields
self: nick
start: "2025-01-02T03:04:05Z"
step: 30s
collation: binary
client:
  self_message: true
  server_time: true
setup:
  - { who: bob, where: "#go", message: hi, type: ACTION }
flow:
  - event: mod_command
    module: clientaway
    text: list
    expect:
      error: ""
      module: ["Host\tNetwork\tAway"]
assertions:
  - type: output_count
    channel: module
    count: 1
`)

	s, err := ParseScenario(data)
	require.NoError(t, err)
	assert.Equal(t, "parsed", s.Name)
	assert.True(t, s.Client.SelfMessage)
	assert.True(t, s.Client.ServerTime)
	require.Len(t, s.Setup, 1)
	assert.Equal(t, "ACTION", s.Setup[0].Type)
	require.Len(t, s.Flow, 1)
	assert.Equal(t, []string{"Host\tNetwork\tAway"}, s.Flow[0].Expect.Module)
	assert.Nil(t, s.Flow[0].Expect.User)

	self, start, step, col, err := s.settings()
	require.NoError(t, err)
	assert.Equal(t, "nick", self)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), start.UTC())
	assert.Equal(t, 30*time.Second, step)
	assert.Equal(t, "binary", col.String())
}

func TestParseScenario_Defaults(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: d
description: defaults
flow:
  - event: irc_connected
`))
	require.NoError(t, err)

	self, start, step, col, err := s.settings()
	require.NoError(t, err)
	assert.Equal(t, DefaultSelf, self)
	assert.Equal(t, DefaultStart, start)
	assert.Equal(t, DefaultStep, step)
	assert.Equal(t, "folded", col.String())
}

func TestParseScenario_EmptyListMeansNoOutput(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: e
description: empty expectation
flow:
  - event: irc_connected
    expect:
      irc: []
`))
	require.NoError(t, err)
	assert.NotNil(t, s.Flow[0].Expect.IRC)
	assert.Empty(t, s.Flow[0].Expect.IRC)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: y\nflows: []\n",
			wantErr: "field flows not found",
		},
		{
			name:    "missing name",
			yaml:    "description: y\nflow: [{event: irc_connected}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\nflow: [{event: irc_connected}]\n",
			wantErr: "description is required",
		},
		{
			name:    "empty flow",
			yaml:    "name: x\ndescription: y\nflow: []\n",
			wantErr: "flow list is required",
		},
		{
			name:    "unknown event",
			yaml:    "name: x\ndescription: y\nflow: [{event: chan_shout}]\n",
			wantErr: `flow[0]: unknown event type "chan_shout"`,
		},
		{
			name:    "bad step",
			yaml:    "name: x\ndescription: y\nstep: soon\nflow: [{event: irc_connected}]\n",
			wantErr: "step:",
		},
		{
			name:    "bad collation",
			yaml:    "name: x\ndescription: y\ncollation: nocase\nflow: [{event: irc_connected}]\n",
			wantErr: "unknown collation",
		},
		{
			name:    "setup without where",
			yaml:    "name: x\ndescription: y\nsetup: [{message: hi}]\nflow: [{event: irc_connected}]\n",
			wantErr: "setup[0]: where is required",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: y\nflow: [{event: irc_connected}]\nassertions: [{type: trace_contains}]\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "output_contains without line",
			yaml:    "name: x\ndescription: y\nflow: [{event: irc_connected}]\nassertions: [{type: output_contains, channel: irc}]\n",
			wantErr: "channel and line are required",
		},
		{
			name:    "final_state without expect",
			yaml:    "name: x\ndescription: y\nflow: [{event: irc_connected}]\nassertions: [{type: final_state}]\n",
			wantErr: "expect is required for final_state",
		},
		{
			name:    "unknown table",
			yaml:    "name: x\ndescription: y\nflow: [{event: irc_connected}]\nassertions: [{type: row_count, table: sqlite_master}]\n",
			wantErr: `unknown table "sqlite_master"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: f\ndescription: from file\nflow: [{event: irc_connected}]\n"), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "f", s.Name)
}
