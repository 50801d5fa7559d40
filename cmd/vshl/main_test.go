package main

import (
	"bytes"
	"log/slog"
	"testing"

	vshl "github.com/casualjim/vshl"
	"github.com/casualjim/vshl/internal/voiceagent"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := rootCmd()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "agents", "load", "listen", "default", "events", "publish"}, names)

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Empty(t, flag.DefValue)
}

func TestSetupLoadsSettings(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VSHL_LOG_LEVEL", "debug")
	t.Setenv("VSHL_BROKER", "nats")

	cfgFile = ""
	require.NoError(t, setup(nil, nil))
	t.Cleanup(func() { settings = nil })

	assert.Equal(t, "nats", settings.Broker)
	assert.True(t, slog.Default().Enabled(t.Context(), slog.LevelDebug))
}

func TestSetupRejectsInvalidSettings(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VSHL_BROKER", "kafka")

	cfgFile = ""
	assert.Error(t, setup(nil, nil))
}

func TestPrintAgents(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		printAgents(&buf, vshl.Enumeration{})
		assert.Equal(t, "no voice agents registered\n", buf.String())
	})

	t.Run("marks the default agent", func(t *testing.T) {
		var buf bytes.Buffer
		printAgents(&buf, vshl.Enumeration{
			Default: "VA-001",
			Agents: []voiceagent.Spec{
				{ID: "VA-001", Name: "Foundation", Vendor: "Terminus", API: "api-1", Wakewords: []string{"Hari Seldon", "Cleon I"}, ActiveWakeword: "Hari Seldon", Active: true},
				{ID: "VA-002", Name: "Trantor", Vendor: "Empire", API: "api-2", Wakewords: []string{"Gaal Dornick"}, ActiveWakeword: "Gaal Dornick"},
			},
		})
		assert.Equal(t, ""+
			"* VA-001 Foundation (Terminus, api-1) active\n"+
			"    wakeword: Hari Seldon [Hari Seldon, Cleon I]\n"+
			"  VA-002 Trantor (Empire, api-2) inactive\n"+
			"    wakeword: Gaal Dornick [Gaal Dornick]\n",
			buf.String())
	})
}
