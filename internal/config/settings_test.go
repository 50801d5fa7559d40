package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/casualjim/vshl/internal/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BrokerLocal, s.Broker)
	assert.Equal(t, "vshl", s.NATS.Name)
	assert.Equal(t, 5*time.Second, s.RPCTimeout)
	assert.Equal(t, SubjectSettings{Events: "vshl.events", RPC: "afb", Verbs: "vshl", Backend: "vshl.backend"}, s.Subjects)
	assert.Equal(t, "info", s.Log.Level)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vshl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
broker: nats
nats:
  url: nats://broker:4222
rpc_timeout: 2s
agents_file: /etc/vshl/agents.json
subjects:
  rpc: rpc
log:
  level: debug
metrics:
  addr: ":9090"
`), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BrokerNATS, s.Broker)
	assert.Equal(t, "nats://broker:4222", s.NATS.URL)
	assert.Equal(t, 2*time.Second, s.RPCTimeout)
	assert.Equal(t, "/etc/vshl/agents.json", s.AgentsFile)
	assert.Equal(t, "rpc", s.Subjects.RPC)
	assert.Equal(t, "vshl", s.Subjects.Verbs)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, ":9090", s.Metrics.Addr)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VSHL_BROKER", "nats")
	t.Setenv("VSHL_RPC_TIMEOUT", "750ms")
	t.Setenv("VSHL_LOG_LEVEL", "warn")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BrokerNATS, s.Broker)
	assert.Equal(t, 750*time.Millisecond, s.RPCTimeout)
	assert.Equal(t, "warn", s.Log.Level)
}

func TestValidate(t *testing.T) {
	valid := Settings{
		Broker:     BrokerLocal,
		RPCTimeout: time.Second,
		Subjects:   SubjectSettings{Verbs: "vshl", Backend: "vshl.backend"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"unknown broker", func(s *Settings) { s.Broker = "kafka" }},
		{"zero timeout", func(s *Settings) { s.RPCTimeout = 0 }},
		{"negative timeout", func(s *Settings) { s.RPCTimeout = -time.Second }},
		{"no verb subject", func(s *Settings) { s.Subjects.Verbs = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), fault.ErrValidation)
		})
	}
}
