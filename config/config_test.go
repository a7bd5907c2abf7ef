package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `input:
  dir: "school/in"
output:
  dir: "school/out"
solver:
  type: "branch_and_bound"
  time_limit_seconds: 15
  conf:
    node_limit: 5000
allocation:
  preference_weight: 0.5
runlog:
  backend: "sqlite"
metrics:
  sinks:
    - type: "nop"
mqtt:
  broker: "tcp://localhost:1883"
  topic: "school/runs"
  qos: 1
sentry:
  dsn: ""
log:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"input.dir", cfg.Input.Dir, "school/in"},
		{"output.dir", cfg.Output.Dir, "school/out"},
		{"solver.type", cfg.Solver.Type, "branch_and_bound"},
		{"solver.time_limit_seconds", cfg.Solver.TimeLimitSeconds, 15.0},
		{"allocation.preference_weight", cfg.Allocation.PreferenceWeight, 0.5},
		{"runlog.backend", cfg.RunLog.Backend, "sqlite"},
		{"runlog.path", cfg.RunLog.Path, "runs.db"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"mqtt.topic", cfg.MQTT.Topic, "school/runs"},
		{"mqtt.qos", cfg.MQTT.QoS, byte(1)},
		{"log.level", cfg.Log.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}

	eng := cfg.Engine()
	assert.Equal(t, 15*time.Second, eng.TimeLimit)
	assert.Equal(t, "branch_and_bound", eng.Solver.Type)
	assert.EqualValues(t, 5000, eng.Solver.Conf["node_limit"])
}

func TestLoad_JSONAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"input":{"dir":"in"},"solver":{"time_limit_seconds":5}}`), 0o644))
	t.Setenv("LESSONALLOC_SOLVER__TIME_LIMIT_SECONDS", "30")
	t.Setenv("LESSONALLOC_OUTPUT__DIR", "out")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "in", cfg.Input.Dir)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, 30.0, cfg.Solver.TimeLimitSeconds)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.Input.Dir)
	assert.Equal(t, "data", cfg.Output.Dir)
	assert.Equal(t, "branch_and_bound", cfg.Solver.Type)
	assert.Equal(t, 60.0, cfg.Solver.TimeLimitSeconds)
	assert.Equal(t, "jsonl", cfg.RunLog.Backend)
	assert.Equal(t, "runs.jsonl", cfg.RunLog.Path)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"weight.yaml":  "allocation:\n  preference_weight: 2\n",
		"backend.yaml": "runlog:\n  backend: postgres\n",
		"limit.yaml":   "solver:\n  time_limit_seconds: -1\n",
		"qos.yaml":     "mqtt:\n  broker: tcp://x:1883\n  qos: 5\n",
		"sink.yaml":    "metrics:\n  sinks:\n    - conf: {job: x}\n",
		"config.toml":  "",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
