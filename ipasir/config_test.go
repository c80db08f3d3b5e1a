package ipasir

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultEngine, cfg.Engine)
	assert.Equal(t, DefaultMaxVariable, cfg.MaxVariable)
	assert.NotNil(t, cfg.Logger)
	assert.Nil(t, cfg.Metrics)

	cfg = Config{Engine: "gini", MaxVariable: 100}.withDefaults()
	assert.Equal(t, "gini", cfg.Engine)
	assert.Equal(t, 100, cfg.MaxVariable)
}

func TestConfigFromEnv(t *testing.T) {
	base := Config{Engine: "base", Options: "verbose"}
	t.Setenv(EnvEngine, "")
	t.Setenv(EnvConfig, "")
	require.NoError(t, os.Unsetenv(EnvConfig))
	assert.Equal(t, base, ConfigFromEnv(base), "empty engine name is ignored")

	t.Setenv(EnvEngine, "gini")
	t.Setenv(EnvConfig, "poll=1ms")
	cfg := ConfigFromEnv(base)
	assert.Equal(t, "gini", cfg.Engine)
	assert.Equal(t, "poll=1ms", cfg.Options)

	t.Setenv(EnvConfig, "")
	assert.Equal(t, "", ConfigFromEnv(base).Options, "an empty config means engine defaults")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "incsat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: gini\noptions: poll=5ms\nmax-variable: 1000\nvariables: 10\n"), 0o600))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{Engine: "gini", Options: "poll=5ms", MaxVariable: 1000, Variables: 10}, cfg)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("engine: [gini\n"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

type testOptions struct {
	Restart string        `mapstructure:"restart"`
	Decay   float64       `mapstructure:"var-decay"`
	Verbose bool          `mapstructure:"verbose"`
	Poll    time.Duration `mapstructure:"poll"`
	Size    int           `mapstructure:"size"`
}

func TestDecodeOptions(t *testing.T) {
	tests := []struct {
		in   string
		want testOptions
	}{
		{"", testOptions{Restart: "lbd", Size: 1}},
		{"restart=luby,var-decay=0.9", testOptions{Restart: "luby", Decay: 0.9, Size: 1}},
		{"-verbose:-size=3", testOptions{Restart: "lbd", Verbose: true, Size: 3}},
		{"poll=10ms verbose=false", testOptions{Restart: "lbd", Poll: 10 * time.Millisecond, Size: 1}},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			opts := testOptions{Restart: "lbd", Size: 1}
			require.NoError(t, DecodeOptions(test.in, &opts))
			assert.Equal(t, test.want, opts)
		})
	}

	for _, in := range []string{"unknown=1", "size=big", "poll=soon"} {
		var opts testOptions
		assert.Error(t, DecodeOptions(in, &opts), in)
	}
}
