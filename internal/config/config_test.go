package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setEnvAndRun(t *testing.T, env map[string]string, fn func()) {
	t.Helper()

	backup := map[string]string{}
	for k := range env {
		backup[k] = os.Getenv(k)
	}

	for k, v := range env {
		require.NoError(t, os.Setenv(k, v))
	}
	defer func() {
		for k := range env {
			_ = os.Unsetenv(k)
			if old, ok := backup[k]; ok {
				_ = os.Setenv(k, old)
			}
		}
	}()

	fn()
}

func withFreshFlagSet(t *testing.T, args []string, fn func()) {
	t.Helper()
	oldFlags := flag.CommandLine
	oldArgs := os.Args
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Args = append([]string{oldArgs[0]}, args...)
	defer func() {
		flag.CommandLine = oldFlags
		os.Args = oldArgs
	}()
	fn()
}

func TestReadClientEnvironment(t *testing.T) {
	env := map[string]string{
		"ADDRESS":        "http://127.0.0.1:9999",
		"CLIENT_TIMEOUT": "5",
	}

	setEnvAndRun(t, env, func() {
		cfg := &ClientConfig{}
		readClientEnvironment(cfg)

		require.Equal(t, "http://127.0.0.1:9999", cfg.ServerAddr)
		require.Equal(t, 5, cfg.ClientTimeout)
	})
}

func TestReadClientEnvironment_InvalidTimeoutIgnored(t *testing.T) {
	setEnvAndRun(t, map[string]string{"CLIENT_TIMEOUT": "soon"}, func() {
		cfg := &ClientConfig{ClientTimeout: 10}
		readClientEnvironment(cfg)
		require.Equal(t, 10, cfg.ClientTimeout)
	})
}

func TestNewClientConfig_Defaults(t *testing.T) {
	withFreshFlagSet(t, nil, func() {
		cfg := NewClientConfig()
		require.Equal(t, "http://localhost:8080", cfg.ServerAddr)
		require.Equal(t, 10, cfg.ClientTimeout)
	})
}

func TestNewClientConfig_FlagsAndNormalization(t *testing.T) {
	withFreshFlagSet(t, []string{"-a", "example.com:9090", "-t", "3"}, func() {
		cfg := NewClientConfig()
		require.Equal(t, "http://example.com:9090", cfg.ServerAddr)
		require.Equal(t, 3, cfg.ClientTimeout)
	})
}

func TestNewClientConfig_JSONFileFillsUnsetFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"address": "https://bp.example.com", "client_timeout": "5s"}`), 0o600))

	withFreshFlagSet(t, []string{"-c", path, "-t", "2"}, func() {
		cfg := NewClientConfig()
		require.Equal(t, "https://bp.example.com", cfg.ServerAddr)
		require.Equal(t, 2, cfg.ClientTimeout) // explicit flag beats the file
	})
}

func TestNewClientConfig_EnvBeatsFlags(t *testing.T) {
	setEnvAndRun(t, map[string]string{"ADDRESS": "http://env.example.com"}, func() {
		withFreshFlagSet(t, []string{"-a", "http://flag.example.com"}, func() {
			cfg := NewClientConfig()
			require.Equal(t, "http://env.example.com", cfg.ServerAddr)
		})
	})
}

func TestParseDurationSeconds(t *testing.T) {
	sec, err := parseDurationSeconds("90s")
	require.NoError(t, err)
	require.Equal(t, 90, sec)

	_, err = parseDurationSeconds("ninety")
	require.Error(t, err)
}
