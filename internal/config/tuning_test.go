package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := &TuningConfig{}
	assert.Equal(t, 100, cfg.GetMaxPending())
	assert.Equal(t, 500.0, cfg.GetToleranceMs())
	assert.Equal(t, 2.0, cfg.GetFuturePenalty())
	assert.Equal(t, 10, cfg.GetHistorySize())
	assert.Equal(t, 20, cfg.GetSubscriberBuffer())
	assert.Equal(t, 3, cfg.GetMaxSubscribers())
	assert.Equal(t, 10*time.Millisecond, cfg.GetIdlePoll())
	assert.Equal(t, 30*time.Second, cfg.GetStatsInterval())
}

func TestLoadPartialConfig(t *testing.T) {
	path := writeConfig(t, `{"tolerance_ms": 250.0, "idle_poll": "5ms"}`)
	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 250.0, cfg.GetToleranceMs())
	assert.Equal(t, 5*time.Millisecond, cfg.GetIdlePoll())
	// Untouched fields keep defaults.
	assert.Equal(t, 100, cfg.GetMaxPending())
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	_, err := LoadTuningConfig("tuning.yaml")
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadTuningConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"negative max_pending", `{"max_pending": -1}`},
		{"zero tolerance", `{"tolerance_ms": 0}`},
		{"penalty below one", `{"future_penalty": 0.5}`},
		{"negative history", `{"history_size": -2}`},
		{"zero buffer", `{"subscriber_buffer": 0}`},
		{"bad idle_poll", `{"idle_poll": "fast"}`},
		{"bad stats_interval", `{"stats_interval": "often"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.json)
			_, err := LoadTuningConfig(path)
			require.Error(t, err, "expected validation error for %s", tc.json)
		})
	}
}
