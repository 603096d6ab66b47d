package preferences

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferences_DefaultWhenMissing(t *testing.T) {
	p, err := Open(filepath.Join(t.TempDir(), "prefs.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, p.TimerDuration())
	assert.Equal(t, TimerInfo{Seconds: 60, Source: "default"}, p.TimerInfo())
}

func TestPreferences_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")

	p, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, p.SetTimerDuration(90))
	assert.Equal(t, 90, p.TimerSeconds())

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, reopened.TimerDuration())
	assert.Equal(t, "file", reopened.TimerInfo().Source)
}

func TestPreferences_RejectsNonPositive(t *testing.T) {
	p, err := Open(filepath.Join(t.TempDir(), "prefs.yaml"))
	require.NoError(t, err)

	assert.ErrorIs(t, p.SetTimerDuration(0), ErrInvalidDuration)
	assert.ErrorIs(t, p.SetTimerDuration(-5), ErrInvalidDuration)
	assert.Equal(t, DefaultTimerSeconds, p.TimerSeconds())
}

func TestPreferences_StoredNonPositiveReadsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timer_duration_seconds: -3\n"), 0o600))

	p, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimerSeconds, p.TimerSeconds())
}
