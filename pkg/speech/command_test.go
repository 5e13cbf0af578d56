package speech

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCommand(t *testing.T) {
	oldLookPath, oldFileExists := lookPath, fileExists
	defer func() {
		lookPath, fileExists = oldLookPath, oldFileExists
	}()

	available := map[string]string{}
	lookPath = func(file string) (string, error) {
		if v, ok := available[file]; ok {
			return v, nil
		}
		return "", exec.ErrNotFound
	}
	sayExists := false
	fileExists = func(string) bool {
		return sayExists
	}

	_, err := ResolveCommand("")
	assert.ErrorIs(t, err, ErrNoCommand)

	available["spd-say"] = "/usr/bin/spd-say"
	actual, err := ResolveCommand("")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/spd-say", actual)

	available["espeak"] = "/usr/bin/espeak"
	actual, err = ResolveCommand("")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/espeak", actual)

	sayExists = true
	actual, err = ResolveCommand("")
	require.NoError(t, err)
	assert.Equal(t, sayPath, actual)

	available["my-tts"] = "/opt/bin/my-tts"
	actual, err = ResolveCommand("my-tts")
	require.NoError(t, err)
	assert.Equal(t, "/opt/bin/my-tts", actual)

	_, err = ResolveCommand("absent-tts")
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestExitCode(t *testing.T) {
	_, ok := ExitCode(nil)
	assert.False(t, ok)
	_, ok = ExitCode(errors.New("foo"))
	assert.False(t, ok)
}
