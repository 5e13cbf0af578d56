package app

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blaubaer/clip-announcer/pkg/common"
	"github.com/blaubaer/clip-announcer/pkg/lom"
	"github.com/blaubaer/clip-announcer/pkg/transport"
)

func TestConfiguration_LoadFrom(t *testing.T) {
	instance := NewConfiguration()
	require.NoError(t, instance.loadFrom(strings.NewReader(`
announcer:
  refreshDelay: 50ms
graph:
  type: file
  file: set.yml
transport:
  output: lines
  midiInput: "Launch.*"
`)))

	assert.Equal(t, 50*time.Millisecond, instance.Announcer.RefreshDelay)
	assert.Equal(t, 300*time.Millisecond, instance.Announcer.AnnounceDebounce)
	assert.Equal(t, lom.TypeFile, instance.Graph.Type)
	assert.Equal(t, "set.yml", instance.Graph.File)
	assert.Equal(t, transport.OutputLines, instance.Transport.Output)
	assert.Equal(t, "Launch.*", instance.Transport.MidiInput.String())
	assert.Equal(t, 512, instance.Speech.MaxLength)
}

func TestConfiguration_LoadFromRejectsUnknownFields(t *testing.T) {
	instance := NewConfiguration()
	assert.Error(t, instance.loadFrom(strings.NewReader("announcer:\n  foo: bar\n")))
}

func TestConfiguration_LoadFromEmpty(t *testing.T) {
	instance := NewConfiguration()
	require.NoError(t, instance.loadFrom(strings.NewReader("")))
	assert.Equal(t, NewConfiguration(), instance)
}

func TestConfiguration_SaveAndLoad(t *testing.T) {
	expected := NewConfiguration()
	expected.Speech.Command = "espeak"
	expected.Transport.MidiInput = common.MustNewRegexp("^IAC")
	expected.Graph.Type = lom.TypeFile

	buf := new(bytes.Buffer)
	require.NoError(t, expected.saveTo(buf))

	actual := NewConfiguration()
	require.NoError(t, actual.loadFrom(buf))
	assert.Equal(t, "^IAC", actual.Transport.MidiInput.String())

	expected.Transport.MidiInput, actual.Transport.MidiInput = common.Regexp{}, common.Regexp{}
	assert.Equal(t, expected, actual)
}

func TestApp_Initialize(t *testing.T) {
	defer goleak.VerifyNone(t)
	fn := filepath.Join(t.TempDir(), "nested", "configuration.yml")

	instance := NewApp()
	instance.ConfigurationFile = fn
	instance.configFromFlags.Speech.Debounce = time.Second
	instance.configFromFlags.Graph.Type = lom.TypeFile

	require.NoError(t, instance.Initialize())
	assert.Equal(t, time.Second, instance.Configuration().Speech.Debounce)
	assert.Equal(t, lom.TypeFile, instance.Configuration().Graph.Type)
	assert.Equal(t, 25*time.Millisecond, instance.Configuration().Announcer.RefreshDelay)
	require.NoError(t, instance.Dispose())

	saved := NewConfiguration()
	require.NoError(t, saved.loadFromFile(fn, false))
	assert.Equal(t, instance.Configuration(), saved)

	require.NoError(t, os.WriteFile(fn, []byte("speech:\n  maxLength: 42\n"), 0600))
	second := NewApp()
	second.ConfigurationFile = fn
	require.NoError(t, second.Initialize())
	require.NoError(t, second.Dispose())
	assert.Equal(t, 42, second.Configuration().Speech.MaxLength)

	content, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.Equal(t, "speech:\n  maxLength: 42\n", string(content), "an existing configuration must not be overwritten")
}

func TestApp_InitializeFailsOnBrokenConfiguration(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "configuration.yml")
	require.NoError(t, os.WriteFile(fn, []byte("foo: bar\n"), 0600))

	instance := NewApp()
	instance.ConfigurationFile = fn
	assert.Error(t, instance.Initialize())
}

func TestApp_PreventAutoSave(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "configuration.yml")

	instance := NewApp()
	instance.ConfigurationFile = fn
	instance.configFromFlags.PreventAutoSave = true
	require.NoError(t, instance.Initialize())
	require.NoError(t, instance.Dispose())

	_, err := os.Stat(fn)
	assert.True(t, os.IsNotExist(err))
}

func TestApp_Metrics(t *testing.T) {
	defer goleak.VerifyNone(t)

	instance := NewApp()
	instance.ConfigurationFile = filepath.Join(t.TempDir(), "configuration.yml")
	instance.configFromFlags.PreventAutoSave = true
	instance.configFromFlags.Metrics.Listen = "127.0.0.1:0"
	require.NoError(t, instance.Initialize())

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + instance.metrics.Addr().String() + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, instance.Dispose())
}

func TestApp_SaveCommandOverwritesConfiguration(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "configuration.yml")
	require.NoError(t, os.WriteFile(fn, []byte("speech:\n  maxLength: 42\n"), 0600))

	instance := NewApp()
	instance.ConfigurationFile = fn
	instance.configFromFlags.Speech.Command = "espeak"
	require.NoError(t, instance.Initialize())
	defer func() { assert.NoError(t, instance.Dispose()) }()

	handler := &transport.Handler{}
	require.NoError(t, instance.handleLine(context.Background(), handler, ""))
	content, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.Equal(t, "speech:\n  maxLength: 42\n", string(content))

	require.NoError(t, instance.handleLine(context.Background(), handler, " SAVE "))
	saved := NewConfiguration()
	require.NoError(t, saved.loadFromFile(fn, false))
	assert.Equal(t, "espeak", saved.Speech.Command)
	assert.Equal(t, 42, saved.Speech.MaxLength)
	assert.Equal(t, instance.Configuration(), saved)
}
