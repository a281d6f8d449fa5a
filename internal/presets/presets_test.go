package presets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	c := DefaultCatalog()
	require.Equal(t, 5, c.Len())

	names := make([]string, 0, c.Len())
	for _, p := range c.All() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Custom", "Hit", "Tabata", "Emom", "Amrap"}, names)

	tabata, ok := c.Find("Tabata")
	require.True(t, ok)
	assert.Equal(t, 20*time.Second, tabata.Work)
	assert.Equal(t, 10*time.Second, tabata.Rest)

	emom, _ := c.Find("Emom")
	assert.Equal(t, time.Duration(0), emom.Rest)
}

func TestFind_CaseInsensitive(t *testing.T) {
	c := DefaultCatalog()

	p, ok := c.Find(" aMrAp ")
	require.True(t, ok)
	assert.Equal(t, "Amrap", p.Name)
	assert.Equal(t, 4, c.Index("amrap"))

	_, ok = c.Find("Yoga")
	assert.False(t, ok)
	assert.Equal(t, -1, c.Index("Yoga"))
}

func TestLoadFile_EmptyPath(t *testing.T) {
	c, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), c.All())
}

func TestLoadFile_OverlayAndAppend(t *testing.T) {
	path := writeFile(t, `
presets:
  - name: tabata
    work_seconds: 25
    rest_seconds: 5
  - name: Ladder
    work_seconds: 90
    rest_seconds: 45
`)
	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 6, c.Len())

	tabata, _ := c.Find("Tabata")
	assert.Equal(t, Preset{Name: "tabata", Work: 25 * time.Second, Rest: 5 * time.Second}, tabata)
	assert.Equal(t, 2, c.Index("Tabata"))

	ladder, ok := c.Find("ladder")
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, ladder.Work)
	assert.Equal(t, 5, c.Index("Ladder"))
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "presets: [this is: not valid"))
	assert.Error(t, err)

	for _, body := range []string{
		"presets:\n  - name: ''\n    work_seconds: 10\n",
		"presets:\n  - name: Zero\n    work_seconds: 0\n",
		"presets:\n  - name: Neg\n    work_seconds: 10\n    rest_seconds: -1\n",
	} {
		_, err := LoadFile(writeFile(t, body))
		require.Error(t, err, body)
		assert.True(t, errors.Is(err, ErrInvalidPreset), body)
	}
}

func TestSaveFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, SaveFile(path, DefaultCatalog()))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), c.All())
}

func TestPreset_String(t *testing.T) {
	assert.Equal(t, "Tabata 20s/10s", Preset{Name: "Tabata", Work: 20 * time.Second, Rest: 10 * time.Second}.String())
}
