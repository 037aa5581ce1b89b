package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Flights export 2025.csv", c.DataPath)
	assert.Equal(t, ":8501", c.ListenAddr)
	assert.Equal(t, 50, c.PreviewRows)
	assert.False(t, c.Watch)
	assert.Equal(t, rune(0), c.DelimiterRune())
	assert.Equal(t, Default(), c)
}

func TestLoad_FileThenEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte("data_path: /data/flights.tsv\ndelimiter: \"\\\\t\"\npreview_rows: 10\nlisten_addr: \":9000\"\n"), 0o644))
	t.Setenv("FLIGHTDASH_LISTEN_ADDR", "127.0.0.1:7000")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/data/flights.tsv", c.DataPath)
	assert.Equal(t, 10, c.PreviewRows)
	assert.Equal(t, '\t', c.DelimiterRune())
	assert.Equal(t, "127.0.0.1:7000", c.ListenAddr, "env overrides the file")
}

func TestLoad_MalformedFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte("data_path: [unterminated\n"), 0o644))
	_, err := Load(p)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	c := Default()
	c.DataPath = "flights.xlsx"
	c.SheetName = "2025"
	c.Watch = true
	require.NoError(t, Save(c, p))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Delimiter = ";;"
	assert.Error(t, c.Validate())

	c = Default()
	c.ChartWidth = 0
	assert.Error(t, c.Validate())

	c = Default()
	c.DataPath = ""
	assert.Error(t, c.Validate())
}
