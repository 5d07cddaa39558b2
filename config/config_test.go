package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.Nil(t, DefaultConfig().Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	assert := assert.New(t)
	assert.Nil(err)
	assert.Equal(DefaultConfig().Fretboard.Tuning, cfg.Fretboard.Tuning)
	assert.Equal(12, cfg.Fretboard.Frets)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fretboard.yaml")
	data := []byte(`
fretboard:
  strings: 6
  frets: 22
  tuning: [E4, B3, G3, D3, A2, E2]
  tunings:
    standard: [E4, B3, G3, D3, A2, E2]
    drop-d: [E4, B3, G3, D3, A2, D2]
  spelling: flats
server:
  addr: ":9000"
`)
	assert := assert.New(t)
	assert.Nil(os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	assert.Nil(err)
	assert.Equal(6, cfg.Fretboard.Strings)
	assert.Equal(22, cfg.Fretboard.Frets)
	assert.Equal(":9000", cfg.Server.Addr)
	assert.Equal("E2", cfg.Fretboard.Tuning[5])
	assert.Equal("lightyellow", cfg.Fretboard.Palette.Background)
	// listed tunings replace the defaults instead of merging with them
	assert.Len(cfg.Fretboard.Tunings, 2)
	assert.NotContains(cfg.Fretboard.Tunings, "tenor")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FRETBOARD_ADDR", ":7777")
	t.Setenv("FRETBOARD_PRESETS", "dynamodb")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert := assert.New(t)
	assert.Nil(err)
	assert.Equal(":7777", cfg.Server.Addr)
	assert.Equal("dynamodb", cfg.Presets.Backend)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"tuning length": func(c *Config) { c.Fretboard.Tuning = []string{"G2", "D2", "A1"} },
		"tuning name":   func(c *Config) { c.Fretboard.Tuning = []string{"G2", "D2", "A1", "X1"} },
		"one string":    func(c *Config) { c.Fretboard.Strings = 1 },
		"zero frets":    func(c *Config) { c.Fretboard.Frets = 0 },
		"marker row":    func(c *Config) { c.Fretboard.Markers = []Marker{{Fret: 1, Row: 3}} },
		"spelling":      func(c *Config) { c.Fretboard.Spelling = "neither" },
		"backend":       func(c *Config) { c.Presets.Backend = "sqlite" },
		"preset tuning": func(c *Config) { c.Fretboard.Tunings["odd"] = []string{"E1"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.True(t, errors.Is(cfg.Validate(), ErrInvalid))
		})
	}
}

func TestHeight(t *testing.T) {
	g := DefaultConfig().Fretboard.Geometry
	assert := assert.New(t)
	assert.Equal(300.0, g.Height(4))
	assert.Equal(512.0, g.Height(2))
}

func TestCloneIsDeep(t *testing.T) {
	orig := DefaultConfig().Fretboard
	clone := orig.Clone()
	clone.Tuning[0] = "A2"
	clone.Tunings["standard"][0] = "A2"

	assert := assert.New(t)
	assert.Equal("G2", orig.Tuning[0])
	assert.Equal("G2", orig.Tunings["standard"][0])
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fretboard.yaml")
	cfg := DefaultConfig()
	cfg.Fretboard.Frets = 15

	assert := assert.New(t)
	assert.Nil(cfg.Save(path))
	loaded, err := Load(path)
	assert.Nil(err)
	assert.Equal(15, loaded.Fretboard.Frets)
}
