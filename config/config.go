package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jsphweid/fretboard/constants"
	"github.com/jsphweid/fretboard/note"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

// Config is loaded once at startup and treated as read-only afterwards.
type Config struct {
	Fretboard Fretboard `yaml:"fretboard"`
	Server    Server    `yaml:"server"`
	Presets   Presets   `yaml:"presets"`
	Logging   Logging   `yaml:"logging"`
}

type Fretboard struct {
	Strings int `yaml:"strings"`
	Frets   int `yaml:"frets"`

	// open strings, highest string first
	Tuning   []string            `yaml:"tuning"`
	Tunings  map[string][]string `yaml:"tunings"`
	Spelling string              `yaml:"spelling"`

	Markers  []Marker `yaml:"markers"`
	Geometry Geometry `yaml:"geometry"`
	Palette  Palette  `yaml:"palette"`
}

// Marker is an inlay dot. It sits between fret lines Fret and Fret+1 and
// between strings Row and Row+1.
type Marker struct {
	Fret int `yaml:"fret" json:"fret"`
	Row  int `yaml:"row" json:"row"`
}

type Geometry struct {
	Width        float64 `yaml:"width"`
	MinHeight    float64 `yaml:"min_height"`
	MarginTop    float64 `yaml:"margin_top"`
	MarginRight  float64 `yaml:"margin_right"`
	MarginBottom float64 `yaml:"margin_bottom"`
	MarginLeft   float64 `yaml:"margin_left"`
	StringWidth  float64 `yaml:"string_width"`
	FretWidth    float64 `yaml:"fret_width"`
	NoteRadius   float64 `yaml:"note_radius"`
	DotRadius    float64 `yaml:"dot_radius"`
}

type Palette struct {
	String            string `yaml:"string"`
	Fret              string `yaml:"fret"`
	FretOutline       string `yaml:"fret_outline"`
	Dots              string `yaml:"dots"`
	DotsOutline       string `yaml:"dots_outline"`
	Notes             string `yaml:"notes"`
	NotesName         string `yaml:"notes_name"`
	NotesOutline      string `yaml:"notes_outline"`
	Background        string `yaml:"background"`
	TooltipBackground string `yaml:"tooltip_background"`
	TooltipText       string `yaml:"tooltip_text"`

	// highlight colors picked by chord/scale quality
	Major string `yaml:"major"`
	Minor string `yaml:"minor"`
	Other string `yaml:"other"`
}

type Server struct {
	Addr string `yaml:"addr"`
	// cross-origin callers; empty means same origin only
	AllowedOrigins []string `yaml:"allowed_origins"`
	// sessions untouched for this long are dropped; 0 keeps them forever
	SessionIdle time.Duration `yaml:"session_idle"`
}

type Presets struct {
	// memory or dynamodb
	Backend  string `yaml:"backend"`
	Table    string `yaml:"table"`
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
}

type Logging struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func DefaultConfig() *Config {
	return &Config{
		Fretboard: Fretboard{
			Strings: 4,
			Frets:   12,
			Tuning:  []string{"G2", "D2", "A1", "E1"},
			Tunings: map[string][]string{
				"standard":  {"G2", "D2", "A1", "E1"},
				"drop-d":    {"G2", "D2", "A1", "D1"},
				"half-down": {"F#2", "C#2", "G#1", "D#1"},
				"tenor":     {"C3", "G2", "D2", "A1"},
			},
			Spelling: "sharps",
			Markers: []Marker{
				{Fret: 2, Row: 1},
				{Fret: 4, Row: 1},
				{Fret: 6, Row: 1},
				{Fret: 8, Row: 1},
				{Fret: 11, Row: 0},
				{Fret: 11, Row: 2},
			},
			Geometry: Geometry{
				Width:        1024,
				MinHeight:    300,
				MarginTop:    120,
				MarginRight:  10,
				MarginBottom: 30,
				MarginLeft:   30,
				StringWidth:  3,
				FretWidth:    8,
				NoteRadius:   24,
				DotRadius:    8,
			},
			Palette: Palette{
				String:            "black",
				Fret:              "silver",
				FretOutline:       "black",
				Dots:              "grey",
				DotsOutline:       "black",
				Notes:             "brown",
				NotesName:         "white",
				NotesOutline:      "black",
				Background:        "lightyellow",
				TooltipBackground: "black",
				TooltipText:       "white",
				Major:             "orange",
				Minor:             "steelblue",
				Other:             "mediumpurple",
			},
		},
		Server: Server{
			Addr:        ":8080",
			SessionIdle: 2 * time.Hour,
		},
		Presets: Presets{
			Backend:  "memory",
			Table:    "fretboard-presets",
			Endpoint: "http://localhost:8000",
			Region:   "localhost",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Load reads a YAML config on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode applies data on top of c. yaml merges maps into existing ones, but a
// file that lists tunings means exactly those tunings.
func (c *Config) decode(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}
	var probe struct {
		Fretboard struct {
			Tunings map[string][]string `yaml:"tunings"`
		} `yaml:"fretboard"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Fretboard.Tunings != nil {
		c.Fretboard.Tunings = probe.Fretboard.Tunings
	}
	return nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FRETBOARD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("FRETBOARD_PRESETS"); v != "" {
		c.Presets.Backend = v
	}
	if v := os.Getenv("DYNAMODB_ENDPOINT"); v != "" {
		c.Presets.Endpoint = v
	}
	if v := os.Getenv("FRETBOARD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	fb := c.Fretboard
	if fb.Strings < 2 {
		return fmt.Errorf("%w: need at least 2 strings, got %d", ErrInvalid, fb.Strings)
	}
	if fb.Frets < 1 || fb.Frets > constants.MaxFrets {
		return fmt.Errorf("%w: frets must be between 1 and %d, got %d", ErrInvalid, constants.MaxFrets, fb.Frets)
	}
	if err := fb.checkTuning("tuning", fb.Tuning); err != nil {
		return err
	}
	for name, tuning := range fb.Tunings {
		if err := fb.checkTuning("tunings."+name, tuning); err != nil {
			return err
		}
	}
	for _, m := range fb.Markers {
		if m.Row < 0 || m.Row >= fb.Strings-1 || m.Fret < 0 {
			return fmt.Errorf("%w: marker %+v out of range", ErrInvalid, m)
		}
	}
	if _, err := note.ParseSpelling(fb.Spelling); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if fb.Geometry.Width <= fb.Geometry.MarginLeft+fb.Geometry.MarginRight {
		return fmt.Errorf("%w: width %v leaves no room for the board", ErrInvalid, fb.Geometry.Width)
	}
	if c.Server.SessionIdle < 0 {
		return fmt.Errorf("%w: negative session_idle", ErrInvalid)
	}
	switch strings.ToLower(c.Presets.Backend) {
	case "memory", "dynamodb":
	default:
		return fmt.Errorf("%w: unknown presets backend %q", ErrInvalid, c.Presets.Backend)
	}
	return nil
}

func (fb Fretboard) checkTuning(field string, tuning []string) error {
	if len(tuning) != fb.Strings {
		return fmt.Errorf("%w: %s has %d strings, expected %d", ErrInvalid, field, len(tuning), fb.Strings)
	}
	if _, err := note.ParseAll(tuning); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, field, err)
	}
	return nil
}

func (fb Fretboard) SpellingMode() note.Spelling {
	sp, _ := note.ParseSpelling(fb.Spelling)
	return sp
}

// Height grows with the string count but never drops below MinHeight.
func (g Geometry) Height(numStrings int) float64 {
	if numStrings <= 0 {
		return g.MinHeight
	}
	return math.Max(g.Width/float64(numStrings), g.MinHeight)
}

// Clone returns a deep copy so callers can derive variants without touching
// the shared config.
func (fb Fretboard) Clone() Fretboard {
	res := fb
	res.Tuning = append([]string(nil), fb.Tuning...)
	res.Markers = append([]Marker(nil), fb.Markers...)
	res.Tunings = make(map[string][]string, len(fb.Tunings))
	for k, v := range fb.Tunings {
		res.Tunings[k] = append([]string(nil), v...)
	}
	return res
}
