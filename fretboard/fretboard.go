package fretboard

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jsphweid/fretboard/board"
	"github.com/jsphweid/fretboard/chord"
	"github.com/jsphweid/fretboard/config"
	"github.com/jsphweid/fretboard/highlight"
	"github.com/jsphweid/fretboard/note"
	"github.com/jsphweid/fretboard/render"
	"github.com/jsphweid/fretboard/util"
	"go.uber.org/zap"
)

var (
	ErrNoSelection   = errors.New("select a root note first")
	ErrUnknownTuning = errors.New("unknown tuning")
	ErrOutOfRange    = errors.New("position is not on the board")
)

// Instance is one fretboard: a tuning, a fret count, the board derived from
// them and what is lit on it. Every mutation goes through Dispatch, which
// redraws the scene afterwards.
type Instance struct {
	mu     sync.Mutex
	cfg    config.Fretboard
	logger *zap.Logger

	tuning     []note.Pitch
	tuningName string
	frets      int
	board      board.Board
	hl         *highlight.State
	scene      *render.Scene

	onChange func(*render.Scene)
}

func New(cfg config.Fretboard, logger *zap.Logger) (*Instance, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tuning, err := note.ParseAll(cfg.Tuning)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", board.ErrInvalidTuning, err)
	}
	b, err := board.Build(tuning, cfg.Strings, cfg.Frets)
	if err != nil {
		return nil, err
	}

	in := &Instance{
		cfg:        cfg.Clone(),
		logger:     logger,
		tuning:     tuning,
		tuningName: presetName(cfg, cfg.Tuning),
		frets:      cfg.Frets,
		board:      b,
		hl:         highlight.New(cfg.Palette.Notes),
	}
	in.redraw()
	return in, nil
}

// OnChange registers fn to receive every scene produced by a successful
// Dispatch. fn runs outside the instance lock.
func (in *Instance) OnChange(fn func(*render.Scene)) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.onChange = fn
}

func (in *Instance) Dispatch(a Action) error {
	in.mu.Lock()
	if err := a.apply(in); err != nil {
		in.mu.Unlock()
		in.logger.Debug("action rejected", zap.String("action", fmt.Sprintf("%T", a)), zap.Error(err))
		return err
	}
	in.redraw()
	scene, fn, lit := in.scene, in.onChange, in.hl.Len()
	in.mu.Unlock()

	in.logger.Debug("action applied",
		zap.String("action", fmt.Sprintf("%T", a)),
		zap.Int("lit", lit))
	if fn != nil {
		fn(scene)
	}
	return nil
}

func (in *Instance) redraw() {
	in.scene = render.Render(in.board, in.hl, in.tuning, in.cfg.Markers, in.cfg)
}

// Scene is the diagram as of the last mutation. Callers must not modify it.
func (in *Instance) Scene() *render.Scene {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.scene
}

func (in *Instance) Config() config.Fretboard {
	return in.cfg
}

// State is a read-only view used by the page, the JSON API and presets.
type State struct {
	Tuning     []string           `json:"tuning"`
	TuningName string             `json:"tuning_name,omitempty"`
	Frets      int                `json:"frets"`
	Notes      [][]string         `json:"notes"`
	Highlight  highlight.Snapshot `json:"highlight"`
	Selected   string             `json:"selected,omitempty"`
	Identified string             `json:"identified,omitempty"`
}

func (in *Instance) State() State {
	in.mu.Lock()
	defer in.mu.Unlock()

	sp := in.cfg.SpellingMode()
	res := State{
		TuningName: in.tuningName,
		Frets:      in.frets,
		Notes:      in.board.Names(sp),
		Highlight:  in.hl.Snapshot(),
		Identified: chord.Identify(in.hl.ActiveClasses(), sp),
	}
	for _, p := range in.tuning {
		res.Tuning = append(res.Tuning, p.Name(sp))
	}
	if p, ok := in.hl.Selected(); ok {
		res.Selected = p.Name(sp)
	}
	return res
}

// Lookup returns the pitch at a position and whether it is lit.
func (in *Instance) Lookup(str, fret int) (p note.Pitch, lit bool, ok bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	p, ok = in.board.At(str, fret)
	if !ok {
		return p, false, false
	}
	return p, in.hl.IsActive(p), true
}

// Active lists the pitches that sound on the board right now, lowest first.
func (in *Instance) Active() []note.Pitch {
	in.mu.Lock()
	defer in.mu.Unlock()

	seen := make(map[note.Pitch]bool)
	var res []note.Pitch
	for _, row := range in.board {
		for _, p := range row {
			if !seen[p] && in.hl.IsActive(p) {
				seen[p] = true
				res = append(res, p)
			}
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i] < res[j]
	})
	return res
}

func (in *Instance) qualityColor(q chord.Quality) string {
	switch q {
	case chord.Major:
		return in.cfg.Palette.Major
	case chord.Minor:
		return in.cfg.Palette.Minor
	}
	return in.cfg.Palette.Other
}

// presetName returns the name of the configured tuning equal to tuning.
func presetName(cfg config.Fretboard, tuning []string) string {
	want, err := note.ParseAll(tuning)
	if err != nil {
		return ""
	}
	for _, name := range util.SortedKeys(cfg.Tunings) {
		got, err := note.ParseAll(cfg.Tunings[name])
		if err != nil || len(got) != len(want) {
			continue
		}
		match := true
		for i := range got {
			if got[i] != want[i] {
				match = false
				break
			}
		}
		if match {
			return name
		}
	}
	return ""
}
