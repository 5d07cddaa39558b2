package fretboard

import (
	"fmt"

	"github.com/jsphweid/fretboard/board"
	"github.com/jsphweid/fretboard/chord"
	"github.com/jsphweid/fretboard/constants"
	"github.com/jsphweid/fretboard/highlight"
	"github.com/jsphweid/fretboard/note"
	"go.uber.org/zap"
)

// Action is a single state change. Actions run under the instance lock.
type Action interface {
	apply(in *Instance) error
}

// Toggle is a click on a note glyph.
type Toggle struct {
	String int
	Fret   int
}

func (a Toggle) apply(in *Instance) error {
	p, ok := in.board.At(a.String, a.Fret)
	if !ok {
		return fmt.Errorf("%w: string %d fret %d", ErrOutOfRange, a.String, a.Fret)
	}
	switch {
	case in.hl.IsActive(p):
		in.hl.Disable(p)
	case !hasSelection(in.hl):
		in.hl.Select(p)
	default:
		in.hl.Enable(p, "")
	}
	return nil
}

func hasSelection(hl *highlight.State) bool {
	_, ok := hl.Selected()
	return ok
}

// Select does nothing when a root is already selected.
type Select struct {
	Pitch note.Pitch
}

func (a Select) apply(in *Instance) error {
	in.hl.Select(a.Pitch)
	return nil
}

type EnableNote struct {
	Pitch note.Pitch
	// empty means the default note color
	Color string
}

func (a EnableNote) apply(in *Instance) error {
	in.hl.Enable(a.Pitch, a.Color)
	return nil
}

type DisableNote struct {
	Pitch note.Pitch
}

func (a DisableNote) apply(in *Instance) error {
	in.hl.Disable(a.Pitch)
	return nil
}

// EnableScale lights every octave of a scale. The root is the selected note
// unless Root names one, e.g. "C5" or "Bb".
type EnableScale struct {
	Type string
	Root string
}

func (a EnableScale) apply(in *Instance) error {
	var pitches []note.Pitch
	var err error
	if a.Root != "" {
		pitches, _, err = chord.ParseScale(a.Root + " " + a.Type)
	} else {
		root, ok := in.hl.Selected()
		if !ok {
			return ErrNoSelection
		}
		pitches, err = chord.Scale(root, a.Type)
	}
	if err != nil {
		return err
	}
	in.hl.EnableClasses(note.Classes(pitches), in.qualityColor(chord.ScaleQuality(a.Type)))
	return nil
}

// EnableArpeggio is EnableScale for chord types.
type EnableArpeggio struct {
	Type string
	Root string
}

func (a EnableArpeggio) apply(in *Instance) error {
	var pitches []note.Pitch
	var err error
	if a.Root != "" {
		pitches, _, err = chord.ParseChord(a.Root + " " + a.Type)
	} else {
		root, ok := in.hl.Selected()
		if !ok {
			return ErrNoSelection
		}
		pitches, err = chord.Chord(root, a.Type)
	}
	if err != nil {
		return err
	}
	in.hl.EnableClasses(note.Classes(pitches), in.qualityColor(chord.ChordQuality(a.Type)))
	return nil
}

// EnableChord lights a chord symbol such as "Cmaj7" without needing a
// selection.
type EnableChord struct {
	Symbol string
}

func (a EnableChord) apply(in *Instance) error {
	pitches, q, err := chord.ParseChord(a.Symbol)
	if err != nil {
		return err
	}
	in.hl.EnableClasses(note.Classes(pitches), in.qualityColor(q))
	return nil
}

// SetTuning retunes the board. Preset names a configured tuning and wins
// over Tuning. Highlights are kept since they are keyed by pitch.
type SetTuning struct {
	Tuning []string
	Preset string
}

func (a SetTuning) apply(in *Instance) error {
	names := a.Tuning
	if a.Preset != "" {
		var ok bool
		if names, ok = in.cfg.Tunings[a.Preset]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownTuning, a.Preset)
		}
	}

	tuning, err := note.ParseAll(names)
	if err != nil {
		err = fmt.Errorf("%w: %v", board.ErrInvalidTuning, err)
	} else {
		var b board.Board
		if b, err = board.Build(tuning, in.cfg.Strings, in.frets); err == nil {
			in.board = b
			in.tuning = tuning
			in.tuningName = a.Preset
			if in.tuningName == "" {
				in.tuningName = presetName(in.cfg, names)
			}
			return nil
		}
	}

	in.logger.Warn("tuning rejected, keeping previous board",
		zap.Strings("tuning", names),
		zap.Int("strings", in.cfg.Strings),
		zap.Error(err))
	return err
}

// SetFretCount starts over with a board of Count frets and nothing lit.
type SetFretCount struct {
	Count int
}

func (a SetFretCount) apply(in *Instance) error {
	if a.Count > constants.MaxFrets {
		return fmt.Errorf("%w: %d is more than %d", board.ErrInvalidFretCount, a.Count, constants.MaxFrets)
	}
	b, err := board.Build(in.tuning, in.cfg.Strings, a.Count)
	if err != nil {
		return err
	}
	in.board = b
	in.frets = a.Count
	in.hl = highlight.New(in.cfg.Palette.Notes)
	return nil
}

type Clear struct{}

func (Clear) apply(in *Instance) error {
	in.hl.Clear()
	return nil
}

// Import lights exact pitches, e.g. the notes of a MIDI file.
type Import struct {
	Pitches []note.Pitch
	Color   string
}

func (a Import) apply(in *Instance) error {
	in.hl.EnableSet(a.Pitches, a.Color)
	return nil
}

// Restore replaces tuning, fret count and highlights in one step, as when
// loading a preset. Nothing changes if any part is invalid.
type Restore struct {
	Tuning    []string
	Frets     int
	Highlight highlight.Snapshot
}

func (a Restore) apply(in *Instance) error {
	tuning, err := note.ParseAll(a.Tuning)
	if err != nil {
		return fmt.Errorf("%w: %v", board.ErrInvalidTuning, err)
	}
	if a.Frets > constants.MaxFrets {
		return fmt.Errorf("%w: %d is more than %d", board.ErrInvalidFretCount, a.Frets, constants.MaxFrets)
	}
	b, err := board.Build(tuning, in.cfg.Strings, a.Frets)
	if err != nil {
		return err
	}

	in.board = b
	in.tuning = tuning
	in.tuningName = presetName(in.cfg, a.Tuning)
	in.frets = a.Frets
	in.hl.Restore(a.Highlight)
	return nil
}
