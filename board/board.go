package board

import (
	"errors"
	"fmt"

	"github.com/jsphweid/fretboard/note"
)

var (
	ErrInvalidTuning    = errors.New("invalid tuning")
	ErrInvalidFretCount = errors.New("invalid fret count")
)

type Position struct {
	String int `json:"string"`
	Fret   int `json:"fret"`
}

// Board maps (string, fret) to a pitch. Row i is string i of the tuning,
// column 0 is the open string.
type Board [][]note.Pitch

// Build lays out fretCount+1 ascending semitones per string. Entry j+12 is
// always one octave above entry j.
func Build(tuning []note.Pitch, stringCount, fretCount int) (Board, error) {
	if len(tuning) != stringCount {
		return nil, fmt.Errorf("%w: expected length %d, got %d", ErrInvalidTuning, stringCount, len(tuning))
	}
	if fretCount < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFretCount, fretCount)
	}

	res := make(Board, 0, stringCount)
	for _, open := range tuning {
		res = append(res, note.Chromatic(open, fretCount+1))
	}
	return res, nil
}

func (b Board) Strings() int {
	return len(b)
}

func (b Board) Frets() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0]) - 1
}

func (b Board) At(str, fret int) (note.Pitch, bool) {
	if str < 0 || str >= len(b) || fret < 0 || fret >= len(b[str]) {
		return 0, false
	}
	return b[str][fret], true
}

func (b Board) Open(str int) (note.Pitch, bool) {
	return b.At(str, 0)
}

// Positions lists every position that sounds p, highest string first.
func (b Board) Positions(p note.Pitch) []Position {
	var res []Position
	for i, row := range b {
		for j, q := range row {
			if q == p {
				res = append(res, Position{String: i, Fret: j})
			}
		}
	}
	return res
}

// Names renders the board as pitch names, mainly for printing and JSON.
func (b Board) Names(sp note.Spelling) [][]string {
	res := make([][]string, len(b))
	for i, row := range b {
		res[i] = make([]string, len(row))
		for j, p := range row {
			res[i][j] = p.Name(sp)
		}
	}
	return res
}
