package model

import (
	"github.com/jsphweid/fretboard/board"
	"github.com/jsphweid/fretboard/fretboard"
	"github.com/jsphweid/fretboard/render"
)

type ErrorResponse struct {
	Error string `json:"detail"`
}

type ScaleRequestBody struct {
	Type string `json:"type"`
	// optional, the selected note is used otherwise
	Root string `json:"root,omitempty"`
}

type ChordRequestBody struct {
	Symbol string `json:"symbol"`
}

type NoteRequestBody struct {
	Color string `json:"color,omitempty"`
}

type TuningRequestBody struct {
	Preset string   `json:"preset,omitempty"`
	Notes  []string `json:"notes,omitempty"`
}

type FretsRequestBody struct {
	Count int `json:"count"`
}

type BoardResponse struct {
	fretboard.State
	Active []string      `json:"active"`
	Scene  *render.Scene `json:"scene,omitempty"`
}

// ToggleResponse is the board after a click plus what happened at the clicked
// position.
type ToggleResponse struct {
	BoardResponse
	Position board.Position `json:"position"`
	Pitch    string         `json:"pitch"`
	Lit      bool           `json:"lit"`
}

type ImportResponse struct {
	Imported []string `json:"imported"`
	Chords   int      `json:"chords"`
}

type PresetsResponse struct {
	Presets []string `json:"presets"`
}
