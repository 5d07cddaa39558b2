package highlight

import (
	"github.com/jsphweid/fretboard/note"
	"github.com/jsphweid/fretboard/util"
)

// State records which pitches are lit and in what color. A pitch is lit when
// it is enabled directly or when its pitch class is.
//
// State is not safe for concurrent use; fretboard.Instance serialises access.
type State struct {
	defaultColor string
	pitches      map[note.Pitch]string
	classes      map[note.Class]string
	// pitches switched off while their class is lit
	muted    map[note.Pitch]bool
	selected *note.Pitch
}

func New(defaultColor string) *State {
	return &State{
		defaultColor: defaultColor,
		pitches:      make(map[note.Pitch]string),
		classes:      make(map[note.Class]string),
		muted:        make(map[note.Pitch]bool),
	}
}

func (s *State) DefaultColor() string {
	return s.defaultColor
}

func (s *State) Enable(p note.Pitch, color string) {
	if color == "" {
		color = s.defaultColor
	}
	s.pitches[p] = color
	delete(s.muted, p)
}

func (s *State) EnableSet(pitches []note.Pitch, color string) {
	for _, p := range pitches {
		s.Enable(p, color)
	}
}

// EnableClasses lights every octave of the given classes.
func (s *State) EnableClasses(classes []note.Class, color string) {
	if color == "" {
		color = s.defaultColor
	}
	lit := make(map[note.Class]bool, len(classes))
	for _, c := range classes {
		s.classes[c] = color
		lit[c] = true
	}
	// only the classes named here come back on
	for p := range s.muted {
		if lit[p.Class()] {
			delete(s.muted, p)
		}
	}
}

// Disable turns p off, including when it was lit through its pitch class.
// Other octaves of that class stay lit.
func (s *State) Disable(p note.Pitch) {
	delete(s.pitches, p)
	if _, ok := s.classes[p.Class()]; ok {
		s.muted[p] = true
	}
	if s.selected != nil && *s.selected == p {
		s.selected = nil
	}
}

func (s *State) IsActive(p note.Pitch) bool {
	_, ok := s.ColorFor(p)
	return ok
}

// ColorFor returns the color p is lit with, preferring an exact pitch match
// over a pitch class match.
func (s *State) ColorFor(p note.Pitch) (string, bool) {
	if color, ok := s.pitches[p]; ok {
		return color, true
	}
	if s.muted[p] {
		return "", false
	}
	if color, ok := s.classes[p.Class()]; ok {
		return color, true
	}
	return "", false
}

// ColorOf is ColorFor falling back to the default note color.
func (s *State) ColorOf(p note.Pitch) string {
	if color, ok := s.ColorFor(p); ok {
		return color
	}
	return s.defaultColor
}

func (s *State) Clear() {
	s.pitches = make(map[note.Pitch]string)
	s.classes = make(map[note.Class]string)
	s.muted = make(map[note.Pitch]bool)
	s.selected = nil
}

// Select makes p the root for scale and arpeggio generation. Only one pitch
// can be selected at a time; Select reports false and changes nothing when
// a selection already exists.
func (s *State) Select(p note.Pitch) bool {
	if s.selected != nil {
		return false
	}
	s.selected = &p
	s.Enable(p, s.defaultColor)
	return true
}

func (s *State) Selected() (note.Pitch, bool) {
	if s.selected == nil {
		return 0, false
	}
	return *s.selected, true
}

func (s *State) Len() int {
	return len(s.pitches) + len(s.classes)
}

type Snapshot struct {
	Pitches  map[string]string `json:"pitches" yaml:"pitches"`
	Classes  map[string]string `json:"classes" yaml:"classes"`
	Muted    []string          `json:"muted,omitempty" yaml:"muted,omitempty"`
	Selected string            `json:"selected,omitempty" yaml:"selected,omitempty"`
}

func (s *State) Snapshot() Snapshot {
	res := Snapshot{
		Pitches: make(map[string]string, len(s.pitches)),
		Classes: make(map[string]string, len(s.classes)),
	}
	for p, color := range s.pitches {
		res.Pitches[p.String()] = color
	}
	for c, color := range s.classes {
		res.Classes[c.String()] = color
	}
	for _, p := range util.SortedKeys(s.muted) {
		res.Muted = append(res.Muted, p.String())
	}
	if s.selected != nil {
		res.Selected = s.selected.String()
	}
	return res
}

// Restore replaces the state with snap. Entries that do not parse are skipped.
func (s *State) Restore(snap Snapshot) {
	s.Clear()
	for name, color := range snap.Pitches {
		if p, err := note.Parse(name); err == nil {
			s.pitches[p] = color
		}
	}
	for name, color := range snap.Classes {
		if c, err := note.ParseClass(name); err == nil {
			s.classes[c] = color
		}
	}
	for _, name := range snap.Muted {
		if p, err := note.Parse(name); err == nil {
			s.muted[p] = true
		}
	}
	if p, err := note.Parse(snap.Selected); err == nil {
		s.selected = &p
	}
}

// Active lists the individually enabled pitches in ascending order.
func (s *State) Active() []note.Pitch {
	return util.SortedKeys(s.pitches)
}

// ActiveClasses lists every pitch class that has something lit.
func (s *State) ActiveClasses() []note.Class {
	seen := make(map[note.Class]bool)
	for c := range s.classes {
		seen[c] = true
	}
	for p := range s.pitches {
		seen[p.Class()] = true
	}
	return util.SortedKeys(seen)
}
