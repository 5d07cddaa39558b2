package note

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidName = errors.New("invalid note name")

// Pitch is a semitone number using MIDI numbering (C-1 = 0, C4 = 60).
// Enharmonic spellings parse to the same Pitch, so it is safe to use as a map key.
type Pitch int

// Class is a pitch class, 0 (C) to 11 (B).
type Class int

type Spelling int

const (
	Sharps Spelling = iota
	Flats
)

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
var flatNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

var letterClasses = map[rune]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

func ParseSpelling(s string) (Spelling, error) {
	switch strings.ToLower(s) {
	case "", "sharps", "sharp", "#":
		return Sharps, nil
	case "flats", "flat", "b":
		return Flats, nil
	}
	return Sharps, fmt.Errorf("unknown spelling %q", s)
}

func (s Spelling) String() string {
	if s == Flats {
		return "flats"
	}
	return "sharps"
}

func mod12(n int) int {
	return ((n % 12) + 12) % 12
}

func (c Class) Name(sp Spelling) string {
	if sp == Flats {
		return flatNames[mod12(int(c))]
	}
	return sharpNames[mod12(int(c))]
}

func (c Class) String() string {
	return c.Name(Sharps)
}

func (p Pitch) Class() Class {
	return Class(mod12(int(p)))
}

func (p Pitch) Octave() int {
	return floorDiv(int(p), 12) - 1
}

func (p Pitch) Transpose(semitones int) Pitch {
	return p + Pitch(semitones)
}

// Name returns the simplified scientific pitch name, e.g. "G2" or "Bb1".
func (p Pitch) Name(sp Spelling) string {
	return p.Class().Name(sp) + strconv.Itoa(p.Octave())
}

func (p Pitch) String() string {
	return p.Name(Sharps)
}

func FromClass(c Class, octave int) Pitch {
	return Pitch((octave+1)*12 + mod12(int(c)))
}

type parsed struct {
	class     int
	octave    int
	hasOctave bool
}

func parse(name string) (parsed, error) {
	var res parsed
	s := strings.TrimSpace(name)
	if s == "" {
		return res, fmt.Errorf("%w: empty", ErrInvalidName)
	}
	runes := []rune(s)
	letter := []rune(strings.ToUpper(string(runes[0])))[0]
	base, ok := letterClasses[letter]
	if !ok {
		return res, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	// accidentals may spill over the octave boundary (B#3 == C4), so keep an offset
	offset := 0
	i := 1
	for ; i < len(runes); i++ {
		switch runes[i] {
		case '#':
			offset++
			continue
		case 'b':
			offset--
			continue
		}
		break
	}

	res.class = mod12(base + offset)
	rest := string(runes[i:])
	if rest == "" {
		return res, nil
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return res, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	res.hasOctave = true
	// the octave belongs to the written letter, so Cb4 sounds as B3
	res.octave = octave + floorDiv(base+offset, 12)
	return res, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Parse reads a pitch with octave, e.g. "G2", "d#3", "Bb1".
func Parse(name string) (Pitch, error) {
	p, err := parse(name)
	if err != nil {
		return 0, err
	}
	if !p.hasOctave {
		return 0, fmt.Errorf("%w: %q has no octave", ErrInvalidName, name)
	}
	return FromClass(Class(p.class), p.octave), nil
}

// MustParse is Parse for names known at compile time.
func MustParse(name string) Pitch {
	p, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseClass reads a pitch class, dropping the octave if there is one.
func ParseClass(name string) (Class, error) {
	p, err := parse(name)
	if err != nil {
		return 0, err
	}
	return Class(p.class), nil
}

func ParseAll(names []string) ([]Pitch, error) {
	res := make([]Pitch, 0, len(names))
	for _, n := range names {
		p, err := Parse(n)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

// Enharmonic returns the other simplified spelling of name, or "" for
// naturals and invalid names.
func Enharmonic(name string) string {
	p, err := parse(name)
	if err != nil {
		return ""
	}
	sharp, flat := sharpNames[p.class], flatNames[p.class]
	if sharp == flat {
		return ""
	}
	other := sharp
	if strings.ContainsRune(name, '#') {
		other = flat
	}
	if !p.hasOctave {
		return other
	}
	return other + strconv.Itoa(p.octave)
}

// Chromatic returns n ascending semitones starting at root.
func Chromatic(root Pitch, n int) []Pitch {
	if n <= 0 {
		return nil
	}
	res := make([]Pitch, n)
	for i := range res {
		res[i] = root + Pitch(i)
	}
	return res
}

func Classes(pitches []Pitch) []Class {
	seen := make(map[Class]bool)
	var res []Class
	for _, p := range pitches {
		c := p.Class()
		if !seen[c] {
			seen[c] = true
			res = append(res, c)
		}
	}
	return res
}
