package chord

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jsphweid/fretboard/note"
)

var ErrUnknownType = errors.New("unknown chord or scale type")

type Quality int

const (
	Other Quality = iota
	Major
	Minor
)

func (q Quality) String() string {
	switch q {
	case Major:
		return "major"
	case Minor:
		return "minor"
	}
	return "other"
}

type formula struct {
	intervals []int
	quality   Quality
}

var chords = map[string]formula{
	"major": {[]int{0, 4, 7}, Major},
	"minor": {[]int{0, 3, 7}, Minor},
	"dim":   {[]int{0, 3, 6}, Other},
	"aug":   {[]int{0, 4, 8}, Other},
	"sus2":  {[]int{0, 2, 7}, Other},
	"sus4":  {[]int{0, 5, 7}, Other},
	"maj7":  {[]int{0, 4, 7, 11}, Major},
	"m7":    {[]int{0, 3, 7, 10}, Minor},
	"7":     {[]int{0, 4, 7, 10}, Major},
	"m7b5":  {[]int{0, 3, 6, 10}, Other},
	"dim7":  {[]int{0, 3, 6, 9}, Other},
}

// symbols accepted after the root in ParseChord, e.g. "Cmaj7", "F#m", "Bb"
var chordAliases = map[string]string{
	"":      "major",
	"M":     "major",
	"maj":   "major",
	"m":     "minor",
	"min":   "minor",
	"o":     "dim",
	"+":     "aug",
	"M7":    "maj7",
	"Maj7":  "maj7",
	"min7":  "m7",
	"dom7":  "7",
	"ø":     "m7b5",
	"o7":    "dim7",
	"major": "major",
	"minor": "minor",
}

var scales = map[string]formula{
	"major":            {[]int{0, 2, 4, 5, 7, 9, 11}, Major},
	"minor":            {[]int{0, 2, 3, 5, 7, 8, 10}, Minor},
	"harmonic minor":   {[]int{0, 2, 3, 5, 7, 8, 11}, Minor},
	"melodic minor":    {[]int{0, 2, 3, 5, 7, 9, 11}, Minor},
	"dorian":           {[]int{0, 2, 3, 5, 7, 9, 10}, Minor},
	"phrygian":         {[]int{0, 1, 3, 5, 7, 8, 10}, Minor},
	"lydian":           {[]int{0, 2, 4, 6, 7, 9, 11}, Major},
	"mixolydian":       {[]int{0, 2, 4, 5, 7, 9, 10}, Major},
	"locrian":          {[]int{0, 1, 3, 5, 6, 8, 10}, Other},
	"major pentatonic": {[]int{0, 2, 4, 7, 9}, Major},
	"minor pentatonic": {[]int{0, 3, 5, 7, 10}, Minor},
	"blues":            {[]int{0, 3, 5, 6, 7, 10}, Minor},
	"chromatic":        {[]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, Other},
}

var scaleAliases = map[string]string{
	"ionian":     "major",
	"aeolian":    "minor",
	"pentatonic": "major pentatonic",
}

func build(root note.Pitch, f formula) []note.Pitch {
	res := make([]note.Pitch, len(f.intervals))
	for i, iv := range f.intervals {
		res[i] = root.Transpose(iv)
	}
	return res
}

func lookupScale(name string) (formula, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := scaleAliases[name]; ok {
		name = alias
	}
	f, ok := scales[name]
	return f, ok
}

func lookupChord(name string) (formula, bool) {
	name = strings.TrimSpace(name)
	if alias, ok := chordAliases[name]; ok {
		name = alias
	}
	f, ok := chords[name]
	if !ok {
		f, ok = chords[strings.ToLower(name)]
	}
	return f, ok
}

// Chord returns one octave of the arpeggio built on root.
func Chord(root note.Pitch, name string) ([]note.Pitch, error) {
	f, ok := lookupChord(name)
	if !ok {
		return nil, fmt.Errorf("%w: chord %q", ErrUnknownType, name)
	}
	return build(root, f), nil
}

// Scale returns one octave of the scale starting at root.
func Scale(root note.Pitch, name string) ([]note.Pitch, error) {
	f, ok := lookupScale(name)
	if !ok {
		return nil, fmt.Errorf("%w: scale %q", ErrUnknownType, name)
	}
	return build(root, f), nil
}

func ScaleQuality(name string) Quality {
	f, _ := lookupScale(name)
	return f.quality
}

func ChordQuality(name string) Quality {
	f, _ := lookupChord(name)
	return f.quality
}

// splitRoot separates "F#m7" into "F#" and "m7". Compact symbols never carry
// an octave, "A2 minor" style symbols do.
func splitRoot(symbol string) (string, string) {
	s := strings.TrimSpace(symbol)
	if fields := strings.Fields(s); len(fields) > 1 {
		return fields[0], strings.Join(fields[1:], " ")
	}
	if s == "" {
		return "", ""
	}
	i := 1
	for i < len(s) && (s[i] == '#' || s[i] == 'b') {
		i++
	}
	return s[:i], s[i:]
}

// ParseChord reads a chord symbol such as "Cmaj7", "F#m", "A2 minor" or "Bb".
// A root without octave is placed in octave 4.
func ParseChord(symbol string) ([]note.Pitch, Quality, error) {
	root, rest := splitRoot(symbol)
	p, err := parseRoot(root)
	if err != nil {
		return nil, Other, err
	}
	name := strings.TrimSpace(rest)
	f, ok := lookupChord(name)
	if !ok {
		return nil, Other, fmt.Errorf("%w: chord %q", ErrUnknownType, symbol)
	}
	return build(p, f), f.quality, nil
}

// ParseScale reads "C5 pentatonic", "A minor" and the like.
func ParseScale(symbol string) ([]note.Pitch, Quality, error) {
	fields := strings.Fields(symbol)
	if len(fields) < 2 {
		return nil, Other, fmt.Errorf("%w: scale %q", ErrUnknownType, symbol)
	}
	p, err := parseRoot(fields[0])
	if err != nil {
		return nil, Other, err
	}
	f, ok := lookupScale(strings.Join(fields[1:], " "))
	if !ok {
		return nil, Other, fmt.Errorf("%w: scale %q", ErrUnknownType, symbol)
	}
	return build(p, f), f.quality, nil
}

func parseRoot(root string) (note.Pitch, error) {
	if p, err := note.Parse(root); err == nil {
		return p, nil
	}
	c, err := note.ParseClass(root)
	if err != nil {
		return 0, err
	}
	return note.FromClass(c, 4), nil
}

// Key turns a set of pitch classes into a stable lookup key, e.g. "0-4-7".
func Key(classes []note.Class) string {
	sorted := append([]note.Class(nil), classes...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	var res string
	for i, c := range sorted {
		res += fmt.Sprintf("%v", int(c))
		if i < len(sorted)-1 {
			res += "-"
		}
	}
	return res
}

var byKey = func() map[string]string {
	m := make(map[string]string)
	for name, f := range chords {
		var classes []note.Class
		for _, iv := range f.intervals {
			classes = append(classes, note.Class(iv))
		}
		m[Key(classes)] = name
	}
	return m
}()

// Identify names the chord formed by classes, trying every class as the root.
// It returns "" when the set matches no known chord.
func Identify(classes []note.Class, sp note.Spelling) string {
	if len(classes) < 3 {
		return ""
	}
	for _, root := range classes {
		rel := make([]note.Class, len(classes))
		for i, c := range classes {
			rel[i] = note.Class(((int(c)-int(root))%12 + 12) % 12)
		}
		if name, ok := byKey[Key(rel)]; ok {
			return root.Name(sp) + " " + name
		}
	}
	return ""
}

func ScaleNames() []string {
	return sortedNames(scales)
}

func ChordNames() []string {
	return sortedNames(chords)
}

func sortedNames(m map[string]formula) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}
