package note

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := map[string]Pitch{
		"C4":  60,
		"c4":  60,
		"A4":  69,
		"G2":  43,
		"E1":  28,
		"D#2": 39,
		"Eb2": 39,
		"bb1": 34,
		"B#3": 60,
		"Cb4": 59,
		"C-1": 0,
	}
	for name, want := range cases {
		t.Run(fmt.Sprintf("parse %v", name), func(t *testing.T) {
			got, err := Parse(name)
			assert := assert.New(t)
			assert.Nil(err)
			assert.Equal(want, got)
		})
	}
}

func TestParseRejectsBadNames(t *testing.T) {
	for _, name := range []string{"", "H2", "G", "C#x", "2"} {
		_, err := Parse(name)
		assert.True(t, errors.Is(err, ErrInvalidName), name)
	}
}

func TestParseClassDropsOctave(t *testing.T) {
	assert := assert.New(t)
	c, err := ParseClass("Eb5")
	assert.Nil(err)
	assert.Equal(Class(3), c)

	c, err = ParseClass("G")
	assert.Nil(err)
	assert.Equal(Class(7), c)
}

func TestNames(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("G2", Pitch(43).Name(Sharps))
	assert.Equal("A#1", Pitch(34).Name(Sharps))
	assert.Equal("Bb1", Pitch(34).Name(Flats))
	assert.Equal("C-1", Pitch(0).String())
	assert.Equal(-1, Pitch(0).Octave())
	assert.Equal(-2, Pitch(-1).Octave())
}

func TestEnharmonic(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("Db2", Enharmonic("C#2"))
	assert.Equal("C#2", Enharmonic("Db2"))
	assert.Equal("A#", Enharmonic("Bb"))
	assert.Equal("", Enharmonic("G2"))
	assert.Equal("", Enharmonic("nope"))
}

func TestEnharmonicSpellingsShareIdentity(t *testing.T) {
	sharp, _ := Parse("C#2")
	flat, _ := Parse("Db2")
	assert.Equal(t, sharp, flat)
}

func TestChromatic(t *testing.T) {
	assert := assert.New(t)
	root, _ := Parse("G2")
	notes := Chromatic(root, 13)
	assert.Len(notes, 13)
	assert.Equal("G2", notes[0].String())
	assert.Equal("C3", notes[5].String())
	assert.Equal("G3", notes[12].String())
	assert.Nil(Chromatic(root, 0))
}

func TestClassesDeduplicates(t *testing.T) {
	got := Classes([]Pitch{60, 64, 72, 67})
	assert.Equal(t, []Class{0, 4, 7}, got)
}
