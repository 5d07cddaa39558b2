package highlight

import (
	"testing"

	"github.com/jsphweid/fretboard/chord"
	"github.com/jsphweid/fretboard/note"
	"github.com/stretchr/testify/assert"
)

func pitch(t *testing.T, name string) note.Pitch {
	p, err := note.Parse(name)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestEnableThenIsActive(t *testing.T) {
	s := New("brown")
	g2 := pitch(t, "G2")

	assert := assert.New(t)
	assert.False(s.IsActive(g2))
	s.Enable(g2, "red")
	assert.True(s.IsActive(g2))
	assert.Equal("red", s.ColorOf(g2))

	// idempotent overwrite
	s.Enable(g2, "blue")
	assert.Equal("blue", s.ColorOf(g2))
	assert.Equal(1, s.Len())
}

func TestColorOfFallsBackToDefault(t *testing.T) {
	s := New("brown")
	assert.Equal(t, "brown", s.ColorOf(pitch(t, "A1")))
}

func TestEnharmonicsShareState(t *testing.T) {
	s := New("brown")
	s.Enable(pitch(t, "C#2"), "green")
	assert.True(t, s.IsActive(pitch(t, "Db2")))
}

func TestEnableSetThenClear(t *testing.T) {
	s := New("brown")
	triad, _, err := chord.ParseChord("C4 major")
	assert := assert.New(t)
	assert.Nil(err)

	s.EnableSet(triad, "orange")
	for _, p := range triad {
		assert.True(s.IsActive(p))
		assert.Equal("orange", s.ColorOf(p))
	}

	s.Clear()
	for _, p := range triad {
		assert.False(s.IsActive(p))
	}
}

func TestEnableClassesLightsEveryOctave(t *testing.T) {
	s := New("brown")
	var classes []note.Class
	for _, name := range []string{"C", "E", "G"} {
		c, _ := note.ParseClass(name)
		classes = append(classes, c)
	}
	s.EnableClasses(classes, "orange")

	assert := assert.New(t)
	assert.True(s.IsActive(pitch(t, "C2")))
	assert.True(s.IsActive(pitch(t, "E3")))
	assert.True(s.IsActive(pitch(t, "G1")))
	assert.False(s.IsActive(pitch(t, "D2")))
	assert.Equal("orange", s.ColorOf(pitch(t, "G1")))

	s.Clear()
	assert.False(s.IsActive(pitch(t, "C2")))
}

func TestExactPitchColorWinsOverClass(t *testing.T) {
	s := New("brown")
	s.EnableClasses([]note.Class{0}, "orange")
	s.Enable(pitch(t, "C3"), "red")

	assert := assert.New(t)
	assert.Equal("red", s.ColorOf(pitch(t, "C3")))
	assert.Equal("orange", s.ColorOf(pitch(t, "C2")))
}

func TestDisableSinglePositionOfLitClass(t *testing.T) {
	s := New("brown")
	s.EnableClasses([]note.Class{0}, "orange")
	s.Disable(pitch(t, "C3"))

	assert := assert.New(t)
	assert.False(s.IsActive(pitch(t, "C3")))
	assert.True(s.IsActive(pitch(t, "C2")))

	// re-enabling the class brings it back
	s.EnableClasses([]note.Class{0}, "orange")
	assert.True(s.IsActive(pitch(t, "C3")))
}

func TestEnableClassesKeepsOtherMutedPitchesOff(t *testing.T) {
	s := New("brown")
	g2 := pitch(t, "G2")
	s.EnableClasses([]note.Class{0, 7}, "orange")
	s.Disable(g2)

	s.EnableClasses([]note.Class{4}, "steelblue")

	assert := assert.New(t)
	assert.False(s.IsActive(g2))
	assert.True(s.IsActive(pitch(t, "G1")))
	assert.True(s.IsActive(pitch(t, "E2")))

	s.EnableClasses([]note.Class{7}, "orange")
	assert.True(s.IsActive(g2))
}

func TestSelectOnlyOnce(t *testing.T) {
	s := New("brown")
	a1, e1 := pitch(t, "A1"), pitch(t, "E1")

	assert := assert.New(t)
	assert.True(s.Select(a1))
	assert.True(s.IsActive(a1))
	assert.Equal("brown", s.ColorOf(a1))

	assert.False(s.Select(e1))
	assert.False(s.IsActive(e1))
	selected, ok := s.Selected()
	assert.True(ok)
	assert.Equal(a1, selected)

	s.Clear()
	_, ok = s.Selected()
	assert.False(ok)
	assert.True(s.Select(e1))
}

func TestDisableSelectedDropsSelection(t *testing.T) {
	s := New("brown")
	a1 := pitch(t, "A1")
	s.Select(a1)
	s.Disable(a1)

	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestSnapshotRestore(t *testing.T) {
	s := New("brown")
	s.Select(pitch(t, "A1"))
	s.Enable(pitch(t, "E2"), "orange")
	s.EnableClasses([]note.Class{7}, "steelblue")
	s.Disable(pitch(t, "G2"))

	restored := New("brown")
	restored.Restore(s.Snapshot())

	assert := assert.New(t)
	assert.Equal(s.Snapshot(), restored.Snapshot())
	assert.False(restored.IsActive(pitch(t, "G2")))
	assert.True(restored.IsActive(pitch(t, "G1")))
	selected, ok := restored.Selected()
	assert.True(ok)
	assert.Equal("A1", selected.String())
}

func TestActiveListsAreSorted(t *testing.T) {
	s := New("brown")
	s.Enable(pitch(t, "E2"), "")
	s.Enable(pitch(t, "C2"), "")
	s.EnableClasses([]note.Class{9}, "")

	assert := assert.New(t)
	assert.Equal([]string{"C2", "E2"}, []string{s.Active()[0].String(), s.Active()[1].String()})
	assert.Equal([]note.Class{0, 4, 9}, s.ActiveClasses())
}
