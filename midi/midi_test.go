package midi

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/fretboard/note"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func cMajor() []note.Pitch {
	return []note.Pitch{note.MustParse("G4"), note.MustParse("C4"), note.MustParse("E4"), note.MustParse("C4")}
}

func TestExportThenReadPitches(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, cMajor()))

	s, err := ReadMidi(&buf)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal([]note.Pitch{60, 64, 67}, Pitches(s))
	assert.Len(s.Tracks, 1)
}

func TestExportedChords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, cMajor()))
	s, err := ReadMidi(&buf)
	require.NoError(t, err)

	chords := Chords(s)

	assert := assert.New(t)
	// three arpeggiated notes, then the triad together
	require.Len(t, chords, 4)
	assert.Equal([]note.Pitch{60}, chords[0].Pitches)
	assert.Equal([]note.Pitch{64}, chords[1].Pitches)
	assert.Equal([]note.Pitch{67}, chords[2].Pitches)
	assert.Equal([]note.Pitch{60, 64, 67}, chords[3].Pitches)
	assert.Less(chords[0].Offset, chords[1].Offset)
}

func TestChordsTreatZeroVelocityAsNoteOff(t *testing.T) {
	var track smf.Track
	track.Add(0, midi.NoteOn(0, 60, 90))
	track.Add(0, midi.NoteOn(0, 64, 90))
	track.Add(480, midi.NoteOn(0, 60, 0))
	track.Add(480, midi.NoteOff(0, 64))
	track.Close(0)
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)
	require.NoError(t, s.Add(track))

	chords := Chords(s)
	require.Len(t, chords, 2)
	assert.Equal(t, []note.Pitch{60, 64}, chords[0].Pitches)
	assert.Equal(t, []note.Pitch{64}, chords[1].Pitches)
	assert.Equal(t, []note.Pitch{60, 64}, Pitches(s))
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, nil))
	s, err := ReadMidi(&buf)
	require.NoError(t, err)
	assert.Empty(t, Pitches(s))
	assert.Empty(t, Chords(s))
}

func TestExportRejectsOutOfRange(t *testing.T) {
	err := Export(&bytes.Buffer{}, []note.Pitch{60, 128})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestReadMidiRejectsGarbage(t *testing.T) {
	_, err := ReadMidi(bytes.NewReader([]byte("definitely not a midi file")))
	assert.Error(t, err)
}

func TestReadMidiFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triad.mid")
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, cMajor()))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	s, err := ReadMidiFile(path)
	require.NoError(t, err)
	assert.Len(t, Pitches(s), 3)

	_, err = ReadMidiFile(filepath.Join(t.TempDir(), "missing.mid"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
