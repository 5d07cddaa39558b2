package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jsphweid/fretboard/board"
	"github.com/jsphweid/fretboard/config"
	"github.com/jsphweid/fretboard/note"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardConfigOverrides(t *testing.T) {
	fb := config.DefaultConfig().Fretboard
	assert := assert.New(t)

	got, err := boardConfig(fb, []string{"G2", "D2", "A1", "D1"}, "", 5)
	require.NoError(t, err)
	assert.Equal([]string{"G2", "D2", "A1", "D1"}, got.Tuning)
	assert.Equal(fb.Strings, got.Strings)
	assert.Equal(5, got.Frets)
	assert.Equal([]string{"G2", "D2", "A1", "E1"}, fb.Tuning)

	got, err = boardConfig(fb, nil, "drop-d", 0)
	require.NoError(t, err)
	assert.Equal(fb.Tunings["drop-d"], got.Tuning)
	assert.Equal(fb.Frets, got.Frets)

	_, err = boardConfig(fb, nil, "banjo", 0)
	assert.Error(err)
}

func TestBoardConfigRejectsWrongStringCount(t *testing.T) {
	fb := config.DefaultConfig().Fretboard
	_, err := boardConfig(fb, []string{"E4", "B3", "G3", "D3", "A2", "E2"}, "", 0)
	assert.ErrorIs(t, err, board.ErrInvalidTuning)
}

func TestPrintBoard(t *testing.T) {
	tuning := []note.Pitch{note.MustParse("G2"), note.MustParse("D2")}
	b, err := board.Build(tuning, 2, 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printBoard(&buf, b, note.Sharps))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"0", "1", "2", "3"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"G2", "G#2", "A2", "A#2"}, strings.Fields(lines[1]))
}
