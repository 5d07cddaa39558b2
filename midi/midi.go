package midi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jsphweid/fretboard/constants"
	"github.com/jsphweid/fretboard/note"
	"github.com/jsphweid/fretboard/util"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func ReadMidiFile(filepath string) (*smf.SMF, error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading midi file: %w", err)
	}
	return ReadMidi(bytes.NewReader(dat))
}

func ReadMidi(r io.Reader) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if rec := recover(); rec != nil {
			s = nil
			e = fmt.Errorf("error parsing midi file: %v", rec)
		}
	}()

	res, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing midi file: %w", err)
	}
	return res, nil
}

// Pitches lists every distinct key that is struck anywhere in s, lowest first.
func Pitches(s *smf.SMF) []note.Pitch {
	seen := make(map[note.Pitch]bool)
	for _, track := range s.Tracks {
		for _, event := range track {
			var channel, key, velocity uint8
			if midi.Message(event.Message).GetNoteStart(&channel, &key, &velocity) {
				seen[note.Pitch(key)] = true
			}
		}
	}
	return util.SortedKeys(seen)
}

// Chord is the set of keys held down at one moment.
type Chord struct {
	// microseconds from the start of the file
	Offset  int64
	Pitches []note.Pitch
}

type reducedEvent struct {
	offset    int64
	isNoteOff bool
	key       uint8
}

// Chords walks s in time order and returns the held keys after every
// change, skipping moments of silence.
func Chords(s *smf.SMF) []Chord {
	var events []reducedEvent
	for _, track := range s.Tracks {
		var absTicks int64
		for _, event := range track {
			absTicks += int64(event.Delta)
			// note-ons with velocity 0 count as note ends
			msg := midi.Message(event.Message)
			var channel, key, velocity uint8
			switch {
			case msg.GetNoteStart(&channel, &key, &velocity):
				events = append(events, reducedEvent{s.TimeAt(absTicks), false, key})
			case msg.GetNoteEnd(&channel, &key):
				events = append(events, reducedEvent{s.TimeAt(absTicks), true, key})
			}
		}
	}

	// earlier first, note offs before note ons at the same moment
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].offset != events[j].offset {
			return events[i].offset < events[j].offset
		}
		return events[i].isNoteOff && !events[j].isNoteOff
	})

	var res []Chord
	pressed := make(map[note.Pitch]bool)
	for i, evt := range events {
		if evt.isNoteOff {
			delete(pressed, note.Pitch(evt.key))
		} else {
			pressed[note.Pitch(evt.key)] = true
		}
		// only the last event at a given moment produces a chord
		if i+1 < len(events) && events[i+1].offset == evt.offset {
			continue
		}
		if len(pressed) > 0 {
			res = append(res, Chord{Offset: evt.offset, Pitches: util.SortedKeys(pressed)})
		}
	}
	return res
}

var ErrOutOfRange = errors.New("pitch outside the midi range")

// Export writes pitches as a one-track file: an ascending arpeggio of
// quarter notes followed by everything struck together as a half note.
func Export(w io.Writer, pitches []note.Pitch) error {
	sorted := util.Dedupe(pitches)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	for _, p := range sorted {
		if p < 0 || p > 127 {
			return fmt.Errorf("%w: %v", ErrOutOfRange, p)
		}
	}

	const (
		channel  = 0
		velocity = 100
		quarter  = constants.TicksPerQuarter
	)

	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName("fretboard"))
	for _, p := range sorted {
		track.Add(0, midi.NoteOn(channel, uint8(p), velocity))
		track.Add(quarter, midi.NoteOff(channel, uint8(p)))
	}
	for _, p := range sorted {
		track.Add(0, midi.NoteOn(channel, uint8(p), velocity))
	}
	for i, p := range sorted {
		var delta uint32
		if i == 0 {
			delta = 2 * quarter
		}
		track.Add(delta, midi.NoteOff(channel, uint8(p)))
	}
	track.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(quarter)
	if err := s.Add(track); err != nil {
		return fmt.Errorf("could not add track: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("could not write midi: %w", err)
	}
	return nil
}
