package constants

import "os"

func GetConfigPath() string {
	path := os.Getenv("FRETBOARD_CONFIG")
	if path != "" {
		return path
	}
	return "./fretboard.yaml"
}

func GetOutDir() string {
	path := os.Getenv("FRETBOARD_OUT")
	if path != "" {
		return path
	}
	return "./out"
}

const SessionCookie = "fretboard_session"

// MIDI uploads larger than this are rejected before parsing
const MaxUploadSize = 4 * 1024 * 1024

const MaxFrets = 36

// ticks per quarter note for exported MIDI files
const TicksPerQuarter = 480
