package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jsphweid/fretboard/board"
	"github.com/jsphweid/fretboard/config"
	"github.com/jsphweid/fretboard/note"
	"github.com/spf13/cobra"
)

var (
	boardTuning []string
	boardPreset string
	boardFrets  int
)

func init() {
	boardCmd.Flags().StringSliceVar(&boardTuning, "tuning", nil, "open strings, highest first, one per configured string, e.g. G2,D2,A1,E1")
	boardCmd.Flags().StringVar(&boardPreset, "preset", "", "named tuning from the config")
	boardCmd.Flags().IntVar(&boardFrets, "frets", 0, "number of frets, defaults to fretboard.frets")
	rootCmd.AddCommand(boardCmd)
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Prints the note board",
	Long:  `Prints the pitch at every string and fret for a tuning.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fb, err := boardConfig(cfg.Fretboard, boardTuning, boardPreset, boardFrets)
		if err != nil {
			return err
		}
		tuning, err := note.ParseAll(fb.Tuning)
		if err != nil {
			return fmt.Errorf("%w: %v", board.ErrInvalidTuning, err)
		}
		b, err := board.Build(tuning, fb.Strings, fb.Frets)
		if err != nil {
			return err
		}
		return printBoard(cmd.OutOrStdout(), b, fb.SpellingMode())
	},
}

// boardConfig applies command line overrides to a copy of the configured board.
func boardConfig(fb config.Fretboard, tuning []string, preset string, frets int) (config.Fretboard, error) {
	res := fb.Clone()
	if preset != "" {
		notes, ok := fb.Tunings[preset]
		if !ok {
			return res, fmt.Errorf("unknown tuning %q", preset)
		}
		res.Tuning = notes
	}
	if len(tuning) > 0 {
		if len(tuning) != res.Strings {
			return res, fmt.Errorf("%w: %d notes for %d strings", board.ErrInvalidTuning, len(tuning), res.Strings)
		}
		res.Tuning = tuning
	}
	if frets > 0 {
		res.Frets = frets
	}
	return res, nil
}

func printBoard(w io.Writer, b board.Board, sp note.Spelling) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := make([]string, 0, b.Frets()+1)
	for j := 0; j <= b.Frets(); j++ {
		header = append(header, fmt.Sprint(j))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range b.Names(sp) {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
