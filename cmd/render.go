package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/fretboard/config"
	"github.com/jsphweid/fretboard/fretboard"
	"github.com/jsphweid/fretboard/midi"
	"github.com/jsphweid/fretboard/note"
	"github.com/jsphweid/fretboard/render"
	"github.com/jsphweid/fretboard/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type renderOptions struct {
	format string
	out    string
	chord  string
	scale  string
	notes  []string
}

var renderOpts renderOptions

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderOpts.format, "format", "", "svg, png or mid; guessed from --out when empty")
	f.StringVar(&renderOpts.out, "out", "fretboard.svg", "output file, relative names go to the output dir")
	f.StringVar(&renderOpts.chord, "chord", "", `chord symbol to light, e.g. "Cmaj7"`)
	f.StringVar(&renderOpts.scale, "scale", "", `scale to light, e.g. "A minor pentatonic"`)
	f.StringSliceVar(&renderOpts.notes, "notes", nil, "exact pitches to light, e.g. C2,E2,G2")
	f.StringSliceVar(&boardTuning, "tuning", nil, "open strings, highest first, one per configured string")
	f.StringVar(&boardPreset, "preset", "", "named tuning from the config")
	f.IntVar(&boardFrets, "frets", 0, "number of frets")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Renders the fretboard to a file",
	Long:  `Renders the fretboard with the requested notes lit to SVG, PNG or MIDI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fb, err := boardConfig(cfg.Fretboard, boardTuning, boardPreset, boardFrets)
		if err != nil {
			return err
		}
		path, err := util.OutputPath(renderOpts.out)
		if err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("could not create %v: %w", path, err)
		}
		defer f.Close()

		if err := renderTo(f, fb, renderOpts, logger); err != nil {
			return err
		}
		logger.Info("rendered", zap.String("path", path))
		return nil
	},
}

func formatFor(opts renderOptions) string {
	if opts.format != "" {
		return strings.ToLower(opts.format)
	}
	switch strings.ToLower(filepath.Ext(opts.out)) {
	case ".png":
		return "png"
	case ".mid", ".midi":
		return "mid"
	}
	return "svg"
}

func renderTo(w io.Writer, fb config.Fretboard, opts renderOptions, logger *zap.Logger) error {
	in, err := fretboard.New(fb, logger)
	if err != nil {
		return err
	}

	var actions []fretboard.Action
	if opts.chord != "" {
		actions = append(actions, fretboard.EnableChord{Symbol: opts.chord})
	}
	if opts.scale != "" {
		root, kind, _ := strings.Cut(strings.TrimSpace(opts.scale), " ")
		actions = append(actions, fretboard.EnableScale{Root: root, Type: kind})
	}
	if len(opts.notes) > 0 {
		pitches, err := note.ParseAll(opts.notes)
		if err != nil {
			return err
		}
		actions = append(actions, fretboard.Import{Pitches: pitches})
	}
	for _, a := range actions {
		if err := in.Dispatch(a); err != nil {
			return err
		}
	}

	switch format := formatFor(opts); format {
	case "svg":
		return render.WriteSVG(w, in.Scene())
	case "png":
		return render.WritePNG(w, in.Scene())
	case "mid":
		return midi.Export(w, in.Active())
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
