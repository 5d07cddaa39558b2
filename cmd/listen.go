package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/fretboard/fretboard"
	"github.com/jsphweid/fretboard/note"
	"github.com/jsphweid/fretboard/render"
	"github.com/jsphweid/fretboard/util"
	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
	"go.uber.org/zap"
)

var (
	listenPort   int
	listenDevice string
	listenOut    string
	listenList   bool
	listenDelay  time.Duration
)

func init() {
	f := listenCmd.Flags()
	f.IntVar(&listenPort, "port", 0, "MIDI input port number")
	f.StringVar(&listenDevice, "device", "", "MIDI input port name, wins over --port")
	f.StringVar(&listenOut, "out", "live.svg", "SVG file rewritten as notes change")
	f.BoolVar(&listenList, "list", false, "list MIDI input ports and exit")
	f.DurationVar(&listenDelay, "debounce", 100*time.Millisecond, "wait this long after the last note before rewriting")
	rootCmd.AddCommand(listenCmd)
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Lights up notes played on a MIDI keyboard",
	Long: `Listens to a MIDI input port. Held keys are lit on the board and the
diagram is rewritten to --out shortly after every change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer gomidi.CloseDriver()

		if listenList {
			for _, in := range gomidi.GetInPorts() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", in.Number(), in.String())
			}
			return nil
		}

		in, err := openInPort(listenPort, listenDevice)
		if err != nil {
			return err
		}
		path, err := util.OutputPath(listenOut)
		if err != nil {
			return err
		}

		board, err := fretboard.New(cfg.Fretboard, logger)
		if err != nil {
			return err
		}
		w := &sceneWriter{path: path, logger: logger}
		debounced := debounce.New(listenDelay)
		board.OnChange(func(s *render.Scene) {
			w.set(s)
			debounced(w.flush)
		})
		w.set(board.Scene())
		w.flush()

		stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
			var ch, key, vel uint8
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				logger.Debug("note on", zap.Uint8("key", key), zap.Uint8("vel", vel))
				_ = board.Dispatch(fretboard.EnableNote{Pitch: note.Pitch(key)})
			case msg.GetNoteEnd(&ch, &key):
				logger.Debug("note off", zap.Uint8("key", key))
				_ = board.Dispatch(fretboard.DisableNote{Pitch: note.Pitch(key)})
			}
		}, gomidi.HandleError(func(err error) {
			logger.Warn("midi listener error", zap.Error(err))
		}))
		if err != nil {
			return fmt.Errorf("could not listen to %v: %w", in, err)
		}
		defer stop()

		logger.Info("listening for notes", zap.String("port", in.String()), zap.String("out", path))
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		<-ctx.Done()

		w.flush()
		return nil
	},
}

func openInPort(port int, device string) (drivers.In, error) {
	if device != "" {
		in, err := gomidi.FindInPort(device)
		if err != nil {
			return nil, fmt.Errorf("can't find MIDI input %q: %w", device, err)
		}
		return in, nil
	}
	in, err := gomidi.InPort(port)
	if err != nil {
		return nil, fmt.Errorf("can't find MIDI input %d: %w", port, err)
	}
	return in, nil
}

// sceneWriter keeps the latest scene and writes it out on flush.
type sceneWriter struct {
	mu     sync.Mutex
	path   string
	scene  *render.Scene
	logger *zap.Logger
}

func (s *sceneWriter) set(scene *render.Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene = scene
}

func (s *sceneWriter) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scene == nil {
		return
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		s.logger.Error("could not create file", zap.String("path", tmp), zap.Error(err))
		return
	}
	if err := render.WriteSVG(f, s.scene); err != nil {
		f.Close()
		s.logger.Error("could not render", zap.Error(err))
		return
	}
	if err := f.Close(); err != nil {
		s.logger.Error("could not close file", zap.Error(err))
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.Error("could not replace file", zap.String("path", s.path), zap.Error(err))
	}
}
