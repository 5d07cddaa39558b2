package cmd

import (
	"fmt"

	"github.com/jsphweid/fretboard/config"
	"github.com/jsphweid/fretboard/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	debug      bool

	cfg    *config.Config
	logger *zap.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", constants.GetConfigPath(), "path to the YAML config")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")
}

var rootCmd = &cobra.Command{
	Use:   "fretboard",
	Short: "Interactive fretboard diagrams",
	Long: `Builds a note board for a stringed instrument and lights up notes,
scales and chords on it. Serve it as a web page, print it, render it to
SVG/PNG/MIDI or follow a MIDI keyboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = newLogger(cfg.Logging, debug)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.Debug("config loaded", zap.String("path", configPath))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func newLogger(l config.Logging, debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if l.Level != "" {
		level, err := zapcore.ParseLevel(l.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
