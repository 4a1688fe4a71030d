// Command jpod plays the MP3 files of a directory in the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/jpardeiro/jpod/internal/audio"
	"github.com/jpardeiro/jpod/internal/config"
	"github.com/jpardeiro/jpod/internal/logger"
	"github.com/jpardeiro/jpod/internal/player"
	"github.com/jpardeiro/jpod/internal/playlist"
	"github.com/jpardeiro/jpod/internal/ui"
	playerrors "github.com/jpardeiro/jpod/pkg/errors"
	"github.com/jpardeiro/jpod/pkg/events"
)

var (
	app        = kingpin.New("jpod", "terminal MP3 player")
	musicDir   = app.Arg("dir", "Directory containing MP3 files").String()
	configPath = app.Flag("config", "Path to config file").String()
	volume     = app.Flag("volume", "Initial volume (0.0-1.0)").Default("-1").Float64()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	path := *configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	loggerConfig := logger.Config{
		Output: cfg.LogFile,
		Level:  cfg.LogLevel,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	dir := cfg.MusicDir
	if *musicDir != "" {
		dir = *musicDir
	}
	songs, err := playlist.New(dir)
	if err != nil {
		return err
	}
	zlog.Info().Int("songs", songs.Len()).Str("dir", dir).Msg("playlist loaded")

	// The flag default of -1 means "use the config value"; zero is a
	// valid, muted start.
	initialVolume := cfg.DefaultVolume
	if *volume >= 0 {
		if *volume > 1 {
			return fmt.Errorf("--volume %v: %w", *volume, playerrors.ErrInvalidVolume)
		}
		initialVolume = *volume
	}

	bus := events.NewBus()
	defer bus.Close()

	p := player.New(player.Options{
		Decoder:       audio.NewMP3Decoder(),
		Device:        audio.NewOtoDevice(),
		Bus:           bus,
		InitialVolume: initialVolume,
		FadeDuration:  time.Duration(cfg.FadeMs) * time.Millisecond,
	})
	p.Start(context.Background())
	defer p.Close()

	p.SetPlaylist(songs)
	if err := p.LoadCurrent(); err != nil {
		return err
	}

	return ui.Run(p, cfg, bus)
}
