// Package main provides the CLI entry point for playcore.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/playcore/pkg/adapters/filesink"
	"github.com/user/playcore/pkg/adapters/logger"
	"github.com/user/playcore/pkg/adapters/mp4writer"
	"github.com/user/playcore/pkg/adapters/nullsink"
	"github.com/user/playcore/pkg/config"
	"github.com/user/playcore/pkg/effects"
	"github.com/user/playcore/pkg/ports"
	"github.com/user/playcore/pkg/prefetch"
	"github.com/user/playcore/pkg/profile"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "playcore",
		Usage:   "Render timeline projects through the playback cache and effect pipeline.",
		Version: version,
		Commands: []*cli.Command{
			renderCommand(),
			profileCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Render a project JSON to an MP4 file.",
		ArgsUsage: "<project.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "Output MP4 file path."},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file."},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: "Log level (debug, info, warn, error)."},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: "Suppress all log output."},
		},
		Action: runRender,
	}
}

func runRender(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one project file")
	}

	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	cfg.OutputPath = c.String("output")

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))
	}

	effects.SetPixelWorkers(cfg.Settings.PixelWorkers)

	project, err := config.LoadProject(c.Args().First())
	if err != nil {
		return err
	}

	tl, err := project.Build(cfg.CacheMegabytes<<20, cfg.Settings.VideoCacheMaxFrames)
	if err != nil {
		return err
	}
	var sink ports.DebugSink = nullsink.New()
	if cfg.Debug {
		fs, err := filesink.New(cfg.DebugDir)
		if err != nil {
			return err
		}
		sink = fs
	}
	tl.SetDebugSink(sink)

	if err := tl.Open(); err != nil {
		log.Error(l10n.T("Failed to open timeline: %s"), err)
		return err
	}
	defer tl.Close()
	log.Info(l10n.T("Timeline opened: %d clips, %d frames"), len(project.Clips), tl.MaxFrame())

	// Warm the playback cache the way an interactive player would before
	// streaming frames into the writer.
	engine := prefetch.NewEngine(cfg.Settings, log)
	engine.Reader(tl)
	engine.StartThread()
	defer engine.StopThread(2000)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn(l10n.T("Interrupted, shutting down..."))
		engine.StopThread(1000)
		os.Exit(1)
	}()

	engine.Seek(1, true)
	engine.SetSpeed(1)

	log.Debug(l10n.T("Waiting for cache preroll"))
	deadline := time.Now().Add(5 * time.Second)
	for !engine.IsReady() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	log.Debug(l10n.T("Playback cache ready"))

	writer := mp4writer.New(cfg.OutputPath, cfg.Quality)
	if err := writer.SetVideoOptions(project.Width, project.Height, project.FPS); err != nil {
		return err
	}
	if err := writer.PrepareStreams(); err != nil {
		return err
	}
	if cfg.Spherical.Projection != "" {
		sp := cfg.Spherical
		if err := writer.AddSphericalMetadata(sp.Projection, sp.Yaw, sp.Pitch, sp.Roll); err != nil {
			return err
		}
		log.Info(l10n.T("Spherical metadata attached: %s"), sp.Projection)
	}
	if err := writer.Open(); err != nil {
		return err
	}

	end := tl.MaxFrame()
	log.Info(l10n.T("Rendering %d frames to %s"), end, cfg.OutputPath)
	for n := int64(1); n <= end; n++ {
		engine.Seek(n, false)
		frame, err := tl.GetFrame(n)
		if err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
		if err := writer.WriteFrame(frame); err != nil {
			log.Error(l10n.T("Failed to write output: %s"), err)
			return err
		}
	}
	engine.SetSpeed(0)

	if err := writer.Close(); err != nil {
		log.Error(l10n.T("Failed to write output: %s"), err)
		return err
	}
	log.Info(l10n.T("Output saved to %s"), cfg.OutputPath)
	log.Info(l10n.T("Render completed successfully"))
	return nil
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:      "profile",
		Usage:     "Inspect a profile file.",
		ArgsUsage: "<profile-file>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one profile file")
			}
			p, err := profile.LoadFromFile(c.Args().First())
			if err != nil {
				return err
			}
			fmt.Printf("key:        %s\n", p.Key())
			fmt.Printf("short name: %s\n", p.ShortName())
			fmt.Printf("long name:  %s\n", p.LongNameWithDesc())
			return nil
		},
	}
}
