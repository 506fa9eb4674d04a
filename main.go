package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"go-looper/audio"
	"go-looper/config"
	"go-looper/control"
	"go-looper/debug"
	"go-looper/looper"
	"go-looper/midi"
	"go-looper/samples"
	"go-looper/theme"
	"go-looper/tui"
)

type options struct {
	configPath string
	bpm        int
	loops      int
	headless   bool
	debug      bool
	noExport   bool
	name       string
	write      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/go-looper/config.json)")
	flag.IntVar(&opts.bpm, "bpm", 0, "tempo, overrides the config")
	flag.IntVar(&opts.loops, "loops", 0, "loop count including the metronome, overrides the config")
	flag.BoolVar(&opts.headless, "headless", false, "print notices instead of running the UI")
	flag.BoolVar(&opts.debug, "debug", false, "write debug.log to the config dir")
	flag.BoolVar(&opts.noExport, "no-export", false, "do not write recorded loops on exit")
	flag.StringVar(&opts.name, "name", "", "session name used for the export directory")
	flag.BoolVar(&opts.write, "write-config", false, "save the effective config and exit")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(opts options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.bpm > 0 {
		cfg.Audio.BPM = opts.bpm
	}
	if opts.loops > 0 {
		cfg.Audio.NumLoops = opts.loops
	}
	if opts.noExport {
		cfg.Export = false
	}
	return cfg, cfg.Validate()
}

func sessionConfig(cfg *config.Config) looper.Config {
	return looper.Config{
		BPM:           cfg.Audio.BPM,
		SampleRate:    cfg.Audio.SampleRate,
		BlockSize:     cfg.Audio.BlockSize,
		NumLoops:      cfg.Audio.NumLoops,
		Threshold:     cfg.Effects.Threshold,
		Ratio:         cfg.Effects.Ratio,
		DistortionMix: float32(cfg.Effects.DistortionMix),
	}
}

func deviceRules(cfg *config.Config) []midi.PortRule {
	var rules []midi.PortRule
	for _, c := range cfg.Controllers {
		kind := midi.ControllerKeyboard
		if c.Type != config.ControllerKeyboard {
			kind = midi.ControllerLaunchpad
		}
		if !c.AutoConnect {
			kind = midi.ControllerUnknown
		}
		rules = append(rules, midi.PortRule{Name: c.PortName, Type: kind})
	}
	return rules
}

func run(opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if opts.write {
		if opts.configPath != "" {
			err = cfg.SaveTo(opts.configPath)
		} else {
			err = cfg.Save()
		}
		if err == nil {
			fmt.Println("config saved")
		}
		return err
	}

	if opts.debug {
		if err := debug.Enable(); err != nil {
			return fmt.Errorf("enable debug log: %w", err)
		}
		defer debug.Disable()
	}

	palette, err := theme.LoadPalette(cfg.UI.Palette)
	if err != nil {
		return fmt.Errorf("load palette: %w", err)
	}
	th := theme.New(palette)

	big, little, err := samples.LoadClicks(cfg.Metronome.BigTick, cfg.Metronome.LittleTick, cfg.Audio.SampleRate)
	if err != nil {
		return err
	}

	session, err := looper.New(sessionConfig(cfg), big, little)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// fatal carries the first engine or stream error to the UI
	fatal := make(chan error, 2)
	engineDone := make(chan error, 1)
	go func() {
		err := session.Engine.Run(ctx)
		if err != nil {
			fatal <- fmt.Errorf("engine: %w", err)
		}
		engineDone <- err
	}()

	stream, err := audio.Open(session.Playback, cfg.Audio.SampleRate, cfg.Audio.BlockSize)
	if err != nil {
		cancel()
		<-engineDone
		return err
	}
	defer stream.Close()
	go func() {
		select {
		case <-stream.Failed():
			fatal <- fmt.Errorf("audio: %w", stream.Err())
		case <-ctx.Done():
		}
	}()

	deviceMgr := midi.NewDeviceManager(true, deviceRules(cfg)...)
	router := control.NewRouter(control.NewMapping(cfg.Controls, cfg.Audio.NumLoops), session.Controls)
	leds := control.NewLEDs(th, session)
	go deviceMgr.Run(ctx)
	go router.Run(ctx, deviceMgr.Events())
	go leds.Run(ctx, deviceMgr)

	if err := stream.Start(); err != nil {
		cancel()
		<-engineDone
		return err
	}

	var runErr error
	if opts.headless {
		runErr = runHeadless(ctx, session, fatal)
	} else {
		m := tui.NewModel(session, deviceMgr, th, fatal)
		final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		if err != nil {
			runErr = err
		} else if fm, ok := final.(tui.Model); ok {
			runErr = fm.Err()
		}
	}

	if err := stream.Stop(); err != nil {
		debug.Log("main", "%v", err)
	}
	cancel()
	if err := <-engineDone; err != nil && runErr == nil {
		runErr = err
	}
	if n := router.Dropped(); n > 0 {
		debug.Log("main", "%d commands dropped on a full queue", n)
	}

	if cfg.Export {
		if err := export(cfg, opts.name, session); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	return runErr
}

func runHeadless(ctx context.Context, s *looper.Session, fatal <-chan error) error {
	fmt.Printf("go-looper  %dbpm  %d loops  ctrl+c to stop\n", s.Timing.BPM, len(s.Snapshot().Loops))
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-fatal:
			return err
		case n := <-s.Engine.Notices():
			fmt.Println(n)
		}
	}
}

func export(cfg *config.Config, name string, s *looper.Session) error {
	takes := s.Engine.Takes()
	if len(takes) == 0 {
		return nil
	}

	base := cfg.ExportDir
	if base == "" {
		dir, err := samples.SessionsDir()
		if err != nil {
			return err
		}
		base = dir
	}

	dir, err := samples.Export(base, name, cfg.Audio.BPM, cfg.Audio.SampleRate, takes)
	if err != nil {
		return fmt.Errorf("export loops: %w", err)
	}
	fmt.Printf("saved %d loops to %s\n", len(takes), dir)
	return nil
}
