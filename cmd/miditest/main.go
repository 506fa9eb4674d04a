package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-looper/config"
	"go-looper/control"
	"go-looper/looper"
	"go-looper/midi"
	"go-looper/samples"
	"go-looper/theme"
	"go-looper/widgets"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		listPorts()
	case "monitor":
		err = monitor()
	case "leds":
		err = testLEDs()
	case "clicks":
		err = writeClicks(os.Args[2:])
	case "sessions":
		err = listSessions()
	default:
		usage()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("go-looper MIDI and sample tools")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list        - List all MIDI ports")
	fmt.Println("  monitor     - Print events from every controller and the command they map to")
	fmt.Println("  leds        - Show a test frame on the Launchpad and in the terminal")
	fmt.Println("  clicks DIR  - Write the built-in metronome clicks as WAV files")
	fmt.Println("  sessions    - List exported loop sessions")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
	}
}

func monitor() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	mapping := control.NewMapping(cfg.Controls, cfg.Audio.NumLoops)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	dm := midi.NewDeviceManager(true)
	go dm.Run(ctx)

	fmt.Println("Waiting for controllers. Ctrl+C to exit.")
	for ev := range dm.Events() {
		switch ev.Type {
		case midi.DeviceConnected:
			fmt.Printf("+ %s (%s)\n", ev.ID, ev.Controller.Type())
			go printEvents(ev.Controller, mapping)
		case midi.DeviceDisconnected:
			fmt.Printf("- %s\n", ev.ID)
		}
	}
	return nil
}

func printEvents(c midi.Controller, mapping control.Mapping) {
	for ev := range c.Events() {
		action, ok := mapping.Resolve(ev)
		if !ok {
			fmt.Printf("  %-14s %s\n", c.Type(), ev)
			continue
		}
		fmt.Printf("  %-14s %s -> %s\n", c.Type(), ev, action)
	}
}

// frameState shows every loop status once plus both effects on
type frameState struct{}

func (frameState) Snapshot() *looper.Snapshot {
	kinds := []looper.StatusKind{looper.On, looper.Off, looper.On, looper.RecordStart, looper.Recording, looper.RecordEnd}
	snap := &looper.Snapshot{Recording: 4}
	for i := 0; i < 16; i++ {
		info := looper.LoopInfo{Status: looper.Status{Kind: looper.Empty}}
		if i < len(kinds) {
			info = looper.LoopInfo{Status: looper.Status{Kind: kinds[i]}, Length: 1}
		}
		snap.Loops = append(snap.Loops, info)
	}
	return snap
}

func (frameState) Effects() (compress, distort bool) { return true, true }

func testLEDs() error {
	th := theme.New(theme.Default())
	leds := control.NewLEDs(th, frameState{})
	frame := leds.Frame()

	fmt.Println(widgets.RenderFrame(frame))

	dm := midi.NewDeviceManager(false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dm.Run(ctx)

	var lp midi.Controller
	timeout := time.After(5 * time.Second)
	for lp == nil {
		select {
		case ev := <-dm.Events():
			if ev.Type == midi.DeviceConnected && ev.Controller.Type() == midi.ControllerLaunchpad {
				lp = ev.Controller
			}
		case <-timeout:
			return fmt.Errorf("no Launchpad found")
		}
	}

	if err := lp.SetLEDBatch(leds.Diff(frame)); err != nil {
		return err
	}
	fmt.Println("Press Enter to clear...")
	fmt.Scanln()
	return lp.SetLEDBatch(leds.Diff(nil))
}

func writeClicks(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("clicks needs a target directory")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(args[0], 0755); err != nil {
		return err
	}

	rate := cfg.Audio.SampleRate
	big, little := samples.DefaultClicks(rate)
	for name, clip := range map[string][]float32{"big.wav": big, "little.wav": little} {
		path := filepath.Join(args[0], name)
		if err := samples.Save(path, clip, rate); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d samples)\n", path, len(clip))
	}
	return nil
}

func listSessions() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	base := cfg.ExportDir
	if base == "" {
		if base, err = samples.SessionsDir(); err != nil {
			return err
		}
	}

	sessions, err := samples.ListSessions(base)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Printf("no sessions in %s\n", base)
		return nil
	}
	for _, s := range sessions {
		m, err := samples.ReadManifest(s.Dir)
		if err != nil {
			fmt.Printf("%s  %s  (%v)\n", s.Timestamp.Format(time.DateTime), s.Name, err)
			continue
		}
		fmt.Printf("%s  %-16s %3dbpm  %d loops\n", s.Timestamp.Format(time.DateTime), s.Name, m.BPM, len(m.Loops))
	}
	return nil
}
