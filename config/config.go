package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ControllerType identifies the kind of controller
type ControllerType string

const (
	ControllerLaunchpadX    ControllerType = "launchpad-x"
	ControllerLaunchpadMini ControllerType = "launchpad-mini"
	ControllerKeyboard      ControllerType = "keyboard"
)

// ControllerConfig defines a saved controller configuration
type ControllerConfig struct {
	PortName    string         `json:"portName"`
	Type        ControllerType `json:"type"`
	AutoConnect bool           `json:"autoConnect"`
}

// AudioConfig is fixed for the lifetime of a session
type AudioConfig struct {
	BPM        int `json:"bpm"`
	SampleRate int `json:"sampleRate"`
	BlockSize  int `json:"blockSize"`
	NumLoops   int `json:"numLoops"` // including the metronome
}

// EffectsConfig tunes the compressor and distortion
type EffectsConfig struct {
	Threshold     float64 `json:"threshold"` // dB
	Ratio         float64 `json:"ratio"`
	DistortionMix float64 `json:"distortionMix"`
}

// MetronomeConfig points at the click samples. Empty paths use built-in clicks
type MetronomeConfig struct {
	BigTick    string `json:"bigTick,omitempty"`
	LittleTick string `json:"littleTick,omitempty"`
}

// ControlsConfig maps MIDI messages to looper commands
type ControlsConfig struct {
	LoopBaseKey    int `json:"loopBaseKey"`    // note for loop 0
	CompressionKey int `json:"compressionKey"` // note toggling the compressor
	DistortionKey  int `json:"distortionKey"`  // note toggling distortion
	StopPedalCC    int `json:"stopPedalCC"`    // controller that stops recording
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette string `json:"palette,omitempty"` // GIMP .gpl file, built-in if empty
}

// Config is the main configuration structure
type Config struct {
	Audio       AudioConfig        `json:"audio"`
	Effects     EffectsConfig      `json:"effects"`
	Metronome   MetronomeConfig    `json:"metronome,omitempty"`
	Controls    ControlsConfig     `json:"controls"`
	Controllers []ControllerConfig `json:"controllers,omitempty"`
	UI          UIConfig           `json:"ui,omitempty"`
	ExportDir   string             `json:"exportDir,omitempty"` // sessions dir if empty
	Export      bool               `json:"export"`              // write loops on exit
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			BPM:        80,
			SampleRate: 48000,
			BlockSize:  512,
			NumLoops:   24,
		},
		Effects: EffectsConfig{
			Threshold:     -30,
			Ratio:         4,
			DistortionMix: 0.1,
		},
		Controls: ControlsConfig{
			LoopBaseKey:    36,
			CompressionKey: 96,
			DistortionKey:  95,
			StopPedalCC:    64,
		},
		Controllers: []ControllerConfig{
			{
				PortName:    "Launchpad X LPX MIDI",
				Type:        ControllerLaunchpadX,
				AutoConnect: true,
			},
		},
		Export: true,
	}
}

// Validate rejects settings the looper cannot run with
func (c *Config) Validate() error {
	a := c.Audio
	switch {
	case a.BPM <= 0:
		return fmt.Errorf("bpm must be positive, got %d", a.BPM)
	case a.SampleRate <= 0:
		return fmt.Errorf("sample rate must be positive, got %d", a.SampleRate)
	case a.BlockSize <= 0:
		return fmt.Errorf("block size must be positive, got %d", a.BlockSize)
	case a.NumLoops < 2:
		return fmt.Errorf("need at least 2 loops, got %d", a.NumLoops)
	case a.BlockSize*4 > a.SampleRate*60/a.BPM*4:
		return fmt.Errorf("block size %d does not fit four times in a measure", a.BlockSize)
	case c.Effects.Ratio < 1:
		return fmt.Errorf("compressor ratio must be at least 1, got %g", c.Effects.Ratio)
	case c.Effects.DistortionMix < 0 || c.Effects.DistortionMix > 1:
		return fmt.Errorf("distortion mix must be within [0, 1], got %g", c.Effects.DistortionMix)
	}

	for name, v := range map[string]int{
		"loopBaseKey":    c.Controls.LoopBaseKey,
		"compressionKey": c.Controls.CompressionKey,
		"distortionKey":  c.Controls.DistortionKey,
		"stopPedalCC":    c.Controls.StopPedalCC,
	} {
		if v < 0 || v > 127 {
			return fmt.Errorf("%s must be a MIDI value 0-127, got %d", name, v)
		}
	}
	if c.Controls.LoopBaseKey+a.NumLoops > 128 {
		return fmt.Errorf("%d loops starting at key %d run past note 127", a.NumLoops, c.Controls.LoopBaseKey)
	}
	return nil
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-looper"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file. Missing fields keep their defaults and a
// missing file yields DefaultConfig
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// FindController finds a controller config by port name
func (c *Config) FindController(portName string) *ControllerConfig {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == portName {
			return &c.Controllers[i]
		}
	}
	return nil
}

// AddController adds or updates a controller config
func (c *Config) AddController(ctrl ControllerConfig) {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == ctrl.PortName {
			c.Controllers[i] = ctrl
			return
		}
	}
	c.Controllers = append(c.Controllers, ctrl)
}

// AutoConnectControllers returns controllers with autoConnect enabled
func (c *Config) AutoConnectControllers() []ControllerConfig {
	var result []ControllerConfig
	for _, ctrl := range c.Controllers {
		if ctrl.AutoConnect {
			result = append(result, ctrl)
		}
	}
	return result
}
