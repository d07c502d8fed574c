// Package config loads the typworld project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	FormatSVG = "svg"
	FormatPDF = "pdf"

	DefaultMain        = "main.typ"
	DefaultThrottle    = 200 * time.Millisecond
	DefaultPreviewAddr = "127.0.0.1:8790"
	DefaultLogLevel    = "info"
)

type Watch struct {
	Throttle time.Duration `yaml:"throttle"`
}

type Preview struct {
	Addr string `yaml:"addr"`
}

type Log struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Project is the project file.
type Project struct {
	Root    string   `yaml:"root"`             // host directory mirrored into the world
	Main    string   `yaml:"main"`             // main file, relative to root
	Format  string   `yaml:"format"`           // svg or pdf
	Output  string   `yaml:"output,omitempty"` // output file, stdout when empty
	Fonts   []string `yaml:"fonts,omitempty"`  // extra font files
	Engine  string   `yaml:"engine,omitempty"` // wasm engine module, the built-in engine when empty
	Watch   Watch    `yaml:"watch"`
	Preview Preview  `yaml:"preview"`
	Log     Log      `yaml:"log"`
}

var (
	ErrConfigFileUnreadable     = errors.New("config file is unreadable")
	ErrConfigFileUnmarshallable = errors.New("config file is unmarshallable")
	ErrRootMissing              = errors.New("root is missing in config")
	ErrMainMissing              = errors.New("main is missing in config")
	ErrMainOutsideRoot          = errors.New("main must be a relative path inside root")
	ErrFormatInvalid            = errors.New("format must be svg or pdf")
	ErrThrottleInvalid          = errors.New("watch.throttle must not be negative")
	ErrLogLevelInvalid          = errors.New("log.level must be debug, info, warn or error")
)

// Default returns the configuration used without a project file.
func Default() *Project {
	return &Project{
		Root:    ".",
		Main:    DefaultMain,
		Format:  FormatSVG,
		Watch:   Watch{Throttle: DefaultThrottle},
		Preview: Preview{Addr: DefaultPreviewAddr},
		Log:     Log{Level: DefaultLogLevel},
	}
}

// Load reads a project file. Fields it leaves out keep their defaults.
// Relative root, font and engine paths are resolved against the file's
// directory.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigFileUnreadable, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigFileUnmarshallable, err)
	}

	base := filepath.Dir(path)
	cfg.Root = resolve(base, cfg.Root)
	cfg.Engine = resolve(base, cfg.Engine)
	for i, f := range cfg.Fonts {
		cfg.Fonts[i] = resolve(base, f)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Validate checks the configuration.
func (p *Project) Validate() error {
	if p.Root == "" {
		return ErrRootMissing
	}
	if p.Main == "" {
		return ErrMainMissing
	}
	if filepath.IsAbs(p.Main) || !filepath.IsLocal(p.Main) {
		return ErrMainOutsideRoot
	}
	if p.Format != FormatSVG && p.Format != FormatPDF {
		return ErrFormatInvalid
	}
	if p.Watch.Throttle < 0 {
		return ErrThrottleInvalid
	}
	switch p.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrLogLevelInvalid
	}
	return nil
}

// Save writes the project file.
func (p *Project) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
