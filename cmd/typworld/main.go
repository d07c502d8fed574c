package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/typworld"
	"github.com/wippyai/typworld/config"
	"github.com/wippyai/typworld/engine"
	"github.com/wippyai/typworld/internal/hostdir"
	"github.com/wippyai/typworld/internal/logging"
	"github.com/wippyai/typworld/preview"
)

const defaultConfigFile = "typworld.yaml"

func main() {
	var (
		configFile  = flag.String("config", "", "Project file (default typworld.yaml when present)")
		root        = flag.String("root", "", "Directory mirrored into the world")
		mainFile    = flag.String("main", "", "Main file, relative to root")
		format      = flag.String("format", "", "Output format: svg or pdf")
		output      = flag.String("o", "", "Output file (default stdout)")
		enginePath  = flag.String("engine", "", "Engine wasm module (default built-in engine)")
		watch       = flag.Bool("watch", false, "Recompile when files under root change")
		serve       = flag.Bool("serve", false, "Serve a live svg preview (implies -watch)")
		addr        = flag.String("addr", "", "Preview listen address")
		initConfig  = flag.Bool("init", false, "Write a default project file and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *initConfig {
		path := *configFile
		if path == "" {
			path = defaultConfigFile
		}
		if err := config.Default().Save(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", path)
		return
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	override(cfg, *root, *mainFile, *format, *output, *enginePath, *addr)
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logging.SetLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		// The TUI owns the terminal.
		logging.SetLogger(nil)
		if err := runInteractive(ctx, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ok, err := run(ctx, cfg, *watch || *serve, *serve)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Project, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return config.Load(defaultConfigFile)
	}
	return config.Default(), nil
}

func override(cfg *config.Project, root, mainFile, format, output, enginePath, addr string) {
	if root != "" {
		cfg.Root = root
	}
	if mainFile != "" {
		cfg.Main = mainFile
	}
	if format != "" {
		cfg.Format = format
	}
	if output != "" {
		cfg.Output = output
	}
	if enginePath != "" {
		cfg.Engine = enginePath
	}
	if addr != "" {
		cfg.Preview.Addr = addr
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// session is an instance mirroring the configured root.
type session struct {
	inst   *typworld.Instance
	mirror *hostdir.Mirror
	engine *engine.WazeroEngine
}

func open(ctx context.Context, cfg *config.Project) (*session, error) {
	opts := []typworld.Option{typworld.WithMain(cfg.Main)}

	var blobs [][]byte
	for _, f := range cfg.Fonts {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		blobs = append(blobs, data)
	}
	if len(blobs) > 0 {
		opts = append(opts, typworld.WithFonts(blobs...))
	}

	s := &session{}
	if cfg.Engine != "" {
		guest, err := os.ReadFile(cfg.Engine)
		if err != nil {
			return nil, fmt.Errorf("read engine: %w", err)
		}
		s.engine, err = engine.NewWazeroEngine(ctx, guest, &engine.Config{EnableWASI: true})
		if err != nil {
			return nil, fmt.Errorf("load engine: %w", err)
		}
		opts = append(opts, typworld.WithEngine(s.engine))
	}

	s.inst = typworld.New(opts...)
	s.mirror = hostdir.New(cfg.Root, s.inst, hostdir.WithThrottle(cfg.Watch.Throttle))
	n, err := s.mirror.Load(ctx)
	if err != nil {
		s.close(ctx)
		return nil, fmt.Errorf("mirror %s: %w", cfg.Root, err)
	}
	logging.Logger().Debug("mirrored root", zap.String("root", cfg.Root), zap.Int("files", n))
	return s, nil
}

func (s *session) close(ctx context.Context) {
	s.inst.Close()
	if s.engine != nil {
		_ = s.engine.Close(ctx)
	}
}

// render compiles once, writes the output and prints the diagnostics. It
// reports whether compilation succeeded.
func (s *session) render(ctx context.Context, cfg *config.Project, diag io.Writer) (string, bool, error) {
	var (
		svg string
		out []byte
	)
	if cfg.Format == config.FormatPDF {
		out = s.inst.PDF(ctx)
	} else {
		svg = s.inst.SVG(ctx)
		out = []byte(svg)
	}

	for _, line := range s.inst.Errors() {
		fmt.Fprintln(diag, line)
	}
	if s.inst.Report().Failed() {
		return "", false, nil
	}
	return svg, true, emit(cfg.Output, out)
}

// previewSVG returns svg, compiling again when the configured format was
// pdf.
func (s *session) previewSVG(ctx context.Context, svg string, ok bool) string {
	if svg != "" || !ok {
		return svg
	}
	return s.inst.SVG(ctx)
}

func emit(output string, out []byte) error {
	if output == "" {
		if term.IsTerminal(int(os.Stdout.Fd())) && !isText(out) {
			return errors.New("refusing to write binary output to a terminal, use -o")
		}
		_, err := os.Stdout.Write(out)
		return err
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(output, out, 0o644)
}

func isText(b []byte) bool {
	return utf8.Valid(b) && bytes.IndexByte(b, 0) < 0
}

func run(ctx context.Context, cfg *config.Project, watch, serve bool) (bool, error) {
	s, err := open(ctx, cfg)
	if err != nil {
		return false, err
	}
	defer s.close(ctx)

	svg, ok, err := s.render(ctx, cfg, os.Stderr)
	if err != nil || !watch {
		return ok, err
	}

	log := logging.Logger()
	var srv *preview.Server
	if serve {
		srv = preview.New()
		srv.Publish(s.previewSVG(ctx, svg, ok))
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Preview.Addr); err != nil {
				log.Error("preview server stopped", zap.Error(err))
			}
		}()
	}

	err = s.mirror.Watch(ctx, func() {
		svg, ok, err := s.render(ctx, cfg, os.Stderr)
		if err != nil {
			log.Error("write output", zap.Error(err))
			return
		}
		log.Info("recompiled", zap.Bool("ok", ok))
		if srv != nil && ok {
			srv.Publish(s.previewSVG(ctx, svg, ok))
		}
	})
	return true, err
}
