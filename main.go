package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/DanCrank/shopclock/internal/app"
	"github.com/DanCrank/shopclock/internal/config"
	"github.com/DanCrank/shopclock/internal/render"
	"github.com/DanCrank/shopclock/internal/state"
	"github.com/DanCrank/shopclock/internal/system"
	"github.com/pborman/getopt"
)

// SDL must be driven from the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := getopt.StringLong("config", 'c', "", "configuration file merged over the defaults (default "+config.DefaultPath+" if present)")
	debug := getopt.BoolLong("debug", 'd', "enable debug logging to ./shopclock-debug.log")
	logPath := getopt.StringLong("log", 'l', "", "append log lines to this file instead of stderr; also configurable via SHOPCLOCK_LOG")
	stdioLog := getopt.StringLong("stdio-log", 0, "", "redirect stdout+stderr (including panics) to this file; also configurable via SHOPCLOCK_STDIO_LOG")
	printConfig := getopt.BoolLong("print-config", 0, "print the effective configuration and exit")
	presenterName := getopt.StringLong("presenter", 'p', "", "framebuffer | sdl | memory (overrides the config file)")
	windowed := getopt.BoolLong("windowed", 'w', "run the sdl presenter in a window instead of fullscreen")
	help := getopt.BoolLong("help", 'h', "show this help")
	getopt.Parse()
	if *help {
		getopt.Usage()
		return
	}

	// Best-effort: redirect all stdout/stderr output (including panic stack traces)
	// to a file so crashes are diagnosable even when the console is left in graphics mode.
	redirect := *stdioLog
	if redirect == "" {
		redirect = os.Getenv("SHOPCLOCK_STDIO_LOG")
	}
	if redirect != "" {
		if err := redirectStdIO(redirect); err != nil {
			fmt.Println("stdio log redirect error:", err)
		}
	}

	path, required := *configPath, true
	if path == "" {
		path, required = config.DefaultPath, false
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(2)
	}
	if *presenterName != "" {
		cfg.Presenter = *presenterName
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "config error:", err)
			os.Exit(2)
		}
	}
	if *printConfig {
		out, err := cfg.YAML()
		if err != nil {
			fmt.Fprintln(os.Stderr, "config error:", err)
			os.Exit(2)
		}
		_, _ = os.Stdout.Write(out)
		return
	}

	logger, closeLog := openLogger(*logPath, *debug)
	defer closeLog()
	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	logger = app.WithLevel(logger, level)
	if cfg.Path != "" {
		logger.Infof("main", "config loaded from %s", cfg.Path)
	}

	presenter, err := newPresenter(cfg, !*windowed)
	if err != nil {
		logger.Errorf("main", "presenter: %v", err)
		fmt.Fprintln(os.Stderr, "presenter error:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, state.NewStore(), presenter)
	a.Logger = logger
	a.TakeConsole = cfg.Presenter == "framebuffer"
	a.ExitKeys = system.DefaultExitKeys

	if err := a.Start(ctx); err != nil {
		logger.Errorf("main", "app error: %v", err)
		fmt.Fprintln(os.Stderr, "app error:", err)
		os.Exit(1)
	}
}

func openLogger(path string, debug bool) (app.Logger, func()) {
	if path == "" {
		path = os.Getenv("SHOPCLOCK_LOG")
	}
	if path == "" && debug {
		path = "./shopclock-debug.log"
	}
	if path == "" {
		return app.NewFileLogger(os.Stderr), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Println("log open error:", err)
		return app.NewFileLogger(os.Stderr), func() {}
	}
	logger := app.NewFileLogger(f)
	logger.Infof("main", "logging to %s", path)
	return logger, func() { _ = f.Close() }
}

func newPresenter(cfg *config.Config, fullscreen bool) (render.Presenter, error) {
	switch cfg.Presenter {
	case "sdl":
		w, h := cfg.FrameSize()
		return render.NewSDLPresenter(w, h, fullscreen)
	case "memory":
		return render.NewMemoryPresenter(), nil
	default:
		return render.NewFBPresenter(cfg.FramebufferDevice), nil
	}
}
