package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/scene-engine/internal/config"
	"github.com/jwebster45206/scene-engine/internal/services"
	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/scene"
)

type ConsoleConfig struct {
	// The terminal belongs to the UI, so logs only go to a file when asked.
	LogFile string `env:"CONSOLE_LOG_FILE"`
}

// programPresenter forwards session updates into the bubbletea event loop.
type programPresenter struct {
	program *tea.Program
	session *engine.Session
}

func (p *programPresenter) Loading(next scene.LocationRef) {
	p.program.Send(loadingMsg{next: next})
}

func (p *programPresenter) Render(frame engine.Frame) {
	p.program.Send(frameMsg{frame: frame, vars: p.session.State(), turns: p.session.Turns()})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	var consoleCfg ConsoleConfig
	if err := env.Parse(&consoleCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, closeLog, err := consoleLogger(cfg, consoleCfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	start := cfg.StartRef
	if len(os.Args) > 1 {
		start, err = scene.ParseLocationRef(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Usage: console [source#scene]\n%v\n", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	cache, err := services.ConnectCache(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to cache: %v\n", err)
		os.Exit(1)
	}
	contentService, err := services.NewContentService(cfg, cache, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up content: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = contentService.Close()
	}()

	var opts []engine.Option
	if cfg.FallbackDayTitle != "" {
		opts = append(opts, engine.WithFallbackTitle(cfg.FallbackDayTitle))
	}
	session := engine.NewSession(engine.New(contentService.Resolver, log, opts...), start, log)

	p := tea.NewProgram(NewConsoleUI(session),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	detach := session.Attach(&programPresenter{program: p, session: session})
	defer detach()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func consoleLogger(cfg *config.Config, path string) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewTextHandler(f, opts)), func() { _ = f.Close() }, nil
}
