package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"deckforge/internal/config"
	"deckforge/internal/coordinator"
	"deckforge/internal/domain"
	"deckforge/internal/eventbus"
	"deckforge/internal/importer"
	"deckforge/internal/logging"
	"deckforge/internal/storage"
	"deckforge/internal/stores"
	"deckforge/internal/ui"
)

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if url := cmd.String("server"); url != "" {
		cfg.Server.URL = url
	}
	if file := cmd.String("log-file"); file != "" {
		cfg.Log.File = file
	}
	if level := cmd.String("log-level"); level != "" {
		cfg.Log.Level = level
	}

	// A server is optional: without one deckforge starts offline and the
	// user connects from inside the UI. Only validate the URL when set.
	if cfg.Server.URL != "" {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	} else {
		if err := cfg.Log.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if err := cfg.Import.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	decklist := cmd.String("decklist")
	if cmd.Bool("watch") && decklist == "" {
		return fmt.Errorf("--watch requires --decklist")
	}

	logger, err := logging.New(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("deckforge starting",
		zap.String("config", cmd.String("config")),
		zap.String("server", cfg.Server.URL))

	bus := eventbus.New(logger)
	defer bus.Close()

	st := stores.New(bus)
	settings := config.NewSettingsState(config.DefaultStatePath(), logger)

	coord := coordinator.New(bus, st, settings, logger)
	coord.Run()
	defer coord.Stop()

	imports := importer.New(bus, st, logger)
	imports.SetMaxBatch(cfg.Import.MaxCards)
	imports.Run()
	defer imports.Stop()

	store, err := storage.Open(cfg.Project.DatabasePath(), logger)
	if err != nil {
		return fmt.Errorf("open project database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing project database", zap.Error(err))
		}
	}()

	model := ui.NewModel(bus, st, ui.Deps{
		Importer: imports,
		Saver:    store,
		Backend:  coord,
		Logger:   logger,
		Autosave: cfg.Project.AutosaveOnExit,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	model.SetProgram(program)

	// Forward bus events into the program. Services publish from their own
	// goroutines, so the channel buffers bursts; a full channel drops the
	// event rather than stalling a store update.
	events := make(chan eventbus.DomainEvent, 100)
	for _, et := range domain.AllEventTypes() {
		bus.Subscribe(et, func(e eventbus.DomainEvent) {
			select {
			case events <- e:
			default:
				logger.Warn("event channel full, dropping event",
					zap.String("type", string(e.Type())))
			}
		})
	}
	go func() {
		for event := range events {
			program.Send(ui.EventMsg{Event: event})
		}
	}()

	if cfg.Server.URL != "" {
		coord.Connect(cfg.Server.URL)
	}
	if decklist != "" {
		go func() {
			if _, _, err := imports.ImportFile(decklist, true); err != nil {
				logger.Error("decklist import failed",
					zap.String("path", decklist), zap.Error(err))
			}
		}()
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	watchDone := make(chan struct{})
	if cmd.Bool("watch") {
		go func() {
			defer close(watchDone)
			if err := imports.Watch(watchCtx, decklist); err != nil {
				logger.Error("decklist watch failed", zap.Error(err))
			}
		}()
	} else {
		close(watchDone)
	}

	_, runErr := program.Run()
	stopWatch()
	<-watchDone
	if runErr != nil {
		return fmt.Errorf("run program: %w", runErr)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "deckforge",
		Usage:  "Terminal UI for assembling card print projects from decklists",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.DefaultPath(),
				Sources: cli.EnvVars("DECKFORGE_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Card search backend URL to connect to on startup",
				Sources: cli.EnvVars("DECKFORGE_SERVER"),
			},
			&cli.StringFlag{
				Name:    "decklist",
				Aliases: []string{"d"},
				Usage:   "Decklist file to import on startup",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Re-import the decklist whenever it changes",
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Log file path",
				Sources: cli.EnvVars("DECKFORGE_LOG_FILE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("DECKFORGE_LOG_LEVEL"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "deckforge: %v\n", err)
		os.Exit(1)
	}
}
