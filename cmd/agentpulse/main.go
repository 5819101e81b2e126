// Package main is the AgentPulse entrypoint: the CRM state, the Gemini
// client, the scheduler, and optionally the operator bot and the JSON API.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/joho/godotenv"

	"github.com/edgard/agentpulse/internal/api"
	"github.com/edgard/agentpulse/internal/bot"
	"github.com/edgard/agentpulse/internal/bot/handlers"
	"github.com/edgard/agentpulse/internal/bot/tasks"
	"github.com/edgard/agentpulse/internal/config"
	"github.com/edgard/agentpulse/internal/crm"
	"github.com/edgard/agentpulse/internal/database"
	"github.com/edgard/agentpulse/internal/gemini"
	"github.com/edgard/agentpulse/internal/logger"
	"github.com/edgard/agentpulse/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component and blocks until shutdown. It returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Optional dotenv file loaded before the configuration")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load env file", "path", *envPath, "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	gemClient, err := gemini.NewClient(ctx, cfg.Gemini, cfg.Messages, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	notifier := telegram.NewNotifier(cfg.Telegram.ServerURL, log)
	ctrl := crm.New(store, notifier, log, crm.OptionsFromConfig(cfg))

	tDeps := tasks.TaskDeps{
		Logger:       log,
		Store:        store,
		Controller:   ctrl,
		GeminiClient: gemClient,
		Config:       cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps), tasks.NewSearchRunner(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	ctrl.OnSchedulesChanged(sched.SyncSearchSchedules)

	if err := ctrl.Load(ctx); err != nil {
		log.Error("Failed to load CRM state", "error", err)
		return 1
	}
	sessions := gemini.NewSessions(gemClient, ctrl.Profile, gemini.SessionOptions{
		MaxSessions: cfg.Gemini.MaxChatSessions,
		IdleTimeout: cfg.Gemini.ChatSessionIdle,
	})

	var tg *tgbot.Bot
	if cfg.Telegram.Token != "" {
		if tg, err = setupTelegram(ctx, cfg, log, handlers.HandlerDeps{
			Logger:       log,
			Config:       cfg,
			Controller:   ctrl,
			GeminiClient: gemClient,
			Sessions:     sessions,
		}); err != nil {
			log.Error("Failed to set up Telegram bot", "error", err)
			return 1
		}
	} else {
		log.Info("Telegram token not set, operator bot disabled")
	}

	var server *http.Server
	if cfg.HTTP.Enabled {
		server = api.NewServer(ctrl, gemClient, sessions, cfg, log).HTTPServer()
	}

	app := bot.NewBot(log, cfg, tg, sched, server)
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("AgentPulse stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}
	time.Sleep(time.Second)
	return 0
}

func setupTelegram(ctx context.Context, cfg *config.Config, log *slog.Logger, deps handlers.HandlerDeps) (*tgbot.Bot, error) {
	opts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.DefaultHandler(deps)),
	}
	if cfg.Telegram.ServerURL != "" {
		opts = append(opts, tgbot.WithServerURL(cfg.Telegram.ServerURL))
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, opts...)
	if err != nil {
		return nil, err
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	cmds := handlers.RegisterAllCommands(deps)
	if err := telegram.RegisterHandlers(tg, log, cmds); err != nil {
		return nil, err
	}
	if err := telegram.PublishCommands(ctx, tg, cmds); err != nil {
		log.Warn("Failed to publish bot commands", "error", err)
	}
	return tg, nil
}
