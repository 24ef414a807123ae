package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/adboard/bot/conversation"
	"github.com/m3rciful/adboard/bot/handlers"
	"github.com/m3rciful/adboard/bot/store"
	"github.com/m3rciful/adboard/core/bootstrap"
	"github.com/m3rciful/adboard/core/cmd"
	"github.com/m3rciful/adboard/core/logger"
	coretelegram "github.com/m3rciful/adboard/core/telegram"
)

// App is a bootstrapped bot ready to run.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	engine   *conversation.Engine
	handlers *handlers.Handlers
}

// Load adapts LoadConfig to cmd.Options.
func Load(path string) (cmd.ConfigCarrier, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap initializes logging and storage and builds the bot.
func Bootstrap(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}
	return New(cfg, res.DB), nil
}

// New builds the bot over an open database.
func New(cfg *Config, db *sqlx.DB) *App {
	engine := conversation.New(store.New(db), nil, conversation.Options{
		DailyLimit:  cfg.Ads.DailyLimit,
		RecentLimit: cfg.Ads.RecentLimit,
		SkipKeyword: cfg.Ads.SkipKeyword,
		Currency:    cfg.Ads.Currency,
		Categories:  cfg.Ads.Categories,
		Location:    cfg.Ads.Location(),
	})
	return &App{
		cfg:    cfg,
		db:     db,
		engine: engine,
		handlers: handlers.New(engine, handlers.Options{
			Currency: cfg.Ads.Currency,
			Location: cfg.Ads.Location(),
		}),
	}
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	if err := a.handlers.Register(reg); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: register handlers: %w", err)
	}

	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		ParseMode:   tele.ModeDefault,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, a.handlers.Limited),
		Routes:      a.handlers.Routes(reg),
		OnStart: func(ctx context.Context, _ coretelegram.Runtime) error {
			logger.Info(ctx, "app", "config",
				slog.String("driver", a.cfg.Database.Driver),
				slog.Int("limit", a.cfg.Ads.DailyLimit),
				slog.Int("categories", len(a.cfg.Ads.Categories)),
				slog.String("timezone", a.cfg.Ads.Timezone),
			)
			return nil
		},
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			// Sessions are not persisted; drafts in progress are lost here.
			if n := a.engine.Active(); n > 0 {
				logger.Warn(ctx, "app", "sessions.dropped", slog.Int("count", n))
			}
			if a.db == nil {
				return nil
			}
			if err := a.db.Close(); err != nil {
				logger.Warn(ctx, "db", "db.close", logger.Err(err))
				return err
			}
			return nil
		},
	}, nil
}
