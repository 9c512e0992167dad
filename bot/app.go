package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/contentbot/bot/instagram"
	"github.com/m3rciful/contentbot/bot/llm"
	"github.com/m3rciful/contentbot/bot/storage"
	"github.com/m3rciful/contentbot/bot/texts"
	"github.com/m3rciful/contentbot/bot/workflows"
	"github.com/m3rciful/contentbot/core/bootstrap"
	"github.com/m3rciful/contentbot/core/broadcast"
	corecmd "github.com/m3rciful/contentbot/core/cmd"
	"github.com/m3rciful/contentbot/core/dialog"
	coretelegram "github.com/m3rciful/contentbot/core/telegram"
	"github.com/m3rciful/contentbot/core/telegram/commands"
	"github.com/m3rciful/contentbot/core/telegram/router"
)

// App holds the assembled bot: storage, workflows, the dialogue engine and
// the broadcast scheduler.
type App struct {
	cfg *Config

	users    *storage.Users
	messages *storage.Messages
	exporter *storage.Exporter

	deps      *workflows.Deps
	engine    *dialog.Engine
	scheduler *broadcast.Scheduler

	// background stops the scheduler and the session reaper on shutdown.
	background context.CancelFunc
}

// Bootstrap initializes infrastructure and wires the application together.
// The transport-facing pieces (sender, adapter) are bound later in
// TelegramRunOptions once the bot instance exists.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
		Seeders:  []bootstrap.Seeder{bootstrap.SeederFunc(seedConfiguredAdmin(cfg))},
	})
	if err != nil {
		return nil, err
	}

	users := storage.NewUsers(res.DB)
	messages := storage.NewMessages(res.DB)

	location, err := cfg.BroadcastLocation()
	if err != nil {
		return nil, err
	}

	deps := &workflows.Deps{
		Instagram: instagram.NewHTTPClient(
			cfg.Instagram.BaseURL,
			cfg.Instagram.Username,
			cfg.Instagram.Password,
			time.Duration(cfg.Instagram.TimeoutSeconds)*time.Second,
		),
		Ideas: llm.NewGenerator(cfg.LLM.APIKey, llm.Config{
			Model:        cfg.LLM.Model,
			MaxTokens:    int(cfg.LLM.MaxTokens),
			Temperature:  cfg.LLM.Temperature,
			SystemPrompt: cfg.LLM.SystemPrompt,
			HistoryLimit: cfg.LLM.HistoryLimit,
		}),
		Users:      users,
		Location:   location,
		FetchLimit: cfg.Instagram.FetchLimit,
	}

	app := &App{
		cfg:      cfg,
		users:    users,
		messages: messages,
		exporter: storage.NewExporter(res.DB),
		deps:     deps,
	}

	engine := dialog.NewEngine(dialog.Options{
		Cancel:     dialog.CallbackKey(workflows.CbCancel),
		OnCancel:   app.notifyCancelled,
		SessionTTL: time.Duration(cfg.Dialog.SessionTTLMinutes) * time.Minute,
		OnExpire:   app.notifyCancelled,
	})
	for _, wf := range workflows.All(deps) {
		if err := engine.Register(wf); err != nil {
			return nil, err
		}
	}
	app.engine = engine
	return app, nil
}

// seedConfiguredAdmin grants the admin role to the user from config so the
// admin menu works before anyone has used /add_admin.
func seedConfiguredAdmin(cfg *Config) func(ctx context.Context, db *sqlx.DB) error {
	return func(ctx context.Context, db *sqlx.DB) error {
		if cfg.Telegram.AdminID == 0 {
			return nil
		}
		return storage.NewUsers(db).EnsureAdmin(ctx, cfg.Telegram.AdminID)
	}
}

// notifyCancelled tells the owner their dialogue is over. It serves both
// explicit cancels and TTL expiry; a nil session means there was nothing
// to cancel and the confirmation is still sent.
func (a *App) notifyCancelled(ctx context.Context, s *dialog.Session, ev dialog.Event) error {
	if a.deps.Sender == nil {
		return nil
	}
	owner := ev.Owner
	if owner == 0 && s != nil {
		owner = s.Owner
	}
	lang, _ := a.userMeta(ctx, owner)
	return a.deps.Sender.Send(ctx, owner, texts.T(lang, "cancelled"))
}

// TelegramRunOptions implements cmd.TelegramApp. The returned options bind
// the dispatcher-backed sender and scheduler lifecycle to the bot runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Start the bot",
	})
	reg.RegisterCommand("/menu", commands.Command{
		Handler:     a.handleMenu,
		Description: "Show the menu",
		Aliases:     []string{"//menu"},
	})
	if err := reg.RegisterCallback(workflows.CbMenu, a.handleMenu); err != nil {
		return coretelegram.RunOptions{}, err
	}
	if err := reg.RegisterCallback(workflows.CbExportData, a.handleExport); err != nil {
		return coretelegram.RunOptions{}, err
	}
	reg.SetTextFallback(a.handleMenu)
	reg.SetCallbackNotFound(a.handleMenu)

	adapter := newDialogAdapter(a.engine, a.deps)
	routes := router.TextRoutes(adapter, reg, router.TextOptions{})
	routes = append(routes, router.CallbackRoute(reg, adapter, router.CallbackOptions{}))

	mws := coretelegram.DefaultMiddlewares(&a.cfg.Config, nil)
	mws = append(mws, coretelegram.Middleware{
		Name: "user_sync",
		Use:  UserSyncMiddleware(a.users, a.messages),
	})

	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		Middlewares: mws,
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

// onStart binds the outbound sender to the live bot and launches the
// scheduler and the session reaper.
func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	a.deps.Sender = newTelegramSender(rt.Bot, rt.Dispatcher)

	a.scheduler = broadcast.NewScheduler(broadcast.Options{
		Recipients:   a.users,
		Deliverer:    broadcastDeliverer(rt.Bot),
		PollInterval: time.Duration(a.cfg.Broadcast.PollIntervalMS) * time.Millisecond,
	})
	a.deps.Scheduler = a.scheduler

	bgCtx, cancel := context.WithCancel(context.Background())
	a.background = cancel
	go a.scheduler.Run(bgCtx)
	go a.engine.RunReaper(bgCtx, time.Duration(a.cfg.Dialog.ReaperIntervalSeconds)*time.Second)
	return nil
}

func (a *App) onStop(ctx context.Context, rt coretelegram.Runtime) error {
	if a.background != nil {
		a.background()
	}
	return nil
}
