package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/prayer-bot/assets"
	"github.com/ykvlv/prayer-bot/internal/broadcast"
	"github.com/ykvlv/prayer-bot/internal/clock"
	"github.com/ykvlv/prayer-bot/internal/config"
	"github.com/ykvlv/prayer-bot/internal/scheduler"
	"github.com/ykvlv/prayer-bot/internal/store"
	"github.com/ykvlv/prayer-bot/internal/subscription"
	"github.com/ykvlv/prayer-bot/internal/telegram"
	"github.com/ykvlv/prayer-bot/internal/timetable"
	"github.com/ykvlv/prayer-bot/internal/trigger"
)

const shutdownTimeout = 5 * time.Second

// App is the assembled service. Nothing starts until Run.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	loc     *time.Location
	clock   clock.Clock
	bot     *tgbotapi.BotAPI // long polling
	sendBot *tgbotapi.BotAPI // outbound, HTTP calls bounded by SEND_TIMEOUT
	httpSrv *http.Server

	repo      store.Repo
	cache     *timetable.Cache
	registry  *trigger.Registry
	scheduler *scheduler.Scheduler
	router    *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	if err := cfg.RequireBot(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	sendBot, err := telegram.NewSendBot(cfg.BotToken, tgbotapi.APIEndpoint, cfg.SendTimeout)
	if err != nil {
		return nil, err
	}

	return &App{cfg: cfg, log: log, loc: loc, clock: clock.Real(), bot: bot, sendBot: sendBot}, nil
}

// NewSource builds the configured timetable source.
func NewSource(cfg config.Config, log *zap.Logger) timetable.Source {
	if cfg.TimetableSource == "html" {
		return timetable.NewHTMLSource(cfg.TimetableURL, cfg.TimetableSelector, cfg.TimetableTimeout, log)
	}
	if cfg.TimetableDir != "" {
		return timetable.NewFileSource(os.DirFS(cfg.TimetableDir))
	}
	return timetable.NewFileSource(assets.Timetables())
}

// OpenStore opens the configured subscriber store.
func OpenStore(ctx context.Context, cfg config.Config) (store.Repo, error) {
	if cfg.DBDriver == "postgres" {
		repo, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	repo, err := store.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (a *App) wire(ctx context.Context) error {
	repo, err := OpenStore(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.repo = repo
	a.log.Info("store ready", zap.String("driver", a.cfg.DBDriver))

	client := telegram.NewClient(a.sendBot, a.cfg.SendRate)
	a.cache = timetable.NewCache(NewSource(a.cfg, a.log), a.clock, a.log)

	dispatcher := scheduler.NewDispatcher(repo, client, a.loc, a.log)
	a.registry = trigger.NewRegistry(a.clock, dispatcher, a.log)
	a.scheduler = scheduler.New(a.cache, a.registry, repo, a.clock, a.loc, a.cfg.ScheduleWorkers, a.log)

	a.router = telegram.NewRouter(telegram.Deps{
		Client:        client,
		Subscriptions: subscription.New(repo, a.scheduler, a.log),
		Resolver:      scheduler.NewResolver(a.cache, a.loc),
		Triggers:      a.registry,
		Broadcaster:   broadcast.New(repo, client, a.log),
		Timetables:    a.cache,
		Clock:         a.clock,
		Location:      a.loc,
		AdminID:       a.cfg.AdminID,
	}, a.log)

	a.httpSrv = &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      a.healthRouter(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	return nil
}

func (a *App) healthRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"timezone":         a.loc.String(),
			"now":              a.clock.Now().In(a.loc).Format(time.RFC3339),
			"pending_triggers": a.registry.Pending(),
			"in_flight":        a.registry.InFlight(),
		})
	})
	return r
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting prayer-bot",
		zap.String("tz", a.loc.String()),
		zap.String("timetable", a.cfg.TimetableSource),
		zap.String("http", a.cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.wire(ctx); err != nil {
		a.log.Error("init failed", zap.Error(err))
		return err
	}
	if err := a.scheduler.Start(ctx); err != nil {
		a.shutdown()
		return err
	}

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.bot.StopReceivingUpdates()
			a.shutdown()
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

// shutdown stops the midnight job, cancels pending triggers, waits briefly
// for running deliveries and broadcasts, then releases the HTTP server and
// the store.
func (a *App) shutdown() {
	shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.registry != nil {
		if err := a.registry.Shutdown(shCtx); err != nil {
			a.log.Warn("in-flight reminders did not finish", zap.Error(err))
		}
	}
	if a.router != nil {
		if err := a.router.Wait(shCtx); err != nil {
			a.log.Warn("broadcast did not finish", zap.Error(err))
		}
	}
	if a.httpSrv != nil {
		if err := a.httpSrv.Shutdown(shCtx); err != nil {
			a.log.Warn("http server shutdown error", zap.Error(err))
		}
	}
	if a.repo != nil {
		_ = a.repo.Close()
	}
}
