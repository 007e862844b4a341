package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/config"
	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
	"github.com/johnik1293-hash/baby-tracker-bot/internal/scheduler"
	"github.com/johnik1293-hash/baby-tracker-bot/internal/store"
	"github.com/johnik1293-hash/baby-tracker-bot/internal/telegram"
	"github.com/johnik1293-hash/baby-tracker-bot/internal/timeline"
	"github.com/johnik1293-hash/baby-tracker-bot/internal/web"
)

// App owns the process lifecycle: storage, bot, scheduler, HTTP.
type App struct {
	cfg config.Config
	log *zap.Logger
	bot *tgbotapi.BotAPI
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	return &App{cfg: cfg, log: log, bot: bot}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting baby-tracker-bot",
		zap.String("http", a.cfg.HTTPAddr),
		zap.Duration("pollInterval", a.cfg.PollInterval),
	)

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	defer func() { _ = repo.Close() }()
	a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))

	notifier := telegram.NewNotifier(a.bot, a.cfg.SendTimeout)
	sched := scheduler.New(repo, a.log, notifier, a.cfg.PollInterval)
	agg := newAggregator(a.log, repo)
	router := telegram.NewRouter(a.bot, a.log, repo, sched, agg)
	httpSrv := web.NewServer(a.cfg.HTTPAddr, a.log, agg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	// The scheduler stops at a cycle boundary when ctx is canceled; schedDone
	// lets shutdown wait for the in-flight cycle to commit.
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(ctx)
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			<-schedDone

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := httpSrv.Shutdown(shCtx)
			cancel()
			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			return nil

		case upd := <-updCh:
			router.HandleUpdate(ctx, upd)
		}
	}
}

// newAggregator registers the full set of event kinds available in this
// deployment. Kinds are fixed here at startup; nothing probes for tables at
// request time.
func newAggregator(log *zap.Logger, repo store.Repo) *timeline.Aggregator {
	agg := timeline.New(log)
	agg.Register(domain.KindSleep, timeline.SourceFunc(repo.SleepEvents), timeline.RenderSleep)
	agg.Register(domain.KindFeeding, timeline.SourceFunc(repo.FeedingEvents), timeline.RenderFeeding)
	agg.Register(domain.KindHealth, timeline.SourceFunc(repo.HealthEvents), timeline.RenderHealth)
	for _, kind := range []domain.EventKind{domain.KindDiaper, domain.KindBath, domain.KindCare} {
		k := kind
		agg.Register(k, timeline.SourceFunc(
			func(ctx context.Context, scope domain.Scope, w domain.Window, limit int) ([]domain.CareEvent, error) {
				return repo.CareEventsByKind(ctx, k, scope, w, limit)
			}), timeline.RenderCare)
	}
	return agg
}
