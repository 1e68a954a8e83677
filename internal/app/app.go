package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"AutoPublisher/internal/clock"
	"AutoPublisher/internal/config"
	"AutoPublisher/internal/document"
	"AutoPublisher/internal/infrastructure/mailbox"
	"AutoPublisher/internal/infrastructure/publisher"
	"AutoPublisher/internal/infrastructure/scheduler"
	"AutoPublisher/internal/infrastructure/sniffer"
	"AutoPublisher/internal/infrastructure/speller"
	"AutoPublisher/internal/infrastructure/telegram"
	"AutoPublisher/internal/logging"
	"AutoPublisher/internal/ports"
	"AutoPublisher/internal/runner"
	"AutoPublisher/internal/source"
	"AutoPublisher/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	bot      *telegram.Client
	mailbox  *mailbox.IMAP
	sessions *usecase.SessionStore
	news     *usecase.News
	watch    *usecase.MailWatch
	dispatch *telegram.Dispatcher
}

// New builds every adapter and use case from cfg.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	site, err := publisher.NewDrupal(publisher.Config{
		BaseURL:       cfg.Site.URL,
		Username:      cfg.Site.Username,
		Password:      cfg.Site.Password,
		WaitTimeout:   cfg.Site.WaitTimeout,
		PollInterval:  cfg.Site.PollInterval,
		LoginAttempts: cfg.Site.LoginAttempts,
		HTTPTimeout:   cfg.Site.HTTPTimeout,
	}, baseLogger)
	if err != nil {
		return nil, fmt.Errorf("publisher: %w", err)
	}

	mail := mailbox.NewIMAP(mailbox.Config{
		Server:       cfg.Mail.Server,
		Login:        cfg.Mail.Login,
		Password:     cfg.Mail.Password,
		TLS:          cfg.Mail.TLS,
		Mailbox:      cfg.Mail.Mailbox,
		TmpDir:       cfg.Storage.TmpDir,
		FolderPrefix: cfg.Storage.FolderPrefix,
	}, baseLogger)

	bot := telegram.NewClient(cfg.Telegram.APIURL, cfg.Telegram.BotToken, cfg.Telegram.HTTPTimeout)

	var spell ports.Speller
	if cfg.Speller.Enabled {
		spell = speller.NewYandex(cfg.Speller.Endpoint, cfg.Speller.Timeout)
	}

	sources := source.NewRegistry()
	sources.Register(source.Source{Command: "mail", Address: cfg.Mail.From, Label: cfg.Mail.FromLabel})
	sources.Register(source.Source{Command: "mymail", Address: cfg.Mail.AlternateFrom, Label: cfg.Mail.AlternateFromLabel})

	loc := cfg.Schedule.Location()
	clk := clock.NewReal(loc)
	tools := runner.NewExec(baseLogger.With("component", "runner"))
	resizer := document.NewResizer(tools, cfg.Tools.ImageMagick)

	news := usecase.NewNews(usecase.NewsDeps{
		Speller:    spell,
		Resizer:    resizer,
		Publisher:  site,
		ImageMaxMB: cfg.Limits.NewsImageMaxMB,
		WideSide:   cfg.Limits.WideSide,
		Logger:     baseLogger.With("component", "news"),
	})

	sessions := usecase.NewSessionStore()
	workflow := usecase.NewWorkflow(usecase.WorkflowDeps{
		Sessions: sessions,
		Sources:  sources,
		Intake: usecase.NewIntake(usecase.IntakeDeps{
			Mailbox:      mail,
			Fetcher:      bot,
			Runner:       tools,
			UnrarBin:     cfg.Tools.Unrar,
			TmpDir:       cfg.Storage.TmpDir,
			FolderPrefix: cfg.Storage.FolderPrefix,
			Logger:       baseLogger.With("component", "intake"),
		}),
		News: news,
		Schedule: usecase.NewSchedule(usecase.ScheduleDeps{
			Rasterizer: document.NewRasterizer(document.RasterizerConfig{
				Soffice:     cfg.Tools.Soffice,
				ImageMagick: cfg.Tools.ImageMagick,
				ImageFormat: cfg.Schedule.ImageFormat,
			}, tools, clk, baseLogger.With("component", "rasterizer")),
			Publisher:    site,
			Clock:        clk,
			BlockFromDay: cfg.Schedule.BlockFromDay,
			BlockToDay:   cfg.Schedule.BlockToDay,
			Location:     loc,
			Logger:       baseLogger.With("component", "schedule"),
		}),
		Banner: usecase.NewBanner(usecase.BannerDeps{
			Fetcher:        bot,
			Sniffer:        sniffer.Mimetype{},
			Resizer:        resizer,
			Publisher:      site,
			Clock:          clk,
			SupportedKinds: sniffer.SupportedKinds(),
			TmpDir:         cfg.Storage.TmpDir,
			FolderPrefix:   cfg.Storage.FolderPrefix,
			ImageMaxMB:     cfg.Limits.BannerImageMaxMB,
			WideSide:       cfg.Limits.WideSide,
			Logger:         baseLogger.With("component", "banner"),
		}),
		Mailbox:       mail,
		Messenger:     bot,
		MessageLimit:  cfg.Limits.MessageLimit,
		WindowFromDay: cfg.Schedule.BlockFromDay,
		WindowToDay:   cfg.Schedule.BlockToDay,
		Logger:        baseLogger.With("component", "workflow"),
	})

	dispatcher := telegram.NewDispatcher(telegram.DispatcherDeps{
		OwnerID:      cfg.Telegram.OwnerID,
		Conversation: workflow,
		Messenger:    bot,
		Answerer:     bot,
		Logger:       baseLogger,
	})

	watch := usecase.NewMailWatch(usecase.MailWatchDeps{
		Driver:    scheduler.NewTickerScheduler(cfg.Watch.Interval),
		Counter:   mail,
		Sources:   sources,
		Messenger: bot,
		OwnerID:   cfg.Telegram.OwnerID,
		Logger:    baseLogger.With("component", "watch"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		bot:      bot,
		mailbox:  mail,
		sessions: sessions,
		news:     news,
		watch:    watch,
		dispatch: dispatcher,
	}, nil
}

// Run serves the bot until ctx is cancelled. Items still live at shutdown
// are rolled back so their mail stays unread.
func (a *Application) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	switch a.cfg.Telegram.Mode {
	case config.ModeWebhook:
		if err := a.bot.SetWebhook(ctx, a.cfg.Telegram.Webhook.PublicURL, a.cfg.Telegram.Webhook.Secret); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		hook := telegram.NewWebhook(a.cfg.Telegram.Webhook.Listen, a.cfg.Telegram.Webhook.Path,
			a.cfg.Telegram.Webhook.Secret, a.dispatch, a.logger)
		g.Go(func() error { return hook.Run(gctx) })
	default:
		if err := a.bot.SetWebhook(ctx, "", ""); err != nil {
			return fmt.Errorf("delete webhook: %w", err)
		}
		poller := telegram.NewPoller(a.bot, a.dispatch, a.cfg.Telegram.PollTimeout, a.logger)
		g.Go(func() error { return poller.Run(gctx) })
	}

	if err := a.watch.Start(gctx); err != nil {
		return fmt.Errorf("start watch: %w", err)
	}
	a.logger.Info("bot started", "mode", a.cfg.Telegram.Mode, "watch", a.cfg.Watch.Interval)

	runErr := g.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	stopErr := errors.Join(
		a.watch.Stop(stopCtx),
		a.sessions.Close(stopCtx, a.mailbox),
	)
	if stopErr != nil {
		a.logger.Error("shutdown", "error", stopErr)
	}
	return errors.Join(runErr, stopErr)
}

// PublishFolder publishes a prepared news folder without the chat loop.
func (a *Application) PublishFolder(ctx context.Context, folder string) (string, error) {
	return a.news.PublishFolder(ctx, folder)
}
