package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/signalpro/internal/alert"
	"github.com/newthinker/signalpro/internal/api"
	"github.com/newthinker/signalpro/internal/chart"
	"github.com/newthinker/signalpro/internal/config"
	"github.com/newthinker/signalpro/internal/export"
	"github.com/newthinker/signalpro/internal/logger"
	"github.com/newthinker/signalpro/internal/metrics"
	"github.com/newthinker/signalpro/internal/notifier/telegram"
	"github.com/newthinker/signalpro/internal/notifier/webhook"
	"github.com/newthinker/signalpro/internal/session"
	"github.com/newthinker/signalpro/internal/storage/archive"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	log.Info("starting SignalPro server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Duration("refresh_interval", cfg.Refresh.Interval),
	)

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	sess, err := newSession(cfg, log, session.WithMetrics(reg))
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	defer sess.Close()

	store, err := archive.New(cfg.Archive)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	exporter := export.NewExporter(sess, store, export.WithLogger(log), export.WithMetrics(reg),
		export.WithRetention(cfg.Archive.Retain))

	server, err := api.NewServer(api.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		APIKey:       cfg.Server.APIKey,
		MetricsPath:  cfg.Metrics.Path,
		TemplatesDir: cfg.Server.TemplatesDir,
		Chart:        chart.ConfigFrom(cfg.Chart),
		ChartWidth:   cfg.Chart.Width,
		ChartHeight:  cfg.Chart.Height,
	}, api.Dependencies{Session: sess, Metrics: reg, Exporter: exporter}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	var scheduler *export.Scheduler
	if cfg.Archive.Schedule != "" {
		scheduler, err = export.NewScheduler(exporter, cfg.Archive.Schedule, log)
		if err != nil {
			return err
		}
		scheduler.Start()
	}

	evaluator, rules, err := newAlertEvaluator(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(rules) > 0 {
		go alert.Watch(ctx, sess, evaluator, rules)
	}

	go func() {
		if err := sess.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("refresh loop error", zap.Error(err))
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			log.Error("server error", zap.Error(err))
		}
	}

	log.Info("shutting down SignalPro server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	// Closing the session ends every stream before the server drains.
	sess.Close()
	return server.Shutdown(shutdownCtx)
}

// newAlertEvaluator returns no rules when alerting is not configured.
func newAlertEvaluator(cfg *config.Config, log *zap.Logger) (*alert.Evaluator, []alert.Rule, error) {
	rules, err := alert.RulesFrom(cfg.Alerts.Rules)
	if err != nil {
		return nil, nil, err
	}
	if len(rules) == 0 {
		return nil, nil, nil
	}

	var notifiers []alert.Notifier
	if cfg.Alerts.Webhook.URL != "" {
		w, err := webhook.New(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Headers)
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, w)
	}
	if cfg.Alerts.Telegram.BotToken != "" {
		tg, err := telegram.New(cfg.Alerts.Telegram.BotToken, cfg.Alerts.Telegram.ChatID)
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, tg)
	}
	if len(notifiers) == 0 {
		log.Warn("alert rules configured without a notifier; fired alerts are only logged")
	}

	evaluator := alert.NewEvaluator(notifiers, log)
	evaluator.SetCooldown(cfg.Alerts.Cooldown)
	log.Info("alerting enabled", zap.Int("rules", len(rules)), zap.Int("notifiers", len(notifiers)))
	return evaluator, rules, nil
}
