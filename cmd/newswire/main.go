// Newswire aggregates regional US news from external providers, stores and
// classifies it, and distributes it over a REST API, webhooks, and email.
//
// Usage:
//
//	newswire serve        # run the API server with the background scheduler
//	newswire fetch        # run one aggregation cycle and exit
//	newswire subscribe    # replace a user's subscriptions
//	newswire subscribers  # list all subscriptions
//	newswire version      # show version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/mkravets/newswire/internal/aggregator"
	"github.com/mkravets/newswire/internal/api"
	"github.com/mkravets/newswire/internal/cache"
	"github.com/mkravets/newswire/internal/classify"
	innotify "github.com/mkravets/newswire/internal/notify"
	"github.com/mkravets/newswire/internal/provider"
	"github.com/mkravets/newswire/internal/scheduler"
	"github.com/mkravets/newswire/internal/store"
	"github.com/mkravets/newswire/pkg/config"
	"github.com/mkravets/newswire/pkg/notify"
	"github.com/mkravets/newswire/pkg/storage"
)

var version = "dev"

type appConfig struct {
	Server struct {
		Port string `yaml:"port" env:"NEWSWIRE_PORT"`
	} `yaml:"server"`
	Database   storage.Config       `yaml:"database"`
	Aggregator aggregator.Config    `yaml:"aggregator"`
	Providers  struct {
		NewsAPIKey  string `yaml:"newsapi_key" env:"NEWS_API_KEY"`
		CurrentsKey string `yaml:"currents_key" env:"CURRENTS_API_KEY"`
	} `yaml:"providers"`
	Scheduler struct {
		Spec string `yaml:"spec" env:"NEWSWIRE_CRON"`
	} `yaml:"scheduler"`
	Cache struct {
		TTL time.Duration `yaml:"ttl" env:"NEWSWIRE_CACHE_TTL"`
	} `yaml:"cache"`
	Webhook notify.WebhookConfig `yaml:"webhook"`
	Email   notify.EmailConfig   `yaml:"email"`
}

func loadConfig(path string) (*appConfig, error) {
	cfg := &appConfig{}
	cfg.Server.Port = "8080"
	cfg.Database.Path = "data/newswire.db"
	cfg.Scheduler.Spec = scheduler.DefaultSpec
	cfg.Cache.TTL = cache.DefaultTTL

	if err := config.LoadOrDefault(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	var configPath string

	rootCmd := &cobra.Command{
		Use:   "newswire",
		Short: "Regional news aggregation and distribution engine",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "newswire.yaml", "path to config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(fetchCmd(&configPath))
	rootCmd.AddCommand(subscribeCmd(&configPath))
	rootCmd.AddCommand(subscribersCmd(&configPath))
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server with the background fetch scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func fetchCmd(configPath *string) *cobra.Command {
	var regions, topics []string
	var search string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run one aggregation cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(*configPath, regions, topics, search)
		},
	}
	cmd.Flags().StringSliceVar(&regions, "region", nil, "regions to fetch (default: all known)")
	cmd.Flags().StringSliceVar(&topics, "topic", nil, "topics to fetch (default: General)")
	cmd.Flags().StringVar(&search, "search", "", "free-text search term")
	return cmd
}

func subscribeCmd(configPath *string) *cobra.Command {
	var userID int64
	var regions, topics []string

	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Replace a user's subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 || len(regions) == 0 || len(topics) == 0 {
				return fmt.Errorf("--user, --region, and --topic are required")
			}
			return runSubscribe(*configPath, userID, regions, topics)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().StringSliceVar(&regions, "region", nil, "regions to subscribe to")
	cmd.Flags().StringSliceVar(&topics, "topic", nil, "topics to subscribe to")
	return cmd
}

func subscribersCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribers",
		Short: "List all subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubscribers(*configPath)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("newswire %s\n", version)
		},
	}
}

func openStores(cfg *appConfig) (*storage.DB, *store.ArticleStore, *store.SubscriptionStore, error) {
	db, err := storage.Open(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(context.Background(), store.Schema); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, store.NewArticleStore(db), store.NewSubscriptionStore(db), nil
}

func buildRegistry(cfg *appConfig) *provider.Registry {
	registry := provider.NewRegistry()
	if key := cfg.Providers.NewsAPIKey; key != "" {
		registry.Register(provider.NewHeadlinesProvider(key))
		registry.Register(provider.NewSearchProvider(key))
	}
	if key := cfg.Providers.CurrentsKey; key != "" {
		registry.Register(provider.NewKeywordProvider(key))
	}
	return registry
}

func buildDispatcher(cfg *appConfig) *notify.Dispatcher {
	dispatcher := notify.NewDispatcher()
	if cfg.Webhook.URL != "" {
		dispatcher.Register(notify.NewWebhookNotifier(cfg.Webhook))
	}
	if cfg.Email.SMTPHost != "" && cfg.Email.From != "" {
		dispatcher.Register(notify.NewEmailNotifier(cfg.Email))
	}
	return dispatcher
}

func runServe(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, articles, subs, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	registry := buildRegistry(cfg)
	if len(registry.All()) == 0 {
		slog.Warn("no provider API keys configured, external fetches will return nothing")
	}

	readCache := cache.New(cfg.Cache.TTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fanout := innotify.New(subs, innotify.NewChannelSender(buildDispatcher(cfg)))
	fanout.Start(ctx)

	agg := aggregator.New(registry, articles, readCache, fanout, cfg.Aggregator)

	sched := scheduler.New(subs, agg, cfg.Scheduler.Spec)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	server := api.NewServer(articles, subs, agg, readCache)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.Routes(),
	}

	go func() {
		slog.Info("starting API server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	sched.Stop()
	cancel()
	fanout.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	return nil
}

func runFetch(configPath string, regions, topics []string, search string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, articles, subs, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if len(regions) == 0 {
		regions = classify.Regions()
	}
	if len(topics) == 0 {
		topics = []string{classify.General}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fanout := innotify.New(subs, innotify.NewChannelSender(buildDispatcher(cfg)))
	fanout.Start(ctx)

	agg := aggregator.New(buildRegistry(cfg), articles, cache.New(cfg.Cache.TTL), fanout, cfg.Aggregator)
	inserted, err := agg.Run(ctx, regions, topics, search)
	if err != nil {
		return fmt.Errorf("aggregation cycle: %w", err)
	}

	cancel()
	fanout.Wait()

	fmt.Printf("stored %d new articles\n", len(inserted))
	return nil
}

func runSubscribe(configPath string, userID int64, regions, topics []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, _, subs, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := subs.ReplaceAll(ctx, userID, regions, topics); err != nil {
		return fmt.Errorf("replace subscriptions: %w", err)
	}
	fmt.Printf("user %d subscribed to %d region/topic pairs\n", userID, len(regions)*len(topics))
	return nil
}

func runSubscribers(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, _, subs, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	all, err := subs.All(ctx)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	if len(all) == 0 {
		fmt.Println("no subscribers")
		return nil
	}
	for userID, sub := range all {
		fmt.Printf("user %d: regions=%s topics=%s\n", userID,
			strings.Join(sub.Regions, ","), strings.Join(sub.Topics, ","))
	}
	return nil
}
