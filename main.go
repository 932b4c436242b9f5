package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/giveaway-bot/giveawaybot"
	"github.com/disgoorg/giveaway-bot/giveawaybot/commands"
	"github.com/disgoorg/giveaway-bot/giveawaybot/commands/admin"
	"github.com/disgoorg/giveaway-bot/giveawaybot/database"
	"github.com/disgoorg/giveaway-bot/giveawaybot/database/mongodb"
	"github.com/disgoorg/giveaway-bot/giveawaybot/database/repositories"
	"github.com/disgoorg/giveaway-bot/giveawaybot/giveaway"
	"github.com/disgoorg/giveaway-bot/giveawaybot/handlers"
	"github.com/disgoorg/giveaway-bot/giveawaybot/loader"
	"github.com/disgoorg/giveaway-bot/giveawaybot/logger"
	"github.com/disgoorg/giveaway-bot/giveawaybot/services"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting Giveaway Discord Bot",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	importLinks := flag.String("import-links", "", "Import gift links from a text file and exit")
	importWinners := flag.String("import-winners", "", "Import winners from a CSV file and exit")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := giveawaybot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	customHandler.SetLevel(cfg.Log.Level)
	slog.Info("Configuration loaded successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	storeStartTime := time.Now()
	var (
		store   giveaway.Store
		winners repositories.WinnerRepository
		audit   repositories.AuditRepository
	)

	switch cfg.Store {
	case giveawaybot.StoreMongo:
		slog.Info("Connecting to MongoDB...")
		mongoStore, err := mongodb.New(ctx, cfg.Mongo)
		if err != nil {
			slog.Error("MongoDB connection failed",
				slog.String("error", err.Error()),
				slog.Duration("attempted_for", time.Since(storeStartTime)))
			os.Exit(-1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			mongoStore.Close(ctx)
		}()

		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			slog.Error("Failed to ensure MongoDB indexes",
				slog.String("error", err.Error()))
			os.Exit(-1)
		}

		store = mongoStore
		winners = mongodb.NewWinnerRepository(mongoStore)
		audit = mongodb.NewAuditRepository(mongoStore)

	default:
		slog.Info("Initializing database connection...")
		db, err := database.New(ctx, cfg.DB)
		if err != nil {
			slog.Error("Database connection failed",
				slog.String("error", err.Error()),
				slog.Duration("attempted_for", time.Since(storeStartTime)))
			os.Exit(-1)
		}
		defer db.Close()

		slog.Info("Initializing database schema...")
		if err := db.InitializeSchema(ctx); err != nil {
			slog.Error("Failed to initialize database schema",
				slog.String("error", err.Error()),
				slog.Duration("attempted_for", time.Since(storeStartTime)))
			os.Exit(-1)
		}

		store = database.NewStore(db.BunDB())
		winners = repositories.NewWinnerRepository(db.BunDB())
		audit = repositories.NewAuditRepository(db.BunDB())
	}

	slog.Info("Store ready",
		slog.String("store", cfg.Store),
		slog.Duration("took", time.Since(storeStartTime)))

	engine := giveaway.New(store)

	// Offline import mode runs against the live store and exits before
	// any Discord connection is made.
	if *importLinks != "" || *importWinners != "" {
		importer := loader.NewImporter(engine)
		if *importLinks != "" {
			added, err := importer.ImportCodes(ctx, *importLinks)
			if err != nil {
				slog.Error("Link import failed", slog.Any("error", err))
				os.Exit(-1)
			}
			fmt.Printf("Imported %d gift link(s)\n", added)
		}
		if *importWinners != "" {
			added, err := importer.ImportWinners(ctx, *importWinners)
			if err != nil {
				slog.Error("Winner import failed", slog.Any("error", err))
				os.Exit(-1)
			}
			fmt.Printf("Imported %d winner(s)\n", added)
		}
		return
	}

	b := giveawaybot.New(*cfg, version, commit)
	b.Engine = engine
	b.Winners = winners
	b.Audit = audit
	b.Notifier = services.NewAuditNotifier(cfg.Bot.LogChannelID, cfg.Bot.LogWebhookURL)

	h := handler.New()
	h.Command("/claim", handlers.WrapWithLogging("claim", commands.ClaimHandler(b)))
	h.Command("/add-links", handlers.WrapWithLogging("add-links", admin.AddLinksHandler(b)))
	h.Command("/add-links-file", handlers.WrapWithLogging("add-links-file", admin.AddLinksFileHandler(b)))
	h.Command("/add-winner", handlers.WrapWithLogging("add-winner", admin.AddWinnerHandler(b)))
	h.Command("/disable-link", handlers.WrapWithLogging("disable-link", admin.DisableLinkHandler(b)))
	h.Command("/stats", handlers.WrapWithLogging("stats", admin.StatsHandler(b)))
	h.Command("/history", handlers.WrapWithLogging("history", admin.HistoryHandler(b)))
	h.Command("/winners", handlers.WrapWithLogging("winners", admin.WinnersHandler(b)))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}
	b.Notifier.SetClient(b.Client)

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	gatewayCtx, gatewayCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gatewayCancel()
	if err = b.Client.OpenGateway(gatewayCtx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("component", "gateway"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	slog.Info("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...")
}
