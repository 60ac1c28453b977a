package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/analytics"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/assets"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/bot"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/bot/telegramadapter"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/config"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/dispatch"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/fsm"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/pricing"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/render"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/server"
	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/state"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to read .env: %v", err)
	}

	settings, err := config.LoadSettingsFromEnv()
	if err != nil {
		log.Panicf("Failed to read settings: %v", err)
	}

	if err := config.LoadConfig(settings.ConfigPath); err != nil {
		log.Panicf("Failed to load configuration: %v", err)
	}
	loadedConfig := config.GetConfig()
	settings.ApplyOverrides(loadedConfig)
	log.Println("Configuration loaded successfully.")

	catalogStore, err := loadedConfig.Catalog()
	if err != nil {
		log.Panicf("Failed to build catalog: %v", err)
	}
	engine, err := pricing.NewEngine(loadedConfig.PricePerSquareMeter, loadedConfig.TermMonths, nil)
	if err != nil {
		log.Panicf("Failed to create pricing engine: %v", err)
	}
	log.Printf("Pricing: %s %s per m², %d monthly installments", pricing.FormatMoney(engine.PricePerSqM()), loadedConfig.Currency, engine.TermMonths())

	intro, err := assets.LoadIntro(loadedConfig.IntroPath)
	if err != nil {
		log.Panicf("Failed to load intro text: %v", err)
	}
	gallery, err := assets.LoadGallery(loadedConfig.GalleryDir)
	if err != nil {
		log.Panicf("Failed to load photo gallery: %v", err)
	}
	log.Printf("Loaded %d gallery photos from %q", gallery.Len(), loadedConfig.GalleryDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	funnel, closeAnalytics := buildFunnel(ctx, settings)
	defer closeAnalytics()

	botClient, err := bot.NewClient(settings.BotToken)
	if err != nil {
		log.Panicf("Failed to initialize bot client: %v", err)
	}
	log.Printf("Authorized on account %s", botClient.Self.UserName)

	var adapterOpts []telegramadapter.Option
	if settings.SendRate > 0 {
		adapterOpts = append(adapterOpts, telegramadapter.WithSendRate(settings.SendRate, int(settings.SendRate)))
	}
	botPort, err := telegramadapter.New(botClient, log.Default(), adapterOpts...)
	if err != nil {
		log.Panicf("Failed to create telegram adapter: %v", err)
	}

	stateStore := state.NewStore(fsm.NewFSMCreator(funnel))
	controller, err := fsm.NewController(catalogStore, engine, gallery.Len())
	if err != nil {
		log.Panicf("Failed to create controller: %v", err)
	}
	renderer, err := render.New(render.Options{
		Catalog:  catalogStore,
		Intro:    intro,
		Gallery:  gallery,
		VideoURL: loadedConfig.VideoURL,
		Venue: render.Venue{
			Title:     loadedConfig.Venue.Title,
			Address:   loadedConfig.Venue.Address,
			Latitude:  loadedConfig.Venue.Latitude,
			Longitude: loadedConfig.Venue.Longitude,
		},
		Currency: loadedConfig.Currency,
	})
	if err != nil {
		log.Panicf("Failed to create renderer: %v", err)
	}
	handler, err := fsm.NewHandler(stateStore, controller, renderer, botPort)
	if err != nil {
		log.Panicf("Failed to create handler: %v", err)
	}

	// Handlers keep their own context so queued events can drain after a shutdown signal.
	handlerCtx, cancelHandlers := context.WithCancel(context.Background())
	defer cancelHandlers()
	dispatcher := dispatch.New(handlerCtx, handler.HandleEvent)

	gin.SetMode(gin.ReleaseMode)
	admin := server.New(settings.HTTPAddr, funnel, server.Stats{
		Sessions: stateStore.Len,
		Pending:  dispatcher.Pending,
	})
	go func() {
		if err := admin.Start(); err != nil {
			log.Printf("Admin HTTP server stopped: %v", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Println("Shutdown signal received...")
		cancel()
	}()

	updates := botClient.GetUpdatesChan(60)
	log.Println("Starting update processing...")

	runUpdateLoop(ctx, updates, dispatcher)

	botClient.StopReceivingUpdates()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Printf("Dispatcher did not drain: %v", err)
	}
	if err := admin.Shutdown(shutdownCtx); err != nil {
		log.Printf("Admin HTTP server shutdown failed: %v", err)
	}
	log.Println("Bot stopped.")
}

func runUpdateLoop(ctx context.Context, updates tgbotapi.UpdatesChannel, dispatcher *dispatch.Dispatcher) {
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				log.Println("Updates channel closed.")
				return
			}
			if update.UpdateID == 0 {
				continue
			}
			event, ok := fsm.Normalize(update)
			if !ok {
				continue
			}
			if err := dispatcher.Submit(event); err != nil {
				log.Printf("Dropping update %d for conversation %d: %v", update.UpdateID, event.ConversationID, err)
			}
		case <-ctx.Done():
			log.Println("Stopping update processing loop...")
			return
		}
	}
}

// buildFunnel picks Postgres when DATABASE_DSN is set and memory otherwise, and adds the
// Redis queue when REDIS_ADDR is set. Storage failures fall back to memory.
func buildFunnel(ctx context.Context, settings config.Settings) (*analytics.Funnel, func()) {
	var closers []func() error
	var repo analytics.FunnelRepository = analytics.NewMemoryFunnelRepo()

	if settings.DatabaseDSN != "" {
		db, err := analytics.OpenPostgres(settings.DatabaseDSN)
		if err != nil {
			log.Printf("Warning: funnel falls back to memory: %v", err)
		} else if pg, err := analytics.NewGormFunnelRepo(db); err != nil {
			log.Printf("Warning: funnel falls back to memory: %v", err)
		} else {
			repo = pg
			closers = append(closers, pg.Close)
			log.Println("Funnel hits are stored in Postgres.")
		}
	}

	var publishers []analytics.Publisher
	if settings.RedisAddr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		queue, err := analytics.NewRedisQueue(pingCtx, settings.RedisAddr, settings.FunnelQueue)
		cancel()
		if err != nil {
			log.Printf("Warning: funnel events are not queued: %v", err)
		} else {
			publishers = append(publishers, queue)
			closers = append(closers, queue.Close)
			log.Printf("Funnel events are pushed to Redis at %s.", settings.RedisAddr)
		}
	}

	funnel := analytics.NewFunnel(repo, fsm.FunnelOrder, publishers...)
	return funnel, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Printf("Warning: failed to close analytics backend: %v", err)
			}
		}
	}
}
