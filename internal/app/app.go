// Package app wires the services together and runs the bot.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alexguevara007/Astrobot-2.0/internal/compat"
	"github.com/alexguevara007/Astrobot-2.0/internal/config"
	"github.com/alexguevara007/Astrobot-2.0/internal/gpt"
	"github.com/alexguevara007/Astrobot-2.0/internal/horoscope"
	"github.com/alexguevara007/Astrobot-2.0/internal/logger"
	"github.com/alexguevara007/Astrobot-2.0/internal/lunar"
	"github.com/alexguevara007/Astrobot-2.0/internal/metrics"
	"github.com/alexguevara007/Astrobot-2.0/internal/ratelimit"
	"github.com/alexguevara007/Astrobot-2.0/internal/scheduler"
	"github.com/alexguevara007/Astrobot-2.0/internal/scraper"
	"github.com/alexguevara007/Astrobot-2.0/internal/storage"
	"github.com/alexguevara007/Astrobot-2.0/internal/tarot"
	"github.com/alexguevara007/Astrobot-2.0/internal/telegram"
	"github.com/alexguevara007/Astrobot-2.0/internal/translate"
)

type App struct {
	cfg       *config.Config
	store     *storage.Store
	router    *telegram.Router
	scheduler *scheduler.Scheduler
	httpSrv   *http.Server
}

func New(cfg *config.Config) (*App, error) {
	store, err := storage.OpenStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	fileCache := storage.OpenFileCache(cfg.CacheFilePath)
	lunarCache := storage.OpenLunarCache(cfg.LunarCacheFilePath)

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	scr := scraper.New(httpClient, cfg.HoroscopeURLTemplate, cfg.HoroscopeFeedURL, cfg.DayEnergyURL)
	translator := translate.New(httpClient, cfg.YandexAPIKey, cfg.YandexFolderID, cfg.YandexOAuthToken, cfg.OpenAIAPIKey)
	rewriter := gpt.New(nil, cfg.YandexGPTAPIKey, cfg.YandexFolderID, cfg.YandexOAuthToken, cfg.GeminiAPIKey)

	generator := horoscope.NewGenerator(scr, translator, rewriter, fileCache, horoscope.Options{
		Energy: scr.DayEnergy,
	})

	lunarSvc := lunar.NewService(lunarCache, nil)

	deck, err := tarot.NewDeck(nil)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load tarot deck: %w", err)
	}
	matcher, err := compat.NewMatcher()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load compatibility data: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	bot.Debug = cfg.Debug
	logger.Info("authorized on telegram", "account", bot.Self.UserName)

	handlers := telegram.NewHandlers(bot, generator, lunarSvc, deck, matcher, store,
		cfg.AdminIDs, cfg.Timezone, nil)
	router := telegram.NewRouter(bot, handlers, store)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	sched := scheduler.New(bot, store, generator, fileCache,
		ratelimit.New(cfg.BroadcastLimit), cfg.BroadcastHour, loc)

	a := &App{
		cfg:       cfg,
		store:     store,
		router:    router,
		scheduler: sched,
	}
	if cfg.Monitoring {
		a.httpSrv = monitoringServer(cfg.HTTPAddr)
	}
	return a, nil
}

// Run blocks until the context is cancelled, then shuts everything
// down.
func (a *App) Run(ctx context.Context) error {
	if a.httpSrv != nil {
		go func() {
			logger.Info("monitoring server started", "addr", a.httpSrv.Addr)
			if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("monitoring server failed", "error", err)
			}
		}()
	}

	go a.scheduler.Run(ctx)
	a.router.Run(ctx)

	if a.httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("monitoring server shutdown failed", "error", err)
		}
	}
	return a.store.Close()
}

func monitoringServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(metrics.Global.GetStats())
	})
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}
