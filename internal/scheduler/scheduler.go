// Package scheduler runs the time-driven jobs: the morning horoscope
// broadcast and the nightly cache purge.
package scheduler

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alexguevara007/Astrobot-2.0/internal/horoscope"
	"github.com/alexguevara007/Astrobot-2.0/internal/locales"
	"github.com/alexguevara007/Astrobot-2.0/internal/logger"
	"github.com/alexguevara007/Astrobot-2.0/internal/metrics"
	"github.com/alexguevara007/Astrobot-2.0/internal/ratelimit"
	"github.com/alexguevara007/Astrobot-2.0/internal/storage"
	"github.com/alexguevara007/Astrobot-2.0/internal/zodiac"
)

// Sender sends broadcast messages; *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Scheduler struct {
	bot       Sender
	store     *storage.Store
	generator *horoscope.Generator
	cache     *storage.FileCache
	limiter   *ratelimit.Limiter
	hour      int
	loc       *time.Location

	lastBroadcastDay string
	lastPurgeDay     string
}

func New(bot Sender, store *storage.Store, generator *horoscope.Generator, cache *storage.FileCache, limiter *ratelimit.Limiter, hour int, loc *time.Location) *Scheduler {
	return &Scheduler{
		bot:       bot,
		store:     store,
		generator: generator,
		cache:     cache,
		limiter:   limiter,
		hour:      hour,
		loc:       loc,
	}
}

// Run checks the wall clock twice a minute and fires each job at most
// once per day. It blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	// Do not re-broadcast on a restart after the send hour.
	now := time.Now().In(s.loc)
	if now.Hour() >= s.hour {
		s.lastBroadcastDay = storage.DateString(now)
	}
	s.lastPurgeDay = storage.DateString(now)

	logger.Info("scheduler started", "broadcast_hour", s.hour, "timezone", s.loc.String())

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().In(s.loc)
	day := storage.DateString(now)

	// Cache purge shortly after midnight.
	if day != s.lastPurgeDay && (now.Hour() > 0 || now.Minute() >= 1) {
		s.lastPurgeDay = day
		removed := s.cache.PurgeStale(day)
		logger.Info("cache purge complete", "removed", removed)
	}

	if day != s.lastBroadcastDay && now.Hour() >= s.hour {
		s.lastBroadcastDay = day
		s.Broadcast(ctx, day)
	}
}

// Broadcast sends today's brief horoscope to every subscriber. The
// generator caches per sign and language, so the pipeline runs once
// per distinct pair regardless of subscriber count.
func (s *Scheduler) Broadcast(ctx context.Context, day string) {
	subs, err := s.store.AllSubscriptions(ctx)
	if err != nil {
		logger.Error("cannot load subscriptions for broadcast", "error", err)
		metrics.Global.SetError(err)
		return
	}
	if len(subs) == 0 {
		logger.Info("broadcast skipped, no subscribers")
		return
	}

	logger.Info("broadcast started", "subscribers", len(subs))
	var sent int64
	for _, sub := range subs {
		res := s.generator.Generate(ctx, horoscope.Request{
			Sign: sub.Sign,
			Day:  zodiac.Today,
			Lang: sub.Lang,
		})
		if res.Status != horoscope.StatusOK {
			logger.Warn("skipping subscriber, generation failed",
				"chat", sub.ChatID, "sign", sub.Sign, "status", res.Status)
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			logger.Warn("broadcast interrupted", "error", err)
			break
		}

		header := locales.Get("broadcast_header", sub.Lang,
			"date", day, "sign", sub.Sign.DisplayName(sub.Lang))
		msg := tgbotapi.NewMessage(sub.ChatID, header+res.Text)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := s.bot.Send(msg); err != nil {
			logger.Warn("cannot deliver broadcast", "chat", sub.ChatID, "error", err)
			continue
		}
		sent++
	}

	metrics.Global.AddBroadcastsSent(sent)
	logger.Info("broadcast complete", "sent", sent, "subscribers", len(subs))
}
