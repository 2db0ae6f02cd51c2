package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alexguevara007/Astrobot-2.0/internal/logger"
	"github.com/alexguevara007/Astrobot-2.0/internal/storage"
)

// Router receives updates over long polling, parses each into an
// Action and hands it to the Handlers.
type Router struct {
	bot      *tgbotapi.BotAPI
	handlers *Handlers
	store    *storage.Store
}

func NewRouter(bot *tgbotapi.BotAPI, handlers *Handlers, store *storage.Store) *Router {
	return &Router{bot: bot, handlers: handlers, store: store}
}

// Run blocks until the context is cancelled.
func (r *Router) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30

	updates := r.bot.GetUpdatesChan(cfg)
	logger.Info("telegram router started", "bot", r.bot.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			logger.Info("telegram router stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			r.route(ctx, update)
		}
	}
}

func (r *Router) route(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		r.routeCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		r.routeMessage(ctx, update.Message)
	}
}

func (r *Router) routeCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Ack immediately so the button stops spinning.
	if _, err := r.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		logger.Warn("cannot answer callback", "error", err)
	}
	if cb.Message == nil {
		return
	}

	chatID := cb.Message.Chat.ID
	userID := cb.From.ID
	lang := r.store.UserLang(ctx, userID)

	action := ParseCallback(cb.Data)
	logger.Debug("callback", "user", userID, "data", cb.Data)
	r.handlers.Handle(ctx, action, chatID, userID, lang)
}

func (r *Router) routeMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	if err := r.store.UpsertUser(ctx, userID, msg.From.UserName); err != nil {
		logger.Warn("cannot upsert user", "user", userID, "error", err)
	}
	lang := r.store.UserLang(ctx, userID)

	var action Action
	if msg.IsCommand() {
		action = ParseCommand(msg.Command())
	} else {
		action = ParseText(msg.Text)
	}
	logger.Debug("message", "user", userID, "text", msg.Text)
	r.handlers.Handle(ctx, action, msg.Chat.ID, userID, lang)
}
