package telegram

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alexguevara007/Astrobot-2.0/internal/compat"
	"github.com/alexguevara007/Astrobot-2.0/internal/horoscope"
	"github.com/alexguevara007/Astrobot-2.0/internal/locales"
	"github.com/alexguevara007/Astrobot-2.0/internal/logger"
	"github.com/alexguevara007/Astrobot-2.0/internal/lunar"
	"github.com/alexguevara007/Astrobot-2.0/internal/retry"
	"github.com/alexguevara007/Astrobot-2.0/internal/storage"
	"github.com/alexguevara007/Astrobot-2.0/internal/tarot"
	"github.com/alexguevara007/Astrobot-2.0/internal/zodiac"
)

// Sender is the slice of the bot API the handlers need. The real
// *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handlers executes parsed actions against the content services.
type Handlers struct {
	bot       Sender
	generator *horoscope.Generator
	lunarSvc  *lunar.Service
	deck      *tarot.Deck
	matcher   *compat.Matcher
	store     *storage.Store
	adminIDs  map[int64]bool
	timezone  string

	mu  sync.Mutex
	rnd *rand.Rand

	// pendingFirstSign remembers the first sign of a compatibility
	// request per chat until the second one arrives.
	pendingMu        sync.Mutex
	pendingFirstSign map[int64]zodiac.Sign
}

func NewHandlers(
	bot Sender,
	generator *horoscope.Generator,
	lunarSvc *lunar.Service,
	deck *tarot.Deck,
	matcher *compat.Matcher,
	store *storage.Store,
	adminIDs []int64,
	timezone string,
	rnd *rand.Rand,
) *Handlers {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Handlers{
		bot:              bot,
		generator:        generator,
		lunarSvc:         lunarSvc,
		deck:             deck,
		matcher:          matcher,
		store:            store,
		adminIDs:         admins,
		timezone:         timezone,
		rnd:              rnd,
		pendingFirstSign: make(map[int64]zodiac.Sign),
	}
}

// Handle dispatches one parsed action.
func (h *Handlers) Handle(ctx context.Context, action Action, chatID, userID int64, lang string) {
	switch action.Kind {
	case ActStart:
		h.handleStart(ctx, chatID, lang)
	case ActMenu:
		h.sendText(ctx, chatID, locales.Get("main_menu", lang), mainMenuKeyboard(lang))
	case ActLanguage:
		h.handleLanguage(ctx, chatID, userID, action.Lang, lang)
	case ActHoroscopeMenu:
		h.sendText(ctx, chatID, locales.Get("horoscope_menu", lang), horoscopeMenuKeyboard(lang))
	case ActSelectSign:
		h.handleSelectSign(ctx, chatID, action.Day, lang)
	case ActHoroscope:
		h.handleHoroscope(ctx, chatID, action.Sign, action.Day, lang)
	case ActMoon:
		h.handleMoon(ctx, chatID, lang)
	case ActTarotMenu:
		h.sendText(ctx, chatID, locales.Get("tarot_menu", lang), tarotMenuKeyboard(lang))
	case ActTarot:
		h.handleTarot(ctx, chatID, action.Cards, lang)
	case ActCompatStart:
		h.sendText(ctx, chatID, locales.Get("compat_first", lang), zodiacGrid(lang, "compat1:%s"))
	case ActCompatFirst:
		h.handleCompatFirst(ctx, chatID, action.Sign, lang)
	case ActCompatSecond:
		h.handleCompatSecond(ctx, chatID, action.Sign, lang)
	case ActMagic8:
		h.handleMagic8(ctx, chatID, lang)
	case ActSubscribeMenu:
		h.sendText(ctx, chatID, locales.Get("subscribe_choose", lang), zodiacGrid(lang, "sub:%s"))
	case ActSubscribe:
		h.handleSubscribe(ctx, chatID, action.Sign, lang)
	case ActUnsubscribe:
		h.handleUnsubscribe(ctx, chatID, lang)
	case ActStatus:
		h.handleStatus(ctx, chatID, lang)
	case ActHistory:
		h.handleHistory(ctx, chatID, lang)
	case ActStats:
		h.handleStats(ctx, chatID, userID, lang)
	default:
		h.sendText(ctx, chatID, locales.Get("unknown_command", lang), mainMenuKeyboard(lang))
	}
}

func (h *Handlers) handleStart(ctx context.Context, chatID int64, lang string) {
	h.sendText(ctx, chatID, locales.Get("welcome", lang), mainMenuKeyboard(lang))
	h.sendText(ctx, chatID, locales.Get("language_choose", lang), languageKeyboard())
}

func (h *Handlers) handleLanguage(ctx context.Context, chatID, userID int64, newLang, lang string) {
	if _, ok := locales.Supported[newLang]; !ok {
		h.sendText(ctx, chatID, locales.Get("language_choose", lang), languageKeyboard())
		return
	}
	if err := h.store.SetUserLang(ctx, userID, newLang); err != nil {
		logger.Error("cannot store user language", "user", userID, "error", err)
		h.sendText(ctx, chatID, locales.Get("error", lang), nil)
		return
	}
	h.sendText(ctx, chatID,
		locales.Get("language_set", newLang, "lang", locales.Supported[newLang]),
		mainMenuKeyboard(newLang))
}

func (h *Handlers) handleSelectSign(ctx context.Context, chatID int64, day zodiac.Day, lang string) {
	promptKey := "zodiac_select"
	if day == zodiac.Tomorrow {
		promptKey = "zodiac_select_tomorrow"
	}
	h.sendText(ctx, chatID, locales.Get(promptKey, lang),
		zodiacGrid(lang, "horo:%s:"+string(day)))
}

func (h *Handlers) handleHoroscope(ctx context.Context, chatID int64, sign zodiac.Sign, day zodiac.Day, lang string) {
	loadingKey := "horoscope_loading"
	if day == zodiac.Tomorrow {
		loadingKey = "horoscope_loading_tomorrow"
	}
	loading, err := h.bot.Send(tgbotapi.NewMessage(chatID, locales.Get(loadingKey, lang)))
	if err != nil {
		logger.Error("cannot send loading message", "chat", chatID, "error", err)
		return
	}

	res := h.generator.Generate(ctx, horoscope.Request{Sign: sign, Day: day, Lang: lang})

	var text string
	switch res.Status {
	case horoscope.StatusOK:
		info := zodiac.GetInfo(sign)
		header := locales.Get("horoscope_header", lang,
			"emoji", info.Emoji,
			"sign", sign.DisplayName(lang),
			"element", info.Element[lang],
			"planet", info.Planet[lang],
			"day", locales.Get("day_"+string(day), lang),
			"date", time.Now().Format("02.01.2006"),
		)
		text = header + "\n" + res.Text
		if err := h.store.SavePrediction(ctx, chatID, "horoscope", res.Text); err != nil {
			logger.Warn("cannot save prediction", "chat", chatID, "error", err)
		}
	case horoscope.StatusInvalidSign:
		text = locales.Get("invalid_sign", lang)
	default:
		text = locales.Get("fetch_failed", lang)
	}

	edit := tgbotapi.NewEditMessageText(chatID, loading.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	kb := repeatKeyboard(lang, fmt.Sprintf("horo:%s:%s", sign, day))
	edit.ReplyMarkup = &kb
	if _, err := h.bot.Send(edit); err != nil {
		logger.Error("cannot edit horoscope message", "chat", chatID, "error", err)
	}
}

func (h *Handlers) handleMoon(ctx context.Context, chatID int64, lang string) {
	text := locales.Get("moon_title", lang) + "\n\n" + h.lunarSvc.Text(lang, h.timezone)
	h.sendText(ctx, chatID, text, backKeyboard(lang))
}

func (h *Handlers) handleTarot(ctx context.Context, chatID int64, cards int, lang string) {
	var text string
	if cards <= 1 {
		text = h.deck.CardOfDay(lang)
	} else {
		text = h.deck.Spread(cards, lang)
	}
	if err := h.store.SavePrediction(ctx, chatID, "tarot", text); err != nil {
		logger.Warn("cannot save prediction", "chat", chatID, "error", err)
	}
	h.sendText(ctx, chatID, text, repeatKeyboard(lang, fmt.Sprintf("tarot:%d", cards)))
}

func (h *Handlers) handleCompatFirst(ctx context.Context, chatID int64, sign zodiac.Sign, lang string) {
	h.pendingMu.Lock()
	h.pendingFirstSign[chatID] = sign
	h.pendingMu.Unlock()

	h.sendText(ctx, chatID,
		locales.Get("compat_second", lang, "sign", sign.DisplayName(lang)),
		zodiacGrid(lang, "compat2:%s"))
}

func (h *Handlers) handleCompatSecond(ctx context.Context, chatID int64, second zodiac.Sign, lang string) {
	h.pendingMu.Lock()
	first, ok := h.pendingFirstSign[chatID]
	delete(h.pendingFirstSign, chatID)
	h.pendingMu.Unlock()

	if !ok {
		h.sendText(ctx, chatID, locales.Get("compat_no_first", lang), zodiacGrid(lang, "compat1:%s"))
		return
	}

	text := h.matcher.Render(first, second, lang)
	if err := h.store.SavePrediction(ctx, chatID, "compatibility", text); err != nil {
		logger.Warn("cannot save prediction", "chat", chatID, "error", err)
	}
	h.sendText(ctx, chatID, text, backKeyboard(lang))
}

func (h *Handlers) handleMagic8(ctx context.Context, chatID int64, lang string) {
	answers := locales.List("magic8_answers", lang)
	h.mu.Lock()
	answer := answers[h.rnd.Intn(len(answers))]
	h.mu.Unlock()

	h.sendText(ctx, chatID,
		locales.Get("magic8_answer", lang, "answer", answer),
		repeatKeyboard(lang, "magic8"))
}

func (h *Handlers) handleSubscribe(ctx context.Context, chatID int64, sign zodiac.Sign, lang string) {
	if err := h.store.Subscribe(ctx, chatID, sign, lang); err != nil {
		logger.Error("cannot subscribe", "chat", chatID, "error", err)
		h.sendText(ctx, chatID, locales.Get("error", lang), nil)
		return
	}
	h.sendText(ctx, chatID,
		locales.Get("subscribe_done", lang, "sign", sign.DisplayName(lang)),
		backKeyboard(lang))
}

func (h *Handlers) handleUnsubscribe(ctx context.Context, chatID int64, lang string) {
	removed, err := h.store.Unsubscribe(ctx, chatID)
	if err != nil {
		logger.Error("cannot unsubscribe", "chat", chatID, "error", err)
		h.sendText(ctx, chatID, locales.Get("error", lang), nil)
		return
	}
	key := "unsubscribe_none"
	if removed {
		key = "unsubscribe_done"
	}
	h.sendText(ctx, chatID, locales.Get(key, lang), backKeyboard(lang))
}

func (h *Handlers) handleStatus(ctx context.Context, chatID int64, lang string) {
	_, ok, err := h.store.Subscription(ctx, chatID)
	if err != nil {
		logger.Error("cannot read subscription", "chat", chatID, "error", err)
		h.sendText(ctx, chatID, locales.Get("error", lang), nil)
		return
	}
	key := "unsubscribed_status"
	if ok {
		key = "subscribed_status"
	}
	h.sendText(ctx, chatID, locales.Get(key, lang), backKeyboard(lang))
}

func (h *Handlers) handleHistory(ctx context.Context, chatID int64, lang string) {
	preds, err := h.store.RecentPredictions(ctx, chatID, 5)
	if err != nil {
		logger.Error("cannot read history", "chat", chatID, "error", err)
		h.sendText(ctx, chatID, locales.Get("error", lang), nil)
		return
	}
	if len(preds) == 0 {
		h.sendText(ctx, chatID, locales.Get("history_empty", lang), backKeyboard(lang))
		return
	}

	var sb strings.Builder
	sb.WriteString(locales.Get("history_title", lang))
	for _, p := range preds {
		sb.WriteString("\n\n")
		sb.WriteString(locales.Get("history_entry", lang,
			"date", p.Date, "kind", p.Kind, "text", truncate(p.Text, 300)))
	}
	h.sendText(ctx, chatID, sb.String(), backKeyboard(lang))
}

func (h *Handlers) handleStats(ctx context.Context, chatID, userID int64, lang string) {
	if !h.adminIDs[userID] {
		h.sendText(ctx, chatID, locales.Get("stats_denied", lang), nil)
		return
	}

	total, byDay, err := h.store.UserStats(ctx)
	if err != nil {
		logger.Error("cannot read user stats", "error", err)
		h.sendText(ctx, chatID, locales.Get("error", lang), nil)
		return
	}
	if total == 0 {
		h.sendText(ctx, chatID, locales.Get("stats_empty", lang), nil)
		return
	}

	var sb strings.Builder
	sb.WriteString(locales.Get("stats_total", lang, "total", fmt.Sprintf("%d", total)))
	if len(byDay) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(locales.Get("stats_by_day", lang))
		for _, dc := range byDay {
			sb.WriteString(fmt.Sprintf("\n%s — %d", dc.Day, dc.Count))
		}
	}
	h.sendText(ctx, chatID, sb.String(), nil)
}

// sendText sends an HTML message with up to three retries. Cancelling
// the context stops both the send and its backoff sleeps.
func (h *Handlers) sendText(ctx context.Context, chatID int64, text string, keyboard interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	}

	err := retry.WithRetry(ctx, retry.Config{
		MaxAttempts: 3,
		Delay:       time.Second,
		Backoff:     true,
	}, func() error {
		_, err := h.bot.Send(msg)
		return err
	})
	if err != nil {
		logger.Error("cannot send message", "chat", chatID, "error", err)
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
