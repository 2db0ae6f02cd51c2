package telegram

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alexguevara007/Astrobot-2.0/internal/compat"
	"github.com/alexguevara007/Astrobot-2.0/internal/horoscope"
	"github.com/alexguevara007/Astrobot-2.0/internal/locales"
	"github.com/alexguevara007/Astrobot-2.0/internal/lunar"
	"github.com/alexguevara007/Astrobot-2.0/internal/storage"
	"github.com/alexguevara007/Astrobot-2.0/internal/tarot"
	"github.com/alexguevara007/Astrobot-2.0/internal/zodiac"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) texts() []string {
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) lastText(t *testing.T) string {
	t.Helper()
	texts := f.texts()
	if len(texts) == 0 {
		t.Fatal("no messages were sent")
	}
	return texts[len(texts)-1]
}

type stubFetcher struct{}

func (stubFetcher) FetchHoroscope(ctx context.Context, sign zodiac.Sign, day zodiac.Day) (string, error) {
	return "Raw horoscope.", nil
}

type stubTranslator struct{}

func (stubTranslator) Translate(ctx context.Context, text, source, target string) string {
	return text
}

type stubRewriter struct{}

func (stubRewriter) Rewrite(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error) {
	return "Stars favor you.", nil
}

type stubCache struct{ entries map[string]storage.Entry }

func (s *stubCache) Get(key string) (storage.Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

func (s *stubCache) Put(key, text, date string) error {
	s.entries[key] = storage.Entry{Date: date, Text: text}
	return nil
}

func newTestHandlers(t *testing.T) (*Handlers, *fakeSender, *storage.Store) {
	t.Helper()

	store, err := storage.OpenStore(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	generator := horoscope.NewGenerator(stubFetcher{}, stubTranslator{}, stubRewriter{},
		&stubCache{entries: make(map[string]storage.Entry)},
		horoscope.Options{Rand: rand.New(rand.NewSource(1))})

	deck, err := tarot.NewDeck(rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewDeck: %v", err)
	}
	matcher, err := compat.NewMatcher()
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	sender := &fakeSender{}
	h := NewHandlers(sender, generator, lunar.NewService(nil, func() time.Time {
		return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	}), deck, matcher, store, []int64{100}, "UTC", rand.New(rand.NewSource(1)))
	return h, sender, store
}

func TestHandleHoroscopeEditsLoadingMessage(t *testing.T) {
	h, sender, _ := newTestHandlers(t)

	h.Handle(context.Background(), Action{Kind: ActHoroscope, Sign: zodiac.Aries, Day: zodiac.Today}, 1, 1, "ru")

	if len(sender.sent) != 2 {
		t.Fatalf("expected loading + edit, got %d messages", len(sender.sent))
	}
	edit, ok := sender.sent[1].(tgbotapi.EditMessageTextConfig)
	if !ok {
		t.Fatalf("second send is %T, want EditMessageTextConfig", sender.sent[1])
	}
	if !strings.Contains(edit.Text, "Stars favor you.") {
		t.Errorf("edited text misses the horoscope body: %q", edit.Text)
	}
	if !strings.Contains(edit.Text, zodiac.Aries.DisplayName("ru")) {
		t.Errorf("edited text misses the sign header: %q", edit.Text)
	}
}

func TestHandleMagic8AnswersFromList(t *testing.T) {
	h, sender, _ := newTestHandlers(t)

	h.Handle(context.Background(), Action{Kind: ActMagic8}, 1, 1, "en")

	text := sender.lastText(t)
	found := false
	for _, answer := range locales.List("magic8_answers", "en") {
		if strings.Contains(text, answer) {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("answer %q is not from the configured list", text)
	}
}

func TestHandleSubscribeRoundTrip(t *testing.T) {
	h, sender, store := newTestHandlers(t)
	ctx := context.Background()

	h.Handle(ctx, Action{Kind: ActSubscribe, Sign: zodiac.Leo}, 5, 5, "ru")
	if sub, ok, _ := store.Subscription(ctx, 5); !ok || sub.Sign != zodiac.Leo {
		t.Fatalf("subscription not stored: %+v, %v", sub, ok)
	}

	h.Handle(ctx, Action{Kind: ActStatus}, 5, 5, "ru")
	if got := sender.lastText(t); got != locales.Get("subscribed_status", "ru") {
		t.Errorf("status text = %q", got)
	}

	h.Handle(ctx, Action{Kind: ActUnsubscribe}, 5, 5, "ru")
	if _, ok, _ := store.Subscription(ctx, 5); ok {
		t.Error("subscription should be removed")
	}
}

func TestHandleCompatTwoStep(t *testing.T) {
	h, sender, _ := newTestHandlers(t)
	ctx := context.Background()

	// Second sign without a first one is rejected.
	h.Handle(ctx, Action{Kind: ActCompatSecond, Sign: zodiac.Libra}, 2, 2, "ru")
	if got := sender.lastText(t); got != locales.Get("compat_no_first", "ru") {
		t.Errorf("expected compat_no_first, got %q", got)
	}

	h.Handle(ctx, Action{Kind: ActCompatFirst, Sign: zodiac.Aries}, 2, 2, "ru")
	h.Handle(ctx, Action{Kind: ActCompatSecond, Sign: zodiac.Libra}, 2, 2, "ru")

	text := sender.lastText(t)
	if !strings.Contains(text, zodiac.Aries.DisplayName("ru")) || !strings.Contains(text, zodiac.Libra.DisplayName("ru")) {
		t.Errorf("compat render misses sign names: %q", text)
	}

	// The pending sign is consumed.
	h.Handle(ctx, Action{Kind: ActCompatSecond, Sign: zodiac.Libra}, 2, 2, "ru")
	if got := sender.lastText(t); got != locales.Get("compat_no_first", "ru") {
		t.Errorf("pending sign should be cleared, got %q", got)
	}
}

func TestHandleHistory(t *testing.T) {
	h, sender, store := newTestHandlers(t)
	ctx := context.Background()

	h.Handle(ctx, Action{Kind: ActHistory}, 3, 3, "en")
	if got := sender.lastText(t); got != locales.Get("history_empty", "en") {
		t.Errorf("empty history text = %q", got)
	}

	store.SavePrediction(ctx, 3, "tarot", "The Sun")
	h.Handle(ctx, Action{Kind: ActHistory}, 3, 3, "en")
	if got := sender.lastText(t); !strings.Contains(got, "The Sun") {
		t.Errorf("history misses the saved prediction: %q", got)
	}
}

type failingSender struct {
	attempts int
}

func (f *failingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.attempts++
	return tgbotapi.Message{}, errors.New("network down")
}

func (f *failingSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestSendStopsRetryingOnCancelledContext(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	sender := &failingSender{}
	h.bot = sender

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	h.Handle(ctx, Action{Kind: ActMenu}, 1, 1, "ru")

	if sender.attempts != 1 {
		t.Errorf("cancelled context should stop after the first attempt, got %d", sender.attempts)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("send waited %s after cancellation", elapsed)
	}
}

func TestHandleStatsAdminOnly(t *testing.T) {
	h, sender, _ := newTestHandlers(t)
	ctx := context.Background()

	h.Handle(ctx, Action{Kind: ActStats}, 1, 1, "ru")
	if got := sender.lastText(t); got != locales.Get("stats_denied", "ru") {
		t.Errorf("non-admin stats = %q", got)
	}

	h.Handle(ctx, Action{Kind: ActStats}, 100, 100, "ru")
	if got := sender.lastText(t); got == locales.Get("stats_denied", "ru") {
		t.Error("admin should see stats")
	}
}
