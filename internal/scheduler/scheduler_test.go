package scheduler

import (
	"context"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alexguevara007/Astrobot-2.0/internal/horoscope"
	"github.com/alexguevara007/Astrobot-2.0/internal/ratelimit"
	"github.com/alexguevara007/Astrobot-2.0/internal/storage"
	"github.com/alexguevara007/Astrobot-2.0/internal/zodiac"
)

type fakeSender struct {
	msgs []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.msgs = append(f.msgs, m)
	}
	return tgbotapi.Message{MessageID: len(f.msgs)}, nil
}

type stubFetcher struct{}

func (stubFetcher) FetchHoroscope(ctx context.Context, sign zodiac.Sign, day zodiac.Day) (string, error) {
	return "Raw text.", nil
}

type stubTranslator struct{}

func (stubTranslator) Translate(ctx context.Context, text, source, target string) string {
	return text
}

type stubRewriter struct{}

func (stubRewriter) Rewrite(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error) {
	return "A fine day ahead.", nil
}

func TestBroadcastSendsToAllSubscribers(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.OpenStore(filepath.Join(dir, "bot.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	store.Subscribe(ctx, 1, zodiac.Aries, "ru")
	store.Subscribe(ctx, 2, zodiac.Leo, "en")

	cache := storage.OpenFileCache(filepath.Join(dir, "cache.json"))
	generator := horoscope.NewGenerator(stubFetcher{}, stubTranslator{}, stubRewriter{}, cache,
		horoscope.Options{Rand: rand.New(rand.NewSource(1))})

	sender := &fakeSender{}
	s := New(sender, store, generator, cache, ratelimit.New(60), 10, time.UTC)

	day := storage.DateString(time.Now())
	s.Broadcast(ctx, day)

	if len(sender.msgs) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.msgs))
	}
	for _, msg := range sender.msgs {
		if !strings.Contains(msg.Text, "A fine day ahead.") {
			t.Errorf("broadcast misses the horoscope body: %q", msg.Text)
		}
		if !strings.Contains(msg.Text, day) {
			t.Errorf("broadcast header misses the date: %q", msg.Text)
		}
	}
}

func TestBroadcastNoSubscribers(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.OpenStore(filepath.Join(dir, "bot.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	cache := storage.OpenFileCache(filepath.Join(dir, "cache.json"))
	generator := horoscope.NewGenerator(stubFetcher{}, stubTranslator{}, stubRewriter{}, cache,
		horoscope.Options{Rand: rand.New(rand.NewSource(1))})

	sender := &fakeSender{}
	s := New(sender, store, generator, cache, ratelimit.New(60), 10, time.UTC)
	s.Broadcast(context.Background(), storage.DateString(time.Now()))

	if len(sender.msgs) != 0 {
		t.Errorf("sent %d messages, want 0", len(sender.msgs))
	}
}
