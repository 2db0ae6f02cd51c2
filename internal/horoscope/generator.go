// Package horoscope implements the content pipeline: scrape the raw
// daily text, translate it, rewrite it with a generative model and
// cache the result for the rest of the day.
package horoscope

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/alexguevara007/Astrobot-2.0/internal/locales"
	"github.com/alexguevara007/Astrobot-2.0/internal/logger"
	"github.com/alexguevara007/Astrobot-2.0/internal/lunar"
	"github.com/alexguevara007/Astrobot-2.0/internal/metrics"
	"github.com/alexguevara007/Astrobot-2.0/internal/storage"
	"github.com/alexguevara007/Astrobot-2.0/internal/zodiac"
)

// Fetcher pulls the raw English horoscope text.
type Fetcher interface {
	FetchHoroscope(ctx context.Context, sign zodiac.Sign, day zodiac.Day) (string, error)
}

// Translator converts text between languages, degrading to the input
// on failure.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) string
}

// Rewriter turns the translated text into the bot's voice.
type Rewriter interface {
	Rewrite(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error)
}

// Cache stores finished horoscopes keyed by sign, day, detail level
// and language.
type Cache interface {
	Get(key string) (storage.Entry, bool)
	Put(key, text, date string) error
}

// Request identifies one horoscope.
type Request struct {
	Sign     zodiac.Sign
	Day      zodiac.Day
	Detailed bool
	Lang     string
}

// Status classifies the outcome of a generation.
type Status int

const (
	StatusOK Status = iota
	StatusInvalidSign
	StatusUnavailable
)

// Result is the outcome of Generate. Text is set only for StatusOK.
type Result struct {
	Status Status
	Text   string
}

// Generator runs the pipeline. All collaborators are injected; the
// zero value is not usable.
type Generator struct {
	fetcher    Fetcher
	translator Translator
	rewriter   Rewriter
	cache      Cache
	moon       func(time.Time) lunar.Info
	energy     func(context.Context) string
	now        func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// Options tunes optional collaborators of the Generator.
type Options struct {
	Moon   func(time.Time) lunar.Info   // defaults to lunar.Compute
	Energy func(context.Context) string // defaults to no energy context
	Now    func() time.Time             // defaults to time.Now
	Rand   *rand.Rand                   // defaults to a time-seeded source
}

func NewGenerator(fetcher Fetcher, translator Translator, rewriter Rewriter, cache Cache, opts Options) *Generator {
	g := &Generator{
		fetcher:    fetcher,
		translator: translator,
		rewriter:   rewriter,
		cache:      cache,
		moon:       opts.Moon,
		energy:     opts.Energy,
		now:        opts.Now,
		rnd:        opts.Rand,
	}
	if g.moon == nil {
		g.moon = lunar.Compute
	}
	if g.energy == nil {
		g.energy = func(context.Context) string { return "" }
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.rnd == nil {
		g.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g
}

// Generate produces the horoscope for the request. Invalid signs fail
// fast without touching the network. A fresh same-day cache entry
// short-circuits the whole pipeline. An upstream outage yields
// StatusUnavailable and caches nothing.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	if !zodiac.Valid(req.Sign) {
		return Result{Status: StatusInvalidSign}
	}
	if req.Lang == "" {
		req.Lang = locales.DefaultLang
	}

	key := storage.Key(req.Sign, req.Day, req.Detailed, req.Lang)
	today := storage.DateString(g.now())

	if entry, ok := g.cache.Get(key); ok && entry.Date == today {
		metrics.Global.IncCacheHits()
		return Result{Status: StatusOK, Text: entry.Text}
	}

	raw, err := g.fetcher.FetchHoroscope(ctx, req.Sign, req.Day)
	if err != nil || raw == "" {
		logger.Error("horoscope source unavailable", "sign", req.Sign, "day", req.Day, "error", err)
		metrics.Global.SetError(err)
		return Result{Status: StatusUnavailable}
	}

	translated := g.translator.Translate(ctx, raw, "en", req.Lang)

	text := g.rewrite(ctx, req, translated)
	final := g.pickFrom("start_intros", req.Lang) + "\n\n" + text

	if err := g.cache.Put(key, final, today); err != nil {
		logger.Error("cannot cache horoscope", "key", key, "error", err)
	}
	metrics.Global.IncHoroscopes()
	return Result{Status: StatusOK, Text: final}
}

// rewrite runs the generative step. When no provider succeeds the
// translated text is used as-is.
func (g *Generator) rewrite(ctx context.Context, req Request, translated string) string {
	prompt := locales.Get("user_prompt_template", req.Lang,
		"translated", translated,
		"tone", g.pickFrom("rephrase_tones", req.Lang),
		"moon_context", g.moonContext(req),
		"energy_context", g.energyContext(ctx, req.Lang),
	)

	maxTokens := 500
	if req.Detailed {
		maxTokens = 1000
	}

	rewritten, err := g.rewriter.Rewrite(ctx,
		locales.Get("system_prompt", req.Lang), prompt, g.temperature(), maxTokens)
	if err != nil || rewritten == "" {
		logger.Warn("rewrite failed, using translated text", "sign", req.Sign, "error", err)
		return translated
	}
	return rewritten
}

// moonContext describes the moon on the day the horoscope is for, so
// a tomorrow request gets tomorrow's phase and sign.
func (g *Generator) moonContext(req Request) string {
	target := g.now()
	if req.Day == zodiac.Tomorrow {
		target = target.AddDate(0, 0, 1)
	}
	info := g.moon(target)
	return locales.Get("moon_context", req.Lang,
		"sign", info.MoonSign.DisplayName(req.Lang),
		"phase", info.PhaseName(req.Lang),
		"percent", fmt.Sprintf("%.1f", info.PhasePercent),
	)
}

func (g *Generator) energyContext(ctx context.Context, lang string) string {
	energy := g.energy(ctx)
	if energy == "" {
		return locales.Get("energy_undefined", lang)
	}
	return locales.Get("energy_context", lang, "energy", energy)
}

// temperature is drawn fresh per request from [0.9, 1.0).
func (g *Generator) temperature() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return 0.9 + g.rnd.Float64()*0.1
}

func (g *Generator) pickFrom(listKey, lang string) string {
	items := locales.List(listKey, lang)
	if len(items) == 0 {
		return ""
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return items[g.rnd.Intn(len(items))]
}
