// Package lunar computes moon facts for a calendar date: illumination,
// phase bucket, lunar day, the zodiac sign the moon occupies and the
// earth-moon distance. The computation is local and deterministic.
package lunar

import (
	"fmt"
	"math"
	"strings"
	"time"

	moonphase "github.com/janczer/goMoonPhase"

	"github.com/alexguevara007/Astrobot-2.0/internal/locales"
	"github.com/alexguevara007/Astrobot-2.0/internal/logger"
	"github.com/alexguevara007/Astrobot-2.0/internal/zodiac"
)

// Info is a snapshot of the moon for one instant.
type Info struct {
	PhasePercent float64     // illumination, 0..100
	PhaseKey     string      // locales key of the phase bucket
	MoonDay      int         // days since new moon, 1..30
	MoonSign     zodiac.Sign // constellation the moon occupies
	DistanceKM   float64
}

// PhaseBucketKey maps an illumination percentage into one of the named
// phase buckets. Values at 95% and above wrap back to the new moon.
func PhaseBucketKey(percent float64) string {
	switch {
	case percent < 5:
		return "phase_new"
	case percent < 25:
		return "phase_waxing_crescent"
	case percent < 45:
		return "phase_first_quarter"
	case percent < 55:
		return "phase_full"
	case percent < 75:
		return "phase_last_quarter"
	case percent < 95:
		return "phase_waning"
	default:
		return "phase_new"
	}
}

// Compute returns the moon snapshot for the given time.
func Compute(t time.Time) Info {
	m := moonphase.New(t)

	percent := math.Round(m.Illumination()*1000) / 10

	day := int(m.Age()) + 1
	if day > 30 {
		day = 30
	}

	sign, err := zodiac.Parse(m.ZodiacSign())
	if err != nil {
		// Ephemeris names always match one of the twelve; keep a sane default.
		sign = zodiac.Aries
	}

	return Info{
		PhasePercent: percent,
		PhaseKey:     PhaseBucketKey(percent),
		MoonDay:      day,
		MoonSign:     sign,
		DistanceKM:   m.Distance(),
	}
}

// PhaseName returns the localized bucket name for the snapshot.
func (i Info) PhaseName(lang string) string {
	return locales.Get(i.PhaseKey, lang)
}

// SignName returns the localized "moon in sign" string with emoji.
func (i Info) SignName(lang string) string {
	return zodiac.GetInfo(i.MoonSign).Emoji + " " + i.MoonSign.DisplayName(lang)
}

// TextCache stores rendered lunar-calendar texts with a same-day TTL.
type TextCache interface {
	Get(key string, now time.Time) (string, bool)
	Put(key, text string, now time.Time)
}

// Service renders the full lunar-calendar message.
type Service struct {
	cache TextCache
	now   func() time.Time
}

func NewService(cache TextCache, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{cache: cache, now: now}
}

// Text builds the lunar-calendar message for a language and timezone.
// Results are cached per (lang, tz) for the calendar day. It never
// fails: on a bad timezone the local zone is used.
func (s *Service) Text(lang, tz string) string {
	key := lang + "_" + strings.ReplaceAll(tz, "/", "-")
	now := s.now()

	if s.cache != nil {
		if text, ok := s.cache.Get(key, now); ok {
			return text
		}
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		logger.Warn("unknown timezone for lunar text", "tz", tz, "error", err)
		loc = now.Location()
	}

	info := Compute(now.In(loc))
	recKey := strings.Replace(info.PhaseKey, "phase_", "rec_", 1)
	recommendations := locales.Get(recKey, lang)
	if recommendations == recKey {
		recommendations = locales.Get("rec_default", lang)
	}

	text := locales.Get("moon_body", lang,
		"phase", info.PhaseName(lang),
		"day", fmt.Sprintf("%d", info.MoonDay),
		"sign", info.SignName(lang),
		"distance", fmt.Sprintf("%.0f", info.DistanceKM),
		"recommendations", recommendations,
	)

	if s.cache != nil {
		s.cache.Put(key, text, now)
	}
	return text
}
