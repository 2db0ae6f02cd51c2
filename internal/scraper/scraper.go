// Package scraper fetches raw horoscope texts from public sources.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/alexguevara007/Astrobot-2.0/internal/cache"
	"github.com/alexguevara007/Astrobot-2.0/internal/logger"
	"github.com/alexguevara007/Astrobot-2.0/internal/zodiac"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Scraper pulls daily horoscopes from the primary site, with an
// optional RSS feed as a fallback source.
type Scraper struct {
	client      *http.Client
	urlTemplate string
	feedURL     string
	energyURL   string
	energyCache *cache.Cache
}

func New(client *http.Client, urlTemplate, feedURL, energyURL string) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Scraper{
		client:      client,
		urlTemplate: urlTemplate,
		feedURL:     feedURL,
		energyURL:   energyURL,
		energyCache: cache.New(),
	}
}

// pathDay maps the day keyword into the URL path segment of the source site.
func pathDay(day zodiac.Day) string {
	if day == zodiac.Week {
		return "weekly"
	}
	return string(day)
}

// FetchHoroscope returns the raw English horoscope text for a sign.
// The sign is validated before any network work happens.
func (s *Scraper) FetchHoroscope(ctx context.Context, sign zodiac.Sign, day zodiac.Day) (string, error) {
	if !zodiac.Valid(sign) {
		return "", fmt.Errorf("invalid sign %q", sign)
	}

	url := fmt.Sprintf(s.urlTemplate, pathDay(day), zodiac.SiteID[sign])

	text, err := s.scrapeHoroscopePage(ctx, url)
	if err == nil && text != "" {
		return text, nil
	}
	if err != nil {
		logger.Warn("primary horoscope source failed", "sign", sign, "url", url, "error", err)
	}

	if s.feedURL != "" {
		if text, feedErr := s.fetchFromFeed(ctx, sign); feedErr == nil && text != "" {
			logger.Info("horoscope served from feed fallback", "sign", sign)
			return text, nil
		}
	}

	if err != nil {
		return "", err
	}
	return "", fmt.Errorf("no horoscope text found for %s/%s", sign, day)
}

func (s *Scraper) scrapeHoroscopePage(ctx context.Context, url string) (string, error) {
	doc, err := s.getDocument(ctx, url)
	if err != nil {
		return "", err
	}

	// The daily text lives in the first paragraph of the main block.
	text := strings.TrimSpace(doc.Find("div.main-horoscope p").First().Text())

	// The paragraph starts with the date ("Aug 31, 2026 - ..."); keep
	// only the prediction itself.
	if idx := strings.Index(text, " - "); idx > 0 && idx < 40 {
		text = strings.TrimSpace(text[idx+3:])
	}
	return text, nil
}

// fetchFromFeed looks for an item whose title mentions the sign.
func (s *Scraper) fetchFromFeed(ctx context.Context, sign zodiac.Sign) (string, error) {
	parser := gofeed.NewParser()
	parser.Client = s.client
	parser.UserAgent = userAgent

	feed, err := parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return "", fmt.Errorf("parse horoscope feed: %w", err)
	}

	want := strings.ToLower(string(sign))
	for _, item := range feed.Items {
		if !strings.Contains(strings.ToLower(item.Title), want) {
			continue
		}
		text := strings.TrimSpace(item.Description)
		if text == "" {
			text = strings.TrimSpace(item.Content)
		}
		if text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("feed has no item for sign %s", sign)
}

// DayEnergy scrapes the short "energy of the day" blurb. It is a
// best-effort extra: failures return an empty string, and a successful
// result is memoized until the end of the day.
func (s *Scraper) DayEnergy(ctx context.Context) string {
	if s.energyURL == "" {
		return ""
	}

	now := time.Now()
	key := "day_energy_" + now.Format("2006-01-02")
	if v, ok := s.energyCache.Get(key); ok {
		return v
	}

	doc, err := s.getDocument(ctx, s.energyURL)
	if err != nil {
		logger.Warn("day energy source failed", "error", err)
		return ""
	}

	text := strings.TrimSpace(doc.Find("div.horoBoxBoxText").First().Text())
	if text != "" {
		midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		s.energyCache.Set(key, text, time.Until(midnight))
	}
	return text
}

func (s *Scraper) getDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}
