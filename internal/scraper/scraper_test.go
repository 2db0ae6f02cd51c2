package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexguevara007/Astrobot-2.0/internal/zodiac"
)

const horoscopePage = `<html><body>
<div class="main-horoscope">
<p>Aug 31, 2026 - Great things await you today, Aries. Trust your instincts.</p>
<p>Unrelated second paragraph.</p>
</div>
</body></html>`

func TestFetchHoroscope(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		w.Write([]byte(horoscopePage))
	}))
	defer srv.Close()

	s := New(srv.Client(), srv.URL+"/daily-%s.aspx?sign=%d", "", "")

	text, err := s.FetchHoroscope(context.Background(), zodiac.Aries, zodiac.Today)
	if err != nil {
		t.Fatalf("FetchHoroscope: %v", err)
	}
	if text != "Great things await you today, Aries. Trust your instincts." {
		t.Errorf("unexpected text: %q", text)
	}
	if gotPath != "/daily-today.aspx?sign=1" {
		t.Errorf("unexpected request path: %q", gotPath)
	}
}

func TestFetchHoroscopeWeekURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(horoscopePage))
	}))
	defer srv.Close()

	s := New(srv.Client(), srv.URL+"/daily-%s.aspx?sign=%d", "", "")
	if _, err := s.FetchHoroscope(context.Background(), zodiac.Pisces, zodiac.Week); err != nil {
		t.Fatalf("FetchHoroscope: %v", err)
	}
	if gotPath != "/daily-weekly.aspx" {
		t.Errorf("unexpected request path: %q", gotPath)
	}
}

func TestFetchHoroscopeInvalidSignNoNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	s := New(srv.Client(), srv.URL+"/daily-%s.aspx?sign=%d", "", "")
	if _, err := s.FetchHoroscope(context.Background(), zodiac.Sign("dragon"), zodiac.Today); err == nil {
		t.Fatal("expected error for invalid sign")
	}
	if calls != 0 {
		t.Errorf("invalid sign must not reach the network, got %d calls", calls)
	}
}

func TestFetchHoroscopeFeedFallback(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer primary.Close()

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>Daily</title>
<item><title>Leo horoscope</title><description>A lion kind of day.</description></item>
</channel></rss>`))
	}))
	defer feed.Close()

	s := New(primary.Client(), primary.URL+"/daily-%s.aspx?sign=%d", feed.URL, "")

	text, err := s.FetchHoroscope(context.Background(), zodiac.Leo, zodiac.Today)
	if err != nil {
		t.Fatalf("FetchHoroscope: %v", err)
	}
	if text != "A lion kind of day." {
		t.Errorf("unexpected feed text: %q", text)
	}
}

func TestDayEnergyMemoized(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`<html><body><div class="horoBoxBoxText">High cosmic voltage.</div></body></html>`))
	}))
	defer srv.Close()

	s := New(srv.Client(), "", "", srv.URL)

	if got := s.DayEnergy(context.Background()); got != "High cosmic voltage." {
		t.Fatalf("unexpected energy text: %q", got)
	}
	if got := s.DayEnergy(context.Background()); got != "High cosmic voltage." {
		t.Fatalf("unexpected cached energy text: %q", got)
	}
	if calls != 1 {
		t.Errorf("expected a single upstream request, got %d", calls)
	}
}

func TestDayEnergyFailureIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := New(srv.Client(), "", "", srv.URL)
	if got := s.DayEnergy(context.Background()); got != "" {
		t.Errorf("expected empty string on failure, got %q", got)
	}
}
