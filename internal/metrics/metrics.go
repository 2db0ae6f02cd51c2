// Package metrics keeps process-level counters exposed by the
// monitoring endpoint.
package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu        sync.RWMutex
	startTime time.Time

	horoscopesGenerated int64
	cacheHits           int64
	translationsOK      int64
	translationsFailed  int64
	rewritesOK          int64
	rewritesFailed      int64
	tarotDraws          int64
	broadcastsSent      int64

	lastError     string
	lastErrorAt   time.Time
	lastBroadcast time.Time
}

// Global is the process-wide instance.
var Global = New()

func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) IncHoroscopes() { m.inc(&m.horoscopesGenerated) }
func (m *Metrics) IncCacheHits()  { m.inc(&m.cacheHits) }

func (m *Metrics) IncTranslationsOK()     { m.inc(&m.translationsOK) }
func (m *Metrics) IncTranslationsFailed() { m.inc(&m.translationsFailed) }

func (m *Metrics) IncRewritesOK()     { m.inc(&m.rewritesOK) }
func (m *Metrics) IncRewritesFailed() { m.inc(&m.rewritesFailed) }

func (m *Metrics) IncTarotDraws() { m.inc(&m.tarotDraws) }

func (m *Metrics) AddBroadcastsSent(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcastsSent += n
	m.lastBroadcast = time.Now()
}

func (m *Metrics) SetError(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = err.Error()
	m.lastErrorAt = time.Now()
}

func (m *Metrics) inc(counter *int64) {
	m.mu.Lock()
	*counter++
	m.mu.Unlock()
}

// GetStats returns a snapshot suitable for JSON encoding.
func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := map[string]interface{}{
		"uptime_seconds":       int64(time.Since(m.startTime).Seconds()),
		"horoscopes_generated": m.horoscopesGenerated,
		"cache_hits":           m.cacheHits,
		"translations_ok":      m.translationsOK,
		"translations_failed":  m.translationsFailed,
		"rewrites_ok":          m.rewritesOK,
		"rewrites_failed":      m.rewritesFailed,
		"tarot_draws":          m.tarotDraws,
		"broadcasts_sent":      m.broadcastsSent,
	}
	if m.lastError != "" {
		stats["last_error"] = m.lastError
		stats["last_error_at"] = m.lastErrorAt.Format(time.RFC3339)
	}
	if !m.lastBroadcast.IsZero() {
		stats["last_broadcast_at"] = m.lastBroadcast.Format(time.RFC3339)
	}
	return stats
}
