// Package tarot draws cards from the embedded major arcana deck.
package tarot

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/alexguevara007/Astrobot-2.0/internal/locales"
	"github.com/alexguevara007/Astrobot-2.0/internal/metrics"
)

//go:embed cards.json
var cardsJSON []byte

// Card is one deck card with localized texts.
type Card struct {
	Name     map[string]string `json:"name"`
	Meaning  map[string]string `json:"meaning"`
	Reversed map[string]string `json:"reversed"`
}

// DrawnCard is a card pulled from the deck with its orientation.
type DrawnCard struct {
	Card     Card
	Reversed bool
}

// Title returns the localized card name, marking reversed cards.
func (d DrawnCard) Title(lang string) string {
	name := d.Card.Name[lang]
	if name == "" {
		name = d.Card.Name[locales.DefaultLang]
	}
	if d.Reversed {
		return name + " " + locales.Get("tarot_reversed", lang)
	}
	return name
}

// MeaningText returns the localized meaning for the orientation.
func (d DrawnCard) MeaningText(lang string) string {
	src := d.Card.Meaning
	if d.Reversed {
		src = d.Card.Reversed
	}
	if text := src[lang]; text != "" {
		return text
	}
	return src[locales.DefaultLang]
}

// Deck draws cards without duplicates within one spread. Each card's
// orientation is an independent coin flip.
type Deck struct {
	cards []Card

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewDeck(rnd *rand.Rand) (*Deck, error) {
	var cards []Card
	if err := json.Unmarshal(cardsJSON, &cards); err != nil {
		return nil, fmt.Errorf("parse embedded deck: %w", err)
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Deck{cards: cards, rnd: rnd}, nil
}

// Draw pulls n distinct cards. n is capped at the deck size.
func (d *Deck) Draw(n int) []DrawnCard {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n > len(d.cards) {
		n = len(d.cards)
	}

	indexes := d.rnd.Perm(len(d.cards))[:n]
	drawn := make([]DrawnCard, 0, n)
	for _, idx := range indexes {
		drawn = append(drawn, DrawnCard{
			Card:     d.cards[idx],
			Reversed: d.rnd.Intn(2) == 1,
		})
	}
	metrics.Global.IncTarotDraws()
	return drawn
}

// spreadPositions names the slots of the multi-card spreads.
var spreadPositions = map[int][]string{
	3: {"tarot_pos_past", "tarot_pos_present", "tarot_pos_future"},
	5: {"tarot_pos5_1", "tarot_pos5_2", "tarot_pos5_3", "tarot_pos5_4", "tarot_pos5_5"},
}

// CardOfDay renders the single-card reading.
func (d *Deck) CardOfDay(lang string) string {
	card := d.Draw(1)[0]

	var b strings.Builder
	b.WriteString(locales.Get("tarot_day_title", lang))
	b.WriteString("\n\n")
	b.WriteString("🃏 " + card.Title(lang))
	b.WriteString("\n\n")
	b.WriteString(card.MeaningText(lang))
	return b.String()
}

// Spread renders a 3- or 5-card positional spread.
func (d *Deck) Spread(n int, lang string) string {
	positions, ok := spreadPositions[n]
	if !ok {
		positions = spreadPositions[3]
		n = 3
	}

	titleKey := "tarot3_title"
	if n == 5 {
		titleKey = "tarot5_title"
	}

	var b strings.Builder
	b.WriteString(locales.Get(titleKey, lang))
	b.WriteString("\n")
	for i, card := range d.Draw(n) {
		b.WriteString("\n")
		b.WriteString(locales.Get(positions[i], lang))
		b.WriteString(" " + card.Title(lang))
		b.WriteString("\n")
		b.WriteString(card.MeaningText(lang))
		b.WriteString("\n")
	}
	if n == 5 {
		b.WriteString("\n")
		b.WriteString(locales.Get("tarot5_outro", lang))
	}
	return b.String()
}
