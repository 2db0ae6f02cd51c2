// Package zodiac defines the twelve signs and their request parameters.
package zodiac

import (
	"fmt"
	"strings"
)

// Sign is one of the twelve zodiac signs, always stored lowercase English.
type Sign string

const (
	Aries       Sign = "aries"
	Taurus      Sign = "taurus"
	Gemini      Sign = "gemini"
	Cancer      Sign = "cancer"
	Leo         Sign = "leo"
	Virgo       Sign = "virgo"
	Libra       Sign = "libra"
	Scorpio     Sign = "scorpio"
	Sagittarius Sign = "sagittarius"
	Capricorn   Sign = "capricorn"
	Aquarius    Sign = "aquarius"
	Pisces      Sign = "pisces"
)

// All lists the signs in traditional order.
var All = []Sign{
	Aries, Taurus, Gemini, Cancer, Leo, Virgo,
	Libra, Scorpio, Sagittarius, Capricorn, Aquarius, Pisces,
}

// SiteID maps a sign to the numeric identifier used by the horoscope
// source site (1 — Aries … 12 — Pisces).
var SiteID = map[Sign]int{
	Aries: 1, Taurus: 2, Gemini: 3, Cancer: 4,
	Leo: 5, Virgo: 6, Libra: 7, Scorpio: 8,
	Sagittarius: 9, Capricorn: 10, Aquarius: 11, Pisces: 12,
}

// russianNames maps the Russian button labels to signs.
var russianNames = map[string]Sign{
	"овен": Aries, "телец": Taurus, "близнецы": Gemini,
	"рак": Cancer, "лев": Leo, "дева": Virgo,
	"весы": Libra, "скорпион": Scorpio, "стрелец": Sagittarius,
	"козерог": Capricorn, "водолей": Aquarius, "рыбы": Pisces,
}

// Info holds display attributes of a sign.
type Info struct {
	Emoji   string
	NameRU  string
	NameEN  string
	Element map[string]string // lang -> element
	Planet  map[string]string // lang -> ruling planet
}

var infos = map[Sign]Info{
	Aries:       {Emoji: "♈️", NameRU: "Овен", NameEN: "Aries", Element: map[string]string{"ru": "Огонь", "en": "Fire"}, Planet: map[string]string{"ru": "Марс", "en": "Mars"}},
	Taurus:      {Emoji: "♉️", NameRU: "Телец", NameEN: "Taurus", Element: map[string]string{"ru": "Земля", "en": "Earth"}, Planet: map[string]string{"ru": "Венера", "en": "Venus"}},
	Gemini:      {Emoji: "♊️", NameRU: "Близнецы", NameEN: "Gemini", Element: map[string]string{"ru": "Воздух", "en": "Air"}, Planet: map[string]string{"ru": "Меркурий", "en": "Mercury"}},
	Cancer:      {Emoji: "♋️", NameRU: "Рак", NameEN: "Cancer", Element: map[string]string{"ru": "Вода", "en": "Water"}, Planet: map[string]string{"ru": "Луна", "en": "Moon"}},
	Leo:         {Emoji: "♌️", NameRU: "Лев", NameEN: "Leo", Element: map[string]string{"ru": "Огонь", "en": "Fire"}, Planet: map[string]string{"ru": "Солнце", "en": "Sun"}},
	Virgo:       {Emoji: "♍️", NameRU: "Дева", NameEN: "Virgo", Element: map[string]string{"ru": "Земля", "en": "Earth"}, Planet: map[string]string{"ru": "Меркурий", "en": "Mercury"}},
	Libra:       {Emoji: "♎️", NameRU: "Весы", NameEN: "Libra", Element: map[string]string{"ru": "Воздух", "en": "Air"}, Planet: map[string]string{"ru": "Венера", "en": "Venus"}},
	Scorpio:     {Emoji: "♏️", NameRU: "Скорпион", NameEN: "Scorpio", Element: map[string]string{"ru": "Вода", "en": "Water"}, Planet: map[string]string{"ru": "Плутон", "en": "Pluto"}},
	Sagittarius: {Emoji: "♐️", NameRU: "Стрелец", NameEN: "Sagittarius", Element: map[string]string{"ru": "Огонь", "en": "Fire"}, Planet: map[string]string{"ru": "Юпитер", "en": "Jupiter"}},
	Capricorn:   {Emoji: "♑️", NameRU: "Козерог", NameEN: "Capricorn", Element: map[string]string{"ru": "Земля", "en": "Earth"}, Planet: map[string]string{"ru": "Сатурн", "en": "Saturn"}},
	Aquarius:    {Emoji: "♒️", NameRU: "Водолей", NameEN: "Aquarius", Element: map[string]string{"ru": "Воздух", "en": "Air"}, Planet: map[string]string{"ru": "Уран", "en": "Uranus"}},
	Pisces:      {Emoji: "♓️", NameRU: "Рыбы", NameEN: "Pisces", Element: map[string]string{"ru": "Вода", "en": "Water"}, Planet: map[string]string{"ru": "Нептун", "en": "Neptune"}},
}

// GetInfo returns display attributes for a valid sign.
func GetInfo(s Sign) Info { return infos[s] }

// DisplayName returns the localized sign name.
func (s Sign) DisplayName(lang string) string {
	info := infos[s]
	if lang == "en" {
		return info.NameEN
	}
	return info.NameRU
}

// Parse accepts an English or Russian sign name in any case.
func Parse(raw string) (Sign, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := SiteID[Sign(v)]; ok {
		return Sign(v), nil
	}
	if s, ok := russianNames[v]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown zodiac sign %q", raw)
}

// Valid reports whether s is one of the twelve signs.
func Valid(s Sign) bool {
	_, ok := SiteID[s]
	return ok
}

// Day selects which horoscope the user asked for.
type Day string

const (
	Today    Day = "today"
	Tomorrow Day = "tomorrow"
	Week     Day = "week"
)

// ParseDay validates a day keyword.
func ParseDay(raw string) (Day, error) {
	switch Day(strings.ToLower(strings.TrimSpace(raw))) {
	case Today:
		return Today, nil
	case Tomorrow:
		return Tomorrow, nil
	case Week:
		return Week, nil
	}
	return "", fmt.Errorf("unknown day keyword %q", raw)
}
