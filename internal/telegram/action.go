// Package telegram glues the bot API to the content services: update
// routing, keyboards and message handlers.
package telegram

import (
	"strconv"
	"strings"

	"github.com/alexguevara007/Astrobot-2.0/internal/locales"
	"github.com/alexguevara007/Astrobot-2.0/internal/zodiac"
)

// Kind enumerates everything a user can ask the bot to do. Updates
// are parsed into an Action once, at the boundary; handlers switch on
// the kind and never look at raw callback strings.
type Kind int

const (
	ActUnknown Kind = iota
	ActStart
	ActMenu
	ActLanguage
	ActHoroscopeMenu
	ActSelectSign
	ActHoroscope
	ActMoon
	ActTarotMenu
	ActTarot
	ActCompatStart
	ActCompatFirst
	ActCompatSecond
	ActMagic8
	ActSubscribeMenu
	ActSubscribe
	ActUnsubscribe
	ActStatus
	ActHistory
	ActStats
)

// Action is one parsed user request.
type Action struct {
	Kind  Kind
	Sign  zodiac.Sign
	Day   zodiac.Day
	Cards int
	Lang  string
}

// ParseCommand maps a slash command to an action.
func ParseCommand(cmd string) Action {
	switch cmd {
	case "start":
		return Action{Kind: ActStart}
	case "menu", "help":
		return Action{Kind: ActMenu}
	case "horoscope":
		return Action{Kind: ActHoroscopeMenu}
	case "tomorrow":
		return Action{Kind: ActSelectSign, Day: zodiac.Tomorrow}
	case "moon":
		return Action{Kind: ActMoon}
	case "tarot":
		return Action{Kind: ActTarotMenu}
	case "tarot3":
		return Action{Kind: ActTarot, Cards: 3}
	case "tarot5":
		return Action{Kind: ActTarot, Cards: 5}
	case "compatibility":
		return Action{Kind: ActCompatStart}
	case "magic8", "ball":
		return Action{Kind: ActMagic8}
	case "subscribe":
		return Action{Kind: ActSubscribeMenu}
	case "unsubscribe":
		return Action{Kind: ActUnsubscribe}
	case "status":
		return Action{Kind: ActStatus}
	case "history":
		return Action{Kind: ActHistory}
	case "language":
		return Action{Kind: ActLanguage}
	case "stats":
		return Action{Kind: ActStats}
	}
	return Action{Kind: ActUnknown}
}

// ParseCallback maps inline keyboard payloads to actions. The payload
// grammar is "verb" or "verb:arg" or "verb:arg:arg".
func ParseCallback(data string) Action {
	parts := strings.Split(data, ":")
	verb := parts[0]
	arg := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}

	switch verb {
	case "menu":
		return Action{Kind: ActMenu}
	case "lang":
		return Action{Kind: ActLanguage, Lang: arg(1)}
	case "horo_menu":
		return Action{Kind: ActHoroscopeMenu}
	case "sign_menu":
		day, err := zodiac.ParseDay(arg(1))
		if err != nil {
			return Action{Kind: ActUnknown}
		}
		return Action{Kind: ActSelectSign, Day: day}
	case "horo":
		sign, signErr := zodiac.Parse(arg(1))
		day, dayErr := zodiac.ParseDay(arg(2))
		if signErr != nil || dayErr != nil {
			return Action{Kind: ActUnknown}
		}
		return Action{Kind: ActHoroscope, Sign: sign, Day: day}
	case "moon":
		return Action{Kind: ActMoon}
	case "tarot_menu":
		return Action{Kind: ActTarotMenu}
	case "tarot":
		n, err := strconv.Atoi(arg(1))
		if err != nil || (n != 1 && n != 3 && n != 5) {
			return Action{Kind: ActUnknown}
		}
		return Action{Kind: ActTarot, Cards: n}
	case "compat":
		return Action{Kind: ActCompatStart}
	case "compat1":
		sign, err := zodiac.Parse(arg(1))
		if err != nil {
			return Action{Kind: ActUnknown}
		}
		return Action{Kind: ActCompatFirst, Sign: sign}
	case "compat2":
		sign, err := zodiac.Parse(arg(1))
		if err != nil {
			return Action{Kind: ActUnknown}
		}
		return Action{Kind: ActCompatSecond, Sign: sign}
	case "magic8":
		return Action{Kind: ActMagic8}
	case "sub_menu":
		return Action{Kind: ActSubscribeMenu}
	case "sub":
		sign, err := zodiac.Parse(arg(1))
		if err != nil {
			return Action{Kind: ActUnknown}
		}
		return Action{Kind: ActSubscribe, Sign: sign}
	case "unsub":
		return Action{Kind: ActUnsubscribe}
	}
	return Action{Kind: ActUnknown}
}

// ParseText matches reply-keyboard button labels in any supported
// language.
func ParseText(text string) Action {
	kinds := map[string]Kind{
		"menu_horoscope": ActHoroscopeMenu,
		"menu_tarot":     ActTarotMenu,
		"menu_moon":      ActMoon,
		"menu_compat":    ActCompatStart,
		"menu_magic8":    ActMagic8,
		"menu_subscribe": ActSubscribeMenu,
	}
	for lang := range locales.Supported {
		for key, kind := range kinds {
			if text == locales.Get(key, lang) {
				return Action{Kind: kind}
			}
		}
	}
	return Action{Kind: ActUnknown}
}
