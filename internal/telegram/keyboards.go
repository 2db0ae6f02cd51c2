package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alexguevara007/Astrobot-2.0/internal/locales"
	"github.com/alexguevara007/Astrobot-2.0/internal/zodiac"
)

// mainMenuKeyboard is the persistent reply keyboard under the input field.
func mainMenuKeyboard(lang string) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(locales.Get("menu_horoscope", lang)),
			tgbotapi.NewKeyboardButton(locales.Get("menu_tarot", lang)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(locales.Get("menu_moon", lang)),
			tgbotapi.NewKeyboardButton(locales.Get("menu_compat", lang)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(locales.Get("menu_magic8", lang)),
			tgbotapi.NewKeyboardButton(locales.Get("menu_subscribe", lang)),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// zodiacGrid builds a 4x3 inline grid of signs. Each button's payload
// is formed by the format string, e.g. "horo:%s:today" or "sub:%s".
func zodiacGrid(lang, payloadFormat string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(zodiac.All); i += 3 {
		var row []tgbotapi.InlineKeyboardButton
		for _, sign := range zodiac.All[i : i+3] {
			info := zodiac.GetInfo(sign)
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				info.Emoji+" "+sign.DisplayName(lang),
				fmt.Sprintf(payloadFormat, sign),
			))
		}
		rows = append(rows, row)
	}
	rows = append(rows, backRow(lang))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func horoscopeMenuKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(locales.Get("horoscope_today_btn", lang), "sign_menu:today"),
			tgbotapi.NewInlineKeyboardButtonData(locales.Get("horoscope_tomorrow_btn", lang), "sign_menu:tomorrow"),
		),
		backRow(lang),
	)
}

func tarotMenuKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(locales.Get("tarot_day_btn", lang), "tarot:1"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(locales.Get("tarot3_btn", lang), "tarot:3"),
			tgbotapi.NewInlineKeyboardButtonData(locales.Get("tarot5_btn", lang), "tarot:5"),
		),
		backRow(lang),
	)
}

func languageKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🇷🇺 "+locales.Supported["ru"], "lang:ru"),
			tgbotapi.NewInlineKeyboardButtonData("🇬🇧 "+locales.Supported["en"], "lang:en"),
		),
	)
}

func repeatKeyboard(lang, payload string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(locales.Get("repeat", lang), payload),
		),
		backRow(lang),
	)
}

func backKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(backRow(lang))
}

func backRow(lang string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(locales.Get("back_to_menu", lang), "menu"),
	)
}
