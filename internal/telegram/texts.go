package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// UI texts
const (
	startText = "👋 I track your baby's day: sleep, feedings, health notes — and remind you about the important bits.\n\n" +
		"Quick start:\n" +
		"• /child Anya 2024-03-15 — create a child profile\n" +
		"• tap 😴 Sleep / 🌅 Wake to log sleep\n" +
		"• /feed formula 120 — log a feeding\n" +
		"• /remind every 3h feeding time — set a reminder\n" +
		"• /calendar — see the last 24 hours\n\n" +
		"/help shows the full command list."

	helpText = "📖 Commands:\n\n" +
		"Profile\n" +
		"• /child <name> [YYYY-MM-DD] — add a child\n" +
		"• /children — list children, /setchild <n> — pick the active one\n\n" +
		"Tracking\n" +
		"• /sleep — fell asleep, /wake — woke up\n" +
		"• /feed <breast|formula|water|solid> [amount] [note]\n" +
		"• /diaper [note], /bath [note]\n" +
		"• /temp <°C>, /med <name> <mg>, /doctor [note], /growth <cm> <g>\n\n" +
		"Timeline\n" +
		"• /calendar [hours] — merged events, newest first\n\n" +
		"Reminders\n" +
		"• /remind in <dur> <text> — one-shot (e.g. /remind in 45m check oven)\n" +
		"• /remind every <dur> <text> — recurring\n" +
		"• /reminders — list, /snooze <n> <dur>, /delremind <n>, /editremind <n> <text>\n\n" +
		"Family\n" +
		"• /family <title> — create, /invite — share a code, /join <code>"

	noChildText = "❗️ Create a child profile first: /child <name> [birth date]"
)

// mainMenuKeyboard is the persistent reply keyboard with the everyday actions.
func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("😴 Sleep"),
			tgbotapi.NewKeyboardButton("🌅 Wake"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📅 Calendar"),
			tgbotapi.NewKeyboardButton("⏰ Reminders"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// sleepQualityKeyboard asks how the finished sleep went; the record id rides
// in the callback data.
func sleepQualityKeyboard(recordID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("😴 Great", callbackQuality(recordID, "good")),
			tgbotapi.NewInlineKeyboardButtonData("🙂 Okay", callbackQuality(recordID, "ok")),
			tgbotapi.NewInlineKeyboardButtonData("😕 Restless", callbackQuality(recordID, "bad")),
		),
	)
}
