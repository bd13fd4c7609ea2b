package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"day-planner/internal/model"
	"day-planner/internal/service"
	"day-planner/internal/store"
)

const (
	cbTogglePrefix = "toggle:"
	cbDeletePrefix = "delete:"
	cbDayPrefix    = "day:"
	cbFilterPrefix = "filter:"

	dayPrev  = "prev"
	dayNext  = "next"
	dayToday = "today"
)

const (
	btnSkip             = "⏭️ Пропустить"
	btnNo               = "Нет"
	btnConfirm          = "✅ Подтвердить"
	btnSaveAnyway       = "⚠️ Сохранить всё равно"
	btnCancel           = "↩️ Отмена"
	btnCancelDialog     = "⏪ Отменить ввод"
	menuLabelNewTask    = "➕ Новая задача"
	menuLabelToday      = "📅 Сегодня"
	menuLabelCategories = "📂 Категории"
	menuLabelHelp       = "ℹ️ Помощь"
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelToday),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelCategories),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func confirmKeyboard(confirmLabel string) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(confirmLabel),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func reminderKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("5"),
			tgbotapi.NewKeyboardButton("15"),
			tgbotapi.NewKeyboardButton("30"),
			tgbotapi.NewKeyboardButton("60"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnNo),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// categoryKeyboard lists categories two per row.
func categoryKeyboard(categories []model.Category, withSkip bool) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, c := range categories {
		row = append(row, tgbotapi.NewKeyboardButton(c.Name))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	last := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnCancelDialog)}
	if withSkip {
		last = append([]tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(btnSkip)}, last...)
	}
	rows = append(rows, last)

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// dayKeyboard offers toggle and delete buttons for every task on screen
// plus day navigation.
func dayKeyboard(view service.DayView) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, bucket := range view.Buckets {
		for _, task := range bucket.Tasks {
			mark := "⬜"
			if task.Completed {
				mark = "✅"
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %s · %s", mark, task.Time, shortTitle(task.Title, 22)), cbTogglePrefix+task.ID),
				tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
			))
		}
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀️", cbDayPrefix+dayPrev),
		tgbotapi.NewInlineKeyboardButtonData("Сегодня", cbDayPrefix+dayToday),
		tgbotapi.NewInlineKeyboardButtonData("▶️", cbDayPrefix+dayNext),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func filterKeyboard(categories []model.Category, active string) tgbotapi.InlineKeyboardMarkup {
	label := func(id, name string) string {
		if id == active {
			return "• " + name
		}
		return name
	}
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label(service.FilterAll, "Все"), cbFilterPrefix+service.FilterAll)),
	}
	for _, c := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label(c.ID, c.Name), cbFilterPrefix+c.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "пропустить" || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == strings.ToLower(btnSaveAnyway) ||
		value == "подтвердить" || value == "да"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "отмена" || value == "нет"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод"
}

func isNoInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnNo) || value == "no" || value == "0"
}

// resolveCategory matches text against category ids and, case-insensitively, names.
func resolveCategory(categories []model.Category, text string) (model.Category, bool) {
	text = strings.TrimSpace(text)
	for _, c := range categories {
		if c.ID == text {
			return c, true
		}
	}
	for _, c := range categories {
		if strings.EqualFold(strings.TrimSpace(c.Name), text) {
			return c, true
		}
	}
	return model.Category{}, false
}

// parseMoveArgs accepts "<id> YYYY-MM-DD HH:MM" or "<id> HH:MM", the
// latter keeping fallbackDate.
func parseMoveArgs(args, fallbackDate string) (id, date, clock string, err error) {
	fields := strings.Fields(args)
	switch len(fields) {
	case 2:
		return fields[0], fallbackDate, fields[1], nil
	case 3:
		return fields[0], fields[1], fields[2], nil
	default:
		return "", "", "", fmt.Errorf("expected <id> [YYYY-MM-DD] HH:MM")
	}
}

// parseCategoryArgs splits "/newcategory" arguments into a name and an optional trailing #color.
func parseCategoryArgs(args string) (name, color string) {
	fields := strings.Fields(args)
	if n := len(fields); n > 1 && strings.HasPrefix(fields[n-1], "#") {
		color = fields[n-1]
		fields = fields[:n-1]
	}
	return strings.Join(fields, " "), color
}

func parseReminderLead(text string) (int, bool) {
	lead, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || lead <= 0 || lead > 24*60 {
		return 0, false
	}
	return lead, true
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func categoryLabel(c model.Category) string {
	var icon string
	switch c.ID {
	case store.CategoryStudy:
		icon = "🎓"
	case store.CategoryWork:
		icon = "💼"
	case store.CategoryHome:
		icon = "🏠"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s <code>%s</code>", icon, escape(normalizeTitle(c.Name)), escape(c.ID))
}

func escape(s string) string {
	return html.EscapeString(s)
}
