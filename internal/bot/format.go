package bot

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-tracker/internal/model"
)

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelLists),
			tgbotapi.NewKeyboardButton(menuLabelStats),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
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

// listKeyboard shows one button per known list title, two per row.
func listKeyboard(lists map[string]string) tgbotapi.ReplyKeyboardMarkup {
	titles := make([]string, 0, len(lists))
	for title := range lists {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(titles); i += 2 {
		row := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(normalizeTitle(titles[i])))
		if i+1 < len(titles) {
			row = append(row, tgbotapi.NewKeyboardButton(normalizeTitle(titles[i+1])))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnSkip),
		tgbotapi.NewKeyboardButton(btnCancelDialog),
	))

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "пропустить" || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "подтвердить" || value == "да"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "отмена" || value == "нет"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод"
}

// nextStatus cycles pending -> in_progress -> completed -> pending.
func nextStatus(status model.Status) model.Status {
	switch status {
	case model.StatusPending:
		return model.StatusInProgress
	case model.StatusInProgress:
		return model.StatusCompleted
	default:
		return model.StatusPending
	}
}

func statusIcon(status model.Status) string {
	switch status {
	case model.StatusInProgress:
		return "🔧"
	case model.StatusCompleted:
		return "✅"
	default:
		return "🟢"
	}
}

func statusLabel(status model.Status) string {
	switch status {
	case model.StatusInProgress:
		return "в работе"
	case model.StatusCompleted:
		return "выполнена"
	default:
		return "ожидает"
	}
}

func groupOf(listID *string, listNames map[string]string) (string, string) {
	if listID == nil {
		return noListKey, noList
	}
	name := strings.TrimSpace(listNames[*listID])
	if name == "" {
		return noListKey, noList
	}
	return *listID, normalizeTitle(name)
}

func formatTask(task model.Task, now time.Time) string {
	var b strings.Builder
	icon := statusIcon(task.Status)
	if task.IsOverdue(now) {
		icon = "⚠️"
	}
	b.WriteString(fmt.Sprintf("%s %s · <i>%s</i>\n", icon, escape(normalizeTitle(task.Title)), statusLabel(task.Status)))
	b.WriteString(fmt.Sprintf("   🆔 <code>%s</code>\n", task.ID))
	if task.DueDate != nil {
		due := task.DueDate.Format("2006-01-02")
		if task.IsOverdue(now) {
			b.WriteString(fmt.Sprintf("   ⏰ Срок: %s · <b>просрочено</b>\n", due))
		} else {
			b.WriteString(fmt.Sprintf("   ⏰ Срок: %s\n", due))
		}
	}
	if task.Description != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(task.Description)))
	}
	return b.String()
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

func escape(s string) string {
	return html.EscapeString(s)
}
