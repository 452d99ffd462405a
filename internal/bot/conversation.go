package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "📝 Как назовём задачу?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Название не может быть пустым. Попробуй ещё раз.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Добавь короткое описание (или нажми «Пропустить»).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		return b.askList(ctx, msg, state)
	case stageList:
		if !isSkipInput(text) && !strings.EqualFold(text, noList) {
			listID, ok := state.lists[strings.ToLower(text)]
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Такого списка нет. Выбери из кнопок или нажми «Пропустить».", listKeyboard(state.lists))
			}
			state.input.ListID = listID
		}
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Укажи срок в формате <code>2025-11-30</code>, «сегодня», «завтра» или <code>+3</code> (или «Пропустить»).", skipKeyboard())
	case stageDueDate:
		if !isSkipInput(text) {
			due, err := parseDueDate(text, b.clock.Now())
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2025-11-30</code> или «Пропустить».", skipKeyboard())
			}
			state.input.DueDate = &due
		}
		err := b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /newtask.")
	}
}

func (b *Bot) askList(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	page, err := b.listSvc.ListLists(ctx, user.ID, model.PageRequest{Number: 1, Size: listKeyboardSize})
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить списки: %s", describeError(err)))
	}

	if len(page.Items) == 0 {
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Укажи срок в формате <code>2025-11-30</code>, «сегодня», «завтра» или <code>+3</code> (или «Пропустить»).", skipKeyboard())
	}

	state.lists = make(map[string]string, len(page.Items))
	for _, list := range page.Items {
		state.lists[strings.ToLower(strings.TrimSpace(list.Title))] = list.ID
	}
	state.stage = stageList
	return b.sendWithReplyMarkup(msg.Chat.ID, "📂 В какой список добавить задачу?", listKeyboard(state.lists))
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.CreateTask(ctx, user.ID, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось сохранить задачу: %s", describeError(err)))
	}

	log.Printf("[info] task created id=%s user=%s", task.ID, user.ID)

	var summary strings.Builder
	summary.WriteString("✅ <b>Задача сохранена</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> <code>%s</code>\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Название:</b> %s\n", escape(normalizeTitle(task.Title))))
	if task.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Описание:</b> %s\n", escape(task.Description)))
	}
	if task.DueDate != nil {
		summary.WriteString(fmt.Sprintf("• <b>Срок:</b> %s\n", task.DueDate.Format("2006-01-02")))
	}
	summary.WriteString(fmt.Sprintf("• <b>Статус:</b> %s\n", statusLabel(task.Status)))

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(summary.String()))
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user, model.TaskFilter{}, "📋 <b>Текущие задачи</b>")
}

// parseDueDate accepts an ISO date, a relative "+N" day offset or the words
// today/tomorrow in Russian or English.
func parseDueDate(text string, now time.Time) (time.Time, error) {
	value := strings.TrimSpace(strings.ToLower(text))
	today := model.StartOfDay(now)
	switch value {
	case "сегодня", "today":
		return today, nil
	case "завтра", "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}
	if strings.HasPrefix(value, "+") {
		days, err := strconv.Atoi(strings.TrimPrefix(value, "+"))
		if err != nil || days < 0 || days > 3650 {
			return time.Time{}, fmt.Errorf("invalid day offset %q", text)
		}
		return today.AddDate(0, 0, days), nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed, nil
}
