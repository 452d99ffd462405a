package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	var filter model.TaskFilter
	header := "📋 <b>Текущие задачи</b>"
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		status, ok := model.ParseStatus(arg)
		if !ok {
			return b.sendText(msg.Chat.ID, "Неизвестный статус. Используй pending, in_progress или completed.")
		}
		filter.Status = &status
		header = fmt.Sprintf("📋 <b>Задачи: %s</b>", statusLabel(status))
	}
	return b.sendTaskList(ctx, msg.Chat.ID, user, filter, header)
}

func (b *Bot) handleOverdue(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	overdue := true
	return b.sendTaskList(ctx, msg.Chat.ID, user, model.TaskFilter{Overdue: &overdue}, "⚠️ <b>Просроченные задачи</b>")
}

func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		return b.sendText(msg.Chat.ID, "Используй: /status &lt;id&gt; &lt;pending|in_progress|completed&gt;")
	}
	status, ok := model.ParseStatus(args[1])
	if !ok {
		return b.sendText(msg.Chat.ID, "Неизвестный статус. Используй pending, in_progress или completed.")
	}
	return b.setStatusAndReport(ctx, msg.Chat.ID, msg.From, args[0], status)
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID := strings.TrimSpace(msg.CommandArguments())
	if taskID == "" {
		return b.sendText(msg.Chat.ID, "Используй: /delete &lt;id&gt;")
	}
	return b.askDeleteConfirmation(ctx, msg.Chat.ID, msg.From, taskID)
}

func (b *Bot) handleNewList(ctx context.Context, msg *tgbotapi.Message) error {
	title := strings.TrimSpace(msg.CommandArguments())
	if title == "" {
		return b.sendText(msg.Chat.ID, "Используй: /newlist &lt;название&gt;")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	list, err := b.listSvc.CreateList(ctx, user.ID, service.ListInput{Title: title})
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось создать список: %s", describeError(err)))
	}
	log.Printf("[info] list created id=%s user=%s", list.ID, user.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📂 Список %s создан.\nID: <code>%s</code>", escape(normalizeTitle(list.Title)), list.ID))
}

func (b *Bot) handleLists(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	summaries, err := b.statsSvc.ListSummaries(ctx, user.ID)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить списки: %s", describeError(err)))
	}
	if len(summaries) == 0 {
		return b.sendText(msg.Chat.ID, "Списков пока нет. Создай первый через /newlist &lt;название&gt;.")
	}

	var builder strings.Builder
	builder.WriteString("📂 <b>Списки</b>\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, summary := range summaries {
		builder.WriteString(fmt.Sprintf("<b>%s</b> · <code>%s</code>\n", escape(normalizeTitle(summary.Title)), summary.ListID))
		builder.WriteString(fmt.Sprintf("   всего %d · ожидают %d · в работе %d · выполнено %d",
			summary.Total, summary.Pending, summary.InProgress, summary.Completed))
		if summary.Overdue > 0 {
			builder.WriteString(fmt.Sprintf(" · <b>просрочено %d</b>", summary.Overdue))
		}
		builder.WriteString("\n\n")
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+shortTitle(summary.Title, 24), cbDeleteListPrefix+summary.ListID),
		))
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, strings.TrimSpace(builder.String()))
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err = b.api.Send(reply)
	return err
}

func (b *Bot) handleDeleteList(ctx context.Context, msg *tgbotapi.Message) error {
	listID := strings.TrimSpace(msg.CommandArguments())
	if listID == "" {
		return b.sendText(msg.Chat.ID, "Используй: /dellist &lt;id&gt;")
	}
	return b.askDeleteListConfirmation(ctx, msg.Chat.ID, msg.From, listID)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User, filter model.TaskFilter, header string) error {
	page, err := b.taskSvc.QueryTasks(ctx, user.ID, service.TaskQuery{
		Filter: filter,
		Sort:   model.TaskSort{Field: model.SortDueDate, Asc: true},
		Page:   model.PageRequest{Number: 1, Size: taskListLimit},
	})
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось получить задачи: %s", describeError(err)))
	}
	if len(page.Items) == 0 {
		return b.sendText(chatID, "Задач не найдено. Добавь новую через /newtask.")
	}

	listNames := make(map[string]string)
	if summaries, err := b.statsSvc.ListSummaries(ctx, user.ID); err == nil {
		for _, summary := range summaries {
			listNames[summary.ListID] = summary.Title
		}
	}

	now := b.clock.Now()
	type listGroup struct {
		Name  string
		Tasks []model.Task
	}

	groups := make(map[string]*listGroup)
	order := make([]string, 0)
	for _, task := range page.Items {
		key, display := groupOf(task.ListID, listNames)
		group, ok := groups[key]
		if !ok {
			group = &listGroup{Name: display}
			groups[key] = group
			order = append(order, key)
		}
		group.Tasks = append(group.Tasks, task)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i] == noListKey {
			return false
		}
		if order[j] == noListKey {
			return true
		}
		return strings.Compare(groups[order[i]].Name, groups[order[j]].Name) < 0
	})

	var builder strings.Builder
	builder.WriteString(header + "\n")
	builder.WriteString("Кнопка со статусом переключает его по кругу, 🗑 удаляет задачу.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, key := range order {
		section := groups[key]
		builder.WriteString(fmt.Sprintf("<b>📂 %s</b>\n", escape(section.Name)))
		for _, task := range section.Tasks {
			builder.WriteString(formatTask(task, now))
			next := nextStatus(task.Status)
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s → %s", shortTitle(task.Title, 20), statusIcon(next)), cbStatusPrefix+task.ID),
				tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
			))
		}
		builder.WriteByte('\n')
	}
	if page.HasMore() {
		builder.WriteString(fmt.Sprintf("Показаны первые %d из %d.", len(page.Items), page.Total))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID
	switch {
	case strings.HasPrefix(data, cbStatusPrefix):
		taskID := strings.TrimPrefix(data, cbStatusPrefix)
		log.Printf("[info] callback status cycle user=%d task=%s", cb.From.ID, taskID)
		return b.cycleStatus(ctx, chatID, cb.From, taskID)
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID := strings.TrimPrefix(data, cbDeletePrefix)
		log.Printf("[info] callback delete request user=%d task=%s", cb.From.ID, taskID)
		return b.askDeleteConfirmation(ctx, chatID, cb.From, taskID)
	case strings.HasPrefix(data, cbDeleteListPrefix):
		listID := strings.TrimPrefix(data, cbDeleteListPrefix)
		log.Printf("[info] callback list delete request user=%d list=%s", cb.From.ID, listID)
		return b.askDeleteListConfirmation(ctx, chatID, cb.From, listID)
	default:
		return nil
	}
}

func (b *Bot) cycleStatus(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, user.ID, taskID)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Задача недоступна: %s", describeError(err)))
	}
	return b.setStatusAndReport(ctx, chatID, from, task.ID, nextStatus(task.Status))
}

func (b *Bot) setStatusAndReport(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string, status model.Status) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.SetStatus(ctx, user.ID, taskID, status)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось обновить статус: %s", describeError(err)))
	}
	log.Printf("[info] task status changed id=%s status=%s", task.ID, task.Status)
	return b.sendText(chatID, fmt.Sprintf("%s «%s» теперь: %s", statusIcon(task.Status), escape(normalizeTitle(task.Title)), statusLabel(task.Status)))
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.GetTask(ctx, user.ID, taskID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, "Задача не найдена.")
		}
		return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", describeError(err)))
	}

	text := fmt.Sprintf("Удалить задачу «%s»?", escape(normalizeTitle(task.Title)))
	b.setConfirmation(from.ID, confirmationRequest{targetID: task.ID, action: actionDeleteTask})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) askDeleteListConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, listID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	list, err := b.listSvc.GetList(ctx, user.ID, listID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, "Список не найден.")
		}
		return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", describeError(err)))
	}

	text := fmt.Sprintf("Удалить список «%s»?", escape(normalizeTitle(list.Title)))
	if b.deletePolicy == service.DeleteCascade {
		text += "\nВсе задачи списка тоже будут удалены."
	}
	b.setConfirmation(from.ID, confirmationRequest{targetID: list.ID, action: actionDeleteList})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionDeleteList {
			return b.deleteList(ctx, msg.Chat.ID, msg.From, req.targetID)
		}
		return b.deleteTask(ctx, msg.Chat.ID, msg.From, req.targetID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Хорошо, ничего не удаляю.")
	default:
		prompt := "Подтверди или отмени удаление задачи."
		if req.action == actionDeleteList {
			prompt = "Подтверди или отмени удаление списка."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	if err := b.taskSvc.DeleteTask(ctx, user.ID, taskID); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось удалить задачу: %s", describeError(err)))
	}
	log.Printf("[info] task deleted id=%s user=%s", taskID, user.ID)
	return b.sendText(chatID, "🗑 Задача удалена.")
}

func (b *Bot) deleteList(ctx context.Context, chatID int64, from *tgbotapi.User, listID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	if err := b.listSvc.DeleteList(ctx, user.ID, listID, b.deletePolicy); err != nil {
		if errors.Is(err, service.ErrListNotEmpty) {
			return b.sendText(chatID, "В списке ещё есть задачи. Удали или перенеси их, затем повтори.")
		}
		return b.sendText(chatID, fmt.Sprintf("Не удалось удалить список: %s", describeError(err)))
	}
	log.Printf("[info] list deleted id=%s user=%s policy=%s", listID, user.ID, b.deletePolicy)
	return b.sendText(chatID, "🗑 Список удалён.")
}
