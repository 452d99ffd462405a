package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-tracker/internal/model"
	"task-tracker/internal/repository"
	"task-tracker/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageList
	stageDueDate
)

const (
	cbStatusPrefix     = "st:"
	cbDeletePrefix     = "del:"
	cbDeleteListPrefix = "dl:"
)

const (
	btnSkip          = "⏭️ Пропустить"
	btnConfirm       = "✅ Подтвердить"
	btnCancel        = "↩️ Отмена"
	btnCancelDialog  = "⏪ Отменить ввод"
	noList           = "Без списка"
	noListKey        = "__no_list__"
	menuLabelNewTask = "➕ Новая задача"
	menuLabelTasks   = "📋 Задачи"
	menuLabelLists   = "📂 Списки"
	menuLabelStats   = "📊 Статистика"
	menuLabelHelp    = "ℹ️ Помощь"
	taskListLimit    = 50
	listKeyboardSize = 6
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
	lists map[string]string
}

type confirmationAction int

const (
	actionDeleteTask confirmationAction = iota
	actionDeleteList
)

type confirmationRequest struct {
	targetID string
	action   confirmationAction
}

// Deps carries the services the bot talks to.
type Deps struct {
	Users        *repository.UserRepository
	Lists        *service.ListService
	Tasks        *service.TaskService
	Stats        *service.StatsService
	Reminders    *service.ReminderService
	Clock        service.Clock
	DeletePolicy service.DeletePolicy
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	userRepo      *repository.UserRepository
	listSvc       *service.ListService
	taskSvc       *service.TaskService
	statsSvc      *service.StatsService
	reminderSvc   *service.ReminderService
	clock         service.Clock
	deletePolicy  service.DeletePolicy
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(token string, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	if deps.Clock == nil {
		deps.Clock = service.SystemClock
	}
	if deps.DeletePolicy == "" {
		deps.DeletePolicy = service.DeleteCascade
	}

	return &Bot{
		api:           api,
		userRepo:      deps.Users,
		listSvc:       deps.Lists,
		taskSvc:       deps.Tasks,
		statsSvc:      deps.Stats,
		reminderSvc:   deps.Reminders,
		clock:         deps.Clock,
		deletePolicy:  deps.DeletePolicy,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return ctx.Err()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён. Можно начать заново.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if state := b.getConversation(msg.From.ID); state != nil {
		log.Printf("[info] conversation step %d from %d", state.stage, msg.From.ID)
		return b.handleConversation(ctx, msg, state)
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /newtask, чтобы добавить задачу, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "newlist":
		return b.handleNewList(ctx, msg)
	case "lists":
		return b.handleLists(ctx, msg)
	case "dellist":
		return b.handleDeleteList(ctx, msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "overdue":
		return b.handleOverdue(ctx, msg)
	case "status":
		return b.handleStatus(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "stats":
		return b.handleStats(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	name := user.DisplayName()
	if name == user.ID {
		name = "друг"
	}

	text := fmt.Sprintf("👋 Привет, %s!\n<b>Я трекер задач: списки, статусы и сроки в одном месте.</b>\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

const helpText = "Команды:\n" +
	"• /newtask — добавить задачу пошагово\n" +
	"• /tasks [статус] — задачи (pending, in_progress, completed)\n" +
	"• /overdue — просроченные задачи\n" +
	"• /status &lt;id&gt; &lt;статус&gt; — сменить статус\n" +
	"• /delete &lt;id&gt; — удалить задачу\n" +
	"• /newlist &lt;название&gt; — создать список\n" +
	"• /lists — списки и счётчики\n" +
	"• /dellist &lt;id&gt; — удалить список\n" +
	"• /stats — статистика\n" +
	"• /report — ежедневный отчёт прямо сейчас\n" +
	"• /cancel — отменить текущий ввод"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Подсказки</b>\n"+helpText)
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.reminderSvc.DailySummary(ctx, *user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось сформировать отчёт: %s", describeError(err)))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	stats, err := b.statsSvc.Statistics(ctx, user.ID)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось посчитать статистику: %s", describeError(err)))
	}
	return b.sendText(msg.Chat.ID, "📊 <b>Статистика</b>\n"+service.FormatStatistics(stats))
}

// SendDailyReports sends a summary to every known Telegram user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.userRepo.ListTelegramUsers(ctx)
	if err != nil {
		return err
	}
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if user.TelegramID == nil {
			continue
		}
		text, err := b.reminderSvc.DailySummary(ctx, user)
		if err != nil {
			log.Printf("build summary for user %d: %v", *user.TelegramID, err)
			continue
		}
		if err := b.sendText(*user.TelegramID, text); err != nil {
			log.Printf("send summary to %d: %v", *user.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, model.TelegramProfile{
		ID:        from.ID,
		FirstName: from.FirstName,
		LastName:  from.LastName,
		Username:  from.UserName,
	})
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(ctx, msg)
	case strings.ToLower(menuLabelLists):
		return true, b.handleLists(ctx, msg)
	case strings.ToLower(menuLabelStats):
		return true, b.handleStats(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

// describeError turns service errors into short user-facing Russian text.
func describeError(err error) string {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		parts := make([]string, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			parts = append(parts, fieldLabel(f.Field)+": "+f.Message)
		}
		return escape(strings.Join(parts, "; "))
	case errors.Is(err, service.ErrNotFound):
		return "не найдено"
	case errors.Is(err, service.ErrListNotEmpty):
		return "в списке ещё есть задачи"
	case errors.Is(err, service.ErrConflict):
		return "данные изменились, попробуй ещё раз"
	case errors.Is(err, service.ErrTimeout):
		return "хранилище не ответило вовремя"
	default:
		return escape(err.Error())
	}
}

func fieldLabel(field string) string {
	switch field {
	case "title":
		return "название"
	case "description":
		return "описание"
	case "status":
		return "статус"
	default:
		return field
	}
}
