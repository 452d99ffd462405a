package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"task-tracker/internal/model"
)

const dueSoonDays = 2

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	tasks *TaskService
	stats *StatsService
}

func NewReminderService(tasks *TaskService, stats *StatsService) *ReminderService {
	return &ReminderService{tasks: tasks, stats: stats}
}

// DailySummary renders statistics, overdue tasks and tasks due within the
// next two days for one user as Telegram HTML. The due-soon window and the
// overdue flags come from the same clock the task queries use.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User) (string, error) {
	now := s.tasks.opts.now()
	stats, err := s.stats.Statistics(ctx, user.ID)
	if err != nil {
		return "", err
	}

	summaries, err := s.stats.ListSummaries(ctx, user.ID)
	if err != nil {
		return "", err
	}
	listNames := make(map[string]string, len(summaries))
	for _, summary := range summaries {
		listNames[summary.ListID] = summary.Title
	}

	overdueOnly := true
	var overdue []model.Task
	for task, err := range s.tasks.AllTasks(ctx, user.ID, model.TaskFilter{Overdue: &overdueOnly}, model.TaskSort{Field: model.SortDueDate, Asc: true}) {
		if err != nil {
			return "", err
		}
		overdue = append(overdue, task)
	}

	today := model.StartOfDay(now)
	after := today.AddDate(0, 0, -1)
	before := today.AddDate(0, 0, dueSoonDays+1)
	var dueSoon []model.Task
	for task, err := range s.tasks.AllTasks(ctx, user.ID, model.TaskFilter{DueAfter: &after, DueBefore: &before}, model.TaskSort{Field: model.SortDueDate, Asc: true}) {
		if err != nil {
			return "", err
		}
		if task.Status != model.StatusCompleted {
			dueSoon = append(dueSoon, task)
		}
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Ежедневный отчёт</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))
	builder.WriteString(FormatStatistics(stats))

	builder.WriteString("\n⚠️ <b>Просроченные задачи</b>\n")
	if len(overdue) == 0 {
		builder.WriteString("— просроченных задач нет\n")
	} else {
		for _, task := range overdue {
			builder.WriteString(formatTask(task, listNames, now))
		}
	}

	builder.WriteString("\n⏳ <b>Срок в ближайшие дни</b>\n")
	if len(dueSoon) == 0 {
		builder.WriteString("— ничего срочного\n")
	} else {
		for _, task := range dueSoon {
			builder.WriteString(formatTask(task, listNames, now))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

// FormatStatistics renders counts as a short HTML block.
func FormatStatistics(stats model.Statistics) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 Всего задач: <b>%d</b>, открыто: %d\n", stats.Total, stats.Open()))
	sb.WriteString(fmt.Sprintf("🟢 Ожидают: %d\n", stats.Pending))
	sb.WriteString(fmt.Sprintf("🔧 В работе: %d\n", stats.InProgress))
	sb.WriteString(fmt.Sprintf("✅ Выполнено: %d\n", stats.Completed))
	sb.WriteString(fmt.Sprintf("⚠️ Просрочено: %d\n", stats.Overdue))
	return sb.String()
}

func formatTask(task model.Task, listNames map[string]string, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	switch {
	case task.IsOverdue(now):
		icon = "⚠️"
	case task.Status == model.StatusInProgress:
		icon = "🔧"
	case task.DueDate != nil:
		icon = "⏳"
	}

	title := html.EscapeString(strings.TrimSpace(task.Title))
	sb.WriteString(fmt.Sprintf("%s %s", icon, title))

	if task.ListID != nil {
		if name, ok := listNames[*task.ListID]; ok {
			trimmed := strings.TrimSpace(name)
			if trimmed != "" {
				sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(trimmed)))
			}
		}
	}

	if task.DueDate != nil {
		due := task.DueDate.Format("2006-01-02")
		if task.IsOverdue(now) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ до %s — <b>просрочено</b>", due))
		} else {
			daysLeft := int(task.DueDate.Sub(model.StartOfDay(now)).Hours() / 24)
			sb.WriteString(fmt.Sprintf("\n   ⏰ до %s · осталось %d дн.", due, daysLeft))
		}
	}

	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(task.Description))))
	}

	sb.WriteByte('\n')
	return sb.String()
}
