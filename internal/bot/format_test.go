package bot

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

var testNow = time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDueDate(t *testing.T) {
	cases := map[string]time.Time{
		"сегодня":    date(2025, 3, 10),
		"Today":      date(2025, 3, 10),
		" завтра ":   date(2025, 3, 11),
		"tomorrow":   date(2025, 3, 11),
		"+0":         date(2025, 3, 10),
		"+3":         date(2025, 3, 13),
		"+30":        date(2025, 4, 9),
		"2025-12-31": date(2025, 12, 31),
	}
	for input, want := range cases {
		got, err := parseDueDate(input, testNow)
		require.NoError(t, err, input)
		assert.True(t, want.Equal(got), "%s: got %s", input, got)
	}

	for _, bad := range []string{"", "+x", "+-1", "+3651", "31.12.2025", "someday"} {
		_, err := parseDueDate(bad, testNow)
		assert.Error(t, err, bad)
	}
}

func TestNextStatusCycles(t *testing.T) {
	status := model.StatusPending
	seen := []model.Status{status}
	for range 3 {
		status = nextStatus(status)
		seen = append(seen, status)
	}
	assert.Equal(t, []model.Status{
		model.StatusPending,
		model.StatusInProgress,
		model.StatusCompleted,
		model.StatusPending,
	}, seen)

	assert.Equal(t, "ожидает", statusLabel(model.StatusPending))
	assert.Equal(t, "в работе", statusLabel(model.StatusInProgress))
	assert.Equal(t, "выполнена", statusLabel(model.StatusCompleted))
	assert.Equal(t, "✅", statusIcon(model.StatusCompleted))
}

func TestTitles(t *testing.T) {
	assert.Equal(t, "Купить молоко", normalizeTitle("  купить молоко "))
	assert.Equal(t, "", normalizeTitle("   "))
	assert.Equal(t, "Abc", shortTitle("abc", 10))
	assert.Equal(t, "Купит…", shortTitle("купить молоко", 6))
	assert.Equal(t, "Line one", shortTitle("line\none", 20))
}

func TestInputMatchers(t *testing.T) {
	for _, in := range []string{"-", btnSkip, "Пропустить", "skip"} {
		assert.True(t, isSkipInput(in), in)
	}
	assert.False(t, isSkipInput("купить"))

	for _, in := range []string{btnConfirm, "подтвердить", " Да "} {
		assert.True(t, isConfirmInput(in), in)
	}
	assert.False(t, isConfirmInput("нет"))

	for _, in := range []string{btnCancel, "отмена", "НЕТ"} {
		assert.True(t, isCancelInput(in), in)
	}
	assert.False(t, isCancelInput("да"))

	assert.True(t, isCancelDialogInput(btnCancelDialog))
	assert.True(t, isCancelDialogInput("Отменить ввод"))
	assert.False(t, isCancelDialogInput("отмена"))
}

func TestGroupOf(t *testing.T) {
	names := map[string]string{"l1": "работа", "l2": "  "}
	id := "l1"
	key, title := groupOf(&id, names)
	assert.Equal(t, "l1", key)
	assert.Equal(t, "Работа", title)

	blank := "l2"
	key, title = groupOf(&blank, names)
	assert.Equal(t, noListKey, key)
	assert.Equal(t, noList, title)

	key, _ = groupOf(nil, names)
	assert.Equal(t, noListKey, key)
}

func TestFormatTask(t *testing.T) {
	due := date(2025, 3, 9)
	task := model.Task{
		ID:          "t1",
		Title:       "pay <rent>",
		Description: "a & b",
		Status:      model.StatusPending,
		DueDate:     &due,
	}
	text := formatTask(task, testNow)
	assert.Contains(t, text, "⚠️ Pay &lt;rent&gt;")
	assert.Contains(t, text, "<code>t1</code>")
	assert.Contains(t, text, "2025-03-09 · <b>просрочено</b>")
	assert.Contains(t, text, "a &amp; b")

	task.Status = model.StatusCompleted
	text = formatTask(task, testNow)
	assert.Contains(t, text, "✅ Pay")
	assert.NotContains(t, text, "просрочено")
}

func TestDescribeError(t *testing.T) {
	verr := &service.ValidationError{Fields: []service.FieldError{
		{Field: "title", Message: "is required"},
		{Field: "due_date", Message: "<bad>"},
	}}
	assert.Equal(t, "название: is required; due_date: &lt;bad&gt;", describeError(verr))
	assert.Equal(t, "не найдено", describeError(fmt.Errorf("get: %w", service.ErrNotFound)))
	assert.Equal(t, "в списке ещё есть задачи", describeError(service.ErrListNotEmpty))
	assert.Equal(t, "данные изменились, попробуй ещё раз", describeError(service.ErrConflict))
	assert.Equal(t, "хранилище не ответило вовремя", describeError(service.ErrTimeout))
	assert.Equal(t, "a &lt; b", describeError(errors.New("a < b")))
}
