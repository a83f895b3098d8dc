// Package cli - терминальное представление доски задач
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"taskManager/internal/board"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/models/task"
	"text/tabwriter"
	"time"
)

const DateLayout = "Jan 2, 2006"

// Badge - короткая метка статуса для таблицы
func Badge(status string) string {
	switch task.Status(status) {
	case task.StatusDone, task.StatusComplete:
		return "[x] " + status
	case task.StatusInProgress:
		return "[~] " + status
	case task.StatusInReview:
		return "[?] " + status
	default:
		return "[ ] " + status
	}
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(DateLayout)
}

func RenderTable(w io.Writer, tasks []dto.TaskResponse) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tCREATED\tDESCRIPTION")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			t.ID, t.Name, Badge(t.Status), FormatDate(t.CreatedAt), truncate(t.Description, 40))
	}
	return tw.Flush()
}

func RenderTask(w io.Writer, t dto.TaskResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", t.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", t.Name)
	fmt.Fprintf(tw, "Status:\t%s\n", Badge(t.Status))
	fmt.Fprintf(tw, "Created:\t%s\n", FormatDate(t.CreatedAt))
	fmt.Fprintf(tw, "Description:\t%s\n", t.Description)
	return tw.Flush()
}

// RenderControls печатает текущие критерии поиска и сортировки
func RenderControls(w io.Writer, s board.State) error {
	search := s.Search
	if search == "" {
		search = "-"
	}
	_, err := fmt.Fprintf(w, "search: %s | filter: %s | sort: %s %s\n", search, s.StatusFilter, s.SortBy, s.Order)
	return err
}

func RenderState(w io.Writer, s board.State) error {
	if err := RenderControls(w, s); err != nil {
		return err
	}
	if s.LastError != nil {
		_, err := fmt.Fprintf(w, "Could not load tasks: %v\n", s.LastError)
		return err
	}
	return RenderTable(w, s.Tasks)
}

// Confirm задаёт вопрос с ответом y/N; всё, кроме y/yes, означает отказ
func Confirm(in *bufio.Reader, out io.Writer, question string) (bool, error) {
	if _, err := fmt.Fprintf(out, "%s [y/N]: ", question); err != nil {
		return false, err
	}
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
